package services

import (
	"context"

	"waxhands/internal/models"
	"waxhands/internal/repositories"
)

type ChildService struct {
	ChildRepo *repositories.ChildRepository
}

func (s *ChildService) CreateChild(ctx context.Context, child models.Child) (models.Child, error) {
	return s.ChildRepo.CreateChild(ctx, child)
}

func (s *ChildService) GetChildByID(ctx context.Context, id int) (models.Child, error) {
	return s.ChildRepo.GetChildByID(ctx, id)
}

func (s *ChildService) GetChildrenByParent(ctx context.Context, parentID int) ([]models.Child, error) {
	return s.ChildRepo.GetChildrenByParent(ctx, parentID)
}

func (s *ChildService) UpdateChild(ctx context.Context, child models.Child) (models.Child, error) {
	return s.ChildRepo.UpdateChild(ctx, child)
}

func (s *ChildService) DeleteChild(ctx context.Context, id, parentID int) error {
	return s.ChildRepo.DeleteChild(ctx, id, parentID)
}
