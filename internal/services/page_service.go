package services

import (
	"context"

	"waxhands/internal/models"
	"waxhands/internal/repositories"
)

type PageService struct {
	PageRepo *repositories.PageRepository
}

func (s *PageService) GetPage(ctx context.Context, slug string) (models.Page, error) {
	return s.PageRepo.GetPage(ctx, slug)
}

func (s *PageService) GetPages(ctx context.Context) ([]models.Page, error) {
	return s.PageRepo.GetPages(ctx)
}

func (s *PageService) UpsertPage(ctx context.Context, page models.Page) (models.Page, error) {
	return s.PageRepo.UpsertPage(ctx, page)
}
