package services

import (
	"context"

	"waxhands/internal/models"
	"waxhands/internal/repositories"
)

type SchoolService struct {
	SchoolRepo *repositories.SchoolRepository
}

func (s *SchoolService) CreateSchool(ctx context.Context, school models.School) (models.School, error) {
	return s.SchoolRepo.CreateSchool(ctx, school)
}

func (s *SchoolService) GetSchools(ctx context.Context) ([]models.School, error) {
	return s.SchoolRepo.GetSchools(ctx)
}

func (s *SchoolService) GetSchoolByID(ctx context.Context, id int) (models.School, error) {
	return s.SchoolRepo.GetSchoolByID(ctx, id)
}

func (s *SchoolService) UpdateSchool(ctx context.Context, school models.School) (models.School, error) {
	return s.SchoolRepo.UpdateSchool(ctx, school)
}

func (s *SchoolService) DeleteSchool(ctx context.Context, id int) error {
	return s.SchoolRepo.DeleteSchool(ctx, id)
}
