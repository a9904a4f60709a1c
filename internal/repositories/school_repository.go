package repositories

import (
	"context"
	"database/sql"
	"errors"

	"waxhands/internal/models"
)

type SchoolRepository struct {
	DB *sql.DB
}

func (r *SchoolRepository) CreateSchool(ctx context.Context, school models.School) (models.School, error) {
	const q = `INSERT INTO schools (name, address, city, phone, photo_url, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, NOW(), NOW())`
	res, err := r.DB.ExecContext(ctx, q, school.Name, school.Address, school.City, school.Phone, school.PhotoURL)
	if err != nil {
		return models.School{}, err
	}
	id, _ := res.LastInsertId()
	school.ID = int(id)
	return school, nil
}

func (r *SchoolRepository) GetSchools(ctx context.Context) ([]models.School, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, name, address, city, COALESCE(phone, ''), COALESCE(photo_url, ''), created_at, updated_at FROM schools ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schools []models.School
	for rows.Next() {
		var school models.School
		if err := rows.Scan(&school.ID, &school.Name, &school.Address, &school.City, &school.Phone,
			&school.PhotoURL, &school.CreatedAt, &school.UpdatedAt); err != nil {
			return nil, err
		}
		schools = append(schools, school)
	}
	return schools, rows.Err()
}

func (r *SchoolRepository) GetSchoolByID(ctx context.Context, id int) (models.School, error) {
	var school models.School
	const q = `SELECT id, name, address, city, COALESCE(phone, ''), COALESCE(photo_url, ''), created_at, updated_at
	           FROM schools WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&school.ID, &school.Name, &school.Address, &school.City,
		&school.Phone, &school.PhotoURL, &school.CreatedAt, &school.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.School{}, models.ErrSchoolNotFound
	}
	return school, err
}

func (r *SchoolRepository) UpdateSchool(ctx context.Context, school models.School) (models.School, error) {
	const q = `UPDATE schools SET name = ?, address = ?, city = ?, phone = ?, photo_url = ?, updated_at = NOW() WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, school.Name, school.Address, school.City, school.Phone, school.PhotoURL, school.ID)
	return school, err
}

func (r *SchoolRepository) DeleteSchool(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM schools WHERE id = ?`, id)
	return err
}
