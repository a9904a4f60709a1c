package repositories

import (
	"context"
	"database/sql"
	"errors"

	"waxhands/internal/models"
)

type ChildRepository struct {
	DB *sql.DB
}

func (r *ChildRepository) CreateChild(ctx context.Context, child models.Child) (models.Child, error) {
	const q = `INSERT INTO children (parent_id, school_id, name, age, class, created_at) VALUES (?, ?, ?, ?, ?, NOW())`
	res, err := r.DB.ExecContext(ctx, q, child.ParentID, child.SchoolID, child.Name, child.Age, child.Class)
	if err != nil {
		return models.Child{}, err
	}
	id, _ := res.LastInsertId()
	child.ID = int(id)
	return child, nil
}

func (r *ChildRepository) GetChildByID(ctx context.Context, id int) (models.Child, error) {
	var child models.Child
	const q = `SELECT id, parent_id, school_id, name, age, class, created_at FROM children WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&child.ID, &child.ParentID, &child.SchoolID, &child.Name, &child.Age, &child.Class, &child.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Child{}, models.ErrChildNotFound
	}
	return child, err
}

func (r *ChildRepository) GetChildrenByParent(ctx context.Context, parentID int) ([]models.Child, error) {
	const q = `SELECT id, parent_id, school_id, name, age, class, created_at FROM children WHERE parent_id = ? ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, q, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		var child models.Child
		if err := rows.Scan(&child.ID, &child.ParentID, &child.SchoolID, &child.Name, &child.Age,
			&child.Class, &child.CreatedAt); err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, rows.Err()
}

func (r *ChildRepository) UpdateChild(ctx context.Context, child models.Child) (models.Child, error) {
	const q = `UPDATE children SET school_id = ?, name = ?, age = ?, class = ? WHERE id = ? AND parent_id = ?`
	_, err := r.DB.ExecContext(ctx, q, child.SchoolID, child.Name, child.Age, child.Class, child.ID, child.ParentID)
	return child, err
}

func (r *ChildRepository) DeleteChild(ctx context.Context, id, parentID int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM children WHERE id = ? AND parent_id = ?`, id, parentID)
	return err
}
