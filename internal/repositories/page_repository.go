package repositories

import (
	"context"
	"database/sql"
	"errors"

	"waxhands/internal/models"
)

type PageRepository struct {
	DB *sql.DB
}

func (r *PageRepository) GetPage(ctx context.Context, slug string) (models.Page, error) {
	var page models.Page
	const q = `SELECT slug, title, body, updated_at FROM pages WHERE slug = ?`
	err := r.DB.QueryRowContext(ctx, q, slug).Scan(&page.Slug, &page.Title, &page.Body, &page.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Page{}, models.ErrPageNotFound
	}
	return page, err
}

func (r *PageRepository) UpsertPage(ctx context.Context, page models.Page) (models.Page, error) {
	const q = `INSERT INTO pages (slug, title, body, updated_at) VALUES (?, ?, ?, NOW())
	           ON DUPLICATE KEY UPDATE title = VALUES(title), body = VALUES(body), updated_at = NOW()`
	_, err := r.DB.ExecContext(ctx, q, page.Slug, page.Title, page.Body)
	return page, err
}

func (r *PageRepository) GetPages(ctx context.Context) ([]models.Page, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT slug, title, body, updated_at FROM pages ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []models.Page
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(&page.Slug, &page.Title, &page.Body, &page.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}
