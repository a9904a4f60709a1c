package repositories

import (
	"context"
	"database/sql"
	"errors"

	"waxhands/internal/models"
)

type WorkshopRepository struct {
	DB *sql.DB
}

func (r *WorkshopRepository) CreateWorkshop(ctx context.Context, w models.Workshop) (models.Workshop, error) {
	const q = `INSERT INTO workshops (school_id, title, classroom, date, price, capacity, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, NOW())`
	res, err := r.DB.ExecContext(ctx, q, w.SchoolID, w.Title, w.Classroom, w.Date, w.Price, w.Capacity)
	if err != nil {
		return models.Workshop{}, err
	}
	id, _ := res.LastInsertId()
	w.ID = int(id)
	return w, nil
}

func (r *WorkshopRepository) GetWorkshopByID(ctx context.Context, id int) (models.Workshop, error) {
	var w models.Workshop
	const q = `SELECT id, school_id, title, COALESCE(classroom, ''), date, price, capacity, created_at
	           FROM workshops WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&w.ID, &w.SchoolID, &w.Title, &w.Classroom, &w.Date, &w.Price, &w.Capacity, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workshop{}, models.ErrWorkshopNotFound
	}
	return w, err
}

func (r *WorkshopRepository) GetWorkshopsBySchool(ctx context.Context, schoolID int) ([]models.Workshop, error) {
	const q = `SELECT id, school_id, title, COALESCE(classroom, ''), date, price, capacity, created_at
	           FROM workshops WHERE school_id = ? ORDER BY date`
	rows, err := r.DB.QueryContext(ctx, q, schoolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWorkshops(rows)
}

func (r *WorkshopRepository) GetUpcomingWorkshops(ctx context.Context) ([]models.Workshop, error) {
	const q = `SELECT id, school_id, title, COALESCE(classroom, ''), date, price, capacity, created_at
	           FROM workshops WHERE date >= NOW() ORDER BY date`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWorkshops(rows)
}

func collectWorkshops(rows *sql.Rows) ([]models.Workshop, error) {
	var workshops []models.Workshop
	for rows.Next() {
		var w models.Workshop
		if err := rows.Scan(&w.ID, &w.SchoolID, &w.Title, &w.Classroom, &w.Date, &w.Price,
			&w.Capacity, &w.CreatedAt); err != nil {
			return nil, err
		}
		workshops = append(workshops, w)
	}
	return workshops, rows.Err()
}

func (r *WorkshopRepository) UpdateWorkshop(ctx context.Context, w models.Workshop) (models.Workshop, error) {
	const q = `UPDATE workshops SET school_id = ?, title = ?, classroom = ?, date = ?, price = ?, capacity = ? WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, w.SchoolID, w.Title, w.Classroom, w.Date, w.Price, w.Capacity, w.ID)
	return w, err
}

func (r *WorkshopRepository) DeleteWorkshop(ctx context.Context, id int) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM workshops WHERE id = ?`, id)
	return err
}

// Requests

func (r *WorkshopRepository) CreateRequest(ctx context.Context, req models.WorkshopRequest) (models.WorkshopRequest, error) {
	const q = `INSERT INTO workshop_requests (workshop_id, user_id, child_id, status, created_at)
	           VALUES (?, ?, ?, 'new', NOW())`
	res, err := r.DB.ExecContext(ctx, q, req.WorkshopID, req.UserID, req.ChildID)
	if err != nil {
		return models.WorkshopRequest{}, err
	}
	id, _ := res.LastInsertId()
	req.ID = int(id)
	req.Status = models.RequestStatusNew
	return req, nil
}

func (r *WorkshopRepository) GetRequestByID(ctx context.Context, id int) (models.WorkshopRequest, error) {
	var req models.WorkshopRequest
	const q = `SELECT id, workshop_id, user_id, child_id, status, invoice_id, created_at
	           FROM workshop_requests WHERE id = ?`
	err := r.DB.QueryRowContext(ctx, q, id).Scan(
		&req.ID, &req.WorkshopID, &req.UserID, &req.ChildID, &req.Status, &req.InvoiceID, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkshopRequest{}, models.ErrNoRecord
	}
	return req, err
}

func (r *WorkshopRepository) GetRequestsByUser(ctx context.Context, userID int) ([]models.WorkshopRequest, error) {
	const q = `SELECT id, workshop_id, user_id, child_id, status, invoice_id, created_at
	           FROM workshop_requests WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.WorkshopRequest
	for rows.Next() {
		var req models.WorkshopRequest
		if err := rows.Scan(&req.ID, &req.WorkshopID, &req.UserID, &req.ChildID, &req.Status,
			&req.InvoiceID, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (r *WorkshopRepository) AttachInvoice(ctx context.Context, requestID int, invoiceID string) error {
	const q = `UPDATE workshop_requests SET invoice_id = ?, status = 'invoiced' WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, invoiceID, requestID)
	return err
}

func (r *WorkshopRepository) SetRequestStatus(ctx context.Context, requestID int, status string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE workshop_requests SET status = ? WHERE id = ?`, status, requestID)
	return err
}

// ConfirmByInvoice помечает заявку подтверждённой после оплаты счёта.
func (r *WorkshopRepository) ConfirmByInvoice(ctx context.Context, invoiceID string) error {
	const q = `UPDATE workshop_requests SET status = 'confirmed' WHERE invoice_id = ? AND status = 'invoiced'`
	_, err := r.DB.ExecContext(ctx, q, invoiceID)
	return err
}
