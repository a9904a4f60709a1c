package repositories

import (
	"context"
	"database/sql"

	"waxhands/internal/models"
)

type InvoiceRepository struct {
	DB *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository { return &InvoiceRepository{DB: db} }

const invoiceColumns = `id, provider_inv_id, user_id, child_id, workshop_id, amount, status,
       COALESCE(provider, ''), COALESCE(payment_ref, ''), op_key, workshop_date, created_at, paid_at`

func scanInvoice(row interface{ Scan(...any) error }) (models.Invoice, error) {
	var inv models.Invoice
	err := row.Scan(
		&inv.ID, &inv.ProviderInvID, &inv.UserID, &inv.ChildID, &inv.WorkshopID,
		&inv.Amount, &inv.Status, &inv.Provider, &inv.PaymentRef, &inv.OpKey,
		&inv.WorkshopDate, &inv.CreatedAt, &inv.PaidAt,
	)
	return inv, err
}

func (r *InvoiceRepository) Create(ctx context.Context, inv models.Invoice) (models.Invoice, error) {
	const q = `INSERT INTO invoices (id, user_id, child_id, workshop_id, amount, status, workshop_date, created_at)
	           VALUES (?, ?, ?, ?, ?, 'pending', ?, NOW())`
	_, err := r.DB.ExecContext(ctx, q, inv.ID, inv.UserID, inv.ChildID, inv.WorkshopID, inv.Amount, inv.WorkshopDate)
	if err != nil {
		return models.Invoice{}, err
	}
	inv.Status = models.InvoiceStatusPending
	return inv, nil
}

// AssignProviderID records the identifier handed to Robokassa when the pay
// link was built. The IS NULL guard keeps the identifier immutable: a second
// call for the same invoice affects zero rows.
func (r *InvoiceRepository) AssignProviderID(ctx context.Context, id string, providerInvID int64) error {
	const q = `UPDATE invoices SET provider_inv_id = ? WHERE id = ? AND provider_inv_id IS NULL`
	_, err := r.DB.ExecContext(ctx, q, providerInvID, id)
	return err
}

// GetByAnyID resolves an invoice by its own id or by the provider-assigned
// identifier in a single lookup. More than one match cannot happen with the
// unique index on provider_inv_id, but if it ever does we refuse to pick one.
func (r *InvoiceRepository) GetByAnyID(ctx context.Context, ident string) (models.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ? OR provider_inv_id = ? LIMIT 2`
	rows, err := r.DB.QueryContext(ctx, q, ident, ident)
	if err != nil {
		return models.Invoice{}, err
	}
	defer rows.Close()

	var found []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return models.Invoice{}, err
		}
		found = append(found, inv)
	}
	if err := rows.Err(); err != nil {
		return models.Invoice{}, err
	}
	if len(found) != 1 {
		return models.Invoice{}, models.ErrInvoiceNotFound
	}
	return found[0], nil
}

// SettlePending performs the single permitted transition pending→paid. The
// status predicate is the concurrency guard: of two concurrent webhook
// deliveries exactly one affects a row, the other reads zero rows and falls
// back to the idempotent path.
func (r *InvoiceRepository) SettlePending(ctx context.Context, ident, paymentRef, provider string) (int64, error) {
	const q = `UPDATE invoices
	           SET status = 'paid', paid_at = NOW(), payment_ref = ?, provider = ?
	           WHERE (id = ? OR provider_inv_id = ?) AND status = 'pending'`
	res, err := r.DB.ExecContext(ctx, q, paymentRef, provider, ident, ident)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SetOperationKey backfills the refund operation key after settlement.
// Best-effort: the invoice stays paid with a NULL key if this never runs.
func (r *InvoiceRepository) SetOperationKey(ctx context.Context, id, opKey string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE invoices SET op_key = ? WHERE id = ?`, opKey, id)
	return err
}

// CancelPending is the administrative pending→cancelled transition; a paid
// invoice is never touched.
func (r *InvoiceRepository) CancelPending(ctx context.Context, id string) (int64, error) {
	const q = `UPDATE invoices SET status = 'cancelled' WHERE id = ? AND status = 'pending'`
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *InvoiceRepository) GetByUser(ctx context.Context, userID int) ([]models.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// ListByStatus feeds the admin payment monitoring tab.
func (r *InvoiceRepository) ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Invoice, error) {
	const q = `SELECT ` + invoiceColumns + ` FROM invoices
	           WHERE (? = '' OR status = ?)
	           ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, q, status, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}
