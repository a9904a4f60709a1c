package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"waxhands/internal/models"
)

var invoiceCols = []string{
	"id", "provider_inv_id", "user_id", "child_id", "workshop_id", "amount", "status",
	"provider", "payment_ref", "op_key", "workshop_date", "created_at", "paid_at",
}

func invoiceRow(id string, providerInvID interface{}, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(invoiceCols).AddRow(
		id, providerInvID, 7, 3, 12, 1500.0, status,
		"", "", nil, now, now, nil,
	)
}

func TestGetByAnyID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvoiceRepository(db)

	t.Run("found by own id", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM invoices WHERE id = \\? OR provider_inv_id = \\?").
			WithArgs("INV-100", "INV-100").
			WillReturnRows(invoiceRow("INV-100", nil, "pending"))

		inv, err := repo.GetByAnyID(context.Background(), "INV-100")
		require.NoError(t, err)
		require.Equal(t, "INV-100", inv.ID)
		require.Equal(t, models.InvoiceStatusPending, inv.Status)
		require.Nil(t, inv.ProviderInvID)
	})

	t.Run("found by provider id", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM invoices WHERE id = \\? OR provider_inv_id = \\?").
			WithArgs("987654", "987654").
			WillReturnRows(invoiceRow("INV-100", int64(987654), "pending"))

		inv, err := repo.GetByAnyID(context.Background(), "987654")
		require.NoError(t, err)
		require.Equal(t, "INV-100", inv.ID)
		require.NotNil(t, inv.ProviderInvID)
		require.Equal(t, int64(987654), *inv.ProviderInvID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM invoices WHERE id = \\? OR provider_inv_id = \\?").
			WithArgs("INV-404", "INV-404").
			WillReturnRows(sqlmock.NewRows(invoiceCols))

		_, err := repo.GetByAnyID(context.Background(), "INV-404")
		require.ErrorIs(t, err, models.ErrInvoiceNotFound)
	})

	t.Run("ambiguous match refused", func(t *testing.T) {
		rows := invoiceRow("INV-100", nil, "pending").
			AddRow("INV-200", int64(100), 8, 4, 13, 900.0, "pending", "", "", nil, time.Now(), time.Now(), nil)
		mock.ExpectQuery("SELECT .+ FROM invoices WHERE id = \\? OR provider_inv_id = \\?").
			WithArgs("100", "100").
			WillReturnRows(rows)

		_, err := repo.GetByAnyID(context.Background(), "100")
		require.ErrorIs(t, err, models.ErrInvoiceNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettlePending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvoiceRepository(db)

	settleQuery := regexp.QuoteMeta(`UPDATE invoices`)

	t.Run("pending row settles", func(t *testing.T) {
		mock.ExpectExec(settleQuery).
			WithArgs("52.50", models.ProviderRobokassa, "INV-100", "INV-100").
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := repo.SettlePending(context.Background(), "INV-100", "52.50", models.ProviderRobokassa)
		require.NoError(t, err)
		require.EqualValues(t, 1, affected)
	})

	t.Run("already paid row is untouched", func(t *testing.T) {
		mock.ExpectExec(settleQuery).
			WithArgs("52.50", models.ProviderRobokassa, "INV-100", "INV-100").
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.SettlePending(context.Background(), "INV-100", "52.50", models.ProviderRobokassa)
		require.NoError(t, err)
		require.EqualValues(t, 0, affected)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignProviderID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvoiceRepository(db)

	// guard: второй вызов по тому же счёту не перезаписывает идентификатор
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE invoices SET provider_inv_id = ? WHERE id = ? AND provider_inv_id IS NULL`)).
		WithArgs(int64(987654), "INV-100").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AssignProviderID(context.Background(), "INV-100", 987654))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvoiceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE invoices SET status = 'cancelled' WHERE id = ? AND status = 'pending'`)).
		WithArgs("INV-100").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.CancelPending(context.Background(), "INV-100")
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewInvoiceRepository(db)

	mock.ExpectQuery("SELECT .+ FROM invoices").
		WithArgs("pending", "pending", 50, 0).
		WillReturnRows(invoiceRow("INV-100", nil, "pending"))

	invoices, err := repo.ListByStatus(context.Background(), "pending", 50, 0)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Equal(t, "INV-100", invoices[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
