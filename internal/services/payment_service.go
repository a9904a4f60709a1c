package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"waxhands/internal/models"
)

// Абсолютный допуск Robokassa на расхождение суммы.
const amountTolerance = 0.01

const afterSettleTimeout = 5 * time.Second

// InvoiceStore is the slice of the invoice repository the settlement engine
// touches. Kept as an interface so the engine is testable without MySQL.
type InvoiceStore interface {
	GetByAnyID(ctx context.Context, ident string) (models.Invoice, error)
	SettlePending(ctx context.Context, ident, paymentRef, provider string) (int64, error)
	SetOperationKey(ctx context.Context, id, opKey string) error
	CancelPending(ctx context.Context, id string) (int64, error)
	GetByUser(ctx context.Context, userID int) ([]models.Invoice, error)
	ListByStatus(ctx context.Context, status string, limit, offset int) ([]models.Invoice, error)
}

// SettlementNotifier delivers a settlement event to real-time subscribers.
// Fire-and-forget: implementations must never block the webhook response.
type SettlementNotifier interface {
	NotifyPaid(event models.SettlementEvent)
}

// BookingConfirmer flips the workshop request behind a paid invoice to
// confirmed. Optional, best-effort.
type BookingConfirmer interface {
	ConfirmByInvoice(ctx context.Context, invoiceID string) error
}

type PaymentService struct {
	Invoices  InvoiceStore
	Robokassa *RobokassaService
	Notifier  SettlementNotifier
	Bookings  BookingConfirmer
	Logger    *slog.Logger
}

// SettlementResult is what the webhook boundary translates into the
// provider's acknowledgement body.
type SettlementResult struct {
	Invoice     models.Invoice
	AlreadyPaid bool
}

// HandleResult is the webhook reconciliation flow: verify the signature,
// resolve the invoice by either identifier, short-circuit if it is already
// paid, validate the amount, then apply the status-guarded update. Secondary
// enrichment and real-time notification run after the commit and cannot fail
// the settlement.
//
// Errors returned: models.ErrBadSignature, models.ErrInvoiceNotFound,
// models.ErrAmountMismatch, or a store error (the only retryable case).
func (s *PaymentService) HandleResult(ctx context.Context, n models.PaymentNotification) (SettlementResult, error) {
	// Подпись проверяем до поиска счёта: подделанное уведомление не должно
	// узнать, существует ли счёт.
	if !s.Robokassa.VerifyResult(n.OutSum, n.InvID, n.Signature) {
		return SettlementResult{}, models.ErrBadSignature
	}

	inv, err := s.Invoices.GetByAnyID(ctx, n.InvID)
	if err != nil {
		return SettlementResult{}, err
	}

	// Идемпотентность: повторная доставка уже оплаченного счёта — успех без
	// мутаций и без повторного события.
	if inv.Status == models.InvoiceStatusPaid {
		return SettlementResult{Invoice: inv, AlreadyPaid: true}, nil
	}

	if math.Abs(n.Amount-inv.Amount) > amountTolerance {
		s.logger().Warn("robokassa amount mismatch",
			"invoice", inv.ID, "expected", inv.Amount, "got", n.Amount)
		return SettlementResult{}, models.ErrAmountMismatch
	}

	affected, err := s.Invoices.SettlePending(ctx, n.InvID, n.Fee, models.ProviderRobokassa)
	if err != nil {
		return SettlementResult{}, err
	}
	if affected == 0 {
		// Проиграли гонку параллельной доставке: перечитываем и, если счёт
		// уже оплачен, уходим в идемпотентную ветку.
		cur, err := s.Invoices.GetByAnyID(ctx, n.InvID)
		if err != nil {
			return SettlementResult{}, err
		}
		if cur.Status == models.InvoiceStatusPaid {
			return SettlementResult{Invoice: cur, AlreadyPaid: true}, nil
		}
		return SettlementResult{}, fmt.Errorf("settle %s: no rows updated, status %q", cur.ID, cur.Status)
	}

	settled, err := s.Invoices.GetByAnyID(ctx, n.InvID)
	if err != nil {
		// Сама оплата уже зафиксирована; отвечаем успехом по данным, что есть.
		s.logger().Error("re-read settled invoice", "invoice", inv.ID, "err", err)
		settled = inv
		settled.Status = models.InvoiceStatusPaid
	}

	go s.afterSettle(settled)

	return SettlementResult{Invoice: settled}, nil
}

// afterSettle runs the best-effort tail of the flow on its own deadline so a
// slow OpState call can never delay the webhook acknowledgement. Every
// failure here is logged and swallowed.
func (s *PaymentService) afterSettle(inv models.Invoice) {
	defer func() {
		if r := recover(); r != nil {
			s.logger().Error("after-settle panic", "invoice", inv.ID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), afterSettleTimeout)
	defer cancel()

	if s.Bookings != nil {
		if err := s.Bookings.ConfirmByInvoice(ctx, inv.ID); err != nil {
			s.logger().Warn("confirm booking", "invoice", inv.ID, "err", err)
		}
	}

	if inv.ProviderInvID != nil {
		opKey, err := s.Robokassa.FetchOperationKey(ctx, *inv.ProviderInvID)
		if err != nil {
			s.logger().Warn("opstate enrichment skipped", "invoice", inv.ID, "err", err)
		} else if err := s.Invoices.SetOperationKey(ctx, inv.ID, opKey); err != nil {
			s.logger().Warn("store op key", "invoice", inv.ID, "err", err)
		}
	}

	if s.Notifier != nil {
		s.Notifier.NotifyPaid(models.SettlementEvent{
			InvoiceID:  inv.ID,
			UserID:     inv.UserID,
			WorkshopID: inv.WorkshopID,
			Amount:     inv.Amount,
			Status:     inv.Status,
		})
	}
}

func (s *PaymentService) GetHistory(ctx context.Context, userID int) ([]models.Invoice, error) {
	return s.Invoices.GetByUser(ctx, userID)
}

func (s *PaymentService) ListInvoices(ctx context.Context, status string, limit, offset int) ([]models.Invoice, error) {
	return s.Invoices.ListByStatus(ctx, status, limit, offset)
}

// CancelInvoice applies the administrative pending→cancelled transition.
// Returns false when the invoice was not pending (already paid or cancelled).
func (s *PaymentService) CancelInvoice(ctx context.Context, id string) (bool, error) {
	affected, err := s.Invoices.CancelPending(ctx, id)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *PaymentService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
