package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"waxhands/internal/models"
)

type fakeInvoiceStore struct {
	mu       sync.Mutex
	invoices map[string]models.Invoice

	settleErr error
	getErr    error

	settleCalls int
	opKeys      map[string]string
}

func newFakeStore(invoices ...models.Invoice) *fakeInvoiceStore {
	s := &fakeInvoiceStore{
		invoices: make(map[string]models.Invoice),
		opKeys:   make(map[string]string),
	}
	for _, inv := range invoices {
		s.invoices[inv.ID] = inv
	}
	return s
}

func (s *fakeInvoiceStore) find(ident string) (models.Invoice, bool) {
	for _, inv := range s.invoices {
		if inv.ID == ident {
			return inv, true
		}
		if inv.ProviderInvID != nil && strconv.FormatInt(*inv.ProviderInvID, 10) == ident {
			return inv, true
		}
	}
	return models.Invoice{}, false
}

func (s *fakeInvoiceStore) GetByAnyID(_ context.Context, ident string) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return models.Invoice{}, s.getErr
	}
	inv, ok := s.find(ident)
	if !ok {
		return models.Invoice{}, models.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *fakeInvoiceStore) SettlePending(_ context.Context, ident, paymentRef, provider string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settleCalls++
	if s.settleErr != nil {
		return 0, s.settleErr
	}
	inv, ok := s.find(ident)
	if !ok || inv.Status != models.InvoiceStatusPending {
		return 0, nil
	}
	now := time.Now()
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = &now
	inv.PaymentRef = paymentRef
	inv.Provider = provider
	s.invoices[inv.ID] = inv
	return 1, nil
}

func (s *fakeInvoiceStore) SetOperationKey(_ context.Context, id, opKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opKeys[id] = opKey
	return nil
}

func (s *fakeInvoiceStore) CancelPending(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok || inv.Status != models.InvoiceStatusPending {
		return 0, nil
	}
	inv.Status = models.InvoiceStatusCancelled
	s.invoices[id] = inv
	return 1, nil
}

func (s *fakeInvoiceStore) GetByUser(_ context.Context, userID int) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range s.invoices {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *fakeInvoiceStore) ListByStatus(_ context.Context, status string, _, _ int) ([]models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Invoice
	for _, inv := range s.invoices {
		if status == "" || inv.Status == status {
			out = append(out, inv)
		}
	}
	return out, nil
}

type captureNotifier struct {
	events chan models.SettlementEvent
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{events: make(chan models.SettlementEvent, 4)}
}

func (n *captureNotifier) NotifyPaid(event models.SettlementEvent) {
	n.events <- event
}

func (n *captureNotifier) wait(t *testing.T) models.SettlementEvent {
	t.Helper()
	select {
	case e := <-n.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for settlement event")
		return models.SettlementEvent{}
	}
}

func (n *captureNotifier) expectNone(t *testing.T) {
	t.Helper()
	select {
	case e := <-n.events:
		t.Fatalf("unexpected settlement event: %+v", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func pendingInvoice() models.Invoice {
	return models.Invoice{
		ID:         "INV-100",
		UserID:     7,
		ChildID:    3,
		WorkshopID: 12,
		Amount:     1500,
		Status:     models.InvoiceStatusPending,
	}
}

func signedNotification(svc *RobokassaService, invID, outSum string) models.PaymentNotification {
	amount, _ := strconv.ParseFloat(outSum, 64)
	return models.PaymentNotification{
		InvID:     invID,
		OutSum:    outSum,
		Amount:    amount,
		Signature: md5hex(outSum + ":" + invID + ":" + svc.Password2),
		Fee:       "52.50",
	}
}

func newPaymentService(store InvoiceStore, notifier SettlementNotifier, t *testing.T) *PaymentService {
	return &PaymentService{
		Invoices:  store,
		Robokassa: newTestRobokassa(t),
		Notifier:  notifier,
	}
}

func TestHandleResultSettlesPendingInvoice(t *testing.T) {
	store := newFakeStore(pendingInvoice())
	notifier := newCaptureNotifier()
	svc := newPaymentService(store, notifier, t)

	n := signedNotification(svc.Robokassa, "INV-100", "1500.00")
	result, err := svc.HandleResult(context.Background(), n)
	if err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if result.AlreadyPaid {
		t.Fatal("fresh settlement reported as already paid")
	}
	if result.Invoice.Status != models.InvoiceStatusPaid {
		t.Fatalf("status = %q, want paid", result.Invoice.Status)
	}
	if result.Invoice.PaymentRef != "52.50" {
		t.Fatalf("payment_ref = %q, want the Fee value", result.Invoice.PaymentRef)
	}

	event := notifier.wait(t)
	if event.InvoiceID != "INV-100" || event.UserID != 7 || event.Status != models.InvoiceStatusPaid {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestHandleResultBadSignature(t *testing.T) {
	store := newFakeStore(pendingInvoice())
	svc := newPaymentService(store, nil, t)

	n := signedNotification(svc.Robokassa, "INV-100", "1500.00")
	n.Signature = "deadbeef"

	_, err := svc.HandleResult(context.Background(), n)
	if !errors.Is(err, models.ErrBadSignature) {
		t.Fatalf("err = %v, want ErrBadSignature", err)
	}
	if store.settleCalls != 0 {
		t.Fatal("store must not be touched on a bad signature")
	}
	inv, _ := store.GetByAnyID(context.Background(), "INV-100")
	if inv.Status != models.InvoiceStatusPending {
		t.Fatalf("invoice mutated on bad signature: %q", inv.Status)
	}
}

func TestHandleResultUnknownInvoice(t *testing.T) {
	store := newFakeStore()
	svc := newPaymentService(store, nil, t)

	n := signedNotification(svc.Robokassa, "INV-404", "100.00")
	_, err := svc.HandleResult(context.Background(), n)
	if !errors.Is(err, models.ErrInvoiceNotFound) {
		t.Fatalf("err = %v, want ErrInvoiceNotFound", err)
	}
}

func TestHandleResultResolvesByProviderID(t *testing.T) {
	inv := pendingInvoice()
	pid := int64(987654)
	inv.ProviderInvID = &pid
	store := newFakeStore(inv)
	notifier := newCaptureNotifier()
	svc := newPaymentService(store, notifier, t)

	n := signedNotification(svc.Robokassa, "987654", "1500.00")
	result, err := svc.HandleResult(context.Background(), n)
	if err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if result.Invoice.ID != "INV-100" {
		t.Fatalf("resolved invoice = %q, want INV-100", result.Invoice.ID)
	}
	notifier.wait(t)
}

func TestHandleResultIdempotentRepeat(t *testing.T) {
	store := newFakeStore(pendingInvoice())
	notifier := newCaptureNotifier()
	svc := newPaymentService(store, notifier, t)

	n := signedNotification(svc.Robokassa, "INV-100", "1500.00")
	if _, err := svc.HandleResult(context.Background(), n); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	notifier.wait(t)

	result, err := svc.HandleResult(context.Background(), n)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !result.AlreadyPaid {
		t.Fatal("repeat delivery must report AlreadyPaid")
	}
	if store.settleCalls != 1 {
		t.Fatalf("settleCalls = %d, want 1", store.settleCalls)
	}
	notifier.expectNone(t)
}

func TestHandleResultAmountTolerance(t *testing.T) {
	t.Run("within tolerance", func(t *testing.T) {
		store := newFakeStore(pendingInvoice())
		notifier := newCaptureNotifier()
		svc := newPaymentService(store, notifier, t)

		// 1500.01 против 1500.00 — в пределах копеечного допуска
		n := signedNotification(svc.Robokassa, "INV-100", "1500.01")
		result, err := svc.HandleResult(context.Background(), n)
		if err != nil {
			t.Fatalf("HandleResult: %v", err)
		}
		if result.Invoice.Status != models.InvoiceStatusPaid {
			t.Fatalf("status = %q, want paid", result.Invoice.Status)
		}
		notifier.wait(t)
	})

	t.Run("beyond tolerance", func(t *testing.T) {
		store := newFakeStore(pendingInvoice())
		svc := newPaymentService(store, nil, t)

		n := signedNotification(svc.Robokassa, "INV-100", "1400.00")
		_, err := svc.HandleResult(context.Background(), n)
		if !errors.Is(err, models.ErrAmountMismatch) {
			t.Fatalf("err = %v, want ErrAmountMismatch", err)
		}
		inv, _ := store.GetByAnyID(context.Background(), "INV-100")
		if inv.Status != models.InvoiceStatusPending {
			t.Fatalf("invoice mutated on amount mismatch: %q", inv.Status)
		}
	})
}

func TestHandleResultLosesRaceToParallelDelivery(t *testing.T) {
	// Конкурирующая доставка успела оплатить счёт между нашим чтением и
	// UPDATE'ом: нулевые rows affected, перечитали — оплачен.
	store := newFakeStore(pendingInvoice())
	notifier := newCaptureNotifier()
	svc := newPaymentService(store, notifier, t)

	raced := &racingStore{fakeInvoiceStore: store}
	svc.Invoices = raced

	n := signedNotification(svc.Robokassa, "INV-100", "1500.00")
	result, err := svc.HandleResult(context.Background(), n)
	if err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if !result.AlreadyPaid {
		t.Fatal("race loser must land on the idempotent path")
	}
	notifier.expectNone(t)
}

// racingStore settles the invoice out-of-band right before the guarded
// update runs, simulating a parallel webhook delivery winning the race.
type racingStore struct {
	*fakeInvoiceStore
}

func (s *racingStore) SettlePending(ctx context.Context, ident, paymentRef, provider string) (int64, error) {
	if _, err := s.fakeInvoiceStore.SettlePending(ctx, ident, "rival", provider); err != nil {
		return 0, err
	}
	// повторная попытка с тем же guard'ом — ноль строк
	return s.fakeInvoiceStore.SettlePending(ctx, ident, paymentRef, provider)
}

func TestHandleResultStoreError(t *testing.T) {
	store := newFakeStore(pendingInvoice())
	store.settleErr = errors.New("mysql has gone away")
	svc := newPaymentService(store, nil, t)

	n := signedNotification(svc.Robokassa, "INV-100", "1500.00")
	_, err := svc.HandleResult(context.Background(), n)
	if err == nil || errors.Is(err, models.ErrBadSignature) ||
		errors.Is(err, models.ErrInvoiceNotFound) || errors.Is(err, models.ErrAmountMismatch) {
		t.Fatalf("store error must surface as-is, got %v", err)
	}
}

func TestHandleResultEnrichmentFailureDoesNotAffectSettlement(t *testing.T) {
	inv := pendingInvoice()
	pid := int64(555)
	inv.ProviderInvID = &pid
	store := newFakeStore(inv)
	notifier := newCaptureNotifier()

	// StatusURL пуст: FetchOperationKey гарантированно падает
	svc := newPaymentService(store, notifier, t)

	n := signedNotification(svc.Robokassa, "INV-100", "1500.00")
	result, err := svc.HandleResult(context.Background(), n)
	if err != nil {
		t.Fatalf("HandleResult: %v", err)
	}
	if result.Invoice.Status != models.InvoiceStatusPaid {
		t.Fatalf("status = %q, want paid", result.Invoice.Status)
	}

	// уведомление всё равно уходит
	notifier.wait(t)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.opKeys) != 0 {
		t.Fatalf("op key stored despite enrichment failure: %v", store.opKeys)
	}
}

func TestCancelInvoice(t *testing.T) {
	store := newFakeStore(pendingInvoice())
	svc := newPaymentService(store, nil, t)

	cancelled, err := svc.CancelInvoice(context.Background(), "INV-100")
	if err != nil {
		t.Fatalf("CancelInvoice: %v", err)
	}
	if !cancelled {
		t.Fatal("pending invoice must cancel")
	}

	cancelled, err = svc.CancelInvoice(context.Background(), "INV-100")
	if err != nil {
		t.Fatalf("CancelInvoice repeat: %v", err)
	}
	if cancelled {
		t.Fatal("non-pending invoice must not cancel")
	}
}
