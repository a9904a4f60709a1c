package handlers

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"waxhands/internal/models"
	"waxhands/internal/services"
)

type stubInvoiceStore struct {
	mu       sync.Mutex
	invoices map[string]models.Invoice

	settleErr error
}

func newStubStore(invoices ...models.Invoice) *stubInvoiceStore {
	s := &stubInvoiceStore{invoices: make(map[string]models.Invoice)}
	for _, inv := range invoices {
		s.invoices[inv.ID] = inv
	}
	return s
}

func (s *stubInvoiceStore) GetByAnyID(_ context.Context, ident string) (models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv, ok := s.invoices[ident]; ok {
		return inv, nil
	}
	return models.Invoice{}, models.ErrInvoiceNotFound
}

func (s *stubInvoiceStore) SettlePending(_ context.Context, ident, paymentRef, provider string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settleErr != nil {
		return 0, s.settleErr
	}
	inv, ok := s.invoices[ident]
	if !ok || inv.Status != models.InvoiceStatusPending {
		return 0, nil
	}
	now := time.Now()
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = &now
	inv.PaymentRef = paymentRef
	inv.Provider = provider
	s.invoices[ident] = inv
	return 1, nil
}

func (s *stubInvoiceStore) SetOperationKey(context.Context, string, string) error { return nil }

func (s *stubInvoiceStore) CancelPending(_ context.Context, id string) (int64, error) {
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

func (s *stubInvoiceStore) GetByUser(_ context.Context, userID int) ([]models.Invoice, error) {
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

func (s *stubInvoiceStore) ListByStatus(_ context.Context, status string, _, _ int) ([]models.Invoice, error) {
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

func testRobokassa(t *testing.T) *services.RobokassaService {
	t.Helper()
	svc, err := services.NewRobokassaService(services.RobokassaConfig{
		MerchantLogin:  "waxhands",
		Password1:      "pass-one",
		Password2:      "pass-two",
		BaseURL:        "https://auth.robokassa.kz/Merchant/Index.aspx",
		SuccessPageURL: "https://waxhands.kz/payment/success",
		FailPageURL:    "https://waxhands.kz/payment/fail",
	})
	if err != nil {
		t.Fatalf("NewRobokassaService: %v", err)
	}
	return svc
}

func newPaymentHandler(t *testing.T, store services.InvoiceStore) *PaymentHandler {
	robokassa := testRobokassa(t)
	return &PaymentHandler{
		Payments: &services.PaymentService{
			Invoices:  store,
			Robokassa: robokassa,
		},
		Robokassa: robokassa,
	}
}

func resultSignature(outSum, invID string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(outSum+":"+invID+":pass-two")))
}

func postResult(t *testing.T, h *PaymentHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payment/robokassa/result", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Result(rec, req)
	return rec
}

func pendingInvoice() models.Invoice {
	return models.Invoice{
		ID:         "INV-100",
		UserID:     7,
		WorkshopID: 12,
		Amount:     1500,
		Status:     models.InvoiceStatusPending,
	}
}

func TestResultAcknowledgements(t *testing.T) {
	t.Run("successful settlement", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore(pendingInvoice()))

		rec := postResult(t, h, url.Values{
			"InvId":          {"INV-100"},
			"OutSum":         {"1500.00"},
			"SignatureValue": {resultSignature("1500.00", "INV-100")},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if body := rec.Body.String(); body != "OKINV-100" {
			t.Fatalf("body = %q, want OKINV-100", body)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Fatalf("Content-Type = %q, want text/plain", ct)
		}
	})

	t.Run("duplicate delivery acknowledged identically", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore(pendingInvoice()))
		form := url.Values{
			"InvId":          {"INV-100"},
			"OutSum":         {"1500.00"},
			"SignatureValue": {resultSignature("1500.00", "INV-100")},
		}

		first := postResult(t, h, form)
		second := postResult(t, h, form)

		if first.Body.String() != "OKINV-100" || second.Body.String() != "OKINV-100" {
			t.Fatalf("bodies = %q / %q, both must be OKINV-100",
				first.Body.String(), second.Body.String())
		}
	})

	t.Run("bad signature", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore(pendingInvoice()))

		rec := postResult(t, h, url.Values{
			"InvId":          {"INV-100"},
			"OutSum":         {"1500.00"},
			"SignatureValue": {"deadbeef"},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if body := rec.Body.String(); body != "bad sign" {
			t.Fatalf("body = %q, want bad sign", body)
		}
	})

	t.Run("malformed notification", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore(pendingInvoice()))

		rec := postResult(t, h, url.Values{"OutSum": {"1500.00"}})
		if body := rec.Body.String(); body != "bad sign" {
			t.Fatalf("body = %q, want bad sign", body)
		}
	})

	t.Run("unknown invoice", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore())

		rec := postResult(t, h, url.Values{
			"InvId":          {"INV-404"},
			"OutSum":         {"100.00"},
			"SignatureValue": {resultSignature("100.00", "INV-404")},
		})

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if body := rec.Body.String(); body != "invoice not found" {
			t.Fatalf("body = %q, want invoice not found", body)
		}
	})

	t.Run("amount mismatch", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore(pendingInvoice()))

		rec := postResult(t, h, url.Values{
			"InvId":          {"INV-100"},
			"OutSum":         {"1.00"},
			"SignatureValue": {resultSignature("1.00", "INV-100")},
		})

		if body := rec.Body.String(); body != "invalid amount" {
			t.Fatalf("body = %q, want invalid amount", body)
		}
	})

	t.Run("store error returns 500", func(t *testing.T) {
		store := newStubStore(pendingInvoice())
		store.settleErr = errors.New("mysql has gone away")
		h := newPaymentHandler(t, store)

		rec := postResult(t, h, url.Values{
			"InvId":          {"INV-100"},
			"OutSum":         {"1500.00"},
			"SignatureValue": {resultSignature("1500.00", "INV-100")},
		})

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] != "internal error" {
			t.Fatalf("body = %v, want internal error", body)
		}
	})
}

func TestResultAcceptsGetQuery(t *testing.T) {
	h := newPaymentHandler(t, newStubStore(pendingInvoice()))

	q := url.Values{
		"InvId":          {"INV-100"},
		"OutSum":         {"1500.00"},
		"SignatureValue": {resultSignature("1500.00", "INV-100")},
	}
	req := httptest.NewRequest(http.MethodGet, "/payment/robokassa/result?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	h.Result(rec, req)

	if body := rec.Body.String(); body != "OKINV-100" {
		t.Fatalf("body = %q, want OKINV-100", body)
	}
}

func TestSuccessRedirect(t *testing.T) {
	t.Run("valid signature", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore())

		sig := fmt.Sprintf("%x", md5.Sum([]byte("1500.00:INV-100:pass-one")))
		req := httptest.NewRequest(http.MethodGet,
			"/payment/robokassa/success?OutSum=1500.00&InvId=INV-100&SignatureValue="+sig, nil)
		rec := httptest.NewRecorder()
		h.SuccessRedirect(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rec.Code)
		}
		loc, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("parse location: %v", err)
		}
		if !strings.HasPrefix(loc.String(), "https://waxhands.kz/payment/success") {
			t.Fatalf("location = %q", loc)
		}
		if got := loc.Query().Get("inv_id"); got != "INV-100" {
			t.Fatalf("inv_id = %q, want INV-100", got)
		}
	})

	t.Run("mismatch still redirects", func(t *testing.T) {
		// подпись здесь совещательная: оплата уже подтверждена вебхуком
		h := newPaymentHandler(t, newStubStore())

		req := httptest.NewRequest(http.MethodGet,
			"/payment/robokassa/success?OutSum=1500.00&InvId=INV-100&SignatureValue=bogus", nil)
		rec := httptest.NewRecorder()
		h.SuccessRedirect(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302 even on signature mismatch", rec.Code)
		}
	})
}

func TestCancel(t *testing.T) {
	t.Run("pending cancels", func(t *testing.T) {
		h := newPaymentHandler(t, newStubStore(pendingInvoice()))

		req := httptest.NewRequest(http.MethodPost, "/payment/cancel?id=INV-100", nil)
		rec := httptest.NewRecorder()
		h.Cancel(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
	})

	t.Run("paid returns conflict", func(t *testing.T) {
		inv := pendingInvoice()
		inv.Status = models.InvoiceStatusPaid
		h := newPaymentHandler(t, newStubStore(inv))

		req := httptest.NewRequest(http.MethodPost, "/payment/cancel?id=INV-100", nil)
		rec := httptest.NewRecorder()
		h.Cancel(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}
