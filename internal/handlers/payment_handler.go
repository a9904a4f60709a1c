package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"waxhands/internal/models"
	"waxhands/internal/services"
)

type PaymentHandler struct {
	Payments  *services.PaymentService
	Workshops *services.WorkshopService
	Robokassa *services.RobokassaService
	ErrorLog  interface{ Printf(format string, v ...any) }
}

// POST /payment/robokassa/link
// { "request_id": 42 }
func (h *PaymentHandler) CreatePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RequestID int `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	link, err := h.Workshops.CreatePaymentLink(r.Context(), req.RequestID)
	if err != nil {
		if errors.Is(err, models.ErrNoRecord) || errors.Is(err, models.ErrWorkshopNotFound) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "create payment link: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(link)
}

// Result handles the Robokassa webhook (POST form or GET query).
//
// The acknowledgement contract is Robokassa's, verbatim: every logical
// failure is an HTTP 200 with a text body ("bad sign", "invoice not found",
// "invalid amount"), success and the idempotent repeat are both "OK<InvId>".
// Only a store error returns 500 — the single legitimate retry signal.
func (h *PaymentHandler) Result(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ack(w, "bad sign")
		return
	}

	n, err := services.ParseNotification(r.Form)
	if err != nil {
		h.logf("robokassa: reject notification: %v", err)
		h.ack(w, "bad sign")
		return
	}

	result, err := h.Payments.HandleResult(r.Context(), n)
	switch {
	case errors.Is(err, models.ErrBadSignature):
		h.ack(w, "bad sign")
	case errors.Is(err, models.ErrInvoiceNotFound):
		h.ack(w, "invoice not found")
	case errors.Is(err, models.ErrAmountMismatch):
		h.ack(w, "invalid amount")
	case err != nil:
		h.logf("robokassa: settle %s: %v", n.InvID, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "internal error"})
	default:
		_ = result
		h.ack(w, "OK"+n.InvID)
	}
}

// SuccessRedirect is where the browser lands after payment. The signature
// check here uses Password1 and is advisory: a mismatch is logged, the user
// is redirected either way, settlement already happened via the webhook.
func (h *PaymentHandler) SuccessRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	outSum := q.Get("OutSum")
	invID := q.Get("InvId")
	signature := q.Get("SignatureValue")

	if !h.Robokassa.VerifySuccess(outSum, invID, signature) {
		h.logf("robokassa: success redirect signature mismatch, inv=%s", invID)
	}

	h.redirect(w, r, h.Robokassa.SuccessPageURL(), invID, outSum)
}

// FailRedirect performs no verification: no money has moved.
func (h *PaymentHandler) FailRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.redirect(w, r, h.Robokassa.FailPageURL(), q.Get("InvId"), q.Get("OutSum"))
}

func (h *PaymentHandler) redirect(w http.ResponseWriter, r *http.Request, page, invID, amount string) {
	params := url.Values{}
	params.Set("inv_id", invID)
	params.Set("amount", amount)
	params.Set("provider", models.ProviderRobokassa)
	http.Redirect(w, r, page+"?"+params.Encode(), http.StatusFound)
}

// GET /payment/history/:user_id
func (h *PaymentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(getParam(r, "user_id"))
	if err != nil {
		http.Error(w, "invalid user_id", http.StatusBadRequest)
		return
	}

	invoices, err := h.Payments.GetHistory(r.Context(), userID)
	if err != nil {
		http.Error(w, "get invoices: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invoices)
}

// GET /admin/payments?status=pending&limit=50&offset=0 — monitoring tab.
func (h *PaymentHandler) Monitoring(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(q.Get("offset"))

	invoices, err := h.Payments.ListInvoices(r.Context(), q.Get("status"), limit, offset)
	if err != nil {
		http.Error(w, "list invoices: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(invoices)
}

// POST /admin/payments/:id/cancel — administrative pending→cancelled.
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := getParam(r, "id")
	if id == "" {
		http.Error(w, "missing invoice id", http.StatusBadRequest)
		return
	}

	cancelled, err := h.Payments.CancelInvoice(r.Context(), id)
	if err != nil {
		http.Error(w, "cancel invoice: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if !cancelled {
		http.Error(w, "invoice is not pending", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PaymentHandler) ack(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (h *PaymentHandler) logf(format string, v ...any) {
	if h.ErrorLog != nil {
		h.ErrorLog.Printf(format, v...)
	}
}
