package models

import (
	"time"
)

const (
	InvoiceStatusPending   = "pending"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

const ProviderRobokassa = "robokassa"

// Invoice is a payment obligation for one child's place in a workshop.
// ProviderInvID is the numeric identifier handed to Robokassa when the pay
// link is built; once set it never changes. Webhook notifications may address
// the invoice by either identifier.
type Invoice struct {
	ID            string     `json:"id"`
	ProviderInvID *int64     `json:"provider_inv_id,omitempty"`
	UserID        int        `json:"user_id"`
	ChildID       int        `json:"child_id"`
	WorkshopID    int        `json:"workshop_id"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	Provider      string     `json:"provider,omitempty"`
	PaymentRef    string     `json:"payment_ref,omitempty"`
	OpKey         *string    `json:"op_key,omitempty"`
	WorkshopDate  time.Time  `json:"workshop_date"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// PaymentNotification is one inbound Robokassa callback, reduced to the
// fields the settlement flow needs. OutSum keeps the raw string exactly as
// received because the signature is computed over it.
type PaymentNotification struct {
	InvID     string
	OutSum    string
	Amount    float64
	Signature string
	Fee       string
}

// SettlementEvent is pushed to real-time subscribers after a fresh
// pending→paid transition. Never emitted on the idempotent path.
type SettlementEvent struct {
	InvoiceID  string  `json:"invoice_id"`
	UserID     int     `json:"user_id"`
	WorkshopID int     `json:"workshop_id"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
}

// RealtimeMessage is the envelope written to WebSocket clients.
type RealtimeMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
