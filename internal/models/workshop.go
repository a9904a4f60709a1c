package models

import "time"

// Workshop is one scheduled "wax hands" master class at a school.
type Workshop struct {
	ID        int       `json:"id"`
	SchoolID  int       `json:"school_id"`
	Title     string    `json:"title"`
	Classroom string    `json:"classroom,omitempty"`
	Date      time.Time `json:"date"`
	Price     float64   `json:"price"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RequestStatusNew       = "new"
	RequestStatusInvoiced  = "invoiced"
	RequestStatusConfirmed = "confirmed"
	RequestStatusDeclined  = "declined"
)

// WorkshopRequest is a parent's booking of a child into a workshop. A
// pending invoice is issued for it when the parent asks for a pay link.
type WorkshopRequest struct {
	ID         int       `json:"id"`
	WorkshopID int       `json:"workshop_id"`
	UserID     int       `json:"user_id"`
	ChildID    int       `json:"child_id"`
	Status     string    `json:"status"`
	InvoiceID  *string   `json:"invoice_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
