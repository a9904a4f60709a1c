package models

import "time"

// Page is a slug-keyed content record edited from the admin dashboard:
// about, contacts, privacy, bonuses, refunds.
type Page struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}
