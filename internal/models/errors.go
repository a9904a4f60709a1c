package models

import (
	"errors"
)

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrDuplicateEmail     = errors.New("models: duplicate email")
	ErrDuplicatePhone     = errors.New("models: duplicate phone number")
	ErrUserNotFound       = errors.New("models: user not found")
	ErrInvalidPassword    = errors.New("models: invalid password")
	ErrSchoolNotFound     = errors.New("school not found")
	ErrChildNotFound      = errors.New("child not found")
	ErrWorkshopNotFound   = errors.New("workshop not found")
	ErrPageNotFound       = errors.New("page not found")
)

// Payment flow failures. The webhook handler maps these to the soft
// acknowledgement bodies Robokassa expects instead of HTTP errors.
var (
	ErrBadSignature    = errors.New("payment: bad signature")
	ErrInvoiceNotFound = errors.New("payment: invoice not found")
	ErrAmountMismatch  = errors.New("payment: amount mismatch")
)
