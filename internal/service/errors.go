package service

import (
	"errors"
	"fmt"
)

// Every failure in this package is detected before any mutation is committed;
// a sale or an import either applies in full or not at all. None of these are
// retried internally — retry is the caller's call, and only ErrBusy is worth it.
var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrMalformedBackup     = errors.New("malformed backup file")
	ErrBusy                = errors.New("could not acquire stock lock, try again")
)

// NotFoundError reports a missing product, sale or user.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// InsufficientStockError carries the quantity actually available at lock time
// so register clients can show it.
type InsufficientStockError struct {
	ProductID uint
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q (available: %d)", e.Name, e.Available)
}

// ValidationError reports a request field that failed struct validation.
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field '%s' failed on tag '%s'", e.Field, e.Tag)
}
