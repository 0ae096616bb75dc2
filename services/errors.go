package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidCheckout   = errors.New("invalid checkout request")
	ErrLockTimeout       = errors.New("stock lock wait timed out, retry checkout")
	ErrPersistence       = errors.New("persistence failure")
	ErrMissingIdentity   = errors.New("missing user or session identity")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrCartLineNotFound  = errors.New("cart line not found")
	ErrWineNotFound      = errors.New("wine not found")
	ErrBatchNotFound     = errors.New("inventory batch not found")
	ErrDuplicateBatch    = errors.New("batch code already exists for this wine")
	ErrNegativeStock     = errors.New("stock cannot go below zero")
	ErrInvalidPromotion  = errors.New("invalid promotion")
	ErrPromotionNotFound = errors.New("promotion not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrCartChanged       = errors.New("cart changed during checkout, review it and retry")
)

// InsufficientStockError is terminal for the current cart contents.
type InsufficientStockError struct {
	WineID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for wine %d: requested %d, available %d", e.WineID, e.Requested, e.Available)
}

// ProductUnavailableError means the line must be removed from the cart.
type ProductUnavailableError struct {
	WineID int64
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("wine %d is no longer available", e.WineID)
}

// IsRetryable reports whether the whole checkout may simply be attempted again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockTimeout)
}

const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
)

func isLockConflict(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlLockWaitTimeout || myErr.Number == mysqlDeadlock
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// storageError classifies a raw driver error. Errors that already carry a
// domain meaning pass through untouched.
func storageError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	if isLockConflict(err) {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func isDomainError(err error) bool {
	var stockErr *InsufficientStockError
	var unavailableErr *ProductUnavailableError
	switch {
	case errors.As(err, &stockErr), errors.As(err, &unavailableErr):
		return true
	case errors.Is(err, ErrLockTimeout), errors.Is(err, ErrPersistence):
		return true
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrCartChanged), errors.Is(err, ErrInvalidCheckout),
		errors.Is(err, ErrMissingIdentity), errors.Is(err, ErrInvalidQuantity):
		return true
	}
	return false
}
