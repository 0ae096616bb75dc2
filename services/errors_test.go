package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"wine_shop/metrics"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestStorageErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"mysql lock wait timeout", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"}, true},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, true},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"sqlite locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"context deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"mysql duplicate key", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false},
		{"generic", errors.New("disk full"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := storageError(tt.err)
			assert.Equal(t, tt.retryable, IsRetryable(classified))
			assert.Equal(t, !tt.retryable, errors.Is(classified, ErrPersistence))
			assert.ErrorIs(t, classified, tt.err)
		})
	}
}

func TestStorageErrorKeepsDomainErrors(t *testing.T) {
	stockErr := &InsufficientStockError{WineID: 3, Requested: 10, Available: 7}
	assert.Same(t, stockErr, storageError(stockErr))
	assert.Equal(t, ErrEmptyCart, storageError(ErrEmptyCart))
	assert.Equal(t, ErrCartChanged, storageError(ErrCartChanged))
	assert.Equal(t, ErrInvalidQuantity, storageError(ErrInvalidQuantity))
	assert.False(t, errors.Is(storageError(ErrInvalidQuantity), ErrPersistence))
	assert.Nil(t, storageError(nil))

	already := storageError(errors.New("boom"))
	assert.Equal(t, already, storageError(already))
}

func TestCheckoutOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeCommitted, checkoutOutcome(nil))
	assert.Equal(t, metrics.OutcomeEmptyCart, checkoutOutcome(ErrEmptyCart))
	assert.Equal(t, metrics.OutcomeCartChanged, checkoutOutcome(ErrCartChanged))
	assert.Equal(t, metrics.OutcomeUnavailable, checkoutOutcome(&ProductUnavailableError{WineID: 1}))
	assert.Equal(t, metrics.OutcomeInsufficientStock, checkoutOutcome(&InsufficientStockError{WineID: 1}))
	assert.Equal(t, metrics.OutcomeLockTimeout, checkoutOutcome(storageError(sqlite3.Error{Code: sqlite3.ErrBusy})))
	assert.Equal(t, metrics.OutcomePersistence, checkoutOutcome(storageError(errors.New("io"))))
	assert.Equal(t, metrics.OutcomeInvalid, checkoutOutcome(ErrInvalidCheckout))
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := &InsufficientStockError{WineID: 2, Requested: 10, Available: 7}
	assert.Equal(t, "insufficient stock for wine 2: requested 10, available 7", err.Error())
}
