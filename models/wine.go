package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wine is the slice of the catalog checkout depends on: existence, activity
// and the current list price used when a cart line is snapshotted.
type Wine struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	IsActive  bool            `json:"is_active" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
