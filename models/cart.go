package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart belongs to exactly one of a user or an anonymous session.
type Cart struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    *int64    `json:"user_id" gorm:"uniqueIndex"`
	SessionID *string   `json:"session_id" gorm:"size:64;uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartLine holds the unit price captured when the line was added or last
// touched. Checkout never re-reads the catalog price.
type CartLine struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	CartID    int64           `json:"cart_id" gorm:"not null;uniqueIndex:idx_cart_line_wine,priority:1"`
	WineID    int64           `json:"wine_id" gorm:"not null;uniqueIndex:idx_cart_line_wine,priority:2"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Subtotal is quantity times the snapshotted unit price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
