package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipping  OrderStatus = "shipping"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipping, StatusCancelled},
	StatusShipping:  {StatusCompleted, StatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipping, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s. Status only
// moves forward; completed and cancelled are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type DeliveryMode string

const (
	DeliveryRegular DeliveryMode = "regular"
	DeliveryExpress DeliveryMode = "express"
	DeliverySea     DeliveryMode = "sea"
)

// Normalize maps unknown or empty modes to regular delivery.
func (m DeliveryMode) Normalize() DeliveryMode {
	switch m {
	case DeliveryExpress, DeliverySea:
		return m
	}
	return DeliveryRegular
}

type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCard         PaymentMethod = "card"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCOD, PaymentBankTransfer, PaymentCard:
		return true
	}
	return false
}

// Order is immutable after checkout except for Status.
type Order struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	Reference       string          `json:"reference" gorm:"size:36;not null;uniqueIndex"`
	UserID          *int64          `json:"user_id" gorm:"index"`
	Status          OrderStatus     `json:"status" gorm:"size:20;not null;index"`
	ItemsTotal      decimal.Decimal `json:"items_total" gorm:"type:decimal(12,2);not null"`
	ShippingFee     decimal.Decimal `json:"shipping_fee" gorm:"type:decimal(12,2);not null"`
	DiscountAmount  decimal.Decimal `json:"discount_amount" gorm:"type:decimal(12,2);not null"`
	FinalTotal      decimal.Decimal `json:"final_total" gorm:"type:decimal(12,2);not null"`
	PromotionID     *int64          `json:"promotion_id"`
	DeliveryMode    DeliveryMode    `json:"delivery_mode" gorm:"size:20;not null"`
	PaymentMethod   PaymentMethod   `json:"payment_method" gorm:"size:20;not null"`
	ShippingAddress string          `json:"shipping_address" gorm:"type:text;not null"`
	Phone           string          `json:"phone" gorm:"size:20;not null"`
	Note            string          `json:"note" gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Loaded explicitly by order id, never through an association.
	Lines []OrderLine `json:"lines" gorm:"-"`
}

type OrderLine struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	OrderID         int64           `json:"order_id" gorm:"not null;index"`
	WineID          int64           `json:"wine_id" gorm:"not null;index"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" gorm:"type:decimal(12,2);not null"`
}
