package events

import (
	"context"
	"time"

	"wine_shop/models"

	"github.com/google/uuid"
)

const TypeOrderPlaced = "order.placed"

// OrderPlacedEvent is emitted after a checkout commits.
type OrderPlacedEvent struct {
	EventID        string      `json:"event_id"`
	Type           string      `json:"type"`
	OrderID        int64       `json:"order_id"`
	Reference      string      `json:"reference"`
	UserID         *int64      `json:"user_id,omitempty"`
	ItemsTotal     string      `json:"items_total"`
	ShippingFee    string      `json:"shipping_fee"`
	DiscountAmount string      `json:"discount_amount"`
	FinalTotal     string      `json:"final_total"`
	PromotionID    *int64      `json:"promotion_id,omitempty"`
	DeliveryMode   string      `json:"delivery_mode"`
	Items          []OrderItem `json:"items"`
	Timestamp      time.Time   `json:"timestamp"`
}

type OrderItem struct {
	WineID   int64  `json:"wine_id"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Publisher delivers order events. Delivery is best effort: a committed
// order is never undone because an event could not be published.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
	Close() error
}

func NewOrderPlacedEvent(order *models.Order) OrderPlacedEvent {
	items := make([]OrderItem, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, OrderItem{
			WineID:   line.WineID,
			Quantity: line.Quantity,
			Price:    line.PriceAtPurchase.StringFixed(2),
		})
	}

	return OrderPlacedEvent{
		EventID:        uuid.NewString(),
		Type:           TypeOrderPlaced,
		OrderID:        order.ID,
		Reference:      order.Reference,
		UserID:         order.UserID,
		ItemsTotal:     order.ItemsTotal.StringFixed(2),
		ShippingFee:    order.ShippingFee.StringFixed(2),
		DiscountAmount: order.DiscountAmount.StringFixed(2),
		FinalTotal:     order.FinalTotal.StringFixed(2),
		PromotionID:    order.PromotionID,
		DeliveryMode:   string(order.DeliveryMode),
		Items:          items,
		Timestamp:      time.Now().UTC(),
	}
}

type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, OrderPlacedEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
