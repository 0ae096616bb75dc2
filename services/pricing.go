package services

import (
	"wine_shop/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ShippingFees is a flat fee per delivery mode. Weight and distance are not
// considered.
type ShippingFees map[models.DeliveryMode]decimal.Decimal

func DefaultShippingFees() ShippingFees {
	return ShippingFees{
		models.DeliveryRegular: decimal.NewFromInt(30000),
		models.DeliveryExpress: decimal.NewFromInt(50000),
		models.DeliverySea:     decimal.NewFromInt(20000),
	}
}

type PricingBreakdown struct {
	ItemsTotal     decimal.Decimal `json:"items_total"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalTotal     decimal.Decimal `json:"final_total"`
	Clamped        bool            `json:"-"`
}

type PricingCalculator struct {
	fees   ShippingFees
	logger *zap.Logger
}

func NewPricingCalculator(fees ShippingFees, logger *zap.Logger) *PricingCalculator {
	if fees == nil {
		fees = DefaultShippingFees()
	}
	return &PricingCalculator{fees: fees, logger: logger}
}

func (c *PricingCalculator) ShippingFee(mode models.DeliveryMode) decimal.Decimal {
	if fee, ok := c.fees[mode.Normalize()]; ok {
		return fee
	}
	return decimal.Zero
}

// PriceOrder never fails. A discount outside [0, items+shipping] is clamped
// into range so the stored figures always add up and the total is never
// negative.
func (c *PricingCalculator) PriceOrder(lines []models.CartLine, mode models.DeliveryMode, discount decimal.Decimal) PricingBreakdown {
	items := decimal.Zero
	for _, line := range lines {
		items = items.Add(line.Subtotal())
	}
	shipping := c.ShippingFee(mode)
	gross := items.Add(shipping)

	b := PricingBreakdown{ItemsTotal: items, ShippingFee: shipping, DiscountAmount: discount}
	switch {
	case discount.IsNegative():
		b.DiscountAmount = decimal.Zero
		b.Clamped = true
	case discount.GreaterThan(gross):
		b.DiscountAmount = gross
		b.Clamped = true
	}
	if b.Clamped {
		c.logger.Warn("Pricing anomaly: discount clamped",
			zap.String("requested_discount", discount.String()),
			zap.String("applied_discount", b.DiscountAmount.String()),
			zap.String("items_total", items.String()),
			zap.String("shipping_fee", shipping.String()))
	}

	b.FinalTotal = gross.Sub(b.DiscountAmount)
	return b
}
