package services

import (
	"testing"

	"wine_shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPriceOrderExpressScenario(t *testing.T) {
	calc := NewPricingCalculator(DefaultShippingFees(), zap.NewNop())

	b := calc.PriceOrder(cartLines(2, 500000), models.DeliveryExpress, decimal.Zero)

	assert.True(t, b.ItemsTotal.Equal(dec("1000000")))
	assert.True(t, b.ShippingFee.Equal(dec("50000")))
	assert.True(t, b.DiscountAmount.IsZero())
	assert.True(t, b.FinalTotal.Equal(dec("1050000")))
	assert.False(t, b.Clamped)
}

func TestPriceOrderShippingByMode(t *testing.T) {
	calc := NewPricingCalculator(nil, zap.NewNop())
	lines := cartLines(1, 100000)

	tests := []struct {
		mode models.DeliveryMode
		fee  string
	}{
		{models.DeliveryRegular, "30000"},
		{models.DeliveryExpress, "50000"},
		{models.DeliverySea, "20000"},
		{"", "30000"},
		{"teleport", "30000"},
	}
	for _, tt := range tests {
		b := calc.PriceOrder(lines, tt.mode, decimal.Zero)
		assert.True(t, b.ShippingFee.Equal(dec(tt.fee)), "mode %q", tt.mode)
	}
}

func TestPriceOrderAppliesDiscount(t *testing.T) {
	calc := NewPricingCalculator(DefaultShippingFees(), zap.NewNop())

	b := calc.PriceOrder(cartLines(3, 200000), models.DeliverySea, dec("60000"))
	assert.True(t, b.FinalTotal.Equal(dec("560000")))
	assert.True(t, b.DiscountAmount.Equal(dec("60000")))
}

func TestPriceOrderClampsOversizedDiscount(t *testing.T) {
	calc := NewPricingCalculator(DefaultShippingFees(), zap.NewNop())

	b := calc.PriceOrder(cartLines(1, 100000), models.DeliveryRegular, dec("500000"))
	assert.True(t, b.Clamped)
	assert.True(t, b.DiscountAmount.Equal(dec("130000")))
	assert.True(t, b.FinalTotal.IsZero())
}

func TestPriceOrderClampsNegativeDiscount(t *testing.T) {
	calc := NewPricingCalculator(DefaultShippingFees(), zap.NewNop())

	b := calc.PriceOrder(cartLines(1, 100000), models.DeliveryRegular, dec("-10"))
	assert.True(t, b.Clamped)
	assert.True(t, b.DiscountAmount.IsZero())
	assert.True(t, b.FinalTotal.Equal(dec("130000")))
}
