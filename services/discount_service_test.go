package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"wine_shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func promo(name string, pct string, trigger models.TriggerType) *models.Promotion {
	return &models.Promotion{
		Name:               name,
		DiscountPercentage: dec(pct),
		StartAt:            dayAgo,
		EndAt:              nextWeek,
		IsActive:           true,
		TriggerType:        trigger,
	}
}

func coded(p *models.Promotion, code string) *models.Promotion {
	p.Code = &code
	return p
}

func cartLines(qtyPrice ...int64) []models.CartLine {
	lines := make([]models.CartLine, 0, len(qtyPrice)/2)
	for i := 0; i+1 < len(qtyPrice); i += 2 {
		lines = append(lines, models.CartLine{
			WineID:    int64(i + 1),
			Quantity:  int(qtyPrice[i]),
			UnitPrice: decimal.NewFromInt(qtyPrice[i+1]),
		})
	}
	return lines
}

func TestCreatePromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := coded(promo("Autumn", "12.5", models.TriggerCode), " autumn25 ")
	require.NoError(t, f.discounts.CreatePromotion(ctx, p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, "AUTUMN25", *p.Code)

	invalid := []*models.Promotion{
		promo("", "10", models.TriggerPeriod),
		promo("Zero", "0", models.TriggerPeriod),
		promo("Too much", "100.01", models.TriggerPeriod),
		promo("Volume without threshold", "10", models.TriggerVolume),
		promo("Code without code", "10", models.TriggerCode),
		promo("Unknown", "10", models.TriggerType("birthday")),
	}
	backwards := promo("Backwards", "10", models.TriggerPeriod)
	backwards.StartAt, backwards.EndAt = nextWeek, dayAgo
	invalid = append(invalid, backwards)

	for _, p := range invalid {
		assert.ErrorIs(t, f.discounts.CreatePromotion(ctx, p), ErrInvalidPromotion, p.Name)
	}
}

func TestEvaluatePicksHighestPercentage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ten := promo("Ten", "10", models.TriggerPeriod)
	fifteen := promo("Fifteen", "15", models.TriggerPeriod)
	require.NoError(t, f.discounts.CreatePromotion(ctx, ten))
	require.NoError(t, f.discounts.CreatePromotion(ctx, fifteen))

	result, err := f.discounts.Evaluate(ctx, cartLines(2, 500000), customer(1), "")
	require.NoError(t, err)
	require.NotNil(t, result.PromotionID)
	assert.Equal(t, fifteen.ID, *result.PromotionID)
	assert.True(t, result.Amount.Equal(dec("150000")), result.Amount.String())
}

func TestEvaluateTieBreaksOnLowestID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := promo("First", "10", models.TriggerPeriod)
	second := promo("Second", "10", models.TriggerPeriod)
	require.NoError(t, f.discounts.CreatePromotion(ctx, first))
	require.NoError(t, f.discounts.CreatePromotion(ctx, second))

	result, err := f.discounts.Evaluate(ctx, cartLines(1, 100000), customer(1), "")
	require.NoError(t, err)
	require.NotNil(t, result.PromotionID)
	assert.Equal(t, first.ID, *result.PromotionID)
}

func TestEvaluateVolumeThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	volume := promo("Case deal", "20", models.TriggerVolume)
	volume.MinQuantity = 5
	require.NoError(t, f.discounts.CreatePromotion(ctx, volume))

	// Quantity 3 does not qualify.
	result, err := f.discounts.Evaluate(ctx, cartLines(2, 100000, 1, 100000), customer(1), "")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)
	assert.True(t, result.Amount.IsZero())

	// Quantity 5 across lines does.
	result, err = f.discounts.Evaluate(ctx, cartLines(3, 100000, 2, 100000), customer(1), "")
	require.NoError(t, err)
	require.NotNil(t, result.PromotionID)
	assert.True(t, result.Amount.Equal(dec("100000")))
}

func TestEvaluateVIPRequiresElevatedRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	vip := promo("Cellar club", "25", models.TriggerVIP)
	require.NoError(t, f.discounts.CreatePromotion(ctx, vip))
	lines := cartLines(1, 400000)

	result, err := f.discounts.Evaluate(ctx, lines, customer(1), "")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)

	result, err = f.discounts.Evaluate(ctx, lines, guest("sess-1"), "")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)

	result, err = f.discounts.Evaluate(ctx, lines, withRole(2, "stock_manager"), "")
	require.NoError(t, err)
	require.NotNil(t, result.PromotionID)
	assert.True(t, result.Amount.Equal(dec("100000")))
}

func TestEvaluateCustomElevatedRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	discounts := NewDiscountService(f.db, zap.NewNop(), "sommelier")

	require.NoError(t, discounts.CreatePromotion(ctx, promo("Trade", "30", models.TriggerVIP)))

	result, err := discounts.Evaluate(ctx, cartLines(1, 100000), withRole(1, "admin"), "")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)

	result, err = discounts.Evaluate(ctx, cartLines(1, 100000), withRole(1, "Sommelier"), "")
	require.NoError(t, err)
	assert.NotNil(t, result.PromotionID)
}

func TestEvaluateCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A coded volume promotion applies by code even below its threshold.
	couponPromo := coded(promo("Welcome", "5", models.TriggerVolume), "WELCOME")
	couponPromo.MinQuantity = 10
	automatic := promo("Everyday", "15", models.TriggerPeriod)
	require.NoError(t, f.discounts.CreatePromotion(ctx, couponPromo))
	require.NoError(t, f.discounts.CreatePromotion(ctx, automatic))
	lines := cartLines(1, 200000)

	result, err := f.discounts.Evaluate(ctx, lines, customer(1), "welcome")
	require.NoError(t, err)
	require.NotNil(t, result.PromotionID)
	assert.Equal(t, couponPromo.ID, *result.PromotionID)
	assert.True(t, result.Amount.Equal(dec("10000")))

	// An unknown code is ignored, and automatic promotions are not consulted.
	result, err = f.discounts.Evaluate(ctx, lines, customer(1), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)
	assert.True(t, result.Amount.IsZero())

	// Absurdly long input degrades to no discount.
	result, err = f.discounts.Evaluate(ctx, lines, customer(1), strings.Repeat("X", 200))
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)

	// Code-less promotions are never reachable through a code.
	result, err = f.discounts.Evaluate(ctx, lines, customer(1), "EVERYDAY")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)
}

func TestEvaluateIgnoresInactiveAndOutOfWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := promo("Expired", "30", models.TriggerPeriod)
	expired.StartAt = time.Now().Add(-72 * time.Hour)
	expired.EndAt = time.Now().Add(-1 * time.Hour)
	future := promo("Future", "40", models.TriggerPeriod)
	future.StartAt = time.Now().Add(time.Hour)
	disabled := promo("Disabled", "50", models.TriggerPeriod)
	expiredCoupon := coded(promo("Old coupon", "60", models.TriggerCode), "OLD")
	expiredCoupon.StartAt = time.Now().Add(-72 * time.Hour)
	expiredCoupon.EndAt = time.Now().Add(-1 * time.Hour)
	for _, p := range []*models.Promotion{expired, future, disabled, expiredCoupon} {
		require.NoError(t, f.discounts.CreatePromotion(ctx, p))
	}
	require.NoError(t, f.discounts.DeletePromotion(ctx, disabled.ID))

	result, err := f.discounts.Evaluate(ctx, cartLines(1, 100000), customer(1), "")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)

	result, err = f.discounts.Evaluate(ctx, cartLines(1, 100000), customer(1), "old")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)
}

func TestEvaluateWindowIsHalfOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	p := promo("New year", "10", models.TriggerPeriod)
	p.StartAt, p.EndAt = start, end
	require.NoError(t, f.discounts.CreatePromotion(ctx, p))

	f.discounts.now = func() time.Time { return start }
	result, err := f.discounts.Evaluate(ctx, cartLines(1, 100000), customer(1), "")
	require.NoError(t, err)
	assert.NotNil(t, result.PromotionID)

	f.discounts.now = func() time.Time { return end }
	result, err = f.discounts.Evaluate(ctx, cartLines(1, 100000), customer(1), "")
	require.NoError(t, err)
	assert.Nil(t, result.PromotionID)
}

func TestEvaluateUsesFixedPointRounding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.discounts.CreatePromotion(ctx, promo("Odd", "12.5", models.TriggerPeriod)))

	lines := []models.CartLine{{WineID: 1, Quantity: 3, UnitPrice: dec("0.10")}}
	result, err := f.discounts.Evaluate(ctx, lines, customer(1), "")
	require.NoError(t, err)
	// 0.30 * 12.5% = 0.0375, rounded to cents.
	assert.Equal(t, "0.04", result.Amount.StringFixed(2))
}

func TestUpdateAndDeletePromotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := promo("Spring", "10", models.TriggerPeriod)
	require.NoError(t, f.discounts.CreatePromotion(ctx, p))

	update := promo("Spring sale", "18", models.TriggerPeriod)
	require.NoError(t, f.discounts.UpdatePromotion(ctx, p.ID, update))

	active, err := f.discounts.ListActivePromotions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Spring sale", active[0].Name)
	assert.True(t, active[0].DiscountPercentage.Equal(dec("18")))

	assert.ErrorIs(t, f.discounts.UpdatePromotion(ctx, 999, promo("x", "1", models.TriggerPeriod)), ErrPromotionNotFound)

	require.NoError(t, f.discounts.DeletePromotion(ctx, p.ID))
	active, err = f.discounts.ListActivePromotions(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.ErrorIs(t, f.discounts.DeletePromotion(ctx, 999), ErrPromotionNotFound)
}

func TestListActivePromotionsOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.discounts.CreatePromotion(ctx, promo("Low", "5", models.TriggerPeriod)))
	require.NoError(t, f.discounts.CreatePromotion(ctx, promo("High", "20", models.TriggerVIP)))

	active, err := f.discounts.ListActivePromotions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "High", active[0].Name)
	assert.Equal(t, "Low", active[1].Name)
}
