package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wine_shop/events"
	"wine_shop/metrics"
	"wine_shop/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Checkout stages, in order. Any failure after stageLocking rolls the whole
// transaction back.
const (
	stageValidating = "validating"
	stageLocking    = "locking"
	stageAllocating = "allocating"
	stagePersisting = "persisting"
	stageCommitted  = "committed"
)

type CheckoutRequest struct {
	Identity        models.Identity
	DeliveryMode    models.DeliveryMode
	PaymentMethod   models.PaymentMethod
	ShippingAddress string
	Phone           string
	Note            string
	CouponCode      string
}

type CheckoutService struct {
	db        *gorm.DB
	carts     *CartService
	catalog   *CatalogService
	inventory *InventoryService
	discounts *DiscountService
	pricing   *PricingCalculator
	publisher events.Publisher
	metrics   *metrics.CheckoutMetrics
	logger    *zap.Logger
}

type CheckoutOption func(*CheckoutService)

func WithPublisher(p events.Publisher) CheckoutOption {
	return func(s *CheckoutService) { s.publisher = p }
}

func WithMetrics(m *metrics.CheckoutMetrics) CheckoutOption {
	return func(s *CheckoutService) { s.metrics = m }
}

func NewCheckoutService(
	db *gorm.DB,
	carts *CartService,
	catalog *CatalogService,
	inventory *InventoryService,
	discounts *DiscountService,
	pricing *PricingCalculator,
	logger *zap.Logger,
	opts ...CheckoutOption,
) *CheckoutService {
	s := &CheckoutService{
		db:        db,
		carts:     carts,
		catalog:   catalog,
		inventory: inventory,
		discounts: discounts,
		pricing:   pricing,
		publisher: events.NopPublisher{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout turns the caller's cart into an order. Stock deduction, order
// creation and cart clearing commit together or not at all.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*models.Order, error) {
	started := time.Now()
	stage := stageValidating

	order, err := s.checkout(ctx, req, &stage)
	s.metrics.Observe(checkoutOutcome(err), started)
	if err != nil {
		s.logger.Warn("Checkout rolled back",
			zap.String("stage", stage),
			zap.String("outcome", checkoutOutcome(err)),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Checkout committed",
		zap.Int64("order_id", order.ID),
		zap.String("reference", order.Reference),
		zap.Int("lines", len(order.Lines)),
		zap.String("final_total", order.FinalTotal.String()),
		zap.Duration("elapsed", time.Since(started)))

	if err := s.publisher.PublishOrderPlaced(ctx, events.NewOrderPlacedEvent(order)); err != nil {
		s.logger.Warn("Order placed event not delivered", zap.Int64("order_id", order.ID), zap.Error(err))
	}
	return order, nil
}

func (s *CheckoutService) checkout(ctx context.Context, req CheckoutRequest, stage *string) (*models.Order, error) {
	if err := normalizeCheckout(&req); err != nil {
		return nil, err
	}

	cart, err := s.carts.FindCart(ctx, req.Identity)
	if err != nil {
		return nil, storageError(err)
	}
	if cart == nil {
		return nil, ErrEmptyCart
	}
	lines, err := s.carts.Lines(ctx, cart.ID)
	if err != nil {
		return nil, storageError(err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	wineIDs := make([]int64, 0, len(lines))
	lineIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		wineIDs = append(wineIDs, line.WineID)
		lineIDs = append(lineIDs, line.ID)
	}
	if err := s.catalog.CheckAvailable(ctx, wineIDs); err != nil {
		return nil, err
	}

	discount, err := s.discounts.Evaluate(ctx, lines, req.Identity, req.CouponCode)
	if err != nil {
		s.logger.Warn("Discount evaluation failed, continuing without discount", zap.Error(err))
	}
	pricing := s.pricing.PriceOrder(lines, req.DeliveryMode, discount.Amount)
	if pricing.Clamped {
		s.metrics.Clamped()
	}

	order := &models.Order{
		Reference:       uuid.NewString(),
		UserID:          req.Identity.UserID,
		Status:          models.StatusPending,
		ItemsTotal:      pricing.ItemsTotal,
		ShippingFee:     pricing.ShippingFee,
		DiscountAmount:  pricing.DiscountAmount,
		FinalTotal:      pricing.FinalTotal,
		PromotionID:     discount.PromotionID,
		DeliveryMode:    req.DeliveryMode,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		Phone:           req.Phone,
		Note:            req.Note,
	}
	if pricing.DiscountAmount.IsZero() {
		order.PromotionID = nil
	}

	deducted := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		*stage = stageLocking
		current, err := s.carts.LockLines(tx, cart.ID)
		if err != nil {
			return err
		}
		if err := sameCart(lines, current); err != nil {
			return err
		}
		locked, err := s.inventory.LockStock(tx, wineIDs)
		if err != nil {
			return err
		}

		*stage = stageAllocating
		for _, line := range lines {
			plan, err := s.inventory.deduct(tx, line.WineID, line.Quantity, locked[line.WineID])
			if err != nil {
				return err
			}
			deducted += plan.Quantity
		}

		*stage = stagePersisting
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		orderLines := make([]models.OrderLine, 0, len(lines))
		for _, line := range lines {
			orderLines = append(orderLines, models.OrderLine{
				OrderID:         order.ID,
				WineID:          line.WineID,
				Quantity:        line.Quantity,
				PriceAtPurchase: line.UnitPrice,
			})
		}
		if err := tx.Create(&orderLines).Error; err != nil {
			return err
		}
		order.Lines = orderLines

		return s.carts.ClearLines(tx, cart.ID, lineIDs)
	})
	if err != nil {
		return nil, storageError(err)
	}

	*stage = stageCommitted
	s.metrics.AddDeducted(deducted)
	return order, nil
}

// sameCart checks the lines read under the cart lock against the lines the
// order was priced from. Both are ordered by wine id.
func sameCart(priced, current []models.CartLine) error {
	if len(current) == 0 {
		return ErrEmptyCart
	}
	if len(priced) != len(current) {
		return ErrCartChanged
	}
	for i := range priced {
		p, c := priced[i], current[i]
		if p.ID != c.ID || p.WineID != c.WineID || p.Quantity != c.Quantity || !p.UnitPrice.Equal(c.UnitPrice) {
			return ErrCartChanged
		}
	}
	return nil
}

func normalizeCheckout(req *CheckoutRequest) error {
	if !req.Identity.IsUser() && !req.Identity.IsGuest() {
		return ErrMissingIdentity
	}
	req.ShippingAddress = strings.TrimSpace(req.ShippingAddress)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.ShippingAddress == "" {
		return fmt.Errorf("%w: shipping address is required", ErrInvalidCheckout)
	}
	if req.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidCheckout)
	}
	if len(req.Phone) > 20 {
		return fmt.Errorf("%w: phone is too long", ErrInvalidCheckout)
	}
	req.DeliveryMode = req.DeliveryMode.Normalize()
	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCOD
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidCheckout, req.PaymentMethod)
	}
	return nil
}

func checkoutOutcome(err error) string {
	var stockErr *InsufficientStockError
	var unavailableErr *ProductUnavailableError
	switch {
	case err == nil:
		return metrics.OutcomeCommitted
	case errors.Is(err, ErrEmptyCart):
		return metrics.OutcomeEmptyCart
	case errors.Is(err, ErrCartChanged):
		return metrics.OutcomeCartChanged
	case errors.As(err, &unavailableErr):
		return metrics.OutcomeUnavailable
	case errors.As(err, &stockErr):
		return metrics.OutcomeInsufficientStock
	case errors.Is(err, ErrLockTimeout):
		return metrics.OutcomeLockTimeout
	case errors.Is(err, ErrPersistence):
		return metrics.OutcomePersistence
	}
	return metrics.OutcomeInvalid
}
