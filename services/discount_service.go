package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"wine_shop/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxCouponLength = 50

var (
	hundred              = decimal.NewFromInt(100)
	defaultElevatedRoles = []string{"admin", "stock_manager"}
)

// DiscountResult is the outcome of promotion selection. PromotionID is nil
// when nothing applied.
type DiscountResult struct {
	Amount      decimal.Decimal `json:"amount"`
	PromotionID *int64          `json:"promotion_id"`
	Percentage  decimal.Decimal `json:"percentage"`
}

type DiscountService struct {
	db            *gorm.DB
	logger        *zap.Logger
	elevatedRoles map[string]struct{}
	now           func() time.Time
}

func NewDiscountService(db *gorm.DB, logger *zap.Logger, elevatedRoles ...string) *DiscountService {
	if len(elevatedRoles) == 0 {
		elevatedRoles = defaultElevatedRoles
	}
	roles := make(map[string]struct{}, len(elevatedRoles))
	for _, r := range elevatedRoles {
		roles[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return &DiscountService{db: db, logger: logger, elevatedRoles: roles, now: time.Now}
}

func (s *DiscountService) CreatePromotion(ctx context.Context, promo *models.Promotion) error {
	if err := normalizePromotion(promo); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(promo).Error
}

func (s *DiscountService) UpdatePromotion(ctx context.Context, id int64, promo *models.Promotion) error {
	existing := &models.Promotion{}
	if err := s.db.WithContext(ctx).First(existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPromotionNotFound
		}
		return err
	}

	if err := normalizePromotion(promo); err != nil {
		return err
	}
	promo.ID = existing.ID
	promo.CreatedAt = existing.CreatedAt

	// Select("*") so that false and zero values are written too.
	return s.db.WithContext(ctx).Model(existing).Select("*").Omit("id", "created_at").Updates(promo).Error
}

// DeletePromotion deactivates the promotion. Orders keep referencing it.
func (s *DiscountService) DeletePromotion(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Model(&models.Promotion{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPromotionNotFound
	}
	return nil
}

// ListActivePromotions returns active promotions whose window contains now,
// highest discount first.
func (s *DiscountService) ListActivePromotions(ctx context.Context) ([]models.Promotion, error) {
	var promos []models.Promotion
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&promos).Error; err != nil {
		return nil, err
	}

	now := s.now()
	active := promos[:0]
	for _, p := range promos {
		if p.ValidAt(now) {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].DiscountPercentage.GreaterThan(active[j].DiscountPercentage)
	})
	return active, nil
}

// Evaluate picks at most one promotion for the cart and computes the discount
// from the snapshotted line prices. A supplied coupon code is the only
// candidate considered; an unknown or expired code yields no discount.
// Lookup failures are returned alongside a zero result so the caller can
// carry on without a discount.
func (s *DiscountService) Evaluate(ctx context.Context, lines []models.CartLine, user models.Identity, couponCode string) (DiscountResult, error) {
	none := DiscountResult{Amount: decimal.Zero, Percentage: decimal.Zero}

	totalPrice := decimal.Zero
	totalQuantity := 0
	for _, line := range lines {
		totalPrice = totalPrice.Add(line.Subtotal())
		totalQuantity += line.Quantity
	}

	now := s.now()
	var (
		promo *models.Promotion
		err   error
	)
	if code := strings.TrimSpace(couponCode); code != "" {
		promo, err = s.findCoupon(ctx, code, now)
	} else {
		promo, err = s.bestAutomatic(ctx, user, totalQuantity, now)
	}
	if err != nil {
		return none, err
	}
	if promo == nil {
		return none, nil
	}

	amount := totalPrice.Mul(promo.DiscountPercentage).Div(hundred).Round(2)
	id := promo.ID
	return DiscountResult{Amount: amount, PromotionID: &id, Percentage: promo.DiscountPercentage}, nil
}

func (s *DiscountService) findCoupon(ctx context.Context, code string, now time.Time) (*models.Promotion, error) {
	code = strings.ToUpper(code)
	if len(code) > maxCouponLength {
		s.logger.Debug("Ignoring malformed coupon code", zap.Int("length", len(code)))
		return nil, nil
	}

	promo := &models.Promotion{}
	err := s.db.WithContext(ctx).Where("code = ? AND is_active = ?", code, true).First(promo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("coupon lookup: %w", err)
	}
	if !promo.ValidAt(now) {
		return nil, nil
	}
	return promo, nil
}

// bestAutomatic filters code-less promotions by trigger and keeps the highest
// percentage, the lowest id winning ties.
func (s *DiscountService) bestAutomatic(ctx context.Context, user models.Identity, totalQuantity int, now time.Time) (*models.Promotion, error) {
	var candidates []models.Promotion
	err := s.db.WithContext(ctx).
		Where("code IS NULL AND is_active = ?", true).
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("promotion lookup: %w", err)
	}

	var best *models.Promotion
	for i := range candidates {
		p := &candidates[i]
		if !p.ValidAt(now) || !s.eligible(p, user, totalQuantity) {
			continue
		}
		if best == nil || p.DiscountPercentage.GreaterThan(best.DiscountPercentage) {
			best = p
		}
	}
	return best, nil
}

func (s *DiscountService) eligible(p *models.Promotion, user models.Identity, totalQuantity int) bool {
	switch p.TriggerType {
	case models.TriggerPeriod:
		return true
	case models.TriggerVolume:
		return totalQuantity >= p.MinQuantity
	case models.TriggerVIP:
		if !user.IsUser() {
			return false
		}
		_, ok := s.elevatedRoles[strings.ToLower(user.Role)]
		return ok
	}
	return false
}

func normalizePromotion(p *models.Promotion) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPromotion)
	}
	if !p.StartAt.Before(p.EndAt) {
		return fmt.Errorf("%w: start must be before end", ErrInvalidPromotion)
	}
	if !p.DiscountPercentage.IsPositive() || p.DiscountPercentage.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount percentage must be in (0, 100]", ErrInvalidPromotion)
	}
	if !p.TriggerType.Valid() {
		return fmt.Errorf("%w: unknown trigger type %q", ErrInvalidPromotion, p.TriggerType)
	}
	if p.TriggerType == models.TriggerVolume && p.MinQuantity < 1 {
		return fmt.Errorf("%w: volume promotions need a minimum quantity", ErrInvalidPromotion)
	}

	if p.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*p.Code))
		if code == "" {
			p.Code = nil
		} else {
			if len(code) > maxCouponLength {
				return fmt.Errorf("%w: code too long", ErrInvalidPromotion)
			}
			p.Code = &code
		}
	}
	if p.TriggerType == models.TriggerCode && p.Code == nil {
		return fmt.Errorf("%w: code promotions need a code", ErrInvalidPromotion)
	}

	p.StartAt = p.StartAt.UTC()
	p.EndAt = p.EndAt.UTC()
	return nil
}
