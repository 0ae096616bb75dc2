package services

import (
	"context"
	"errors"
	"sort"

	"wine_shop/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogService answers existence and activity questions about wines. It is
// the only place checkout touches the catalog; prices come from cart snapshots.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) CreateWine(ctx context.Context, wine *models.Wine) error {
	if wine.Price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	return s.db.WithContext(ctx).Create(wine).Error
}

func (s *CatalogService) GetWine(ctx context.Context, id int64) (*models.Wine, error) {
	wine := &models.Wine{}
	if err := s.db.WithContext(ctx).First(wine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWineNotFound
		}
		return nil, err
	}
	return wine, nil
}

func (s *CatalogService) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) error {
	if price.IsNegative() {
		return errors.New("price cannot be negative")
	}
	return s.update(ctx, id, "price", price)
}

func (s *CatalogService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.update(ctx, id, "is_active", active)
}

func (s *CatalogService) update(ctx context.Context, id int64, column string, value any) error {
	result := s.db.WithContext(ctx).Model(&models.Wine{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWineNotFound
	}
	return nil
}

// CheckAvailable returns a ProductUnavailableError for the lowest wine id
// that is missing or inactive.
func (s *CatalogService) CheckAvailable(ctx context.Context, wineIDs []int64) error {
	if len(wineIDs) == 0 {
		return nil
	}

	var activeIDs []int64
	if err := s.db.WithContext(ctx).Model(&models.Wine{}).
		Where("id IN ? AND is_active = ?", wineIDs, true).
		Pluck("id", &activeIDs).Error; err != nil {
		return storageError(err)
	}

	active := make(map[int64]struct{}, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = struct{}{}
	}

	sorted := append([]int64(nil), wineIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		if _, ok := active[id]; !ok {
			return &ProductUnavailableError{WineID: id}
		}
	}
	return nil
}
