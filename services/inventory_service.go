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
	"gorm.io/gorm/clause"
)

// InventoryService is the stock ledger. Batch quantities are only changed
// here and only inside a transaction holding the batch row locks.
type InventoryService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewInventoryService(db *gorm.DB, logger *zap.Logger) *InventoryService {
	return &InventoryService{db: db, logger: logger}
}

// BatchImport describes a stock receipt.
type BatchImport struct {
	WineID        int64           `json:"wine_id" binding:"required"`
	BatchCode     string          `json:"batch_code" binding:"required"`
	Quantity      int             `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	ReceivedAt    *time.Time      `json:"received_at"`
	ExpiresAt     *time.Time      `json:"expires_at"`
	ShelfLocation string          `json:"shelf_location"`
}

func (s *InventoryService) ImportBatch(ctx context.Context, req BatchImport) (*models.InventoryBatch, error) {
	code := strings.TrimSpace(req.BatchCode)
	if code == "" {
		return nil, errors.New("batch code is required")
	}
	if req.Quantity < 0 {
		return nil, ErrNegativeStock
	}
	if req.UnitCost.IsNegative() {
		return nil, errors.New("unit cost cannot be negative")
	}

	receivedAt := time.Now().UTC()
	if req.ReceivedAt != nil {
		receivedAt = req.ReceivedAt.UTC()
	}
	batch := &models.InventoryBatch{
		WineID:            req.WineID,
		BatchCode:         code,
		QuantityAvailable: req.Quantity,
		UnitCost:          req.UnitCost,
		ReceivedAt:        receivedAt,
		ExpiresAt:         req.ExpiresAt,
		ShelfLocation:     req.ShelfLocation,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var wines int64
		if err := tx.Model(&models.Wine{}).Where("id = ?", req.WineID).Count(&wines).Error; err != nil {
			return err
		}
		if wines == 0 {
			return ErrWineNotFound
		}

		var existing int64
		if err := tx.Model(&models.InventoryBatch{}).
			Where("wine_id = ? AND batch_code = ?", req.WineID, code).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateBatch
		}
		return tx.Create(batch).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory batch imported",
		zap.Int64("wine_id", batch.WineID),
		zap.String("batch_code", batch.BatchCode),
		zap.Int("quantity", batch.QuantityAvailable))
	return batch, nil
}

// AdjustBatch applies a manual correction (breakage, recount) to one batch.
func (s *InventoryService) AdjustBatch(ctx context.Context, batchID int64, delta int) (*models.InventoryBatch, error) {
	batch := &models.InventoryBatch{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(batch, batchID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBatchNotFound
			}
			return err
		}
		next := batch.QuantityAvailable + delta
		if next < 0 {
			return ErrNegativeStock
		}
		batch.QuantityAvailable = next
		return tx.Model(batch).Update("quantity_available", next).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory batch adjusted",
		zap.Int64("batch_id", batchID),
		zap.Int("delta", delta),
		zap.Int("quantity", batch.QuantityAvailable))
	return batch, nil
}

// Available is the total sellable quantity of a wine across all batches.
func (s *InventoryService) Available(ctx context.Context, wineID int64) (int, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.InventoryBatch{}).
		Where("wine_id = ?", wineID).
		Select("COALESCE(SUM(quantity_available), 0)").
		Scan(&total).Error
	return int(total), err
}

// ListBatches returns every batch of a wine, exhausted ones included, in
// consumption order.
func (s *InventoryService) ListBatches(ctx context.Context, wineID int64) ([]models.InventoryBatch, error) {
	var batches []models.InventoryBatch
	err := s.db.WithContext(ctx).
		Where("wine_id = ?", wineID).
		Order("received_at ASC, id ASC").
		Find(&batches).Error
	return batches, err
}

// LockStock takes the row locks on every non-empty batch of the given wines,
// one wine at a time in ascending id order. All checkouts lock in this order,
// which rules out circular waits between them.
func (s *InventoryService) LockStock(tx *gorm.DB, wineIDs []int64) (map[int64][]models.InventoryBatch, error) {
	ids := uniqueSorted(wineIDs)
	locked := make(map[int64][]models.InventoryBatch, len(ids))
	for _, id := range ids {
		batches, err := s.lockBatches(tx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = batches
	}
	return locked, nil
}

// ReserveAndDeduct locks and deducts quantity units of one wine, oldest batch
// first. Nothing is deducted when the total on hand is short.
func (s *InventoryService) ReserveAndDeduct(tx *gorm.DB, wineID int64, quantity int) (*models.DeductionPlan, error) {
	batches, err := s.lockBatches(tx, wineID)
	if err != nil {
		return nil, err
	}
	return s.deduct(tx, wineID, quantity, batches)
}

func (s *InventoryService) lockBatches(tx *gorm.DB, wineID int64) ([]models.InventoryBatch, error) {
	var batches []models.InventoryBatch
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("wine_id = ? AND quantity_available > 0", wineID).
		Order("received_at ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, storageError(err)
	}
	return batches, nil
}

// deduct walks already locked batches in FIFO order. The guarded update is a
// second line of defence for stores where the lock clause is a no-op.
func (s *InventoryService) deduct(tx *gorm.DB, wineID int64, quantity int, batches []models.InventoryBatch) (*models.DeductionPlan, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	available := 0
	for _, b := range batches {
		available += b.QuantityAvailable
	}
	if available < quantity {
		return nil, &InsufficientStockError{WineID: wineID, Requested: quantity, Available: available}
	}

	plan := &models.DeductionPlan{WineID: wineID, Quantity: quantity}
	needed := quantity
	for i := range batches {
		if needed == 0 {
			break
		}
		b := &batches[i]
		take := min(b.QuantityAvailable, needed)

		result := tx.Model(&models.InventoryBatch{}).
			Where("id = ? AND quantity_available >= ?", b.ID, take).
			Update("quantity_available", gorm.Expr("quantity_available - ?", take))
		if result.Error != nil {
			return nil, storageError(result.Error)
		}
		if result.RowsAffected != 1 {
			return nil, fmt.Errorf("%w: batch %d changed while locked", ErrLockTimeout, b.ID)
		}

		b.QuantityAvailable -= take
		needed -= take
		plan.Deductions = append(plan.Deductions, models.BatchDeduction{
			BatchID:   b.ID,
			BatchCode: b.BatchCode,
			Quantity:  take,
			Remaining: b.QuantityAvailable,
		})
	}
	return plan, nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
