package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryBatch is one stock receipt of a wine. Only QuantityAvailable ever
// changes after import; exhausted batches stay as history.
type InventoryBatch struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	WineID            int64           `json:"wine_id" gorm:"not null;uniqueIndex:idx_batch_wine_code,priority:1;index:idx_batch_fifo,priority:1"`
	BatchCode         string          `json:"batch_code" gorm:"size:50;not null;uniqueIndex:idx_batch_wine_code,priority:2"`
	QuantityAvailable int             `json:"quantity_available" gorm:"not null;check:chk_batch_qty_non_negative,quantity_available >= 0"`
	UnitCost          decimal.Decimal `json:"unit_cost" gorm:"type:decimal(12,2);not null"`
	ReceivedAt        time.Time       `json:"received_at" gorm:"not null;index:idx_batch_fifo,priority:2"`
	ExpiresAt         *time.Time      `json:"expires_at"`
	ShelfLocation     string          `json:"shelf_location" gorm:"size:100"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BatchDeduction records how much was taken from a single batch.
type BatchDeduction struct {
	BatchID   int64  `json:"batch_id"`
	BatchCode string `json:"batch_code"`
	Quantity  int    `json:"quantity"`
	Remaining int    `json:"remaining"`
}

// DeductionPlan is the result of deducting one wine's quantity across its
// batches, oldest receipt first.
type DeductionPlan struct {
	WineID     int64            `json:"wine_id"`
	Quantity   int              `json:"quantity"`
	Deductions []BatchDeduction `json:"deductions"`
}
