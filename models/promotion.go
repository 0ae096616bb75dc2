package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promotion trigger types
type TriggerType string

const (
	TriggerPeriod TriggerType = "period" // any cart inside the validity window
	TriggerVolume TriggerType = "volume" // total cart quantity >= MinQuantity
	TriggerVIP    TriggerType = "vip"    // user holds an elevated role
	TriggerCode   TriggerType = "code"   // only applied when the code is entered
)

func (t TriggerType) Valid() bool {
	switch t {
	case TriggerPeriod, TriggerVolume, TriggerVIP, TriggerCode:
		return true
	}
	return false
}

// Promotion is a percentage discount. A promotion with a Code is only ever
// applied by exact code match, regardless of TriggerType.
type Promotion struct {
	ID                 int64           `json:"id" gorm:"primaryKey"`
	Name               string          `json:"name" gorm:"size:255;not null"`
	Description        string          `json:"description" gorm:"type:text"`
	Code               *string         `json:"code" gorm:"size:50;uniqueIndex"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" gorm:"type:decimal(5,2);not null"`
	StartAt            time.Time       `json:"start_at" gorm:"not null"`
	EndAt              time.Time       `json:"end_at" gorm:"not null"`
	IsActive           bool            `json:"is_active" gorm:"not null"`
	TriggerType        TriggerType     `json:"trigger_type" gorm:"size:20;not null"`
	MinQuantity        int             `json:"min_quantity"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ValidAt reports whether t falls inside [StartAt, EndAt).
func (p Promotion) ValidAt(t time.Time) bool {
	return !t.Before(p.StartAt) && t.Before(p.EndAt)
}
