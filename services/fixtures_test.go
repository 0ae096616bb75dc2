package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"wine_shop/database"
	"wine_shop/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "shop.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db        *gorm.DB
	catalog   *CatalogService
	inventory *InventoryService
	discounts *DiscountService
	pricing   *PricingCalculator
	carts     *CartService
	orders    *OrderService
	checkout  *CheckoutService
}

func newFixture(t *testing.T, opts ...CheckoutOption) *fixture {
	db := setupTestDB(t)
	logger := zap.NewNop()

	f := &fixture{db: db}
	f.catalog = NewCatalogService(db)
	f.inventory = NewInventoryService(db, logger)
	f.discounts = NewDiscountService(db, logger)
	f.pricing = NewPricingCalculator(DefaultShippingFees(), logger)
	f.carts = NewCartService(db, f.catalog, logger)
	f.orders = NewOrderService(db, logger)
	f.checkout = NewCheckoutService(db, f.carts, f.catalog, f.inventory, f.discounts, f.pricing, logger, opts...)
	return f
}

func (f *fixture) wine(t *testing.T, name string, price int64) *models.Wine {
	t.Helper()
	wine := &models.Wine{Name: name, Price: decimal.NewFromInt(price), IsActive: true}
	require.NoError(t, f.catalog.CreateWine(context.Background(), wine))
	return wine
}

func (f *fixture) batch(t *testing.T, wineID int64, code string, qty int, receivedAt time.Time) *models.InventoryBatch {
	t.Helper()
	batch, err := f.inventory.ImportBatch(context.Background(), BatchImport{
		WineID:     wineID,
		BatchCode:  code,
		Quantity:   qty,
		UnitCost:   decimal.NewFromInt(100000),
		ReceivedAt: &receivedAt,
	})
	require.NoError(t, err)
	return batch
}

func (f *fixture) quantities(t *testing.T, wineID int64) map[string]int {
	t.Helper()
	batches, err := f.inventory.ListBatches(context.Background(), wineID)
	require.NoError(t, err)
	out := make(map[string]int, len(batches))
	for _, b := range batches {
		out[b.BatchCode] = b.QuantityAvailable
	}
	return out
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&models.Order{}).Count(&count).Error)
	return count
}

func customer(id int64) models.Identity {
	return models.Identity{UserID: &id, Role: "customer"}
}

func withRole(id int64, role string) models.Identity {
	return models.Identity{UserID: &id, Role: role}
}

func guest(session string) models.Identity {
	return models.Identity{SessionID: session}
}

func checkoutRequest(identity models.Identity, mode models.DeliveryMode) CheckoutRequest {
	return CheckoutRequest{
		Identity:        identity,
		DeliveryMode:    mode,
		PaymentMethod:   models.PaymentCOD,
		ShippingAddress: "12 Vineyard Road",
		Phone:           "0901234567",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var (
	dayAgo   = time.Now().Add(-24 * time.Hour)
	nextWeek = time.Now().Add(7 * 24 * time.Hour)
)
