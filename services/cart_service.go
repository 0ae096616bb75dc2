package services

import (
	"context"
	"errors"

	"wine_shop/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartService is the pre-checkout staging area. Carts have a single writer,
// so concurrent edits of one cart are last-write-wins.
type CartService struct {
	db      *gorm.DB
	catalog *CatalogService
	logger  *zap.Logger
}

func NewCartService(db *gorm.DB, catalog *CatalogService, logger *zap.Logger) *CartService {
	return &CartService{db: db, catalog: catalog, logger: logger}
}

func ownerScope(identity models.Identity) (func(*gorm.DB) *gorm.DB, error) {
	switch {
	case identity.IsUser():
		userID := *identity.UserID
		return func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) }, nil
	case identity.IsGuest():
		sessionID := identity.SessionID
		return func(db *gorm.DB) *gorm.DB { return db.Where("session_id = ?", sessionID) }, nil
	}
	return nil, ErrMissingIdentity
}

// FindCart returns the caller's cart, or nil when there is none yet.
func (s *CartService) FindCart(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	scope, err := ownerScope(identity)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{}
	err = s.db.WithContext(ctx).Scopes(scope).First(cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetOrCreateCart(ctx context.Context, identity models.Identity) (*models.Cart, error) {
	cart, err := s.FindCart(ctx, identity)
	if err != nil || cart != nil {
		return cart, err
	}

	cart = &models.Cart{}
	if identity.IsUser() {
		cart.UserID = identity.UserID
	} else {
		sessionID := identity.SessionID
		cart.SessionID = &sessionID
	}
	if err := s.db.WithContext(ctx).Create(cart).Error; err != nil {
		// Lost a creation race against the same owner.
		if existing, findErr := s.FindCart(ctx, identity); findErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return cart, nil
}

// Lines returns the cart's lines ordered by wine id.
func (s *CartService) Lines(ctx context.Context, cartID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.WithContext(ctx).Where("cart_id = ?", cartID).Order("wine_id ASC").Find(&lines).Error
	return lines, err
}

// AddItem merges quantity into the existing line for the wine, or creates
// one. Either way the line's unit price is re-snapshotted from the catalog.
func (s *CartService) AddItem(ctx context.Context, identity models.Identity, wineID int64, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	wine, err := s.sellableWine(ctx, wineID)
	if err != nil {
		return nil, err
	}
	cart, err := s.GetOrCreateCart(ctx, identity)
	if err != nil {
		return nil, err
	}

	line := &models.CartLine{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("cart_id = ? AND wine_id = ?", cart.ID, wineID).First(line).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			*line = models.CartLine{CartID: cart.ID, WineID: wineID, Quantity: quantity, UnitPrice: wine.Price}
			return tx.Create(line).Error
		case err != nil:
			return err
		}

		line.Quantity += quantity
		line.UnitPrice = wine.Price
		return tx.Model(line).Updates(map[string]any{
			"quantity":   line.Quantity,
			"unit_price": line.UnitPrice,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateItemQuantity sets the line quantity outright and re-snapshots the price.
func (s *CartService) UpdateItemQuantity(ctx context.Context, identity models.Identity, wineID int64, quantity int) (*models.CartLine, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	cart, err := s.FindCart(ctx, identity)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartLineNotFound
	}
	wine, err := s.sellableWine(ctx, wineID)
	if err != nil {
		return nil, err
	}

	line := &models.CartLine{}
	if err := s.db.WithContext(ctx).Where("cart_id = ? AND wine_id = ?", cart.ID, wineID).First(line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartLineNotFound
		}
		return nil, err
	}
	line.Quantity = quantity
	line.UnitPrice = wine.Price
	err = s.db.WithContext(ctx).Model(line).Updates(map[string]any{
		"quantity":   line.Quantity,
		"unit_price": line.UnitPrice,
	}).Error
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *CartService) RemoveItem(ctx context.Context, identity models.Identity, wineID int64) error {
	cart, err := s.FindCart(ctx, identity)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrCartLineNotFound
	}

	result := s.db.WithContext(ctx).Where("cart_id = ? AND wine_id = ?", cart.ID, wineID).Delete(&models.CartLine{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCartLineNotFound
	}
	return nil
}

// LockLines locks the cart row inside the caller's transaction and re-reads
// its lines. A cart that no longer exists has no lines.
func (s *CartService) LockLines(tx *gorm.DB, cartID int64) ([]models.CartLine, error) {
	cart := &models.Cart{}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(cart, cartID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var lines []models.CartLine
	err = tx.Where("cart_id = ?", cartID).Order("wine_id ASC").Find(&lines).Error
	return lines, err
}

// ClearLines deletes exactly the given lines of a cart inside the caller's
// transaction. Any line already gone means another writer got there first.
func (s *CartService) ClearLines(tx *gorm.DB, cartID int64, lineIDs []int64) error {
	if len(lineIDs) == 0 {
		return nil
	}
	result := tx.Where("cart_id = ? AND id IN ?", cartID, lineIDs).Delete(&models.CartLine{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(lineIDs)) {
		return ErrCartChanged
	}
	return nil
}

// MergeGuestCart folds a session cart into the user's cart after login. With
// no user cart, ownership of the guest cart simply moves to the user.
func (s *CartService) MergeGuestCart(ctx context.Context, userID int64, sessionID string) (*models.Cart, error) {
	if sessionID == "" {
		return nil, ErrMissingIdentity
	}

	var merged *models.Cart
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guest := &models.Cart{}
		err := tx.Where("session_id = ?", sessionID).First(guest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		user := &models.Cart{}
		err = tx.Where("user_id = ?", userID).First(user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			guest.UserID = &userID
			guest.SessionID = nil
			if err := tx.Model(guest).Updates(map[string]any{"user_id": userID, "session_id": nil}).Error; err != nil {
				return err
			}
			merged = guest
			return nil
		}
		if err != nil {
			return err
		}

		var guestLines, userLines []models.CartLine
		if err := tx.Where("cart_id = ?", guest.ID).Find(&guestLines).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ?", user.ID).Find(&userLines).Error; err != nil {
			return err
		}
		byWine := make(map[int64]*models.CartLine, len(userLines))
		for i := range userLines {
			byWine[userLines[i].WineID] = &userLines[i]
		}

		for _, g := range guestLines {
			if existing, ok := byWine[g.WineID]; ok {
				existing.Quantity += g.Quantity
				if err := tx.Model(existing).Update("quantity", existing.Quantity).Error; err != nil {
					return err
				}
				continue
			}
			moved := models.CartLine{CartID: user.ID, WineID: g.WineID, Quantity: g.Quantity, UnitPrice: g.UnitPrice}
			if err := tx.Create(&moved).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id = ?", guest.ID).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(guest).Error; err != nil {
			return err
		}
		merged = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	if merged != nil {
		s.logger.Info("Guest cart merged", zap.Int64("user_id", userID), zap.Int64("cart_id", merged.ID))
	}
	return merged, nil
}

func (s *CartService) sellableWine(ctx context.Context, wineID int64) (*models.Wine, error) {
	wine, err := s.catalog.GetWine(ctx, wineID)
	if err != nil {
		if errors.Is(err, ErrWineNotFound) {
			return nil, &ProductUnavailableError{WineID: wineID}
		}
		return nil, err
	}
	if !wine.IsActive {
		return nil, &ProductUnavailableError{WineID: wineID}
	}
	return wine, nil
}
