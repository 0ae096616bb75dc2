package services

import (
	"context"
	"errors"
	"fmt"

	"wine_shop/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewOrderService(db *gorm.DB, logger *zap.Logger) *OrderService {
	return &OrderService{db: db, logger: logger}
}

// ListOrders returns a user's orders newest first, lines included.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	if err := s.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := models.Order{}
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	orders := []models.Order{order}
	if err := s.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// UpdateStatus moves an order along pending -> confirmed -> shipping ->
// completed, or to cancelled before completion. Cancelling does not restock.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}

	order := &models.Order{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(order, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !order.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
		}
		previous := order.Status
		order.Status = next
		if err := tx.Model(order).Update("status", next).Error; err != nil {
			return err
		}
		s.logger.Info("Order status changed",
			zap.Int64("order_id", id),
			zap.String("from", string(previous)),
			zap.String("to", string(next)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *OrderService) attachLines(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	var lines []models.OrderLine
	if err := s.db.WithContext(ctx).Where("order_id IN ?", ids).Order("wine_id ASC").Find(&lines).Error; err != nil {
		return err
	}
	byOrder := make(map[int64][]models.OrderLine, len(orders))
	for _, line := range lines {
		byOrder[line.OrderID] = append(byOrder[line.OrderID], line)
	}
	for i := range orders {
		orders[i].Lines = byOrder[orders[i].ID]
	}
	return nil
}
