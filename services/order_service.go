package services

import (
	"context"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/events"
	"github.com/LeeRude11/delivery/models"
	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/LeeRude11/delivery/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService defines read access to orders and the admin state machine.
type OrderService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrderInfo, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderInfo, error)
	ListAll(ctx context.Context, page, limit int) ([]models.OrderInfo, int64, error)
	Advance(ctx context.Context, orderID uuid.UUID) (*models.OrderInfo, error)
	UpdateLine(ctx context.Context, orderID, lineID uuid.UUID, amount int) (*models.OrderInfo, error)
	DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderInfo, error)
}

type orderServiceImpl struct {
	store     repository.Store
	publisher events.Publisher
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(store repository.Store, publisher events.Publisher, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &orderServiceImpl{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *orderServiceImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrderInfo, error) {
	orders, err := s.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.OrderInfo{}
	}
	return orders, nil
}

// GetForUser returns the order only to its owner; anyone else gets NotFound.
func (s *orderServiceImpl) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderInfo, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return order, nil
}

func (s *orderServiceImpl) ListAll(ctx context.Context, page, limit int) ([]models.OrderInfo, int64, error) {
	return s.store.Orders().ListAll(ctx, page, limit)
}

// Advance moves an order from placed to cooked, or from cooked to delivered.
// A delivered order is rejected unchanged.
func (s *orderServiceImpl) Advance(ctx context.Context, orderID uuid.UUID) (*models.OrderInfo, error) {
	var (
		order  *models.OrderInfo
		status models.OrderStatus
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		locked, err := tx.Orders().FindForUpdate(ctx, orderID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.ErrNotFound
			}
			return err
		}
		status, err = locked.Advance(s.now())
		if err != nil {
			return err
		}
		if err := tx.Orders().SaveProgress(ctx, locked); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := models.OrderAdvancedEvent{
		EventType: models.EventOrderAdvanced,
		EventID:   uuid.NewString(),
		OrderID:   order.ID.String(),
		UserID:    order.UserID.String(),
		Status:    string(status),
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event.OrderID, event); err != nil {
		s.logger.Warn("Failed to publish order_advanced event", zap.String("order_id", event.OrderID), zap.Error(err))
	}
	recordAsync(s.metrics, aws_pkg.MetricOrdersAdvanced, map[string]string{"status": string(status)})
	s.logger.Info("Order advanced", zap.String("order_id", event.OrderID), zap.String("status", event.Status))
	return order, nil
}

// UpdateLine sets the amount of one order line. The line is repriced at the
// current menu price and the order total follows.
func (s *orderServiceImpl) UpdateLine(ctx context.Context, orderID, lineID uuid.UUID, amount int) (*models.OrderInfo, error) {
	if err := models.ValidateAmount(amount); err != nil {
		return nil, err
	}
	order, err := s.editLine(ctx, orderID, lineID, func(tx repository.Store, line *models.OrderContents) error {
		line.Amount = amount
		return tx.Orders().UpdateLine(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order line updated",
		zap.String("order_id", orderID.String()),
		zap.String("line_id", lineID.String()),
		zap.Int("amount", amount),
		zap.Int("total_cost", order.TotalCost),
	)
	return order, nil
}

// DeleteLine removes one order line and returns the order with its new total.
func (s *orderServiceImpl) DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderInfo, error) {
	order, err := s.editLine(ctx, orderID, lineID, func(tx repository.Store, line *models.OrderContents) error {
		return tx.Orders().DeleteLine(ctx, line)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Order line deleted",
		zap.String("order_id", orderID.String()),
		zap.String("line_id", lineID.String()),
		zap.Int("total_cost", order.TotalCost),
	)
	return order, nil
}

func (s *orderServiceImpl) editLine(ctx context.Context, orderID, lineID uuid.UUID, edit func(tx repository.Store, line *models.OrderContents) error) (*models.OrderInfo, error) {
	var order *models.OrderInfo
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Orders().FindForUpdate(ctx, orderID); err != nil {
			if repository.IsNotFound(err) {
				return apperrors.ErrNotFound
			}
			return err
		}
		line, err := tx.Orders().FindLine(ctx, orderID, lineID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if err := edit(tx, line); err != nil {
			return err
		}
		order, err = tx.Orders().FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}
