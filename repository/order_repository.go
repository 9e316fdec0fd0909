package repository

import (
	"context"

	"github.com/LeeRude11/delivery/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines data access for orders and their lines.
type OrderRepository interface {
	Create(ctx context.Context, order *models.OrderInfo) error
	AddLine(ctx context.Context, line *models.OrderContents) error
	FindLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderContents, error)
	UpdateLine(ctx context.Context, line *models.OrderContents) error
	DeleteLine(ctx context.Context, line *models.OrderContents) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OrderInfo, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderInfo, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderInfo, error)
	ListAll(ctx context.Context, page, limit int) ([]models.OrderInfo, int64, error)
	SaveProgress(ctx context.Context, order *models.OrderInfo) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts the order header only; lines go through AddLine so their
// hooks keep total_cost in sync.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.OrderInfo) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// AddLine inserts a line. The menu item association is read, never written.
func (r *GormOrderRepository) AddLine(ctx context.Context, line *models.OrderContents) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error
}

// FindLine loads one line of an order with its menu item.
func (r *GormOrderRepository) FindLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderContents, error) {
	var line models.OrderContents
	err := r.db.WithContext(ctx).
		Preload("MenuItem").
		Where("id = ? AND order_id = ?", lineID, orderID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateLine rewrites a line; its hooks reprice it and the order total.
func (r *GormOrderRepository) UpdateLine(ctx context.Context, line *models.OrderContents) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(line).Error
}

// DeleteLine removes a line; line.OrderID must be set.
func (r *GormOrderRepository) DeleteLine(ctx context.Context, line *models.OrderContents) error {
	return r.db.WithContext(ctx).Delete(line).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderInfo, error) {
	var order models.OrderInfo
	err := r.db.WithContext(ctx).
		Preload("Contents.MenuItem").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate loads the header with a row lock for the enclosing transaction.
func (r *GormOrderRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.OrderInfo, error) {
	var order models.OrderInfo
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first, with their lines.
func (r *GormOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderInfo, error) {
	var orders []models.OrderInfo
	err := r.db.WithContext(ctx).
		Preload("Contents.MenuItem").
		Where("user_id = ?", userID).
		Order("ordered DESC").
		Find(&orders).Error
	return orders, err
}

// ListAll retrieves paginated orders for the admin view.
func (r *GormOrderRepository) ListAll(ctx context.Context, page, limit int) ([]models.OrderInfo, int64, error) {
	var orders []models.OrderInfo
	var total int64

	query := r.db.WithContext(ctx).Model(&models.OrderInfo{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("User").
		Preload("Contents.MenuItem").
		Offset(offset).
		Limit(limit).
		Order("ordered DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// SaveProgress persists the cooked/delivered timestamps.
func (r *GormOrderRepository) SaveProgress(ctx context.Context, order *models.OrderInfo) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderInfo{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"cooked":    order.Cooked,
			"delivered": order.Delivered,
		}).Error
}
