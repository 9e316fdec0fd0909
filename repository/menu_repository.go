package repository

import (
	"context"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MenuRepository defines data access for menu items.
type MenuRepository interface {
	ListAvailable(ctx context.Context) ([]models.MenuItem, error)
	ListSpecials(ctx context.Context) ([]models.MenuItem, error)
	FindAvailable(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	FindAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	Create(ctx context.Context, item *models.MenuItem) error
	Update(ctx context.Context, item *models.MenuItem) error
	SetAvailability(ctx context.Context, ids []uuid.UUID, available bool) (int64, error)
}

// GormMenuRepository implements MenuRepository using GORM.
type GormMenuRepository struct {
	db *gorm.DB
}

func NewGormMenuRepository(db *gorm.DB) MenuRepository {
	return &GormMenuRepository{db: db}
}

// ListAvailable returns every available item ordered by name.
func (r *GormMenuRepository) ListAvailable(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("available = ?", true).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *GormMenuRepository) ListSpecials(ctx context.Context) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("available = ? AND special = ?", true, true).
		Order("name ASC").
		Find(&items).Error
	return items, err
}

func (r *GormMenuRepository) FindAvailable(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND available = ?", id, true).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindAvailableByIDs loads the available subset of ids in one query.
func (r *GormMenuRepository) FindAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]models.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.MenuItem
	err := r.db.WithContext(ctx).
		Where("id IN ? AND available = ?", ids, true).
		Find(&items).Error
	return items, err
}

// FindByID ignores availability; used by the admin endpoints.
func (r *GormMenuRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormMenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return translateMenuError(r.db.WithContext(ctx).Create(item).Error)
}

func (r *GormMenuRepository) Update(ctx context.Context, item *models.MenuItem) error {
	return translateMenuError(r.db.WithContext(ctx).Save(item).Error)
}

// SetAvailability flips availability for ids and returns the rows updated.
func (r *GormMenuRepository) SetAvailability(ctx context.Context, ids []uuid.UUID, available bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MenuItem{}).
		Where("id IN ?", ids).
		Update("available", available)
	return result.RowsAffected, result.Error
}

func translateMenuError(err error) error {
	if _, ok := uniqueViolation(err); ok {
		return apperrors.Field("name", "Menu item with this name already exists.").Wrap(err)
	}
	return err
}
