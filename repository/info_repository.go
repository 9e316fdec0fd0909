package repository

import (
	"context"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	"gorm.io/gorm"
)

// InfoRepository defines data access for info pages.
type InfoRepository interface {
	Create(ctx context.Context, page *models.InfoPage) error
	List(ctx context.Context) ([]models.InfoPage, error)
	FindByViewName(ctx context.Context, viewName string) (*models.InfoPage, error)
}

type GormInfoRepository struct {
	db *gorm.DB
}

func NewGormInfoRepository(db *gorm.DB) InfoRepository {
	return &GormInfoRepository{db: db}
}

func (r *GormInfoRepository) Create(ctx context.Context, page *models.InfoPage) error {
	err := r.db.WithContext(ctx).Create(page).Error
	if _, ok := uniqueViolation(err); ok {
		return apperrors.Field("view_name", "Info page with this view name or title already exists.").Wrap(err)
	}
	return err
}

// List returns pages in creation order, which is the navbar order.
func (r *GormInfoRepository) List(ctx context.Context) ([]models.InfoPage, error) {
	var pages []models.InfoPage
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&pages).Error
	return pages, err
}

func (r *GormInfoRepository) FindByViewName(ctx context.Context, viewName string) (*models.InfoPage, error) {
	var page models.InfoPage
	if err := r.db.WithContext(ctx).Where("view_name = ?", viewName).First(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}
