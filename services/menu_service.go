package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/cache"
	"github.com/LeeRude11/delivery/models"
	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/LeeRude11/delivery/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MenuService defines menu browsing and admin menu management.
type MenuService interface {
	List(ctx context.Context) ([]models.MenuItem, error)
	Specials(ctx context.Context) ([]models.MenuItem, error)
	Get(ctx context.Context, id uuid.UUID) (*models.MenuItem, error)
	Create(ctx context.Context, req *models.MenuItemRequest) (*models.MenuItem, error)
	Update(ctx context.Context, id uuid.UUID, req *models.MenuItemRequest) (*models.MenuItem, error)
	SetAvailability(ctx context.Context, ids []uuid.UUID, available bool) (string, error)
	PresignImageUpload(ctx context.Context, id uuid.UUID, req *models.ImageUploadRequest) (*aws_pkg.PresignedUpload, error)
}

type menuServiceImpl struct {
	store     repository.Store
	cache     cache.MenuCache
	presigner aws_pkg.UploadPresigner
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
}

// NewMenuService creates a new MenuService. presigner may be nil when image
// uploads are not configured.
func NewMenuService(
	store repository.Store,
	menuCache cache.MenuCache,
	presigner aws_pkg.UploadPresigner,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) MenuService {
	if menuCache == nil {
		menuCache = cache.NoopCache{}
	}
	return &menuServiceImpl{
		store:     store,
		cache:     menuCache,
		presigner: presigner,
		metrics:   metrics,
		logger:    logger,
	}
}

// List returns all available items, cached.
func (s *menuServiceImpl) List(ctx context.Context) ([]models.MenuItem, error) {
	return s.cachedList(ctx, cache.ListAll, s.store.Menu().ListAvailable)
}

// Specials returns available items flagged special, cached.
func (s *menuServiceImpl) Specials(ctx context.Context) ([]models.MenuItem, error) {
	return s.cachedList(ctx, cache.ListSpecials, s.store.Menu().ListSpecials)
}

func (s *menuServiceImpl) cachedList(ctx context.Context, name string, load func(context.Context) ([]models.MenuItem, error)) ([]models.MenuItem, error) {
	dims := map[string]string{"list": name}
	if items, ok := s.cache.GetList(ctx, name); ok {
		recordAsync(s.metrics, aws_pkg.MetricCacheHits, dims)
		return items, nil
	}
	recordAsync(s.metrics, aws_pkg.MetricCacheMisses, dims)

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	s.cache.SetListAsync(name, items)
	return items, nil
}

// Get returns an available item. Hidden items are not found.
func (s *menuServiceImpl) Get(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	item, err := s.store.Menu().FindAvailable(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *menuServiceImpl) Create(ctx context.Context, req *models.MenuItemRequest) (*models.MenuItem, error) {
	item := &models.MenuItem{
		Name:      strings.TrimSpace(req.Name),
		Price:     req.Price,
		Image:     req.Image,
		Available: req.Available == nil || *req.Available,
		Special:   req.Special,
	}
	if err := s.store.Menu().Create(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("Menu item created", zap.String("id", item.ID.String()), zap.String("name", item.Name))
	return item, nil
}

// Update replaces an item's fields. Existing carts pick the new price up the
// next time they are repriced; placed orders keep theirs.
func (s *menuServiceImpl) Update(ctx context.Context, id uuid.UUID, req *models.MenuItemRequest) (*models.MenuItem, error) {
	item, err := s.store.Menu().FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	item.Name = strings.TrimSpace(req.Name)
	item.Price = req.Price
	item.Image = req.Image
	item.Special = req.Special
	if req.Available != nil {
		item.Available = *req.Available
	}
	if err := s.store.Menu().Update(ctx, item); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return item, nil
}

// SetAvailability is the bulk "make available" / "hide" admin action. It
// returns the confirmation message shown to the admin.
func (s *menuServiceImpl) SetAvailability(ctx context.Context, ids []uuid.UUID, available bool) (string, error) {
	if len(ids) == 0 {
		return "", apperrors.Field("ids", "Select at least one item.")
	}
	n, err := s.store.Menu().SetAvailability(ctx, ids, available)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx)
	return availabilityMessage(n, available), nil
}

func availabilityMessage(n int64, available bool) string {
	noun := "items were"
	if n == 1 {
		noun = "item was"
	}
	verb := "hidden"
	if available {
		verb = "made available"
	}
	return fmt.Sprintf("%d %s successfully %s.", n, noun, verb)
}

// PresignImageUpload returns a URL the admin can PUT the item's picture to.
func (s *menuServiceImpl) PresignImageUpload(ctx context.Context, id uuid.UUID, req *models.ImageUploadRequest) (*aws_pkg.PresignedUpload, error) {
	if s.presigner == nil {
		return nil, apperrors.ErrServiceUnavailable
	}
	if _, err := s.store.Menu().FindByID(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	filename := path.Base(strings.TrimSpace(req.Filename))
	if filename == "." || filename == "/" || filename == "" {
		return nil, apperrors.Field("filename", "Enter a valid file name.")
	}
	key := fmt.Sprintf("menu/%s/%s-%s", id, uuid.NewString(), filename)

	upload, err := s.presigner.PresignPut(ctx, key, req.ContentType)
	if err != nil {
		return nil, apperrors.ErrInternalServer.Wrap(err)
	}
	return upload, nil
}

func (s *menuServiceImpl) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate menu cache", zap.Error(err))
	}
}
