package repository

import (
	"context"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	registeredPhoneIndex = "idx_users_registered_phone"
	registeredEmailIndex = "idx_users_registered_email"
)

// UserRepository defines data access for users. Lookups by contact only
// consider registered (non-guest) users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindRegisteredByContact(ctx context.Context, phone, email string) (*models.User, error)
	PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error)
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
}

// GormUserRepository implements UserRepository using GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create inserts a user. Races on the registered-contact indexes surface as
// the same field errors the service reports.
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translateUserError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	return translateUserError(r.db.WithContext(ctx).Save(user).Error)
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindRegisteredByContact matches phone OR email. Empty values never match.
func (r *GormUserRepository) FindRegisteredByContact(ctx context.Context, phone, email string) (*models.User, error) {
	if phone == "" && email == "" {
		return nil, gorm.ErrRecordNotFound
	}

	query := r.db.WithContext(ctx).Where("is_guest = ?", false)
	switch {
	case phone != "" && email != "":
		query = query.Where(r.db.Where("phone_number = ?", phone).Or("email = ?", email))
	case phone != "":
		query = query.Where("phone_number = ?", phone)
	default:
		query = query.Where("email = ?", email)
	}

	var user models.User
	if err := query.Order("created_at ASC").First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) PhoneTaken(ctx context.Context, phone string, exclude uuid.UUID) (bool, error) {
	return r.registeredExists(ctx, "phone_number", phone, exclude)
}

func (r *GormUserRepository) EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error) {
	return r.registeredExists(ctx, "email", email, exclude)
}

func (r *GormUserRepository) registeredExists(ctx context.Context, column, value string, exclude uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_guest = ? AND "+column+" = ?", false, value)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func translateUserError(err error) error {
	constraint, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case registeredPhoneIndex:
		return apperrors.ErrDuplicatePhone.Wrap(err)
	case registeredEmailIndex:
		return apperrors.ErrDuplicateEmail.Wrap(err)
	default:
		return apperrors.ErrConflict.Wrap(err)
	}
}
