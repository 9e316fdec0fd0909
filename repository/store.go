package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories so a service can run several of them inside
// one database transaction.
type Store interface {
	Users() UserRepository
	Menu() MenuRepository
	Orders() OrderRepository
	Info() InfoRepository
	// Transaction runs fn against a Store bound to a single transaction.
	// Returning an error from fn rolls everything back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore implements Store on top of a *gorm.DB.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a Store. db may itself be a transaction handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository   { return NewGormUserRepository(s.db) }
func (s *GormStore) Menu() MenuRepository    { return NewGormMenuRepository(s.db) }
func (s *GormStore) Orders() OrderRepository { return NewGormOrderRepository(s.db) }
func (s *GormStore) Info() InfoRepository    { return NewGormInfoRepository(s.db) }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
