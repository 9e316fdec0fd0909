package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is a purchasable dish. Unavailable items are hidden from customers.
type MenuItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Price     int       `gorm:"not null;check:chk_menu_items_price,price >= 1" json:"price"`
	Image     string    `gorm:"type:varchar(255);not null;default:''" json:"image"`
	Available bool      `gorm:"not null;index" json:"available"`
	Special   bool      `gorm:"not null" json:"special"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MenuItemRequest is the admin payload for creating or editing an item.
type MenuItemRequest struct {
	Name      string `json:"name" binding:"required,max=64"`
	Price     int    `json:"price" binding:"required,gte=1"`
	Image     string `json:"image" binding:"max=255"`
	Available *bool  `json:"available"`
	Special   bool   `json:"special"`
}

// AvailabilityRequest toggles availability for a batch of items.
type AvailabilityRequest struct {
	IDs       []uuid.UUID `json:"ids" binding:"required,min=1"`
	Available *bool       `json:"available" binding:"required"`
}

// ImageUploadRequest asks for a presigned upload URL for an item image.
type ImageUploadRequest struct {
	Filename    string `json:"filename" binding:"required,max=128"`
	ContentType string `json:"content_type" binding:"required,oneof=image/jpeg image/png image/webp"`
}

// MenuItemDetail is an item together with the quantity currently in the cart.
type MenuItemDetail struct {
	MenuItem
	CartAmount int `json:"cart_amount"`
}
