package models

import (
	"fmt"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxOrderVolume bounds the amount of a single order line.
const MaxOrderVolume = 20

// OrderStatus is derived from the cooked/delivered timestamps.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusCooked    OrderStatus = "cooked"
	OrderStatusDelivered OrderStatus = "delivered"
)

// OrderInfo is an order header. TotalCost always equals the sum of its
// lines' costs; OrderContents hooks keep it in sync.
type OrderInfo struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User           `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"user,omitempty"`
	Ordered   time.Time       `gorm:"not null;index" json:"ordered"`
	Cooked    *time.Time      `json:"cooked"`
	Delivered *time.Time      `json:"delivered"`
	TotalCost int             `gorm:"not null;default:0" json:"total_cost"`
	Contents  []OrderContents `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"contents,omitempty"`
}

func (o *OrderInfo) BeforeCreate(tx *gorm.DB) error {
	if o.Ordered.IsZero() {
		o.Ordered = time.Now()
	}
	return nil
}

// Status reports the state reached so far.
func (o *OrderInfo) Status() OrderStatus {
	switch {
	case o.Delivered != nil:
		return OrderStatusDelivered
	case o.Cooked != nil:
		return OrderStatusCooked
	default:
		return OrderStatusPlaced
	}
}

// Advance moves the order exactly one step: placed to cooked, cooked to
// delivered. A delivered order is left untouched and ErrOrderDelivered is
// returned.
func (o *OrderInfo) Advance(now time.Time) (OrderStatus, error) {
	switch o.Status() {
	case OrderStatusPlaced:
		o.Cooked = &now
	case OrderStatusCooked:
		o.Delivered = &now
	default:
		return OrderStatusDelivered, apperrors.ErrOrderDelivered
	}
	return o.Status(), nil
}

// OrderContents is a single order line. Cost is amount times the menu item
// price at save time.
type OrderContents struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	MenuItemID uuid.UUID `gorm:"type:uuid;not null;index" json:"menu_item_id"`
	MenuItem   *MenuItem `gorm:"foreignKey:MenuItemID;constraint:OnDelete:RESTRICT" json:"menu_item,omitempty"`
	Amount     int       `gorm:"not null;check:chk_order_contents_amount,amount BETWEEN 1 AND 20" json:"amount"`
	Cost       int       `gorm:"not null" json:"cost"`
}

// ValidateAmount checks a line amount against [1, MaxOrderVolume].
func ValidateAmount(amount int) error {
	if amount < 1 || amount > MaxOrderVolume {
		return apperrors.Field("amount", fmt.Sprintf("Ensure this value is between 1 and %d.", MaxOrderVolume))
	}
	return nil
}

func (c *OrderContents) BeforeSave(tx *gorm.DB) error {
	if err := ValidateAmount(c.Amount); err != nil {
		return err
	}
	price, err := c.unitPrice(tx)
	if err != nil {
		return err
	}
	c.Cost = c.Amount * price
	return nil
}

func (c *OrderContents) AfterSave(tx *gorm.DB) error {
	return RecomputeOrderTotal(tx, c.OrderID)
}

// AfterDelete requires OrderID to be loaded on the deleted value.
func (c *OrderContents) AfterDelete(tx *gorm.DB) error {
	return RecomputeOrderTotal(tx, c.OrderID)
}

func (c *OrderContents) unitPrice(tx *gorm.DB) (int, error) {
	if c.MenuItem != nil && c.MenuItem.ID == c.MenuItemID && c.MenuItem.Price > 0 {
		return c.MenuItem.Price, nil
	}
	var item MenuItem
	err := tx.Session(&gorm.Session{NewDB: true}).
		Select("id", "price").
		Where("id = ?", c.MenuItemID).
		First(&item).Error
	if err != nil {
		return 0, fmt.Errorf("load price of menu item %s: %w", c.MenuItemID, err)
	}
	return item.Price, nil
}

// RecomputeOrderTotal rewrites total_cost from the order's lines. The order
// row is locked first so concurrent line writes on one order serialize.
func RecomputeOrderTotal(tx *gorm.DB, orderID uuid.UUID) error {
	db := tx.Session(&gorm.Session{NewDB: true})

	var order OrderInfo
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return fmt.Errorf("lock order %s: %w", orderID, err)
	}

	var total int64
	if err := db.Model(&OrderContents{}).
		Select("COALESCE(SUM(cost), 0)").
		Where("order_id = ?", orderID).
		Scan(&total).Error; err != nil {
		return fmt.Errorf("sum order %s: %w", orderID, err)
	}

	return db.Model(&OrderInfo{}).
		Where("id = ?", orderID).
		UpdateColumn("total_cost", total).Error
}

// CheckoutRequest is the checkout form. Contact is required for anonymous
// buyers and optional for logged-in users.
type CheckoutRequest struct {
	Contact *ContactDetails `json:"contact" form:"-"`
}

// OrderLineUpdate changes the amount of an existing order line.
type OrderLineUpdate struct {
	Amount *int `json:"amount" binding:"required"`
}

// OrderLine is a cart line priced for display.
type OrderLine struct {
	ItemID uuid.UUID `json:"item_id"`
	Name   string    `json:"name"`
	Price  int       `json:"price"`
	Amount int       `json:"amount"`
	Cost   int       `json:"cost"`
}
