package models

import "time"

const (
	EventOrderPlaced   = "order_placed"
	EventOrderAdvanced = "order_advanced"
)

// OrderPlacedEvent is published after a checkout commits.
type OrderPlacedEvent struct {
	EventType string            `json:"event_type"`
	EventID   string            `json:"event_id"`
	OrderID   string            `json:"order_id"`
	UserID    string            `json:"user_id"`
	IsGuest   bool              `json:"is_guest"`
	Phone     string            `json:"phone_number"`
	TotalCost int               `json:"total_cost"`
	Items     []OrderPlacedItem `json:"items"`
	Timestamp time.Time         `json:"timestamp"`
}

type OrderPlacedItem struct {
	MenuItemID string `json:"menu_item_id"`
	Amount     int    `json:"amount"`
	Cost       int    `json:"cost"`
}

// OrderAdvancedEvent is published when an order moves to the next state.
type OrderAdvancedEvent struct {
	EventType string    `json:"event_type"`
	EventID   string    `json:"event_id"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
