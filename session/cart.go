package session

import (
	"sort"

	"github.com/LeeRude11/delivery/apperrors"
)

// Cart maps menu item ids to quantities and carries the cart cost. All
// mutation goes through its methods so a zero quantity is never stored and
// the cost always matches the last repricing.
type Cart struct {
	items map[string]int
	cost  int
}

func NewCart() *Cart {
	return &Cart{items: make(map[string]int)}
}

// Quantity returns the amount of itemID in the cart, 0 when absent.
func (c *Cart) Quantity(itemID string) int {
	return c.items[itemID]
}

// SetQuantity sets an absolute amount. Zero removes the item.
func (c *Cart) SetQuantity(itemID string, amount int) error {
	if amount < 0 {
		return apperrors.ErrInvalidAmount
	}
	if amount == 0 {
		delete(c.items, itemID)
		return nil
	}
	c.items[itemID] = amount
	return nil
}

// Reprice recomputes the cost from prices. Items without a price are no
// longer purchasable and are dropped; their ids are returned.
func (c *Cart) Reprice(prices map[string]int) []string {
	var dropped []string
	cost := 0
	for id, amount := range c.items {
		price, ok := prices[id]
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		cost += amount * price
	}
	for _, id := range dropped {
		delete(c.items, id)
	}
	c.cost = cost
	sort.Strings(dropped)
	return dropped
}

func (c *Cart) Cost() int {
	return c.cost
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// ItemIDs returns the ids in the cart in a stable order.
func (c *Cart) ItemIDs() []string {
	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Items returns a copy of the quantity mapping.
func (c *Cart) Items() map[string]int {
	out := make(map[string]int, len(c.items))
	for id, amount := range c.items {
		out[id] = amount
	}
	return out
}

// Clear empties the cart and resets the cost.
func (c *Cart) Clear() {
	c.items = make(map[string]int)
	c.cost = 0
}
