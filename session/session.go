package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// ErrConflict is returned when an update kept losing optimistic-lock races.
var ErrConflict = errors.New("session: too many concurrent updates")

// Session is the server-side state behind one sessionid cookie.
type Session struct {
	ID       string
	Cart     *Cart
	Messages []string
}

func New(id string) *Session {
	return &Session{ID: id, Cart: NewCart()}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// AddMessage queues a flash message for the next page that shows them.
func (s *Session) AddMessage(msg string) {
	s.Messages = append(s.Messages, msg)
}

// PopMessages returns and clears the queued flash messages.
func (s *Session) PopMessages() []string {
	msgs := s.Messages
	s.Messages = nil
	return msgs
}

type wireSession struct {
	Cart     map[string]int `json:"cart"`
	CartCost int            `json:"cart_cost"`
	Messages []string       `json:"messages,omitempty"`
}

func (s *Session) MarshalJSON() ([]byte, error) {
	cart := s.Cart
	if cart == nil {
		cart = NewCart()
	}
	return json.Marshal(wireSession{
		Cart:     cart.items,
		CartCost: cart.cost,
		Messages: s.Messages,
	})
}

func (s *Session) UnmarshalJSON(data []byte) error {
	var w wireSession
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	cart := NewCart()
	for id, amount := range w.Cart {
		if amount > 0 {
			cart.items[id] = amount
		}
	}
	cart.cost = w.CartCost
	s.Cart = cart
	s.Messages = w.Messages
	return nil
}

// Store persists sessions. Update is the only way to change a session and is
// atomic per session id.
type Store interface {
	// Load returns the session, or a new empty one when id is unknown.
	Load(ctx context.Context, id string) (*Session, error)
	// Update applies fn to the current session and saves the result. When fn
	// returns an error nothing is written.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
}
