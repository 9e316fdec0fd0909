package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/LeeRude11/delivery/repository"
	"github.com/LeeRude11/delivery/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MsgItemsRemoved is shown when repricing drops items that were hidden.
const MsgItemsRemoved = "Some items are no longer available and were removed from your cart."

// CartUpdate is the response of an amount change.
type CartUpdate struct {
	NewCost int `json:"new_cost"`
	Amount  int `json:"amount"`
}

// CartView is the shopping cart page.
type CartView struct {
	Lines    []models.OrderLine `json:"lines"`
	Cost     int                `json:"cart_cost"`
	Messages []string           `json:"messages"`
}

// CartService defines operations on the session cart.
type CartService interface {
	UpdateCart(ctx context.Context, sessionID string, itemID uuid.UUID, rawAmount string) (*CartUpdate, error)
	View(ctx context.Context, sessionID string) (*CartView, error)
	ItemQuantity(ctx context.Context, sessionID string, itemID uuid.UUID) (int, error)
	IsEmpty(ctx context.Context, sessionID string) (bool, error)
	AddMessage(ctx context.Context, sessionID, msg string) error
}

type cartServiceImpl struct {
	store    repository.Store
	sessions session.Store
	metrics  aws_pkg.MetricsRecorder
	logger   *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(store repository.Store, sessions session.Store, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) CartService {
	return &cartServiceImpl{
		store:    store,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// UpdateCart sets the absolute amount of one item and returns the new cart
// cost. Nothing is written when the amount or the item is rejected.
func (s *cartServiceImpl) UpdateCart(ctx context.Context, sessionID string, itemID uuid.UUID, rawAmount string) (*CartUpdate, error) {
	menu := s.store.Menu()
	if _, err := menu.FindAvailable(ctx, itemID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	amount, err := parseAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	key := itemID.String()
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		if err := sess.Cart.SetQuantity(key, amount); err != nil {
			return err
		}
		_, err := repriceCart(ctx, menu, sess.Cart)
		return err
	})
	if err != nil {
		return nil, sessionError(err)
	}

	recordAsync(s.metrics, aws_pkg.MetricCartUpdates, nil)
	return &CartUpdate{NewCost: sess.Cart.Cost(), Amount: sess.Cart.Quantity(key)}, nil
}

// View reprices the cart against current prices and consumes the pending
// flash messages.
func (s *cartServiceImpl) View(ctx context.Context, sessionID string) (*CartView, error) {
	var (
		lines    []models.OrderLine
		messages []string
	)
	sess, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		messages = sess.PopMessages()
		items, err := repriceCart(ctx, s.store.Menu(), sess.Cart)
		if err != nil {
			return err
		}
		if items.dropped > 0 {
			messages = append(messages, MsgItemsRemoved)
		}
		lines = cartLines(sess.Cart, items.byID)
		return nil
	})
	if err != nil {
		return nil, sessionError(err)
	}

	if messages == nil {
		messages = []string{}
	}
	return &CartView{Lines: lines, Cost: sess.Cart.Cost(), Messages: messages}, nil
}

// ItemQuantity returns the amount of itemID in the cart, 0 when absent.
func (s *cartServiceImpl) ItemQuantity(ctx context.Context, sessionID string, itemID uuid.UUID) (int, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return 0, sessionError(err)
	}
	return sess.Cart.Quantity(itemID.String()), nil
}

// IsEmpty reports whether the session cart holds no items.
func (s *cartServiceImpl) IsEmpty(ctx context.Context, sessionID string) (bool, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return false, sessionError(err)
	}
	return sess.Cart.IsEmpty(), nil
}

// AddMessage queues a flash message for the next cart page.
func (s *cartServiceImpl) AddMessage(ctx context.Context, sessionID, msg string) error {
	_, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		sess.AddMessage(msg)
		return nil
	})
	return sessionError(err)
}

func parseAmount(raw string) (int, error) {
	amount, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || amount < 0 {
		return 0, apperrors.ErrInvalidAmount
	}
	return amount, nil
}

type pricedItems struct {
	byID    map[string]models.MenuItem
	dropped int
}

// repriceCart loads the available items of cart in one query and recomputes
// its cost. Unavailable items leave the cart.
func repriceCart(ctx context.Context, menu repository.MenuRepository, cart *session.Cart) (*pricedItems, error) {
	ids := make([]uuid.UUID, 0, cart.Len())
	for _, key := range cart.ItemIDs() {
		if id, err := uuid.Parse(key); err == nil {
			ids = append(ids, id)
		}
	}

	found, err := menu.FindAvailableByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.MenuItem, len(found))
	prices := make(map[string]int, len(found))
	for _, item := range found {
		key := item.ID.String()
		byID[key] = item
		prices[key] = item.Price
	}
	dropped := cart.Reprice(prices)
	return &pricedItems{byID: byID, dropped: len(dropped)}, nil
}

// cartLines renders the cart sorted by item name.
func cartLines(cart *session.Cart, items map[string]models.MenuItem) []models.OrderLine {
	lines := make([]models.OrderLine, 0, cart.Len())
	for key, amount := range cart.Items() {
		item, ok := items[key]
		if !ok {
			continue
		}
		lines = append(lines, models.OrderLine{
			ItemID: item.ID,
			Name:   item.Name,
			Price:  item.Price,
			Amount: amount,
			Cost:   item.Price * amount,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}

// sessionError maps store conflicts to a retryable HTTP error and leaves
// application errors as they are.
func sessionError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrConflict) {
		return apperrors.ErrConflict.Wrap(err)
	}
	return err
}
