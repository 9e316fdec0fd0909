package services

import (
	"context"
	"strconv"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/events"
	"github.com/LeeRude11/delivery/logger"
	"github.com/LeeRude11/delivery/models"
	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/LeeRude11/delivery/repository"
	"github.com/LeeRude11/delivery/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrItemsUnavailable aborts a checkout whose cart holds items that were
// hidden after they were added.
var ErrItemsUnavailable = apperrors.Field("cart", "Some items are no longer available. Please review your cart.")

// CheckoutSummary is what the checkout page shows before the order is placed.
type CheckoutSummary struct {
	Lines   []models.OrderLine     `json:"lines"`
	Cost    int                    `json:"cart_cost"`
	Contact *models.ContactDetails `json:"contact,omitempty"`
}

// CheckoutService turns a session cart into an order.
type CheckoutService interface {
	Summary(ctx context.Context, sessionID string, user *models.User) (*CheckoutSummary, error)
	Checkout(ctx context.Context, sessionID string, user *models.User, req *models.CheckoutRequest) (*models.OrderInfo, error)
}

type checkoutServiceImpl struct {
	store     repository.Store
	sessions  session.Store
	publisher events.Publisher
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	store repository.Store,
	sessions session.Store,
	publisher events.Publisher,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) CheckoutService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &checkoutServiceImpl{
		store:     store,
		sessions:  sessions,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// Summary prices the cart without modifying the session and prefills the
// contact form for a registered user.
func (s *checkoutServiceImpl) Summary(ctx context.Context, sessionID string, user *models.User) (*CheckoutSummary, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	items, err := repriceCart(ctx, s.store.Menu(), sess.Cart)
	if err != nil {
		return nil, err
	}

	summary := &CheckoutSummary{
		Lines: cartLines(sess.Cart, items.byID),
		Cost:  sess.Cart.Cost(),
	}
	if user != nil && !user.IsGuest {
		summary.Contact = &models.ContactDetails{
			PhoneNumber: user.PhoneNumber,
			FirstName:   user.FirstName,
			SecondName:  user.SecondName,
			Street:      user.Street,
			House:       user.House,
			Apartment:   user.Apartment,
			Email:       user.EmailValue(),
		}
	}
	return summary, nil
}

// Checkout places an order for the session cart. An anonymous caller must
// supply contact details and gets a guest user; a registered caller may
// supply them to update the profile.
//
// An empty cart is reported before the contact details are looked at. The
// cart is claimed (read and emptied) atomically before the database
// transaction so two concurrent checkouts of one session cannot both order
// it. If the transaction fails the claimed lines are put back.
func (s *checkoutServiceImpl) Checkout(ctx context.Context, sessionID string, user *models.User, req *models.CheckoutRequest) (*models.OrderInfo, error) {
	sess, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, sessionError(err)
	}
	if sess.Cart.IsEmpty() {
		return nil, apperrors.ErrEmptyCart
	}

	var contact *models.ContactDetails
	if req != nil {
		contact = req.Contact
	}
	if user == nil && contact == nil {
		return nil, apperrors.Field("contact", "This field is required.")
	}
	if contact != nil && NormalizePhone(contact.PhoneNumber) == "" {
		return nil, apperrors.ErrMissingPhoneNumber
	}

	claimed, err := s.claimCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var (
		order    *models.OrderInfo
		customer *models.User
	)
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		customer, err = s.resolveCustomer(ctx, tx, user, contact)
		if err != nil {
			return err
		}
		order, err = placeOrder(ctx, tx, customer.ID, claimed)
		return err
	})
	if err != nil {
		s.restoreCart(ctx, sessionID, claimed)
		return nil, err
	}

	s.afterCheckout(ctx, order, customer)
	return order, nil
}

// claimCart validates every line and empties the cart in one session update.
func (s *checkoutServiceImpl) claimCart(ctx context.Context, sessionID string) (map[string]int, error) {
	var claimed map[string]int
	_, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		if sess.Cart.IsEmpty() {
			return apperrors.ErrEmptyCart
		}
		for _, amount := range sess.Cart.Items() {
			if err := models.ValidateAmount(amount); err != nil {
				return err
			}
		}
		claimed = sess.Cart.Items()
		sess.Cart.Clear()
		return nil
	})
	if err != nil {
		return nil, sessionError(err)
	}
	return claimed, nil
}

func (s *checkoutServiceImpl) restoreCart(ctx context.Context, sessionID string, claimed map[string]int) {
	_, err := s.sessions.Update(ctx, sessionID, func(sess *session.Session) error {
		for key, amount := range claimed {
			if sess.Cart.Quantity(key) == 0 {
				if err := sess.Cart.SetQuantity(key, amount); err != nil {
					return err
				}
			}
		}
		_, err := repriceCart(ctx, s.store.Menu(), sess.Cart)
		return err
	})
	if err != nil {
		logger.Error(ctx, "Failed to restore cart after checkout failure", err, zap.String("session_id", sessionID))
	}
}

func (s *checkoutServiceImpl) resolveCustomer(ctx context.Context, tx repository.Store, user *models.User, contact *models.ContactDetails) (*models.User, error) {
	if user == nil {
		return createUser(ctx, tx.Users(), newUserFromContact(*contact), true)
	}
	if contact == nil || user.IsGuest {
		return user, nil
	}
	updated := *user
	if err := applyContact(ctx, tx.Users(), &updated, *contact); err != nil {
		return nil, err
	}
	if err := tx.Users().Update(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// placeOrder writes the header and one line per cart entry. The line hooks
// keep total_cost equal to the sum of line costs.
func placeOrder(ctx context.Context, tx repository.Store, userID uuid.UUID, lines map[string]int) (*models.OrderInfo, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for key := range lines {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, ErrItemsUnavailable
		}
		ids = append(ids, id)
	}

	items, err := tx.Menu().FindAvailableByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(items) != len(ids) {
		return nil, ErrItemsUnavailable
	}

	order := &models.OrderInfo{UserID: userID}
	if err := tx.Orders().Create(ctx, order); err != nil {
		return nil, err
	}
	for i := range items {
		line := &models.OrderContents{
			OrderID:    order.ID,
			MenuItemID: items[i].ID,
			MenuItem:   &items[i],
			Amount:     lines[items[i].ID.String()],
		}
		if err := tx.Orders().AddLine(ctx, line); err != nil {
			return nil, err
		}
	}
	return tx.Orders().FindByID(ctx, order.ID)
}

func (s *checkoutServiceImpl) afterCheckout(ctx context.Context, order *models.OrderInfo, customer *models.User) {
	logger.Info(ctx, "Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", customer.ID.String()),
		zap.Int("total_cost", order.TotalCost),
	)

	event := models.OrderPlacedEvent{
		EventType: models.EventOrderPlaced,
		EventID:   uuid.NewString(),
		OrderID:   order.ID.String(),
		UserID:    customer.ID.String(),
		IsGuest:   customer.IsGuest,
		Phone:     customer.PhoneNumber,
		TotalCost: order.TotalCost,
		Items:     make([]models.OrderPlacedItem, 0, len(order.Contents)),
		Timestamp: time.Now().UTC(),
	}
	for _, line := range order.Contents {
		event.Items = append(event.Items, models.OrderPlacedItem{
			MenuItemID: line.MenuItemID.String(),
			Amount:     line.Amount,
			Cost:       line.Cost,
		})
	}
	if err := s.publisher.Publish(ctx, event.OrderID, event); err != nil {
		s.logger.Warn("Failed to publish order_placed event", zap.String("order_id", event.OrderID), zap.Error(err))
	}

	dims := map[string]string{"guest": strconv.FormatBool(customer.IsGuest)}
	recordAsync(s.metrics, aws_pkg.MetricOrdersCreated, dims)
	recordValueAsync(s.metrics, aws_pkg.MetricOrderValue, float64(order.TotalCost), nil)
	if customer.IsGuest {
		recordAsync(s.metrics, aws_pkg.MetricGuestsCreated, nil)
	}
}
