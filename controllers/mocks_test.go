package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/LeeRude11/delivery/middleware"
	"github.com/LeeRude11/delivery/models"
	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

const testSessionID = "0123456789abcdef0123456789abcdef"

// --- Mock services ---

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	args := m.Called(ctx, nu)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) CreateGuestUser(ctx context.Context, contact models.ContactDetails) (*models.User, error) {
	args := m.Called(ctx, contact)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) EnsureAdmin(ctx context.Context, phone, password string) (*models.User, error) {
	args := m.Called(ctx, phone, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	args := m.Called(ctx, identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, user *models.User, req *models.ProfileUpdateRequest) (*models.User, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, user *models.User, req *models.PasswordChangeRequest) (*models.User, error) {
	args := m.Called(ctx, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) Generate(user *models.User) (string, error) {
	args := m.Called(user)
	return args.String(0), args.Error(1)
}

func (m *MockTokenIssuer) TTL() time.Duration { return time.Hour }

type MockMenuService struct {
	mock.Mock
}

func (m *MockMenuService) List(ctx context.Context) ([]models.MenuItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.MenuItem), args.Error(1)
}

func (m *MockMenuService) Specials(ctx context.Context) ([]models.MenuItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.MenuItem), args.Error(1)
}

func (m *MockMenuService) Get(ctx context.Context, id uuid.UUID) (*models.MenuItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MenuItem), args.Error(1)
}

func (m *MockMenuService) Create(ctx context.Context, req *models.MenuItemRequest) (*models.MenuItem, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MenuItem), args.Error(1)
}

func (m *MockMenuService) Update(ctx context.Context, id uuid.UUID, req *models.MenuItemRequest) (*models.MenuItem, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MenuItem), args.Error(1)
}

func (m *MockMenuService) SetAvailability(ctx context.Context, ids []uuid.UUID, available bool) (string, error) {
	args := m.Called(ctx, ids, available)
	return args.String(0), args.Error(1)
}

func (m *MockMenuService) PresignImageUpload(ctx context.Context, id uuid.UUID, req *models.ImageUploadRequest) (*aws_pkg.PresignedUpload, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aws_pkg.PresignedUpload), args.Error(1)
}

type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) UpdateCart(ctx context.Context, sessionID string, itemID uuid.UUID, rawAmount string) (*services.CartUpdate, error) {
	args := m.Called(ctx, sessionID, itemID, rawAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartUpdate), args.Error(1)
}

func (m *MockCartService) View(ctx context.Context, sessionID string) (*services.CartView, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CartView), args.Error(1)
}

func (m *MockCartService) ItemQuantity(ctx context.Context, sessionID string, itemID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID, itemID)
	return args.Int(0), args.Error(1)
}

func (m *MockCartService) IsEmpty(ctx context.Context, sessionID string) (bool, error) {
	args := m.Called(ctx, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCartService) AddMessage(ctx context.Context, sessionID, msg string) error {
	return m.Called(ctx, sessionID, msg).Error(0)
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Summary(ctx context.Context, sessionID string, user *models.User) (*services.CheckoutSummary, error) {
	args := m.Called(ctx, sessionID, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CheckoutSummary), args.Error(1)
}

func (m *MockCheckoutService) Checkout(ctx context.Context, sessionID string, user *models.User, req *models.CheckoutRequest) (*models.OrderInfo, error) {
	args := m.Called(ctx, sessionID, user, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderInfo), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.OrderInfo, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.OrderInfo), args.Error(1)
}

func (m *MockOrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.OrderInfo, error) {
	args := m.Called(ctx, userID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderInfo), args.Error(1)
}

func (m *MockOrderService) ListAll(ctx context.Context, page, limit int) ([]models.OrderInfo, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]models.OrderInfo), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderService) Advance(ctx context.Context, orderID uuid.UUID) (*models.OrderInfo, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderInfo), args.Error(1)
}

func (m *MockOrderService) UpdateLine(ctx context.Context, orderID, lineID uuid.UUID, amount int) (*models.OrderInfo, error) {
	args := m.Called(ctx, orderID, lineID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderInfo), args.Error(1)
}

func (m *MockOrderService) DeleteLine(ctx context.Context, orderID, lineID uuid.UUID) (*models.OrderInfo, error) {
	args := m.Called(ctx, orderID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderInfo), args.Error(1)
}

type MockInfoService struct {
	mock.Mock
}

func (m *MockInfoService) Navbar(ctx context.Context) ([]models.NavEntry, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.NavEntry), args.Error(1)
}

func (m *MockInfoService) Get(ctx context.Context, viewName string) (*models.InfoPage, error) {
	args := m.Called(ctx, viewName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InfoPage), args.Error(1)
}

func (m *MockInfoService) Create(ctx context.Context, req *models.InfoPageRequest) (*models.InfoPage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InfoPage), args.Error(1)
}

// --- Helpers ---

// newRouter returns an engine that behaves as if the session and auth
// middleware already ran. user may be nil for anonymous requests.
func newRouter(user *models.User) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.SessionIDKey, testSessionID)
		if user != nil {
			c.Set(middleware.UserContextKey, user)
		}
		c.Next()
	})
	return r
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func testUser() *models.User {
	return &models.User{
		ID:          uuid.New(),
		PhoneNumber: "+79991234567",
		FirstName:   "Ivan",
		SecondName:  "Petrov",
		Street:      "Lenina",
		House:       "1",
		IsActive:    true,
	}
}
