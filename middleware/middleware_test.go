package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/middleware"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type userLoaderFunc func(ctx context.Context, id uuid.UUID) (*models.User, error)

func (f userLoaderFunc) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f(ctx, id)
}

func whoAmI(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, user.ID.String())
}

func TestAuthenticate(t *testing.T) {
	tokens := services.NewTokenService("secret", time.Hour)
	user := &models.User{ID: uuid.New(), Password: "hash-1", IsActive: true}
	stored := *user
	loader := userLoaderFunc(func(_ context.Context, id uuid.UUID) (*models.User, error) {
		if id != stored.ID {
			return nil, apperrors.ErrNotFound
		}
		u := stored
		return &u, nil
	})

	r := gin.New()
	r.Use(middleware.Authenticate(tokens, loader))
	r.GET("/me", whoAmI)

	call := func(cookie string) string {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: cookie})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Body.String()
	}

	token, err := tokens.Generate(user)
	require.NoError(t, err)

	t.Run("Valid cookie", func(t *testing.T) {
		assert.Equal(t, user.ID.String(), call(token))
	})

	t.Run("No cookie", func(t *testing.T) {
		assert.Equal(t, "anonymous", call(""))
	})

	t.Run("Garbage cookie", func(t *testing.T) {
		assert.Equal(t, "anonymous", call("not-a-jwt"))
	})

	t.Run("Password change invalidates the cookie", func(t *testing.T) {
		stored.Password = "hash-2"
		defer func() { stored.Password = "hash-1" }()
		assert.Equal(t, "anonymous", call(token))
	})

	t.Run("Inactive user", func(t *testing.T) {
		stored.IsActive = false
		defer func() { stored.IsActive = true }()
		assert.Equal(t, "anonymous", call(token))
	})

	t.Run("Loader failure leaves request anonymous", func(t *testing.T) {
		failing := gin.New()
		failing.Use(middleware.Authenticate(tokens, userLoaderFunc(func(context.Context, uuid.UUID) (*models.User, error) {
			return nil, errors.New("db down")
		})))
		failing.GET("/me", whoAmI)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: token})
		w := httptest.NewRecorder()
		failing.ServeHTTP(w, req)
		assert.Equal(t, "anonymous", w.Body.String())
	})
}

func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(middleware.UserContextKey, user)
		}
		c.Next()
	}
}

func TestLoginRequired(t *testing.T) {
	t.Run("Anonymous is redirected with next", func(t *testing.T) {
		r := gin.New()
		r.Use(withUser(nil), middleware.LoginRequired())
		r.GET("/orders/", whoAmI)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/?page=2", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/accounts/login/?next=%2Forders%2F%3Fpage%3D2", w.Header().Get("Location"))
	})

	t.Run("Authenticated passes", func(t *testing.T) {
		user := &models.User{ID: uuid.New()}
		r := gin.New()
		r.Use(withUser(user), middleware.LoginRequired())
		r.GET("/orders/", whoAmI)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orders/", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, user.ID.String(), w.Body.String())
	})
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"Anonymous", nil, http.StatusUnauthorized},
		{"Customer", &models.User{ID: uuid.New()}, http.StatusForbidden},
		{"Admin", &models.User{ID: uuid.New(), IsAdmin: true}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(withUser(tt.user), middleware.AdminOnly())
			r.GET("/admin/orders/", whoAmI)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/orders/", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSession(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Session(time.Hour, false))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, middleware.SessionID(c)) })

	t.Run("Issues a cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		cookie := w.Header().Get("Set-Cookie")
		assert.True(t, strings.HasPrefix(cookie, middleware.SessionCookieName+"="+w.Body.String()))
		assert.Contains(t, cookie, "HttpOnly")
		assert.Contains(t, cookie, "SameSite=Lax")
	})

	t.Run("Keeps a valid cookie", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: id})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, id, w.Body.String())
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})

	t.Run("Replaces a forged cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "../../etc"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.NotEqual(t, "../../etc", w.Body.String())
		assert.NotEmpty(t, w.Header().Get("Set-Cookie"))
	})
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := middleware.NewRateLimiter(ctx, rate.Every(time.Hour), 2, time.Minute)

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRequestTimeout(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestTimeout(time.Second))
	r.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
