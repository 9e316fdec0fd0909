package middleware

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/logger"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AuthCookieName = "auth_token"
	UserContextKey = "user"
	LoginURL       = "/accounts/login/"
)

// TokenValidator validates auth cookies.
type TokenValidator interface {
	Validate(token string) (*services.AuthClaims, error)
}

// UserLoader loads the user a token points at.
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Authenticate resolves the auth cookie to a user and stores it in the
// context. A missing or stale cookie leaves the request anonymous.
func Authenticate(tokens TokenValidator, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AuthCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.Next()
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.Next()
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if apperrors.From(err).Code >= http.StatusInternalServerError {
				logger.Warn(c, "Failed to load user for auth cookie", zap.String("user_id", claims.UserID), zap.Error(err))
			}
			c.Next()
			return
		}
		// A password change rotates the fingerprint and logs out old cookies.
		if !user.IsActive || services.PasswordFingerprint(user.Password) != claims.PasswordHash {
			c.Next()
			return
		}

		c.Set(UserContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if val, ok := c.Get(UserContextKey); ok {
		if user, ok := val.(*models.User); ok {
			return user
		}
	}
	return nil
}

// LoginRequired redirects anonymous requests to the login page, carrying the
// original path in "next".
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginURL+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnly rejects everyone but admin users.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			apperrors.Respond(c, apperrors.ErrUnauthorized)
			return
		}
		if !user.IsStaff() {
			apperrors.Respond(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// SetAuthCookie stores the auth token in an HttpOnly cookie.
func SetAuthCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

func ClearAuthCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, "", -1, "/", "", secure, true)
}
