package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/middleware"
	"github.com/LeeRude11/delivery/models"
	"github.com/LeeRude11/delivery/services"
	"github.com/LeeRude11/delivery/session"
	"github.com/gin-gonic/gin"
)

// TokenIssuer signs auth cookies.
type TokenIssuer interface {
	Generate(user *models.User) (string, error)
	TTL() time.Duration
}

// AccountController handles registration, login and profile endpoints.
type AccountController struct {
	accounts     services.AccountService
	tokens       TokenIssuer
	sessions     session.Store
	sessionTTL   time.Duration
	cookieSecure bool
}

func NewAccountController(accounts services.AccountService, tokens TokenIssuer, sessions session.Store, sessionTTL time.Duration, cookieSecure bool) *AccountController {
	return &AccountController{
		accounts:     accounts,
		tokens:       tokens,
		sessions:     sessions,
		sessionTTL:   sessionTTL,
		cookieSecure: cookieSecure,
	}
}

// Register handles POST /accounts/register/ and logs the new user in.
func (ac *AccountController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}

	user, err := ac.accounts.Register(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := ac.login(c, user); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// LoginPage handles GET /accounts/login/.
func (ac *AccountController) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"next": safeNext(c.Query("next"))})
}

// Login handles POST /accounts/login/. The identifier may be a phone number
// or an email.
func (ac *AccountController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}

	user, err := ac.accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := ac.login(c, user); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "redirect": safeNext(c.Query("next"))})
}

// Logout handles POST /accounts/logout/. The session, and with it the cart,
// is discarded.
func (ac *AccountController) Logout(c *gin.Context) {
	middleware.ClearAuthCookie(c, ac.cookieSecure)
	middleware.RotateSession(c, ac.sessions, ac.sessionTTL, ac.cookieSecure)
	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out."})
}

// Profile handles GET /accounts/profile/.
func (ac *AccountController) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

// UpdateProfile handles POST /accounts/profile/.
func (ac *AccountController) UpdateProfile(c *gin.Context) {
	var req models.ProfileUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}

	user, err := ac.accounts.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword handles POST /accounts/password_change/. The caller stays
// logged in with a fresh cookie; other cookies of the user stop working.
func (ac *AccountController) ChangePassword(c *gin.Context) {
	var req models.PasswordChangeRequest
	if err := c.ShouldBind(&req); err != nil {
		apperrors.Respond(c, bindingError(err))
		return
	}

	user, err := ac.accounts.ChangePassword(c.Request.Context(), middleware.CurrentUser(c), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if err := ac.login(c, user); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Your password was changed."})
}

func (ac *AccountController) login(c *gin.Context, user *models.User) error {
	token, err := ac.tokens.Generate(user)
	if err != nil {
		return apperrors.ErrInternalServer.Wrap(err)
	}
	middleware.SetAuthCookie(c, token, ac.tokens.TTL(), ac.cookieSecure)
	c.Set(middleware.UserContextKey, user)
	return nil
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}
