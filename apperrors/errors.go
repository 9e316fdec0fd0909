package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/LeeRude11/delivery/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error represents an application error
type Error struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors carrying the same code and message, so wrapped copies of
// a sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Wrap returns a copy of e carrying err. Sentinels are never mutated.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Field creates a validation error attached to a single form field.
func Field(field, message string) *Error {
	return &Error{
		Code:    http.StatusBadRequest,
		Message: message,
		Fields:  map[string]string{field: message},
	}
}

// Validation creates a validation error from per-field messages.
func Validation(fields map[string]string) *Error {
	return &Error{
		Code:    http.StatusBadRequest,
		Message: ErrValidation.Message,
		Fields:  fields,
	}
}

// From converts any error into an *Error. Unknown errors become a 500 that
// keeps the original as its cause.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.Wrap(err)
}

// Respond writes err as a JSON body and aborts the chain. Internal causes are
// logged, never sent to the client.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error(c, "request failed", appErr.Err, zap.String("path", c.Request.URL.Path))
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	c.AbortWithStatusJSON(appErr.Code, body)
}

// ErrorMiddleware renders the last error attached with c.Error when the
// handler did not write a response itself.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Respond(c, c.Errors.Last().Err)
		}
	}
}

// Common error types
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden          = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrConflict           = New(http.StatusConflict, "Conflict", nil)
	ErrTooManyRequests    = New(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Validation error types
var (
	ErrValidation         = New(http.StatusBadRequest, "Validation error", nil)
	ErrMissingPhoneNumber = Field("phone_number", "Users must have a phone number")
	ErrMissingPassword    = Field("password1", "Registering users must have a password")
	ErrDuplicatePhone     = Field("phone_number", "This phone number is already registered")
	ErrDuplicateEmail     = Field("email", "This email is already registered")
	ErrPasswordMismatch   = Field("password2", "Passwords don't match")
	ErrWrongOldPassword   = Field("old_password", "Your old password was entered incorrectly. Please enter it again.")
)

// Authentication error types
var (
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Please enter a correct phone number (or email) and password.", nil)
	ErrInactiveAccount    = New(http.StatusForbidden, "This account is inactive.", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, "Invalid token", nil)
)

// Business logic error types
var (
	ErrInvalidAmount  = New(http.StatusBadRequest, "Incorrect amount.", nil)
	ErrEmptyCart      = New(http.StatusBadRequest, "Your cart is empty.", nil)
	ErrOrderDelivered = New(http.StatusConflict, "Order is already delivered", nil)
)
