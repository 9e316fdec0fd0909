package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules and reports fields by
// their JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return services.LooksLikePhone(fl.Field().String())
		})
	})
}

// bindingError turns binder failures into per-field validation errors.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return apperrors.Validation(fields)
	}
	return apperrors.ErrBadRequest.Wrap(err)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter a valid phone number."
	case "datetime":
		return "Enter a valid date."
	case "oneof":
		return "Select a valid choice."
	default:
		return "Enter a valid value."
	}
}

// parseIDParam reads a uuid path parameter. Malformed ids cannot name an
// existing row, so they are reported as not found.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.ErrNotFound
	}
	return id, nil
}

// parsePaginationParams extracts and validates pagination parameters.
func parsePaginationParams(c *gin.Context) (int, int) {
	const maxLimit = 100
	page, limit := 1, 20
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && l > 0 {
		if l > maxLimit {
			l = maxLimit
		}
		limit = l
	}
	return page, limit
}

// rawAmount returns the "amount" field as sent, from a form or a JSON body.
// Validation is left to the cart so both encodings fail the same way.
func rawAmount(c *gin.Context) (string, error) {
	if c.ContentType() != binding.MIMEJSON {
		return c.PostForm("amount"), nil
	}

	var body struct {
		Amount json.RawMessage `json:"amount"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return "", apperrors.ErrInvalidAmount
	}
	raw := strings.TrimSpace(string(body.Amount))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(body.Amount, &s); err != nil {
			return "", apperrors.ErrInvalidAmount
		}
		return s, nil
	}
	return raw, nil
}

func isJSON(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON
}
