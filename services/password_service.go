package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/LeeRude11/delivery/apperrors"
)

const MinPasswordLength = 8

var (
	msgPasswordTooShort = fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	msgPasswordCommon   = "This password is too common."
	msgPasswordNumeric  = "This password is entirely numeric."
	msgPasswordSimilar  = "The password is too similar to the phone number."
)

// PasswordValidator checks new passwords before they are hashed.
type PasswordValidator struct {
	minLength       int
	commonPasswords map[string]bool
}

// NewPasswordValidator creates a new password validator with default settings
func NewPasswordValidator() *PasswordValidator {
	common := make(map[string]bool, len(commonPasswords))
	for _, p := range commonPasswords {
		common[p] = true
	}
	return &PasswordValidator{
		minLength:       MinPasswordLength,
		commonPasswords: common,
	}
}

// Validate returns a field error on field listing every rule the password
// breaks, or nil.
func (pv *PasswordValidator) Validate(field, password, phone string) error {
	var problems []string

	if len([]rune(password)) < pv.minLength {
		problems = append(problems, msgPasswordTooShort)
	}
	if pv.commonPasswords[strings.ToLower(strings.TrimSpace(password))] {
		problems = append(problems, msgPasswordCommon)
	}
	if isNumeric(password) {
		problems = append(problems, msgPasswordNumeric)
	}
	if len(phone) >= 5 && strings.Contains(password, phone) {
		problems = append(problems, msgPasswordSimilar)
	}

	if len(problems) == 0 {
		return nil
	}
	return apperrors.Field(field, strings.Join(problems, " "))
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var commonPasswords = []string{
	"password", "password1", "password123", "passw0rd", "12345678", "123456789",
	"1234567890", "qwerty", "qwerty123", "qwertyuiop", "11111111", "00000000",
	"abc12345", "abcd1234", "iloveyou", "admin123", "welcome", "welcome1",
	"letmein", "sunshine", "football", "baseball", "monkey123", "dragon123",
	"trustno1", "superman", "starwars", "princess", "whatever", "1q2w3e4r",
	"zaq12wsx", "asdfghjk", "asdfasdf", "mypassword", "changeme", "secret123",
}
