package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnusablePasswordPrefix marks a password hash that can never verify.
const UnusablePasswordPrefix = "!"

// User is a customer identity. Registered users own their phone number and
// email; guest users are created at checkout and may duplicate anything.
type User struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PhoneNumber string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_users_registered_phone,where:is_guest = false" json:"phone_number"`
	FirstName   string     `gorm:"type:varchar(64);not null" json:"first_name"`
	SecondName  string     `gorm:"type:varchar(64);not null" json:"second_name"`
	Street      string     `gorm:"type:varchar(64);not null" json:"street"`
	House       string     `gorm:"type:varchar(64);not null" json:"house"`
	Apartment   string     `gorm:"type:varchar(64);not null;default:''" json:"apartment"`
	Email       *string    `gorm:"type:varchar(255);uniqueIndex:idx_users_registered_email,where:is_guest = false" json:"email,omitempty"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	Password    string     `gorm:"type:varchar(128);not null" json:"-"`
	IsActive    bool       `gorm:"not null" json:"is_active"`
	IsAdmin     bool       `gorm:"not null" json:"is_admin"`
	IsGuest     bool       `gorm:"not null;index" json:"is_guest"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// FullName returns "First Second".
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.SecondName)
}

// ShortName returns "First S.".
func (u *User) ShortName() string {
	if u.SecondName == "" {
		return u.FirstName
	}
	initial := []rune(u.SecondName)[0]
	return u.FirstName + " " + string(initial) + "."
}

// IsStaff reports whether the user may use the admin endpoints.
func (u *User) IsStaff() bool {
	return u.IsAdmin
}

func (u *User) HasUsablePassword() bool {
	return u.Password != "" && !strings.HasPrefix(u.Password, UnusablePasswordPrefix)
}

// EmailValue returns the email or "" when unset.
func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Role is the role claim carried by auth tokens.
func (u *User) Role() string {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleCustomer
}

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// ContactDetails are the fields shared by registration, profile update and
// the anonymous checkout form.
type ContactDetails struct {
	PhoneNumber string `json:"phone_number" form:"phone_number" binding:"required,phone"`
	FirstName   string `json:"first_name" form:"first_name" binding:"required,max=64"`
	SecondName  string `json:"second_name" form:"second_name" binding:"required,max=64"`
	Street      string `json:"street" form:"street" binding:"required,max=64"`
	House       string `json:"house" form:"house" binding:"required,max=64"`
	Apartment   string `json:"apartment" form:"apartment" binding:"max=64"`
	Email       string `json:"email" form:"email" binding:"omitempty,email,max=255"`
}

// RegisterRequest is the payload of POST /accounts/register/.
type RegisterRequest struct {
	ContactDetails
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Password1   string `json:"password1" form:"password1" binding:"required"`
	Password2   string `json:"password2" form:"password2" binding:"required"`
}

// LoginRequest accepts a phone number or an email as the identifier.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// ProfileUpdateRequest is the payload of POST /accounts/profile/.
type ProfileUpdateRequest struct {
	ContactDetails
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
}

// PasswordChangeRequest is the payload of POST /accounts/password_change/.
type PasswordChangeRequest struct {
	OldPassword  string `json:"old_password" form:"old_password" binding:"required"`
	NewPassword1 string `json:"new_password1" form:"new_password1" binding:"required"`
	NewPassword2 string `json:"new_password2" form:"new_password2" binding:"required"`
}

// NewUser holds already-validated input for user creation.
type NewUser struct {
	PhoneNumber string
	Password    string
	FirstName   string
	SecondName  string
	Street      string
	House       string
	Apartment   string
	Email       string
	DateOfBirth *time.Time
	IsAdmin     bool
}
