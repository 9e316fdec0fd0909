package services

import (
	"context"
	"strings"
	"time"

	"github.com/LeeRude11/delivery/apperrors"
	"github.com/LeeRude11/delivery/models"
	aws_pkg "github.com/LeeRude11/delivery/pkg/aws"
	"github.com/LeeRude11/delivery/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountService defines registration, authentication and profile logic.
type AccountService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error)
	CreateGuestUser(ctx context.Context, contact models.ContactDetails) (*models.User, error)
	EnsureAdmin(ctx context.Context, phone, password string) (*models.User, error)
	Authenticate(ctx context.Context, identifier, password string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User, req *models.ProfileUpdateRequest) (*models.User, error)
	ChangePassword(ctx context.Context, user *models.User, req *models.PasswordChangeRequest) (*models.User, error)
}

type accountServiceImpl struct {
	store     repository.Store
	passwords *PasswordValidator
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(store repository.Store, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) AccountService {
	return &accountServiceImpl{
		store:     store,
		passwords: NewPasswordValidator(),
		metrics:   metrics,
		logger:    logger,
	}
}

// Register validates the registration form and creates a registered user.
func (s *accountServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if req.Password1 != req.Password2 {
		return nil, apperrors.ErrPasswordMismatch
	}
	if err := s.passwords.Validate("password2", req.Password1, NormalizePhone(req.PhoneNumber)); err != nil {
		return nil, err
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	nu := newUserFromContact(req.ContactDetails)
	nu.Password = req.Password1
	nu.DateOfBirth = dob

	user, err := s.CreateUser(ctx, nu)
	if err != nil {
		return nil, err
	}
	recordAsync(s.metrics, aws_pkg.MetricUsersRegistered, nil)
	return user, nil
}

// CreateUser creates a registered user, enforcing contact uniqueness among
// registered users.
func (s *accountServiceImpl) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	var user *models.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		user, err = createUser(ctx, tx.Users(), nu, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// CreateGuestUser creates an unauthenticatable user for an anonymous checkout.
func (s *accountServiceImpl) CreateGuestUser(ctx context.Context, contact models.ContactDetails) (*models.User, error) {
	return createUser(ctx, s.store.Users(), newUserFromContact(contact), true)
}

// EnsureAdmin creates the bootstrap admin, or promotes the registered user
// that already owns phone.
func (s *accountServiceImpl) EnsureAdmin(ctx context.Context, phone, password string) (*models.User, error) {
	normalized := NormalizePhone(phone)
	existing, err := s.store.Users().FindRegisteredByContact(ctx, normalized, "")
	switch {
	case err == nil:
		if existing.IsAdmin {
			return existing, nil
		}
		existing.IsAdmin = true
		if err := s.store.Users().Update(ctx, existing); err != nil {
			return nil, err
		}
		s.logger.Info("Promoted user to admin", zap.String("user_id", existing.ID.String()))
		return existing, nil
	case !repository.IsNotFound(err):
		return nil, err
	}

	return s.CreateUser(ctx, models.NewUser{
		PhoneNumber: phone,
		Password:    password,
		FirstName:   "Admin",
		SecondName:  "Admin",
		Street:      "-",
		House:       "-",
		IsAdmin:     true,
	})
}

// Authenticate looks a registered user up by phone or email and checks the
// password. Guest users never authenticate.
func (s *accountServiceImpl) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	phone, email := ParseIdentifier(identifier)

	user, err := s.store.Users().FindRegisteredByContact(ctx, phone, email)
	if err != nil {
		if repository.IsNotFound(err) {
			recordAsync(s.metrics, aws_pkg.MetricLoginFailures, nil)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !checkPassword(user, password) {
		recordAsync(s.metrics, aws_pkg.MetricLoginFailures, nil)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrInactiveAccount
	}
	return user, nil
}

func (s *accountServiceImpl) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile applies the profile form to a registered user.
func (s *accountServiceImpl) UpdateProfile(ctx context.Context, user *models.User, req *models.ProfileUpdateRequest) (*models.User, error) {
	if user.IsGuest {
		return nil, apperrors.ErrForbidden
	}
	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	updated := *user
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := applyContact(ctx, tx.Users(), &updated, req.ContactDetails); err != nil {
			return err
		}
		updated.DateOfBirth = dob
		return tx.Users().Update(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ChangePassword verifies the old password and stores the new one.
func (s *accountServiceImpl) ChangePassword(ctx context.Context, user *models.User, req *models.PasswordChangeRequest) (*models.User, error) {
	if !checkPassword(user, req.OldPassword) {
		return nil, apperrors.ErrWrongOldPassword
	}
	if req.NewPassword1 != req.NewPassword2 {
		return nil, apperrors.Field("new_password2", "The two password fields didn't match.")
	}
	if err := s.passwords.Validate("new_password2", req.NewPassword1, user.PhoneNumber); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.NewPassword1)
	if err != nil {
		return nil, err
	}
	updated := *user
	updated.Password = hash
	if err := s.store.Users().Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.logger.Info("Password changed", zap.String("user_id", user.ID.String()))
	return &updated, nil
}

// createUser is shared by registration and checkout so both run the same
// rules inside whatever transaction users is bound to.
func createUser(ctx context.Context, users repository.UserRepository, nu models.NewUser, guest bool) (*models.User, error) {
	phone := NormalizePhone(nu.PhoneNumber)
	if phone == "" {
		return nil, apperrors.ErrMissingPhoneNumber
	}
	email := NormalizeEmail(nu.Email)

	var password string
	if guest {
		password = models.UnusablePasswordPrefix + uuid.NewString()
	} else {
		if nu.Password == "" {
			return nil, apperrors.ErrMissingPassword
		}
		if err := checkContactFree(ctx, users, phone, email, uuid.Nil); err != nil {
			return nil, err
		}
		hash, err := hashPassword(nu.Password)
		if err != nil {
			return nil, err
		}
		password = hash
	}

	user := &models.User{
		PhoneNumber: phone,
		FirstName:   strings.TrimSpace(nu.FirstName),
		SecondName:  strings.TrimSpace(nu.SecondName),
		Street:      strings.TrimSpace(nu.Street),
		House:       strings.TrimSpace(nu.House),
		Apartment:   strings.TrimSpace(nu.Apartment),
		DateOfBirth: nu.DateOfBirth,
		Password:    password,
		IsActive:    true,
		IsAdmin:     nu.IsAdmin && !guest,
		IsGuest:     guest,
	}
	if email != "" {
		user.Email = &email
	}

	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// applyContact copies normalized contact details onto a registered user,
// checking uniqueness against everyone but the user itself.
func applyContact(ctx context.Context, users repository.UserRepository, user *models.User, contact models.ContactDetails) error {
	phone := NormalizePhone(contact.PhoneNumber)
	if phone == "" {
		return apperrors.ErrMissingPhoneNumber
	}
	email := NormalizeEmail(contact.Email)
	if err := checkContactFree(ctx, users, phone, email, user.ID); err != nil {
		return err
	}

	user.PhoneNumber = phone
	user.FirstName = strings.TrimSpace(contact.FirstName)
	user.SecondName = strings.TrimSpace(contact.SecondName)
	user.Street = strings.TrimSpace(contact.Street)
	user.House = strings.TrimSpace(contact.House)
	user.Apartment = strings.TrimSpace(contact.Apartment)
	if email != "" {
		user.Email = &email
	} else {
		user.Email = nil
	}
	return nil
}

func checkContactFree(ctx context.Context, users repository.UserRepository, phone, email string, exclude uuid.UUID) error {
	if email != "" {
		taken, err := users.EmailTaken(ctx, email, exclude)
		if err != nil {
			return err
		}
		if taken {
			return apperrors.ErrDuplicateEmail
		}
	}
	taken, err := users.PhoneTaken(ctx, phone, exclude)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.ErrDuplicatePhone
	}
	return nil
}

func newUserFromContact(c models.ContactDetails) models.NewUser {
	return models.NewUser{
		PhoneNumber: c.PhoneNumber,
		FirstName:   c.FirstName,
		SecondName:  c.SecondName,
		Street:      c.Street,
		House:       c.House,
		Apartment:   c.Apartment,
		Email:       c.Email,
	}
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperrors.ErrInternalServer.Wrap(err)
	}
	return string(hash), nil
}

func checkPassword(user *models.User, password string) bool {
	if !user.HasUsablePassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, apperrors.Field("date_of_birth", "Enter a valid date.")
	}
	return &t, nil
}
