// Package auth handles account registration, credential checks, and the
// signed session tokens the web layer stores in a cookie.
package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nording/breathe/internal/domain"
	"github.com/nording/breathe/internal/storage"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBadToken           = errors.New("invalid session token")
)

const bcryptCost = 12

// specialChars are the characters that satisfy the password policy's
// special-character requirement.
const specialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

type Service struct {
	users storage.UserStore
}

func NewService(users storage.UserStore) *Service {
	return &Service{users: users}
}

// Register creates an account for a normalized lowercase email. The user's
// stats and preferences rows are provisioned in the same transaction.
func (s *Service) Register(email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(user, domain.DefaultPreferences(user.ID)); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Authenticate verifies a credential pair. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Authenticate(email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.UserByEmail(email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UserByID loads the account behind a verified session token.
func (s *Service) UserByID(id string) (*domain.User, error) {
	return s.users.UserByID(id)
}

// ValidatePassword enforces the signup policy: at least 8 characters with at
// least one digit and one special character. The upper bound is bcrypt's
// 72-byte input limit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrInvalidInput)
	}
	if len(password) > 72 {
		return fmt.Errorf("%w: password must be at most 72 characters", domain.ErrInvalidInput)
	}

	var hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	if !hasDigit {
		return fmt.Errorf("%w: password must contain a digit", domain.ErrInvalidInput)
	}
	if !hasSpecial {
		return fmt.Errorf("%w: password must contain a special character", domain.ErrInvalidInput)
	}
	return nil
}
