package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/taskflowhq/taskflow-api/internal/logging"
	"github.com/taskflowhq/taskflow-api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNameRequired       = errors.New("name is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
)

// minPasswordLen is the minimum raw password length accepted at signup
const minPasswordLen = 6

// Service handles authentication and identity business logic.
// It is the only component bridging the password path and the Google path:
// both produce the same session token over the same user record.
type Service struct {
	users           UserStore
	tokens          TokenService
	logger          *logging.Logger
	sessionDuration time.Duration
}

func NewService(users UserStore, tokens TokenService, logger *logging.Logger, sessionDuration time.Duration) *Service {
	return &Service{
		users:           users,
		tokens:          tokens,
		logger:          logger,
		sessionDuration: sessionDuration,
	}
}

// Signup creates a new password-based account. The password is hashed here,
// before persistence; the store never sees the raw value. The duplicate
// pre-check is best effort only - the store's unique constraint is the
// final authority and a late violation maps to the same error.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*user.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}

	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	// Early duplicate check so most duplicates fail before the expensive hash
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, &user.User{
		Name:         name,
		Email:        email,
		PasswordHash: &passwordHash,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return newUser, nil
}

// Login verifies password credentials and issues a session token.
// Every failure mode returns the same ErrInvalidCredentials so the
// response never reveals whether the account exists.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !existingUser.HasPassword() {
		return "", nil, ErrInvalidCredentials
	}

	if !verifyPassword(*existingUser.PasswordHash, password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(existingUser)
	if err != nil {
		return "", nil, err
	}

	return token, existingUser, nil
}

// GoogleSignIn reconciles a verified Google profile with the user store
// and issues a session token. Merge rules:
//   - no account with that email: create one carrying the Google identity
//   - account without a Google id: link it, preserving any password
//   - account already linked: no mutation
func (s *Service) GoogleSignIn(ctx context.Context, profile *GoogleProfile) (string, *user.User, error) {
	email := normalizeEmail(profile.Email)
	if email == "" {
		return "", nil, ErrEmailRequired
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		existingUser, err = s.users.Create(ctx, &user.User{
			Name:     profile.Name,
			Email:    email,
			GoogleID: &profile.Subject,
			ImageURL: &profile.Picture,
		})
		if err != nil {
			return "", nil, fmt.Errorf("failed to create user from google profile: %w", err)
		}
		s.logger.Info("user created via google sign-in", "user_id", existingUser.ID)

	case err != nil:
		return "", nil, fmt.Errorf("failed to get user: %w", err)

	case existingUser.GoogleID == nil:
		if err := s.users.LinkGoogleAccount(ctx, existingUser.ID, profile.Subject, profile.Picture); err != nil {
			return "", nil, fmt.Errorf("failed to link google account: %w", err)
		}
		existingUser.GoogleID = &profile.Subject
		existingUser.ImageURL = &profile.Picture
		s.logger.Info("google identity linked to existing account", "user_id", existingUser.ID)
	}

	token, err := s.issueToken(existingUser)
	if err != nil {
		return "", nil, err
	}

	return token, existingUser, nil
}

// issueToken creates a session token carrying the user's email plus
// denormalized display fields
func (s *Service) issueToken(u *user.User) (string, error) {
	imageURL := ""
	if u.ImageURL != nil {
		imageURL = *u.ImageURL
	}

	token, err := s.tokens.CreateToken(u.ID, u.Email, u.Name, imageURL, s.sessionDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}

	return token, nil
}

// normalizeEmail lower-cases and trims; emails are case-insensitive keys
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
