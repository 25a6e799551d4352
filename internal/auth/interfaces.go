package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskflowhq/taskflow-api/internal/user"
)

// TokenService defines the interface for session token creation and validation.
// The default implementation is PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, email, name, imageURL string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore defines the user persistence operations the identity service needs
type UserStore interface {
	Create(ctx context.Context, newUser *user.User) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	LinkGoogleAccount(ctx context.Context, userID uuid.UUID, googleID, imageURL string) error
}

// IPLimiter defines the rate-limiting operations used on unauthenticated endpoints
type IPLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
}

// GoogleExchanger turns an OAuth authorization code into a verified Google profile
type GoogleExchanger interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code, redirectURI string) (*GoogleProfile, error)
}
