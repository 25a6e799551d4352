package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow-api/internal/logging"
	"github.com/taskflowhq/taskflow-api/internal/user"
)

// --- fakes ---

type fakeUserStore struct {
	byEmail   map[string]*user.User
	linkCalls int
	getErr    error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*user.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, newUser *user.User) (*user.User, error) {
	if _, exists := f.byEmail[newUser.Email]; exists {
		return nil, user.ErrDuplicateEmail
	}
	stored := *newUser
	stored.ID = uuid.New()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.byEmail[stored.Email] = &stored
	return &stored, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) LinkGoogleAccount(ctx context.Context, userID uuid.UUID, googleID, imageURL string) error {
	f.linkCalls++
	for _, u := range f.byEmail {
		if u.ID == userID {
			u.GoogleID = &googleID
			u.ImageURL = &imageURL
			return nil
		}
	}
	return user.ErrNotFound
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	tokens, err := NewPasetoService(testPasetoKey())
	require.NoError(t, err)
	return NewService(store, tokens, logging.NewLogger(true), time.Hour)
}

// --- signup ---

func TestSignup(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	created, err := svc.Signup(context.Background(), "Ann", "Ann@X.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "Ann", created.Name)
	assert.Equal(t, "ann@x.com", created.Email, "email must be stored lower-cased")
	require.NotNil(t, created.PasswordHash)
	assert.NotEqual(t, "secret1", *created.PasswordHash, "raw password must never be stored")
	assert.NotEqual(t, uuid.Nil, created.ID)
}

func TestSignupDuplicateEmailCaseInsensitive(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	_, err := svc.Signup(context.Background(), "Ann", "Ann@X.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "Other Ann", "ann@x.com", "other12")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestSignupValidation(t *testing.T) {
	testCases := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{"missing name", "", "ann@x.com", "secret1", ErrNameRequired},
		{"whitespace name", "   ", "ann@x.com", "secret1", ErrNameRequired},
		{"missing email", "Ann", "", "secret1", ErrEmailRequired},
		{"malformed email", "Ann", "not-an-email", "secret1", ErrInvalidEmailFormat},
		{"missing password", "Ann", "ann@x.com", "", ErrPasswordRequired},
		{"short password", "Ann", "ann@x.com", "12345", ErrPasswordTooShort},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeUserStore()
			svc := newTestService(t, store)

			_, err := svc.Signup(context.Background(), tc.userName, tc.email, tc.password)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, store.byEmail, "validation failures must not reach the store")
		})
	}
}

// --- login ---

func TestLogin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	created, err := svc.Signup(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	token, loggedIn, err := svc.Login(context.Background(), "Ann@X.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, created.ID, loggedIn.ID)
}

func TestLoginUniformFailure(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	_, err := svc.Signup(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	// An OAuth-only account has no password hash
	googleID := "google-123"
	_, err = store.Create(context.Background(), &user.User{
		Name:     "Bob",
		Email:    "bob@x.com",
		GoogleID: &googleID,
	})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown user", "nobody@x.com", "secret1"},
		{"wrong password", "ann@x.com", "wrong-password"},
		{"oauth-only account", "bob@x.com", "secret1"},
		{"empty password", "ann@x.com", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.email, tc.password)
			// Always the same error: no existence leakage
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

// --- google sign-in ---

func TestGoogleSignInCreatesNewUser(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	token, signedIn, err := svc.GoogleSignIn(context.Background(), &GoogleProfile{
		Subject: "google-123",
		Email:   "Ann@X.com",
		Name:    "Ann",
		Picture: "http://example.com/a.png",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, token)
	assert.Equal(t, "ann@x.com", signedIn.Email)
	require.NotNil(t, signedIn.GoogleID)
	assert.Equal(t, "google-123", *signedIn.GoogleID)
	assert.Nil(t, signedIn.PasswordHash)
}

func TestGoogleSignInLinksExistingPasswordAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	created, err := svc.Signup(context.Background(), "Ann", "ann@x.com", "secret1")
	require.NoError(t, err)

	_, signedIn, err := svc.GoogleSignIn(context.Background(), &GoogleProfile{
		Subject: "google-123",
		Email:   "ann@x.com",
		Name:    "Ann",
		Picture: "http://example.com/a.png",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, signedIn.ID, "linking must not create a second account")
	require.NotNil(t, signedIn.GoogleID)
	assert.Equal(t, "google-123", *signedIn.GoogleID)
	assert.Equal(t, 1, store.linkCalls)

	// The password path must keep working after the link
	_, _, err = svc.Login(context.Background(), "ann@x.com", "secret1")
	assert.NoError(t, err)
}

func TestGoogleSignInAlreadyLinkedIsIdempotent(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(t, store)

	_, first, err := svc.GoogleSignIn(context.Background(), &GoogleProfile{
		Subject: "google-123",
		Email:   "ann@x.com",
		Name:    "Ann",
	})
	require.NoError(t, err)

	_, second, err := svc.GoogleSignIn(context.Background(), &GoogleProfile{
		Subject: "google-123",
		Email:   "ann@x.com",
		Name:    "Ann",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 0, store.linkCalls, "an already linked account must not be mutated")
}
