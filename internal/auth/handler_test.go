package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskflowhq/taskflow-api/internal/httputil"
	"github.com/taskflowhq/taskflow-api/internal/logging"
)

type noopLimiter struct{}

func (noopLimiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return false, nil
}

func (noopLimiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	return nil
}

type exceededLimiter struct{ noopLimiter }

func (exceededLimiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return true, nil
}

type fakeGoogle struct {
	profile *GoogleProfile
	err     error
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(ctx context.Context, code, redirectURI string) (*GoogleProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

func newTestHandler(t *testing.T, store UserStore, google GoogleExchanger) *Handler {
	t.Helper()
	svc := newTestService(t, store)
	return NewHandler(svc, google, noopLimiter{}, logging.NewLogger(true), false, time.Hour)
}

func postJSON(handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorResponse {
	t.Helper()
	var resp httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestSignupHandler(t *testing.T) {
	h := newTestHandler(t, newFakeUserStore(), &fakeGoogle{})

	rec := postJSON(h.Signup, "/signup", SignupRequest{Name: "Ann", Email: "Ann@X.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SignupResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.UserID)
}

func TestSignupHandlerDuplicate(t *testing.T) {
	h := newTestHandler(t, newFakeUserStore(), &fakeGoogle{})

	rec := postJSON(h.Signup, "/signup", SignupRequest{Name: "Ann", Email: "Ann@X.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same email, different case
	rec = postJSON(h.Signup, "/signup", SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "other12"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeDuplicateEmail, decodeError(t, rec).Code)
}

func TestSignupHandlerValidation(t *testing.T) {
	testCases := []struct {
		name     string
		body     SignupRequest
		wantCode string
	}{
		{"missing name", SignupRequest{Email: "ann@x.com", Password: "secret1"}, httputil.CodeNameRequired},
		{"missing email", SignupRequest{Name: "Ann", Password: "secret1"}, httputil.CodeEmailRequired},
		{"missing password", SignupRequest{Name: "Ann", Email: "ann@x.com"}, httputil.CodePasswordRequired},
		{"short password", SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "12345"}, httputil.CodePasswordTooShort},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, newFakeUserStore(), &fakeGoogle{})
			rec := postJSON(h.Signup, "/signup", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestSignupHandlerRateLimited(t *testing.T) {
	svc := newTestService(t, newFakeUserStore())
	h := NewHandler(svc, &fakeGoogle{}, exceededLimiter{}, logging.NewLogger(true), false, time.Hour)

	rec := postJSON(h.Signup, "/signup", SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeTooManyRequests, decodeError(t, rec).Code)
}

func TestLoginHandler(t *testing.T) {
	store := newFakeUserStore()
	h := newTestHandler(t, store, &fakeGoogle{})

	rec := postJSON(h.Signup, "/signup", SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Non-browser client: token in the body
	rec = postJSON(h.Login, "/auth/login", LoginRequest{Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "ann@x.com", resp.User.Email)
}

func TestLoginHandlerSetsCookieForBrowser(t *testing.T) {
	store := newFakeUserStore()
	h := newTestHandler(t, store, &fakeGoogle{})

	rec := postJSON(h.Signup, "/signup", SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	raw, _ := json.Marshal(LoginRequest{Email: "ann@x.com", Password: "secret1"})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(raw))
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.NotEmpty(t, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLoginHandlerInvalidCredentials(t *testing.T) {
	store := newFakeUserStore()
	h := newTestHandler(t, store, &fakeGoogle{})

	rec := postJSON(h.Signup, "/signup", SignupRequest{Name: "Ann", Email: "ann@x.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	for _, body := range []LoginRequest{
		{Email: "ann@x.com", Password: "wrong"},
		{Email: "nobody@x.com", Password: "secret1"},
	} {
		rec = postJSON(h.Login, "/auth/login", body)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, httputil.CodeInvalidCredentials, decodeError(t, rec).Code)
	}
}

func TestGoogleURLHandler(t *testing.T) {
	h := newTestHandler(t, newFakeUserStore(), &fakeGoogle{})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/url", nil)
	rec := httptest.NewRecorder()
	h.GoogleURL(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp GoogleURLResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.State)
	assert.Contains(t, resp.AuthURL, resp.State)
}

func TestGoogleSignInHandler(t *testing.T) {
	store := newFakeUserStore()
	google := &fakeGoogle{profile: &GoogleProfile{
		Subject: "google-123",
		Email:   "ann@x.com",
		Name:    "Ann",
		Picture: "http://example.com/a.png",
	}}
	h := newTestHandler(t, store, google)

	rec := postJSON(h.GoogleSignIn, "/auth/google", GoogleSignInRequest{Code: "auth-code"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)

	stored, err := store.GetByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.GoogleID)
	assert.Equal(t, "google-123", *stored.GoogleID)
}

func TestGoogleSignInHandlerMissingCode(t *testing.T) {
	h := newTestHandler(t, newFakeUserStore(), &fakeGoogle{})

	rec := postJSON(h.GoogleSignIn, "/auth/google", GoogleSignInRequest{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeValidationError, decodeError(t, rec).Code)
}

func TestLogoutHandlerClearsCookie(t *testing.T) {
	h := newTestHandler(t, newFakeUserStore(), &fakeGoogle{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
