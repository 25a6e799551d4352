package auth

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/taskflowhq/taskflow-api/internal/httputil"
	"github.com/taskflowhq/taskflow-api/internal/logging"
	"github.com/taskflowhq/taskflow-api/internal/user"
)

// Handler contains HTTP handlers for the account and session endpoints
type Handler struct {
	service         *Service
	google          GoogleExchanger
	rateLimiter     IPLimiter
	logger          *logging.Logger
	isProduction    bool
	sessionDuration time.Duration
}

func NewHandler(service *Service, google GoogleExchanger, rateLimiter IPLimiter, logger *logging.Logger, isProduction bool, sessionDuration time.Duration) *Handler {
	return &Handler{
		service:         service,
		google:          google,
		rateLimiter:     rateLimiter,
		logger:          logger,
		isProduction:    isProduction,
		sessionDuration: sessionDuration,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned to non-browser clients that carry the token themselves
type LoginResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// GoogleSignInRequest represents the Google code-exchange request body
type GoogleSignInRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

// GoogleURLResponse carries the provider authorization URL and state
type GoogleURLResponse struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// Signup handles account registration
// @Summary      Register a new account
// @Description  Create a password-based account. Email is case-insensitive and globally unique.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Signup fields"
// @Success      201 {object} SignupResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or duplicate email"
// @Failure      429 {object} httputil.ErrorResponse "Rate limited"
// @Failure      500 {object} httputil.ErrorResponse "Store failure"
// @Router       /signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "signup")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for signup", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "signup"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "user with this email already exists", httputil.CodeDuplicateEmail, http.StatusBadRequest)
		case errors.Is(err, ErrNameRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeNameRequired, http.StatusBadRequest)
		case errors.Is(err, ErrEmailRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmail, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			h.respondInternal(w, "failed to create account", err)
		}
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)

	httputil.RespondJSON(w, SignupResponse{
		UserID:  newUser.ID.String(),
		Message: "User created successfully",
	}, http.StatusCreated)
}

// Login handles password sign-in
// @Summary      Sign in with email and password
// @Description  Issues a session token, delivered as an httpOnly cookie for browser clients
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} LoginResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Rate limited"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := getClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "login")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for login", "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	// Record IP request for rate limiting
	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	token, loggedIn, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		h.respondInternal(w, "failed to login", err)
		return
	}

	logger.Info("user logged in successfully", "user_id", loggedIn.ID)

	h.respondWithSession(w, r, token, loggedIn)
}

// GoogleURL returns the provider authorization URL with a fresh state
// @Summary      Get the Google authorization URL
// @Tags         auth
// @Produce      json
// @Success      200 {object} GoogleURLResponse
// @Router       /auth/google/url [get]
func (h *Handler) GoogleURL(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	state, err := generateRandomToken()
	if err != nil {
		logger.Error("failed to generate oauth state", "error", err.Error())
		h.respondInternal(w, "failed to start google sign-in", err)
		return
	}

	httputil.RespondJSON(w, GoogleURLResponse{
		AuthURL: h.google.AuthCodeURL(state),
		State:   state,
	}, http.StatusOK)
}

// GoogleSignIn handles the Google code exchange and identity merge
// @Summary      Sign in with Google
// @Description  Exchange an authorization code for a session. First sign-in creates or links the account by email.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body GoogleSignInRequest true "Authorization code"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing or unusable code"
// @Router       /auth/google [post]
func (h *Handler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req GoogleSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid google sign-in request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if req.Code == "" {
		httputil.RespondErrorWithCode(w, "authorization code is required", httputil.CodeValidationError, http.StatusBadRequest)
		return
	}

	profile, err := h.google.Exchange(r.Context(), req.Code, req.RedirectURI)
	if err != nil {
		logger.Warn("google code exchange failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to verify google sign-in", httputil.CodeOAuthExchangeFailed, http.StatusBadRequest)
		return
	}

	token, signedIn, err := h.service.GoogleSignIn(r.Context(), profile)
	if err != nil {
		logger.Error("google sign-in failed: internal error", "error", err.Error())
		h.respondInternal(w, "failed to complete google sign-in", err)
		return
	}

	logger.Info("user signed in via google", "user_id", signedIn.ID)

	h.respondWithSession(w, r, token, signedIn)
}

// Logout clears the session cookie
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ClearSessionCookie(w, h.isProduction)
	httputil.RespondJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

// Me returns the hydrated current user
// @Summary      Get the current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]any
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Router       /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := GetUserFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	httputil.RespondJSON(w, map[string]any{"user": currentUser}, http.StatusOK)
}

// respondWithSession delivers the session as a cookie for browsers and as a
// token body for everything else
func (h *Handler) respondWithSession(w http.ResponseWriter, r *http.Request, token string, u *user.User) {
	if ShouldUseCookies(r) {
		SetSessionCookie(w, token, h.isProduction, h.sessionDuration)
		httputil.RespondJSON(w, map[string]any{
			"message": "logged in successfully",
			"user":    u,
		}, http.StatusOK)
		return
	}

	httputil.RespondJSON(w, LoginResponse{Token: token, User: u}, http.StatusOK)
}

// respondInternal returns a 500 with diagnostic detail outside production
func (h *Handler) respondInternal(w http.ResponseWriter, message string, err error) {
	detail := ""
	if !h.isProduction {
		detail = err.Error()
	}
	httputil.RespondErrorWithDetail(w, message, httputil.CodeInternalError, detail, http.StatusInternalServerError)
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
