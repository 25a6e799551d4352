package auth

import (
	"errors"
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session token for browser clients
const SessionCookieName = "session_token"

var ErrNoSessionCookie = errors.New("session cookie not found")

// SetSessionCookie delivers the session token as an httpOnly cookie.
// Secure is only set in production so local HTTP development keeps working.
func SetSessionCookie(w http.ResponseWriter, token string, isProduction bool, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSessionTokenFromCookie reads the session token from the request cookie
func GetSessionTokenFromCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return "", ErrNoSessionCookie
	}
	return cookie.Value, nil
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(w http.ResponseWriter, isProduction bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// ShouldUseCookies reports whether the client is a browser that expects
// cookie delivery instead of a token in the response body
func ShouldUseCookies(r *http.Request) bool {
	if r.Header.Get("Origin") != "" {
		return true
	}
	_, err := r.Cookie(SessionCookieName)
	return err == nil
}
