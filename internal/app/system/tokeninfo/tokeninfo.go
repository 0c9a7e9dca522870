// Package tokeninfo reads metadata from bearer tokens without trusting them.
//
// The backend issues JWTs; this process never verifies their signature
// (the backend does that on every call). The only thing read here is the
// exp claim, so the session cookie does not outlive the token it carries.
package tokeninfo

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expiry returns the token's exp claim. ok is false for opaque tokens,
// malformed JWTs, or JWTs without exp.
func Expiry(token string) (exp time.Time, ok bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	nd, err := claims.GetExpirationTime()
	if err != nil || nd == nil {
		return time.Time{}, false
	}
	return nd.Time, true
}

// Subject returns the sub claim (the backend puts the user's email there), or "".
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// CookieMaxAge returns the cookie lifetime in seconds for token.
// A JWT caps the lifetime at its remaining validity; fallback applies otherwise.
// An already-expired JWT yields -1 (delete the cookie).
func CookieMaxAge(token string, fallback time.Duration, now time.Time) int {
	maxAge := int(fallback.Seconds())
	exp, ok := Expiry(token)
	if !ok {
		return maxAge
	}
	remaining := int(exp.Sub(now).Seconds())
	if remaining <= 0 {
		return -1
	}
	if maxAge <= 0 || remaining < maxAge {
		return remaining
	}
	return maxAge
}
