package session

import (
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Describe reports what the renderer may show about a stored token.
// JWT-shaped tokens are decoded without verification (the remote API is the
// verifier); opaque tokens only report that a session exists.
func Describe(token string, ok bool, now time.Time) domain.SessionInfo {
	if !ok || token == "" {
		return domain.SessionInfo{}
	}

	info := domain.SessionInfo{Authenticated: true}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return info
	}

	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		info.Subject = sub
	} else if id, ok := claims["id"].(string); ok {
		info.Subject = id
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time.UTC().Format(time.RFC3339)
		info.Expired = now.After(exp.Time)
	}
	return info
}
