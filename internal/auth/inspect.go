package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from a credential without verifying it.
type TokenInfo struct {
	// Opaque is true when the credential is not a JWT.
	Opaque    bool
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	UserID any    `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes JWT claims from token. The signature is not checked; the
// result is for display only.
func Inspect(token string) TokenInfo {
	var claims tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{Opaque: true}
	}
	info := TokenInfo{Subject: claims.Subject, Role: claims.Role}
	if info.Subject == "" && claims.UserID != nil {
		info.Subject = jsonScalar(claims.UserID)
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// ExpiresIn returns the time left before expiry. ok is false when the
// expiry is unknown.
func (i TokenInfo) ExpiresIn(now time.Time) (left time.Duration, ok bool) {
	if i.ExpiresAt.IsZero() {
		return 0, false
	}
	return i.ExpiresAt.Sub(now), true
}

// Expired reports whether a known expiry has passed.
func (i TokenInfo) Expired(now time.Time) bool {
	left, ok := i.ExpiresIn(now)
	return ok && left <= 0
}

func jsonScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
