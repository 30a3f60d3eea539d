package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the client can read from its own token. Nothing here is
// verified; the backend stays the authority.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

type tokenClaims struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes a JWT without checking its signature. Opaque tokens
// return an error and should simply be displayed as-is.
func Inspect(token string) (Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("inspect token: %w", err)
	}
	c := Claims{Subject: tc.Subject, Role: tc.Role}
	if c.Subject == "" {
		c.Subject = tc.Username
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}
