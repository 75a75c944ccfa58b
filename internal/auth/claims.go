package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaim is the decoded, verified payload of an access token.
type IdentityClaim struct {
	Subject    string
	IssuedAt   time.Time
	Expiration time.Time
	ID         string
	Extra      map[string]any
}

// accessClaims is the wire form: registered claims plus optional extras.
type accessClaims struct {
	Extra map[string]any `json:"ext,omitempty"`
	jwt.RegisteredClaims
}

func (c *accessClaims) toIdentity() *IdentityClaim {
	out := &IdentityClaim{
		Subject: c.Subject,
		ID:      c.ID,
		Extra:   c.Extra,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.Expiration = c.ExpiresAt.Time
	}
	return out
}
