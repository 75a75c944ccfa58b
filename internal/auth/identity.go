package auth

import (
	"context"
	"strings"
)

const authorityPrefix = "ROLE_"

// Identity is the request-scoped result of a validated bearer token.
type Identity struct {
	Email     string
	Authority string
	FromToken bool
}

// Authority maps a stored role to its authority string: "user" -> "ROLE_USER".
// A blank role has no authority and yields "".
func Authority(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" {
		return ""
	}
	return authorityPrefix + role
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, &id)
}

func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}
