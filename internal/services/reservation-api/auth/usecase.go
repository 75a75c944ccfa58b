package auth

import (
	"context"
	"errors"
	"fmt"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer is the issuing half of the token codec.
type TokenIssuer interface {
	Issue(subject string, extra map[string]any) (string, error)
}

// Authenticator checks an email/password pair and issues an access token.
// It keeps no state between calls.
type Authenticator struct {
	users  user.CredentialStore
	hasher coreauth.PasswordHasher
	tokens TokenIssuer
	log    *zap.Logger

	// dummyHash is verified against when the email is unknown so that both
	// failure paths cost one hash comparison.
	dummyHash string
}

func NewAuthenticator(users user.CredentialStore, hasher coreauth.PasswordHasher, tokens TokenIssuer, log *zap.Logger) (*Authenticator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Authenticator{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		log:       log.With(zap.String("component", "auth.authenticator")),
		dummyHash: dummy,
	}, nil
}

// Login returns a signed token for the user. Unknown email and wrong
// password both yield coreauth.ErrInvalidCredentials.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, error) {
	u, err := a.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, user.ErrNotFound):
		a.hasher.Verify(password, a.dummyHash)
		a.log.Info("login failed", zap.String("email", email), zap.String("reason", "unknown_email"))
		loginTotal.WithLabelValues("invalid_credentials").Inc()
		return "", coreauth.ErrInvalidCredentials
	case err != nil:
		loginTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("load credentials: %w", err)
	}

	if !a.hasher.Verify(password, u.Password) {
		a.log.Info("login failed", zap.String("email", email), zap.String("reason", "bad_password"))
		loginTotal.WithLabelValues("invalid_credentials").Inc()
		return "", coreauth.ErrInvalidCredentials
	}

	token, err := a.tokens.Issue(u.Email, nil)
	if err != nil {
		loginTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("issue token: %w", err)
	}

	a.log.Info("login succeeded",
		zap.String("email", u.Email),
		zap.String("authority", coreauth.Authority(u.Role)),
	)
	loginTotal.WithLabelValues("ok").Inc()
	return token, nil
}
