package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/NordCoder/Chateaux/internal/obs"
	"github.com/NordCoder/Chateaux/internal/services/reservation-api/httpx"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// TokenVerifier is the verifying half of the token codec.
type TokenVerifier interface {
	ExtractSubject(token string) (string, error)
	IsValid(token, expectedSubject string) bool
}

// Resolver attaches an identity to requests that carry a valid bearer
// token. It never rejects a request; that is left to the Policy.
type Resolver struct {
	tokens TokenVerifier
	users  user.CredentialStore
	log    *zap.Logger
}

func NewResolver(tokens TokenVerifier, users user.CredentialStore, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		tokens: tokens,
		users:  users,
		log:    log.With(zap.String("component", "auth.resolver")),
	}
}

// Resolve returns ctx with an identity attached, or ctx unchanged when the
// header does not lead to one.
func (r *Resolver) Resolve(ctx context.Context, authorization string) context.Context {
	if _, ok := coreauth.IdentityFromCtx(ctx); ok {
		resolveTotal.WithLabelValues("already_resolved").Inc()
		return ctx
	}
	if !strings.HasPrefix(authorization, bearerPrefix) {
		resolveTotal.WithLabelValues("no_header").Inc()
		return ctx
	}
	token := authorization[len(bearerPrefix):]
	log := obs.WithTrace(ctx, r.log)

	subject, err := r.tokens.ExtractSubject(token)
	switch {
	case errors.Is(err, coreauth.ErrExpiredToken):
		resolveTotal.WithLabelValues("expired_token").Inc()
		log.Debug("token expired")
		return ctx
	case errors.Is(err, coreauth.ErrInvalidToken):
		resolveTotal.WithLabelValues("invalid_token").Inc()
		log.Debug("token rejected", zap.Error(err))
		return ctx
	case err != nil:
		resolveTotal.WithLabelValues("anomaly").Inc()
		log.Warn("unexpected token decode failure", zap.Error(err))
		return ctx
	case subject == "":
		resolveTotal.WithLabelValues("invalid_token").Inc()
		return ctx
	}

	u, err := r.users.GetByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			resolveTotal.WithLabelValues("unknown_subject").Inc()
			log.Info("token subject no longer exists", zap.String("email", subject))
		} else {
			resolveTotal.WithLabelValues("anomaly").Inc()
			log.Error("credential lookup failed", zap.String("email", subject), zap.Error(err))
		}
		return ctx
	}

	if !r.tokens.IsValid(token, u.Email) {
		resolveTotal.WithLabelValues("subject_mismatch").Inc()
		log.Warn("token does not match stored subject", zap.String("email", subject))
		return ctx
	}

	authority := coreauth.Authority(u.Role)
	if authority == "" {
		resolveTotal.WithLabelValues("anomaly").Inc()
		log.Warn("stored user has blank role", zap.String("email", u.Email), zap.Int64("id", u.ID))
		return ctx
	}

	resolveTotal.WithLabelValues("resolved").Inc()
	return coreauth.WithIdentity(ctx, coreauth.Identity{
		Email:     u.Email,
		Authority: authority,
		FromToken: true,
	})
}

func (r *Resolver) Stage() httpx.Stage {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := r.Resolve(req.Context(), req.Header.Get("Authorization"))
			if ctx != req.Context() {
				req = req.WithContext(ctx)
			}
			next.ServeHTTP(w, req)
		})
	}
}
