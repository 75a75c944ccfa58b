package reservationapi

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"time"

	coreauth "github.com/NordCoder/Chateaux/internal/auth"
	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/NordCoder/Chateaux/internal/domain/user"
	"github.com/NordCoder/Chateaux/internal/obs"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
	"github.com/NordCoder/Chateaux/internal/services/reservation-api/auth"
	chateausvc "github.com/NordCoder/Chateaux/internal/services/reservation-api/chateau"
	"github.com/NordCoder/Chateaux/internal/services/reservation-api/httpx"
	usersvc "github.com/NordCoder/Chateaux/internal/services/reservation-api/user"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP API is assembled from.
type Deps struct {
	Logger   *zap.Logger
	Users    user.Repo
	Chateaus chateau.Repo
	Tx       pg.Transactor
	Events   chateau.Events
	// Outbox, when set, records chateau events inside each write.
	Outbox chateau.Events
	Codec  *coreauth.Codec
	Hasher coreauth.PasswordHasher

	DefaultRole     string
	AllowedOrigins  []string
	LoginRatePerSec float64
	LoginBurst      int
	TrustedProxies  []netip.Prefix

	// Health backs /healthz; nil always reports healthy.
	Health func(ctx context.Context) error
	Now    func() time.Time
}

// NewHandler wires usecases, handlers and the stage pipeline:
// Recover, RequestID, AccessLog, CORS, identity resolution, policy, routes.
func NewHandler(d Deps) (http.Handler, error) {
	if d.Users == nil || d.Chateaus == nil || d.Tx == nil || d.Codec == nil || d.Hasher == nil {
		return nil, errors.New("reservation-api: missing dependency")
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	authn, err := auth.NewAuthenticator(d.Users, d.Hasher, d.Codec, log)
	if err != nil {
		return nil, err
	}
	resolver := auth.NewResolver(d.Codec, d.Users, log)
	policy := auth.NewPolicy(log, auth.DefaultRules()...)

	mux := http.NewServeMux()
	auth.NewServer(authn, auth.Opts{
		Logger:     log,
		LoginLimit: httpx.RateLimit(d.LoginRatePerSec, d.LoginBurst, httpx.ClientIP(d.TrustedProxies)),
	}).Register(mux)

	userUC := usersvc.NewUsecase(d.Users, d.Tx, d.Hasher, usersvc.Config{DefaultRole: d.DefaultRole, Now: d.Now}, log)
	usersvc.NewServer(userUC, log).Register(mux)

	chateauUC := chateausvc.NewUsecase(d.Chateaus, d.Tx, d.Events, log).WithOutbox(d.Outbox)
	chateausvc.NewServer(chateauUC, log).Register(mux)

	mux.Handle("GET /metrics", obs.MetricsHandler())
	mux.HandleFunc("GET /healthz", healthz(d.Health))

	route := func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}

	return httpx.Chain(mux,
		httpx.Recover(log),
		httpx.RequestID(),
		httpx.AccessLog(obs.Component(log, "http"), route),
		httpx.CORS(d.AllowedOrigins),
		resolver.Stage(),
		policy.Stage(),
	), nil
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := check(ctx); err != nil {
				http.Error(w, "unhealthy: db", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
