package main

import (
	"net/http"
	"time"

	"github.com/NordCoder/Chateaux/internal/auth"
	config "github.com/NordCoder/Chateaux/internal/config/reservation-api"
	"github.com/NordCoder/Chateaux/internal/obs"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
	reservationapi "github.com/NordCoder/Chateaux/internal/services/reservation-api"
	"go.uber.org/zap"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, events eventsWiring) (*http.Server, error) {
	codec, err := auth.NewCodec(cfg.AuthCodecConfig())
	if err != nil {
		return nil, err
	}
	proxies, err := cfg.Auth.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	handler, err := reservationapi.NewHandler(reservationapi.Deps{
		Logger:          logger,
		Users:           pg.NewUserRepo(db),
		Chateaus:        pg.NewChateauRepo(db),
		Tx:              pg.NewTransactor(db, logger),
		Events:          events.inline,
		Outbox:          events.outbox,
		Codec:           codec,
		Hasher:          auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		DefaultRole:     cfg.Auth.DefaultRole,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		LoginRatePerSec: cfg.Auth.LoginRatePerSec,
		LoginBurst:      cfg.Auth.LoginBurst,
		TrustedProxies:  proxies,
		Health:          db.Ping,
	})
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(handler, cfg.App.Name),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}, nil
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
