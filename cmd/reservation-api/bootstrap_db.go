package main

import (
	"context"

	config "github.com/NordCoder/Chateaux/internal/config/reservation-api"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.NewDB(ctx, cfg.DB)
}
