package main

import (
	config "github.com/NordCoder/Chateaux/internal/config/reservation-api"
	"github.com/NordCoder/Chateaux/internal/obs"
	"go.uber.org/zap"
)

func initLogger(cfg *config.Config) (*zap.Logger, error) {
	return obs.NewLogger(cfg.AsLoggerConfig())
}
