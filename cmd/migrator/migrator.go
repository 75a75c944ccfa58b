package main

import (
	"flag"
	"os"

	"github.com/NordCoder/Chateaux/internal/obs"
	"github.com/NordCoder/Chateaux/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func main() {
	command := flag.String("cmd", "up", "goose command: up, down, status, reset")
	flag.Parse()

	logger, err := obs.NewLogger(obs.LogConfig{Level: "info", App: "chateaux/migrator"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	dbURL := os.Getenv("DB_DSN")
	if dbURL == "" {
		logger.Fatal("DB_DSN is empty")
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("set dialect", zap.Error(err))
	}
	db, err := goose.OpenDBWithDriver("pgx", dbURL)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := goose.Run(*command, db, "."); err != nil {
		logger.Fatal("migrate", zap.String("cmd", *command), zap.Error(err))
	}
	logger.Info("migrations applied", zap.String("cmd", *command))
}
