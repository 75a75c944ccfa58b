package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	config "github.com/NordCoder/Chateaux/internal/config/reservation-api"
	"github.com/NordCoder/Chateaux/internal/obs"
	"github.com/NordCoder/Chateaux/internal/repository/kafka"
	"go.uber.org/zap"
)

// kafka-init creates the chateau events topic before the API starts
// publishing to it.
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	partitions := flag.Int("partitions", 3, "partitions for a newly created topic")
	rf := flag.Int("rf", 1, "replication factor for a newly created topic")
	flag.Parse()

	cfg, err := config.Read(*configPath)
	if err != nil {
		panic(err)
	}
	logger, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger = obs.Component(logger, "kafka-init")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	topic := strings.TrimSpace(cfg.Kafka.Topic)
	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, kafka.TopicSpec{
		Name:              topic,
		NumPartitions:     *partitions,
		ReplicationFactor: *rf,
		MaxWait:           30 * time.Second,
	}, logger); err != nil {
		logger.Fatal("ensure topic", zap.String("topic", topic), zap.Error(err))
	}
	logger.Info("kafka-init ok", zap.String("topic", topic))
}
