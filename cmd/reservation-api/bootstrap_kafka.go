package main

import (
	"context"

	config "github.com/NordCoder/Chateaux/internal/config/reservation-api"
	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/NordCoder/Chateaux/internal/obs/retry"
	"github.com/NordCoder/Chateaux/internal/outbox"
	"github.com/NordCoder/Chateaux/internal/repository/kafka"
	pg "github.com/NordCoder/Chateaux/internal/repository/postgres"
	"go.uber.org/zap"
)

// eventsWiring is how chateau writes reach Kafka: inline after commit, or
// through the outbox table and its relay.
type eventsWiring struct {
	inline chateau.Events
	outbox chateau.Events
	runner *outbox.Runner
	close  func()
}

func initEvents(cfg *config.Config, db *pg.DB, logger *zap.Logger) eventsWiring {
	if !cfg.Kafka.Enable {
		logger.Info("chateau events disabled")
		return eventsWiring{inline: kafka.NopChateauEvents{}, close: func() {}}
	}

	p := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	events := kafka.NewChateauEvents(p, logger)
	closeProducer := func() {
		if err := p.Close(); err != nil {
			logger.Warn("kafka producer close", zap.Error(err))
		}
	}
	logger.Info("chateau events enabled",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
		zap.Bool("outbox", cfg.Kafka.Outbox.Enable))

	if !cfg.Kafka.Outbox.Enable {
		return eventsWiring{inline: events, close: closeProducer}
	}

	repo := pg.NewOutboxRepo(db)
	oc := cfg.Kafka.Outbox
	runner := outbox.NewOutboxRunner(logger, repo,
		outbox.MakeGlobalOutboxHandler(events, retry.DefaultRelayPolicy(logger)),
		outbox.RunnerConfig{
			Workers:       oc.Workers,
			BatchSize:     oc.BatchSize,
			PollInterval:  oc.PollInterval,
			InProgressTTL: oc.InProgressTTL,
		})
	return eventsWiring{
		inline: kafka.NopChateauEvents{},
		outbox: outbox.NewChateauRecorder(repo),
		runner: runner,
		close:  closeProducer,
	}
}

// start runs the relay until ctx is done. The returned func waits for it.
func (e eventsWiring) start(ctx context.Context) func() {
	if e.runner == nil {
		return func() {}
	}
	e.runner.Start(ctx)
	return e.runner.Wait
}
