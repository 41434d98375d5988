package app

import (
	"context"
	"fmt"
	"time"

	"github.com/andreyxaxa/Asset-Pipeline/config"
	kafkactrl "github.com/andreyxaxa/Asset-Pipeline/internal/controller/kafka"
	"github.com/andreyxaxa/Asset-Pipeline/internal/controller/worker/outbox"
	infrakafka "github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/kafka"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/queue"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo/persistent"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/jobs"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/kafka/consumer"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/kafka/producer"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/postgres"
)

const _memoryShutdownTimeout = 30 * time.Second

type lifecycle interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

type worker struct {
	lifecycle
	name            string
	shutdownTimeout time.Duration
}

// pipeline is the job queue selected by QUEUE_DRIVER together with whatever backs it.
type pipeline struct {
	queue      usecase.JobQueue
	assets     repo.AssetRepo
	transactor repo.Transactor
	workers    []worker
	closers    []func()
}

func (p *pipeline) close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

func newPipeline(ctx context.Context, cfg *config.Config, handlers map[string]usecase.JobHandler, l logger.Interface) (*pipeline, error) {
	switch cfg.Queue.Driver {
	case config.QueueDriverMemory:
		return memoryPipeline(cfg, handlers, l), nil
	case config.QueueDriverKafka:
		return kafkaPipeline(ctx, cfg, handlers, l)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Queue.Driver)
	}
}

func memoryPipeline(cfg *config.Config, handlers map[string]usecase.JobHandler, l logger.Interface) *pipeline {
	q := queue.New(l,
		queue.Workers(cfg.Queue.Workers),
		queue.ProcessTimeout(cfg.KafkaController.ProcessTimeout),
	)
	for name, h := range handlers {
		q.Handle(name, h)
	}

	return &pipeline{
		queue:   q,
		workers: []worker{{lifecycle: q, name: "memoryQueue", shutdownTimeout: _memoryShutdownTimeout}},
	}
}

func kafkaPipeline(ctx context.Context, cfg *config.Config, handlers map[string]usecase.JobHandler, l logger.Interface) (*pipeline, error) {
	p := &pipeline{}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		return nil, fmt.Errorf("postgres.New: %w", err)
	}
	p.closers = append(p.closers, pg.Close)

	jobsUseCase := jobs.New(persistent.NewJobOutboxRepo(pg), pg, l)

	p.queue = jobsUseCase
	p.assets = persistent.NewAssetRepo(pg)
	p.transactor = pg

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		p.close()
		return nil, fmt.Errorf("producer.New: %w", err)
	}

	// Outbox Relay Worker
	outboxRelayWorker := outbox.New(
		jobsUseCase,
		infrakafka.NewJobProducer(kafkaProducer, cfg.Kafka.Topic),
		l,
		outbox.Intervals{
			Poll:         cfg.OutboxRelay.PollInterval,
			MarkFailed:   cfg.OutboxRelay.MarkFailedInterval,
			Cleanup:      cfg.OutboxRelay.CleanupInterval,
			Reclaim:      cfg.OutboxRelay.ReclaimInterval,
			BatchTimeout: cfg.OutboxRelay.ProcessBatchTimeout,
		},
		cfg.OutboxRelay.Retention,
		cfg.OutboxRelay.Lease,
		cfg.OutboxRelay.BatchSize,
		cfg.OutboxRelay.MaxRetries,
	)

	// Kafka Consumer
	kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic)
	if err != nil {
		_ = kafkaProducer.Close()
		p.close()
		return nil, fmt.Errorf("consumer.New: %w", err)
	}

	// Kafka as Controller
	kafkaController := kafkactrl.New(
		jobsUseCase,
		infrakafka.NewJobConsumer(kafkaConsumer),
		l,
		cfg.KafkaController.CommitTimeout,
		cfg.KafkaController.ProcessTimeout,
		cfg.Queue.Workers,
	)
	for name, h := range handlers {
		kafkaController.Handle(name, h)
	}

	p.workers = []worker{
		{lifecycle: outboxRelayWorker, name: "outboxRelayWorker", shutdownTimeout: cfg.OutboxRelay.ShutdownTimeout},
		{lifecycle: kafkaController, name: "kafkaController", shutdownTimeout: cfg.KafkaController.ShutdownTimeout},
	}

	return p, nil
}
