package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andreyxaxa/Asset-Pipeline/config"
	"github.com/andreyxaxa/Asset-Pipeline/internal/controller/restapi"
	"github.com/andreyxaxa/Asset-Pipeline/internal/infrastructure/events"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo"
	"github.com/andreyxaxa/Asset-Pipeline/internal/repo/persistent"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/ingest"
	"github.com/andreyxaxa/Asset-Pipeline/internal/usecase/layout"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/httpserver"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/logger"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/natsbus"
	"github.com/andreyxaxa/Asset-Pipeline/pkg/s3client"
)

const _multipartOverhead = 1 << 20

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// filesystem
	files, err := persistent.NewFileStore(cfg.Storage.Root)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - persistent.NewFileStore: %w", err))
	}
	err = files.EnsureDir(ctx, cfg.Storage.IncomingDir)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - files.EnsureDir: %w", err))
	}

	// s3 cdn mirror
	var cdn repo.CDNRepo
	if cfg.S3.Enabled {
		s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
		s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
			s3client.Region(cfg.S3.Region),
			s3client.UsePathStyle(true),
			s3client.RetryMaxAttempts(cfg.S3.MaxAttempts),
		)
		if err != nil {
			s3Cancel()
			l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
		}
		err = s3c.EnsureBucket(s3Ctx, cfg.S3.Bucket)
		s3Cancel()
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - s3c.EnsureBucket: %w", err))
		}

		cdn = persistent.NewCDNRepo(s3c, cfg.S3.Bucket)
	}

	// Derivation events
	publishers := events.Fanout{events.NewLogPublisher(l)}
	if cfg.NATS.URL != "" {
		bus, err := natsbus.New(cfg.NATS.URL, natsbus.Name(cfg.App.Name))
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - natsbus.New: %w", err))
		}
		defer bus.Close()

		publishers = append(publishers, events.NewNATSPublisher(bus, cfg.NATS.EventsSubject))
	}

	// Use-Case
	resolver := layout.New(files.Root())

	handlers := Handlers(cfg, resolver, files, publishers, cdn, l)

	// Queue driver
	pipeline, err := newPipeline(ctx, cfg, handlers, l)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - newPipeline: %w", err))
	}
	defer pipeline.close()

	ingestOpts := []ingest.Option{ingest.Delay(cfg.Queue.Delay)}
	if cfg.Storage.NameStrategy == config.NameStrategyUpload {
		ingestOpts = append(ingestOpts, ingest.Names(ingest.UploadNames))
	}
	if pipeline.assets != nil {
		ingestOpts = append(ingestOpts, ingest.Catalog(pipeline.assets, pipeline.transactor))
	}

	ingestUseCase := ingest.New(
		Classifier(cfg.Classifier),
		resolver,
		files,
		pipeline.queue,
		l,
		ingestOpts...,
	)

	// HTTP Server
	httpServer := httpserver.New(l,
		httpserver.Port(cfg.HTTP.Port),
		httpserver.Prefork(cfg.HTTP.UsePreforkMode),
		httpserver.ReadTimeout(cfg.HTTP.ReadTimeout),
		httpserver.WriteTimeout(cfg.HTTP.WriteTimeout),
		httpserver.BodyLimit(int(cfg.Storage.MaxUploadSize)*cfg.Storage.MaxBatchFiles+_multipartOverhead),
	)
	restapi.NewRouter(httpServer.App, cfg, ingestUseCase, resolver, l)

	// Start Components
	for _, w := range pipeline.workers {
		err = w.Start(ctx)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - %s.Start: %w", w.name, err))
		}
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	for _, w := range pipeline.workers {
		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, w.shutdownTimeout)
		err = w.Shutdown(shutdownCtx)
		shutdownCancel()
		if err != nil {
			l.Error(fmt.Errorf("app - Run - %s.Shutdown: %w", w.name, err))
		}
	}
}
