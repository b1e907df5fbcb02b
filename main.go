package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"folio/internal/app"
	"folio/internal/config"
	"folio/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("application exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()
	defer deps.AI.Close()
	defer deps.OCR.Close()

	a, err := app.New(cfg, deps.DB, deps.VectorStore, deps.NSQProducer, deps.AI, deps.Converter, deps.OCR)
	if err != nil {
		return err
	}

	if cfg.EnableWorker {
		nsqCfg := nsq.NewConfig()
		consumer, err := nsq.NewConsumer(config.TopicIngestCorpus, config.ChannelIngestor, nsqCfg)
		if err != nil {
			return err
		}
		consumer.AddHandler(a.IngestConsumer)
		if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
			return err
		}
		defer consumer.Stop()
		log.Info("ingest consumer connected", "topic", config.TopicIngestCorpus, "channel", config.ChannelIngestor)
	}

	if !cfg.EnableAPI {
		log.Info("api disabled, running worker only")
		<-ctx.Done()
		return nil
	}

	return a.Run(ctx)
}
