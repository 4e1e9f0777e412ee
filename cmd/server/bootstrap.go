package main

import (
	"context"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/infrastructure/cache"
	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/courtage/backend/internal/infrastructure/event"
	"github.com/courtage/backend/internal/infrastructure/platform"
	"github.com/courtage/backend/internal/infrastructure/printing"
	"github.com/courtage/backend/internal/infrastructure/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// openRedis returns nil when Redis is disabled. Callers fall back to
// process-local stores in that case.
func openRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Warn("Redis disabled, token blacklist and idempotency keys stay in memory")
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.String("addr", cfg.Redis.Addr()), zap.Error(err))
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	return client
}

func openKafkaSink(cfg *config.Config, log *zap.Logger) *event.KafkaSink {
	if !cfg.Kafka.Enabled {
		return nil
	}
	sink, err := event.NewKafkaSink(event.KafkaSinkConfig{
		Brokers:      cfg.Kafka.Brokers,
		Topic:        cfg.Kafka.Topic,
		ClientID:     cfg.Kafka.ClientID,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to create Kafka sink", zap.Error(err))
	}
	log.Info("Outbox relays to Kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.Topic),
	)
	return sink
}

// openStorage returns the S3 store, an in-memory stub outside production,
// or nil. Document and bordereau export operations fail with a clear error
// when no store is configured.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) document.ObjectStorage {
	if !cfg.Storage.Enabled {
		if cfg.IsProduction() {
			log.Warn("Object storage disabled, documents and exports are unavailable")
			return nil
		}
		log.Warn("Object storage disabled, using in-memory stub")
		return storage.NewStubObjectStorage()
	}
	s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}
	if err := s3Storage.EnsureBucket(ctx); err != nil {
		log.Fatal("Failed to prepare storage bucket", zap.String("bucket", cfg.Storage.Bucket), zap.Error(err))
	}
	log.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	return s3Storage
}

func openCertificatePlatform(cfg *config.Config, redisClient *redis.Client, observer platform.CallObserver, log *zap.Logger) certificate.Provider {
	if !cfg.Certificate.Enabled {
		log.Info("Certificate platform disabled")
		return nil
	}
	opts := []platform.ClientOption{
		platform.WithLogger(log.Named("platform")),
		platform.WithObserver(observer),
	}
	if redisClient != nil {
		opts = append(opts, platform.WithTokenCache(platform.NewRedisTokenCache(redisClient, cfg.Certificate.TokenCacheKey)))
	}
	client, err := platform.NewClient(platform.Config{
		BaseURL:        cfg.Certificate.BaseURL,
		Username:       cfg.Certificate.Username,
		Password:       cfg.Certificate.Password,
		Timeout:        cfg.Certificate.Timeout,
		RequestsPerSec: cfg.Certificate.RequestsPerSec,
		Burst:          cfg.Certificate.Burst,
	}, opts...)
	if err != nil {
		log.Fatal("Invalid certificate platform configuration", zap.Error(err))
	}
	log.Info("Certificate platform client ready", zap.String("base_url", cfg.Certificate.BaseURL))
	return client
}

// registerRenderers installs the PDF and xlsx bordereau renderers. The
// returned func releases the browser.
func registerRenderers(svc *bordereauapp.BordereauService, cfg config.PrintingConfig, log *zap.Logger) func() {
	svc.SetRenderer(bordereauapp.FormatXLSX, printing.NewBordereauWorkbook())

	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Timeout,
		ExecPath:       cfg.ChromePath,
		MaxParallel:    cfg.MaxParallel,
		NoSandbox:      true,
		Logger:         log.Named("chromedp"),
	})
	if err != nil {
		log.Warn("PDF export unavailable, Chrome could not be started", zap.Error(err))
		return func() {}
	}
	svc.SetRenderer(bordereauapp.FormatPDF, printing.NewBordereauPDF(renderer, printing.ParsePaperSize(cfg.PaperSize), cfg.Landscape))

	return func() {
		if err := renderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}
}
