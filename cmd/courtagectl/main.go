package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	contractapp "github.com/courtage/backend/internal/application/contract"
	rategridapp "github.com/courtage/backend/internal/application/rategrid"
	"github.com/courtage/backend/internal/domain/document"
	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/courtage/backend/internal/infrastructure/event"
	"github.com/courtage/backend/internal/infrastructure/logger"
	"github.com/courtage/backend/internal/infrastructure/migration"
	"github.com/courtage/backend/internal/infrastructure/persistence"
	"github.com/courtage/backend/internal/infrastructure/printing"
	"github.com/courtage/backend/internal/infrastructure/storage"
	"github.com/courtage/backend/internal/interfaces/cli"
	"github.com/courtage/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx, cli.Dependencies{
		LoadConfig:   config.LoadFrom,
		OpenServices: openServices,
		OpenMigrator: openMigrator,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewSQLLogger(log, logger.SQLLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	return persistence.Open(&cfg.Database, gormLog)
}

func openMigrator(_ context.Context, cfg *config.Config, log *zap.Logger) (cli.Migrator, error) {
	db, err := openDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return nil, err
	}
	// closing the migrator closes the connection
	return migration.New(sqlDB, migrations.FS, log)
}

// openServices wires the services the batch commands need. Events go to the
// outbox and are relayed by the running server.
func openServices(ctx context.Context, cfg *config.Config, log *zap.Logger) (*cli.Services, func(), error) {
	db, err := openDatabase(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	clientRepo := persistence.NewGormClientRepository(db.DB)
	professionRepo := persistence.NewGormProfessionRepository(db.DB)
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	rateRowRepo := persistence.NewGormRateRowRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	publisher := event.NewOutboxPublisher(event.NewGormOutboxRepository(db.DB), serializer, log)

	rateGridService := rategridapp.NewRateGridService(rateRowRepo, log)
	rateGridService.SetEventPublisher(publisher)

	contractService := contractapp.NewContractService(contractapp.ContractServiceDeps{
		Contracts:   contractRepo,
		Clients:     clientRepo,
		Professions: professionRepo,
		Vehicles:    vehicleRepo,
		Companies:   companyRepo,
		Rates:       rateRowRepo,
	}, log)
	contractService.SetEventPublisher(publisher)
	if cfg.Scheduler.BatchSize > 0 {
		contractService.SetLifecycleBatchSize(cfg.Scheduler.BatchSize)
	}

	var objectStorage document.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		objectStorage = s3Storage
	}

	bordereauService := bordereauapp.NewBordereauService(bordereauapp.BordereauServiceDeps{
		Bordereaux: persistence.NewGormBordereauRepository(db.DB),
		Contracts:  contractRepo,
		Clients:    clientRepo,
		Vehicles:   vehicleRepo,
		Companies:  companyRepo,
		Storage:    objectStorage,
	}, log)
	bordereauService.SetEventPublisher(publisher)
	bordereauService.SetDownloadExpiry(cfg.Storage.DownloadURLExpiry)
	bordereauService.SetRenderer(bordereauapp.FormatXLSX, printing.NewBordereauWorkbook())

	release := func() {
		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}
	}

	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.Timeout,
		ExecPath:       cfg.Printing.ChromePath,
		MaxParallel:    cfg.Printing.MaxParallel,
		NoSandbox:      true,
		Logger:         log.Named("chromedp"),
	})
	if err != nil {
		log.Warn("PDF export unavailable", zap.Error(err))
	} else {
		bordereauService.SetRenderer(bordereauapp.FormatPDF,
			printing.NewBordereauPDF(renderer, printing.ParsePaperSize(cfg.Printing.PaperSize), cfg.Printing.Landscape))
		closeDB := release
		release = func() {
			_ = renderer.Close()
			closeDB()
		}
	}

	if err := db.Ping(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return &cli.Services{
		Grids:      rateGridService,
		Lifecycle:  contractService,
		Bordereaux: bordereauService,
	}, release, nil
}
