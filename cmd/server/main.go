package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bordereauapp "github.com/courtage/backend/internal/application/bordereau"
	certificateapp "github.com/courtage/backend/internal/application/certificate"
	clientapp "github.com/courtage/backend/internal/application/client"
	companyapp "github.com/courtage/backend/internal/application/company"
	contractapp "github.com/courtage/backend/internal/application/contract"
	documentapp "github.com/courtage/backend/internal/application/document"
	eventapp "github.com/courtage/backend/internal/application/event"
	identityapp "github.com/courtage/backend/internal/application/identity"
	rategridapp "github.com/courtage/backend/internal/application/rategrid"
	vehicleapp "github.com/courtage/backend/internal/application/vehicle"
	"github.com/courtage/backend/internal/infrastructure/auth"
	"github.com/courtage/backend/internal/infrastructure/cache"
	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/courtage/backend/internal/infrastructure/event"
	"github.com/courtage/backend/internal/infrastructure/logger"
	"github.com/courtage/backend/internal/infrastructure/persistence"
	"github.com/courtage/backend/internal/infrastructure/scheduler"
	"github.com/courtage/backend/internal/infrastructure/telemetry"
	"github.com/courtage/backend/internal/interfaces/http/handler"
	"github.com/courtage/backend/internal/interfaces/http/middleware"
	"github.com/courtage/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/courtage/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Courtage Backend API
//	@version		1.0
//	@description	Back-office API for motor insurance brokerage: clients, vehicles, contracts, certificates and bordereaux

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//go:generate swag init --dir ../../ -g cmd/server/main.go -o ../../docs

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	telemetryProviders, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
		ProfilingEnabled:  cfg.Telemetry.ProfilingEnabled,
		PyroscopeURL:      cfg.Telemetry.PyroscopeURL,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := telemetryProviders.Shutdown(context.Background()); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	// entries are exported over OTLP as well once the log provider runs
	log, err := logger.New(logCfg, telemetryProviders.LogCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting courtage backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewSQLLogger(log, logger.SQLLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.Open(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	redisClient := openRedis(ctx, cfg, log)
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	businessMetrics := telemetry.NewBusinessMetrics()
	if poolStats, err := db.StatsCollector(); err == nil {
		businessMetrics.Registry().MustRegister(poolStats)
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	professionRepo := persistence.NewGormProfessionRepository(db.DB)
	vehicleRepo := persistence.NewGormVehicleRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	rateRowRepo := persistence.NewGormRateRowRepository(db.DB)
	contractRepo := persistence.NewGormContractRepository(db.DB)
	bordereauRepo := persistence.NewGormBordereauRepository(db.DB)
	certificateRepo := persistence.NewGormCertificateRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Domain events are written to the outbox and relayed by the processor
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	outboxPublisher := event.NewOutboxPublisher(outboxRepo, serializer, log)

	eventBus := event.NewInMemoryEventBus(log)
	idempotency := cache.NewIdempotencyStore(redisClient, "courtage:events:", log)
	eventBus.Subscribe(event.NewIdempotentHandler("business-metrics", businessMetrics, idempotency, log,
		event.WithDedupObserver(businessMetrics)))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	sinks := []event.Sink{event.NewBusSink(eventBus, serializer)}
	if kafkaSink := openKafkaSink(cfg, log); kafkaSink != nil {
		sinks = append(sinks, kafkaSink)
		defer func() {
			_ = kafkaSink.Close()
		}()
	}
	outboxRelay := event.NewRelay(outboxRepo, sinks, event.DefaultRelayConfig(), log)
	outboxRelay.SetObserver(businessMetrics)
	if err := outboxRelay.Start(ctx); err != nil {
		log.Fatal("Failed to start outbox relay", zap.Error(err))
	}
	defer func() {
		if err := outboxRelay.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox relay", zap.Error(err))
		}
	}()

	objectStorage := openStorage(ctx, cfg, log)
	certificateProvider := openCertificatePlatform(cfg, redisClient, businessMetrics, log)

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, identityapp.LockoutPolicy{MaxAttempts: cfg.JWT.MaxLoginAttempts, Duration: cfg.JWT.LockDuration}, log)
	userService := identityapp.NewUserService(userRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	userService.SetEventPublisher(outboxPublisher)

	clientService := clientapp.NewClientService(clientRepo, professionRepo, vehicleRepo, contractRepo)
	clientService.SetEventPublisher(outboxPublisher)
	professionService := clientapp.NewProfessionService(professionRepo)
	vehicleService := vehicleapp.NewVehicleService(vehicleRepo, clientRepo, contractRepo)
	vehicleService.SetEventPublisher(outboxPublisher)
	companyService := companyapp.NewCompanyService(companyRepo)
	companyService.SetEventPublisher(outboxPublisher)
	rateGridService := rategridapp.NewRateGridService(rateRowRepo, log)
	rateGridService.SetEventPublisher(outboxPublisher)

	contractService := contractapp.NewContractService(contractapp.ContractServiceDeps{
		Contracts:   contractRepo,
		Clients:     clientRepo,
		Professions: professionRepo,
		Vehicles:    vehicleRepo,
		Companies:   companyRepo,
		Rates:       rateRowRepo,
	}, log)
	contractService.SetEventPublisher(outboxPublisher)
	contractService.SetLifecycleBatchSize(cfg.Scheduler.BatchSize)

	bordereauService := bordereauapp.NewBordereauService(bordereauapp.BordereauServiceDeps{
		Bordereaux: bordereauRepo,
		Contracts:  contractRepo,
		Clients:    clientRepo,
		Vehicles:   vehicleRepo,
		Companies:  companyRepo,
		Storage:    objectStorage,
	}, log)
	bordereauService.SetEventPublisher(outboxPublisher)
	bordereauService.SetDownloadExpiry(cfg.Storage.DownloadURLExpiry)
	closeRenderers := registerRenderers(bordereauService, cfg.Printing, log)
	defer closeRenderers()

	certificateService := certificateapp.NewCertificateService(certificateapp.CertificateServiceDeps{
		Certificates: certificateRepo,
		Contracts:    contractRepo,
		Clients:      clientRepo,
		Vehicles:     vehicleRepo,
		Companies:    companyRepo,
		Provider:     certificateProvider,
	}, log)
	certificateService.SetEventPublisher(outboxPublisher)

	documentService := documentapp.NewDocumentService(documentapp.DocumentServiceDeps{
		Documents: documentRepo,
		Clients:   clientRepo,
		Vehicles:  vehicleRepo,
		Contracts: contractRepo,
		Storage:   objectStorage,
	}, log)
	documentService.SetConfig(documentapp.DocumentServiceConfig{
		UploadURLExpiry:   cfg.Storage.UploadURLExpiry,
		DownloadURLExpiry: cfg.Storage.DownloadURLExpiry,
	})

	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Contract lifecycle sweep
	if cfg.Scheduler.Enabled {
		stop := startLifecycleScheduler(ctx, cfg.Scheduler, contractService, log)
		defer stop()
	}

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	systemHandler := handler.NewSystemHandler(version)
	systemHandler.AddCheck("database", func(ctx context.Context) error {
		return db.Ping(ctx)
	})
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health", "/ready", "/metrics"},
	}))
	engine.Use(logger.AccessLog(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		Meter:     telemetryProviders.Meter(telemetry.TracerName),
		Enabled:   cfg.Telemetry.Enabled,
		SkipPaths: []string{"/health", "/ready", "/metrics"},
		Logger:    log,
	}))

	router.Probes(engine, systemHandler)
	engine.GET("/metrics", gin.WrapH(businessMetrics.Handler()))

	jwtConfig := middleware.DefaultJWTConfig(jwtService)
	jwtConfig.TokenBlacklist = blacklist
	jwtConfig.Logger = log

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddlewareWithConfig(jwtConfig)),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	r := router.New(engine, router.Version("v1"))
	var loginLimit gin.HandlerFunc
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		authLimiter := middleware.NewRateLimiter(max(cfg.HTTP.RateLimitRequests/10, 5), cfg.HTTP.RateLimitWindow)
		r.Use(middleware.RateLimit(limiter))
		loginLimit = middleware.AuthRateLimit(authLimiter)
		stopSweep := sweepLimiters(cfg.HTTP.RateLimitWindow, limiter, authLimiter)
		defer stopSweep()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.TenantMiddleware(middleware.DefaultTenantConfig()),
		middleware.SpanEnricher(),
		middleware.Profiling(middleware.ProfilingConfig{
			Enabled:   telemetryProviders.Profiling(),
			SkipPaths: []string{"/health", "/ready", "/metrics"},
		}),
	)
	if cfg.HTTP.IdempotencyEnabled && redisClient != nil {
		r.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  cache.NewRedisResponseStore(redisClient, "courtage:idempotency:"),
			TTL:    cfg.HTTP.IdempotencyTTL,
			Logger: log,
		}))
	}

	r.Register(router.Domains(router.Handlers{
		Auth:        handler.NewAuthHandler(authService),
		User:        handler.NewUserHandler(userService),
		Client:      handler.NewClientHandler(clientService, vehicleService),
		Profession:  handler.NewProfessionHandler(professionService),
		Vehicle:     handler.NewVehicleHandler(vehicleService),
		Company:     handler.NewCompanyHandler(companyService),
		RateGrid:    handler.NewRateGridHandler(rateGridService),
		Contract:    handler.NewContractHandler(contractService),
		Certificate: handler.NewCertificateHandler(certificateService),
		Bordereau:   handler.NewBordereauHandler(bordereauService),
		Document:    handler.NewDocumentHandler(documentService),
		Outbox:      handler.NewOutboxHandler(outboxService),
		System:      systemHandler,
	}, loginLimit)...)
	log.Info("API routes mounted", zap.Int("routes", r.Setup()))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func startLifecycleScheduler(ctx context.Context, cfg config.SchedulerConfig, runner scheduler.LifecycleRunner, log *zap.Logger) func() {
	schedulerConfig := scheduler.DefaultSchedulerConfig()
	schedulerConfig.MaxConcurrentJobs = 1
	if cfg.JobTimeout > 0 {
		schedulerConfig.JobTimeout = cfg.JobTimeout
	}
	schedulerConfig.RetryAttempts = cfg.RetryAttempts
	if cfg.RetryDelay > 0 {
		schedulerConfig.RetryDelay = cfg.RetryDelay
	}

	sched, err := scheduler.NewScheduler(schedulerConfig, log)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}
	sched.Register(scheduler.LifecycleJobName, scheduler.NewLifecycleExecutor(runner, log))
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	trigger := scheduler.NewTrigger(scheduler.LifecycleJobName, cfg.Interval, cfg.RetryAttempts, sched, log)
	if err := trigger.Start(ctx); err != nil {
		log.Fatal("Failed to start lifecycle trigger", zap.Error(err))
	}
	log.Info("Contract lifecycle scheduler started", zap.Duration("interval", cfg.Interval))

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := trigger.Stop(stopCtx); err != nil {
			log.Error("Error stopping lifecycle trigger", zap.Error(err))
		}
		if err := sched.Stop(stopCtx); err != nil {
			log.Error("Error stopping scheduler", zap.Error(err))
		}
	}
}

func sweepLimiters(every time.Duration, limiters ...*middleware.RateLimiter) func() {
	ticker := time.NewTicker(every)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				for _, l := range limiters {
					l.Sweep()
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
