package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/handlers"
	"github.com/Ramsey-B/clover/internal/ingest"
	"github.com/Ramsey-B/clover/internal/repositories/assignment"
	"github.com/Ramsey-B/clover/internal/repositories/auditlog"
	"github.com/Ramsey-B/clover/internal/repositories/client"
	"github.com/Ramsey-B/clover/internal/repositories/conflict"
	"github.com/Ramsey-B/clover/internal/repositories/duplicate"
	"github.com/Ramsey-B/clover/internal/repositories/ruleconfig"
	"github.com/Ramsey-B/clover/internal/repositories/territory"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/extract"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
	"github.com/Ramsey-B/clover/pkg/updating"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Service exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger ectologger.Logger) error {
	if cfg.TracingEnabled {
		shutdown, err := setupTracing(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		defer shutdown(context.Background())
	}

	app := &application{cfg: cfg, logger: logger}

	boot := startup.NewStartup[any](logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&dependency{name: "database", start: app.startDatabase, stop: app.stopDatabase})
	if cfg.RedisEnabled {
		boot.AddDependency(&dependency{name: "redis", dependsOn: []string{"database"}, start: app.startRedis, stop: app.stopRedis})
	}
	if cfg.KafkaConsumerEnabled || cfg.KafkaProducerEnabled {
		boot.AddDependency(&dependency{name: "kafka", dependsOn: []string{"database"}, start: app.startKafka, stop: app.stopKafka})
	}

	if err := boot.Start(ctx); err != nil {
		return err
	}
	defer boot.Stop(context.Background())

	e := app.buildServer()

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	app.health.SetReady(true)
	logger.Infof("Listening on port %d", cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.health.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func setupTracing(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	if cfg.TracingOTLPEndpoint == "" {
		exporter = &exporters.ConsoleExporter{}
	} else {
		otlpCfg := exporters.DefaultOTLPConfig()
		otlpCfg.Endpoint = cfg.TracingOTLPEndpoint

		var err error
		exporter, err = exporters.NewOTLPExporter(ctx, otlpCfg)
		if err != nil {
			return nil, err
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TracingSampleRate)),
	)
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))

	return tp.Shutdown, nil
}

// application holds the wired components between startup and serving.
type application struct {
	cfg    config.Config
	logger ectologger.Logger

	sqlDB    *sqlx.DB
	db       database.DB
	redis    *redis.Client
	cache    *redis.Cache
	producer *kafka.Producer
	consumer *kafka.Consumer
	health   *handlers.HealthChecker

	clients     *client.Repository
	territories *territory.Repository
	assignments *assignment.Repository
	audit       *auditlog.Repository
	conflicts   *conflict.Repository
	duplicates  *duplicate.Repository
	ruleConfigs *ruleconfig.Repository
}

func (a *application) startDatabase(ctx context.Context) error {
	sqlDB, err := sqlx.ConnectContext(ctx, a.cfg.DatabaseDriver, a.cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(a.cfg.DatabaseMaxOpenConns)
	sqlDB.SetMaxIdleConns(a.cfg.DatabaseMaxIdleConns)
	sqlDB.SetConnMaxLifetime(a.cfg.DatabaseConnMaxLifetime)

	driver, err := postgres.WithInstance(sqlDB.DB, &postgres.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
	if err := migrations.Migrate(a.cfg.DatabaseName, driver); err != nil {
		return err
	}

	a.sqlDB = sqlDB
	a.db = database.NewDatabaseInstance(sqlDB, a.logger)

	a.clients = client.NewRepository(a.db, a.logger)
	a.territories = territory.NewRepository(a.db, a.logger)
	a.assignments = assignment.NewRepository(a.db, a.logger)
	a.audit = auditlog.NewRepository(a.db, a.logger)
	a.conflicts = conflict.NewRepository(a.db, a.logger)
	a.duplicates = duplicate.NewRepository(a.db, a.logger)
	a.ruleConfigs = ruleconfig.NewRepository(a.db, a.logger)
	return nil
}

func (a *application) stopDatabase(context.Context) error {
	if a.sqlDB != nil {
		return a.sqlDB.Close()
	}
	return nil
}

func (a *application) startRedis(context.Context) error {
	rc, err := redis.NewClient(redis.Config{
		Host:     a.cfg.RedisHost,
		Port:     a.cfg.RedisPort,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return err
	}

	a.redis = rc
	a.cache = redis.NewCache(rc, a.cfg.CachePrefix, a.cfg.CacheTTL, a.logger)
	return nil
}

func (a *application) stopRedis(context.Context) error {
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}

func (a *application) startKafka(ctx context.Context) error {
	if a.cfg.KafkaProducerEnabled {
		a.producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      a.cfg.KafkaBrokers,
			Topic:        a.cfg.KafkaChangeTopic,
			BatchSize:    a.cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(a.cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: a.cfg.KafkaRequiredAcks,
			Compression:  a.cfg.KafkaCompression,
		}, a.logger)
	}

	if a.cfg.KafkaConsumerEnabled {
		ingestor := ingest.NewIngestor(a.clients, a.logger)
		a.consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       a.cfg.KafkaBrokers,
			Topic:         a.cfg.KafkaClientTopic,
			ConsumerGroup: a.cfg.KafkaConsumerGroup,
		}, a.logger, ingestor.Handle)
		return a.consumer.Start(ctx)
	}

	return nil
}

func (a *application) stopKafka(context.Context) error {
	if a.consumer != nil {
		if err := a.consumer.Stop(); err != nil {
			return err
		}
	}
	if a.producer != nil {
		return a.producer.Close()
	}
	return nil
}

func (a *application) buildRunner() *pipeline.Runner {
	var source extract.ClientSource
	if a.cfg.ClientCSVPath != "" {
		source = extract.NewCSVSource(a.logger, a.cfg.ClientCSVPath)
	} else {
		source = extract.NewRepositorySource(a.clients)
	}

	detector := dedupe.NewDetector(a.logger, dedupe.Method(a.cfg.DedupeMethod), a.cfg.DedupeThreshold)

	var publisher updating.ChangePublisher
	if a.producer != nil {
		publisher = a.producer
	}

	return pipeline.NewRunner(
		a.logger,
		source,
		a.ruleConfigs,
		detector,
		pipeline.Stores{
			Clients:     a.clients,
			Territories: a.territories,
			Assignments: a.assignments,
			Conflicts:   a.conflicts,
			Duplicates:  a.duplicates,
		},
		publisher,
		pipeline.Config{
			MinConfidence: a.cfg.MinConfidence,
			MergeStrategy: models.MergeStrategy(a.cfg.MergeStrategy),
		},
	)
}

func (a *application) buildServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(a.logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: a.cfg.AllowOrigins,
		AllowMethods: a.cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(a.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))

	var redisPinger handlers.Pinger
	if a.redis != nil {
		redisPinger = a.redis
	}
	var consumerHealth interface{ Health() bool }
	if a.consumer != nil {
		consumerHealth = a.consumer
	}
	a.health = handlers.NewHealthChecker(handlers.PingerFunc(a.sqlDB.PingContext), redisPinger, consumerHealth, version)
	a.health.RegisterRoutes(e)

	api := e.Group("/api/v1")
	handlers.NewClientHandler(a.clients, a.cache, a.logger).Register(api.Group("/clients"))
	handlers.NewTerritoryHandler(a.territories, a.cache, a.logger).Register(api.Group("/territories"))
	handlers.NewAssignmentHandler(a.assignments, a.cache, a.logger).Register(api.Group("/assignments"))
	handlers.NewAuditHandler(a.audit, a.logger).Register(api.Group("/audit"))
	handlers.NewConflictHandler(a.conflicts, a.logger).Register(api.Group("/conflicts"))
	handlers.NewDuplicateHandler(a.duplicates, a.clients, a.logger).Register(api.Group("/duplicates"))
	handlers.NewRuleConfigHandler(a.ruleConfigs, a.logger).Register(api.Group("/rule-configs"))
	handlers.NewPipelineHandler(a.buildRunner(), a.cache, a.logger).Register(api.Group("/pipeline"))

	server := e.Server
	server.ReadTimeout = time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second
	server.WriteTimeout = time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second
	server.IdleTimeout = time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second
	server.ReadHeaderTimeout = time.Duration(a.cfg.ReadHeaderTimeoutSeconds) * time.Second
	server.MaxHeaderBytes = a.cfg.MaxHeaderBytes

	return e
}

// dependency adapts start/stop funcs to the startup interface.
type dependency struct {
	name      string
	dependsOn []string
	start     func(ctx context.Context) error
	stop      func(ctx context.Context) error
}

func (d *dependency) GetName() string     { return d.name }
func (d *dependency) DependsOn() []string { return d.dependsOn }

func (d *dependency) Start(ctx context.Context) error { return d.start(ctx) }
func (d *dependency) Stop(ctx context.Context) error  { return d.stop(ctx) }
