// Command worker consumes comparison run requests from Kafka and executes
// them against the stored documents.  Concurrency comes from running several
// consumer instances in one group; each instance processes sequentially.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	appComparison "github.com/turtacn/ClauseLens/internal/application/comparison"
	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/redis"
	"github.com/turtacn/ClauseLens/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClauseLens/internal/infrastructure/search/opensearch"
	"github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
	httpiface "github.com/turtacn/ClauseLens/internal/interfaces/http"
	"github.com/turtacn/ClauseLens/internal/interfaces/http/handlers"
	"github.com/turtacn/ClauseLens/pkg/errors"
)

// Build metadata, injected through -ldflags at release time.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

const (
	shutdownTimeout = 30 * time.Second

	// Dead letters stay around long enough for an operator to inspect
	// and replay them.
	deadLetterRetention = 14 * 24 * time.Hour
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to CLAUSELENS_* environment variables)")
	workers := flag.Int("workers", 0, "number of consumer instances (overrides worker.concurrency)")
	flag.Parse()

	if err := run(*configPath, *workers); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Worker.Concurrency = workers
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.Named("worker")

	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 2 * runtime.NumCPU()
	}

	logger.Info("starting worker",
		logging.String("version", version),
		logging.String("commit", gitCommit),
		logging.String("built", buildDate),
		logging.Int("concurrency", concurrency))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	osClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		return err
	}
	indexer := opensearch.NewIndexer(osClient, cfg.OpenSearch, logger)
	if err := indexer.EnsureIndex(ctx); err != nil {
		return err
	}

	producer := kafka.NewProducer(cfg.Kafka, "worker", logger)
	defer producer.Close()

	if err := ensureTopics(ctx, cfg.Kafka, concurrency, logger); err != nil {
		return err
	}

	collector := prometheus.NewCollector(prometheus.CollectorConfig{
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	})
	metrics := prometheus.NewMetrics(collector)

	analyzer, err := buildAnalyzer(cfg.Analysis, logger)
	if err != nil {
		return err
	}

	documentRepo := repositories.NewDocumentRepository(db.Pool(), logger)
	runRepo := repositories.NewRunRepository(db.Pool(), logger)

	engine := appComparison.NewOrchestrator(analyzer, cfg.Comparison.MaxConcurrentAnalyses, metrics, logger)
	comparisons := appComparison.NewService(
		documentRepo,
		runRepo,
		engine,
		redis.NewCache(redisClient, cfg.Redis, logger),
		producer,
		indexer,
		metrics,
		appComparison.Config{CacheTTL: cfg.Comparison.CacheTTL},
		logger,
	)

	handler := runHandler(comparisons, metrics, logger)

	consumers := make([]*kafka.Consumer, 0, concurrency)
	for i := 0; i < concurrency; i++ {
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.ConsumerOptions{
			Topics:         []string{appComparison.TopicRunRequested},
			QueueDepth:     cfg.Worker.QueueDepth,
			MaxRetries:     cfg.Worker.MaxRetries,
			RetryBackoff:   cfg.Worker.RetryBackoff,
			CommitOnErrors: cfg.Worker.CommitOnErrors,
		}, producer, logger.With(logging.Int("consumer", i)))
		if err != nil {
			return err
		}
		consumer.Subscribe(appComparison.TopicRunRequested, handler)
		consumers = append(consumers, consumer)
	}

	for _, consumer := range consumers {
		if err := consumer.Start(ctx); err != nil {
			return err
		}
	}

	healthServer := httpiface.NewServer(
		config.ServerConfig{Port: cfg.Worker.HealthPort},
		healthRouter(collector, db, redisClient, osClient),
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(healthServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		for _, consumer := range consumers {
			if err := consumer.Close(); err != nil {
				logger.Warn("failed to close consumer", logging.Err(err))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return healthServer.Stop(shutdownCtx)
	})

	logger.Info("worker ready", logging.String("health_addr", healthServer.Addr()))
	return g.Wait()
}

// runHandler decodes run-requested events and executes them.  Redeliveries
// of runs that already finished are committed without another attempt.
func runHandler(comparisons appComparison.Service, metrics *prometheus.Metrics, logger logging.Logger) kafka.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		env, err := kafka.DecodeEnvelope(msg.Value)
		if err != nil {
			metrics.ObserveWorkerJob("decode_error")
			return err
		}

		var event appComparison.RunRequestedEvent
		if err := env.DecodePayload(&event); err != nil {
			metrics.ObserveWorkerJob("decode_error")
			return err
		}

		if _, err := comparisons.Execute(ctx, event.RunID); err != nil {
			if errors.IsCode(err, errors.ErrCodeRunInvalidState) {
				logger.Info("run already finished, skipping",
					logging.String("run_id", event.RunID))
				metrics.ObserveWorkerJob("skipped")
				return nil
			}
			metrics.ObserveWorkerJob("failure")
			return err
		}

		metrics.ObserveWorkerJob("success")
		return nil
	}
}

// ensureTopics creates the run topics when the broker allows it.  The
// request topic gets one partition per consumer so a full-size group can
// share the load.
func ensureTopics(ctx context.Context, cfg config.KafkaConfig, concurrency int, logger logging.Logger) error {
	manager, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer manager.Close()

	return manager.EnsureTopics(ctx, []kafka.TopicConfig{
		{Name: appComparison.TopicRunRequested, NumPartitions: concurrency},
		{Name: appComparison.TopicRunCompleted, NumPartitions: concurrency},
		{Name: appComparison.TopicRunDeadLetter, NumPartitions: 1, RetentionMs: deadLetterRetention.Milliseconds()},
	})
}

func healthRouter(collector *prometheus.Collector, db *postgres.DB, redisClient *redis.Client, osClient *opensearch.Client) *chi.Mux {
	health := handlers.NewHealthHandler(version,
		handlers.NamedChecker("postgres", db.HealthCheck),
		handlers.NamedChecker("redis", redisClient.HealthCheck),
		handlers.NamedChecker("opensearch", osClient.HealthCheck),
	)

	r := chi.NewRouter()
	r.Get("/healthz", health.Liveness)
	r.Get("/readyz", health.Readiness)
	r.Get("/healthz/detail", health.Detailed)
	r.Handle("/metrics", collector.Handler())
	return r
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.LoadFromEnv()
}

func buildAnalyzer(cfg config.AnalysisConfig, logger logging.Logger) (counsel_gpt.Analyzer, error) {
	if cfg.Backend != "http" {
		return counsel_gpt.NewHeuristicAnalyzer(), nil
	}

	analyzerCfg := counsel_gpt.DefaultConfig()
	analyzerCfg.BaseURL = cfg.BaseURL
	analyzerCfg.APIKey = cfg.APIKey
	if cfg.Model != "" {
		analyzerCfg.Model = cfg.Model
	}
	if cfg.Timeout > 0 {
		analyzerCfg.Timeout = cfg.Timeout
	}
	if cfg.MaxTokens > 0 {
		analyzerCfg.MaxTokens = cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		analyzerCfg.Temperature = cfg.Temperature
	}
	return counsel_gpt.NewHTTPAnalyzer(analyzerCfg, logger)
}
