// Command apiserver runs the ClauseLens API: document ingestion, comparison
// runs, clause search, and the operational endpoints around them.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	appComparison "github.com/turtacn/ClauseLens/internal/application/comparison"
	appDocument "github.com/turtacn/ClauseLens/internal/application/document"
	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ClauseLens/internal/infrastructure/database/redis"
	"github.com/turtacn/ClauseLens/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClauseLens/internal/infrastructure/search/opensearch"
	"github.com/turtacn/ClauseLens/internal/infrastructure/storage/minio"
	"github.com/turtacn/ClauseLens/internal/intelligence/counsel_gpt"
	"github.com/turtacn/ClauseLens/internal/intelligence/doc_extractor"
	grpciface "github.com/turtacn/ClauseLens/internal/interfaces/grpc"
	httpiface "github.com/turtacn/ClauseLens/internal/interfaces/http"
	"github.com/turtacn/ClauseLens/internal/interfaces/http/handlers"
	"github.com/turtacn/ClauseLens/internal/interfaces/http/middleware"
)

// Build metadata, injected through -ldflags at release time.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults to CLAUSELENS_* environment variables)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
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
	logger = logger.Named("apiserver")

	logger.Info("starting api server",
		logging.String("version", version),
		logging.String("commit", gitCommit),
		logging.String("built", buildDate))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Schema migrations run before anything reads the database.
	db, err := postgres.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.MigrationPath != "" {
		if err := db.Migrate(cfg.Database.MigrationPath); err != nil {
			return err
		}
	}

	redisClient, err := redis.NewClient(cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	minioClient, err := minio.NewClient(cfg.MinIO, logger)
	if err != nil {
		return err
	}

	osClient, err := opensearch.NewClient(cfg.OpenSearch, logger)
	if err != nil {
		return err
	}
	indexer := opensearch.NewIndexer(osClient, cfg.OpenSearch, logger)
	if err := indexer.EnsureIndex(ctx); err != nil {
		return err
	}

	producer := kafka.NewProducer(cfg.Kafka, "apiserver", logger)
	defer producer.Close()

	collector := prometheus.NewCollector(prometheus.CollectorConfig{
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	})
	metrics := prometheus.NewMetrics(collector)

	extractor, err := doc_extractor.NewExtractor(doc_extractor.Config{
		ServiceURL:      cfg.Extraction.ServiceURL,
		Timeout:         cfg.Extraction.Timeout,
		MaxDocumentSize: cfg.Extraction.MaxDocumentSize,
	}, logger)
	if err != nil {
		return err
	}

	analyzer, err := buildAnalyzer(cfg.Analysis, logger)
	if err != nil {
		return err
	}

	documentRepo := repositories.NewDocumentRepository(db.Pool(), logger)
	runRepo := repositories.NewRunRepository(db.Pool(), logger)

	documents := appDocument.NewService(
		documentRepo,
		minio.NewStore(minioClient, logger),
		extractor,
		appDocument.Config{MaxUploadBytes: cfg.Server.MaxBodySize},
		logger,
	)

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

	health := handlers.NewHealthHandler(version,
		handlers.NamedChecker("postgres", db.HealthCheck),
		handlers.NamedChecker("redis", redisClient.HealthCheck),
		handlers.NamedChecker("minio", minioClient.HealthCheck),
		handlers.NamedChecker("opensearch", osClient.HealthCheck),
	)

	router := httpiface.NewRouter(httpiface.RouterConfig{
		Documents:      handlers.NewDocumentHandler(documents, cfg.Server.MaxBodySize, logger),
		Comparisons:    handlers.NewComparisonHandler(comparisons, logger),
		Search:         handlers.NewSearchHandler(opensearch.NewSearcher(osClient, cfg.OpenSearch, logger), logger),
		Health:         health,
		CORS:           corsMiddleware(cfg.Server),
		Logging:        middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()),
		RateLimit:      rateLimitMiddleware(cfg.Server),
		Metrics:        metrics,
		MetricsHandler: collector.Handler(),
	})

	httpServer := httpiface.NewServer(cfg.Server, router, logger)

	healthServer, err := grpciface.NewHealthServer(cfg.Server.GRPCPort, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(httpServer.Start)
	g.Go(healthServer.Start)
	g.Go(func() error {
		<-gctx.Done()
		healthServer.SetReady(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		stopErr := httpServer.Stop(shutdownCtx)
		healthServer.Stop(shutdownCtx)
		return stopErr
	})

	healthServer.SetReady(true)
	logger.Info("api server ready",
		logging.String("http_addr", httpServer.Addr()),
		logging.String("grpc_addr", healthServer.Addr()))

	return g.Wait()
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

func corsMiddleware(cfg config.ServerConfig) func(http.Handler) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		return nil
	}
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins
	return middleware.CORS(corsCfg)
}

func rateLimitMiddleware(cfg config.ServerConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return nil
	}
	rlCfg := middleware.DefaultRateLimitConfig()
	rlCfg.RequestsPerSecond = float64(cfg.RateLimitRPS)
	if cfg.RateLimitBurst > 0 {
		rlCfg.BurstSize = cfg.RateLimitBurst
	}
	limiter := middleware.NewTokenBucketLimiter(rlCfg.RequestsPerSecond, rlCfg.BurstSize, rlCfg.CleanupInterval)
	return middleware.RateLimit(limiter, rlCfg)
}
