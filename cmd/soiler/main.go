package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/narongchai190/soiler/internal/analytics"
	"github.com/narongchai190/soiler/internal/corpus"
	"github.com/narongchai190/soiler/internal/history"
	"github.com/narongchai190/soiler/internal/knowledge"
	"github.com/narongchai190/soiler/internal/pipeline"
	"github.com/narongchai190/soiler/internal/retrieval"
	"github.com/narongchai190/soiler/internal/retrieval/index"
	"github.com/narongchai190/soiler/internal/server"
	"github.com/narongchai190/soiler/internal/server/cache"
	"github.com/narongchai190/soiler/pkg/config"
	"github.com/narongchai190/soiler/pkg/health"
	"github.com/narongchai190/soiler/pkg/kafka"
	"github.com/narongchai190/soiler/pkg/logger"
	"github.com/narongchai190/soiler/pkg/metrics"
	"github.com/narongchai190/soiler/pkg/postgres"
	pkgredis "github.com/narongchai190/soiler/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting soiler advisory service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base, err := knowledge.Load(cfg.Knowledge.MasterDataPath)
	if err != nil {
		slog.Error("failed to load knowledge base", "error", err)
		os.Exit(1)
	}

	docs, err := corpus.Load(cfg.Corpus.Dir)
	if err != nil {
		slog.Error("failed to load corpus", "dir", cfg.Corpus.Dir, "error", err)
		os.Exit(1)
	}
	idx, err := index.Build(docs)
	if err != nil {
		slog.Error("failed to build index", "error", err)
		os.Exit(1)
	}
	retriever := retrieval.New(idx, cfg.Retrieval)
	slog.Info("index built", "documents", idx.DocCount(), "terms", idx.TermCount())

	m := metrics.New()
	m.DocsIndexed.Set(float64(idx.DocCount()))
	m.IndexTerms.Set(float64(idx.TermCount()))

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var store *history.Store
	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, analysis history disabled", "error", err)
	} else {
		defer pgClient.Close()
		store, err = history.NewStore(ctx, pgClient)
		if err != nil {
			slog.Warn("history store init failed, analysis history disabled", "error", err)
			store = nil
		} else {
			slog.Info("analysis history enabled", "database", cfg.Postgres.Database)
		}
	}

	var (
		collector  *analytics.Collector
		analyticsH *analytics.Handler
	)
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	defer producer.Close()
	collector = analytics.NewCollector(producer, 10000)
	collector.Start(ctx)
	defer collector.Close()

	aggregator := analytics.NewAggregator(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
	go func() {
		if err := aggregator.Start(ctx); err != nil {
			slog.Error("analytics aggregator error", "error", err)
		}
	}()
	analyticsH = analytics.NewHandler(aggregator)
	slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

	runner := pipeline.NewRunner(base, retriever, collector, cfg.Retrieval.DefaultTopK)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		idx := retriever.Index()
		if idx.DocCount() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d documents indexed", idx.DocCount()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "empty corpus"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if pgClient == nil || store == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.New(runner, retriever, queryCache, store, collector, m, cfg.Retrieval, cfg.Corpus.Dir)
	chain := server.NewRouter(h, analyticsH, checker, m, cfg.Server.WriteTimeout)

	if cfg.Metrics.Enabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Port)
		go func() {
			if err := metricsSrv.Start(); err != nil {
				slog.Error("metrics server error", "error", err)
			}
		}()
		defer metricsSrv.Shutdown(context.Background())
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("advisory service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("advisory service stopped")
}
