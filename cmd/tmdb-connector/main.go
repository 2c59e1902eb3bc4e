package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eventfinder/ef-aggregator/internal/adapter"
	"github.com/eventfinder/ef-aggregator/internal/config"
	"github.com/eventfinder/ef-aggregator/internal/connector"
	"github.com/eventfinder/ef-aggregator/internal/logger"
	"github.com/eventfinder/ef-aggregator/internal/providers/tmdb"
	"github.com/eventfinder/ef-aggregator/internal/store"
	"github.com/eventfinder/ef-aggregator/internal/taxonomy"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	purge      = flag.Bool("purge", false, "Purge this connector's contributions before syncing")
	startDate  = flag.String("start-date", "", "Discovery window lower bound (YYYY-MM-DD, default today-365d)")
	endDate    = flag.String("end-date", "", "Discovery window upper bound (YYYY-MM-DD, default today+365d)")
)

func main() {
	flag.Parse()

	config.ChdirRepoRoot()
	cfg, err := config.LoadTMDBConnectorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "tmdb-connector",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting movie connector")

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)

	httpClient := adapter.NewHTTPClient(30 * time.Second)
	jsonAdapter := adapter.NewJSON()

	tmdbClient := tmdb.NewClient(httpClient, cfg.TMDB.APIURL, cfg.TMDB.APIKey, jsonAdapter)

	movieConnector := connector.NewMovieConnector(
		connector.MovieConnectorConfig{
			ImageURL:       cfg.TMDB.ImageURL,
			WorkerPoolSize: cfg.Worker.PoolSize,
			QueueSize:      cfg.Worker.QueueSize,
		},
		dataStore,
		tmdbClient,
		taxonomy.NewNormalizer(),
		adapter.NewClock(),
		jsonAdapter,
	)

	result, err := movieConnector.Sync(ctx, connector.SyncOptions{
		Purge:     *purge,
		StartDate: *startDate,
		EndDate:   *endDate,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Movie sync failed", zap.Error(err))
	}

	logger.InfoCtx(ctx, "Movie sync finished",
		zap.Int("processed", result.Processed),
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
	)
}
