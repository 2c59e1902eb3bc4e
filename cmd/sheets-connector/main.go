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
	"github.com/eventfinder/ef-aggregator/internal/providers/sheets"
	"github.com/eventfinder/ef-aggregator/internal/store"
	"github.com/eventfinder/ef-aggregator/internal/taxonomy"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	purge      = flag.Bool("purge", false, "Purge this connector's contributions before syncing")
	name       = flag.String("name", "", "Restrict the sync to one venue by exact name")
	badCity    = flag.Bool("bad-city", false, "Report city mismatches without writing")
)

func main() {
	flag.Parse()

	config.ChdirRepoRoot()
	cfg, err := config.LoadSheetsConnectorConfig(*configFile, *envPath)
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
			"service": "sheets-connector",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting venue sheet connector")

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

	sheetsClient, err := sheets.NewClient(httpClient, cfg.Sheets.APIURL, []byte(cfg.Sheets.ServiceAccountJSON), jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create sheets client", zap.Error(err))
	}

	venueConnector := connector.NewVenueConnector(
		dataStore,
		sheetsClient,
		taxonomy.NewNormalizer(),
		jsonAdapter,
		cfg.Sheets.SpreadsheetID,
		cfg.Sheets.Range,
	)

	result, err := venueConnector.Sync(ctx, connector.SyncOptions{
		Purge:   *purge,
		Name:    *name,
		BadCity: *badCity,
	})
	if err != nil {
		logger.FatalCtx(ctx, "Venue sync failed", zap.Error(err))
	}

	logger.InfoCtx(ctx, "Venue sync finished",
		zap.Int("processed", result.Processed),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
}
