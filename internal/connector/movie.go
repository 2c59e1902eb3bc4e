package connector

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/eventfinder/ef-aggregator/internal/adapter"
	"github.com/eventfinder/ef-aggregator/internal/domain"
	"github.com/eventfinder/ef-aggregator/internal/logger"
	"github.com/eventfinder/ef-aggregator/internal/providers/tmdb"
	"github.com/eventfinder/ef-aggregator/internal/store"
	"github.com/eventfinder/ef-aggregator/internal/taxonomy"
)

const (
	// releaseDateLayout is the ISO date format TMDB uses
	releaseDateLayout = "2006-01-02"
	// screeningWindow is how long a release stays browsable after its date
	screeningWindow = 180 * 24 * time.Hour
	// discoveryWindow is the default reach of the date filter on both sides of today
	discoveryWindow = 365 * 24 * time.Hour

	posterSize   = "w342"
	backdropSize = "original"
)

// MovieConnectorConfig holds the movie connector's knobs
type MovieConnectorConfig struct {
	// ImageURL is the base URL for poster and backdrop assets
	ImageURL string
	// WorkerPoolSize is the number of records synced concurrently within a page
	WorkerPoolSize int
	// QueueSize bounds the pool's pending task queue
	QueueSize int
}

// MovieConnector syncs upcoming and recent movie releases from the TMDB
// discover listing. Records within a page are processed concurrently; the
// store's per-record transactions keep writes on one external id serialized.
type MovieConnector struct {
	config     MovieConnectorConfig
	store      store.Store
	client     tmdb.Client
	normalizer *taxonomy.Normalizer
	clock      adapter.Clock
	json       adapter.JSON
}

// NewMovieConnector creates a new TMDB movie connector
func NewMovieConnector(
	config MovieConnectorConfig,
	st store.Store,
	client tmdb.Client,
	normalizer *taxonomy.Normalizer,
	clock adapter.Clock,
	json adapter.JSON,
) *MovieConnector {
	return &MovieConnector{
		config:     config,
		store:      st,
		client:     client,
		normalizer: normalizer,
		clock:      clock,
		json:       json,
	}
}

// Name returns the connector's name
func (c *MovieConnector) Name() string {
	return "tmdb-connector"
}

// dateWindow resolves the discovery date bounds, defaulting to a year on
// either side of today
func (c *MovieConnector) dateWindow(opts SyncOptions) (string, string) {
	startDate := opts.StartDate
	endDate := opts.EndDate

	today := c.clock.Now()
	if startDate == "" {
		startDate = today.Add(-discoveryWindow).Format(releaseDateLayout)
	}
	if endDate == "" {
		endDate = today.Add(discoveryWindow).Format(releaseDateLayout)
	}

	return startDate, endDate
}

// Sync walks the discover listing page by page and upserts every release
func (c *MovieConnector) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	if opts.Purge {
		if err := c.store.PurgeConnector(ctx, domain.ConnectorTypeTMDB); err != nil {
			return nil, fmt.Errorf("failed to purge movie connector: %w", err)
		}
		logger.InfoCtx(ctx, "purged movie connector contributions")
	}

	startDate, endDate := c.dateWindow(opts)
	logger.InfoCtx(ctx, "starting movie sync",
		zap.String("start_date", startDate),
		zap.String("end_date", endDate),
	)

	pool := pond.NewPool(
		c.config.WorkerPoolSize,
		pond.WithQueueSize(c.config.QueueSize),
		pond.WithContext(ctx),
	)
	defer pool.StopAndWait()

	var processed, synced, failed atomic.Int64

	page := 1
	for {
		response, err := c.client.DiscoverMovies(ctx, tmdb.DiscoverParams{
			ReleaseDateGTE: startDate,
			ReleaseDateLTE: endDate,
			Page:           page,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to discover movies (page %d): %w", page, err)
		}

		group := pool.NewGroup()
		for _, movie := range response.Results {
			movie := movie
			group.Submit(func() {
				processed.Add(1)
				if err := c.syncMovie(ctx, movie); err != nil {
					logger.ErrorCtx(ctx, err, zap.Int64("tmdb_id", movie.ID), zap.String("title", movie.Title))
					failed.Add(1)
					return
				}
				synced.Add(1)
			})
		}
		if err := group.Wait(); err != nil {
			return nil, fmt.Errorf("movie sync pool failed: %w", err)
		}

		if response.Page >= response.TotalPages {
			break
		}
		page = response.Page + 1
	}

	result := &SyncResult{
		Processed: int(processed.Load()),
		Synced:    int(synced.Load()),
		Failed:    int(failed.Load()),
	}

	logger.InfoCtx(ctx, "movie sync complete",
		zap.Int("processed", result.Processed),
		zap.Int("synced", result.Synced),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

func (c *MovieConnector) syncMovie(ctx context.Context, movie tmdb.Movie) error {
	externalID := strconv.FormatInt(movie.ID, 10)

	raw, err := c.json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("failed to marshal movie: %w", err)
	}

	ledgerRow, err := c.store.ResolveConnectorEvent(ctx, domain.ConnectorTypeTMDB, externalID, raw)
	if err != nil {
		return fmt.Errorf("failed to resolve ledger row: %w", err)
	}

	startTime, err := c.clock.Parse(releaseDateLayout, movie.ReleaseDate)
	if err != nil {
		return fmt.Errorf("unparseable release date %q: %w", movie.ReleaseDate, err)
	}
	endTime := startTime.Add(screeningWindow)

	genres := genreNames(movie.GenreIDs)
	primaryType, tags := c.normalizer.Tags(domain.ConnectorTypeTMDB, genres)

	fields := domain.EventFields{
		Name:        movie.Title,
		ShortName:   movie.Title,
		Description: movie.Overview,
		StartTime:   &startTime,
		EndTime:     &endTime,
	}
	if movie.PosterPath != nil {
		imgURL := fmt.Sprintf("%s/%s%s", c.config.ImageURL, posterSize, *movie.PosterPath)
		fields.ImgURL = &imgURL
	}
	if movie.BackdropPath != nil {
		backdropURL := fmt.Sprintf("%s/%s%s", c.config.ImageURL, backdropSize, *movie.BackdropPath)
		fields.BackdropURL = &backdropURL
	}

	metadata := map[string]interface{}{}
	if err := c.json.Unmarshal(raw, &metadata); err != nil {
		return fmt.Errorf("failed to build movie metadata: %w", err)
	}

	_, err = c.store.SyncEventRecord(ctx, store.SyncEventRecordInput{
		ConnectorEventID: ledgerRow.ID,
		ConnectorType:    domain.ConnectorTypeTMDB,
		Fields:           fields,
		PrimaryType:      primaryType,
		Tags:             tags,
		Metadata:         metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to sync movie record: %w", err)
	}

	return nil
}
