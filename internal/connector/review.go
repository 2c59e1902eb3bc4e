package connector

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eventfinder/ef-aggregator/internal/domain"
	"github.com/eventfinder/ef-aggregator/internal/logger"
	"github.com/eventfinder/ef-aggregator/internal/providers/yelp"
	"github.com/eventfinder/ef-aggregator/internal/store"
)

// ReviewConnector enriches stored venue events with Yelp business data. It
// never creates events or touches tags; it only fills the Yelp metadata slot
// on events other connectors discovered.
type ReviewConnector struct {
	store  store.Store
	client yelp.Client
}

// NewReviewConnector creates a new Yelp review connector
func NewReviewConnector(st store.Store, client yelp.Client) *ReviewConnector {
	return &ReviewConnector{
		store:  st,
		client: client,
	}
}

// Name returns the connector's name
func (c *ReviewConnector) Name() string {
	return "yelp-connector"
}

// Sync walks the non-movie events and merges Yelp business data into each
func (c *ReviewConnector) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	var nameFilter *string
	if opts.Name != "" {
		nameFilter = &opts.Name
	}

	events, err := c.store.ListEventsExcludingPrimaryType(ctx, domain.TagTypeMoviesTV, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate events: %w", err)
	}

	result := &SyncResult{}
	for _, event := range events {
		result.Processed++

		business := c.lookupBusiness(ctx, event.Name, deref(event.Address), deref(event.City), deref(event.State))
		if business == nil {
			result.Skipped++
			continue
		}

		businessID, _ := business["id"].(string)
		if businessID == "" {
			logger.WarnCtx(ctx, "yelp business has no id", zap.String("event", event.Name))
			result.Skipped++
			continue
		}

		details, err := c.client.BusinessDetails(ctx, businessID)
		if err != nil {
			logger.WarnCtx(ctx, "yelp business details failed",
				zap.String("event", event.Name),
				zap.String("business_id", businessID),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}

		// Union of search hit and details; details win on shared keys.
		merged := make(map[string]interface{}, len(business)+len(details))
		for k, v := range business {
			merged[k] = v
		}
		for k, v := range details {
			merged[k] = v
		}

		if err := c.store.MergeEventMetadata(ctx, event.ID, domain.ConnectorTypeYelp, merged); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("event", event.Name))
			result.Failed++
			continue
		}
		result.Synced++
	}

	logger.InfoCtx(ctx, "review sync complete",
		zap.Int("processed", result.Processed),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

// lookupBusiness tries an exact business match first and falls back to a
// single-result keyword search. Either lookup failing is a skip, not an error.
func (c *ReviewConnector) lookupBusiness(ctx context.Context, name, address, city, state string) map[string]interface{} {
	businesses, err := c.client.BusinessMatch(ctx, yelp.MatchParams{
		Name:     name,
		Address1: address,
		City:     city,
		State:    state,
	})
	if err != nil {
		logger.WarnCtx(ctx, "yelp business match failed", zap.String("event", name), zap.Error(err))
	}
	if len(businesses) > 0 {
		return businesses[0]
	}

	term := strings.TrimSpace(strings.Join([]string{name, city, state}, " "))
	location := strings.TrimSpace(strings.Join([]string{city, state}, " "))

	businesses, err = c.client.Search(ctx, term, location, 1)
	if err != nil {
		logger.WarnCtx(ctx, "yelp search failed", zap.String("event", name), zap.Error(err))
		return nil
	}
	if len(businesses) == 0 {
		return nil
	}
	return businesses[0]
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
