package connector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eventfinder/ef-aggregator/internal/adapter"
	"github.com/eventfinder/ef-aggregator/internal/domain"
	"github.com/eventfinder/ef-aggregator/internal/logger"
	"github.com/eventfinder/ef-aggregator/internal/providers/sheets"
	"github.com/eventfinder/ef-aggregator/internal/store"
	"github.com/eventfinder/ef-aggregator/internal/taxonomy"
)

// VenueConnector syncs the curated venue spreadsheet. The first row of the
// configured range is the header; every following row is one venue keyed by
// the lower-cased header names.
type VenueConnector struct {
	store         store.Store
	client        sheets.Client
	normalizer    *taxonomy.Normalizer
	json          adapter.JSON
	spreadsheetID string
	valueRange    string
}

// NewVenueConnector creates a new venue sheet connector
func NewVenueConnector(
	st store.Store,
	client sheets.Client,
	normalizer *taxonomy.Normalizer,
	json adapter.JSON,
	spreadsheetID string,
	valueRange string,
) *VenueConnector {
	return &VenueConnector{
		store:         st,
		client:        client,
		normalizer:    normalizer,
		json:          json,
		spreadsheetID: spreadsheetID,
		valueRange:    valueRange,
	}
}

// Name returns the connector's name
func (c *VenueConnector) Name() string {
	return "venue-sheet-connector"
}

// Sync fetches the sheet and upserts every valid venue row
func (c *VenueConnector) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	if opts.Purge {
		if err := c.store.PurgeConnector(ctx, domain.ConnectorTypeVenueSheet); err != nil {
			return nil, fmt.Errorf("failed to purge venue connector: %w", err)
		}
		logger.InfoCtx(ctx, "purged venue connector contributions")
	}

	rows, err := c.client.GetValues(ctx, c.spreadsheetID, c.valueRange)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch venue sheet: %w", err)
	}
	if len(rows) == 0 {
		return &SyncResult{}, nil
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.ToLower(header)
	}

	result := &SyncResult{}
	for _, rawRow := range rows[1:] {
		result.Processed++

		obj := rowMap(headers, rawRow)
		row := taxonomy.VenueRow{
			PlaceID:    obj["place id"],
			Name:       obj["name"],
			Notes:      obj["notes"],
			Address:    obj["address"],
			City:       obj["city"],
			Tier:       obj["tier"],
			Tags:       obj["tags"],
			Categories: obj["categories"],
		}

		record, err := taxonomy.NormalizeVenueRow(row)
		if err != nil {
			var mismatch *taxonomy.CityMismatchError
			if errors.As(err, &mismatch) {
				logger.WarnCtx(ctx, "venue city mismatch",
					zap.String("name", mismatch.Name),
					zap.String("sheet_city", mismatch.SheetCity),
					zap.String("address_city", mismatch.ParsedCity),
				)
			} else {
				logger.WarnCtx(ctx, "skipping venue row", zap.String("name", row.Name), zap.Error(err))
			}
			result.Skipped++
			continue
		}

		// Diagnostic mode: report mismatches only, write nothing.
		if opts.BadCity {
			result.Skipped++
			continue
		}

		if opts.Name != "" && record.Name != opts.Name {
			result.Skipped++
			continue
		}

		if err := c.syncVenue(ctx, obj, record); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("name", record.Name))
			result.Failed++
			continue
		}
		result.Synced++
	}

	logger.InfoCtx(ctx, "venue sync complete",
		zap.Int("processed", result.Processed),
		zap.Int("synced", result.Synced),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}

func (c *VenueConnector) syncVenue(ctx context.Context, obj map[string]string, record *taxonomy.VenueRecord) error {
	metadata := make(map[string]interface{}, len(obj)+1)
	for k, v := range obj {
		metadata[k] = v
	}
	metadata["alias"] = taxonomy.Alias(obj["address"])

	raw, err := c.json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal venue row: %w", err)
	}

	ledgerRow, err := c.store.ResolveConnectorEvent(ctx, domain.ConnectorTypeVenueSheet, record.ExternalID, raw)
	if err != nil {
		return fmt.Errorf("failed to resolve ledger row: %w", err)
	}

	primaryType, tags := c.normalizer.Tags(domain.ConnectorTypeVenueSheet, record.Categories)

	_, err = c.store.SyncEventRecord(ctx, store.SyncEventRecordInput{
		ConnectorEventID: ledgerRow.ID,
		ConnectorType:    domain.ConnectorTypeVenueSheet,
		Fields: domain.EventFields{
			Name:        record.Name,
			ShortName:   record.ShortName,
			Description: record.Description,
			Address:     &record.Street,
			City:        &record.City,
			State:       &record.State,
		},
		PrimaryType: primaryType,
		Tags:        tags,
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to sync venue record: %w", err)
	}

	return nil
}

// rowMap zips a data row with the header names; short rows yield empty cells
func rowMap(headers []string, row []string) map[string]string {
	obj := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(row) {
			obj[header] = row[i]
		} else {
			obj[header] = ""
		}
	}
	return obj
}
