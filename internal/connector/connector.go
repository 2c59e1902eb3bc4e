// Package connector holds the provider sync engines. Each connector runs as
// a one-shot batch job: fetch the provider's records, resolve each against
// the ledger, normalize, and upsert. Per-record failures are logged and
// skipped; only startup errors abort a run.
package connector

import (
	"context"
)

// SyncOptions holds the per-run flags shared across connectors. Each
// connector reads the subset that applies to it.
type SyncOptions struct {
	// Purge removes the connector's prior contributions before syncing
	Purge bool
	// Name restricts the run to records with this exact name
	Name string
	// BadCity reports venue rows whose sheet city disagrees with the
	// address, without writing anything
	BadCity bool
	// StartDate overrides the discovery window lower bound (ISO date)
	StartDate string
	// EndDate overrides the discovery window upper bound (ISO date)
	EndDate string
}

// SyncResult summarizes one connector run
type SyncResult struct {
	// Processed is the number of provider records seen
	Processed int
	// Synced is the number of records written through to the event store
	Synced int
	// Skipped is the number of records dropped by validation or filters
	Skipped int
	// Failed is the number of records that errored mid-write
	Failed int
}

// Connector is one provider sync engine
type Connector interface {
	// Name returns the connector's name for logging and identification
	Name() string

	// Sync runs one batch synchronization pass
	Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error)
}
