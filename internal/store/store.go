package store

import (
	"context"

	"github.com/eventfinder/ef-aggregator/internal/domain"
	"github.com/eventfinder/ef-aggregator/internal/store/schema"
)

// SyncEventRecordInput carries everything needed to apply one normalized
// provider record to the event store as a single atomic unit.
type SyncEventRecordInput struct {
	// ConnectorEventID is the ledger row resolved for this record
	ConnectorEventID int64
	// ConnectorType is the provider applying the record
	ConnectorType domain.ConnectorType
	// Fields holds the provider-owned canonical fields; nil pointers are not touched
	Fields domain.EventFields
	// PrimaryType is the classification for this record
	PrimaryType domain.TagType
	// Tags is the freshly normalized tag set; it replaces the event's tags in full
	Tags []domain.Tag
	// Metadata is the raw payload merged into metadata_by_source[connector]
	Metadata map[string]interface{}
}

// EventQueryFilter holds filters for browse queries
type EventQueryFilter struct {
	// Query is a case-insensitive substring match on the event name
	Query string
	// Tag restricts to events carrying the given tag name
	Tag string
	// Cities restricts to events in any of the given cities
	Cities []string
	// Limit is the page size
	Limit int
	// Offset is the pagination offset
	Offset int
}

// Store defines the interface for database operations
type Store interface {
	// ResolveConnectorEvent gets or creates the ledger row for
	// (connectorType, externalID). On an existing row the raw payload is
	// overwritten wholesale; the event pointer is never modified here.
	ResolveConnectorEvent(ctx context.Context, connectorType domain.ConnectorType, externalID string, raw []byte) (*schema.ConnectorEvent, error)

	// AttachEvent sets the ledger row's event pointer exactly once.
	// Returns domain.ErrLedgerConflict if the row already points at a
	// different event.
	AttachEvent(ctx context.Context, connectorEventID int64, eventID int64) error

	// SyncEventRecord applies one normalized record atomically: create or
	// load the linked event, assign the provider-owned fields, replace the
	// tag set in full, and merge the provider's metadata slot. Returns the
	// event after the write.
	SyncEventRecord(ctx context.Context, input SyncEventRecordInput) (*schema.Event, error)

	// MergeEventMetadata overwrites only metadata_by_source[connector] on an
	// existing event, leaving fields and tags untouched.
	MergeEventMetadata(ctx context.Context, eventID int64, connectorType domain.ConnectorType, payload map[string]interface{}) error

	// GetEventByID retrieves an event with its tags by internal id
	GetEventByID(ctx context.Context, eventID int64) (*schema.Event, error)

	// GetEventByPublicID retrieves an event with its tags by public id
	GetEventByPublicID(ctx context.Context, publicID string) (*schema.Event, error)

	// ListEventsExcludingPrimaryType lists events whose primary type is not
	// the given one, optionally restricted to an exact name, ordered by id.
	ListEventsExcludingPrimaryType(ctx context.Context, primaryType domain.TagType, name *string) ([]schema.Event, error)

	// ListEvents retrieves events for the browse surface
	ListEvents(ctx context.Context, filter EventQueryFilter) ([]schema.Event, int64, error)

	// PurgeConnector removes one provider's contributions: its ledger rows,
	// events it alone produced, and its metadata slot on shared events.
	PurgeConnector(ctx context.Context, connectorType domain.ConnectorType) error

	// GetUserByUsername retrieves a user by handle
	GetUserByUsername(ctx context.Context, username string) (*schema.User, error)

	// SetFollow creates or toggles the follower edge from follower to followed
	SetFollow(ctx context.Context, followerID, followedID int64, active bool) error

	// SetBlock creates or toggles the block edge from blocker to blocked
	SetBlock(ctx context.Context, blockerID, blockedID int64, active bool) error

	// ListFollowing lists the users the given user actively follows
	ListFollowing(ctx context.Context, userID int64) ([]schema.User, error)

	// ListFollowers lists the users actively following the given user
	ListFollowers(ctx context.Context, userID int64) ([]schema.User, error)

	// ListBlocking lists the users the given user actively blocks
	ListBlocking(ctx context.Context, userID int64) ([]schema.User, error)

	// Blocks reports whether either user actively blocks the other
	Blocks(ctx context.Context, userID, otherID int64) (bool, error)
}
