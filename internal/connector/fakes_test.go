package connector_test

import (
	"context"
	"fmt"
	"time"

	"github.com/eventfinder/ef-aggregator/internal/domain"
	"github.com/eventfinder/ef-aggregator/internal/providers/tmdb"
	"github.com/eventfinder/ef-aggregator/internal/providers/yelp"
	"github.com/eventfinder/ef-aggregator/internal/store"
	"github.com/eventfinder/ef-aggregator/internal/store/schema"
)

// fakeStore is an in-memory stand-in for the Postgres store. It records the
// inputs the connectors hand it so tests can assert on normalization output
// without a database.
type fakeStore struct {
	ledger       map[string]*schema.ConnectorEvent
	events       map[int64]*schema.Event
	syncInputs   []store.SyncEventRecordInput
	merges       map[int64]map[domain.ConnectorType]map[string]interface{}
	purged       []domain.ConnectorType
	listResult   []schema.Event
	nextLedgerID int64
	nextEventID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ledger: map[string]*schema.ConnectorEvent{},
		events: map[int64]*schema.Event{},
		merges: map[int64]map[domain.ConnectorType]map[string]interface{}{},
	}
}

func ledgerKey(connectorType domain.ConnectorType, externalID string) string {
	return string(connectorType) + "|" + externalID
}

func (f *fakeStore) ResolveConnectorEvent(_ context.Context, connectorType domain.ConnectorType, externalID string, raw []byte) (*schema.ConnectorEvent, error) {
	key := ledgerKey(connectorType, externalID)
	if row, ok := f.ledger[key]; ok {
		row.Data = raw
		return row, nil
	}

	f.nextLedgerID++
	row := &schema.ConnectorEvent{
		ID:                  f.nextLedgerID,
		ConnectorType:       connectorType,
		ConnectorExternalID: externalID,
		Data:                raw,
	}
	f.ledger[key] = row
	return row, nil
}

func (f *fakeStore) AttachEvent(_ context.Context, connectorEventID int64, eventID int64) error {
	for _, row := range f.ledger {
		if row.ID == connectorEventID {
			if row.EventID != nil && *row.EventID != eventID {
				return domain.ErrLedgerConflict
			}
			row.EventID = &eventID
			return nil
		}
	}
	return fmt.Errorf("ledger row %d not found", connectorEventID)
}

func (f *fakeStore) SyncEventRecord(_ context.Context, input store.SyncEventRecordInput) (*schema.Event, error) {
	f.syncInputs = append(f.syncInputs, input)

	for _, row := range f.ledger {
		if row.ID != input.ConnectorEventID {
			continue
		}
		if row.EventID == nil {
			f.nextEventID++
			id := f.nextEventID
			row.EventID = &id
			f.events[id] = &schema.Event{ID: id}
		}
		event := f.events[*row.EventID]
		event.Name = input.Fields.Name
		event.PrimaryType = input.PrimaryType
		return event, nil
	}
	return nil, fmt.Errorf("ledger row %d not found", input.ConnectorEventID)
}

func (f *fakeStore) MergeEventMetadata(_ context.Context, eventID int64, connectorType domain.ConnectorType, payload map[string]interface{}) error {
	if f.merges[eventID] == nil {
		f.merges[eventID] = map[domain.ConnectorType]map[string]interface{}{}
	}
	f.merges[eventID][connectorType] = payload
	return nil
}

func (f *fakeStore) GetEventByID(_ context.Context, eventID int64) (*schema.Event, error) {
	return f.events[eventID], nil
}

func (f *fakeStore) GetEventByPublicID(context.Context, string) (*schema.Event, error) {
	return nil, nil
}

func (f *fakeStore) ListEventsExcludingPrimaryType(_ context.Context, primaryType domain.TagType, name *string) ([]schema.Event, error) {
	out := []schema.Event{}
	for _, event := range f.listResult {
		if event.PrimaryType == primaryType {
			continue
		}
		if name != nil && event.Name != *name {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (f *fakeStore) ListEvents(context.Context, store.EventQueryFilter) ([]schema.Event, int64, error) {
	return nil, 0, nil
}

func (f *fakeStore) PurgeConnector(_ context.Context, connectorType domain.ConnectorType) error {
	f.purged = append(f.purged, connectorType)
	return nil
}

func (f *fakeStore) GetUserByUsername(context.Context, string) (*schema.User, error) {
	return nil, nil
}

func (f *fakeStore) SetFollow(context.Context, int64, int64, bool) error { return nil }
func (f *fakeStore) SetBlock(context.Context, int64, int64, bool) error  { return nil }

func (f *fakeStore) ListFollowing(context.Context, int64) ([]schema.User, error) { return nil, nil }
func (f *fakeStore) ListFollowers(context.Context, int64) ([]schema.User, error) { return nil, nil }
func (f *fakeStore) ListBlocking(context.Context, int64) ([]schema.User, error)  { return nil, nil }

func (f *fakeStore) Blocks(context.Context, int64, int64) (bool, error) { return false, nil }

// fakeSheetsClient returns canned rows
type fakeSheetsClient struct {
	rows [][]string
	err  error
}

func (f *fakeSheetsClient) GetValues(context.Context, string, string) ([][]string, error) {
	return f.rows, f.err
}

// fakeTMDBClient serves canned discover pages keyed by page number
type fakeTMDBClient struct {
	pages  map[int]*tmdb.DiscoverResponse
	params []tmdb.DiscoverParams
}

func (f *fakeTMDBClient) DiscoverMovies(_ context.Context, params tmdb.DiscoverParams) (*tmdb.DiscoverResponse, error) {
	f.params = append(f.params, params)
	page := params.Page
	if page == 0 {
		page = 1
	}
	response, ok := f.pages[page]
	if !ok {
		return nil, fmt.Errorf("no page %d", page)
	}
	return response, nil
}

// fakeYelpClient serves canned lookups
type fakeYelpClient struct {
	matchResults  []map[string]interface{}
	matchErr      error
	searchResults []map[string]interface{}
	searchErr     error
	details       map[string]interface{}
	detailsErr    error

	matchCalls  []yelp.MatchParams
	searchTerms []string
	detailIDs   []string
}

func (f *fakeYelpClient) BusinessMatch(_ context.Context, params yelp.MatchParams) ([]map[string]interface{}, error) {
	f.matchCalls = append(f.matchCalls, params)
	return f.matchResults, f.matchErr
}

func (f *fakeYelpClient) Search(_ context.Context, term, _ string, _ int) ([]map[string]interface{}, error) {
	f.searchTerms = append(f.searchTerms, term)
	return f.searchResults, f.searchErr
}

func (f *fakeYelpClient) BusinessDetails(_ context.Context, businessID string) (map[string]interface{}, error) {
	f.detailIDs = append(f.detailIDs, businessID)
	return f.details, f.detailsErr
}

// fakeClock pins time for deterministic date windows
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time                  { return f.now }
func (f *fakeClock) Since(t time.Time) time.Duration { return f.now.Sub(t) }
func (f *fakeClock) Parse(layout, value string) (time.Time, error) {
	return time.Parse(layout, value)
}
