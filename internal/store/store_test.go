package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventfinder/ef-aggregator/internal/domain"
	"github.com/eventfinder/ef-aggregator/internal/store/schema"
)

func strPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// resolveLedger creates (or reuses) a ledger row for tests
func resolveLedger(t *testing.T, st Store, connectorType domain.ConnectorType, externalID string) *schema.ConnectorEvent {
	t.Helper()

	row, err := st.ResolveConnectorEvent(context.Background(), connectorType, externalID, []byte(`{"seed":true}`))
	require.NoError(t, err)
	require.NotNil(t, row)

	return row
}

// venueInput builds a typical venue-feed record for the given ledger row
func venueInput(connectorEventID int64, name string) SyncEventRecordInput {
	return SyncEventRecordInput{
		ConnectorEventID: connectorEventID,
		ConnectorType:    domain.ConnectorTypeVenueSheet,
		Fields: domain.EventFields{
			Name:        name,
			ShortName:   name,
			Description: "Neighborhood favorite",
			Address:     strPtr("123 Main St"),
			City:        strPtr("Oakland"),
			State:       strPtr("CA"),
		},
		PrimaryType: domain.TagTypeFoodDrink,
		Tags: []domain.Tag{
			{Name: "brunch", Type: domain.TagTypeFoodDrink},
			{Name: "cafe", Type: domain.TagTypeFoodDrink},
		},
		Metadata: map[string]interface{}{
			"place id": "pid-" + name,
			"tier":     "♡",
		},
	}
}

// movieInput builds a typical movie-discovery record for the given ledger row
func movieInput(connectorEventID int64, title string) SyncEventRecordInput {
	release := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	return SyncEventRecordInput{
		ConnectorEventID: connectorEventID,
		ConnectorType:    domain.ConnectorTypeTMDB,
		Fields: domain.EventFields{
			Name:        title,
			ShortName:   title,
			Description: "A film",
			StartTime:   timePtr(release),
			EndTime:     timePtr(release.AddDate(0, 0, 180)),
			ImgURL:      strPtr("https://image.example/w342/poster.jpg"),
		},
		PrimaryType: domain.TagTypeMoviesTV,
		Tags: []domain.Tag{
			{Name: "action", Type: domain.TagTypeMoviesTV},
		},
		Metadata: map[string]interface{}{
			"title": title,
		},
	}
}

// createTestUser seeds a user directly, the way the OAuth callback would
func createTestUser(t *testing.T, st Store, username string) *schema.User {
	t.Helper()

	pg, ok := st.(*pgStore)
	require.True(t, ok)

	user := schema.User{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
	}
	require.NoError(t, pg.db.Create(&user).Error)

	return &user
}

func TestResolveConnectorEvent(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	row, err := st.ResolveConnectorEvent(ctx, domain.ConnectorTypeVenueSheet, "pid-1", []byte(`{"v":1}`))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Nil(t, row.EventID)
	assert.JSONEq(t, `{"v":1}`, string(row.Data))

	// Same external id resolves to the same row, payload overwritten wholesale
	again, err := st.ResolveConnectorEvent(ctx, domain.ConnectorTypeVenueSheet, "pid-1", []byte(`{"v":2}`))
	require.NoError(t, err)
	assert.Equal(t, row.ID, again.ID)
	assert.JSONEq(t, `{"v":2}`, string(again.Data))

	// A different provider with the same external id gets its own row
	other, err := st.ResolveConnectorEvent(ctx, domain.ConnectorTypeTMDB, "pid-1", []byte(`{"v":3}`))
	require.NoError(t, err)
	assert.NotEqual(t, row.ID, other.ID)
}

func TestAttachEvent(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-attach")
	event, err := st.SyncEventRecord(ctx, venueInput(ledger.ID, "Attach Cafe"))
	require.NoError(t, err)

	other := resolveLedger(t, st, domain.ConnectorTypeYelp, "yelp-attach")
	require.NoError(t, st.AttachEvent(ctx, other.ID, event.ID))

	// Re-attaching the same event is a no-op
	require.NoError(t, st.AttachEvent(ctx, other.ID, event.ID))

	// Pointing the row at a different event is refused
	ledger2 := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-attach-2")
	event2, err := st.SyncEventRecord(ctx, venueInput(ledger2.ID, "Other Cafe"))
	require.NoError(t, err)

	err = st.AttachEvent(ctx, other.ID, event2.ID)
	assert.ErrorIs(t, err, domain.ErrLedgerConflict)
}

func TestSyncEventRecordCreatesEvent(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-create")

	event, err := st.SyncEventRecord(ctx, venueInput(ledger.ID, "Corner Cafe"))
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.NotEmpty(t, event.PublicID)
	assert.Equal(t, "Corner Cafe", event.Name)
	assert.Equal(t, domain.TagTypeFoodDrink, event.PrimaryType)
	require.NotNil(t, event.City)
	assert.Equal(t, "Oakland", *event.City)

	// Ledger row now points at the event
	row, err := st.ResolveConnectorEvent(ctx, domain.ConnectorTypeVenueSheet, "pid-create", []byte(`{}`))
	require.NoError(t, err)
	require.NotNil(t, row.EventID)
	assert.Equal(t, event.ID, *row.EventID)

	// Tags and metadata slot landed
	loaded, err := st.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.ElementsMatch(t, []string{"brunch", "cafe"}, tagNames(loaded.Tags))
	require.Contains(t, loaded.MetadataBySource, string(domain.ConnectorTypeVenueSheet))
}

func TestSyncEventRecordIdempotent(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-rerun")
	input := venueInput(ledger.ID, "Rerun Cafe")

	first, err := st.SyncEventRecord(ctx, input)
	require.NoError(t, err)

	second, err := st.SyncEventRecord(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PublicID, second.PublicID)

	pg := st.(*pgStore)
	var count int64
	require.NoError(t, pg.db.Model(&schema.Event{}).Where("name = ?", "Rerun Cafe").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSyncEventRecordReplacesTags(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-tags")
	input := venueInput(ledger.ID, "Tag Cafe")

	_, err := st.SyncEventRecord(ctx, input)
	require.NoError(t, err)

	// The source record changed its categories; the old set must not linger
	input.Tags = []domain.Tag{
		{Name: "Cafe", Type: domain.TagTypeFoodDrink},
		{Name: "bakery", Type: domain.TagTypeFoodDrink},
		{Name: "BAKERY", Type: domain.TagTypeFoodDrink},
	}

	event, err := st.SyncEventRecord(ctx, input)
	require.NoError(t, err)

	loaded, err := st.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"cafe", "bakery"}, tagNames(loaded.Tags))
}

func TestSyncEventRecordFieldOwnership(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-fields")

	_, err := st.SyncEventRecord(ctx, venueInput(ledger.ID, "Field Cafe"))
	require.NoError(t, err)

	// A record that does not carry location fields leaves them untouched
	update := venueInput(ledger.ID, "Field Cafe Renamed")
	update.Fields.Address = nil
	update.Fields.City = nil
	update.Fields.State = nil

	event, err := st.SyncEventRecord(ctx, update)
	require.NoError(t, err)

	loaded, err := st.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Field Cafe Renamed", loaded.Name)
	require.NotNil(t, loaded.City)
	assert.Equal(t, "Oakland", *loaded.City)
	require.NotNil(t, loaded.Address)
	assert.Equal(t, "123 Main St", *loaded.Address)
}

func TestMergeEventMetadataIsolation(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-meta")
	event, err := st.SyncEventRecord(ctx, venueInput(ledger.ID, "Meta Cafe"))
	require.NoError(t, err)

	err = st.MergeEventMetadata(ctx, event.ID, domain.ConnectorTypeYelp, map[string]interface{}{
		"rating": 4.5,
	})
	require.NoError(t, err)

	// A venue re-sync must not disturb the review slot
	_, err = st.SyncEventRecord(ctx, venueInput(ledger.ID, "Meta Cafe"))
	require.NoError(t, err)

	loaded, err := st.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.Contains(t, loaded.MetadataBySource, string(domain.ConnectorTypeYelp))
	require.Contains(t, loaded.MetadataBySource, string(domain.ConnectorTypeVenueSheet))

	yelpSlot := loaded.MetadataBySource[string(domain.ConnectorTypeYelp)].(map[string]interface{})
	assert.Equal(t, 4.5, yelpSlot["rating"])

	// A fresh review merge overwrites only its own slot
	err = st.MergeEventMetadata(ctx, event.ID, domain.ConnectorTypeYelp, map[string]interface{}{
		"rating": 4.0,
	})
	require.NoError(t, err)

	loaded, err = st.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	yelpSlot = loaded.MetadataBySource[string(domain.ConnectorTypeYelp)].(map[string]interface{})
	assert.Equal(t, 4.0, yelpSlot["rating"])
	require.Contains(t, loaded.MetadataBySource, string(domain.ConnectorTypeVenueSheet))

	err = st.MergeEventMetadata(ctx, event.ID+99999, domain.ConnectorTypeYelp, map[string]interface{}{})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestPurgeConnectorSoleOwner(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-purge")
	event, err := st.SyncEventRecord(ctx, venueInput(ledger.ID, "Purge Cafe"))
	require.NoError(t, err)

	require.NoError(t, st.PurgeConnector(ctx, domain.ConnectorTypeVenueSheet))

	gone, err := st.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	pg := st.(*pgStore)
	var ledgerCount int64
	require.NoError(t, pg.db.Model(&schema.ConnectorEvent{}).
		Where("connector_type = ?", domain.ConnectorTypeVenueSheet).
		Count(&ledgerCount).Error)
	assert.Equal(t, int64(0), ledgerCount)

	var tagCount int64
	require.NoError(t, pg.db.Model(&schema.EventTag{}).
		Where("event_id = ?", event.ID).
		Count(&tagCount).Error)
	assert.Equal(t, int64(0), tagCount)
}

func TestPurgeConnectorSharedEvent(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-shared")
	event, err := st.SyncEventRecord(ctx, venueInput(ledger.ID, "Shared Cafe"))
	require.NoError(t, err)

	// A second provider claims the same event and contributes a metadata slot
	yelpRow := resolveLedger(t, st, domain.ConnectorTypeYelp, "yelp-shared")
	require.NoError(t, st.AttachEvent(ctx, yelpRow.ID, event.ID))
	require.NoError(t, st.MergeEventMetadata(ctx, event.ID, domain.ConnectorTypeYelp, map[string]interface{}{
		"rating": 4.5,
	}))

	require.NoError(t, st.PurgeConnector(ctx, domain.ConnectorTypeYelp))

	// The event survives, minus the purged provider's slot
	loaded, err := st.GetEventByID(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.NotContains(t, loaded.MetadataBySource, string(domain.ConnectorTypeYelp))
	assert.Contains(t, loaded.MetadataBySource, string(domain.ConnectorTypeVenueSheet))

	// The surviving provider's ledger row is untouched
	pg := st.(*pgStore)
	var venueRows int64
	require.NoError(t, pg.db.Model(&schema.ConnectorEvent{}).
		Where("connector_type = ?", domain.ConnectorTypeVenueSheet).
		Count(&venueRows).Error)
	assert.Equal(t, int64(1), venueRows)
}

func TestGetEventByPublicID(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-public")
	event, err := st.SyncEventRecord(ctx, venueInput(ledger.ID, "Public Cafe"))
	require.NoError(t, err)

	loaded, err := st.GetEventByPublicID(ctx, event.PublicID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, event.ID, loaded.ID)
	assert.ElementsMatch(t, []string{"brunch", "cafe"}, tagNames(loaded.Tags))

	missing, err := st.GetEventByPublicID(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListEventsExcludingPrimaryType(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	venueRow := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, "pid-excl")
	_, err := st.SyncEventRecord(ctx, venueInput(venueRow.ID, "Excl Cafe"))
	require.NoError(t, err)

	movieRow := resolveLedger(t, st, domain.ConnectorTypeTMDB, "tt-excl")
	_, err = st.SyncEventRecord(ctx, movieInput(movieRow.ID, "Excl Movie"))
	require.NoError(t, err)

	events, err := st.ListEventsExcludingPrimaryType(ctx, domain.TagTypeMoviesTV, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Excl Cafe", events[0].Name)

	// Exact-name restriction
	events, err = st.ListEventsExcludingPrimaryType(ctx, domain.TagTypeMoviesTV, strPtr("No Such Venue"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListEvents(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	for i, name := range []string{"Alpha Cafe", "Beta Bakery", "Gamma Cafe"} {
		ledger := resolveLedger(t, st, domain.ConnectorTypeVenueSheet, fmt.Sprintf("pid-list-%d", i))
		input := venueInput(ledger.ID, name)
		if name == "Beta Bakery" {
			input.Fields.City = strPtr("Berkeley")
			input.Tags = []domain.Tag{{Name: "bakery", Type: domain.TagTypeFoodDrink}}
		}
		_, err := st.SyncEventRecord(ctx, input)
		require.NoError(t, err)
	}

	t.Run("all", func(t *testing.T) {
		events, total, err := st.ListEvents(ctx, EventQueryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, events, 3)
		// Ordered by name
		assert.Equal(t, "Alpha Cafe", events[0].Name)
	})

	t.Run("name substring is case-insensitive", func(t *testing.T) {
		events, total, err := st.ListEvents(ctx, EventQueryFilter{Query: "cafe"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, events, 2)
	})

	t.Run("tag filter", func(t *testing.T) {
		events, total, err := st.ListEvents(ctx, EventQueryFilter{Tag: "Bakery"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, events, 1)
		assert.Equal(t, "Beta Bakery", events[0].Name)
	})

	t.Run("city filter", func(t *testing.T) {
		events, total, err := st.ListEvents(ctx, EventQueryFilter{Cities: []string{"Berkeley"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, events, 1)
		assert.Equal(t, "Beta Bakery", events[0].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		events, total, err := st.ListEvents(ctx, EventQueryFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, events, 1)
		assert.Equal(t, "Gamma Cafe", events[0].Name)
	})
}

func TestFollowLifecycle(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, st, "alice")
	bob := createTestUser(t, st, "bob")

	require.NoError(t, st.SetFollow(ctx, alice.ID, bob.ID, true))

	following, err := st.ListFollowing(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].Username)

	followers, err := st.ListFollowers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	// Unfollow toggles the edge off without deleting it
	require.NoError(t, st.SetFollow(ctx, alice.ID, bob.ID, false))

	following, err = st.ListFollowing(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, following)

	// Re-follow reuses the same pair row
	require.NoError(t, st.SetFollow(ctx, alice.ID, bob.ID, true))

	pg := st.(*pgStore)
	var count int64
	require.NoError(t, pg.db.Model(&schema.Follow{}).
		Where("follower_id = ? AND followed_id = ?", alice.ID, bob.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFollowSelf(t *testing.T) {
	st := initPGTestDB(t)

	alice := createTestUser(t, st, "alice")
	err := st.SetFollow(context.Background(), alice.ID, alice.ID, true)
	assert.Error(t, err)
}

func TestBlockLifecycle(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, st, "alice")
	bob := createTestUser(t, st, "bob")
	carol := createTestUser(t, st, "carol")

	require.NoError(t, st.SetBlock(ctx, bob.ID, alice.ID, true))

	blocking, err := st.ListBlocking(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, blocking, 1)
	assert.Equal(t, "alice", blocking[0].Username)

	// Either direction of the pair denies visibility
	blocked, err := st.Blocks(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = st.Blocks(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = st.Blocks(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	// Unblocking restores visibility
	require.NoError(t, st.SetBlock(ctx, bob.ID, alice.ID, false))

	blocked, err = st.Blocks(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestGetUserByUsername(t *testing.T) {
	st := initPGTestDB(t)
	ctx := context.Background()

	createTestUser(t, st, "alice")

	user, err := st.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.com", user.Email)

	missing, err := st.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func tagNames(tags []schema.EventTag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.TagName)
	}
	return names
}
