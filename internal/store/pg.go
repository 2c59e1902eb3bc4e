package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eventfinder/ef-aggregator/internal/domain"
	"github.com/eventfinder/ef-aggregator/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// ResolveConnectorEvent gets or creates the ledger row for
// (connectorType, externalID), overwriting the cached raw payload wholesale
// on an existing row. This is what makes reruns idempotent: the same external
// id always resolves to the same row regardless of payload freshness.
func (s *pgStore) ResolveConnectorEvent(ctx context.Context, connectorType domain.ConnectorType, externalID string, raw []byte) (*schema.ConnectorEvent, error) {
	row := schema.ConnectorEvent{
		ConnectorType:       connectorType,
		ConnectorExternalID: externalID,
		Data:                raw,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "connector_type"}, {Name: "connector_external_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"data":       raw,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve connector event: %w", err)
	}

	// Re-fetch so the returned row carries the event pointer regardless of
	// whether the insert or the conflict path ran.
	var resolved schema.ConnectorEvent
	err = s.db.WithContext(ctx).
		Where("connector_type = ? AND connector_external_id = ?", connectorType, externalID).
		First(&resolved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load connector event: %w", err)
	}

	return &resolved, nil
}

// AttachEvent sets the ledger row's event pointer exactly once
func (s *pgStore) AttachEvent(ctx context.Context, connectorEventID int64, eventID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row schema.ConnectorEvent
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", connectorEventID).
			First(&row).Error
		if err != nil {
			return fmt.Errorf("failed to lock connector event: %w", err)
		}

		if row.EventID != nil {
			if *row.EventID == eventID {
				return nil
			}
			return domain.ErrLedgerConflict
		}

		err = tx.Model(&row).Updates(map[string]interface{}{
			"event_id":   eventID,
			"updated_at": time.Now().UTC(),
		}).Error
		if err != nil {
			return fmt.Errorf("failed to attach event: %w", err)
		}

		return nil
	})
}

// applyEventFields assigns the provider-owned canonical fields onto an event.
// Field assignment is explicit and enumerated; nil pointers mean the provider
// does not own the field and the stored value is left alone.
func applyEventFields(event *schema.Event, f domain.EventFields) {
	event.Name = f.Name
	event.ShortName = f.ShortName
	event.Description = f.Description

	if f.Address != nil {
		event.Address = f.Address
	}
	if f.City != nil {
		event.City = f.City
	}
	if f.State != nil {
		event.State = f.State
	}
	if f.StartTime != nil {
		event.StartTime = f.StartTime
	}
	if f.EndTime != nil {
		event.EndTime = f.EndTime
	}
	if f.ImgURL != nil {
		event.ImgURL = f.ImgURL
	}
	if f.BackdropURL != nil {
		event.BackdropURL = f.BackdropURL
	}
}

// SyncEventRecord applies one normalized record as a single transaction:
// event create-or-update, total tag replacement, and metadata merge either
// all land or none do.
func (s *pgStore) SyncEventRecord(ctx context.Context, input SyncEventRecordInput) (*schema.Event, error) {
	if !input.PrimaryType.Valid() {
		return nil, fmt.Errorf("invalid primary type %q", input.PrimaryType)
	}

	var event schema.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the ledger row so concurrent runs on the same external id serialize
		var row schema.ConnectorEvent
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.ConnectorEventID).
			First(&row).Error
		if err != nil {
			return fmt.Errorf("failed to lock connector event: %w", err)
		}

		// 2. Create the event on first sighting, otherwise load and update it
		if row.EventID == nil {
			event = schema.Event{
				PublicID:    uuid.NewString(),
				PrimaryType: input.PrimaryType,
			}
			applyEventFields(&event, input.Fields)

			if err := tx.Create(&event).Error; err != nil {
				return fmt.Errorf("failed to create event: %w", err)
			}

			err = tx.Model(&row).Updates(map[string]interface{}{
				"event_id":   event.ID,
				"updated_at": time.Now().UTC(),
			}).Error
			if err != nil {
				return fmt.Errorf("failed to attach event to ledger: %w", err)
			}
		} else {
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", *row.EventID).
				First(&event).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrEventNotFound
				}
				return fmt.Errorf("failed to load event: %w", err)
			}

			applyEventFields(&event, input.Fields)
			event.PrimaryType = input.PrimaryType

			if err := tx.Save(&event).Error; err != nil {
				return fmt.Errorf("failed to update event: %w", err)
			}
		}

		// 3. Replace the tag set in full so no stale tags from a prior run persist
		if err := tx.Where("event_id = ?", event.ID).Delete(&schema.EventTag{}).Error; err != nil {
			return fmt.Errorf("failed to remove tags: %w", err)
		}

		seen := make(map[string]bool, len(input.Tags))
		tags := make([]schema.EventTag, 0, len(input.Tags))
		for _, tag := range input.Tags {
			name := strings.ToLower(strings.TrimSpace(tag.Name))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			tags = append(tags, schema.EventTag{
				EventID: event.ID,
				TagName: name,
				TagType: tag.Type,
			})
		}
		if len(tags) > 0 {
			if err := tx.Create(&tags).Error; err != nil {
				return fmt.Errorf("failed to insert tags: %w", err)
			}
		}
		event.Tags = tags

		// 4. Merge the provider's metadata slot, leaving other providers' slots alone
		if input.Metadata != nil {
			if event.MetadataBySource == nil {
				event.MetadataBySource = map[string]interface{}{}
			}
			event.MetadataBySource[string(input.ConnectorType)] = input.Metadata

			err = tx.Model(&event).Update("metadata_by_source", event.MetadataBySource).Error
			if err != nil {
				return fmt.Errorf("failed to merge metadata: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &event, nil
}

// MergeEventMetadata overwrites only metadata_by_source[connector]
func (s *pgStore) MergeEventMetadata(ctx context.Context, eventID int64, connectorType domain.ConnectorType, payload map[string]interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event schema.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", eventID).
			First(&event).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrEventNotFound
			}
			return fmt.Errorf("failed to load event: %w", err)
		}

		if event.MetadataBySource == nil {
			event.MetadataBySource = map[string]interface{}{}
		}
		event.MetadataBySource[string(connectorType)] = payload

		err = tx.Model(&event).Update("metadata_by_source", event.MetadataBySource).Error
		if err != nil {
			return fmt.Errorf("failed to merge metadata: %w", err)
		}

		return nil
	})
}

// GetEventByID retrieves an event with its tags by internal id
func (s *pgStore) GetEventByID(ctx context.Context, eventID int64) (*schema.Event, error) {
	var event schema.Event
	err := s.db.WithContext(ctx).Preload("Tags").Where("id = ?", eventID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// GetEventByPublicID retrieves an event with its tags by public id
func (s *pgStore) GetEventByPublicID(ctx context.Context, publicID string) (*schema.Event, error) {
	var event schema.Event
	err := s.db.WithContext(ctx).Preload("Tags").Where("public_id = ?", publicID).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

// ListEventsExcludingPrimaryType lists events whose primary type differs from
// the given one, optionally restricted to an exact name, ordered by id
func (s *pgStore) ListEventsExcludingPrimaryType(ctx context.Context, primaryType domain.TagType, name *string) ([]schema.Event, error) {
	query := s.db.WithContext(ctx).Where("primary_type <> ?", primaryType)
	if name != nil {
		query = query.Where("name = ?", *name)
	}

	var events []schema.Event
	if err := query.Order("id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	return events, nil
}

// ListEvents retrieves events for the browse surface
func (s *pgStore) ListEvents(ctx context.Context, filter EventQueryFilter) ([]schema.Event, int64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Event{})

	if filter.Query != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Query+"%")
	}
	if filter.Tag != "" {
		query = query.
			Joins("JOIN event_tags ON event_tags.event_id = events.id").
			Where("event_tags.tag_name = ?", strings.ToLower(filter.Tag))
	}
	if len(filter.Cities) > 0 {
		query = query.Where("events.city IN ?", filter.Cities)
	}

	var total int64
	if err := query.Distinct("events.id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var events []schema.Event
	err := query.Preload("Tags").
		Select("events.*").
		Order("events.name ASC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&events).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}

	return events, total, nil
}

// PurgeConnector removes one provider's contributions. Events only that
// provider discovered are deleted outright; events shared with other
// providers lose just the provider's metadata slot.
func (s *pgStore) PurgeConnector(ctx context.Context, connectorType domain.ConnectorType) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []schema.ConnectorEvent
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("connector_type = ?", connectorType).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to list connector events: %w", err)
		}

		for _, row := range rows {
			if row.EventID == nil {
				continue
			}

			var others int64
			err := tx.Model(&schema.ConnectorEvent{}).
				Where("event_id = ? AND connector_type <> ?", *row.EventID, connectorType).
				Count(&others).Error
			if err != nil {
				return fmt.Errorf("failed to count co-owning connectors: %w", err)
			}

			if others == 0 {
				if err := tx.Where("event_id = ?", *row.EventID).Delete(&schema.EventTag{}).Error; err != nil {
					return fmt.Errorf("failed to delete event tags: %w", err)
				}
				if err := tx.Where("id = ?", *row.EventID).Delete(&schema.Event{}).Error; err != nil {
					return fmt.Errorf("failed to delete event: %w", err)
				}
				continue
			}

			var event schema.Event
			if err := tx.Where("id = ?", *row.EventID).First(&event).Error; err != nil {
				return fmt.Errorf("failed to load shared event: %w", err)
			}
			if event.MetadataBySource != nil {
				delete(event.MetadataBySource, string(connectorType))
				if err := tx.Model(&event).Update("metadata_by_source", event.MetadataBySource).Error; err != nil {
					return fmt.Errorf("failed to strip metadata slot: %w", err)
				}
			}
		}

		err = tx.Where("connector_type = ?", connectorType).Delete(&schema.ConnectorEvent{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete connector events: %w", err)
		}

		return nil
	})
}

// GetUserByUsername retrieves a user by handle
func (s *pgStore) GetUserByUsername(ctx context.Context, username string) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// SetFollow creates or toggles the follower edge from follower to followed
func (s *pgStore) SetFollow(ctx context.Context, followerID, followedID int64, active bool) error {
	if followerID == followedID {
		return errors.New("users cannot follow themselves")
	}

	follow := schema.Follow{
		FollowerID: followerID,
		FollowedID: followedID,
		Active:     active,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "follower_id"}, {Name: "followed_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&follow).Error
	if err != nil {
		return fmt.Errorf("failed to set follow: %w", err)
	}

	return nil
}

// SetBlock creates or toggles the block edge from blocker to blocked
func (s *pgStore) SetBlock(ctx context.Context, blockerID, blockedID int64, active bool) error {
	if blockerID == blockedID {
		return errors.New("users cannot block themselves")
	}

	block := schema.Block{
		BlockerID: blockerID,
		BlockedID: blockedID,
		Active:    active,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"active":     active,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&block).Error
	if err != nil {
		return fmt.Errorf("failed to set block: %w", err)
	}

	return nil
}

// ListFollowing lists the users the given user actively follows
func (s *pgStore) ListFollowing(ctx context.Context, userID int64) ([]schema.User, error) {
	var users []schema.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ? AND follows.active = ?", userID, true).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list following: %w", err)
	}
	return users, nil
}

// ListFollowers lists the users actively following the given user
func (s *pgStore) ListFollowers(ctx context.Context, userID int64) ([]schema.User, error) {
	var users []schema.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ? AND follows.active = ?", userID, true).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}
	return users, nil
}

// ListBlocking lists the users the given user actively blocks
func (s *pgStore) ListBlocking(ctx context.Context, userID int64) ([]schema.User, error) {
	var users []schema.User
	err := s.db.WithContext(ctx).
		Joins("JOIN blocks ON blocks.blocked_id = users.id").
		Where("blocks.blocker_id = ? AND blocks.active = ?", userID, true).
		Order("users.username ASC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list blocking: %w", err)
	}
	return users, nil
}

// Blocks reports whether either user actively blocks the other
func (s *pgStore) Blocks(ctx context.Context, userID, otherID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.Block{}).
		Where("active = ?", true).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userID, otherID, otherID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check blocks: %w", err)
	}
	return count > 0, nil
}
