package schema

import (
	"time"

	"github.com/eventfinder/ef-aggregator/internal/domain"
)

// EventTag represents the event_tags table - the tag set of one event.
// Tag names are stored lower-cased; identity is (event_id, tag_name).
type EventTag struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EventID references the tagged event
	EventID int64 `gorm:"column:event_id;not null;uniqueIndex:idx_event_tags_event_name,priority:1"`
	// TagName is the lower-cased tag name
	TagName string `gorm:"column:tag_name;not null;type:text;uniqueIndex:idx_event_tags_event_name,priority:2;index"`
	// TagType is the category classification the tag was added under
	TagType domain.TagType `gorm:"column:tag_type;not null;type:text"`
	// CreatedAt is the timestamp when this tag was added
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Event Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the EventTag model
func (EventTag) TableName() string {
	return "event_tags"
}
