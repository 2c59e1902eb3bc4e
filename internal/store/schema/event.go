package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/eventfinder/ef-aggregator/internal/domain"
)

// Event represents the events table - the canonical entity for one
// bookable/visitable thing, shared and updated by every connector.
type Event struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PublicID is the stable identifier generated on first creation
	PublicID string `gorm:"column:public_id;not null;uniqueIndex;type:uuid"`
	// Name is the display name of the event
	Name string `gorm:"column:name;not null;type:text;index"`
	// ShortName is a compact display variant of Name
	ShortName string `gorm:"column:short_name;type:text"`
	// Description is free-form descriptive text
	Description string `gorm:"column:description;type:text"`
	// Address is the street portion of the venue address (venue feed only)
	Address *string `gorm:"column:address;type:text"`
	// City is the venue city (venue feed only)
	City *string `gorm:"column:city;type:text;index"`
	// State is the venue state code (venue feed only)
	State *string `gorm:"column:state;type:text"`
	// StartTime is the start of the event window (time-bound events only)
	StartTime *time.Time `gorm:"column:start_time;type:timestamptz"`
	// EndTime is the end of the event window (time-bound events only)
	EndTime *time.Time `gorm:"column:end_time;type:timestamptz"`
	// ImgURL is the poster/primary image URL
	ImgURL *string `gorm:"column:img_url;type:text"`
	// BackdropURL is the wide backdrop image URL
	BackdropURL *string `gorm:"column:backdrop_url;type:text"`
	// PrimaryType is the single controlling category classification
	PrimaryType domain.TagType `gorm:"column:primary_type;not null;type:text;index"`
	// MetadataBySource maps provider name to that provider's last-known raw payload
	MetadataBySource datatypes.JSONMap `gorm:"column:metadata_by_source;type:jsonb"`
	// CreatedAt is the timestamp when this record was first created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Tags            []EventTag       `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	ConnectorEvents []ConnectorEvent `gorm:"foreignKey:EventID"`
}

// TableName specifies the table name for the Event model
func (Event) TableName() string {
	return "events"
}
