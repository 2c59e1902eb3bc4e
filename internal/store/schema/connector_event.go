package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/eventfinder/ef-aggregator/internal/domain"
)

// ConnectorEvent represents the connector_events table - the durable ledger
// mapping one external identifier to one internal event. At most one row
// exists per (connector_type, connector_external_id); once EventID is set it
// is never cleared.
type ConnectorEvent struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// ConnectorType identifies the provider this row belongs to
	ConnectorType domain.ConnectorType `gorm:"column:connector_type;not null;type:text;uniqueIndex:idx_connector_events_type_external_id,priority:1"`
	// ConnectorExternalID is the provider's stable identifier for the record
	ConnectorExternalID string `gorm:"column:connector_external_id;not null;type:text;uniqueIndex:idx_connector_events_type_external_id,priority:2"`
	// EventID references the linked event; nil until the event is first created
	EventID *int64 `gorm:"column:event_id;index"`
	// Data is the last raw payload fetched from the provider (full replace each sync)
	Data datatypes.JSON `gorm:"column:data;type:jsonb"`
	// CreatedAt is the timestamp of the first sighting of the external id
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the most recent sync touching this row
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Event *Event `gorm:"foreignKey:EventID"`
}

// TableName specifies the table name for the ConnectorEvent model
func (ConnectorEvent) TableName() string {
	return "connector_events"
}
