package domain

import "time"

// TagType is the closed set of category classifications an Event or tag can carry.
type TagType string

const (
	// TagTypeFoodDrink covers restaurants, bars, cafes and similar venues
	TagTypeFoodDrink TagType = "food_drink"
	// TagTypeActivity covers culture, entertainment, fitness and outdoor venues
	TagTypeActivity TagType = "activity"
	// TagTypeServices covers utility and repair businesses
	TagTypeServices TagType = "services"
	// TagTypeMoviesTV covers time-bound movie and TV releases
	TagTypeMoviesTV TagType = "movies_tv"
)

// Valid reports whether t is one of the closed tag-category set.
func (t TagType) Valid() bool {
	switch t {
	case TagTypeFoodDrink, TagTypeActivity, TagTypeServices, TagTypeMoviesTV:
		return true
	}
	return false
}

// ConnectorType identifies one external data provider.
type ConnectorType string

const (
	// ConnectorTypeVenueSheet is the spreadsheet-backed venue feed
	ConnectorTypeVenueSheet ConnectorType = "venue-sheet"
	// ConnectorTypeTMDB is the movie/TV discovery feed
	ConnectorTypeTMDB ConnectorType = "tmdb"
	// ConnectorTypeYelp is the business-review feed
	ConnectorTypeYelp ConnectorType = "yelp"
)

// Tag is a normalized (name, type) pair. Names are always lower-cased
// before they reach the store.
type Tag struct {
	Name string
	Type TagType
}

// EventFields is the canonical, provider-normalized representation of one
// raw record, ready for upsert. Nil pointer fields are not owned by the
// producing provider and must be left untouched on the stored Event.
type EventFields struct {
	Name        string
	ShortName   string
	Description string
	Address     *string
	City        *string
	State       *string
	StartTime   *time.Time
	EndTime     *time.Time
	ImgURL      *string
	BackdropURL *string
}
