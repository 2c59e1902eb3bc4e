package taxonomy

import (
	"github.com/eventfinder/ef-aggregator/internal/domain"
)

// defaultProviderTypes maps each provider to the primary type its records
// carry before any marker escalation.
var defaultProviderTypes = map[domain.ConnectorType]domain.TagType{
	domain.ConnectorTypeVenueSheet: domain.TagTypeFoodDrink,
	domain.ConnectorTypeTMDB:       domain.TagTypeMoviesTV,
	domain.ConnectorTypeYelp:       domain.TagTypeFoodDrink,
}

// defaultClassificationRules are evaluated in order; the last rule whose
// marker set intersects the record's categories wins. The ordering is
// load-bearing: a record carrying both activity and services markers
// classifies as services.
var defaultClassificationRules = []ClassificationRule{
	{
		Outcome: domain.TagTypeActivity,
		Markers: []string{
			"Culture",
			"Entertainment",
			"Fitness",
			"Nature",
			"aquarium",
			"campground",
			"library",
			"movie_theater",
			"museum",
			"natural_feature",
			"park",
			"spa",
			"stadium",
			"tourist_attraction",
			"zoo",
		},
	},
	{
		Outcome: domain.TagTypeServices,
		Markers: []string{
			"Utilities",
			"car_repair",
		},
	},
}

// defaultRemapTables translate raw provider tokens into the controlled tag
// vocabulary. A nil entry drops the token entirely; a list fans it out;
// tokens absent from the table pass through unchanged. Empty strings inside
// a replacement list are skipped.
var defaultRemapTables = map[domain.ConnectorType]RemapTable{
	domain.ConnectorTypeVenueSheet: {
		"Entertainment":          nil,
		"Western":                {"European"},
		"SEA":                    {"Southeast"},
		"PMT":                    {"Asian", "Boba"},
		"Fine Dining":            {"Dinner", "Fine Dining"},
		"Mochi":                  {"Asian", "Mochi"},
		"car_repair":             {"Repair"},
		"grocery_or_supermarket": {"Market"},
		"movie_theater":          {"Theatre"},
		"natural_feature":        {"Nature"},
		"park":                   {"Nature"},
		"tourist_attraction":     nil,
	},
}

// operationalTagAllowSet is the fixed set of map-style operational tags that
// survive filtering on venue rows. Everything else on the sheet's tag column
// is noise (point_of_interest, establishment, ...).
var operationalTagAllowSet = map[string]bool{
	"aquarium":               true,
	"bakery":                 true,
	"bar":                    true,
	"cafe":                   true,
	"campground":             true,
	"car_repair":             true,
	"grocery_or_supermarket": true,
	"library":                true,
	"movie_theater":          true,
	"museum":                 true,
	"natural_feature":        true,
	"park":                   true,
	"spa":                    true,
	"stadium":                true,
	"supermarket":            true,
	"tourist_attraction":     true,
	"zoo":                    true,
}

// citySubstitutions normalizes the sheet's shorthand city names to the full
// names used in street addresses.
var citySubstitutions = map[string]string{
	"SF":               "San Francisco",
	"South SF":         "South San Francisco",
	"San Jose - Local": "San Jose",
}

// validTiers is the set of curation tier glyphs a venue row must carry.
var validTiers = map[string]bool{
	"♡": true,
	"☆": true,
	"◎": true,
}
