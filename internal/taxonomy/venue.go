package taxonomy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/eventfinder/ef-aggregator/internal/domain"
)

// VenueRow is one raw spreadsheet row keyed by the lower-cased header names
type VenueRow struct {
	PlaceID    string
	Name       string
	Notes      string
	Address    string
	City       string
	Tier       string
	Tags       string
	Categories string
}

// VenueRecord is a validated venue row ready for classification and upsert
type VenueRecord struct {
	ExternalID  string
	Name        string
	ShortName   string
	Description string
	Street      string
	City        string
	State       string
	// Categories holds the raw category tokens unioned with the filtered
	// operational tags; classification and remapping run on this set.
	Categories []string
}

// Address is the parsed form of a "street..., city, state zip, country" string
type Address struct {
	Street  string
	City    string
	State   string
	Country string
}

// CityMismatchError reports a row whose sheet city does not match the city
// parsed from its address. Surfaced as its own type so the bad-city
// diagnostic mode can report these without writing.
type CityMismatchError struct {
	Name       string
	SheetCity  string
	ParsedCity string
}

func (e *CityMismatchError) Error() string {
	return fmt.Sprintf("city mismatch for %q: sheet %q, address %q", e.Name, e.SheetCity, e.ParsedCity)
}

func (e *CityMismatchError) Unwrap() error {
	return domain.ErrSkipRecord
}

var (
	nonAlnum     = regexp.MustCompile(`[^a-z0-9]`)
	dashRuns     = regexp.MustCompile(`-+`)
	categorySeps = regexp.MustCompile(`[/;]`)
)

// Alias derives the stable address slug used as a secondary row identity
func Alias(address string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(address), "-")
	return dashRuns.ReplaceAllString(slug, "-")
}

// SplitCategories splits a raw category cell on '/' and ';' and trims the parts
func SplitCategories(raw string) []string {
	parts := categorySeps.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FilterOperationalTags keeps only the operational tags in the allow set
func FilterOperationalTags(raw string) []string {
	out := []string{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.TrimSpace(tag)
		if operationalTagAllowSet[tag] {
			out = append(out, tag)
		}
	}
	return out
}

// SubstituteCity normalizes sheet shorthand city names
func SubstituteCity(city string) string {
	if full, ok := citySubstitutions[city]; ok {
		return full
	}
	return city
}

// ValidTier reports whether the tier glyph is one of the curated set
func ValidTier(tier string) bool {
	return validTiers[tier]
}

// ParseAddress parses a full address of the form
// "street..., city, state zip, country". The street may itself contain
// commas; the last three components are fixed.
func ParseAddress(raw string) (Address, error) {
	components := strings.Split(raw, ",")
	if len(components) < 4 {
		return Address{}, fmt.Errorf("address %q has fewer than four components", raw)
	}
	for i, component := range components {
		components[i] = strings.TrimSpace(component)
	}

	n := len(components)
	stateZip := strings.Fields(components[n-2])
	if len(stateZip) == 0 {
		return Address{}, fmt.Errorf("address %q has an empty state component", raw)
	}

	return Address{
		Street:  strings.Join(components[:n-3], " "),
		City:    components[n-3],
		State:   stateZip[0],
		Country: components[n-1],
	}, nil
}

// NormalizeVenueRow validates one sheet row and produces a record ready for
// classification. Any failed check returns an error wrapping
// domain.ErrSkipRecord; no partial record is produced.
func NormalizeVenueRow(row VenueRow) (*VenueRecord, error) {
	alias := Alias(row.Address)
	if row.PlaceID == "" || alias == "" {
		return nil, fmt.Errorf("missing place id or alias for %q: %w", row.Name, domain.ErrSkipRecord)
	}

	addr, err := ParseAddress(row.Address)
	if err != nil {
		return nil, fmt.Errorf("unparseable address for %q: %v: %w", row.Name, err, domain.ErrSkipRecord)
	}

	city := SubstituteCity(row.City)
	if city != addr.City {
		return nil, &CityMismatchError{Name: row.Name, SheetCity: city, ParsedCity: addr.City}
	}

	if addr.State != "CA" && addr.State != "California" {
		return nil, fmt.Errorf("unsupported state %q for %q: %w", addr.State, row.Name, domain.ErrSkipRecord)
	}

	if !ValidTier(row.Tier) {
		return nil, fmt.Errorf("invalid tier %q for %q: %w", row.Tier, row.Name, domain.ErrSkipRecord)
	}

	categories := SplitCategories(row.Categories)
	seen := make(map[string]bool, len(categories))
	for _, category := range categories {
		seen[category] = true
	}
	for _, tag := range FilterOperationalTags(row.Tags) {
		if !seen[tag] {
			seen[tag] = true
			categories = append(categories, tag)
		}
	}

	return &VenueRecord{
		ExternalID:  row.PlaceID,
		Name:        row.Name,
		ShortName:   row.Name,
		Description: row.Notes,
		Street:      addr.Street,
		City:        addr.City,
		State:       addr.State,
		Categories:  categories,
	}, nil
}
