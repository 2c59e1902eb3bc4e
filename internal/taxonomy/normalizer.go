// Package taxonomy normalizes provider-specific category vocabularies into
// the controlled internal tag set and classifies records into a primary type.
package taxonomy

import (
	"strings"

	"github.com/eventfinder/ef-aggregator/internal/domain"
)

// RemapTable translates one provider's raw tokens. A nil value drops the
// token; a non-nil slice fans it out into replacements; absent tokens pass
// through unchanged.
type RemapTable map[string][]string

// ClassificationRule escalates a record's primary type when any of its
// markers appears among the record's raw categories.
type ClassificationRule struct {
	Outcome domain.TagType
	Markers []string
}

type compiledRule struct {
	outcome domain.TagType
	markers map[string]bool
}

// Normalizer applies classification rules and remap tables. Rules and tables
// are plain data so tests and future providers can inject their own.
type Normalizer struct {
	defaults map[domain.ConnectorType]domain.TagType
	rules    []compiledRule
	remaps   map[domain.ConnectorType]RemapTable
}

// NewNormalizer builds a normalizer with the default rules and tables
func NewNormalizer() *Normalizer {
	return NewNormalizerWith(defaultProviderTypes, defaultClassificationRules, defaultRemapTables)
}

// NewNormalizerWith builds a normalizer from explicit rules and tables
func NewNormalizerWith(
	defaults map[domain.ConnectorType]domain.TagType,
	rules []ClassificationRule,
	remaps map[domain.ConnectorType]RemapTable,
) *Normalizer {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		markers := make(map[string]bool, len(rule.Markers))
		for _, m := range rule.Markers {
			markers[m] = true
		}
		compiled = append(compiled, compiledRule{outcome: rule.Outcome, markers: markers})
	}

	return &Normalizer{
		defaults: defaults,
		rules:    compiled,
		remaps:   remaps,
	}
}

// Classify resolves the primary type for a record: the provider default,
// escalated by the rule list evaluated in order with last match winning.
func (n *Normalizer) Classify(connectorType domain.ConnectorType, categories []string) domain.TagType {
	result, ok := n.defaults[connectorType]
	if !ok {
		result = domain.TagTypeFoodDrink
	}

	for _, rule := range n.rules {
		for _, category := range categories {
			if rule.markers[category] {
				result = rule.outcome
				break
			}
		}
	}

	return result
}

// RemapTags runs each raw token through the provider's remap table and
// returns the flattened, lower-cased, de-duplicated tag names in first-seen
// order.
func (n *Normalizer) RemapTags(connectorType domain.ConnectorType, tokens []string) []string {
	table := n.remaps[connectorType]

	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))

	appendTag := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	for _, token := range tokens {
		if strings.TrimSpace(token) == "" {
			continue
		}

		replacements, mapped := table[token]
		if !mapped {
			appendTag(token)
			continue
		}
		for _, replacement := range replacements {
			appendTag(replacement)
		}
	}

	return out
}

// Tags classifies the record and returns the remapped tag set typed under
// that classification, ready for the store.
func (n *Normalizer) Tags(connectorType domain.ConnectorType, categories []string) (domain.TagType, []domain.Tag) {
	primaryType := n.Classify(connectorType, categories)

	names := n.RemapTags(connectorType, categories)
	tags := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, domain.Tag{Name: name, Type: primaryType})
	}

	return primaryType, tags
}
