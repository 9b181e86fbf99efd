package violations

import (
	"sort"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/textnorm"
)

// GroupBy selects how entity names are turned into group keys.
type GroupBy string

const (
	// GroupRaw keys groups by the entity text as the classifier wrote it.
	GroupRaw GroupBy = "raw"
	// GroupCanonical keys groups by textnorm.CanonicalEntity and displays
	// the first spelling seen.
	GroupCanonical GroupBy = "canonical"
)

func (g GroupBy) key(entity string) string {
	if g == GroupCanonical {
		return textnorm.CanonicalEntity(entity)
	}
	return entity
}

// Groups maps entities to their violation descriptions in insertion order.
type Groups struct {
	by      GroupBy
	display map[string]string
	items   map[string][]string
}

// NewGroups returns an empty mapping keyed according to by.
func NewGroups(by GroupBy) *Groups {
	return &Groups{
		by:      by,
		display: map[string]string{},
		items:   map[string][]string{},
	}
}

// Add appends description under entity. Empty descriptions are ignored.
func (g *Groups) Add(entity, description string) {
	if description == "" {
		return
	}
	key := g.by.key(entity)
	name, ok := g.display[key]
	if !ok {
		name = entity
		g.display[key] = name
	}
	g.items[name] = append(g.items[name], description)
}

// Entities returns entity names in lexicographic order.
func (g *Groups) Entities() []string {
	names := make([]string, 0, len(g.items))
	for name := range g.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Narratives returns the descriptions recorded for entity.
func (g *Groups) Narratives(entity string) []string {
	return g.items[entity]
}

// Len is the number of entities.
func (g *Groups) Len() int {
	return len(g.items)
}

// Total is the number of descriptions across all entities.
func (g *Groups) Total() int {
	n := 0
	for _, list := range g.items {
		n += len(list)
	}
	return n
}

// Map returns a copy of the mapping.
func (g *Groups) Map() map[string][]string {
	out := make(map[string][]string, len(g.items))
	for name, list := range g.items {
		out[name] = append([]string(nil), list...)
	}
	return out
}
