package domain

import (
	"strings"
	"time"
)

// Entity is a named subject facts can reference instead of free text.
type Entity struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	EntityType   string    `json:"entity_type"`
	CanonicalKey string    `json:"canonical_key"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CanonicalKey normalizes an entity name to its uniqueness key:
// lowercase, spaces collapsed to underscores. There is no fuzzier
// merge or dedup of subjects than this.
func CanonicalKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(key), "_")
}
