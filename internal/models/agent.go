package models

import (
	"fmt"
	"strings"
	"time"
)

// DefaultCollectionName labels slot 0 of a freshly created agent.
const DefaultCollectionName = "Default"

// Collection is one named grouping in an agent's ordered collection list.
// The index of a collection in Agent.Collections is its slot.
type Collection struct {
	Name         string `json:"name"`
	DefaultTitle string `json:"default_title,omitempty"`
}

// Agent is the durable profile of one authenticated identity.
type Agent struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Collections []Collection `json:"collections"`
	Credits     int64        `json:"credits"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewAgent builds the default profile for a first-contact identity.
func NewAgent(id, name string, credits int64, now time.Time) Agent {
	return Agent{
		ID:          id,
		Name:        name,
		Collections: []Collection{{Name: DefaultCollectionName}},
		Credits:     credits,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasSlot reports whether slot addresses an existing collection.
func (a Agent) HasSlot(slot int) bool {
	return slot >= 0 && slot < len(a.Collections)
}

// Collection returns the collection at slot.
func (a Agent) Collection(slot int) (Collection, bool) {
	if !a.HasSlot(slot) {
		return Collection{}, false
	}
	return a.Collections[slot], true
}

// Validate checks structural invariants of a profile record.
func (a Agent) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("agent id is required")
	}
	if a.Credits < 0 {
		return fmt.Errorf("credits must be >= 0")
	}
	if len(a.Collections) == 0 {
		return fmt.Errorf("agent must have at least one collection")
	}
	for i, c := range a.Collections {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("collection %d: name is required", i)
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate collections safely.
func (a Agent) Clone() Agent {
	out := a
	out.Collections = append([]Collection(nil), a.Collections...)
	return out
}
