package domain

import "time"

// ConsolidationState is an event's lifecycle stage from working memory
// to long-term storage. "forgotten" is a flag, never a delete.
type ConsolidationState string

const (
	ConsolidationWorking   ConsolidationState = "working"
	ConsolidationShortTerm ConsolidationState = "short_term"
	ConsolidationLongTerm  ConsolidationState = "long_term"
	ConsolidationForgotten ConsolidationState = "forgotten"
)

func ValidConsolidationState(s string) bool {
	switch ConsolidationState(s) {
	case ConsolidationWorking, ConsolidationShortTerm, ConsolidationLongTerm, ConsolidationForgotten:
		return true
	}
	return false
}

// Event is an immutable observation on the timeline. Rows are never
// deleted; compression into a seed retains the raw event.
type Event struct {
	ID           int64     `json:"id"`
	OccurredAt   time.Time `json:"occurred_at"`
	EventType    string    `json:"event_type"`
	Category     string    `json:"category,omitempty"`
	Summary      string    `json:"summary"`
	Details      string    `json:"details,omitempty"`
	Significance int       `json:"significance"` // 0-10
	Importance   float64   `json:"importance"`   // 0-1
	Valence      float64   `json:"valence"`      // -1..1
	Arousal      float64   `json:"arousal"`      // 0..1

	ConsolidationState ConsolidationState `json:"consolidation_state"`
	SubsumedBySeedID   *int64             `json:"subsumed_by_seed_id,omitempty"`

	RepetitionCount int        `json:"repetition_count"`
	MemoryStrength  float64    `json:"memory_strength"`
	AccessCount     int        `json:"access_count"`
	LastAccessedAt  *time.Time `json:"last_accessed_at,omitempty"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt    *time.Time `json:"next_review_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ReviewReference returns the instant retention decays from: the last
// deliberate review, falling back to when the event occurred.
func (e *Event) ReviewReference() time.Time {
	if e.LastReviewedAt != nil {
		return *e.LastReviewedAt
	}
	return e.OccurredAt
}

// MemorySeed is a lossy-but-regenerative summary that subsumes a set
// of long-term events.
type MemorySeed struct {
	ID         int64     `json:"id"`
	Summary    string    `json:"summary"`
	EventCount int       `json:"event_count"`
	CreatedAt  time.Time `json:"created_at"`
}
