package domain

import "time"

// BeliefKind identifies one of the three supersedable belief tables.
type BeliefKind string

const (
	KindFact   BeliefKind = "fact"
	KindLesson BeliefKind = "lesson"
	KindValue  BeliefKind = "value"
)

func ValidBeliefKind(k string) bool {
	switch BeliefKind(k) {
	case KindFact, KindLesson, KindValue:
		return true
	}
	return false
}

// BeliefStatus is a display-only projection of the validity window.
// It is never stored: "current" is exactly valid_until IS NULL.
type BeliefStatus string

const (
	StatusActive     BeliefStatus = "active"
	StatusSuperseded BeliefStatus = "superseded"
)

// Validity carries the supersession window shared by all belief kinds.
// ValidUntil and SupersededBy are set together, atomically, exactly once.
type Validity struct {
	CreatedAt    time.Time  `json:"created_at"`
	ValidUntil   *time.Time `json:"valid_until,omitempty"`
	SupersededBy *int64     `json:"superseded_by,omitempty"`
}

// Current reports whether the belief has not been superseded.
func (v Validity) Current() bool {
	return v.ValidUntil == nil
}

func (v Validity) Status() BeliefStatus {
	if v.Current() {
		return StatusActive
	}
	return StatusSuperseded
}

// Fact is a subject-predicate-object assertion about the world.
// The subject is either a resolved entity reference or free text.
type Fact struct {
	ID              int64   `json:"id"`
	SubjectEntityID *int64  `json:"subject_entity_id,omitempty"`
	SubjectText     string  `json:"subject"`
	Predicate       string  `json:"predicate"`
	ObjectText      string  `json:"object"`
	Confidence      float64 `json:"confidence"`
	Source          string  `json:"source"`

	// Emotional tags are optional; scoring falls back to neutral defaults.
	Valence *float64 `json:"valence,omitempty"`
	Arousal *float64 `json:"arousal,omitempty"`

	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	DecayRate      float64    `json:"decay_rate"`
	MemoryStrength float64    `json:"memory_strength"`

	Validity
}

// Sentence renders the triple for embedding and genealogy display.
func (f *Fact) Sentence() string {
	return f.SubjectText + " " + f.Predicate + " " + f.ObjectText
}

// Lesson is a distilled "what I learned" belief, scoped to a domain.
// Lessons participate in spaced-repetition review alongside events.
type Lesson struct {
	ID         int64   `json:"id"`
	Domain     string  `json:"domain"`
	Lesson     string  `json:"lesson"`
	Context    string  `json:"context,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`

	Valence *float64 `json:"valence,omitempty"`
	Arousal *float64 `json:"arousal,omitempty"`

	MemoryStrength  float64    `json:"memory_strength"`
	RepetitionCount int        `json:"repetition_count"`
	LastReviewedAt  *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt    *time.Time `json:"next_review_at,omitempty"`

	Validity
}

// Value is a named principle with an explicit priority ordering.
type Value struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    int    `json:"priority"` // 0-100
	Source      string `json:"source"`

	Validity
}

// GenealogyEntry is one generation in a supersession chain.
// Generation 0 is the current belief; generation N is N supersessions ago.
type GenealogyEntry struct {
	Generation   int          `json:"generation"`
	ID           int64        `json:"id"`
	Content      string       `json:"content"`
	Source       string       `json:"source"`
	Status       BeliefStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	ValidUntil   *time.Time   `json:"valid_until,omitempty"`
	SupersededBy *int64       `json:"superseded_by,omitempty"`
}
