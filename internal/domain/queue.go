package domain

import "time"

// EmbedSource names a table whose rows can be embedded by the
// external worker.
type EmbedSource string

const (
	SourceEvents   EmbedSource = "events"
	SourceLessons  EmbedSource = "lessons"
	SourceFacts    EmbedSource = "facts"
	SourceEntities EmbedSource = "entities"
	SourceSeeds    EmbedSource = "memory_seeds"
)

func ValidEmbedSource(s string) bool {
	switch EmbedSource(s) {
	case SourceEvents, SourceLessons, SourceFacts, SourceEntities, SourceSeeds:
		return true
	}
	return false
}

// QueueStatus is owned by the external embedding worker once a row is
// enqueued; the core only writes "pending".
type QueueStatus string

const (
	QueuePending    QueueStatus = "pending"
	QueueProcessing QueueStatus = "processing"
	QueueDone       QueueStatus = "done"
	QueueFailed     QueueStatus = "failed"
)

func ValidQueueStatus(s string) bool {
	switch QueueStatus(s) {
	case QueuePending, QueueProcessing, QueueDone, QueueFailed:
		return true
	}
	return false
}

// EmbeddingJob is one row of the embedding queue. Uniqueness on
// (source_table, source_id): re-enqueueing overwrites.
type EmbeddingJob struct {
	ID           int64       `json:"id"`
	SourceTable  EmbedSource `json:"source_table"`
	SourceID     int64       `json:"source_id"`
	TextToEmbed  string      `json:"text_to_embed"`
	Status       QueueStatus `json:"status"`
	ErrorMessage string      `json:"error_message,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	ProcessedAt  *time.Time  `json:"processed_at,omitempty"`
}

// BackupSignal is one outbox record for the external backup
// collaborator. An explicit consumable record instead of a global
// mutable flag, so set and clear cannot race.
type BackupSignal struct {
	ID             int64       `json:"id"`
	Reason         string      `json:"reason"`
	SourceTable    EmbedSource `json:"source_table"`
	SourceID       int64       `json:"source_id"`
	CreatedAt      time.Time   `json:"created_at"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
}

// ReviewLogEntry records one deliberate review for audit and stats.
type ReviewLogEntry struct {
	ID              int64       `json:"id"`
	SourceTable     EmbedSource `json:"source_table"`
	SourceID        int64       `json:"source_id"`
	RetentionBefore float64     `json:"retention_before"`
	Quality         int         `json:"quality"`
	HoursSinceLast  float64     `json:"hours_since_last_review"`
	CreatedAt       time.Time   `json:"created_at"`
}
