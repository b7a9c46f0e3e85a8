package store

import "fmt"

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "entities: named subjects for the knowledge graph",
		SQL: `
CREATE TABLE entities (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    entity_type   TEXT NOT NULL DEFAULT 'generic',
    canonical_key TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL,

    UNIQUE (entity_type, canonical_key)
);

CREATE INDEX idx_entities_key ON entities(canonical_key);
`,
	},
	{
		Version:     2,
		Description: "facts: subject-predicate-object beliefs with linear decay",
		SQL: `
CREATE TABLE facts (
    id                INTEGER PRIMARY KEY,
    subject_entity_id INTEGER,
    subject_text      TEXT NOT NULL,
    predicate         TEXT NOT NULL,
    object_text       TEXT NOT NULL,
    confidence        REAL NOT NULL CHECK (confidence BETWEEN 0 AND 1),
    source            TEXT NOT NULL DEFAULT 'direct',

    valence           REAL CHECK (valence BETWEEN -1 AND 1),
    arousal           REAL CHECK (arousal BETWEEN 0 AND 1),

    access_count      INTEGER NOT NULL DEFAULT 0,
    last_accessed_at  INTEGER,
    decay_rate        REAL NOT NULL DEFAULT 0.1,
    memory_strength   REAL NOT NULL DEFAULT 1.0,

    created_at        INTEGER NOT NULL,
    valid_until       INTEGER,
    superseded_by     INTEGER REFERENCES facts(id),

    -- superseded_by and valid_until are set together or not at all
    CHECK ((valid_until IS NULL) = (superseded_by IS NULL)),
    FOREIGN KEY (subject_entity_id) REFERENCES entities(id)
);

CREATE INDEX idx_facts_current   ON facts(valid_until) WHERE valid_until IS NULL;
CREATE INDEX idx_facts_subject   ON facts(subject_text);
CREATE INDEX idx_facts_successor ON facts(superseded_by);
`,
	},
	{
		Version:     3,
		Description: "lessons: domain-scoped insights with review scheduling",
		SQL: `
CREATE TABLE lessons (
    id               INTEGER PRIMARY KEY,
    domain           TEXT NOT NULL DEFAULT 'general',
    lesson           TEXT NOT NULL,
    context          TEXT NOT NULL DEFAULT '',
    confidence       REAL NOT NULL CHECK (confidence BETWEEN 0 AND 1),
    source           TEXT NOT NULL DEFAULT 'learned',

    valence          REAL CHECK (valence BETWEEN -1 AND 1),
    arousal          REAL CHECK (arousal BETWEEN 0 AND 1),

    memory_strength  REAL NOT NULL DEFAULT 1.0,
    repetition_count INTEGER NOT NULL DEFAULT 0,
    last_reviewed_at INTEGER,
    next_review_at   INTEGER,

    created_at       INTEGER NOT NULL,
    valid_until      INTEGER,
    superseded_by    INTEGER REFERENCES lessons(id),

    CHECK ((valid_until IS NULL) = (superseded_by IS NULL))
);

CREATE INDEX idx_lessons_current   ON lessons(valid_until) WHERE valid_until IS NULL;
CREATE INDEX idx_lessons_domain    ON lessons(domain);
CREATE INDEX idx_lessons_due       ON lessons(next_review_at);
CREATE INDEX idx_lessons_successor ON lessons(superseded_by);
`,
	},
	{
		Version:     4,
		Description: "core_values: named principles with priority ordering",
		SQL: `
CREATE TABLE core_values (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    description   TEXT NOT NULL,
    priority      INTEGER NOT NULL CHECK (priority BETWEEN 0 AND 100),
    source        TEXT NOT NULL DEFAULT 'axionic',

    created_at    INTEGER NOT NULL,
    valid_until   INTEGER,
    superseded_by INTEGER REFERENCES core_values(id),

    CHECK ((valid_until IS NULL) = (superseded_by IS NULL))
);

CREATE INDEX idx_values_current   ON core_values(valid_until) WHERE valid_until IS NULL;
CREATE INDEX idx_values_successor ON core_values(superseded_by);
`,
	},
	{
		Version:     5,
		Description: "memory_seeds and events: timeline with forgetting-curve fields",
		SQL: `
CREATE TABLE memory_seeds (
    id          INTEGER PRIMARY KEY,
    summary     TEXT NOT NULL,
    event_count INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);

CREATE TABLE events (
    id                  INTEGER PRIMARY KEY,
    occurred_at         INTEGER NOT NULL,
    event_type          TEXT NOT NULL,
    category            TEXT NOT NULL DEFAULT '',
    summary             TEXT NOT NULL,
    details             TEXT NOT NULL DEFAULT '',
    significance        INTEGER NOT NULL DEFAULT 0 CHECK (significance BETWEEN 0 AND 10),
    importance          REAL NOT NULL DEFAULT 0.5 CHECK (importance BETWEEN 0 AND 1),
    valence             REAL NOT NULL DEFAULT 0 CHECK (valence BETWEEN -1 AND 1),
    arousal             REAL NOT NULL DEFAULT 0.3 CHECK (arousal BETWEEN 0 AND 1),

    consolidation_state TEXT NOT NULL DEFAULT 'working'
        CHECK (consolidation_state IN ('working', 'short_term', 'long_term', 'forgotten')),
    subsumed_by_seed_id INTEGER REFERENCES memory_seeds(id),

    repetition_count    INTEGER NOT NULL DEFAULT 0,
    memory_strength     REAL NOT NULL DEFAULT 1.0,
    access_count        INTEGER NOT NULL DEFAULT 0,
    last_accessed_at    INTEGER,
    last_reviewed_at    INTEGER,
    next_review_at      INTEGER,

    created_at          INTEGER NOT NULL
);

CREATE INDEX idx_events_occurred ON events(occurred_at DESC);
CREATE INDEX idx_events_state    ON events(consolidation_state);
CREATE INDEX idx_events_due      ON events(next_review_at);
`,
	},
	{
		Version:     6,
		Description: "embedding_queue: handoff to the external embedding worker",
		SQL: `
CREATE TABLE embedding_queue (
    id            INTEGER PRIMARY KEY,
    source_table  TEXT NOT NULL
        CHECK (source_table IN ('events', 'lessons', 'facts', 'entities', 'memory_seeds')),
    source_id     INTEGER NOT NULL,
    text_to_embed TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'processing', 'done', 'failed')),
    error_message TEXT,
    created_at    INTEGER NOT NULL,
    processed_at  INTEGER,

    UNIQUE (source_table, source_id)
);

CREATE INDEX idx_queue_status ON embedding_queue(status, created_at);
`,
	},
	{
		Version:     7,
		Description: "backup_outbox: consumable significance signals",
		SQL: `
CREATE TABLE backup_outbox (
    id              INTEGER PRIMARY KEY,
    reason          TEXT NOT NULL,
    source_table    TEXT NOT NULL,
    source_id       INTEGER NOT NULL,
    created_at      INTEGER NOT NULL,
    acknowledged_at INTEGER
);

CREATE INDEX idx_outbox_pending ON backup_outbox(acknowledged_at) WHERE acknowledged_at IS NULL;
`,
	},
	{
		Version:     8,
		Description: "review_log: audit trail for spaced-repetition reviews",
		SQL: `
CREATE TABLE review_log (
    id                           INTEGER PRIMARY KEY,
    source_table                 TEXT NOT NULL,
    source_id                    INTEGER NOT NULL,
    retention_before             REAL NOT NULL,
    quality                      INTEGER NOT NULL CHECK (quality BETWEEN 0 AND 5),
    time_since_last_review_hours REAL NOT NULL,
    created_at                   INTEGER NOT NULL
);

CREATE INDEX idx_review_log_source ON review_log(source_table, source_id);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
