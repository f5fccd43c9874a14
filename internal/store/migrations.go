package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "sessions: debate session tracking",
		SQL: `
CREATE TABLE sessions (
    id         INTEGER PRIMARY KEY,
    title      TEXT NOT NULL,
    topic      TEXT NOT NULL,
    rules      TEXT NOT NULL DEFAULT '',
    is_active  INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX idx_sessions_created_at ON sessions(created_at DESC);
`,
	},
	{
		Version:     2,
		Description: "participants: debate personas per session",
		SQL: `
CREATE TABLE participants (
    id          INTEGER PRIMARY KEY,
    session_id  INTEGER NOT NULL,
    name        TEXT NOT NULL,
    position    TEXT NOT NULL,
    constraints TEXT NOT NULL DEFAULT '',
    disallowed  TEXT NOT NULL DEFAULT '',
    key_sources TEXT NOT NULL DEFAULT '',
    archived    INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL,

    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX idx_participants_session ON participants(session_id);
`,
	},
	{
		Version:     3,
		Description: "turns: transcript entries with ratings",
		SQL: `
CREATE TABLE turns (
    id              INTEGER PRIMARY KEY,
    session_id      INTEGER NOT NULL,
    participant_id  INTEGER NOT NULL,
    content         TEXT NOT NULL,
    token_count     INTEGER NOT NULL DEFAULT 0,
    rating          INTEGER,
    downvote_reason TEXT,
    is_incomplete   INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,

    FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE,
    FOREIGN KEY (participant_id) REFERENCES participants(id) ON DELETE CASCADE
);

CREATE INDEX idx_turns_session     ON turns(session_id);
CREATE INDEX idx_turns_participant ON turns(participant_id);
`,
	},
	{
		Version:     4,
		Description: "critique_rules: per-participant critique memory",
		SQL: `
CREATE TABLE critique_rules (
    id             INTEGER PRIMARY KEY,
    participant_id INTEGER NOT NULL,
    rule           TEXT NOT NULL,
    bad_pattern    TEXT NOT NULL,
    guidance       TEXT NOT NULL,
    strength       REAL NOT NULL DEFAULT 0.7,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL,

    FOREIGN KEY (participant_id) REFERENCES participants(id) ON DELETE CASCADE
);

CREATE INDEX idx_rules_participant ON critique_rules(participant_id);
CREATE INDEX idx_rules_strength    ON critique_rules(strength DESC);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
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
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
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

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
