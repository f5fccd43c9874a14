package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// CritiqueRule is one stored critique pattern plus guidance for a participant.
type CritiqueRule struct {
	ID            int64
	ParticipantID int64
	Rule          string
	BadPattern    string
	Guidance      string
	Strength      float64
	CreatedAt     int64
	UpdatedAt     int64
}

// DefaultStrength is the strength assigned to a freshly inserted rule.
const DefaultStrength = 0.7

// ListRules returns all critique rules for a participant, ordered by
// strength DESC, then created_at DESC. This ordering is load-bearing:
// the merge engine's first-match policy iterates rules in this order.
func (db *DB) ListRules(participantID int64) ([]CritiqueRule, error) {
	rows, err := db.Query(`
		SELECT id, participant_id, rule, bad_pattern, guidance, strength, created_at, updated_at
		FROM critique_rules
		WHERE participant_id = ?
		ORDER BY strength DESC, created_at DESC
	`, participantID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// GetRule returns a rule by id, or nil if not found.
func (db *DB) GetRule(id int64) (*CritiqueRule, error) {
	var r CritiqueRule
	err := db.QueryRow(`
		SELECT id, participant_id, rule, bad_pattern, guidance, strength, created_at, updated_at
		FROM critique_rules WHERE id = ?
	`, id).Scan(&r.ID, &r.ParticipantID, &r.Rule, &r.BadPattern, &r.Guidance,
		&r.Strength, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return &r, nil
}

// InsertRule stores a new critique rule at the given strength.
// Dedup is the merge engine's job; the store never rejects duplicate content.
func (db *DB) InsertRule(participantID int64, rule, badPattern, guidance string, strength float64) (int64, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO critique_rules (participant_id, rule, bad_pattern, guidance, strength, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, participantID, rule, badPattern, guidance, strength, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	id, _ := result.LastInsertId()
	return id, nil
}

// UpdateRule rewrites a rule's strength and guidance and refreshes updated_at.
// Returns ErrNotFound if no rule has the given id.
func (db *DB) UpdateRule(id int64, strength float64, guidance string) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE critique_rules SET strength = ?, guidance = ?, updated_at = ?
		WHERE id = ?
	`, strength, guidance, now, id)
	if err != nil {
		return fmt.Errorf("update rule %d: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update rule %d: %w", id, ErrNotFound)
	}
	return nil
}

// DecayRules decreases strength by amount for every rule of the participant
// whose id is not in excludedIDs, clamped at floor and rounded to 2 decimals,
// refreshing updated_at. Runs as a single statement inside a transaction so
// concurrent readers see either all rows decayed or none.
func (db *DB) DecayRules(participantID int64, excludedIDs []int64, amount, floor float64) error {
	now := time.Now().UnixMilli()

	args := []any{floor, amount, now, participantID}
	query := `
		UPDATE critique_rules
		SET strength = ROUND(MAX(?, strength - ?), 2), updated_at = ?
		WHERE participant_id = ?`

	if len(excludedIDs) > 0 {
		placeholders := make([]string, len(excludedIDs))
		for i, id := range excludedIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += fmt.Sprintf(" AND id NOT IN (%s)", strings.Join(placeholders, ","))
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin decay: %w", err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("decay rules: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decay: %w", err)
	}
	return nil
}

func scanRules(rows *sql.Rows) ([]CritiqueRule, error) {
	var rules []CritiqueRule
	for rows.Next() {
		var r CritiqueRule
		if err := rows.Scan(&r.ID, &r.ParticipantID, &r.Rule, &r.BadPattern, &r.Guidance,
			&r.Strength, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
