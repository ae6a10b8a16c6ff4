// internal/question/store.go
//
// SQLite-backed question store.
//
// Import is idempotent: the questions table carries a UNIQUE index over
// {question, answer, difficulty, category} and inserts use INSERT OR
// IGNORE, so re-importing the same batch adds zero rows. Sample draws a
// random subset without replacement; the order is not reproducible.

package question

import (
	"context"
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Import inserts the given records, skipping exact duplicates.
// Returns the number of newly added rows.
func (s *Store) Import(ctx context.Context, records []Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, q := range records {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO questions (question, answer, difficulty, category)
			VALUES (?, ?, ?, ?)`,
			q.Text, q.Answer, q.Difficulty, q.Category,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			added += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return added, nil
}

// Sample returns up to limit random questions matching category and
// difficulty, without replacement.
func (s *Store) Sample(ctx context.Context, category, difficulty string, limit int) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question, answer, difficulty, category
		FROM questions
		WHERE category=? AND difficulty=?
		ORDER BY RANDOM()
		LIMIT ?`, category, difficulty, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Question, 0, limit)
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.Text, &q.Answer, &q.Difficulty, &q.Category); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Count reports the total number of catalog entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM questions`).Scan(&n)
	return n, err
}
