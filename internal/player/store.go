// internal/player/store.go
//
// SQLite-backed player store.
// Responsibilities:
//   - Player records: create (unique name), lookup by name, full roster.
//   - Cumulative statistics: games played, wins, losses.
//   - The outcome-persistence boundary: one explicit transaction per ended
//     session that bumps every participant's counters and appends their
//     immutable game rows. The batch commits or rolls back as a whole.

package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/idziarhai/crossword/internal/game"
)

var (
	// ErrNameTaken is returned when registering an already-used name.
	ErrNameTaken = errors.New("player name already taken")
	// ErrNotFound is returned when a player lookup matches nothing.
	ErrNotFound = errors.New("player not found")
)

// Player mirrors the players table. Counters are mutated only when a
// session ends; records are never deleted.
type Player struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Create inserts a new player with the given pre-hashed credential.
// Name uniqueness is case-insensitive.
func (s *Store) Create(ctx context.Context, name, passwordHash string) (*Player, error) {
	var exists int
	_ = s.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE lower(name)=lower(?)`, name).Scan(&exists)
	if exists == 1 {
		return nil, ErrNameTaken
	}

	p := &Player{
		ID:           uuid.NewString(),
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, name, password_hash, created_at) VALUES (?,?,?,?)`,
		p.ID, p.Name, p.PasswordHash, p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// FindByName loads a player by name (case-insensitive) or ErrNotFound.
func (s *Store) FindByName(ctx context.Context, name string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, password_hash, created_at, games_played, wins, losses
		FROM players WHERE lower(name)=lower(?)`, name)
	return scanPlayer(row)
}

// List returns the full roster.
func (s *Store) List(ctx context.Context) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, password_hash, created_at, games_played, wins, losses
		FROM players ORDER BY lower(name)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Player
	for rows.Next() {
		var p Player
		var created string
		if err := rows.Scan(&p.ID, &p.Name, &p.PasswordHash, &created, &p.GamesPlayed, &p.Wins, &p.Losses); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlayer(row *sql.Row) (*Player, error) {
	var p Player
	var created string
	if err := row.Scan(&p.ID, &p.Name, &p.PasswordHash, &created, &p.GamesPlayed, &p.Wins, &p.Losses); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

// RecordOutcome persists an ended session in a single transaction.
//
// For every participant (in ranking order): games_played is incremented,
// wins or losses is incremented depending on winner-set membership, and an
// immutable game row is appended. A missing participant aborts the whole
// batch; nothing is persisted unless everything is.
func (s *Store) RecordOutcome(ctx context.Context, oc *game.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	winners := make(map[string]bool, len(oc.Winners))
	for _, name := range oc.Winners {
		winners[name] = true
	}

	playedAt := time.Now().UTC().Format(time.RFC3339)
	for _, entry := range oc.Ranking {
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM players WHERE lower(name)=lower(?)`, entry.Name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("record outcome: %w: %s", ErrNotFound, entry.Name)
		}
		if err != nil {
			return err
		}

		winCol, lossCol := 0, 1
		if winners[entry.Name] {
			winCol, lossCol = 1, 0
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE players
			SET games_played = games_played + 1, wins = wins + ?, losses = losses + ?
			WHERE id=?`, winCol, lossCol, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO games (id, player_id, score, difficulty, mode, played_at)
			VALUES (?,?,?,?,?,?)`,
			uuid.NewString(), id, entry.Score, string(oc.Difficulty), string(oc.Mode), playedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
