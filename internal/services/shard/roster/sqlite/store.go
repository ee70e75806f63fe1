// Package sqlite persists the player roster in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wasmColonies/core/internal/platform/storage/sqlitemigrate"
	"github.com/wasmColonies/core/internal/services/shard/protocol"
	"github.com/wasmColonies/core/internal/services/shard/roster/sqlite/migrations"
)

// ErrPlayerNotFound indicates an unknown player id.
var ErrPlayerNotFound = errors.New("player not found")

// Player is a stored roster entry.
type Player struct {
	protocol.PlayerTarget
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store provides SQLite-backed roster persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a roster database and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	sqlDB, err := sqlitemigrate.Open(path)
	if err != nil {
		return nil, err
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// UpsertPlayer enrolls a player, or updates the actor key of an existing one
// without changing its enrollment position. Upserting reactivates a player.
func (s *Store) UpsertPlayer(ctx context.Context, target protocol.PlayerTarget) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target.PlayerID = strings.TrimSpace(target.PlayerID)
	target.ActorKey = strings.TrimSpace(target.ActorKey)
	if target.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	if target.ActorKey == "" {
		return fmt.Errorf("actor key is required")
	}
	now := s.now().UTC().UnixMilli()
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO players (player_id, actor_key, active, created_at, updated_at)
VALUES (?, ?, 1, ?, ?)
ON CONFLICT (player_id) DO UPDATE SET
	actor_key = excluded.actor_key,
	active = 1,
	updated_at = excluded.updated_at
`, target.PlayerID, target.ActorKey, now, now)
	if err != nil {
		return fmt.Errorf("upsert player %s: %w", target.PlayerID, err)
	}
	return nil
}

// SetActive toggles whether the shard polls playerID.
func (s *Store) SetActive(ctx context.Context, playerID string, active bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	flag := 0
	if active {
		flag = 1
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE players SET active = ?, updated_at = ? WHERE player_id = ?`,
		flag, s.now().UTC().UnixMilli(), strings.TrimSpace(playerID))
	if err != nil {
		return fmt.Errorf("set active %s: %w", playerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set active %s: %w", playerID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return nil
}

// ListActive returns active players in enrollment order.
func (s *Store) ListActive(ctx context.Context) ([]protocol.PlayerTarget, error) {
	players, err := s.list(ctx, true)
	if err != nil {
		return nil, err
	}
	targets := make([]protocol.PlayerTarget, 0, len(players))
	for _, p := range players {
		targets = append(targets, p.PlayerTarget)
	}
	return targets, nil
}

// ListPlayers returns every player, active or not, in enrollment order.
func (s *Store) ListPlayers(ctx context.Context) ([]Player, error) {
	return s.list(ctx, false)
}

func (s *Store) list(ctx context.Context, activeOnly bool) ([]Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `SELECT player_id, actor_key, active, created_at, updated_at FROM players`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY enrollment ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		var (
			p                Player
			active           int
			created, updated int64
		)
		if err := rows.Scan(&p.PlayerID, &p.ActorKey, &active, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Active = active == 1
		p.CreatedAt = time.UnixMilli(created).UTC()
		p.UpdatedAt = time.UnixMilli(updated).UTC()
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}
