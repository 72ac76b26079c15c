package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/richard-senior/hockey/internal/logger"
	"github.com/richard-senior/hockey/pkg/hockey"
	_ "modernc.org/sqlite"
)

const (
	TeamTable   = "team"
	GameTable   = "game"
	PeriodTable = "period_result"
	RunTable    = "import_run"
)

// ImportRun is the persisted summary of one ingestion run
type ImportRun struct {
	ID        string `json:"id" column:"id" dbtype:"TEXT NOT NULL" primary:"true"`
	StartedAt string `json:"started_at" column:"started_at" dbtype:"TEXT NOT NULL" index:"true"`
	Source    string `json:"source,omitempty" column:"source" dbtype:"TEXT"`
	Processed int    `json:"processed" column:"processed" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	Inserted  int    `json:"inserted" column:"inserted" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	Skipped   int    `json:"skipped" column:"skipped" dbtype:"INTEGER NOT NULL DEFAULT 0"`
	Failed    int    `json:"failed" column:"failed" dbtype:"INTEGER NOT NULL DEFAULT 0"`
}

// Store is the sqlite backed record of teams, games and period rows
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and makes sure every table
// exists. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite has a single writer, and an in-memory database only lives as long as its
	// one connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database initialized successfully", path)
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	tables := []struct {
		name  string
		proto any
	}{
		{TeamTable, hockey.Team{}},
		{GameTable, hockey.Game{}},
		{PeriodTable, hockey.PeriodResult{}},
		{RunTable, ImportRun{}},
	}
	for _, t := range tables {
		if err := createTable(ctx, s.db, t.proto, t.name); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path is where the database lives
func (s *Store) Path() string {
	return s.path
}

// Ping checks the connection is still usable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveTeams inserts or updates the given teams in one transaction
func (s *Store) SaveTeams(ctx context.Context, teams []hockey.Team) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, t := range teams {
			if err := save(ctx, tx, t, TeamTable); err != nil {
				return fmt.Errorf("failed to save team %s: %w", t.Code, err)
			}
		}
		return nil
	})
}

// Teams returns every stored team ordered by code
func (s *Store) Teams(ctx context.Context) ([]hockey.Team, error) {
	return findWhere[hockey.Team](ctx, s.db, TeamTable, "", "code")
}

// GameExists reports whether a game with this id is stored
func (s *Store) GameExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+GameTable+" WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check game %s: %w", id, err)
	}
	return n > 0, nil
}

// ReplaceGame stores a game and exactly the given period rows, dropping any rows
// previously stored for it. Everything happens in one transaction.
func (s *Store) ReplaceGame(ctx context.Context, game hockey.Game, rows []hockey.PeriodResult) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+PeriodTable+" WHERE game_id = ?", game.ID); err != nil {
			return fmt.Errorf("failed to clear period rows of %s: %w", game.ID, err)
		}
		if err := save(ctx, tx, game, GameTable); err != nil {
			return err
		}
		for _, r := range rows {
			if r.GameID != game.ID {
				return fmt.Errorf("period row for game %s passed with game %s", r.GameID, game.ID)
			}
			if err := save(ctx, tx, r, PeriodTable); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteGame removes a game, its period rows going with it
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+GameTable+" WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete game %s: %w", id, err)
	}
	return nil
}

// gameFilter turns the game side of a scope into a WHERE clause
func gameFilter(scope hockey.Scope) (string, []any) {
	var where []string
	var args []any
	if scope.Season != "" {
		where = append(where, "season = ?")
		args = append(args, hockey.NormaliseSeason(scope.Season))
	}
	if scope.From != "" {
		where = append(where, "date >= ?")
		args = append(args, scope.From)
	}
	if scope.To != "" {
		where = append(where, "date <= ?")
		args = append(args, scope.To)
	}
	if scope.TeamCode != "" {
		where = append(where, "(home_team_code = ? OR away_team_code = ?)")
		args = append(args, scope.TeamCode, scope.TeamCode)
	}
	return strings.Join(where, " AND "), args
}

// Games returns the games matching the scope's team, season and date filters, in date
// order
func (s *Store) Games(ctx context.Context, scope hockey.Scope) ([]hockey.Game, error) {
	where, args := gameFilter(scope)
	return findWhere[hockey.Game](ctx, s.db, GameTable, where, "date, id", args...)
}

// Query returns the games matching the scope together with every period row of those
// games, for both teams
func (s *Store) Query(ctx context.Context, scope hockey.Scope) ([]hockey.Game, []hockey.PeriodResult, error) {
	games, err := s.Games(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	where, args := gameFilter(scope)
	sub := "SELECT id FROM " + GameTable
	if where != "" {
		sub += " WHERE " + where
	}
	rows, err := findWhere[hockey.PeriodResult](ctx, s.db, PeriodTable, "game_id IN ("+sub+")", "game_id, team_code, period_number", args...)
	if err != nil {
		return nil, nil, err
	}
	return games, rows, nil
}

// Corpus loads everything the health checker needs: every team, every game and every
// period row, including rows that no longer have a game
func (s *Store) Corpus(ctx context.Context) ([]hockey.Team, []hockey.Game, []hockey.PeriodResult, error) {
	teams, err := s.Teams(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	games, err := s.Games(ctx, hockey.Scope{})
	if err != nil {
		return nil, nil, nil, err
	}
	rows, err := findWhere[hockey.PeriodResult](ctx, s.db, PeriodTable, "", "game_id, team_code, period_number")
	if err != nil {
		return nil, nil, nil, err
	}
	return teams, games, rows, nil
}

// Backfill recomputes the derived columns of every stored period row and writes back
// the ones that were stale. It returns how many rows changed.
func (s *Store) Backfill(ctx context.Context) (int, error) {
	stored, err := findWhere[hockey.PeriodResult](ctx, s.db, PeriodTable, "", "game_id, team_code, period_number")
	if err != nil {
		return 0, err
	}
	type key struct {
		game, team string
		period     int
	}
	before := make(map[key]hockey.PeriodResult, len(stored))
	for _, r := range stored {
		before[key{r.GameID, r.TeamCode, r.PeriodNumber}] = r
	}

	changed := 0
	err = inTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, r := range hockey.Rederive(stored) {
			if before[key{r.GameID, r.TeamCode, r.PeriodNumber}] == r {
				continue
			}
			if err := save(ctx, tx, r, PeriodTable); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("Backfill complete, rows updated:", changed)
	return changed, nil
}

// RecordRun stores the summary of an ingestion run
func (s *Store) RecordRun(ctx context.Context, run ImportRun) error {
	return save(ctx, s.db, run, RunTable)
}

// Runs returns the most recent ingestion runs, newest first
func (s *Store) Runs(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return findWhere[ImportRun](ctx, s.db, RunTable, "", fmt.Sprintf("started_at DESC LIMIT %d", limit))
}
