package briefing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/oakmund/crier/pkg/source"
)

// ErrRunNotFound is returned by GetRun for unknown run ids.
var ErrRunNotFound = errors.New("run not found")

const runsSchema = `
CREATE TABLE IF NOT EXISTS briefing_runs (
	id TEXT PRIMARY KEY,
	config_id TEXT NOT NULL,
	content TEXT NOT NULL,
	results TEXT NOT NULL,
	succeeded INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_briefing_runs_created_at ON briefing_runs(created_at);
`

// Store records briefing runs in a local SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the run history database at path.
// Pass ":memory:" for an ephemeral store.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history database: %w", err)
	}
	if _, err := db.Exec(runsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize run history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	results, err := json.Marshal(run.Results)
	if err != nil {
		return fmt.Errorf("failed to serialize run results: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO briefing_runs (id, config_id, content, results, succeeded, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ConfigID, run.Content, string(results), run.Succeeded, run.Failed, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means no
// limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, config_id, content, results, succeeded, failed, created_at
	          FROM briefing_runs ORDER BY created_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, config_id, content, results, succeeded, failed, created_at
		 FROM briefing_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// Prune deletes runs older than the newest keep entries. Returns the number
// deleted.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM briefing_runs WHERE id NOT IN (
			SELECT id FROM briefing_runs ORDER BY created_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var results string
	var createdAt time.Time

	if err := row.Scan(&run.ID, &run.ConfigID, &run.Content, &results, &run.Succeeded, &run.Failed, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt = createdAt

	if err := json.Unmarshal([]byte(results), &run.Results); err != nil {
		return nil, fmt.Errorf("failed to decode run results: %w", err)
	}
	if run.Results == nil {
		run.Results = []source.ContextResult{}
	}
	return &run, nil
}
