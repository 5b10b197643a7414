// Package history keeps a sqlite record of every run and its rows.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"botprobe/internal/history/db"

	_ "modernc.org/sqlite"
)

type Run struct {
	ID         int64
	Kind       string
	BotUrl     string
	InputPath  string
	OutputPath string
	StartedAt  time.Time
	// FinishedAt is the zero time for runs that were interrupted.
	FinishedAt time.Time
	Total      int
	Ok         int
	Failed     int
}

type Result struct {
	RunID    int64
	Index    int
	Input    string
	Status   string
	Reply    string
	Class    string
	Duration time.Duration
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at `path`, ":memory:" is accepted.
func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, fmt.Errorf("open history db: %w", err)
	}
	// a single connection keeps ":memory:" databases alive between calls
	database.SetMaxOpenConns(1)

	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return Store{}, fmt.Errorf("create history schema: %w", err)
	}
	return Store{db: database}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) BeginRun(ctx context.Context, run Run) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`insert into run (kind, bot_url, input_path, output_path, started_at) values (?, ?, ?, ?, ?)`,
		run.Kind, run.BotUrl, run.InputPath, run.OutputPath, run.StartedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return res.LastInsertId()
}

func (s Store) AddResult(ctx context.Context, result Result) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into result (run_id, idx, input, status, reply, class, duration_ms) values (?, ?, ?, ?, ?, ?, ?)`,
		result.RunID, result.Index, result.Input, result.Status, result.Reply, result.Class,
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("add result %d: %w", result.Index, err)
	}
	return nil
}

func (s Store) FinishRun(ctx context.Context, runID int64, finishedAt time.Time, total, ok, failed int) error {
	res, err := s.db.ExecContext(
		ctx,
		`update run set finished_at = ?, total = ?, ok = ?, failed = ? where id = ?`,
		finishedAt.UnixMilli(), total, ok, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run with id %d", runID)
	}
	return nil
}

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var run Run
	var startedAt int64
	var finishedAt sql.NullInt64
	err := row.Scan(
		&run.ID, &run.Kind, &run.BotUrl, &run.InputPath, &run.OutputPath,
		&startedAt, &finishedAt, &run.Total, &run.Ok, &run.Failed,
	)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = time.UnixMilli(finishedAt.Int64)
	}
	return run, nil
}

const runColumns = `id, kind, bot_url, input_path, output_path, started_at, finished_at, total, ok, failed`

// ListRuns returns the most recent runs first.
func (s Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`select `+runColumns+` from run order by id desc limit ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ErrRunNotFound is returned by GetRun for unknown ids.
var ErrRunNotFound = errors.New("run not found")

func (s Store) GetRun(ctx context.Context, runID int64) (Run, error) {
	row := s.db.QueryRowContext(ctx, `select `+runColumns+` from run where id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %d", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// GetResults returns the rows of a run ordered by index.
func (s Store) GetResults(ctx context.Context, runID int64) ([]Result, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select run_id, idx, input, status, reply, class, duration_ms from result where run_id = ? order by idx`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("get results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var durationMs int64
		err := rows.Scan(&r.RunID, &r.Index, &r.Input, &r.Status, &r.Reply, &r.Class, &durationMs)
		if err != nil {
			return nil, fmt.Errorf("get results: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}
