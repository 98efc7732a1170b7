package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tonearm/internal/services"
)

// Store manages job history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", "history path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection
	// gets them; journal_mode is persistent and applied once.
	dsn := "file:" + filepath.ToSlash(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply journal mode: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record stores a finished job and the lines its tools printed.
func (s *Store) Record(ctx context.Context, job Job, messages []string) error {
	if strings.TrimSpace(job.ID) == "" {
		return services.Wrap(services.ErrValidation, "history", "record", "job id is empty", nil)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO jobs (
            id, source_path, output_path, codec, step, state, outcome,
            exit_code, output_bytes, error_message, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.Source,
		nullableString(job.Output),
		nullableString(job.Codec),
		nullableString(job.Step),
		job.State,
		nullableString(job.Outcome),
		job.ExitCode,
		job.OutputBytes,
		nullableString(job.Error),
		formatTime(job.StartedAt),
		formatTime(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO job_messages (job_id, seq, line) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare message insert: %w", err)
	}
	defer stmt.Close()
	for i, line := range messages {
		if _, err := stmt.ExecContext(ctx, job.ID, i, line); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

const jobColumns = "id, source_path, output_path, codec, step, state, outcome, exit_code, output_bytes, error_message, started_at, finished_at"

// Get fetches a job by its full id or by a unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, "history", "get", "job id is empty", nil)
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2",
		id, stripLikeWildcards(id)+"%", id,
	)
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	defer rows.Close()

	var matches []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, services.Wrap(services.ErrNotFound, "history", "get", fmt.Sprintf("job %q", id), nil)
	case matches[0].ID == id || len(matches) == 1:
		return matches[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "history", "get", fmt.Sprintf("job prefix %q is ambiguous", id), nil)
	}
}

// List returns the most recent jobs first. A limit <= 0 returns every job.
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	query := "SELECT " + jobColumns + " FROM jobs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

// Messages returns the recorded tool output of a job in emission order.
func (s *Store) Messages(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT line FROM job_messages WHERE job_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return lines, nil
}

// Prune deletes jobs that finished before the cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE finished_at < ?", formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job         Job
		output      sql.NullString
		codec       sql.NullString
		step        sql.NullString
		outcome     sql.NullString
		exitCode    sql.NullInt64
		errMessage  sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&job.ID,
		&job.Source,
		&output,
		&codec,
		&step,
		&job.State,
		&outcome,
		&exitCode,
		&job.OutputBytes,
		&errMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "history", "scan", "job", err)
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	job.Output = output.String
	job.Codec = codec.String
	job.Step = step.String
	job.Outcome = outcome.String
	job.ExitCode = int(exitCode.Int64)
	job.Error = errMessage.String
	job.StartedAt = parseTime(startedRaw)
	job.FinishedAt = parseTime(finishedRaw)
	return &job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// Timestamps are stored as fixed-width UTC text so lexical order matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer(`%`, "", `_`, "").Replace(value)
}
