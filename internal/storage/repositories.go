package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docsnip/internal/errors"
	"docsnip/internal/snippet"
)

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run represents one extract, check or run invocation
type Run struct {
	ID           string     `json:"id" yaml:"id" toml:"id"`
	Command      string     `json:"command" yaml:"command" toml:"command"`
	Status       RunStatus  `json:"status" yaml:"status" toml:"status"`
	StartedAt    time.Time  `json:"startedAt" yaml:"startedAt" toml:"startedAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty" toml:"finishedAt,omitempty"`
	Files        int        `json:"files" yaml:"files" toml:"files"`
	Skipped      int        `json:"skipped" yaml:"skipped" toml:"skipped"`
	Snippets     int        `json:"snippets" yaml:"snippets" toml:"snippets"`
	Ignored      int        `json:"ignored" yaml:"ignored" toml:"ignored"`
	ErrorCode    string     `json:"errorCode,omitempty" yaml:"errorCode,omitempty" toml:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty" yaml:"errorMessage,omitempty" toml:"errorMessage,omitempty"`
}

// ArtifactRecord represents one snippet file written during a run
type ArtifactRecord struct {
	RunID    string `json:"-" yaml:"-" toml:"-"`
	Language string `json:"language" yaml:"language" toml:"language"`
	Path     string `json:"path" yaml:"path" toml:"path"`
	DocPath  string `json:"docPath" yaml:"docPath" toml:"docPath"`
	Ordinal  int    `json:"ordinal" yaml:"ordinal" toml:"ordinal"`
	Digest   string `json:"digest" yaml:"digest" toml:"digest"`
	Size     int    `json:"size" yaml:"size" toml:"size"`
}

// CheckRecord represents one toolchain result recorded during a run
type CheckRecord struct {
	RunID    string        `json:"-" yaml:"-" toml:"-"`
	Language string        `json:"language" yaml:"language" toml:"language"`
	Command  string        `json:"command" yaml:"command" toml:"command"`
	Passed   bool          `json:"passed" yaml:"passed" toml:"passed"`
	ExitCode int           `json:"exitCode" yaml:"exitCode" toml:"exitCode"`
	Duration time.Duration `json:"durationNs" yaml:"durationNs" toml:"durationNs"`
	Output   string        `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
}

// RunRepository provides operations on the runs, artifacts and checks tables
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Start inserts a new running run with a fresh ID
func (r *RunRepository) Start(command string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Command:   command,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(`
		INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)
	`, run.ID, run.Command, string(run.Status), run.StartedAt.Format(timeFormat))
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	return run, nil
}

// Finish records the outcome of run. stats may be nil for check-only runs.
func (r *RunRepository) Finish(run *Run, stats *snippet.RunStats, runErr error) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = RunSucceeded
	if stats != nil {
		run.Files = stats.Files
		run.Skipped = stats.Skipped
		run.Snippets = stats.Snippets
		run.Ignored = stats.Ignored
	}
	if runErr != nil {
		run.Status = RunFailed
		run.ErrorCode = string(errors.CodeOf(runErr))
		run.ErrorMessage = runErr.Error()
	}

	_, err := r.db.Exec(`
		UPDATE runs
		SET status = ?, finished_at = ?, files = ?, skipped = ?, snippets = ?, ignored = ?,
		    error_code = ?, error_message = ?
		WHERE id = ?
	`,
		string(run.Status),
		now.Format(timeFormat),
		run.Files,
		run.Skipped,
		run.Snippets,
		run.Ignored,
		nullString(run.ErrorCode),
		nullString(run.ErrorMessage),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// AddArtifact records a written snippet, replacing an earlier record of the
// same file in the same run
func (r *RunRepository) AddArtifact(rec *ArtifactRecord) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO artifacts (run_id, language, path, doc_path, ordinal, digest, size)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Language, rec.Path, rec.DocPath, rec.Ordinal, rec.Digest, rec.Size)
	if err != nil {
		return fmt.Errorf("failed to record artifact: %w", err)
	}
	return nil
}

// AddCheck records a toolchain result; Output is stored compressed
func (r *RunRepository) AddCheck(rec *CheckRecord) error {
	output, err := compress(rec.Output)
	if err != nil {
		return fmt.Errorf("failed to compress check output: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO checks (run_id, language, command, passed, exit_code, duration_ms, output)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.RunID, rec.Language, rec.Command, rec.Passed, rec.ExitCode, rec.Duration.Milliseconds(), output)
	if err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}
	return nil
}

// List returns the most recent runs, newest first. limit <= 0 means all.
func (r *RunRepository) List(limit int) ([]*Run, error) {
	query := runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return r.queryRuns(query, args...)
}

// Find returns the run whose ID equals or starts with prefix.
// It returns nil when nothing matches and an error when prefix is ambiguous.
func (r *RunRepository) Find(prefix string) (*Run, error) {
	if prefix == "" {
		return nil, nil
	}

	exact, err := r.queryRuns(runColumns+` FROM runs WHERE id = ?`, prefix)
	if err != nil {
		return nil, err
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	matches, err := r.queryRuns(runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

func (r *RunRepository) queryRuns(query string, args ...interface{}) ([]*Run, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Artifacts returns the artifacts recorded for a run, ordered by language and path
func (r *RunRepository) Artifacts(runID string) ([]*ArtifactRecord, error) {
	rows, err := r.db.Query(`
		SELECT run_id, language, path, doc_path, ordinal, digest, size
		FROM artifacts
		WHERE run_id = ?
		ORDER BY language, path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var records []*ArtifactRecord
	for rows.Next() {
		var rec ArtifactRecord
		if err := rows.Scan(&rec.RunID, &rec.Language, &rec.Path, &rec.DocPath, &rec.Ordinal, &rec.Digest, &rec.Size); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating artifacts: %w", err)
	}
	return records, nil
}

// Checks returns the toolchain results recorded for a run, ordered by language
func (r *RunRepository) Checks(runID string) ([]*CheckRecord, error) {
	rows, err := r.db.Query(`
		SELECT run_id, language, command, passed, exit_code, duration_ms, output
		FROM checks
		WHERE run_id = ?
		ORDER BY language
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	defer rows.Close()

	var records []*CheckRecord
	for rows.Next() {
		var rec CheckRecord
		var durationMs int64
		var output []byte
		if err := rows.Scan(&rec.RunID, &rec.Language, &rec.Command, &rec.Passed, &rec.ExitCode, &durationMs, &output); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		if rec.Output, err = decompress(output); err != nil {
			return nil, fmt.Errorf("failed to decompress check output: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checks: %w", err)
	}
	return records, nil
}

// Prune deletes all but the newest keep runs and returns how many were removed
func (r *RunRepository) Prune(keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	var removed int64
	err := r.db.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			DELETE FROM runs WHERE id NOT IN (
				SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
			)
		`, keep)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return removed, nil
}

const runColumns = `
	SELECT id, command, status, started_at, finished_at, files, skipped, snippets, ignored,
	       error_code, error_message`

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run

	for rows.Next() {
		var run Run
		var status, startedAt string
		var finishedAt, errorCode, errorMessage sql.NullString

		err := rows.Scan(
			&run.ID,
			&run.Command,
			&status,
			&startedAt,
			&finishedAt,
			&run.Files,
			&run.Skipped,
			&run.Snippets,
			&run.Ignored,
			&errorCode,
			&errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Status = RunStatus(status)
		run.ErrorCode = errorCode.String
		run.ErrorMessage = errorMessage.String

		run.StartedAt, err = time.Parse(timeFormat, startedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid started_at format: %w", err)
		}
		if finishedAt.Valid {
			t, err := time.Parse(timeFormat, finishedAt.String)
			if err != nil {
				return nil, fmt.Errorf("invalid finished_at format: %w", err)
			}
			run.FinishedAt = &t
		}

		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// escapeLike escapes LIKE wildcards. Run IDs are UUIDs, so only a literal
// prefix typed by a user can contain them.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_':
			out = append(out, '\\', s[i])
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
