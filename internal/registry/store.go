package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"clipforge/internal/config"
)

// Store manages run and clip persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the registry database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "registry.db")
	return OpenPath(dbPath)
}

// OpenPath opens the registry database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
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

// StartRun inserts a new run in the fetching state.
func (s *Store) StartRun(ctx context.Context, runID, videoID, sourceURL string, clipsRequested int) (*Run, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, video_id, source_url, status, clips_requested, clips_rendered, started_at)
         VALUES (?, ?, ?, ?, ?, 0, ?)`,
		runID,
		videoID,
		sourceURL,
		StatusFetching,
		clipsRequested,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, runID)
}

// SetStatus advances a run to the given stage.
func (s *Store) SetStatus(ctx context.Context, runID string, status RunStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, status, runID)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set status: run %q not found", runID)
	}
	return nil
}

// FinishRun records the terminal state of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, status RunStatus, clipsRendered int, errorMessage string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, clips_rendered = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status,
		clipsRendered,
		nullableString(errorMessage),
		now.Format(time.RFC3339Nano),
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish run: run %q not found", runID)
	}
	return nil
}

// GetRun fetches a run by identifier. Returns nil when no run matches.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs for a video id, newest first. An empty video id
// returns all runs.
func (s *Store) ListRuns(ctx context.Context, videoID string) ([]*Run, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if videoID == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs WHERE video_id = ? ORDER BY started_at DESC`, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
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

// RecordClip persists one rendered clip for a run.
func (s *Store) RecordClip(ctx context.Context, clip Clip) (int64, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO clips (run_id, video_id, rank, window_id, start_time, end_time, final_score, file_path, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		clip.RunID,
		clip.VideoID,
		clip.Rank,
		clip.WindowID,
		clip.StartTime,
		clip.EndTime,
		clip.FinalScore,
		clip.FilePath,
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert clip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// ClipsForRun returns the clips of a run ordered by rank.
func (s *Store) ClipsForRun(ctx context.Context, runID string) ([]*Clip, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clipColumns+` FROM clips WHERE run_id = ? ORDER BY rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("clips for run: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[RunStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[RunStatus]int)
	for rows.Next() {
		var status RunStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const runColumns = "id, video_id, source_url, status, clips_requested, clips_rendered, error_message, started_at, finished_at"

const clipColumns = "id, run_id, video_id, rank, window_id, start_time, end_time, final_score, file_path, created_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		statusStr    string
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.VideoID,
		&run.SourceURL,
		&statusStr,
		&run.ClipsRequested,
		&run.ClipsRendered,
		&errorMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = RunStatus(statusStr)
	run.ErrorMessage = errorMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func scanClip(scanner interface{ Scan(dest ...any) error }) (*Clip, error) {
	var (
		clip       Clip
		createdRaw string
	)
	if err := scanner.Scan(
		&clip.ID,
		&clip.RunID,
		&clip.VideoID,
		&clip.Rank,
		&clip.WindowID,
		&clip.StartTime,
		&clip.EndTime,
		&clip.FinalScore,
		&clip.FilePath,
		&createdRaw,
	); err != nil {
		return nil, err
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		clip.CreatedAt = created
	}
	return &clip, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
