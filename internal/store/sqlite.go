package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/aLoneMass/historybot/internal/domain"
)

// SQLiteStore implements Store on an embedded SQLite database so schedules
// survive restarts and timers can be re-armed on startup.
type SQLiteStore struct{ db *sql.DB }

// OpenSQLite opens (or creates) the database at the given path, applies
// recommended PRAGMAs, runs the SQL migrations, and returns the store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single connection: SQLite is a single-writer engine, and one connection
	// also serializes the flag consume against concurrent cancellations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteStore) Close() error {
	return r.db.Close()
}

func (r *SQLiteStore) Put(ctx context.Context, s *domain.PublicationSchedule) error {
	if s == nil {
		return errors.New("nil schedule")
	}

	created := s.CreatedAt.UTC().Unix()
	if s.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO schedules (
			user_id, created_at, media_file_id, link,
			hour, minute, interval_days, cancel_next, pending_job_id, next_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			media_file_id  = excluded.media_file_id,
			link           = excluded.link,
			hour           = excluded.hour,
			minute         = excluded.minute,
			interval_days  = excluded.interval_days,
			cancel_next    = excluded.cancel_next,
			pending_job_id = excluded.pending_job_id,
			next_at        = excluded.next_at`,
		s.UserID, created, s.MediaFileID, s.Link,
		s.Hour, s.Minute, s.IntervalDays, boolToInt(s.CancelNext),
		s.PendingJobID, s.NextAt.UTC().Unix(),
	)
	return err
}

func (r *SQLiteStore) Get(ctx context.Context, userID int64) (*domain.PublicationSchedule, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, created_at, media_file_id, link,
		       hour, minute, interval_days, cancel_next, pending_job_id, next_at
		FROM schedules
		WHERE user_id = ?`,
		userID,
	)
	s, err := scanSchedule(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SQLiteStore) Delete(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE user_id = ?`, userID)
	return err
}

func (r *SQLiteStore) All(ctx context.Context) ([]domain.PublicationSchedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, created_at, media_file_id, link,
		       hour, minute, interval_days, cancel_next, pending_job_id, next_at
		FROM schedules
		ORDER BY next_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.PublicationSchedule
	for rows.Next() {
		s, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (r *SQLiteStore) SetCancelNext(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE schedules SET cancel_next = 1 WHERE user_id = ?`, userID)
	return err
}

// ConsumeCancelNext clears the flag in a single conditional UPDATE; the
// affected-row count tells whether it was set, so check and reset cannot be
// interleaved with a concurrent cancellation.
func (r *SQLiteStore) ConsumeCancelNext(ctx context.Context, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedules SET cancel_next = 0
		WHERE user_id = ? AND cancel_next = 1`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteStore) SetPending(ctx context.Context, userID int64, jobID string, nextAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE schedules SET pending_job_id = ?, next_at = ? WHERE user_id = ?`,
		jobID, nextAt.UTC().Unix(), userID)
	return err
}

func scanSchedule(scan func(dest ...any) error) (*domain.PublicationSchedule, error) {
	var (
		s          domain.PublicationSchedule
		createdAt  int64
		cancelInt  int
		nextAtUnix int64
	)
	if err := scan(
		&s.UserID, &createdAt, &s.MediaFileID, &s.Link,
		&s.Hour, &s.Minute, &s.IntervalDays, &cancelInt,
		&s.PendingJobID, &nextAtUnix,
	); err != nil {
		return nil, err
	}
	s.CancelNext = cancelInt != 0
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.NextAt = time.Unix(nextAtUnix, 0).UTC()
	return &s, nil
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
