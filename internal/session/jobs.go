package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"soundlab/internal/timeline"
)

// NewRenderJob enqueues an offline mixdown for a saved session.
func (s *Store) NewRenderJob(ctx context.Context, sessionID int64, sampleRate, channels int, solo []timeline.Lane) (*RenderJob, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	soloJSON, err := encodeLanes(solo)
	if err != nil {
		return nil, err
	}

	job := &RenderJob{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Status:     JobPending,
		SampleRate: sampleRate,
		Channels:   channels,
		SoloLanes:  append([]timeline.Lane(nil), solo...),
		CreatedAt:  time.Now().UTC(),
	}
	job.UpdatedAt = job.CreatedAt

	timestamp := job.CreatedAt.Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO render_jobs (
            id, session_id, status, sample_rate, channels, solo_lanes,
            progress_percent, progress_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, 0, '', ?, ?)`,
		job.ID, sessionID, job.Status, sampleRate, channels, soloJSON, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert render job: %w", err)
	}
	return job, nil
}

// NextPendingJob claims the oldest pending job, transitioning it to
// rendering. Returns nil when the queue is empty.
func (s *Store) NextPendingJob(ctx context.Context) (*RenderJob, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(
		ctx,
		`SELECT id FROM render_jobs WHERE status = ? ORDER BY created_at LIMIT 1`,
		JobPending,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim job: %w", err)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE render_jobs SET status = ?, updated_at = ? WHERE id = ?`,
		JobRendering, timestamp, id,
	); err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return s.GetRenderJob(ctx, id)
}

// UpdateJobProgress records progress for an in-flight job.
func (s *Store) UpdateJobProgress(ctx context.Context, id string, percent int, message string) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return s.execJobUpdate(
		ctx,
		`UPDATE render_jobs SET progress_percent = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		percent, message, now(), id,
	)
}

// CompleteJob marks a job finished with its output file.
func (s *Store) CompleteJob(ctx context.Context, id, outputPath string) error {
	return s.execJobUpdate(
		ctx,
		`UPDATE render_jobs SET status = ?, progress_percent = 100, output_path = ?, updated_at = ? WHERE id = ?`,
		JobCompleted, outputPath, now(), id,
	)
}

// FailJob marks a job failed with the given reason.
func (s *Store) FailJob(ctx context.Context, id, reason string) error {
	return s.execJobUpdate(
		ctx,
		`UPDATE render_jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		JobFailed, reason, now(), id,
	)
}

// ResetStuckJobs rolls rendering jobs back to pending, used at daemon
// startup after an unclean shutdown.
func (s *Store) ResetStuckJobs(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE render_jobs SET status = ?, progress_percent = 0, progress_message = '', updated_at = ? WHERE status = ?`,
		JobPending, now(), JobRendering,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// FailActiveJobs fails every pending or rendering job, used during daemon
// shutdown when the worker will not return.
func (s *Store) FailActiveJobs(ctx context.Context, reason string) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE render_jobs SET status = ?, error_message = ?, updated_at = ? WHERE status IN (?, ?)`,
		JobFailed, reason, now(), JobPending, JobRendering,
	)
	if err != nil {
		return 0, fmt.Errorf("fail active jobs: %w", err)
	}
	return res.RowsAffected()
}

// GetRenderJob fetches one job by id.
func (s *Store) GetRenderJob(ctx context.Context, id string) (*RenderJob, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, session_id, status, sample_rate, channels, solo_lanes,
                progress_percent, progress_message, output_path, error_message,
                created_at, updated_at
         FROM render_jobs WHERE id = ?`,
		id,
	)
	return scanJob(row)
}

// ListRenderJobs returns jobs ordered newest first, optionally filtered by
// status.
func (s *Store) ListRenderJobs(ctx context.Context, statuses ...JobStatus) ([]*RenderJob, error) {
	query := `SELECT id, session_id, status, sample_rate, channels, solo_lanes,
                     progress_percent, progress_message, output_path, error_message,
                     created_at, updated_at
              FROM render_jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (?" + strings.Repeat(",?", len(statuses)-1) + ")"
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list render jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*RenderJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// JobStats counts jobs per status.
func (s *Store) JobStats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM render_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("job stats: %w", err)
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func (s *Store) execJobUpdate(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update render job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update render job: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanJob(row rowScanner) (*RenderJob, error) {
	var (
		job       RenderJob
		soloJSON  string
		output    sql.NullString
		errMsg    sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&job.ID, &job.SessionID, &job.Status, &job.SampleRate, &job.Channels, &soloJSON,
		&job.ProgressPercent, &job.ProgressMessage, &output, &errMsg, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan render job: %w", err)
	}
	lanes, err := decodeLanes(soloJSON)
	if err != nil {
		return nil, err
	}
	job.SoloLanes = lanes
	job.OutputPath = output.String
	job.ErrorMessage = errMsg.String
	job.CreatedAt = parseTimestamp(createdAt)
	job.UpdatedAt = parseTimestamp(updatedAt)
	return &job, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
