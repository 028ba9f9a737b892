package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/podcast-radar/internal/domain"
)

type JobRepo struct {
	db          *DB
	maxAttempts int
}

func NewJobRepo(db *DB, maxAttempts int) *JobRepo {
	if maxAttempts <= 0 {
		maxAttempts = domain.DefaultJobMaxAttempts
	}
	return &JobRepo{db: db, maxAttempts: maxAttempts}
}

const jobColumns = `
    id, track_id, track_name, payload, status, attempts, max_attempts,
    COALESCE(error, ''), last_attempt_at, completed_at, created_at, updated_at
`

// EnqueueMany вставляет джобы, пропуская track_id, по которым уже есть
// джоба в pending/processing/completed. failed намеренно не блокирует
// повторную постановку.
func (r *JobRepo) EnqueueMany(ctx context.Context, snapshots []domain.PodcastSnapshot) ([]domain.Job, error) {
	if len(snapshots) == 0 {
		return nil, nil
	}

	query := `
        INSERT INTO podcast_jobs (track_id, track_name, payload, status, attempts, max_attempts)
        SELECT $1, $2, $3, 'pending', 0, $4
        WHERE NOT EXISTS (
            SELECT 1 FROM podcast_jobs
            WHERE track_id = $1 AND status IN ('pending', 'processing', 'completed')
        )
        RETURNING id, created_at, updated_at
    `

	var created []domain.Job
	for _, snap := range snapshots {
		job := domain.Job{
			TrackID:     snap.TrackID,
			TrackName:   snap.TrackName,
			Payload:     snap,
			Status:      domain.JobPending,
			MaxAttempts: r.maxAttempts,
		}

		err := r.db.Pool.QueryRow(ctx, query,
			snap.TrackID,
			snap.TrackName,
			snap,
			r.maxAttempts,
		).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue // активная джоба уже есть
			}
			return created, fmt.Errorf("enqueue job: %w", err)
		}

		created = append(created, job)
	}

	return created, nil
}

func (r *JobRepo) DequeueBatch(ctx context.Context, n int) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + `
        FROM podcast_jobs
        WHERE status = 'pending' AND attempts < max_attempts
        ORDER BY created_at ASC
        LIMIT $1
    `

	rows, err := r.db.Pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("dequeue batch: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		var j domain.Job
		var status string
		err := rows.Scan(
			&j.ID,
			&j.TrackID,
			&j.TrackName,
			&j.Payload,
			&status,
			&j.Attempts,
			&j.MaxAttempts,
			&j.Error,
			&j.LastAttemptAt,
			&j.CompletedAt,
			&j.CreatedAt,
			&j.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Status = domain.JobStatus(status)
		jobs = append(jobs, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return jobs, nil
}

func (r *JobRepo) MarkProcessing(ctx context.Context, id int64) error {
	query := `
        UPDATE podcast_jobs
        SET status = 'processing', last_attempt_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND status = 'pending'
    `

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *JobRepo) MarkCompleted(ctx context.Context, id int64) error {
	query := `
        UPDATE podcast_jobs
        SET status = 'completed', completed_at = NOW(), updated_at = NOW()
        WHERE id = $1 AND status = 'processing'
    `

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *JobRepo) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	query := `
        UPDATE podcast_jobs
        SET attempts = attempts + 1,
            status = CASE WHEN attempts + 1 >= max_attempts THEN 'failed' ELSE 'pending' END,
            error = $2,
            last_attempt_at = NOW(),
            updated_at = NOW()
        WHERE id = $1
    `

	result, err := r.db.Pool.Exec(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *JobRepo) ExistingTrackIDs(ctx context.Context, trackIDs []int64) ([]int64, error) {
	if len(trackIDs) == 0 {
		return nil, nil
	}

	query := `
        SELECT DISTINCT track_id FROM podcast_jobs
        WHERE track_id = ANY($1) AND status IN ('pending', 'processing', 'completed')
    `

	rows, err := r.db.Pool.Query(ctx, query, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("existing job track ids: %w", err)
	}
	defer rows.Close()

	var existing []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan track id: %w", err)
		}
		existing = append(existing, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return existing, nil
}

func (r *JobRepo) Stats(ctx context.Context) (*domain.JobStats, error) {
	query := `
        SELECT
            COUNT(*) FILTER (WHERE status = 'pending'),
            COUNT(*) FILTER (WHERE status = 'processing'),
            COUNT(*) FILTER (WHERE status = 'completed'),
            COUNT(*) FILTER (WHERE status = 'failed'),
            COUNT(*)
        FROM podcast_jobs
    `

	var stats domain.JobStats
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&stats.Pending,
		&stats.Processing,
		&stats.Completed,
		&stats.Failed,
		&stats.Total,
	)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}

	return &stats, nil
}
