package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const jobColumns = `id, user_id, source_url, video_id, status, progress, current_step,
	error_message, options, created_at, updated_at, completed_at`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var j Job
	var options []byte
	err := row.Scan(&j.ID, &j.UserID, &j.SourceURL, &j.VideoID, &j.Status, &j.Progress,
		&j.CurrentStep, &j.ErrorMessage, &options, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if err != nil {
		return nil, err
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &j.Options); err != nil {
			return nil, fmt.Errorf("decode job options: %w", err)
		}
	}
	return &j, nil
}

type CreateJobParams struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	SourceURL string
	Options   JobOptions
}

// CreateJob inserts a job in the queued state. Normally called by the API
// tier; the pipeline only reads and advances jobs.
func (q *Queries) CreateJob(ctx context.Context, p *CreateJobParams) (*Job, error) {
	options, err := json.Marshal(p.Options)
	if err != nil {
		return nil, fmt.Errorf("encode job options: %w", err)
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO jobs (id, user_id, source_url, status, options)
		VALUES ($1, $2, $3, 'queued', $4)
		RETURNING `+jobColumns,
		p.ID, p.UserID, p.SourceURL, options)
	return scanJob(row)
}

func (q *Queries) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := q.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

type SetJobStageParams struct {
	ID          uuid.UUID
	Status      JobStatus
	Progress    int
	CurrentStep string
	// From lists the statuses the job may advance from. The target status is
	// always allowed, so a redelivered task can re-enter its own stage.
	From []JobStatus
}

// SetJobStage advances a job's status/progress/step. The update applies only
// from the listed predecessor statuses, so a redelivered task from an earlier
// stage cannot drag the job backwards and terminal rows are never touched.
func (q *Queries) SetJobStage(ctx context.Context, p *SetJobStageParams) error {
	from := make([]string, 0, len(p.From)+1)
	for _, s := range p.From {
		from = append(from, string(s))
	}
	from = append(from, string(p.Status))
	_, err := q.db.Exec(ctx, `
		UPDATE jobs
		SET status = $2, progress = $3, current_step = $4, updated_at = now()
		WHERE id = $1 AND status = ANY($5)`,
		p.ID, p.Status, p.Progress, p.CurrentStep, from)
	return err
}

type SetJobProgressParams struct {
	ID          uuid.UUID
	Progress    int
	CurrentStep string
}

// SetJobProgress updates progress within the current stage.
func (q *Queries) SetJobProgress(ctx context.Context, p *SetJobProgressParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE jobs
		SET progress = $2, current_step = $3, updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')`,
		p.ID, p.Progress, p.CurrentStep)
	return err
}

type MarkJobFailedParams struct {
	ID           uuid.UUID
	ErrorMessage string
}

func (q *Queries) MarkJobFailed(ctx context.Context, p *MarkJobFailedParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE jobs
		SET status = 'failed', error_message = $2, updated_at = now()
		WHERE id = $1 AND status <> 'completed'`,
		p.ID, p.ErrorMessage)
	return err
}

type LinkJobVideoParams struct {
	ID      uuid.UUID
	VideoID uuid.UUID
}

func (q *Queries) LinkJobVideo(ctx context.Context, p *LinkJobVideoParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE jobs SET video_id = $2, updated_at = now() WHERE id = $1`,
		p.ID, p.VideoID)
	return err
}

// CompleteJob marks a job completed with full progress. Concurrent extraction
// workers may race here; every writer computes the same terminal state so the
// update is idempotent.
func (q *Queries) CompleteJob(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE jobs
		SET status = 'completed', progress = 100, current_step = 'Done',
		    completed_at = COALESCE(completed_at, now()), updated_at = now()
		WHERE id = $1 AND status <> 'failed'`,
		id)
	return err
}
