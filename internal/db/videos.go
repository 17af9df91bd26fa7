package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const videoColumns = `id, user_id, external_id, source_url, title, description, duration,
	thumbnail_url, storage_key, status, metadata, created_at, updated_at`

func scanVideo(row interface{ Scan(...any) error }) (*Video, error) {
	var v Video
	err := row.Scan(&v.ID, &v.UserID, &v.ExternalID, &v.SourceURL, &v.Title, &v.Description,
		&v.Duration, &v.ThumbnailURL, &v.StorageKey, &v.Status, &v.Metadata,
		&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

type UpsertVideoParams struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ExternalID   string
	SourceURL    string
	Title        string
	Description  *string
	Duration     int
	ThumbnailURL *string
	StorageKey   string
	Metadata     json.RawMessage
}

// UpsertVideo creates the video row, or refreshes it when a redelivered
// download task re-runs for the same external ID.
func (q *Queries) UpsertVideo(ctx context.Context, p *UpsertVideoParams) (*Video, error) {
	metadata := p.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{}`)
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO videos (id, user_id, external_id, source_url, title, description,
			duration, thumbnail_url, storage_key, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'downloaded', $10)
		ON CONFLICT (external_id) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			duration = EXCLUDED.duration,
			thumbnail_url = EXCLUDED.thumbnail_url,
			storage_key = EXCLUDED.storage_key,
			metadata = EXCLUDED.metadata,
			updated_at = now()
		RETURNING `+videoColumns,
		p.ID, p.UserID, p.ExternalID, p.SourceURL, p.Title, p.Description,
		p.Duration, p.ThumbnailURL, p.StorageKey, metadata)
	return scanVideo(row)
}

func (q *Queries) GetVideo(ctx context.Context, id uuid.UUID) (*Video, error) {
	row := q.db.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)
	return scanVideo(row)
}

type SetVideoStatusParams struct {
	ID     uuid.UUID
	Status VideoStatus
}

func (q *Queries) SetVideoStatus(ctx context.Context, p *SetVideoStatusParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE videos SET status = $2, updated_at = now() WHERE id = $1`,
		p.ID, p.Status)
	return err
}

type AdvanceVideoStatusParams struct {
	ID   uuid.UUID
	From VideoStatus
	To   VideoStatus
}

// AdvanceVideoStatus moves a video to the next status only when it still
// holds the expected current one, reporting whether this caller performed
// the transition. The row lock serializes racing workers; the loser sees
// zero rows affected.
func (q *Queries) AdvanceVideoStatus(ctx context.Context, p *AdvanceVideoStatusParams) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE videos SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		p.ID, p.From, p.To)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
