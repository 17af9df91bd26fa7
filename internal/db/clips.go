package db

import (
	"context"

	"github.com/google/uuid"
)

const clipColumns = `id, segment_id, video_id, storage_key, thumbnail_key, title,
	description, tags, status, created_at, updated_at`

func scanClip(row interface{ Scan(...any) error }) (*Clip, error) {
	var c Clip
	err := row.Scan(&c.ID, &c.SegmentID, &c.VideoID, &c.StorageKey, &c.ThumbnailKey,
		&c.Title, &c.Description, &c.Tags, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type InsertClipParams struct {
	ID           uuid.UUID
	SegmentID    uuid.UUID
	VideoID      uuid.UUID
	StorageKey   string
	ThumbnailKey *string
	Title        string
	Description  string
	Tags         []string
}

// InsertClip creates the clip row for a segment. segment_id is unique: a
// redelivered extraction task hitting the conflict returns the existing row,
// which callers treat as success.
func (q *Queries) InsertClip(ctx context.Context, p *InsertClipParams) (*Clip, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO clips (id, segment_id, video_id, storage_key, thumbnail_key,
			title, description, tags, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'ready_for_review')
		ON CONFLICT (segment_id) DO UPDATE SET updated_at = clips.updated_at
		RETURNING `+clipColumns,
		p.ID, p.SegmentID, p.VideoID, p.StorageKey, p.ThumbnailKey,
		p.Title, p.Description, tags)
	return scanClip(row)
}

func (q *Queries) CountClipsByVideo(ctx context.Context, videoID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM clips WHERE video_id = $1`, videoID).Scan(&n)
	return n, err
}
