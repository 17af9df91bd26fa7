package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const segmentColumns = `id, video_id, start_time, end_time, duration, composite_score,
	yt_retention, signals, reason, status, has_captions, caption_style, caption_data,
	created_at, updated_at`

func scanSegment(row interface{ Scan(...any) error }) (*Segment, error) {
	var s Segment
	var signals []byte
	err := row.Scan(&s.ID, &s.VideoID, &s.StartTime, &s.EndTime, &s.Duration,
		&s.CompositeScore, &s.YtRetention, &signals, &s.Reason, &s.Status,
		&s.HasCaptions, &s.CaptionStyle, &s.CaptionData, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(signals) > 0 {
		if err := json.Unmarshal(signals, &s.Signals); err != nil {
			return nil, fmt.Errorf("decode segment signals: %w", err)
		}
	}
	return &s, nil
}

type InsertSegmentParams struct {
	ID             uuid.UUID
	VideoID        uuid.UUID
	StartTime      float64
	EndTime        float64
	CompositeScore float64
	Signals        map[string]float64
	Reason         string
}

func (q *Queries) InsertSegment(ctx context.Context, p *InsertSegmentParams) (*Segment, error) {
	signals, err := json.Marshal(p.Signals)
	if err != nil {
		return nil, fmt.Errorf("encode segment signals: %w", err)
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO segments (id, video_id, start_time, end_time, duration,
			composite_score, yt_retention, signals, reason, status)
		VALUES ($1, $2, $3, $4, $4 - $3, $5, $5, $6, $7, 'detected')
		RETURNING `+segmentColumns,
		p.ID, p.VideoID, p.StartTime, p.EndTime, p.CompositeScore, signals, p.Reason)
	return scanSegment(row)
}

func (q *Queries) GetSegment(ctx context.Context, id uuid.UUID) (*Segment, error) {
	row := q.db.QueryRow(ctx, `SELECT `+segmentColumns+` FROM segments WHERE id = $1`, id)
	return scanSegment(row)
}

type SetSegmentStatusParams struct {
	ID     uuid.UUID
	Status SegmentStatus
}

func (q *Queries) SetSegmentStatus(ctx context.Context, p *SetSegmentStatusParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE segments SET status = $2, updated_at = now() WHERE id = $1`,
		p.ID, p.Status)
	return err
}

type SetSegmentExtractedParams struct {
	ID           uuid.UUID
	HasCaptions  bool
	CaptionStyle *string
	CaptionData  json.RawMessage
}

// SetSegmentExtracted finalizes a segment after its clip has been rendered.
// CaptionData is stored as-is, or as an explicit SQL null when captions were
// skipped.
func (q *Queries) SetSegmentExtracted(ctx context.Context, p *SetSegmentExtractedParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE segments
		SET status = 'extracted', has_captions = $2, caption_style = $3,
		    caption_data = $4, updated_at = now()
		WHERE id = $1`,
		p.ID, p.HasCaptions, p.CaptionStyle, p.CaptionData)
	return err
}

func (q *Queries) MarkSegmentFailed(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE segments SET status = 'failed', updated_at = now() WHERE id = $1`, id)
	return err
}

func (q *Queries) CountSegmentsByVideo(ctx context.Context, videoID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM segments WHERE video_id = $1`, videoID).Scan(&n)
	return n, err
}

func (q *Queries) CountFailedSegmentsByVideo(ctx context.Context, videoID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx,
		`SELECT count(*) FROM segments WHERE video_id = $1 AND status = 'failed'`, videoID).Scan(&n)
	return n, err
}
