// Package db is the relational store for pipeline entities: Jobs, Videos,
// Segments, and Clips.
package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobQueued      JobStatus = "queued"
	JobDownloading JobStatus = "downloading"
	JobAnalyzing   JobStatus = "analyzing"
	JobExtracting  JobStatus = "extracting"
	JobCompleted   JobStatus = "completed"
	JobFailed      JobStatus = "failed"
)

// Terminal reports whether a job status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

type VideoStatus string

const (
	VideoDownloaded VideoStatus = "downloaded"
	VideoAnalyzed   VideoStatus = "analyzed"
	VideoProcessed  VideoStatus = "processed"
)

type SegmentStatus string

const (
	SegmentDetected   SegmentStatus = "detected"
	SegmentExtracting SegmentStatus = "extracting"
	SegmentExtracted  SegmentStatus = "extracted"
	SegmentFailed     SegmentStatus = "failed"
)

type ClipStatus string

const (
	ClipReadyForReview ClipStatus = "ready_for_review"
	ClipApproved       ClipStatus = "approved"
	ClipRejected       ClipStatus = "rejected"
	ClipUploading      ClipStatus = "uploading"
	ClipPublished      ClipStatus = "published"
)

// Job is one user submission moving through the pipeline. The row is mutated
// only by the worker driving the current stage.
type Job struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	SourceURL    string
	VideoID      *uuid.UUID
	Status       JobStatus
	Progress     int
	CurrentStep  string
	ErrorMessage *string
	Options      JobOptions
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// JobOptions are the user-facing knobs carried on a Job. Zero values mean
// "use the default"; read through the accessor methods.
type JobOptions struct {
	ClipCount    int   `json:"clipCount,omitempty"`
	MinDuration  int   `json:"minDuration,omitempty"`
	MaxDuration  int   `json:"maxDuration,omitempty"`
	AutoUpload   bool  `json:"autoUpload,omitempty"`
	AddSubtitles *bool `json:"addSubtitles,omitempty"`
}

const (
	defaultClipCount   = 5
	maxClipCount       = 8
	defaultMinDuration = 15
	floorMinDuration   = 10
	defaultMaxDuration = 60
	capMaxDuration     = 180
)

// TopN is the number of segments to select, clamped to [1, 8].
func (o JobOptions) TopN() int {
	n := o.ClipCount
	if n <= 0 {
		n = defaultClipCount
	}
	if n > maxClipCount {
		n = maxClipCount
	}
	return n
}

// MinClipSeconds is the minimum clip length, floored at 10.
func (o JobOptions) MinClipSeconds() int {
	n := o.MinDuration
	if n <= 0 {
		n = defaultMinDuration
	}
	if n < floorMinDuration {
		n = floorMinDuration
	}
	return n
}

// MaxClipSeconds is the maximum clip length, capped at 180.
func (o JobOptions) MaxClipSeconds() int {
	n := o.MaxDuration
	if n <= 0 {
		n = defaultMaxDuration
	}
	if n > capMaxDuration {
		n = capMaxDuration
	}
	return n
}

// Subtitles reports whether captions should be generated. Defaults to true.
func (o JobOptions) Subtitles() bool {
	if o.AddSubtitles == nil {
		return true
	}
	return *o.AddSubtitles
}

// Video is a downloaded source. Immutable after creation except status.
type Video struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ExternalID   string
	SourceURL    string
	Title        string
	Description  *string
	Duration     int
	ThumbnailURL *string
	StorageKey   string
	Status       VideoStatus
	Metadata     json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Segment is a candidate time-range chosen by analysis. Times are seconds,
// floats after boundary snapping.
type Segment struct {
	ID             uuid.UUID
	VideoID        uuid.UUID
	StartTime      float64
	EndTime        float64
	Duration       float64
	CompositeScore float64
	YtRetention    float64
	Signals        map[string]float64
	Reason         string
	Status         SegmentStatus
	HasCaptions    bool
	CaptionStyle   *string
	CaptionData    json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clip is the rendered artifact produced from a Segment.
type Clip struct {
	ID           uuid.UUID
	SegmentID    uuid.UUID
	VideoID      uuid.UUID
	StorageKey   string
	ThumbnailKey *string
	Title        string
	Description  string
	Tags         []string
	Status       ClipStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
