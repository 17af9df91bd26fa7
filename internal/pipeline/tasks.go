// Package pipeline holds the contracts shared by all pipeline stages: queue
// task payloads, the failure taxonomy, and progress conventions.
package pipeline

import "github.com/google/uuid"

// Queue names. The upload queue is declared for future use and has no consumer.
const (
	QueueDownload   = "download"
	QueueAnalysis   = "analysis"
	QueueExtraction = "extraction"
	QueueUpload     = "upload"
)

// DownloadTask asks the download worker to fetch a source video.
type DownloadTask struct {
	JobID     uuid.UUID `json:"job_id"`
	SourceURL string    `json:"source_url"`
	UserID    uuid.UUID `json:"user_id"`
}

// AnalysisTask asks the analysis worker to detect clip-worthy segments.
type AnalysisTask struct {
	JobID   uuid.UUID `json:"job_id"`
	VideoID uuid.UUID `json:"video_id"`
}

// ExtractionTask asks the extraction worker to render one segment.
type ExtractionTask struct {
	JobID     uuid.UUID `json:"job_id"`
	VideoID   uuid.UUID `json:"video_id"`
	SegmentID uuid.UUID `json:"segment_id"`
	Start     float64   `json:"start"`
	End       float64   `json:"end"`
}
