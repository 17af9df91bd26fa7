// Package download implements the first pipeline stage: fetching source
// media with yt-dlp, persisting bytes and metadata, and handing the video
// to analysis.
package download

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"thirdcoast.systems/reclip/internal/db"
	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
	"thirdcoast.systems/reclip/internal/storage"
	"thirdcoast.systems/reclip/internal/videoid"
	"thirdcoast.systems/reclip/pkg/ytdlp"
)

const (
	analysisAttempts = 3
	analysisBackoff  = 2 * time.Second
)

var videoExtensions = []string{".mp4", ".webm", ".mkv"}

// Downloader fetches a source video and registers it for analysis.
type Downloader struct {
	DB        db.Store
	Broker    *queue.Broker
	Store     *storage.Client
	Ytdlp     *ytdlp.Client
	RawBucket string
	WorkDir   string
	Timeout   time.Duration
}

// Handle processes one download task.
func (d *Downloader) Handle(ctx context.Context, task *queue.Task) error {
	var t pipeline.DownloadTask
	if err := json.Unmarshal(task.Payload, &t); err != nil {
		return pipeline.E(pipeline.KindInvalidInput, fmt.Errorf("decode download task: %w", err))
	}

	err := d.download(ctx, &t)
	if err != nil && d.shouldFailJob(err, task) {
		q := d.DB.Queries(ctx)
		if markErr := q.MarkJobFailed(ctx, &db.MarkJobFailedParams{
			ID:           t.JobID,
			ErrorMessage: pipeline.UserMessage(err),
		}); markErr != nil {
			slog.Error("failed to mark job failed", "job_id", t.JobID, "error", markErr)
		}
	}
	return err
}

func (d *Downloader) shouldFailJob(err error, task *queue.Task) bool {
	return pipeline.Unretriable(err) || task.Attempts >= task.MaxAttempts
}

func (d *Downloader) download(ctx context.Context, t *pipeline.DownloadTask) error {
	q := d.DB.Queries(ctx)

	if err := q.SetJobStage(ctx, &db.SetJobStageParams{
		ID: t.JobID, Status: db.JobDownloading, Progress: 10, CurrentStep: "Starting download",
		From: []db.JobStatus{db.JobQueued},
	}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	externalID, err := videoid.Extract(t.SourceURL)
	if err != nil {
		return pipeline.E(pipeline.KindInvalidInput, err)
	}

	// timestamp suffix keeps duplicate deliveries from sharing a directory
	scratchDir := filepath.Join(d.WorkDir, fmt.Sprintf("%s-%d", externalID, time.Now().UnixNano()))
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	defer os.RemoveAll(scratchDir)

	dlCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	slog.Info("downloading source video", "job_id", t.JobID, "external_id", externalID)
	if err := d.Ytdlp.Download(dlCtx, t.SourceURL, scratchDir); err != nil {
		if dlCtx.Err() == context.DeadlineExceeded {
			return pipeline.Errorf(pipeline.KindTimeout, "download timed out after %s", d.Timeout)
		}
		return pipeline.E(pipeline.KindExternalTool, err)
	}

	videoPath, err := findVideoFile(scratchDir)
	if err != nil {
		return err
	}
	filename := filepath.Base(videoPath)

	_ = q.SetJobProgress(ctx, &db.SetJobProgressParams{
		ID: t.JobID, Progress: 25, CurrentStep: "Uploading source video",
	})

	storageKey := fmt.Sprintf("raw-videos/%s/%s", externalID, filename)
	if err := d.Store.UploadFile(ctx, d.RawBucket, storageKey, videoPath); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	meta := readMetadata(scratchDir, externalID)

	video, err := q.UpsertVideo(ctx, &db.UpsertVideoParams{
		ID:           videoid.VideoUUID(externalID),
		UserID:       t.UserID,
		ExternalID:   externalID,
		SourceURL:    t.SourceURL,
		Title:        meta.Title,
		Description:  meta.Description,
		Duration:     meta.Duration,
		ThumbnailURL: meta.ThumbnailURL,
		StorageKey:   storageKey,
		Metadata:     meta.Raw,
	})
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	if err := q.LinkJobVideo(ctx, &db.LinkJobVideoParams{ID: t.JobID, VideoID: video.ID}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	if _, err := d.Broker.Enqueue(ctx, pipeline.QueueAnalysis, pipeline.AnalysisTask{
		JobID:   t.JobID,
		VideoID: video.ID,
	}, queue.Policy{MaxAttempts: analysisAttempts, Backoff: analysisBackoff}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	slog.Info("download complete",
		"job_id", t.JobID, "video_id", video.ID,
		"external_id", externalID, "duration", meta.Duration)
	return nil
}

// findVideoFile locates the produced media file in the scratch directory.
func findVideoFile(dir string) (string, error) {
	for _, ext := range videoExtensions {
		p := filepath.Join(dir, "video"+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", pipeline.Errorf(pipeline.KindExternalTool, "download produced no video file in %s", dir)
}

// metadata is the subset of the yt-dlp info sidecar the pipeline keeps.
type metadata struct {
	Title        string
	Description  *string
	Duration     int
	ThumbnailURL *string
	Raw          json.RawMessage
}

// readMetadata parses video.info.json. A missing or malformed sidecar is
// tolerated; defaults keep the pipeline moving.
func readMetadata(dir, externalID string) metadata {
	meta := metadata{Title: externalID}

	raw, err := os.ReadFile(filepath.Join(dir, "video.info.json"))
	if err != nil {
		slog.Warn("metadata sidecar missing, using defaults",
			"external_id", externalID, "error", err)
		return meta
	}

	var info struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Duration    float64 `json:"duration"`
		Thumbnail   string  `json:"thumbnail"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		slog.Warn("metadata sidecar unparseable, using defaults",
			"external_id", externalID, "error", err)
		return meta
	}

	meta.Raw = raw
	if info.Title != "" {
		meta.Title = info.Title
	}
	if info.Description != "" {
		meta.Description = &info.Description
	}
	if info.Duration > 0 {
		meta.Duration = int(info.Duration)
	}
	if info.Thumbnail != "" {
		meta.ThumbnailURL = &info.Thumbnail
	}
	return meta
}
