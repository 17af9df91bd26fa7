// Package extract implements the final pipeline stage: rendering a segment
// into a vertical clip with burned-in captions and a thumbnail, then closing
// out the job once every segment has a clip.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"thirdcoast.systems/reclip/internal/captions"
	"thirdcoast.systems/reclip/internal/db"
	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
	"thirdcoast.systems/reclip/internal/storage"
	"thirdcoast.systems/reclip/pkg/ffmpeg"
)

const (
	outputWidth  = 1080
	outputHeight = 1920
)

// Extractor renders clips for detected segments.
type Extractor struct {
	DB           db.Store
	Store        *storage.Client
	Transcriber  captions.Transcriber
	RawBucket    string
	ShortsBucket string
	ThumbBucket  string
	WorkDir      string
	Timeout      time.Duration
}

// Handle processes one extraction task.
func (e *Extractor) Handle(ctx context.Context, task *queue.Task) error {
	var t pipeline.ExtractionTask
	if err := json.Unmarshal(task.Payload, &t); err != nil {
		return pipeline.E(pipeline.KindInvalidInput, fmt.Errorf("decode extraction task: %w", err))
	}

	err := e.extract(ctx, &t)
	if err != nil {
		// Record the failure on the segment row; the next attempt flips it
		// back to extracting. The job is left alone so sibling segments keep
		// rendering, and exhausted retries surface in the dead-letter ring.
		q := e.DB.Queries(ctx)
		if markErr := q.MarkSegmentFailed(ctx, t.SegmentID); markErr != nil {
			slog.Error("failed to mark segment failed", "segment_id", t.SegmentID, "error", markErr)
		}
		if e.finalFailure(err, task) {
			e.maybeFailJob(ctx, q, &t, err)
		}
	}
	return err
}

func (e *Extractor) finalFailure(err error, task *queue.Task) bool {
	return pipeline.Unretriable(err) || task.Attempts >= task.MaxAttempts
}

// maybeFailJob fails the job only when every segment of the video has
// failed; as long as one sibling is alive it can still complete the job.
func (e *Extractor) maybeFailJob(ctx context.Context, q *db.Queries, t *pipeline.ExtractionTask, cause error) {
	total, err := q.CountSegmentsByVideo(ctx, t.VideoID)
	if err != nil {
		slog.Error("failed to count segments", "video_id", t.VideoID, "error", err)
		return
	}
	failed, err := q.CountFailedSegmentsByVideo(ctx, t.VideoID)
	if err != nil {
		slog.Error("failed to count failed segments", "video_id", t.VideoID, "error", err)
		return
	}
	if total == 0 || failed < total {
		return
	}
	if err := q.MarkJobFailed(ctx, &db.MarkJobFailedParams{
		ID:           t.JobID,
		ErrorMessage: pipeline.UserMessage(cause),
	}); err != nil {
		slog.Error("failed to mark job failed", "job_id", t.JobID, "error", err)
	}
}

func (e *Extractor) extract(ctx context.Context, t *pipeline.ExtractionTask) error {
	q := e.DB.Queries(ctx)

	job, err := q.GetJob(ctx, t.JobID)
	if err != nil {
		if db.IsNotFound(err) {
			return pipeline.Errorf(pipeline.KindDataIntegrity, "job %s not found", t.JobID)
		}
		return pipeline.E(pipeline.KindStorage, err)
	}
	video, err := q.GetVideo(ctx, t.VideoID)
	if err != nil {
		if db.IsNotFound(err) {
			return pipeline.Errorf(pipeline.KindDataIntegrity, "video %s not found", t.VideoID)
		}
		return pipeline.E(pipeline.KindStorage, err)
	}
	segment, err := q.GetSegment(ctx, t.SegmentID)
	if err != nil {
		if db.IsNotFound(err) {
			return pipeline.Errorf(pipeline.KindDataIntegrity, "segment %s not found", t.SegmentID)
		}
		return pipeline.E(pipeline.KindStorage, err)
	}

	if err := q.SetSegmentStatus(ctx, &db.SetSegmentStatusParams{
		ID: segment.ID, Status: db.SegmentExtracting,
	}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	scratchDir, err := os.MkdirTemp(e.WorkDir, "extract-"+segment.ID.String()+"-*")
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	defer os.RemoveAll(scratchDir)

	sourcePath := filepath.Join(scratchDir, "source"+filepath.Ext(video.StorageKey))
	if err := e.Store.DownloadToFile(ctx, e.RawBucket, video.StorageKey, sourcePath); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	clipPath := filepath.Join(scratchDir, "clip.mp4")
	if err := e.cutClip(ctx, sourcePath, clipPath, t.Start, t.End); err != nil {
		return err
	}

	finalPath := clipPath
	var captionStyle *string
	var captionData json.RawMessage
	hasCaptions := false

	if job.Options.Subtitles() && e.Transcriber != nil {
		segs, style, burnedPath := e.burnCaptions(ctx, clipPath, scratchDir)
		if burnedPath != "" {
			finalPath = burnedPath
			hasCaptions = true
			captionStyle = &style
			if data, err := json.Marshal(segs); err == nil {
				captionData = data
			}
		}
	}

	thumbPath := e.renderThumbnail(ctx, finalPath, scratchDir)

	clipKey := fmt.Sprintf("clips/%s/%s.mp4", video.ID, segment.ID)
	if err := e.Store.UploadFile(ctx, e.ShortsBucket, clipKey, finalPath); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	var thumbKey *string
	if thumbPath != "" {
		key := fmt.Sprintf("thumbnails/%s/%s.jpg", video.ID, segment.ID)
		if err := e.Store.UploadFile(ctx, e.ThumbBucket, key, thumbPath); err != nil {
			slog.Warn("thumbnail upload failed", "segment_id", segment.ID, "error", err)
		} else {
			thumbKey = &key
		}
	}

	clip, err := q.InsertClip(ctx, &db.InsertClipParams{
		ID:           uuid.New(),
		SegmentID:    segment.ID,
		VideoID:      video.ID,
		StorageKey:   clipKey,
		ThumbnailKey: thumbKey,
		Title:        clipTitle(video.Title, segment.CompositeScore),
		Description:  clipDescription(video.Title, segment.CompositeScore),
		Tags:         clipTags(video.Title),
	})
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	if err := q.SetSegmentExtracted(ctx, &db.SetSegmentExtractedParams{
		ID:           segment.ID,
		HasCaptions:  hasCaptions,
		CaptionStyle: captionStyle,
		CaptionData:  captionData,
	}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	slog.Info("clip extracted",
		"job_id", job.ID, "video_id", video.ID, "segment_id", segment.ID,
		"clip_id", clip.ID, "captions", hasCaptions)

	return e.maybeCompleteJob(ctx, q, job.ID, video.ID)
}

// cutClip renders the 9:16 clip: seek, scale to cover, center crop, H.264
// medium CRF 23 with 128k AAC.
func (e *Extractor) cutClip(ctx context.Context, sourcePath, clipPath string, start, end float64) error {
	cutCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cutCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := ffmpeg.NewCommand(sourcePath, clipPath,
		ffmpeg.SeekTo(secondsToDuration(start), secondsToDuration(end)),
		ffmpeg.ScaleForceAspect(outputWidth, outputHeight, "increase"),
		ffmpeg.CropCenter(outputWidth, outputHeight),
		ffmpeg.VideoCodec("libx264"),
		ffmpeg.Preset("medium"),
		ffmpeg.CRF(23),
		ffmpeg.AudioCodec("aac"),
		ffmpeg.AudioBitrate("128k"),
	)

	progressChan := make(chan ffmpeg.Progress, 100)
	proc, err := cmd.StartWithProgress(cutCtx, progressChan)
	if err != nil {
		return pipeline.E(pipeline.KindExternalTool, fmt.Errorf("start clip render: %w", err))
	}

	clipSeconds := end - start
	lastLog := time.Now()
	for progress := range progressChan {
		if clipSeconds <= 0 || time.Since(lastLog) < 5*time.Second {
			continue
		}
		lastLog = time.Now()
		slog.Info("clip render progress",
			"done", fmt.Sprintf("%.0f%%", progress.OutTimeSeconds()/clipSeconds*100),
			"speed", progress.Speed)
	}

	if err := proc.Wait(); err != nil {
		_ = os.Remove(clipPath)
		if cutCtx.Err() == context.DeadlineExceeded {
			return pipeline.Errorf(pipeline.KindTimeout, "clip render timed out after %s", e.Timeout)
		}
		return pipeline.E(pipeline.KindExternalTool, fmt.Errorf("cut clip: %w", err))
	}

	// Validate the output is playable before spending time on captions
	probe, err := ffmpeg.Probe(ctx, clipPath)
	if err != nil {
		_ = os.Remove(clipPath)
		return pipeline.E(pipeline.KindExternalTool, fmt.Errorf("validate clip: %w", err))
	}
	if probe.Duration < 0.5 {
		_ = os.Remove(clipPath)
		return pipeline.Errorf(pipeline.KindExternalTool,
			"rendered clip too short (%.2fs)", probe.Duration)
	}
	return nil
}

// burnCaptions transcribes the clip and burns styled captions into a new
// file. The styled format is tried first, then the simple one. Any failure
// degrades to the un-captioned clip; captions never fail the task.
func (e *Extractor) burnCaptions(ctx context.Context, clipPath, scratchDir string) ([]captions.Segment, string, string) {
	segs, err := captions.Build(ctx, e.Transcriber, clipPath, scratchDir)
	if err != nil {
		slog.Warn("caption generation failed, producing clip without captions", "error", err)
		return nil, "", ""
	}
	if len(segs) == 0 {
		return nil, "", ""
	}

	assPath := filepath.Join(scratchDir, "captions.ass")
	burnedPath := filepath.Join(scratchDir, "captioned.mp4")
	if err := os.WriteFile(assPath, []byte(captions.WriteASS(segs)), 0o644); err == nil {
		if err := e.burn(ctx, clipPath, burnedPath, ffmpeg.BurnASS(assPath)); err == nil {
			return segs, "ass", burnedPath
		} else {
			slog.Warn("styled caption burn failed, retrying with simple format", "error", err)
		}
	}

	srtPath := filepath.Join(scratchDir, "captions.srt")
	if err := os.WriteFile(srtPath, []byte(captions.WriteSRT(segs)), 0o644); err != nil {
		slog.Warn("caption file write failed, producing clip without captions", "error", err)
		return nil, "", ""
	}
	if err := e.burn(ctx, clipPath, burnedPath, ffmpeg.BurnSRT(srtPath, captions.SRTForceStyle)); err != nil {
		slog.Warn("caption burn failed, producing clip without captions", "error", err)
		return nil, "", ""
	}
	return segs, "srt", burnedPath
}

func (e *Extractor) burn(ctx context.Context, in, out string, sub ffmpeg.Option) error {
	burnCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		burnCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	return ffmpeg.Run(burnCtx, in, out,
		sub,
		ffmpeg.VideoCodec("libx264"),
		ffmpeg.Preset("medium"),
		ffmpeg.CRF(23),
		ffmpeg.CopyAudio,
	)
}

// renderThumbnail grabs the midpoint frame of the finished clip. Returns ""
// on failure; thumbnails are best-effort.
func (e *Extractor) renderThumbnail(ctx context.Context, clipPath, scratchDir string) string {
	duration, err := ffmpeg.ProbeDuration(ctx, clipPath)
	if err != nil || duration <= 0 {
		slog.Warn("thumbnail probe failed", "error", err)
		return ""
	}

	thumbPath := filepath.Join(scratchDir, "thumbnail.jpg")
	opts := ffmpeg.Thumbnail(duration/2, outputWidth)
	if err := ffmpeg.Run(ctx, clipPath, thumbPath, opts...); err != nil {
		slog.Warn("thumbnail render failed", "error", err)
		return ""
	}
	return thumbPath
}

// maybeCompleteJob closes the job once every detected segment has a clip.
// Concurrent workers race benignly here: all compute the same terminal state.
func (e *Extractor) maybeCompleteJob(ctx context.Context, q *db.Queries, jobID, videoID uuid.UUID) error {
	segments, err := q.CountSegmentsByVideo(ctx, videoID)
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	clips, err := q.CountClipsByVideo(ctx, videoID)
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	if segments == 0 || clips < segments {
		return nil
	}

	if err := q.SetVideoStatus(ctx, &db.SetVideoStatusParams{
		ID: videoID, Status: db.VideoProcessed,
	}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	if err := q.CompleteJob(ctx, jobID); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	slog.Info("job completed", "job_id", jobID, "video_id", videoID, "clips", clips)
	return nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
