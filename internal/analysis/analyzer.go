package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"thirdcoast.systems/reclip/internal/db"
	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
	"thirdcoast.systems/reclip/internal/storage"
	"thirdcoast.systems/reclip/pkg/ffmpeg"
)

const (
	batchSize = 5

	extractionAttempts = 3
	extractionBackoff  = 4 * time.Second
)

// Analyzer turns a downloaded video into ranked, non-overlapping segments
// and fans out one extraction task per segment. Segment rows and their
// extraction tasks are committed in a single transaction.
type Analyzer struct {
	DB          db.Store
	Store       *storage.Client
	Transcriber Transcriber
	RawBucket   string
	WorkDir     string
}

// Handle processes one analysis task.
func (a *Analyzer) Handle(ctx context.Context, task *queue.Task) error {
	var t pipeline.AnalysisTask
	if err := json.Unmarshal(task.Payload, &t); err != nil {
		return pipeline.E(pipeline.KindInvalidInput, fmt.Errorf("decode analysis task: %w", err))
	}

	err := a.analyze(ctx, &t)
	if err != nil && a.shouldFailJob(err, task) {
		q := a.DB.Queries(ctx)
		if markErr := q.MarkJobFailed(ctx, &db.MarkJobFailedParams{
			ID:           t.JobID,
			ErrorMessage: pipeline.UserMessage(err),
		}); markErr != nil {
			slog.Error("failed to mark job failed", "job_id", t.JobID, "error", markErr)
		}
	}
	return err
}

func (a *Analyzer) shouldFailJob(err error, task *queue.Task) bool {
	return pipeline.Unretriable(err) || task.Attempts >= task.MaxAttempts
}

func (a *Analyzer) analyze(ctx context.Context, t *pipeline.AnalysisTask) error {
	q := a.DB.Queries(ctx)

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

	// Redelivery of a task whose earlier run already committed its selection
	// must not fan out a second set of segments.
	if video.Status != db.VideoDownloaded {
		return a.resumeAfterFanout(ctx, q, job.ID, video.ID)
	}

	if err := q.SetJobStage(ctx, &db.SetJobStageParams{
		ID: job.ID, Status: db.JobAnalyzing, Progress: 20, CurrentStep: "Analyzing video",
		From: []db.JobStatus{db.JobDownloading},
	}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	scratchDir, err := os.MkdirTemp(a.WorkDir, "analysis-"+video.ExternalID+"-*")
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	defer os.RemoveAll(scratchDir)

	sourcePath := filepath.Join(scratchDir, "source"+filepath.Ext(video.StorageKey))
	if err := a.Store.DownloadToFile(ctx, a.RawBucket, video.StorageKey, sourcePath); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}

	duration := float64(video.Duration)
	if duration <= 0 {
		duration, err = ffmpeg.ProbeDuration(ctx, sourcePath)
		if err != nil {
			return pipeline.E(pipeline.KindExternalTool, err)
		}
	}
	if duration <= 0 {
		return pipeline.Errorf(pipeline.KindInvalidInput, "video %s has no duration", video.ExternalID)
	}

	_ = q.SetJobProgress(ctx, &db.SetJobProgressParams{
		ID: job.ID, Progress: 30, CurrentStep: "Generating candidate windows",
	})

	bounds := Bounds{
		Min: float64(job.Options.MinClipSeconds()),
		Max: float64(job.Options.MaxClipSeconds()),
	}
	windows := GenerateWindows(duration, bounds)
	slog.Info("generated candidate windows",
		"video_id", video.ID, "duration", duration, "candidates", len(windows))

	if len(windows) == 0 {
		// too short to clip; terminal with zero clips
		_ = q.SetVideoStatus(ctx, &db.SetVideoStatusParams{ID: video.ID, Status: db.VideoAnalyzed})
		if err := q.CompleteJob(ctx, job.ID); err != nil {
			return pipeline.E(pipeline.KindStorage, err)
		}
		return nil
	}

	candidates := a.scoreWindows(ctx, q, job.ID, sourcePath, scratchDir, windows, duration)

	_ = q.SetJobProgress(ctx, &db.SetJobProgressParams{
		ID: job.ID, Progress: 85, CurrentStep: "Selecting best moments",
	})

	selected := SelectTopN(candidates, job.Options.TopN())
	if len(selected) == 0 {
		_ = q.SetVideoStatus(ctx, &db.SetVideoStatusParams{ID: video.ID, Status: db.VideoAnalyzed})
		if err := q.CompleteJob(ctx, job.ID); err != nil {
			return pipeline.E(pipeline.KindStorage, err)
		}
		return nil
	}

	_ = q.SetJobProgress(ctx, &db.SetJobProgressParams{
		ID: job.ID, Progress: 95, CurrentStep: "Queueing clip extraction",
	})

	// One transaction covers the status claim, the segment rows, and the
	// extraction tasks: a redelivery sees either the full committed set or
	// nothing, never a partial fan-out.
	qtx, tx, err := a.DB.NewWithTX(ctx)
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	defer tx.Rollback(ctx)

	claimed, err := qtx.AdvanceVideoStatus(ctx, &db.AdvanceVideoStatusParams{
		ID: video.ID, From: db.VideoDownloaded, To: db.VideoAnalyzed,
	})
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	if !claimed {
		// a concurrent delivery committed first
		return a.resumeAfterFanout(ctx, q, job.ID, video.ID)
	}

	broker := queue.NewBroker(tx)
	for _, c := range selected {
		final := a.snap(c, duration, bounds.Min)
		seg, err := qtx.InsertSegment(ctx, &db.InsertSegmentParams{
			ID:             uuid.New(),
			VideoID:        video.ID,
			StartTime:      final.Start,
			EndTime:        final.End,
			CompositeScore: c.Analysis.Composite,
			Signals: map[string]float64{
				"audio":      c.Analysis.Audio,
				"visual":     c.Analysis.Visual,
				"speech":     c.Analysis.Speech,
				"engagement": c.Analysis.Composite,
			},
			Reason: c.Analysis.Reason,
		})
		if err != nil {
			return pipeline.E(pipeline.KindStorage, err)
		}

		if _, err := broker.Enqueue(ctx, pipeline.QueueExtraction, pipeline.ExtractionTask{
			JobID:     job.ID,
			VideoID:   video.ID,
			SegmentID: seg.ID,
			Start:     final.Start,
			End:       final.End,
		}, queue.Policy{MaxAttempts: extractionAttempts, Backoff: extractionBackoff}); err != nil {
			return pipeline.E(pipeline.KindStorage, err)
		}

		slog.Info("segment selected",
			"video_id", video.ID, "segment_id", seg.ID,
			"start", final.Start, "end", final.End,
			"composite", c.Analysis.Composite, "reason", c.Analysis.Reason)
	}

	if err := qtx.SetJobStage(ctx, &db.SetJobStageParams{
		ID: job.ID, Status: db.JobExtracting, Progress: 95, CurrentStep: "Extracting clips",
		From: []db.JobStatus{db.JobAnalyzing},
	}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	return nil
}

// resumeAfterFanout reconciles a redelivered task with work an earlier
// delivery already committed. Zero persisted segments means the video had
// nothing worth clipping and the job can close; otherwise extraction owns
// the job from here.
func (a *Analyzer) resumeAfterFanout(ctx context.Context, q *db.Queries, jobID, videoID uuid.UUID) error {
	n, err := q.CountSegmentsByVideo(ctx, videoID)
	if err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	if n == 0 {
		if err := q.CompleteJob(ctx, jobID); err != nil {
			return pipeline.E(pipeline.KindStorage, err)
		}
		return nil
	}
	if err := q.SetJobStage(ctx, &db.SetJobStageParams{
		ID: jobID, Status: db.JobExtracting, Progress: 95, CurrentStep: "Extracting clips",
		From: []db.JobStatus{db.JobAnalyzing},
	}); err != nil {
		return pipeline.E(pipeline.KindStorage, err)
	}
	return nil
}

// scoreWindows computes signals and scores in batches of 5 to bound the
// number of concurrent subprocesses, reporting progress across [40, 80].
func (a *Analyzer) scoreWindows(ctx context.Context, q *db.Queries, jobID uuid.UUID, sourcePath, scratchDir string, windows []Window, duration float64) []Candidate {
	candidates := make([]Candidate, 0, len(windows))
	batches := (len(windows) + batchSize - 1) / batchSize

	for b := 0; b < batches; b++ {
		lo := b * batchSize
		hi := min(lo+batchSize, len(windows))
		for _, w := range windows[lo:hi] {
			sig := a.collectSignals(ctx, sourcePath, scratchDir, w)
			candidates = append(candidates, Candidate{
				Window:   w,
				Signals:  sig,
				Analysis: Score(sig, Meta{Window: w, VideoDuration: duration}),
			})
		}

		progress := 40 + (b+1)*40/batches
		_ = q.SetJobProgress(ctx, &db.SetJobProgressParams{
			ID: jobID, Progress: progress,
			CurrentStep: fmt.Sprintf("Scoring moments (%d/%d)", hi, len(windows)),
		})
	}
	return candidates
}

// collectSignals runs the three analyzers concurrently. A failed source is
// replaced by its neutral fallback so the window is still scored.
func (a *Analyzer) collectSignals(ctx context.Context, sourcePath, scratchDir string, w Window) Signals {
	var sig Signals
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		audio, err := collectAudioSignal(ctx, sourcePath, w)
		if err != nil {
			slog.Warn("audio signal failed, using fallback",
				"start", w.Start, "end", w.End, "error", err)
			return
		}
		sig.Audio = audio
		sig.AudioOK = true
	}()

	go func() {
		defer wg.Done()
		visual, err := collectVisualSignal(ctx, sourcePath, w)
		if err != nil {
			slog.Warn("visual signal failed, using fallback",
				"start", w.Start, "end", w.End, "error", err)
			return
		}
		sig.Visual = visual
		sig.VisualOK = true
	}()

	go func() {
		defer wg.Done()
		speech, err := collectSpeechSignal(ctx, a.Transcriber, sourcePath, scratchDir, w)
		if err != nil {
			slog.Warn("speech signal failed, using fallback",
				"start", w.Start, "end", w.End, "error", err)
			return
		}
		sig.Speech = speech
		sig.SpeechOK = true
	}()

	wg.Wait()
	return sig
}

// snap converts window-relative signal offsets to absolute timestamps and
// refines the cut points.
func (a *Analyzer) snap(c Candidate, videoDuration, minLength float64) Window {
	scenes := make([]float64, 0, len(c.Signals.Visual.SceneTimes))
	for _, off := range c.Signals.Visual.SceneTimes {
		scenes = append(scenes, c.Window.Start+off)
	}
	wordEnds := make([]float64, 0, len(c.Signals.Speech.Words))
	for _, w := range c.Signals.Speech.Words {
		wordEnds = append(wordEnds, c.Window.Start+w.End)
	}
	return SnapBoundaries(c.Window, scenes, wordEnds, videoDuration, minLength)
}
