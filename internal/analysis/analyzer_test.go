package analysis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/reclip/internal/db"
	"thirdcoast.systems/reclip/internal/db/dbtest"
	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
)

func analysisPayload(t *testing.T, at pipeline.AnalysisTask) []byte {
	t.Helper()
	body, err := json.Marshal(at)
	require.NoError(t, err)
	return body
}

func analysisRows(jobID, videoID uuid.UUID, jobStatus, videoStatus string) map[string][]any {
	now := time.Now()
	sourceURL := "https://youtube.com/watch?v=abc123XYZ_-"
	return map[string][]any{
		"FROM jobs": {jobID, uuid.New(), sourceURL, nil, jobStatus, 95,
			"Extracting clips", nil, nil, now, now, nil},
		"FROM videos": {videoID, uuid.New(), "abc123XYZ_-", sourceURL,
			"Epic Chess Blunders", nil, 300, nil,
			"raw-videos/abc123XYZ_-/video.mp4", videoStatus, nil, now, now},
	}
}

func TestAnalyzeRedeliverySkipsSecondFanout(t *testing.T) {
	jobID, videoID := uuid.New(), uuid.New()
	rows := analysisRows(jobID, videoID, "extracting", "analyzed")
	rows["count(*) FROM segments"] = []any{int64(3)}
	rec := &dbtest.Recorder{RowsBySubstring: rows}

	a := &Analyzer{DB: &dbtest.Store{Recorder: rec, Tx: &dbtest.Tx{Recorder: rec}}}

	task := &queue.Task{
		Payload:     analysisPayload(t, pipeline.AnalysisTask{JobID: jobID, VideoID: videoID}),
		Attempts:    2,
		MaxAttempts: 3,
	}
	require.NoError(t, a.Handle(context.Background(), task))

	// the earlier delivery's selection stands: no new segments, no new tasks
	assert.Empty(t, rec.Calls("INSERT INTO segments"))
	assert.Empty(t, rec.Calls("INSERT INTO queue_tasks"))

	// the job still lands in extraction
	calls := rec.Calls("UPDATE jobs")
	require.Len(t, calls, 1)
	assert.Equal(t, db.JobExtracting, calls[0].Args[1])
}

func TestAnalyzeRedeliveryCompletesEmptySelection(t *testing.T) {
	jobID, videoID := uuid.New(), uuid.New()
	rows := analysisRows(jobID, videoID, "analyzing", "analyzed")
	rows["count(*) FROM segments"] = []any{int64(0)}
	rec := &dbtest.Recorder{RowsBySubstring: rows}

	a := &Analyzer{DB: &dbtest.Store{Recorder: rec, Tx: &dbtest.Tx{Recorder: rec}}}

	task := &queue.Task{
		Payload:     analysisPayload(t, pipeline.AnalysisTask{JobID: jobID, VideoID: videoID}),
		Attempts:    1,
		MaxAttempts: 3,
	}
	require.NoError(t, a.Handle(context.Background(), task))

	assert.Empty(t, rec.Calls("INSERT INTO segments"))
	assert.True(t, rec.Executed("'completed'"))
}
