package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/reclip/internal/db/dbtest"
	"thirdcoast.systems/reclip/internal/pipeline"
	"thirdcoast.systems/reclip/internal/queue"
)

func extractionPayload(t *testing.T, et pipeline.ExtractionTask) []byte {
	t.Helper()
	body, err := json.Marshal(et)
	require.NoError(t, err)
	return body
}

func TestHandleFinalFailureLeavesJobToSiblings(t *testing.T) {
	rec := &dbtest.Recorder{
		RowsBySubstring: map[string][]any{
			// one of three segments has failed for good
			"count(*) FROM segments":                    {int64(3)},
			"WHERE video_id = $1 AND status = 'failed'": {int64(1)},
		},
	}
	e := &Extractor{DB: &dbtest.Store{Recorder: rec, Tx: &dbtest.Tx{Recorder: rec}}}

	// job row missing: an unretriable failure on the final attempt
	task := &queue.Task{
		Payload: extractionPayload(t, pipeline.ExtractionTask{
			JobID:     uuid.New(),
			VideoID:   uuid.New(),
			SegmentID: uuid.New(),
			Start:     30,
			End:       60,
		}),
		Attempts:    3,
		MaxAttempts: 3,
	}

	err := e.Handle(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, pipeline.KindDataIntegrity, pipeline.KindOf(err))

	// the segment records the failure; the job keeps running so sibling
	// segments can still complete it
	assert.True(t, rec.Executed("SET status = 'failed'"))
	assert.Empty(t, rec.Calls("UPDATE jobs"))
}

func TestHandleFailsJobWhenEverySegmentFailed(t *testing.T) {
	rec := &dbtest.Recorder{
		RowsBySubstring: map[string][]any{
			"count(*) FROM segments":                    {int64(2)},
			"WHERE video_id = $1 AND status = 'failed'": {int64(2)},
		},
	}
	e := &Extractor{DB: &dbtest.Store{Recorder: rec, Tx: &dbtest.Tx{Recorder: rec}}}

	task := &queue.Task{
		Payload: extractionPayload(t, pipeline.ExtractionTask{
			JobID:     uuid.New(),
			VideoID:   uuid.New(),
			SegmentID: uuid.New(),
			Start:     30,
			End:       60,
		}),
		Attempts:    3,
		MaxAttempts: 3,
	}

	err := e.Handle(context.Background(), task)
	require.Error(t, err)

	calls := rec.Calls("UPDATE jobs")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SQL, "status = 'failed'")
}

func TestHandleRetriableFailureMarksSegmentFailed(t *testing.T) {
	now := time.Now()
	jobID, videoID, segID := uuid.New(), uuid.New(), uuid.New()
	sourceURL := "https://youtube.com/watch?v=abc123XYZ_-"

	rec := &dbtest.Recorder{
		RowsBySubstring: map[string][]any{
			"FROM jobs": {jobID, uuid.New(), sourceURL, nil, "extracting", 95,
				"Extracting clips", nil, nil, now, now, nil},
			"FROM videos": {videoID, uuid.New(), "abc123XYZ_-", sourceURL,
				"Epic Chess Blunders", nil, 300, nil,
				"raw-videos/abc123XYZ_-/video.mp4", "analyzed", nil, now, now},
			"FROM segments": {segID, videoID, 30.0, 60.0, 30.0, 0.82, 0.82, nil,
				"high energy", "detected", false, nil, nil, now, now},
		},
		ErrBySubstring: map[string]error{
			"SET status = $2": errors.New("connection reset"),
		},
	}
	e := &Extractor{DB: &dbtest.Store{Recorder: rec, Tx: &dbtest.Tx{Recorder: rec}}}

	task := &queue.Task{
		Payload: extractionPayload(t, pipeline.ExtractionTask{
			JobID:     jobID,
			VideoID:   videoID,
			SegmentID: segID,
			Start:     30,
			End:       60,
		}),
		Attempts:    1,
		MaxAttempts: 3,
	}

	err := e.Handle(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, pipeline.KindStorage, pipeline.KindOf(err))

	// failed attempts are visible on the row even before retries run out
	assert.True(t, rec.Executed("SET status = 'failed'"))
	assert.Empty(t, rec.Calls("UPDATE jobs"))
}
