package db_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thirdcoast.systems/reclip/internal/db"
	"thirdcoast.systems/reclip/internal/db/dbtest"
)

func TestSetJobStageGuardsPredecessorStatuses(t *testing.T) {
	rec := &dbtest.Recorder{}
	q := db.New(rec)

	err := q.SetJobStage(context.Background(), &db.SetJobStageParams{
		ID:          uuid.New(),
		Status:      db.JobAnalyzing,
		Progress:    20,
		CurrentStep: "Analyzing video",
		From:        []db.JobStatus{db.JobDownloading},
	})
	require.NoError(t, err)

	calls := rec.Calls("UPDATE jobs")
	require.Len(t, calls, 1)
	// only the predecessor and the stage itself qualify, so a job already in
	// a later stage is never dragged backwards
	assert.Contains(t, calls[0].SQL, "status = ANY($5)")
	assert.Equal(t, []string{"downloading", "analyzing"}, calls[0].Args[4])
}

func TestSetJobStageAlwaysAllowsReentry(t *testing.T) {
	rec := &dbtest.Recorder{}
	q := db.New(rec)

	err := q.SetJobStage(context.Background(), &db.SetJobStageParams{
		ID:          uuid.New(),
		Status:      db.JobDownloading,
		Progress:    10,
		CurrentStep: "Starting download",
	})
	require.NoError(t, err)

	calls := rec.Calls("UPDATE jobs")
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"downloading"}, calls[0].Args[4])
}
