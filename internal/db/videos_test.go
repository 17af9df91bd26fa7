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

func TestAdvanceVideoStatusWinnerMoves(t *testing.T) {
	rec := &dbtest.Recorder{}
	q := db.New(rec)

	moved, err := q.AdvanceVideoStatus(context.Background(), &db.AdvanceVideoStatusParams{
		ID: uuid.New(), From: db.VideoDownloaded, To: db.VideoAnalyzed,
	})
	require.NoError(t, err)
	assert.True(t, moved)

	calls := rec.Calls("UPDATE videos")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].SQL, "status = $2")
}

func TestAdvanceVideoStatusLoserSeesNoRows(t *testing.T) {
	rec := &dbtest.Recorder{
		TagBySubstring: map[string]string{"UPDATE videos": "UPDATE 0"},
	}
	q := db.New(rec)

	moved, err := q.AdvanceVideoStatus(context.Background(), &db.AdvanceVideoStatusParams{
		ID: uuid.New(), From: db.VideoDownloaded, To: db.VideoAnalyzed,
	})
	require.NoError(t, err)
	assert.False(t, moved)
}
