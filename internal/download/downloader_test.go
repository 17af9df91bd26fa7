package download

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMetadata(t *testing.T) {
	dir := t.TempDir()
	sidecar := `{
		"title": "How Compilers Work",
		"description": "A deep dive.",
		"duration": 612.4,
		"thumbnail": "https://cdn.example.com/t.jpg"
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video.info.json"), []byte(sidecar), 0o644))

	meta := readMetadata(dir, "dQw4w9WgXcQ")
	assert.Equal(t, "How Compilers Work", meta.Title)
	require.NotNil(t, meta.Description)
	assert.Equal(t, "A deep dive.", *meta.Description)
	assert.Equal(t, 612, meta.Duration)
	require.NotNil(t, meta.ThumbnailURL)
	assert.Equal(t, "https://cdn.example.com/t.jpg", *meta.ThumbnailURL)
	assert.JSONEq(t, sidecar, string(meta.Raw))
}

func TestReadMetadataMissingSidecar(t *testing.T) {
	meta := readMetadata(t.TempDir(), "dQw4w9WgXcQ")
	assert.Equal(t, "dQw4w9WgXcQ", meta.Title)
	assert.Nil(t, meta.Description)
	assert.Zero(t, meta.Duration)
	assert.Nil(t, meta.ThumbnailURL)
	assert.Nil(t, meta.Raw)
}

func TestReadMetadataMalformedSidecar(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video.info.json"), []byte("{not json"), 0o644))

	meta := readMetadata(dir, "dQw4w9WgXcQ")
	assert.Equal(t, "dQw4w9WgXcQ", meta.Title)
	assert.Nil(t, meta.Raw)
}

func TestReadMetadataPartialFields(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video.info.json"),
		[]byte(`{"title": "Clip Source"}`), 0o644))

	meta := readMetadata(dir, "dQw4w9WgXcQ")
	assert.Equal(t, "Clip Source", meta.Title)
	assert.Nil(t, meta.Description)
	assert.Zero(t, meta.Duration)
}

func TestFindVideoFile(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		want    string
		wantErr bool
	}{
		{name: "mp4", files: []string{"video.mp4", "video.info.json"}, want: "video.mp4"},
		{name: "webm", files: []string{"video.webm"}, want: "video.webm"},
		{name: "mkv", files: []string{"video.mkv"}, want: "video.mkv"},
		{name: "prefers mp4", files: []string{"video.webm", "video.mp4"}, want: "video.mp4"},
		{name: "nothing produced", files: []string{"video.info.json"}, wantErr: true},
		{name: "empty dir", files: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
			}

			got, err := findVideoFile(dir)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.want), got)
		})
	}
}
