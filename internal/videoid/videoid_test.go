package videoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{name: "watch url", url: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "watch url with extra params", url: "https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", want: "dQw4w9WgXcQ"},
		{name: "short link", url: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short link with query", url: "https://youtu.be/dQw4w9WgXcQ?si=abc", want: "dQw4w9WgXcQ"},
		{name: "embed url", url: "https://www.youtube.com/embed/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "legacy v url", url: "https://www.youtube.com/v/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "mobile host", url: "https://m.youtube.com/watch?v=abc123XYZ_-", want: "abc123XYZ_-"},
		{name: "empty", url: "", wantErr: true},
		{name: "not a video url", url: "https://example.com/watch?v=nope", wantErr: true},
		{name: "channel url", url: "https://www.youtube.com/@somechannel", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.url)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPatternOrder(t *testing.T) {
	// A URL matching the watch pattern must not fall through to later patterns.
	got, err := Extract("https://www.youtube.com/watch?v=first#youtu.be/second")
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestVideoUUIDDeterministic(t *testing.T) {
	a := VideoUUID("dQw4w9WgXcQ")
	b := VideoUUID("dQw4w9WgXcQ")
	c := VideoUUID("otherVideo1")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
