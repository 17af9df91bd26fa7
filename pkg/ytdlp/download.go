package ytdlp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Download fetches the best available mp4 (or whatever single format the
// site offers) into destDir along with its metadata sidecar files:
//
//	<destDir>/video.<ext>
//	<destDir>/video.info.json
//	<destDir>/video.<image ext>  (thumbnail)
//
// The stable "video" basename lets callers locate the output without
// knowing the container extension up front.
func (c *Client) Download(ctx context.Context, url string, destDir string, extraArgs ...string) error {
	if strings.TrimSpace(url) == "" {
		return fmt.Errorf("ytdlp: url is required")
	}
	if strings.TrimSpace(destDir) == "" {
		return fmt.Errorf("ytdlp: destDir is required")
	}

	tmpl := filepath.Join(destDir, "video.%(ext)s")

	args := []string{
		"--no-check-certificates",
		"--no-warnings",
		"--ignore-errors",
		"--format", "best[ext=mp4]/best",
		"--output", tmpl,
		"--write-info-json",
		"--write-thumbnail",
		"--no-playlist",
		"--socket-timeout", "30",
		"--retries", "15",
		"--fragment-retries", "15",
		"--progress",
		"--progress-delta", "5",
		"--newline",
		"--no-colors",
	}
	args = append(args, extraArgs...)
	args = append(args, url)

	stdout, stderr, err := c.exec(ctx, args...)
	if err != nil {
		return wrapExecError(c.PathOrDefault(), args, stdout, stderr, err)
	}
	return nil
}
