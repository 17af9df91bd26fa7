package ffmpeg

import (
	"fmt"
)

// Scale adds a scale filter. Use -2 for width or height to auto-calculate
// while maintaining aspect ratio and ensuring even dimensions (required for
// h264).
func Scale(width, height int) Option {
	return Filter(fmt.Sprintf("scale=%d:%d", width, height))
}

// ScaleForceAspect scales with force_original_aspect_ratio option.
// mode can be "increase", "decrease", or "disable".
func ScaleForceAspect(width, height int, mode string) Option {
	return Filter(fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=%s", width, height, mode))
}

// CropCenter crops to the target dimensions around the frame center.
func CropCenter(w, h int) Option {
	return Filter(fmt.Sprintf("crop=%d:%d", w, h))
}
