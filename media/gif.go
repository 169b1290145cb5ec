package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// GIFOptions controls the preview animation render.
type GIFOptions struct {
	FPS   int
	Width int
	// MaxDuration caps the preview length; zero means the whole video.
	MaxDuration time.Duration
}

// DefaultGIFOptions keeps previews small: 10 fps, 800 px wide, 30 s cap.
func DefaultGIFOptions() GIFOptions {
	return GIFOptions{FPS: 10, Width: 800, MaxDuration: 30 * time.Second}
}

// GeneratePreview renders a palette-optimized GIF from a video with the
// standard two-pass method: palettegen over the source, then paletteuse.
func (f *FFmpeg) GeneratePreview(ctx context.Context, videoPath, outputPath string, opts GIFOptions) error {
	palettePath := filepath.Join(filepath.Dir(outputPath), "palette.png")
	defer os.Remove(palettePath)

	var durationArgs []string
	if opts.MaxDuration > 0 {
		durationArgs = []string{"-t", formatSeconds(opts.MaxDuration)}
	}

	paletteFilter := fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos,palettegen", opts.FPS, opts.Width)
	paletteArgs := append(append([]string{}, durationArgs...),
		"-i", videoPath,
		"-vf", paletteFilter,
		palettePath,
	)
	if err := f.Exec(ctx, paletteArgs...); err != nil {
		return fmt.Errorf("palette pass: %w", err)
	}

	useFilter := fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos[x];[x][1:v]paletteuse", opts.FPS, opts.Width)
	gifArgs := append(append([]string{}, durationArgs...),
		"-i", videoPath,
		"-i", palettePath,
		"-lavfi", useFilter,
		outputPath,
	)
	if err := f.Exec(ctx, gifArgs...); err != nil {
		return fmt.Errorf("paletteuse pass: %w", err)
	}
	return nil
}
