package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/media"
)

var ErrNoFramesCaptured = errors.New("screencast produced no frames")

const (
	screencastQuality = 80
	recordFrameRate   = 25
)

// frameRecord is one captured screencast frame with its offset from
// recording start.
type frameRecord struct {
	path   string
	offset time.Duration
}

// Recorder captures the browser screencast as JPEG frames stamped against
// the recording clock, then encodes them into the session video. Recording is
// continuous for the whole session; there is no per-step video splitting.
type Recorder struct {
	dir    string
	ffmpeg *media.FFmpeg
	logger logger.Logger

	mu     sync.Mutex
	frames []frameRecord
	start  time.Time
}

// NewRecorder creates a Recorder writing frames into dir.
func NewRecorder(dir string, ffmpeg *media.FFmpeg, log logger.Logger) *Recorder {
	return &Recorder{dir: dir, ffmpeg: ffmpeg, logger: log}
}

// Start begins the screencast. The returned start time is the zero point of
// the recording timeline; every StepTiming offset is measured against it.
func (r *Recorder) Start(ctx context.Context) (time.Time, error) {
	r.start = time.Now()

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		frame, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}
		// Acknowledge immediately so the browser keeps streaming.
		go func() {
			if err := chromedp.Run(ctx, page.ScreencastFrameAck(frame.SessionID)); err != nil {
				r.logger.Debug(ctx, "screencast ack failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
		r.saveFrame(ctx, []byte(frame.Data))
	})

	err := chromedp.Run(ctx,
		page.StartScreencast().
			WithFormat(page.ScreencastFormatJpeg).
			WithQuality(screencastQuality).
			WithEveryNthFrame(1),
	)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to start screencast: %w", err)
	}
	return r.start, nil
}

// saveFrame persists one frame. Screencast data arrives base64-decoded from
// cdproto already.
func (r *Recorder) saveFrame(ctx context.Context, data []byte) {
	r.mu.Lock()
	idx := len(r.frames)
	offset := time.Since(r.start)
	path := filepath.Join(r.dir, fmt.Sprintf("frame_%06d.jpg", idx))
	r.frames = append(r.frames, frameRecord{path: path, offset: offset})
	r.mu.Unlock()

	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Error(ctx, "failed to write screencast frame", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}

// StopCapture ends the screencast while the session is still alive. Stopping
// is best effort: frames already captured are what matters.
func (r *Recorder) StopCapture(ctx context.Context, sessionCtx context.Context) {
	if err := chromedp.Run(sessionCtx, page.StopScreencast()); err != nil {
		r.logger.Debug(ctx, "screencast stop failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Encode renders the captured frames into outputPath. Per-frame durations
// derive from the capture timestamps, keeping the video timeline aligned
// with the wall-clock step offsets.
func (r *Recorder) Encode(ctx context.Context, outputPath string) error {
	r.mu.Lock()
	frames := make([]frameRecord, len(r.frames))
	copy(frames, r.frames)
	r.mu.Unlock()

	if len(frames) == 0 {
		return ErrNoFramesCaptured
	}

	listPath := filepath.Join(r.dir, "frames.txt")
	if err := writeFrameList(listPath, frames); err != nil {
		return fmt.Errorf("failed to write frame list: %w", err)
	}

	r.logger.Info(ctx, "encoding session video", map[string]interface{}{
		"frames": len(frames),
		"output": outputPath,
	})
	return r.ffmpeg.Exec(ctx, media.EncodeFramesArgs(listPath, outputPath, recordFrameRate)...)
}

// writeFrameList emits a concat-demuxer list with a duration entry per frame
// so variable frame arrival times survive the encode. The first frame is
// shown from t=0: its duration absorbs the capture latency between recording
// start and its arrival, keeping the video clock on the same zero point as
// the step timings.
func writeFrameList(listPath string, frames []frameRecord) error {
	var b strings.Builder
	for i, f := range frames {
		fmt.Fprintf(&b, "file '%s'\n", f.path)

		shown := f.offset
		if i == 0 {
			shown = 0
		}
		var dur time.Duration
		if i+1 < len(frames) {
			dur = frames[i+1].offset - shown
		} else {
			dur = time.Second / recordFrameRate
		}
		if dur <= 0 {
			dur = time.Millisecond
		}
		fmt.Fprintf(&b, "duration %.3f\n", dur.Seconds())
	}
	// The concat demuxer ignores the last duration unless the final file is
	// repeated.
	fmt.Fprintf(&b, "file '%s'\n", frames[len(frames)-1].path)

	return os.WriteFile(listPath, []byte(b.String()), 0644)
}
