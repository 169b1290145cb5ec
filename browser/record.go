package browser

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/hairizuan-noorazman/demo-recorder/script"
)

const (
	initialSettle    = 500 * time.Millisecond
	actionSettle     = 300 * time.Millisecond
	finalSettle      = 1000 * time.Millisecond
	pendingLoadGrace = 5 * time.Second
)

// Record walks every script step against the live session while the screen
// is recorded continuously. narrationDurations holds, per step, the length
// the matching narration clip will occupy; the walk pauses on each step for
// that length plus the step's configured wait_after, as two back-to-back
// waits. Returned timings are offsets on the single recording clock.
func (s *Session) Record(
	ctx context.Context,
	demo *script.DemoScript,
	narrationDurations []time.Duration,
	recorder *Recorder,
	videoDir string,
) (string, []StepTiming, error) {
	if s.closed {
		return "", nil, ErrSessionClosed
	}

	start, err := recorder.Start(s.ctx)
	if err != nil {
		return "", nil, err
	}
	elapsed := func() time.Duration { return time.Since(start) }

	timings := make([]StepTiming, 0, len(demo.Steps))

	// Let the blank page paint before the first action.
	sleepCtx(ctx, initialSettle)

	for i := range demo.Steps {
		step := &demo.Steps[i]

		var narration time.Duration
		if i < len(narrationDurations) {
			narration = narrationDurations[i]
		}

		// Drain any navigation still pending from the previous step.
		s.waitForLoad(s.ctx, pendingLoadGrace)

		actionStart := elapsed()

		if err := s.ExecuteStep(s.ctx, step); err != nil {
			return "", nil, err
		}

		sleepCtx(ctx, actionSettle)
		pauseStart := elapsed()

		if narration > 0 {
			sleepCtx(ctx, narration)
		}
		if step.WaitAfter > 0 {
			sleepCtx(ctx, time.Duration(step.WaitAfter)*time.Millisecond)
		}
		pauseEnd := elapsed()

		timings = append(timings, StepTiming{
			StepID:      step.ID,
			ActionStart: actionStart,
			PauseStart:  pauseStart,
			PauseEnd:    pauseEnd,
		})

		s.logger.Debug(ctx, "step recorded", map[string]interface{}{
			"step_id":        step.ID,
			"action":         string(step.Action),
			"action_start":   actionStart.Milliseconds(),
			"pause_start_ms": pauseStart.Milliseconds(),
			"pause_end_ms":   pauseEnd.Milliseconds(),
		})
	}

	sleepCtx(ctx, finalSettle)

	// Stop capturing while the browser is still alive, then close it before
	// encoding: the recording must be complete before anything downstream
	// reads it.
	recorder.StopCapture(ctx, s.ctx)
	s.Close()

	videoPath := filepath.Join(videoDir, "session.mp4")
	if err := recorder.Encode(ctx, videoPath); err != nil {
		return "", nil, fmt.Errorf("failed to finalize recording: %w", err)
	}

	return videoPath, timings, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
