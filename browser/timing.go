package browser

import "time"

// StepTiming is the wall-clock record for one executed step. All offsets are
// measured from recording start on a single monotonic clock, because the
// assembler places audio on the absolute recording timeline rather than on
// per-step relative time.
type StepTiming struct {
	StepID string
	// ActionStart is when the browser action began.
	ActionStart time.Duration
	// PauseStart is when the post-action settle ended and the narration
	// pause began. This is the authoritative placement time for the step's
	// audio clip and subtitle entry.
	PauseStart time.Duration
	// PauseEnd is when the narration pause and the configured wait_after
	// both finished.
	PauseEnd time.Duration
}
