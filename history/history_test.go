package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusCreated, StatusRunning, StatusSuccess, StatusFailed} {
		assert.True(t, s.IsValid(), string(s))
	}
	assert.False(t, Status("paused").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestRunValidate(t *testing.T) {
	r := &Run{Title: "checkout demo", ScriptPath: "demo.json"}
	assert.NoError(t, r.Validate())

	assert.ErrorIs(t, (&Run{ScriptPath: "demo.json"}).Validate(), ErrInvalidTitle)
	assert.ErrorIs(t, (&Run{Title: "checkout demo"}).Validate(), ErrInvalidScriptPath)
}

func TestRunLifecycle(t *testing.T) {
	r := &Run{Title: "checkout demo", ScriptPath: "demo.json", Status: StatusCreated}

	require.NoError(t, r.Start())
	assert.Equal(t, StatusRunning, r.Status)
	require.NotNil(t, r.StartTime)

	// Double start is rejected.
	assert.ErrorIs(t, r.Start(), ErrRunAlreadyStarted)

	require.NoError(t, r.Complete(Outputs{Video: "out/demo.mp4", GIF: "out/demo.gif", SRT: "out/demo.srt"}))
	assert.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, "out/demo.mp4", r.OutputVideo)
	require.NotNil(t, r.EndTime)
	require.NotNil(t, r.Duration)
	assert.GreaterOrEqual(t, *r.Duration, int64(0))
	assert.True(t, !r.EndTime.Before(*r.StartTime))
}

func TestRunFail(t *testing.T) {
	r := &Run{Title: "checkout demo", ScriptPath: "demo.json", Status: StatusCreated}

	// Cannot fail a run that never started.
	assert.ErrorIs(t, r.Fail("boom"), ErrRunNotRunning)

	require.NoError(t, r.Start())
	require.NoError(t, r.Fail("ffmpeg exited with status 1"))
	assert.Equal(t, StatusFailed, r.Status)
	assert.Equal(t, "ffmpeg exited with status 1", r.Error)
	require.NotNil(t, r.EndTime)

	// Terminal states accept no further transitions.
	assert.ErrorIs(t, r.Complete(Outputs{}), ErrRunNotRunning)
}

func TestRunDurationMeasured(t *testing.T) {
	start := time.Now().Add(-1500 * time.Millisecond)
	r := &Run{
		Title:      "checkout demo",
		ScriptPath: "demo.json",
		Status:     StatusRunning,
		StartTime:  &start,
	}

	require.NoError(t, r.Complete(Outputs{Video: "demo.mp4"}))
	require.NotNil(t, r.Duration)
	assert.GreaterOrEqual(t, *r.Duration, int64(1500))
}
