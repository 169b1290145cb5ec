package assemble

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/demo-recorder/browser"
	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/media"
	"github.com/hairizuan-noorazman/demo-recorder/narration"
)

type fakeRunner struct {
	calls  [][]string
	stdout map[string][]byte
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.stdout[name], nil
}

func sampleInputs() ([]narration.Result, []browser.StepTiming) {
	results := []narration.Result{
		{StepID: "step_01", AudioPath: "/tmp/step_01.mp3", Duration: 3 * time.Second, Text: "Welcome to the demo."},
		{StepID: "step_02", AudioPath: "/tmp/step_02.mp3", Duration: 0, Text: ""},
		{StepID: "step_03", AudioPath: "/tmp/step_03.mp3", Duration: 1500 * time.Millisecond, Text: "Click Save."},
	}
	timings := []browser.StepTiming{
		{StepID: "step_01", ActionStart: 500 * time.Millisecond, PauseStart: 1200 * time.Millisecond, PauseEnd: 4700 * time.Millisecond},
		{StepID: "step_02", ActionStart: 4800 * time.Millisecond, PauseStart: 5 * time.Second, PauseEnd: 5500 * time.Millisecond},
		{StepID: "step_03", ActionStart: 6 * time.Second, PauseStart: 6800 * time.Millisecond, PauseEnd: 8800 * time.Millisecond},
	}
	return results, timings
}

func TestCombinedAudioArgsPlacement(t *testing.T) {
	results, timings := sampleInputs()

	args, clips := combinedAudioArgs(results, timings, "combined.aac")
	require.Equal(t, 2, clips)

	joined := strings.Join(args, " ")

	// Clips are delayed to pause-start, not action-start.
	assert.Contains(t, joined, "[0]adelay=1200|1200[a0]")
	assert.Contains(t, joined, "[1]adelay=6800|6800[a1]")
	assert.NotContains(t, joined, "adelay=500|500")
	assert.NotContains(t, joined, "adelay=6000|6000")

	// Delayed streams are mixed without loudness normalization.
	assert.Contains(t, joined, "amix=inputs=2:normalize=0[out]")

	// The empty step contributes no input.
	assert.NotContains(t, joined, "step_02.mp3")
	assert.Contains(t, joined, "step_01.mp3")
	assert.Contains(t, joined, "step_03.mp3")
}

func TestBuildCombinedAudioPlaceholderWhenSilent(t *testing.T) {
	runner := &fakeRunner{}
	a := New(media.NewWithRunner(runner, logger.NewTestLogger()), logger.NewTestLogger())

	results := []narration.Result{{StepID: "a"}, {StepID: "b"}}
	timings := []browser.StepTiming{{StepID: "a"}, {StepID: "b"}}

	placeholder, err := a.BuildCombinedAudio(context.Background(), results, timings, "out.aac")
	require.NoError(t, err)
	assert.True(t, placeholder)

	require.Len(t, runner.calls, 1)
	assert.Contains(t, strings.Join(runner.calls[0], " "), "anullsrc=r=24000:cl=mono")
}

func TestBuildCombinedAudioLengthMismatch(t *testing.T) {
	a := New(media.NewWithRunner(&fakeRunner{}, logger.NewTestLogger()), logger.NewTestLogger())

	_, err := a.BuildCombinedAudio(context.Background(),
		[]narration.Result{{StepID: "a"}},
		nil,
		"out.aac")
	assert.ErrorIs(t, err, ErrTimingMismatch)
}

func TestBuildSubtitlesPlacement(t *testing.T) {
	results, timings := sampleInputs()

	srt, err := BuildSubtitles(results, timings)
	require.NoError(t, err)

	// Entry 1: pause-start 1.2s, end 1.2s + 3s.
	assert.Contains(t, srt, "1\n00:00:01,200 --> 00:00:04,200\nWelcome to the demo.\n")
	// Entry 2 is the third step renumbered sequentially.
	assert.Contains(t, srt, "2\n00:00:06,800 --> 00:00:08,300\nClick Save.\n")
	// The silent step contributes nothing.
	assert.NotContains(t, srt, "step_02")
	assert.Equal(t, 2, strings.Count(srt, "-->"))
}

func TestBuildSubtitlesEmptyWhenNothingNarrated(t *testing.T) {
	srt, err := BuildSubtitles(
		[]narration.Result{{StepID: "a"}},
		[]browser.StepTiming{{StepID: "a"}},
	)
	require.NoError(t, err)
	assert.Empty(t, srt)
}

func TestSelectMuxMode(t *testing.T) {
	tests := []struct {
		name                                    string
		hasSubtitles, burnAvailable, hasRealAudio bool
		expected                                MuxMode
	}{
		{"burn when subs and libass", true, true, true, MuxBurnSubtitles},
		{"soft when subs without libass", true, false, true, MuxSoftSubtitles},
		{"audio only without subs", false, true, true, MuxAudioOnly},
		{"video only when audio is placeholder", false, true, false, MuxVideoOnly},
		{"subs win even with placeholder audio", true, true, false, MuxBurnSubtitles},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SelectMuxMode(tt.hasSubtitles, tt.burnAvailable, tt.hasRealAudio))
		})
	}
}

func TestMuxArgsVideoOnlyHasNoAudio(t *testing.T) {
	args := muxArgs(MuxVideoOnly, "v.mp4", "a.aac", "s.srt", "out.mp4")

	assert.Contains(t, args, "-an")
	assert.NotContains(t, args, "a.aac")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestMuxArgsSoftSubtitles(t *testing.T) {
	args := muxArgs(MuxSoftSubtitles, "v.mp4", "a.aac", "s.srt", "out.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-c:s mov_text")
	assert.Contains(t, joined, "-map 2:s")
	assert.Contains(t, joined, "language=eng")
}

func TestMuxArgsBurnSubtitles(t *testing.T) {
	args := muxArgs(MuxBurnSubtitles, "v.mp4", "a.aac", "subs.srt", "out.mp4")
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "subtitles='subs.srt'")
	assert.Contains(t, joined, "force_style")
	assert.Contains(t, joined, "-map 0:v")
	assert.Contains(t, joined, "-map 1:a")
}
