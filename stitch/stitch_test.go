package stitch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/media"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return path
}

func TestClipPlan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "intro.mp4")
	touch(t, dir, "demo.mp4")

	end := 42 * time.Second
	cfg := &Config{Clips: []ClipRef{
		{Source: "intro.mp4"},
		{Source: "demo.mp4", StartAt: 19 * time.Second, EndAt: &end},
	}}

	plan, err := ClipPlan(cfg, dir)
	require.NoError(t, err)
	require.Len(t, plan, 2)

	// An untrimmed clip is normalized whole; a trimmed one is cut out and
	// then normalized.
	assert.Equal(t, SegmentClip, plan[0].Kind)
	assert.Equal(t, filepath.Join(dir, "intro.mp4"), plan[0].Path)

	assert.Equal(t, SegmentClipRange, plan[1].Kind)
	assert.Equal(t, 19*time.Second, plan[1].Start)
	require.NotNil(t, plan[1].End)
	assert.Equal(t, end, *plan[1].End)
}

type fakeRunner struct {
	calls [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if name == "ffprobe" {
		return []byte("10.0\n"), nil
	}
	return nil, nil
}

func (f *fakeRunner) joined() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

func TestStitchClipsNormalizesTrimmedClip(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "talk.mp4")

	end := 12 * time.Second
	cfg := &Config{Clips: []ClipRef{
		{Source: "talk.mp4", StartAt: 2 * time.Second, EndAt: &end},
	}}

	runner := &fakeRunner{}
	s := New(media.NewWithRunner(runner, logger.NewTestLogger()), logger.NewTestLogger())
	require.NoError(t, s.StitchClips(context.Background(), cfg, dir, filepath.Join(dir, "out.mp4")))

	var sawCut, sawLetterbox bool
	for _, call := range runner.joined() {
		if strings.Contains(call, "-ss 2.000") && strings.Contains(call, "-t 10.000") {
			sawCut = true
		}
		// The cut intermediate must go through the scale/pad letterbox so
		// every concat entry shares one resolution.
		if strings.Contains(call, "seg_00_cut.mp4") && strings.Contains(call, "scale=") && strings.Contains(call, "pad=") {
			sawLetterbox = true
		}
	}
	assert.True(t, sawCut, "trimmed clip must be cut with -ss/-t")
	assert.True(t, sawLetterbox, "cut clip must be letterboxed before concat")
}

func TestClipPlanMissingFile(t *testing.T) {
	cfg := &Config{Clips: []ClipRef{{Source: "nope.mp4"}}}

	_, err := ClipPlan(cfg, t.TempDir())
	assert.ErrorIs(t, err, ErrClipNotFound)
}

func TestTransitionPlanCursorWalk(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "intro.mp4")
	touch(t, dir, "outro.mp4")
	touch(t, dir, "wipe1.mp4")
	touch(t, dir, "wipe2.mp4")
	source := touch(t, dir, "session.mp4")

	cfg := &Config{
		Intro:   "intro.mp4",
		Outro:   "outro.mp4",
		StartAt: 2 * time.Second,
		Transitions: []Transition{
			{Clip: "wipe1.mp4", TrimStart: 10 * time.Second, TrimEnd: 12 * time.Second},
			{Clip: "wipe2.mp4", TrimStart: 30 * time.Second, TrimEnd: 33 * time.Second},
		},
	}

	plan, err := TransitionPlan(cfg, dir, source, 60*time.Second)
	require.NoError(t, err)
	require.Len(t, plan, 7)

	assert.Equal(t, SegmentClip, plan[0].Kind)
	assert.Equal(t, "intro", plan[0].Label)

	// Source from start_at up to the first cut.
	assert.Equal(t, SegmentSource, plan[1].Kind)
	assert.Equal(t, 2*time.Second, plan[1].Start)
	require.NotNil(t, plan[1].End)
	assert.Equal(t, 10*time.Second, *plan[1].End)

	assert.Equal(t, SegmentClip, plan[2].Kind)
	assert.Equal(t, filepath.Join(dir, "wipe1.mp4"), plan[2].Path)

	// Cursor jumped over [10s, 12s): next segment starts at trim_end.
	assert.Equal(t, SegmentSource, plan[3].Kind)
	assert.Equal(t, 12*time.Second, plan[3].Start)
	assert.Equal(t, 30*time.Second, *plan[3].End)

	assert.Equal(t, SegmentClip, plan[4].Kind)

	// Trailing segment runs through to the end of the source.
	assert.Equal(t, SegmentSource, plan[5].Kind)
	assert.Equal(t, 33*time.Second, plan[5].Start)
	assert.Nil(t, plan[5].End)

	assert.Equal(t, SegmentClip, plan[6].Kind)
	assert.Equal(t, "outro", plan[6].Label)
}

func TestTransitionPlanOutroAndTrailing(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "outro.mp4")
	touch(t, dir, "wipe.mp4")
	source := touch(t, dir, "session.mp4")

	cfg := &Config{
		Outro: "outro.mp4",
		Transitions: []Transition{
			{Clip: "wipe.mp4", TrimStart: 5 * time.Second, TrimEnd: 8 * time.Second},
		},
	}

	plan, err := TransitionPlan(cfg, dir, source, 20*time.Second)
	require.NoError(t, err)
	require.Len(t, plan, 4)

	assert.Equal(t, "segment 1", plan[0].Label)
	assert.Equal(t, "transition 1", plan[1].Label)
	assert.Equal(t, "final segment", plan[2].Label)
	assert.Equal(t, "outro", plan[3].Label)
}

func TestTransitionPlanCutAtStart(t *testing.T) {
	// A cut beginning at the cursor produces no empty leading segment.
	dir := t.TempDir()
	touch(t, dir, "wipe.mp4")
	source := touch(t, dir, "session.mp4")

	cfg := &Config{
		Transitions: []Transition{
			{Clip: "wipe.mp4", TrimStart: 0, TrimEnd: 3 * time.Second},
		},
	}

	plan, err := TransitionPlan(cfg, dir, source, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, SegmentClip, plan[0].Kind)
	assert.Equal(t, SegmentSource, plan[1].Kind)
	assert.Equal(t, 3*time.Second, plan[1].Start)
}

func TestTransitionPlanCutThroughEnd(t *testing.T) {
	// A cut reaching the source's end leaves no trailing segment.
	dir := t.TempDir()
	touch(t, dir, "wipe.mp4")
	source := touch(t, dir, "session.mp4")

	cfg := &Config{
		Transitions: []Transition{
			{Clip: "wipe.mp4", TrimStart: 7 * time.Second, TrimEnd: 10 * time.Second},
		},
	}

	plan, err := TransitionPlan(cfg, dir, source, 10*time.Second)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, SegmentSource, plan[0].Kind)
	assert.Equal(t, SegmentClip, plan[1].Kind)
}

func TestTransitionPlanSourceCoverageAdditivity(t *testing.T) {
	// The source ranges the plan keeps must cover exactly the source minus
	// the cut ranges, with no gap and no double-coverage.
	dir := t.TempDir()
	touch(t, dir, "a.mp4")
	touch(t, dir, "b.mp4")
	source := touch(t, dir, "session.mp4")
	sourceDuration := 90 * time.Second

	cfg := &Config{
		Transitions: []Transition{
			{Clip: "a.mp4", TrimStart: 20 * time.Second, TrimEnd: 25 * time.Second},
			{Clip: "b.mp4", TrimStart: 60 * time.Second, TrimEnd: 62 * time.Second},
		},
	}

	plan, err := TransitionPlan(cfg, dir, source, sourceDuration)
	require.NoError(t, err)

	var kept time.Duration
	cursor := time.Duration(0)
	for _, seg := range plan {
		if seg.Kind != SegmentSource {
			continue
		}
		assert.Equal(t, cursor, seg.Start, "source segments must resume where the previous range ended")
		end := sourceDuration
		if seg.End != nil {
			end = *seg.End
		}
		kept += end - seg.Start
		cursor = end
		// Skip over the following cut.
		for _, trans := range cfg.Transitions {
			if trans.TrimStart == cursor {
				cursor = trans.TrimEnd
			}
		}
	}

	var cut time.Duration
	for _, trans := range cfg.Transitions {
		cut += trans.TrimEnd - trans.TrimStart
	}
	assert.Equal(t, sourceDuration-cut, kept)
}

func TestTransitionPlanDeterministic(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "wipe.mp4")
	source := touch(t, dir, "session.mp4")

	cfg := &Config{
		Transitions: []Transition{
			{Clip: "wipe.mp4", TrimStart: 5 * time.Second, TrimEnd: 8 * time.Second},
		},
	}

	first, err := TransitionPlan(cfg, dir, source, 30*time.Second)
	require.NoError(t, err)
	second, err := TransitionPlan(cfg, dir, source, 30*time.Second)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestTransitionPlanMissingClip(t *testing.T) {
	source := touch(t, t.TempDir(), "session.mp4")

	cfg := &Config{
		Transitions: []Transition{
			{Clip: "missing.mp4", TrimStart: time.Second, TrimEnd: 2 * time.Second},
		},
	}

	_, err := TransitionPlan(cfg, t.TempDir(), source, 10*time.Second)
	assert.ErrorIs(t, err, ErrClipNotFound)
}
