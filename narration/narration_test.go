package narration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/script"
)

// fakeEngine records synthesize calls and returns a fixed duration.
type fakeEngine struct {
	calls    []string
	duration time.Duration
}

func (f *fakeEngine) Synthesize(ctx context.Context, text, outPath string) (Result, error) {
	f.calls = append(f.calls, text)
	return Result{AudioPath: outPath, Duration: f.duration}, nil
}

func (f *fakeEngine) ListVoices(ctx context.Context, prefix string) ([]Voice, error) {
	return nil, nil
}

func TestGenerateAllSkipsEmptyNarration(t *testing.T) {
	engine := &fakeEngine{duration: 2 * time.Second}
	gen := NewGenerator(engine, logger.NewTestLogger())

	steps := []script.Step{
		{ID: "step_01", Narration: "First narration."},
		{ID: "step_02", Narration: ""},
		{ID: "step_03", Narration: "   "},
		{ID: "step_04", Narration: "Last narration."},
	}

	results, err := gen.GenerateAll(context.Background(), steps, t.TempDir())
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, []string{"First narration.", "Last narration."}, engine.calls)

	assert.Equal(t, 2*time.Second, results[0].Duration)
	assert.Zero(t, results[1].Duration)
	assert.Zero(t, results[2].Duration)
	assert.Equal(t, 2*time.Second, results[3].Duration)

	// Whitespace-only narration must not leave subtitle text behind.
	assert.Empty(t, results[2].Text)
	assert.Equal(t, "Last narration.", results[3].Text)
}

func TestGenerateAllCorrelatesStepIDs(t *testing.T) {
	engine := &fakeEngine{duration: time.Second}
	gen := NewGenerator(engine, logger.NewTestLogger())

	steps := []script.Step{{ID: "intro", Narration: "hello"}}
	results, err := gen.GenerateAll(context.Background(), steps, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "intro", results[0].StepID)
	assert.Contains(t, results[0].AudioPath, "intro.mp3")
}

func TestTotalDuration(t *testing.T) {
	results := []Result{
		{Duration: time.Second},
		{Duration: 0},
		{Duration: 1500 * time.Millisecond},
	}
	assert.Equal(t, 2500*time.Millisecond, TotalDuration(results))
}

func TestSplitMessage(t *testing.T) {
	raw := []byte("X-RequestId:abc123\r\nPath:audio.metadata\r\n\r\n{\"Metadata\":[]}")
	headers, body := splitMessage(raw)

	assert.Equal(t, "audio.metadata", headers["Path"])
	assert.Equal(t, "abc123", headers["X-RequestId"])
	assert.JSONEq(t, `{"Metadata":[]}`, string(body))
}

func TestSplitMessageNoBody(t *testing.T) {
	headers, body := splitMessage([]byte("Path:turn.end"))
	assert.Empty(t, headers)
	assert.Nil(t, body)
}

func TestParseBoundaries(t *testing.T) {
	body := []byte(`{"Metadata":[
		{"Type":"WordBoundary","Data":{"Offset":10000000,"Duration":5000000,"text":{"Text":"hello"}}},
		{"Type":"SessionEnd","Data":{"Offset":0,"Duration":0,"text":{"Text":""}}},
		{"Type":"WordBoundary","Data":{"Offset":16000000,"Duration":4000000,"text":{"Text":"world"}}}
	]}`)

	got := parseBoundaries(body)
	require.Len(t, got, 2)
	assert.Equal(t, int64(10000000), got[0].Offset)
	assert.Equal(t, "world", got[1].Text)

	// Final boundary end offset in ms drives the measured duration:
	// (16000000 + 4000000) / 10000 = 2000 ms.
	last := got[len(got)-1]
	assert.Equal(t, int64(2000), (last.Offset+last.Duration)/10_000)
}

func TestParseBoundariesMalformed(t *testing.T) {
	assert.Nil(t, parseBoundaries([]byte("not json")))
}

func TestSSMLEscaping(t *testing.T) {
	escaped := ssmlEscaper.Replace(`Click "Save" & <enter> your pa'ssword`)
	assert.Equal(t, "Click &quot;Save&quot; &amp; &lt;enter&gt; your pa&apos;ssword", escaped)
}
