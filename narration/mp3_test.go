package narration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFrame returns one synthetic MPEG1 Layer III frame: 128 kbit/s,
// 44.1 kHz, no padding, which works out to 417 bytes.
func buildFrame() []byte {
	frame := make([]byte, 417)
	frame[0] = 0xFF
	frame[1] = 0xFB // MPEG1, Layer III
	frame[2] = 0x80 // bitrate index 8 (128k), sample rate index 0 (44100)
	frame[3] = 0xC4
	return frame
}

func TestMP3DurationSumsFrames(t *testing.T) {
	var data []byte
	for i := 0; i < 10; i++ {
		data = append(data, buildFrame()...)
	}

	dur, err := MP3Duration(data)
	require.NoError(t, err)

	// 10 frames * 1152 samples at 44100 Hz = 261.2 ms, truncated to ms.
	assert.Equal(t, 261*time.Millisecond, dur)
}

func TestMP3DurationSkipsGarbagePrefix(t *testing.T) {
	data := append([]byte("ID3 junk header bytes"), buildFrame()...)
	data = append(data, buildFrame()...)

	dur, err := MP3Duration(data)
	require.NoError(t, err)
	assert.Equal(t, 52*time.Millisecond, dur)
}

func TestMP3DurationNoFrames(t *testing.T) {
	_, err := MP3Duration([]byte("definitely not an mpeg stream"))
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestMP3DurationEmpty(t *testing.T) {
	_, err := MP3Duration(nil)
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestEstimateDuration(t *testing.T) {
	// 6000 bytes at 48 kbit/s nominal = 1000 ms.
	assert.Equal(t, time.Second, EstimateDuration(6000))
	assert.Equal(t, time.Duration(0), EstimateDuration(0))
}

func TestMeasureDurationTiers(t *testing.T) {
	// Word-boundary events win over everything, even with parseable audio.
	boundaries := []wordBoundary{{Offset: 10_000_000, Duration: 5_000_000, Text: "demo"}}
	dur, estimated, tier := measureDuration(buildFrame(), boundaries)
	assert.Equal(t, 1500*time.Millisecond, dur)
	assert.False(t, estimated)
	assert.Equal(t, "word-boundary", tier)

	// No boundaries: fall back to frame parsing.
	dur, estimated, tier = measureDuration(buildFrame(), nil)
	assert.Equal(t, 26*time.Millisecond, dur)
	assert.False(t, estimated)
	assert.Equal(t, "mp3-frames", tier)

	// Unparseable audio: size estimate, flagged low-confidence.
	dur, estimated, tier = measureDuration(make([]byte, 6000), nil)
	assert.Equal(t, time.Second, dur)
	assert.True(t, estimated)
	assert.Equal(t, "size-estimate", tier)
}
