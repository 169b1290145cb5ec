package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArgsWithAudio(t *testing.T) {
	args := NormalizeArgs("in.webm", "out.mp4", DefaultEncoding(), true)

	assert.Equal(t, "-i", args[0])
	assert.Equal(t, "in.webm", args[1])
	assert.NotContains(t, args, "anullsrc=r=44100:cl=stereo")
	assert.NotContains(t, args, "-shortest")
	assert.Contains(t, args, "scale=1920:1080:force_original_aspect_ratio=decrease,pad=1920:1080:(ow-iw)/2:(oh-ih)/2")
	assert.Contains(t, args, "yuv420p")
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestNormalizeArgsInjectsSilentAudio(t *testing.T) {
	args := NormalizeArgs("in.mp4", "out.mp4", DefaultEncoding(), false)

	assert.Contains(t, args, "anullsrc=r=44100:cl=stereo")
	assert.Contains(t, args, "-shortest")
}

func TestExtractArgsBoundedRange(t *testing.T) {
	end := 12 * time.Second
	args := ExtractArgs("src.mp4", 10*time.Second, &end, "seg.mp4", DefaultEncoding())

	assert.Contains(t, args, "-ss")
	assert.Contains(t, args, "10.000")
	assert.Contains(t, args, "-t")
	assert.Contains(t, args, "2.000")
	assert.Equal(t, "seg.mp4", args[len(args)-1])
}

func TestExtractArgsOpenEnd(t *testing.T) {
	args := ExtractArgs("src.mp4", 5*time.Second, nil, "seg.mp4", DefaultEncoding())
	assert.NotContains(t, args, "-t")
}

func TestConcatArgs(t *testing.T) {
	args := ConcatArgs("list.txt", "final.mp4", DefaultEncoding())

	assert.Equal(t, []string{"-f", "concat", "-safe", "0", "-i", "list.txt"}, args[:6])
	assert.Equal(t, "final.mp4", args[len(args)-1])
}

func TestSilenceArgs(t *testing.T) {
	args := SilenceArgs("silent.aac", 24000, time.Second)

	assert.Contains(t, args, "anullsrc=r=24000:cl=mono")
	assert.Contains(t, args, "1.000")
	assert.Equal(t, "silent.aac", args[len(args)-1])
}

func TestEncodeFramesArgs(t *testing.T) {
	args := EncodeFramesArgs("frames.txt", "session.mp4", 25)

	assert.Contains(t, args, "-vsync")
	assert.Contains(t, args, "vfr")
	assert.Contains(t, args, "25")
	assert.Equal(t, "session.mp4", args[len(args)-1])
}
