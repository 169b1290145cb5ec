package media

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EncodingSpec is the single uniform encoding every stitched segment is
// normalized to, so concatenation stays lossless and deterministic across
// players.
type EncodingSpec struct {
	Width      int
	Height     int
	FrameRate  int
	CRF        int
	AudioRate  int
	AudioChans int
}

// DefaultEncoding matches the branded-clip pipeline: 1080p letterboxed H.264
// with 44.1 kHz stereo AAC at 30 fps.
func DefaultEncoding() EncodingSpec {
	return EncodingSpec{
		Width:      1920,
		Height:     1080,
		FrameRate:  30,
		CRF:        18,
		AudioRate:  44100,
		AudioChans: 2,
	}
}

func (s EncodingSpec) scalePad() string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		s.Width, s.Height, s.Width, s.Height)
}

func (s EncodingSpec) videoArgs() []string {
	return []string{
		"-c:v", "libx264", "-preset", "medium", "-crf", strconv.Itoa(s.CRF),
		"-r", strconv.Itoa(s.FrameRate),
		"-pix_fmt", "yuv420p",
	}
}

func (s EncodingSpec) audioArgs() []string {
	return []string{
		"-c:a", "aac", "-b:a", "128k",
		"-ar", strconv.Itoa(s.AudioRate), "-ac", strconv.Itoa(s.AudioChans),
	}
}

func (s EncodingSpec) channelLayout() string {
	if s.AudioChans == 1 {
		return "mono"
	}
	return "stereo"
}

// NormalizeArgs builds the argument vector that re-encodes a clip to the
// uniform spec. Clips without an audio stream get a silent track injected so
// all segments share the same stream layout.
func NormalizeArgs(input, output string, spec EncodingSpec, hasAudio bool) []string {
	args := []string{"-i", input}
	if !hasAudio {
		args = append(args,
			"-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=r=%d:cl=%s", spec.AudioRate, spec.channelLayout()),
		)
	}
	args = append(args, "-vf", spec.scalePad())
	args = append(args, spec.videoArgs()...)
	args = append(args, spec.audioArgs()...)
	if !hasAudio {
		args = append(args, "-shortest")
	}
	return append(args, output)
}

// ExtractArgs builds the argument vector that cuts [start, end) out of a
// source, re-encoded to the uniform spec. A nil end runs to the source's end.
func ExtractArgs(source string, start time.Duration, end *time.Duration, output string, spec EncodingSpec) []string {
	args := []string{"-i", source, "-ss", formatSeconds(start)}
	if end != nil {
		args = append(args, "-t", formatSeconds(*end-start))
	}
	args = append(args, spec.videoArgs()...)
	args = append(args, spec.audioArgs()...)
	return append(args, output)
}

// ConcatArgs builds the argument vector for a concat-demuxer join of the
// segments listed in listPath.
func ConcatArgs(listPath, output string, spec EncodingSpec) []string {
	args := []string{"-f", "concat", "-safe", "0", "-i", listPath}
	args = append(args, spec.videoArgs()...)
	args = append(args, "-c:a", "aac", "-b:a", "128k")
	return append(args, output)
}

// SilenceArgs builds the argument vector for the minimal silent placeholder
// track emitted when no step carries narration.
func SilenceArgs(output string, sampleRate int, duration time.Duration) []string {
	return []string{
		"-f", "lavfi", "-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", sampleRate),
		"-t", formatSeconds(duration),
		"-c:a", "aac",
		output,
	}
}

// EncodeFramesArgs builds the argument vector that turns a screencast frame
// list (concat demuxer with per-frame durations) into the session video.
func EncodeFramesArgs(listPath, output string, frameRate int) []string {
	return []string{
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-vsync", "vfr",
		"-c:v", "libx264", "-preset", "medium", "-crf", "18",
		"-r", strconv.Itoa(frameRate),
		"-pix_fmt", "yuv420p",
		output,
	}
}

// WriteConcatList writes a concat-demuxer file list. Single quotes inside
// paths are escaped per the demuxer's quoting rules.
func WriteConcatList(listPath string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "file '%s'\n", escapeConcatPath(f))
	}
	return os.WriteFile(listPath, []byte(b.String()), 0644)
}

func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// Normalize re-encodes a clip to the uniform spec, probing for audio first.
func (f *FFmpeg) Normalize(ctx context.Context, input, output string, spec EncodingSpec) error {
	hasAudio, err := f.HasAudioStream(ctx, input)
	if err != nil {
		return err
	}
	return f.Exec(ctx, NormalizeArgs(input, output, spec, hasAudio)...)
}

// Extract cuts a segment out of source into output.
func (f *FFmpeg) Extract(ctx context.Context, source string, start time.Duration, end *time.Duration, output string, spec EncodingSpec) error {
	return f.Exec(ctx, ExtractArgs(source, start, end, output, spec)...)
}

// Concat joins the given segment files losslessly via a generated file list.
func (f *FFmpeg) Concat(ctx context.Context, segments []string, listPath, output string, spec EncodingSpec) error {
	if err := WriteConcatList(listPath, segments); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}
	return f.Exec(ctx, ConcatArgs(listPath, output, spec)...)
}
