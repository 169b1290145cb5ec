// Package assemble reconciles the narration clips, the wall-clock step
// timings and the raw screen recording into the final deliverables: one
// combined audio track, one subtitle track and the muxed video.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/demo-recorder/browser"
	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/media"
	"github.com/hairizuan-noorazman/demo-recorder/narration"
)

var ErrTimingMismatch = errors.New("narration results and step timings differ in length")

const (
	narrationSampleRate = 24000
	placeholderDuration = time.Second
)

// Assembler builds the combined audio track, subtitle track and final mux.
type Assembler struct {
	ffmpeg *media.FFmpeg
	logger logger.Logger
}

// New creates an Assembler.
func New(ffmpeg *media.FFmpeg, log logger.Logger) *Assembler {
	return &Assembler{ffmpeg: ffmpeg, logger: log}
}

// combinedAudioArgs builds the ffmpeg invocation that positions every
// non-empty narration clip at its step's pause-start offset (via adelay) and
// mixes the delayed streams without loudness normalization. The count return
// is zero when no clip qualifies.
func combinedAudioArgs(results []narration.Result, timings []browser.StepTiming, outputPath string) ([]string, int) {
	var inputs []string
	var filters []string
	active := 0

	for i := range results {
		res := &results[i]
		if res.Duration <= 0 {
			continue
		}

		delayMs := timings[i].PauseStart.Milliseconds()
		inputs = append(inputs, "-i", res.AudioPath)
		filters = append(filters, fmt.Sprintf("[%d]adelay=%d|%d[a%d]", active, delayMs, delayMs, active))
		active++
	}

	if active == 0 {
		return nil, 0
	}

	var mix strings.Builder
	for j := 0; j < active; j++ {
		fmt.Fprintf(&mix, "[a%d]", j)
	}
	fmt.Fprintf(&mix, "amix=inputs=%d:normalize=0[out]", active)
	filters = append(filters, mix.String())

	args := append([]string{}, inputs...)
	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[out]",
		"-c:a", "aac",
		"-b:a", "128k",
		outputPath,
	)
	return args, active
}

// BuildCombinedAudio renders the whole-video narration track. Each clip is
// delayed to its authoritative pause-start offset; clips are mixed, not
// concatenated. When no step carries narration a minimal silent placeholder
// is emitted instead, and the returned flag is true so the mux stage knows
// never to attach it as a real audio stream.
func (a *Assembler) BuildCombinedAudio(
	ctx context.Context,
	results []narration.Result,
	timings []browser.StepTiming,
	outputPath string,
) (placeholder bool, err error) {
	if len(results) != len(timings) {
		return false, fmt.Errorf("%w: %d results, %d timings", ErrTimingMismatch, len(results), len(timings))
	}

	args, clips := combinedAudioArgs(results, timings, outputPath)
	if clips == 0 {
		a.logger.Info(ctx, "no narration; writing silent placeholder track", map[string]interface{}{
			"output": outputPath,
		})
		silence := media.SilenceArgs(outputPath, narrationSampleRate, placeholderDuration)
		return true, a.ffmpeg.Exec(ctx, silence...)
	}

	a.logger.Info(ctx, "mixing narration clips", map[string]interface{}{
		"clips":  clips,
		"output": outputPath,
	})
	return false, a.ffmpeg.Exec(ctx, args...)
}
