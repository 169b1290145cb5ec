package assemble

import (
	"fmt"
	"os"
	"strings"

	"github.com/hairizuan-noorazman/demo-recorder/browser"
	"github.com/hairizuan-noorazman/demo-recorder/narration"
)

// BuildSubtitles renders the combined SRT track: one sequentially numbered
// entry per non-empty narration, spanning [pause-start, pause-start +
// measured duration). The returned string is empty when nothing is narrated.
func BuildSubtitles(results []narration.Result, timings []browser.StepTiming) (string, error) {
	if len(results) != len(timings) {
		return "", fmt.Errorf("%w: %d results, %d timings", ErrTimingMismatch, len(results), len(timings))
	}

	var b strings.Builder
	idx := 1

	for i := range results {
		res := &results[i]
		if res.Duration <= 0 {
			continue
		}
		text := strings.TrimSpace(res.Text)
		if text == "" {
			continue
		}

		start := timings[i].PauseStart
		end := start + res.Duration

		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			idx,
			narration.FormatSRTTime(start),
			narration.FormatSRTTime(end),
			text,
		)
		idx++
	}

	return b.String(), nil
}

// WriteSubtitles builds the SRT track and writes it to path. It reports
// whether any entry was written; an empty track still produces an (empty)
// file so output naming stays uniform.
func WriteSubtitles(results []narration.Result, timings []browser.StepTiming, path string) (bool, error) {
	content, err := BuildSubtitles(results, timings)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return false, fmt.Errorf("failed to write subtitles: %w", err)
	}
	return content != "", nil
}
