// Package narration renders synthesized speech for demo steps and measures
// each clip's duration precisely enough to place it on the recording timeline.
package narration

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/script"
)

var (
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	ErrNoAudio         = errors.New("speech engine returned no audio")
)

// Result is the per-step narration output. It is never mutated after the
// generator returns it.
type Result struct {
	StepID    string
	AudioPath string
	// Duration is zero for empty narration text.
	Duration time.Duration
	// Text is the literal narration text, retained for subtitle generation.
	Text string
	// Estimated marks a duration computed from file size and a nominal
	// bitrate, the lowest-confidence fallback tier. Consumers needing
	// exactness should treat such results with suspicion.
	Estimated bool
}

// Engine synthesizes speech for one piece of text. Implementations stream the
// rendered audio to outPath and report the measured duration.
type Engine interface {
	Synthesize(ctx context.Context, text, outPath string) (Result, error)
	ListVoices(ctx context.Context, localePrefix string) ([]Voice, error)
}

// Voice describes one entry of the speech engine's voice catalog.
type Voice struct {
	Name   string
	Gender string
	Locale string
}

// Generator renders narration for every step of a script, strictly in script
// order. Steps are independent once the engine is invoked, but sequential
// generation keeps engine-side rate limits trivial to reason about.
type Generator struct {
	engine Engine
	logger logger.Logger
}

// NewGenerator creates a Generator backed by the given engine.
func NewGenerator(engine Engine, log logger.Logger) *Generator {
	return &Generator{engine: engine, logger: log}
}

// GenerateAll produces one Result per step, writing audio clips into
// outputDir named by step id. Steps with empty narration yield a
// zero-duration result without touching the engine.
func (g *Generator) GenerateAll(ctx context.Context, steps []script.Step, outputDir string) ([]Result, error) {
	results := make([]Result, 0, len(steps))

	for i := range steps {
		step := &steps[i]
		text := strings.TrimSpace(step.Narration)
		audioPath := filepath.Join(outputDir, step.ID+".mp3")

		if text == "" {
			results = append(results, Result{
				StepID:    step.ID,
				AudioPath: audioPath,
				Duration:  0,
				Text:      "",
			})
			continue
		}

		g.logger.Debug(ctx, "synthesizing narration", map[string]interface{}{
			"step_id": step.ID,
			"chars":   len(text),
		})

		res, err := g.engine.Synthesize(ctx, text, audioPath)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.ID, err)
		}
		res.StepID = step.ID
		res.Text = text

		g.logger.Info(ctx, "narration generated", map[string]interface{}{
			"step_id":     step.ID,
			"duration_ms": res.Duration.Milliseconds(),
			"estimated":   res.Estimated,
		})
		results = append(results, res)
	}

	return results, nil
}

// TotalDuration sums the measured durations of all results.
func TotalDuration(results []Result) time.Duration {
	var total time.Duration
	for i := range results {
		total += results[i].Duration
	}
	return total
}
