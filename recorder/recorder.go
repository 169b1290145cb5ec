// Package recorder sequences the recording pipeline: narrate, record,
// assemble, mux, preview. One temporary working directory spans all phases
// and is removed no matter how the run ends.
package recorder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hairizuan-noorazman/demo-recorder/assemble"
	"github.com/hairizuan-noorazman/demo-recorder/browser"
	"github.com/hairizuan-noorazman/demo-recorder/history"
	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/media"
	"github.com/hairizuan-noorazman/demo-recorder/narration"
	"github.com/hairizuan-noorazman/demo-recorder/script"
	"github.com/hairizuan-noorazman/demo-recorder/storage"
)

// State tracks where a run currently is. Failed is reachable from any
// non-terminal state; there are no automatic retries.
type State string

const (
	StateNotStarted State = "not_started"
	StateNarrating  State = "narrating"
	StateRecording  State = "recording"
	StateAssembling State = "assembling"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// Options adjust a single pipeline run.
type Options struct {
	OutputDir string
	SkipGIF   bool
	Headless  bool
	// Publish pushes the finished artifacts to the configured store.
	Publish bool
}

// Outputs names the deliverables of a successful run.
type Outputs struct {
	Video string
	GIF   string
	SRT   string
}

// Pipeline wires the phases together. The history store and artifact store
// are optional; a nil store simply skips that concern.
type Pipeline struct {
	engine    narration.Engine
	ffmpeg    *media.FFmpeg
	history   history.Store
	artifacts storage.ArtifactStore
	logger    logger.Logger

	state State
}

// New creates a Pipeline.
func New(engine narration.Engine, ffmpeg *media.FFmpeg, hist history.Store, artifacts storage.ArtifactStore, log logger.Logger) *Pipeline {
	return &Pipeline{
		engine:    engine,
		ffmpeg:    ffmpeg,
		history:   hist,
		artifacts: artifacts,
		logger:    log,
		state:     StateNotStarted,
	}
}

// State reports the pipeline's current phase.
func (p *Pipeline) State() State { return p.state }

// Run executes the whole pipeline for one script. Phase failures abort
// immediately; there is no partial-success output.
func (p *Pipeline) Run(ctx context.Context, demo *script.DemoScript, scriptPath string, opts Options) (Outputs, error) {
	outputs, err := p.run(ctx, demo, scriptPath, opts)
	if err != nil {
		p.state = StateFailed
		return Outputs{}, err
	}
	p.state = StateDone
	return outputs, nil
}

func (p *Pipeline) run(ctx context.Context, demo *script.DemoScript, scriptPath string, opts Options) (Outputs, error) {
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return Outputs{}, fmt.Errorf("failed to create output dir: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "demorec_")
	if err != nil {
		return Outputs{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	audioDir := filepath.Join(tmpDir, "audio")
	videoDir := filepath.Join(tmpDir, "video")
	framesDir := filepath.Join(tmpDir, "frames")
	for _, dir := range []string{audioDir, videoDir, framesDir} {
		if err := os.Mkdir(dir, 0755); err != nil {
			return Outputs{}, fmt.Errorf("failed to create temp dir: %w", err)
		}
	}

	run, err := p.startRun(ctx, demo, scriptPath)
	if err != nil {
		return Outputs{}, err
	}
	fail := func(cause error) (Outputs, error) {
		p.failRun(ctx, run, cause)
		return Outputs{}, cause
	}

	// Phase 1: narrate every step up front so the recording can pause for
	// exactly as long as each clip plays.
	p.state = StateNarrating
	var results []narration.Result
	err = p.phase(ctx, "narration", func() error {
		gen := narration.NewGenerator(p.engine, p.logger)
		results, err = gen.GenerateAll(ctx, demo.Steps, audioDir)
		return err
	})
	if err != nil {
		return fail(err)
	}

	p.logger.Info(ctx, "narration ready", map[string]interface{}{
		"narrated_steps": demo.NarratedSteps(),
		"total_steps":    len(demo.Steps),
		"total_audio_ms": narration.TotalDuration(results).Milliseconds(),
	})

	durations := make([]time.Duration, len(results))
	for i, res := range results {
		durations[i] = res.Duration
	}

	// Phase 2: drive the browser while the screen is captured.
	p.state = StateRecording
	var videoPath string
	var timings []browser.StepTiming
	err = p.phase(ctx, "recording", func() error {
		session, err := browser.NewSession(ctx, browser.SessionOptions{
			Viewport:         demo.Metadata.Viewport,
			BaseURL:          demo.Metadata.BaseURL,
			StorageStatePath: demo.Metadata.StorageState,
			Headless:         opts.Headless,
		}, p.logger)
		if err != nil {
			return err
		}
		defer session.Close()

		rec := browser.NewRecorder(framesDir, p.ffmpeg, p.logger)
		videoPath, timings, err = session.Record(ctx, demo, durations, rec, videoDir)
		return err
	})
	if err != nil {
		return fail(err)
	}

	// Phase 3: build the combined audio and subtitles from the step timings.
	p.state = StateAssembling
	outputName := demo.Metadata.OutputName
	outputs := Outputs{
		Video: filepath.Join(opts.OutputDir, outputName+".mp4"),
		SRT:   filepath.Join(opts.OutputDir, outputName+".srt"),
	}

	asm := assemble.New(p.ffmpeg, p.logger)
	combinedAudio := filepath.Join(tmpDir, "combined_audio.aac")
	var placeholder, hasSubtitles bool
	err = p.phase(ctx, "assembly", func() error {
		var err error
		placeholder, err = asm.BuildCombinedAudio(ctx, results, timings, combinedAudio)
		if err != nil {
			return err
		}
		hasSubtitles, err = assemble.WriteSubtitles(results, timings, outputs.SRT)
		return err
	})
	if err != nil {
		return fail(err)
	}

	// Phase 4: mux the streams into the final deliverable.
	err = p.phase(ctx, "mux", func() error {
		return asm.Mux(ctx, videoPath, combinedAudio, outputs.SRT, outputs.Video, hasSubtitles, placeholder)
	})
	if err != nil {
		return fail(err)
	}

	// Phase 5: GIF preview.
	if !opts.SkipGIF {
		outputs.GIF = filepath.Join(opts.OutputDir, outputName+".gif")
		err = p.phase(ctx, "gif preview", func() error {
			return p.ffmpeg.GeneratePreview(ctx, outputs.Video, outputs.GIF, media.DefaultGIFOptions())
		})
		if err != nil {
			return fail(err)
		}
	}

	// Temp cleanup happens through the deferred remove above.

	if opts.Publish && p.artifacts != nil {
		if err := p.publish(ctx, run, outputs); err != nil {
			return fail(err)
		}
	}

	p.completeRun(ctx, run, outputs)

	p.logger.Info(ctx, "recording complete", map[string]interface{}{
		"video": outputs.Video,
		"srt":   outputs.SRT,
		"gif":   outputs.GIF,
	})
	return outputs, nil
}

// phase runs fn and logs its elapsed time win or lose.
func (p *Pipeline) phase(ctx context.Context, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	fields := map[string]interface{}{
		"phase":      name,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		fields["error"] = err.Error()
		p.logger.Error(ctx, "phase failed", fields)
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Info(ctx, "phase finished", fields)
	return nil
}

func (p *Pipeline) startRun(ctx context.Context, demo *script.DemoScript, scriptPath string) (*history.Run, error) {
	if p.history == nil {
		return nil, nil
	}

	run := &history.Run{
		Title:         demo.Metadata.Title,
		ScriptPath:    scriptPath,
		Status:        history.StatusCreated,
		StepCount:     len(demo.Steps),
		NarratedCount: demo.NarratedSteps(),
	}
	if err := p.history.Create(ctx, run); err != nil {
		return nil, err
	}
	if err := p.history.Start(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

func (p *Pipeline) completeRun(ctx context.Context, run *history.Run, outputs Outputs) {
	if p.history == nil || run == nil {
		return
	}
	err := p.history.Complete(ctx, run.ID, history.Outputs{
		Video: outputs.Video,
		GIF:   outputs.GIF,
		SRT:   outputs.SRT,
	})
	if err != nil {
		p.logger.Warn(ctx, "failed to record run completion", map[string]interface{}{
			"run_id": run.ID.String(),
			"error":  err.Error(),
		})
	}
}

func (p *Pipeline) failRun(ctx context.Context, run *history.Run, cause error) {
	if p.history == nil || run == nil {
		return
	}
	if err := p.history.Fail(ctx, run.ID, cause.Error()); err != nil {
		p.logger.Warn(ctx, "failed to record run failure", map[string]interface{}{
			"run_id": run.ID.String(),
			"error":  err.Error(),
		})
	}
}

// publish pushes the finished artifacts to the configured store under the
// run's ID (or the output name when no history store is wired).
func (p *Pipeline) publish(ctx context.Context, run *history.Run, outputs Outputs) error {
	prefix := "unindexed"
	if run != nil {
		prefix = run.ID.String()
	}

	for _, path := range []string{outputs.Video, outputs.SRT, outputs.GIF} {
		if path == "" {
			continue
		}
		key := storage.RunKey(prefix, path)
		if err := p.artifacts.Publish(ctx, key, path); err != nil {
			return fmt.Errorf("failed to publish %s: %w", filepath.Base(path), err)
		}
		p.logger.Info(ctx, "artifact published", map[string]interface{}{
			"key": key,
		})
	}
	return nil
}
