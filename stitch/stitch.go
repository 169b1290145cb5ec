package stitch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/media"
)

// SegmentKind says where a planned segment's bytes come from.
type SegmentKind int

const (
	// SegmentClip is a standalone clip file (transition, intro, outro, or a
	// simple-mode clip) that gets normalized whole.
	SegmentClip SegmentKind = iota
	// SegmentSource is a trimmed range of the source video.
	SegmentSource
	// SegmentClipRange is a trimmed range of a standalone clip. Unlike a
	// source range it still needs the full letterbox normalization, so it is
	// cut out first and then normalized like any other clip.
	SegmentClipRange
)

// Segment is one entry of a stitch plan, in final playback order.
type Segment struct {
	Kind  SegmentKind
	Path  string
	Start time.Duration
	// End is nil for "through to the end of the file".
	End   *time.Duration
	Label string
}

// Stitcher trims, normalizes and concatenates video segments.
type Stitcher struct {
	ffmpeg *media.FFmpeg
	spec   media.EncodingSpec
	logger logger.Logger
}

// New creates a Stitcher using the default uniform encoding.
func New(ffmpeg *media.FFmpeg, log logger.Logger) *Stitcher {
	return &Stitcher{ffmpeg: ffmpeg, spec: media.DefaultEncoding(), logger: log}
}

// ClipPlan lays out a simple concatenation: every clip in config order,
// trimmed where a range is given. Clip paths are resolved against baseDir
// and must exist; a missing file fails the whole plan before any subprocess
// runs.
func ClipPlan(cfg *Config, baseDir string) ([]Segment, error) {
	plan := make([]Segment, 0, len(cfg.Clips))
	for i, c := range cfg.Clips {
		path := resolvePath(baseDir, c.Source)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: clips[%d] %s", ErrClipNotFound, i, path)
		}
		kind := SegmentClip
		if c.StartAt > 0 || c.EndAt != nil {
			kind = SegmentClipRange
		}
		plan = append(plan, Segment{
			Kind:  kind,
			Path:  path,
			Start: c.StartAt,
			End:   c.EndAt,
			Label: c.DefaultLabel(),
		})
	}
	return plan, nil
}

// TransitionPlan reconstructs the timeline: optional intro, then for each
// trim range in order the source up to trim_start followed by the transition
// clip, then the trailing source segment, then an optional outro. The cursor
// starts at cfg.StartAt and jumps to trim_end after every transition, so the
// [trim_start, trim_end) content is what each transition replaces.
func TransitionPlan(cfg *Config, baseDir, sourcePath string, sourceDuration time.Duration) ([]Segment, error) {
	var plan []Segment

	if cfg.Intro != "" {
		path := resolvePath(baseDir, cfg.Intro)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: intro %s", ErrClipNotFound, path)
		}
		plan = append(plan, Segment{Kind: SegmentClip, Path: path, Label: "intro"})
	}

	cursor := cfg.StartAt
	for i, trans := range cfg.Transitions {
		if trans.TrimStart > cursor {
			start := trans.TrimStart
			plan = append(plan, Segment{
				Kind:  SegmentSource,
				Path:  sourcePath,
				Start: cursor,
				End:   &start,
				Label: fmt.Sprintf("segment %d", i+1),
			})
		}

		path := resolvePath(baseDir, trans.Clip)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: transitions[%d] %s", ErrClipNotFound, i, path)
		}
		plan = append(plan, Segment{
			Kind:  SegmentClip,
			Path:  path,
			Label: fmt.Sprintf("transition %d", i+1),
		})

		cursor = trans.TrimEnd
	}

	if cursor < sourceDuration {
		plan = append(plan, Segment{
			Kind:  SegmentSource,
			Path:  sourcePath,
			Start: cursor,
			Label: "final segment",
		})
	}

	if cfg.Outro != "" {
		path := resolvePath(baseDir, cfg.Outro)
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%w: outro %s", ErrClipNotFound, path)
		}
		plan = append(plan, Segment{Kind: SegmentClip, Path: path, Label: "outro"})
	}

	return plan, nil
}

// StitchClips concatenates the config's clips in order into outputPath.
func (s *Stitcher) StitchClips(ctx context.Context, cfg *Config, baseDir, outputPath string) error {
	plan, err := ClipPlan(cfg, baseDir)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "stitching clips", map[string]interface{}{
		"clips":  len(plan),
		"output": outputPath,
	})
	return s.execute(ctx, plan, outputPath)
}

// StitchTransitions splices the config's transition clips into sourcePath,
// writing the reassembled video to outputPath.
func (s *Stitcher) StitchTransitions(ctx context.Context, cfg *Config, baseDir, sourcePath, outputPath string) error {
	sourceDuration, err := s.ffmpeg.ProbeDuration(ctx, sourcePath)
	if err != nil {
		return err
	}

	plan, err := TransitionPlan(cfg, baseDir, sourcePath, sourceDuration)
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "splicing transitions", map[string]interface{}{
		"source":      sourcePath,
		"duration":    sourceDuration.String(),
		"transitions": len(cfg.Transitions),
		"segments":    len(plan),
		"output":      outputPath,
	})
	return s.execute(ctx, plan, outputPath)
}

// execute renders each planned segment into a normalized temp file and
// concatenates the lot. The temp dir is removed no matter how far we got.
func (s *Stitcher) execute(ctx context.Context, plan []Segment, outputPath string) error {
	tmpDir, err := os.MkdirTemp("", "stitch_")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	rendered := make([]string, 0, len(plan))
	for i, seg := range plan {
		out := filepath.Join(tmpDir, fmt.Sprintf("seg_%02d.mp4", i))

		switch seg.Kind {
		case SegmentSource:
			err = s.ffmpeg.Extract(ctx, seg.Path, seg.Start, seg.End, out, s.spec)
		case SegmentClipRange:
			// Cut first, then letterbox the cut so the clip ends up on the
			// same resolution and stream layout as every other segment.
			cut := filepath.Join(tmpDir, fmt.Sprintf("seg_%02d_cut.mp4", i))
			if err = s.ffmpeg.Extract(ctx, seg.Path, seg.Start, seg.End, cut, s.spec); err == nil {
				err = s.ffmpeg.Normalize(ctx, cut, out, s.spec)
			}
		default:
			err = s.ffmpeg.Normalize(ctx, seg.Path, out, s.spec)
		}
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", seg.Label, err)
		}

		dur, err := s.ffmpeg.ProbeDuration(ctx, out)
		if err != nil {
			return err
		}
		s.logger.Info(ctx, "segment ready", map[string]interface{}{
			"label":    seg.Label,
			"duration": dur.String(),
		})
		rendered = append(rendered, out)
	}

	listPath := filepath.Join(tmpDir, "concat.txt")
	return s.ffmpeg.Concat(ctx, rendered, listPath, outputPath, s.spec)
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
