// Package stitch assembles a final video from an ordered list of clips, or
// splices transition clips into an existing recording by cutting out and
// replacing sub-ranges of it.
package stitch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var (
	ErrNotJSON        = errors.New("stitch config must be a .json file")
	ErrNoMode         = errors.New("config must have a 'clips' or 'transitions' array")
	ErrBothModes      = errors.New("config cannot have both 'clips' and 'transitions'")
	ErrNoClips        = errors.New("'clips' array is empty")
	ErrNoTransitions  = errors.New("'transitions' array is empty")
	ErrClipNotFound   = errors.New("clip file not found")
	ErrInvalidRange   = errors.New("trim_end must be greater than trim_start")
	ErrOverlap        = errors.New("transition ranges overlap")
	ErrNegativeOffset = errors.New("offsets must not be negative")
)

// ClipRef names one clip in a simple concatenation config, optionally trimmed
// to [StartAt, EndAt). A nil EndAt means play through to the clip's end.
type ClipRef struct {
	Source  string
	StartAt time.Duration
	EndAt   *time.Duration
	Label   string
}

// Transition replaces the [TrimStart, TrimEnd) range of the source video
// with the named clip.
type Transition struct {
	Clip      string
	TrimStart time.Duration
	TrimEnd   time.Duration
}

// Config is a stitch plan loaded from JSON. Exactly one of Clips or
// Transitions is populated.
type Config struct {
	Clips       []ClipRef
	Transitions []Transition
	Intro       string
	Outro       string
	StartAt     time.Duration
	OutputName  string
}

type clipRefAlias struct {
	Source  string   `json:"source"`
	StartAt *float64 `json:"start_at"`
	EndAt   *float64 `json:"end_at"`
	Label   string   `json:"label"`
}

// UnmarshalJSON accepts either a bare path string or an object with an
// optional trim range.
func (c *ClipRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var path string
		if err := json.Unmarshal(data, &path); err != nil {
			return err
		}
		*c = ClipRef{Source: path}
		return nil
	}

	var alias clipRefAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	c.Source = alias.Source
	c.Label = alias.Label
	if alias.StartAt != nil {
		c.StartAt = secondsToDuration(*alias.StartAt)
	}
	if alias.EndAt != nil {
		end := secondsToDuration(*alias.EndAt)
		c.EndAt = &end
	}
	return nil
}

type transitionAlias struct {
	Clip      string   `json:"clip"`
	TrimStart *float64 `json:"trim_start"`
	TrimEnd   *float64 `json:"trim_end"`
}

type configAlias struct {
	Clips       []ClipRef         `json:"clips"`
	Transitions []transitionAlias `json:"transitions"`
	Intro       string            `json:"intro"`
	Outro       string            `json:"outro"`
	StartAt     *float64          `json:"start_at"`
	OutputName  string            `json:"output_name"`
}

// Parse decodes and validates a stitch config. Any failure here means no
// subprocess has been started yet.
func Parse(data []byte) (*Config, error) {
	var alias configAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, fmt.Errorf("failed to parse stitch config: %w", err)
	}

	if alias.Clips == nil && alias.Transitions == nil {
		return nil, ErrNoMode
	}
	if alias.Clips != nil && alias.Transitions != nil {
		return nil, ErrBothModes
	}

	cfg := &Config{
		Clips:      alias.Clips,
		Intro:      alias.Intro,
		Outro:      alias.Outro,
		OutputName: alias.OutputName,
	}
	if alias.StartAt != nil {
		if *alias.StartAt < 0 {
			return nil, fmt.Errorf("%w: start_at", ErrNegativeOffset)
		}
		cfg.StartAt = secondsToDuration(*alias.StartAt)
	}

	for i, t := range alias.Transitions {
		if t.Clip == "" {
			return nil, fmt.Errorf("transitions[%d]: missing 'clip'", i)
		}
		if t.TrimStart == nil || t.TrimEnd == nil {
			return nil, fmt.Errorf("transitions[%d]: missing 'trim_start' or 'trim_end'", i)
		}
		if *t.TrimStart < 0 {
			return nil, fmt.Errorf("%w: transitions[%d].trim_start", ErrNegativeOffset, i)
		}
		if *t.TrimEnd <= *t.TrimStart {
			return nil, fmt.Errorf("%w: transitions[%d] (%.1fs, %.1fs)", ErrInvalidRange, i, *t.TrimStart, *t.TrimEnd)
		}
		cfg.Transitions = append(cfg.Transitions, Transition{
			Clip:      t.Clip,
			TrimStart: secondsToDuration(*t.TrimStart),
			TrimEnd:   secondsToDuration(*t.TrimEnd),
		})
	}

	if cfg.Clips != nil {
		if err := validateClips(cfg.Clips); err != nil {
			return nil, err
		}
	} else {
		if err := validateTransitions(cfg.Transitions); err != nil {
			return nil, err
		}
		sort.SliceStable(cfg.Transitions, func(a, b int) bool {
			return cfg.Transitions[a].TrimStart < cfg.Transitions[b].TrimStart
		})
		if err := rejectOverlaps(cfg.Transitions); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Load reads a stitch config from disk.
func Load(path string) (*Config, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, fmt.Errorf("%w: %s", ErrNotJSON, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stitch config: %w", err)
	}
	return Parse(data)
}

func validateClips(clips []ClipRef) error {
	if len(clips) == 0 {
		return ErrNoClips
	}
	for i, c := range clips {
		if c.Source == "" {
			return fmt.Errorf("clips[%d]: missing 'source'", i)
		}
		if c.StartAt < 0 {
			return fmt.Errorf("%w: clips[%d].start_at", ErrNegativeOffset, i)
		}
		if c.EndAt != nil && *c.EndAt <= c.StartAt {
			return fmt.Errorf("clips[%d]: end_at must be greater than start_at", i)
		}
	}
	return nil
}

func validateTransitions(transitions []Transition) error {
	if len(transitions) == 0 {
		return ErrNoTransitions
	}
	return nil
}

// rejectOverlaps requires the already-sorted ranges to be disjoint. Ranges
// are half-open, so one starting exactly at the previous end is fine.
func rejectOverlaps(sorted []Transition) error {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].TrimStart < sorted[i-1].TrimEnd {
			return fmt.Errorf("%w: [%.1fs, %.1fs) and [%.1fs, %.1fs)",
				ErrOverlap,
				sorted[i-1].TrimStart.Seconds(), sorted[i-1].TrimEnd.Seconds(),
				sorted[i].TrimStart.Seconds(), sorted[i].TrimEnd.Seconds())
		}
	}
	return nil
}

// DefaultLabel returns the clip's label, falling back to the source file's
// base name without extension.
func (c ClipRef) DefaultLabel() string {
	if c.Label != "" {
		return c.Label
	}
	base := filepath.Base(c.Source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
