package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotJSON = errors.New("script must be a .json file")

const (
	defaultBaseURL   = "http://localhost:8080"
	defaultVoice     = "en-US-AriaNeural"
	defaultRate      = "+0%"
	defaultOutput    = "demo"
	defaultWidth     = 1280
	defaultHeight    = 720
	defaultWaitAfter = 500
	defaultTypeDelay = 50
)

// stepAlias mirrors Step with pointer fields where an explicit zero must be
// distinguishable from an omitted key.
type stepAlias struct {
	ID         string     `json:"id"`
	Action     ActionKind `json:"action"`
	Narration  string     `json:"narration"`
	URL        string     `json:"url"`
	Selector   string     `json:"selector"`
	Value      *string    `json:"value"`
	TypeDelay  *int       `json:"type_delay"`
	Key        string     `json:"key"`
	Direction  string     `json:"direction"`
	Amount     int        `json:"amount"`
	Duration   int        `json:"duration"`
	Expression string     `json:"expression"`
	WaitAfter  *int       `json:"wait_after"`
}

// UnmarshalJSON decodes a step and applies per-field defaults. An explicit
// "wait_after": 0 keeps the zero; an omitted key gets the 500ms default.
func (s *Step) UnmarshalJSON(data []byte) error {
	var alias stepAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	s.ID = alias.ID
	s.Action = alias.Action
	s.Narration = alias.Narration
	s.URL = alias.URL
	s.Selector = alias.Selector
	s.Key = alias.Key
	s.Direction = alias.Direction
	s.Amount = alias.Amount
	s.Duration = alias.Duration
	s.Expression = alias.Expression

	if alias.Value != nil {
		s.Value = *alias.Value
		s.HasValue = true
	}

	s.TypeDelay = defaultTypeDelay
	if alias.TypeDelay != nil {
		s.TypeDelay = *alias.TypeDelay
	}

	s.WaitAfter = defaultWaitAfter
	if alias.WaitAfter != nil {
		s.WaitAfter = *alias.WaitAfter
	}

	return nil
}

func applyMetadataDefaults(m *Metadata) {
	if m.Title == "" {
		m.Title = "Demo Recording"
	}
	if m.BaseURL == "" {
		m.BaseURL = defaultBaseURL
	}
	if m.Viewport.Width <= 0 {
		m.Viewport.Width = defaultWidth
	}
	if m.Viewport.Height <= 0 {
		m.Viewport.Height = defaultHeight
	}
	if m.Voice == "" {
		m.Voice = defaultVoice
	}
	if m.Rate == "" {
		m.Rate = defaultRate
	}
	if m.OutputName == "" {
		m.OutputName = defaultOutput
	}
}

// Parse decodes and validates a demo script from raw JSON bytes.
func Parse(data []byte) (*DemoScript, error) {
	var ds DemoScript
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	applyMetadataDefaults(&ds.Metadata)

	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Load reads a demo script from a JSON file. The first structural problem with
// the file aborts the load; no partial script is ever returned.
func Load(path string) (*DemoScript, error) {
	if ext := filepath.Ext(path); ext != ".json" {
		return nil, fmt.Errorf("%w: got %q", ErrNotJSON, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return ds, nil
}
