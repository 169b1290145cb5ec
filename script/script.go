package script

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSteps         = errors.New("script must contain at least one step")
	ErrInvalidAction   = errors.New("unknown action kind")
	ErrDuplicateStepID = errors.New("duplicate step id")
)

// ActionKind identifies one of the closed set of browser actions a step can
// perform. Validation is exhaustive over this set; execution dispatches with
// one handler per kind.
type ActionKind string

const (
	ActionNavigate   ActionKind = "navigate"
	ActionClick      ActionKind = "click"
	ActionType       ActionKind = "type"
	ActionPress      ActionKind = "press"
	ActionScroll     ActionKind = "scroll"
	ActionHover      ActionKind = "hover"
	ActionSelect     ActionKind = "select"
	ActionWait       ActionKind = "wait"
	ActionEvaluate   ActionKind = "evaluate"
	ActionScreenshot ActionKind = "screenshot"
)

func (a ActionKind) IsValid() bool {
	switch a {
	case ActionNavigate, ActionClick, ActionType, ActionPress, ActionScroll,
		ActionHover, ActionSelect, ActionWait, ActionEvaluate, ActionScreenshot:
		return true
	}
	return false
}

// Viewport is the browser window size for the recording.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Metadata holds script-level settings shared by every step.
type Metadata struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	BaseURL      string   `json:"base_url"`
	Viewport     Viewport `json:"viewport"`
	Voice        string   `json:"voice"`
	Rate         string   `json:"rate"`
	OutputName   string   `json:"output_name"`
	StorageState string   `json:"storage_state,omitempty"`
}

// Step is one scripted browser interaction plus its narration text. Which
// optional fields are required depends on the action kind; Validate enforces
// that once at load time so downstream components never re-check.
type Step struct {
	ID        string     `json:"id"`
	Action    ActionKind `json:"action"`
	Narration string     `json:"narration"`

	// navigate
	URL string `json:"url,omitempty"`

	// click, type, scroll, hover, select
	Selector string `json:"selector,omitempty"`

	// type, select
	Value string `json:"value,omitempty"`
	// HasValue distinguishes an absent "value" from an explicit empty string;
	// typing an empty value is legal, omitting the key is not.
	HasValue bool `json:"-"`

	// type
	TypeDelay int `json:"type_delay,omitempty"`

	// press
	Key string `json:"key,omitempty"`

	// scroll
	Direction string `json:"direction,omitempty"`
	Amount    int    `json:"amount,omitempty"`

	// wait
	Duration int `json:"duration,omitempty"`

	// evaluate
	Expression string `json:"expression,omitempty"`

	// common
	WaitAfter int `json:"wait_after"`
}

// DemoScript is the validated root entity. It is immutable once Load returns
// it and is owned by the pipeline run for its entire lifetime.
type DemoScript struct {
	Metadata Metadata `json:"metadata"`
	Steps    []Step   `json:"steps"`
}

// FieldError describes a single structural validation failure with the full
// path of the offending field.
type FieldError struct {
	Path    string
	Message string
}

// ValidationError aggregates every structural failure found in a script so a
// user can fix the whole file in one pass.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		lines = append(lines, fmt.Sprintf("  %s: %s", fe.Path, fe.Message))
	}
	return "script validation failed:\n" + strings.Join(lines, "\n")
}

// Validate checks the per-kind required fields of a single step. The returned
// errors carry paths relative to the step (e.g. "url").
func (s *Step) Validate() []FieldError {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Path: field, Message: msg})
	}

	if s.ID == "" {
		add("id", "step id is required")
	}
	if !s.Action.IsValid() {
		add("action", fmt.Sprintf("unknown action %q", string(s.Action)))
		return errs
	}

	switch s.Action {
	case ActionNavigate:
		if s.URL == "" {
			add("url", "'navigate' requires 'url'")
		}
	case ActionClick:
		if s.Selector == "" {
			add("selector", "'click' requires 'selector'")
		}
	case ActionType:
		if s.Selector == "" {
			add("selector", "'type' requires 'selector'")
		}
		if !s.HasValue {
			add("value", "'type' requires 'value'")
		}
	case ActionPress:
		if s.Key == "" {
			add("key", "'press' requires 'key'")
		}
	case ActionScroll:
		if s.Selector == "" && s.Direction == "" {
			add("selector", "'scroll' requires 'selector' or 'direction'+'amount'")
		}
	case ActionHover:
		if s.Selector == "" {
			add("selector", "'hover' requires 'selector'")
		}
	case ActionSelect:
		if s.Selector == "" {
			add("selector", "'select' requires 'selector'")
		}
		if !s.HasValue {
			add("value", "'select' requires 'value'")
		}
	case ActionWait:
		if s.Duration <= 0 {
			add("duration", "'wait' requires 'duration'")
		}
	case ActionEvaluate:
		if s.Expression == "" {
			add("expression", "'evaluate' requires 'expression'")
		}
	case ActionScreenshot:
		// Narrative marker only; no required fields.
	}

	return errs
}

// Validate checks the whole script and aggregates every failure. It returns
// nil when the script is structurally sound.
func (ds *DemoScript) Validate() error {
	var all []FieldError

	if len(ds.Steps) == 0 {
		all = append(all, FieldError{Path: "steps", Message: ErrNoSteps.Error()})
	}

	seen := make(map[string]int, len(ds.Steps))
	for i := range ds.Steps {
		step := &ds.Steps[i]
		prefix := fmt.Sprintf("steps[%d]", i)
		if step.ID != "" {
			prefix = fmt.Sprintf("steps[%d] (%s)", i, step.ID)
		}

		for _, fe := range step.Validate() {
			all = append(all, FieldError{
				Path:    prefix + "." + fe.Path,
				Message: fe.Message,
			})
		}

		if step.ID != "" {
			if prev, ok := seen[step.ID]; ok {
				all = append(all, FieldError{
					Path:    prefix + ".id",
					Message: fmt.Sprintf("%s: already used by steps[%d]", ErrDuplicateStepID.Error(), prev),
				})
			} else {
				seen[step.ID] = i
			}
		}
	}

	if len(all) > 0 {
		return &ValidationError{Errors: all}
	}
	return nil
}

// NarratedSteps returns how many steps carry non-empty narration text.
func (ds *DemoScript) NarratedSteps() int {
	n := 0
	for i := range ds.Steps {
		if strings.TrimSpace(ds.Steps[i].Narration) != "" {
			n++
		}
	}
	return n
}
