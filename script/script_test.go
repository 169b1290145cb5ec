package script

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validStep(kind ActionKind) Step {
	s := Step{ID: "step_01", Action: kind, WaitAfter: 500}
	switch kind {
	case ActionNavigate:
		s.URL = "/dashboard"
	case ActionClick, ActionHover:
		s.Selector = "#target"
	case ActionType:
		s.Selector = "#field"
		s.Value = "hello"
		s.HasValue = true
		s.TypeDelay = 50
	case ActionPress:
		s.Key = "Enter"
	case ActionScroll:
		s.Direction = "down"
		s.Amount = 300
	case ActionSelect:
		s.Selector = "#dropdown"
		s.Value = "option-a"
		s.HasValue = true
	case ActionWait:
		s.Duration = 1000
	case ActionEvaluate:
		s.Expression = "window.scrollTo(0, 0)"
	}
	return s
}

func allActionKinds() []ActionKind {
	return []ActionKind{
		ActionNavigate, ActionClick, ActionType, ActionPress, ActionScroll,
		ActionHover, ActionSelect, ActionWait, ActionEvaluate, ActionScreenshot,
	}
}

func TestValidateAllKindsComplete(t *testing.T) {
	var steps []Step
	for i, kind := range allActionKinds() {
		s := validStep(kind)
		s.ID = fmt.Sprintf("step_%02d", i+1)
		steps = append(steps, s)
	}

	ds := &DemoScript{
		Metadata: Metadata{Title: "t", BaseURL: "http://localhost:8080"},
		Steps:    steps,
	}
	assert.NoError(t, ds.Validate())
}

func TestValidateMissingRequiredField(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Step)
		wantField string
	}{
		{
			name:      "navigate without url",
			mutate:    func(s *Step) { s.Action = ActionNavigate; s.URL = "" },
			wantField: "url",
		},
		{
			name:      "click without selector",
			mutate:    func(s *Step) { s.Action = ActionClick; s.Selector = "" },
			wantField: "selector",
		},
		{
			name:      "type without selector",
			mutate:    func(s *Step) { s.Action = ActionType; s.Selector = ""; s.Value = "x"; s.HasValue = true },
			wantField: "selector",
		},
		{
			name:      "type without value",
			mutate:    func(s *Step) { s.Action = ActionType; s.Selector = "#f"; s.HasValue = false },
			wantField: "value",
		},
		{
			name:      "press without key",
			mutate:    func(s *Step) { s.Action = ActionPress; s.Key = "" },
			wantField: "key",
		},
		{
			name:      "scroll without selector or direction",
			mutate:    func(s *Step) { s.Action = ActionScroll; s.Selector = ""; s.Direction = "" },
			wantField: "selector",
		},
		{
			name:      "hover without selector",
			mutate:    func(s *Step) { s.Action = ActionHover; s.Selector = "" },
			wantField: "selector",
		},
		{
			name:      "select without selector",
			mutate:    func(s *Step) { s.Action = ActionSelect; s.Selector = ""; s.Value = "x"; s.HasValue = true },
			wantField: "selector",
		},
		{
			name:      "select without value",
			mutate:    func(s *Step) { s.Action = ActionSelect; s.Selector = "#d"; s.HasValue = false },
			wantField: "value",
		},
		{
			name:      "wait without duration",
			mutate:    func(s *Step) { s.Action = ActionWait; s.Duration = 0 },
			wantField: "duration",
		},
		{
			name:      "evaluate without expression",
			mutate:    func(s *Step) { s.Action = ActionEvaluate; s.Expression = "" },
			wantField: "expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Step{ID: "step_01"}
			tt.mutate(&s)

			ds := &DemoScript{Steps: []Step{s}}
			err := ds.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			found := false
			for _, fe := range verr.Errors {
				if fe.Path == "steps[0] (step_01)."+tt.wantField {
					found = true
				}
			}
			assert.True(t, found, "expected error for field %q, got %v", tt.wantField, verr.Errors)
		})
	}
}

func TestValidateAggregatesAllErrors(t *testing.T) {
	ds := &DemoScript{Steps: []Step{
		{ID: "a", Action: ActionNavigate},
		{ID: "b", Action: ActionClick},
	}}

	err := ds.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestValidateRejectsEmptyScript(t *testing.T) {
	ds := &DemoScript{}
	err := ds.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one step")
}

func TestValidateRejectsUnknownAction(t *testing.T) {
	ds := &DemoScript{Steps: []Step{{ID: "a", Action: "teleport"}}}
	err := ds.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestValidateRejectsDuplicateStepIDs(t *testing.T) {
	ds := &DemoScript{Steps: []Step{
		validStep(ActionNavigate),
		validStep(ActionWait),
	}}
	ds.Steps[1].ID = ds.Steps[0].ID

	err := ds.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step id")
}

func TestScreenshotHasNoRequiredFields(t *testing.T) {
	ds := &DemoScript{Steps: []Step{{ID: "snap", Action: ActionScreenshot}}}
	assert.NoError(t, ds.Validate())
}

func TestNarratedSteps(t *testing.T) {
	ds := &DemoScript{Steps: []Step{
		{ID: "a", Action: ActionScreenshot, Narration: "first"},
		{ID: "b", Action: ActionScreenshot, Narration: "   "},
		{ID: "c", Action: ActionScreenshot},
	}}
	assert.Equal(t, 1, ds.NarratedSteps())
}
