package script

import "encoding/json"

// Template returns a starter script for `demorec init`, pretty-printed.
func Template() []byte {
	tpl := map[string]interface{}{
		"metadata": map[string]interface{}{
			"title":       "My Demo",
			"description": "A demo walkthrough",
			"base_url":    defaultBaseURL,
			"viewport":    map[string]int{"width": defaultWidth, "height": defaultHeight},
			"voice":       defaultVoice,
			"rate":        defaultRate,
			"output_name": defaultOutput,
		},
		"steps": []map[string]interface{}{
			{
				"id":         "step_01",
				"action":     "navigate",
				"url":        "/",
				"narration":  "Welcome to the demo. Let's start from the home page.",
				"wait_after": 2000,
			},
			{
				"id":         "step_02",
				"action":     "click",
				"selector":   "button.get-started",
				"narration":  "Click Get Started to begin.",
				"wait_after": 1000,
			},
			{
				"id":         "step_03",
				"action":     "type",
				"selector":   "#name",
				"value":      "Demo User",
				"narration":  "Enter your name in the field.",
				"type_delay": 50,
				"wait_after": 500,
			},
		},
	}

	out, _ := json.MarshalIndent(tpl, "", "  ")
	return append(out, '\n')
}
