// Package plan defines the tool plan produced by the planning model and its
// tolerant parser. Model output is untrusted text; anything that does not
// parse into the expected shape degrades to an empty plan rather than an
// error, so one bad generation never aborts a conversation.
package plan

import (
	"encoding/json"
	"strings"
)

// Step is one tool invocation in a plan.
type Step struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Plan is an ordered list of tool invocations.
type Plan struct {
	Steps []Step `json:"plan"`
}

// Empty reports whether the plan has no steps.
func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Parse extracts a Plan from raw model output. Markdown code fences are
// stripped first; some models wrap JSON in them despite instructions.
func Parse(raw string) Plan {
	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		return Plan{}
	}

	var p Plan
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Plan{}
	}
	return p
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.Trim(s, "`")
	if strings.HasPrefix(strings.ToLower(s), "json") {
		s = strings.TrimSpace(s[4:])
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "```", ""))
}
