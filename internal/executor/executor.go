// Package executor runs tool plans step by step against an MCP server and
// watches each response for the route-selection signal. When a step reports
// that several routes matched, the remaining steps are skipped and the
// partial results are handed back so the user can pick a route first.
package executor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/flightops-ai/flightops/internal/plan"
)

// Invoker calls one named tool and returns the raw JSON payload of its
// response.
type Invoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error)
}

// StepResult pairs a tool name with its raw response.
type StepResult struct {
	Tool   string          `json:"tool"`
	Output json.RawMessage `json:"output"`
}

// Run is the outcome of executing a plan.
type Run struct {
	Results             []StepResult
	NeedsRouteSelection bool
	Matches             json.RawMessage // the short-circuiting step's output
}

// Executor executes plans sequentially.
type Executor struct {
	invoker Invoker
	logger  *slog.Logger
}

// New creates an Executor.
func New(invoker Invoker, logger *slog.Logger) *Executor {
	return &Executor{invoker: invoker, logger: logger}
}

const defaultRawLimit = 50

// Execute runs every step of the plan in order. A step whose response asks
// for route selection stops execution; a step-level invocation error is
// recorded and execution continues.
func (e *Executor) Execute(ctx context.Context, p plan.Plan) (Run, error) {
	var run Run

	for _, step := range p.Steps {
		args := sanitizeArgs(step.Arguments)

		if step.Tool == "raw_mongodb_query" {
			if str(args["query_json"]) == "" {
				run.Results = append(run.Results, errorStep(step.Tool, "empty query_json"))
				continue
			}
			if _, ok := args["limit"]; !ok {
				args["limit"] = defaultRawLimit
			}
		}

		e.logger.Info("executor: invoking tool", "tool", step.Tool, "args", args)

		output, err := e.invoker.Invoke(ctx, step.Tool, args)
		if err != nil {
			e.logger.Error("executor: tool failed", "tool", step.Tool, "error", err)
			run.Results = append(run.Results, errorStep(step.Tool, err.Error()))
			continue
		}

		run.Results = append(run.Results, StepResult{Tool: step.Tool, Output: output})

		if needsRouteSelection(output) {
			e.logger.Info("executor: route selection required, stopping plan", "tool", step.Tool)
			run.NeedsRouteSelection = true
			run.Matches = output
			return run, nil
		}
	}

	return run, nil
}

// sanitizeArgs drops arguments the planner could not fill: nils, empty
// strings, and literal "unknown" placeholders.
func sanitizeArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			trimmed := strings.TrimSpace(s)
			if trimmed == "" || strings.EqualFold(trimmed, "unknown") {
				continue
			}
		}
		out[k] = v
	}
	return out
}

// needsRouteSelection reports whether a tool response is a successful
// envelope whose data asks the caller to pick a route.
func needsRouteSelection(output json.RawMessage) bool {
	var env struct {
		OK   bool `json:"ok"`
		Data struct {
			NeedsRouteSelection bool `json:"needs_route_selection"`
		} `json:"data"`
	}
	if err := json.Unmarshal(output, &env); err != nil {
		return false
	}
	return env.OK && env.Data.NeedsRouteSelection
}

func errorStep(tool, message string) StepResult {
	output, _ := json.Marshal(map[string]any{"error": message})
	return StepResult{Tool: tool, Output: output}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
