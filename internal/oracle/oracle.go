// Package oracle talks to the planning model: it turns user questions into
// tool plans and tool results into readable answers. The model only ever
// sees tool names and schema paths; it never touches the store directly.
package oracle

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/flightops-ai/flightops/internal/plan"
)

// Oracle wraps the generative model used for planning and summarization.
type Oracle struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// New creates an Oracle backed by the Gemini API.
func New(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Oracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("oracle: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle: create client: %w", err)
	}

	return &Oracle{client: client, model: model, logger: logger}, nil
}

// PlanQuery asks the model to convert a user question into a tool plan.
// Unparseable output comes back as an empty plan, never an error.
func (o *Oracle) PlanQuery(ctx context.Context, question string) (plan.Plan, error) {
	raw, err := o.generate(ctx, planningPreamble, question, 0.1)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("oracle: plan query: %w", err)
	}

	p := plan.Parse(raw)
	if p.Empty() {
		o.logger.Warn("oracle: model output did not contain a usable plan", "raw", raw)
	}
	return p, nil
}

// Summarize asks the model to compress executed plan results into a short
// answer to the original question.
func (o *Oracle) Summarize(ctx context.Context, question, planJSON, resultsJSON string) (string, error) {
	prompt := fmt.Sprintf("Question:\n%s\n\nPlan:\n%s\n\nResults:\n%s", question, planJSON, resultsJSON)
	summary, err := o.generate(ctx, summaryPreamble, prompt, 0.3)
	if err != nil {
		return "", fmt.Errorf("oracle: summarize: %w", err)
	}
	return summary, nil
}

func (o *Oracle) generate(ctx context.Context, system, user string, temperature float32) (string, error) {
	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(user),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
			Temperature:       genai.Ptr(temperature),
		})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
