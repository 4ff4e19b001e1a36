// Command flightchat is an interactive client for the flightops MCP server.
// It plans tool calls with a generative model, executes them over MCP, and
// summarizes the results as a readable answer.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpclient "github.com/mark3labs/mcp-go/client"
	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/flightops-ai/flightops/internal/config"
	"github.com/flightops-ai/flightops/internal/executor"
	"github.com/flightops-ai/flightops/internal/oracle"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run0())
}

func run0() int {
	level := slog.LevelWarn
	if os.Getenv("FLIGHTOPS_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	// Logs go to stderr so answers on stdout stay readable.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger); err != nil {
		slog.Error("fatal error", "error", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *slog.Logger) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	oc, err := oracle.New(ctx, cfg.GeminiAPIKey, cfg.Model, logger)
	if err != nil {
		return err
	}

	c, err := mcpclient.NewStreamableHttpClient(cfg.MCPServerURL)
	if err != nil {
		return fmt.Errorf("mcp client: %w", err)
	}
	defer func() { _ = c.Close() }()

	initResult, err := c.Initialize(ctx, mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ClientInfo: mcplib.Implementation{Name: "flightchat", Version: version},
		},
	})
	if err != nil {
		return fmt.Errorf("mcp initialize: %w", err)
	}
	logger.Info("connected", "server", initResult.ServerInfo.Name, "version", initResult.ServerInfo.Version)

	exec := executor.New(&mcpInvoker{client: c}, logger)

	fmt.Printf("flightchat %s connected to %s\n", version, cfg.MCPServerURL)
	fmt.Println(`Ask about flights ("exit" to quit).`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			break
		}

		if err := answer(ctx, oc, exec, question); err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Printf("error: %v\n", err)
		}
	}
	return scanner.Err()
}

// answer runs the plan-execute-summarize flow for one question.
func answer(ctx context.Context, oc *oracle.Oracle, exec *executor.Executor, question string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	p, err := oc.PlanQuery(ctx, question)
	if err != nil {
		return err
	}
	if p.Empty() {
		fmt.Println("I couldn't map that question to any flight data lookup. Try naming a carrier, flight number, or date.")
		return nil
	}

	run, err := exec.Execute(ctx, p)
	if err != nil {
		return err
	}

	if run.NeedsRouteSelection {
		printRouteSelection(run.Matches)
		return nil
	}

	planJSON, err := json.Marshal(p)
	if err != nil {
		return err
	}
	resultsJSON, err := json.Marshal(run.Results)
	if err != nil {
		return err
	}

	summary, err := oc.Summarize(ctx, question, string(planJSON), string(resultsJSON))
	if err != nil {
		return err
	}
	fmt.Println(summary)
	return nil
}

// printRouteSelection renders the ambiguity payload so the user can re-ask
// with an explicit route.
func printRouteSelection(matches json.RawMessage) {
	var env struct {
		Data struct {
			Count   int `json:"count"`
			Matches []struct {
				StartStation       string `json:"startStation"`
				EndStation         string `json:"endStation"`
				ScheduledStartTime string `json:"scheduledStartTime"`
			} `json:"matches"`
		} `json:"data"`
	}
	if err := json.Unmarshal(matches, &env); err != nil || len(env.Data.Matches) == 0 {
		fmt.Println("That flight operates on multiple routes. Please include the departure and arrival stations.")
		return
	}

	fmt.Printf("That flight has %d legs. Which route do you mean?\n", env.Data.Count)
	for i, m := range env.Data.Matches {
		fmt.Printf("  %d. %s → %s departing %s\n", i+1, m.StartStation, m.EndStation, m.ScheduledStartTime)
	}
	fmt.Println("Ask again with the departure and arrival stations included.")
}

// mcpInvoker adapts the MCP client to the executor's Invoker interface.
type mcpInvoker struct {
	client *mcpclient.Client
}

func (m *mcpInvoker) Invoke(ctx context.Context, tool string, args map[string]any) (json.RawMessage, error) {
	result, err := m.client.CallTool(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      tool,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}

	for _, content := range result.Content {
		if text, ok := mcplib.AsTextContent(content); ok {
			return json.RawMessage(text.Text), nil
		}
	}
	return nil, fmt.Errorf("call %s: no text content in response", tool)
}
