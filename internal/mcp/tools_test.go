package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/flightops-ai/flightops/internal/ops"
	"github.com/flightops-ai/flightops/internal/resolve"
)

type fakeStore struct {
	pingErr  error
	doc      bson.M
	docErr   error
	findDocs []bson.M
	aggDocs  []bson.M
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) DocumentByID(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	return f.doc, f.docErr
}

func (f *fakeStore) Find(ctx context.Context, filter, projection bson.M, sort bson.D, limit int64) ([]bson.M, error) {
	return f.findDocs, nil
}

func (f *fakeStore) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	return f.aggDocs, nil
}

type fakeResolver struct {
	outcome resolve.Outcome
	err     error
}

func (f *fakeResolver) Lookup(ctx context.Context, filter, projection bson.M) (resolve.Outcome, error) {
	return f.outcome, f.err
}

// envelope mirrors the wire shape of tool responses for assertions.
type envelope struct {
	OK    bool           `json:"ok"`
	Data  map[string]any `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func newTestServer(st *fakeStore, res *fakeResolver) *Server {
	if st == nil {
		st = &fakeStore{}
	}
	if res == nil {
		res = &fakeResolver{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(ops.New(st, res, logger), logger)
}

func callRequest(name string, args map[string]any) mcplib.CallToolRequest {
	return mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	}
}

func decodeEnvelope(t *testing.T, result *mcplib.CallToolResult) envelope {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcplib.AsTextContent(result.Content[0])
	require.True(t, ok)

	var env envelope
	require.NoError(t, json.Unmarshal([]byte(text.Text), &env))
	return env
}

func TestHandleHealthCheck(t *testing.T) {
	s := newTestServer(nil, nil)

	result, err := s.handleHealthCheck(context.Background(), callRequest("health_check", nil))
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	assert.True(t, env.OK)
	assert.Equal(t, "ok", env.Data["status"])
	assert.Equal(t, true, env.Data["db_connected"])
}

func TestHandleHealthCheckDBDown(t *testing.T) {
	s := newTestServer(&fakeStore{pingErr: assert.AnError}, nil)

	result, err := s.handleHealthCheck(context.Background(), callRequest("health_check", nil))
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	require.False(t, env.OK)
	assert.Equal(t, 503, env.Error.Code)
	assert.Equal(t, "DB unreachable", env.Error.Message)
}

func TestHandleFlightByID(t *testing.T) {
	doc := bson.M{"flightLegState": bson.M{"carrier": "6E"}}
	s := newTestServer(&fakeStore{doc: doc}, nil)

	result, err := s.handleFlightByID(context.Background(), callRequest("get_flight_by_id", map[string]any{
		"doc_id": "665abc",
	}))
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	require.True(t, env.OK)
	assert.Equal(t, "6E", env.Data["flightLegState"].(map[string]any)["carrier"])
}

func TestHandleFlightByIDRequiresID(t *testing.T) {
	s := newTestServer(nil, nil)

	result, err := s.handleFlightByID(context.Background(), callRequest("get_flight_by_id", nil))
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	require.False(t, env.OK)
	assert.Equal(t, 400, env.Error.Code)
}

func TestHandleCasualQuery(t *testing.T) {
	s := newTestServer(nil, nil)

	result, err := s.handleCasualQuery(context.Background(), callRequest("casual_query", map[string]any{
		"answer": "Hello! How can I help with flight operations today?",
	}))
	require.NoError(t, err)

	require.Len(t, result.Content, 1)
	text, ok := mcplib.AsTextContent(result.Content[0])
	require.True(t, ok)
	assert.Contains(t, text.Text, "How can I help")
}

func TestHandleRawQuery(t *testing.T) {
	st := &fakeStore{findDocs: []bson.M{{"flightLegState": bson.M{"carrier": "6E"}}}}
	s := newTestServer(st, nil)

	result, err := s.handleRawQuery(context.Background(), callRequest("raw_mongodb_query", map[string]any{
		"query_json": `{"flightLegState.carrier": "6E"}`,
	}))
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	require.True(t, env.OK)
	assert.Equal(t, float64(1), env.Data["count"])
}

func TestHandleRawQueryRejectsOperators(t *testing.T) {
	s := newTestServer(nil, nil)

	result, err := s.handleRawQuery(context.Background(), callRequest("raw_mongodb_query", map[string]any{
		"query_json": `{"$where": "this.x == 1"}`,
	}))
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	require.False(t, env.OK)
	assert.Equal(t, 400, env.Error.Code)
}

func TestHandleTotalDelayNumberAsJSON(t *testing.T) {
	// Planner clients send flight_number as a JSON number; the handler must
	// accept it alongside the documented string form.
	st := &fakeStore{findDocs: []bson.M{
		{"flightLegState": bson.M{
			"dateOfOrigin": "2024-06-23",
			"startStation": "DEL",
			"endStation":   "BOM",
			"delays":       bson.M{"total": "PT1H0M"},
		}},
	}}
	s := newTestServer(st, nil)

	result, err := s.handleTotalDelay(context.Background(), callRequest("get_total_delay_aggregated", map[string]any{
		"carrier":        "6E",
		"flight_number":  float64(215),
		"date_of_origin": "2024-06-23",
	}))
	require.NoError(t, err)

	env := decodeEnvelope(t, result)
	require.True(t, env.OK)
	assert.Equal(t, float64(60), env.Data["totalDelayMinutes"])
	assert.Equal(t, "1 hour", env.Data["totalDelayReadable"])
}

func TestLookupArgs(t *testing.T) {
	request := callRequest("get_flight_basic_info", map[string]any{
		"carrier":        "6E",
		"flight_number":  "215",
		"date_of_origin": "2024-06-23",
		"startStation":   "DEL",
		"endStation":     "BOM",
	})

	args := lookupArgs(request)
	assert.Equal(t, "6E", args.Carrier)
	assert.Equal(t, "215", args.FlightNumber)
	assert.Equal(t, "2024-06-23", args.DateOfOrigin)
	assert.Equal(t, "DEL", args.StartStation)
	assert.Equal(t, "BOM", args.EndStation)
}

func TestEnvelopeResultAmbiguity(t *testing.T) {
	env := ops.OK(ops.RouteSelection{
		NeedsRouteSelection: true,
		Count:               2,
		Matches: []resolve.Candidate{
			{DocID: "a", StartStation: "DEL", EndStation: "BOM"},
			{DocID: "b", StartStation: "DEL", EndStation: "MAA"},
		},
		OriginalQuery: bson.M{"flightLegState.carrier": "6E"},
	})

	decoded := decodeEnvelope(t, envelopeResult(env))
	require.True(t, decoded.OK)
	assert.Equal(t, true, decoded.Data["needs_route_selection"])
	assert.Equal(t, float64(2), decoded.Data["count"])
}
