package mcp

import (
	"context"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/flightops-ai/flightops/internal/ops"
)

// flightLookupOptions are the identity arguments shared by every per-flight
// summary tool.
func flightLookupOptions() []mcplib.ToolOption {
	return []mcplib.ToolOption{
		mcplib.WithReadOnlyHintAnnotation(true),
		mcplib.WithIdempotentHintAnnotation(true),
		mcplib.WithOpenWorldHintAnnotation(false),
		mcplib.WithString("carrier",
			mcplib.Description("Airline carrier code (e.g. \"6E\", \"AI\")"),
		),
		mcplib.WithString("flight_number",
			mcplib.Description("Flight number, digits only (e.g. \"215\")"),
		),
		mcplib.WithString("date_of_origin",
			mcplib.Description("Date in YYYY-MM-DD format (e.g. \"2024-06-23\"); other common formats are accepted"),
		),
		mcplib.WithString("startStation",
			mcplib.Description("Optional departure station code (e.g. \"DEL\") to narrow down the route"),
		),
		mcplib.WithString("endStation",
			mcplib.Description("Optional arrival station code (e.g. \"BOM\") to narrow down the route"),
		),
	}
}

func (s *Server) registerTools() {
	// Per-flight summary tools. All share the lookup arguments and the
	// route-selection protocol: when several distinct legs match, the
	// response data carries needs_route_selection=true with candidates.
	summaries := []struct {
		name        string
		description string
		handler     func(context.Context, ops.LookupArgs) ops.Envelope
	}{
		{
			"get_flight_basic_info",
			"Fetch basic flight information including carrier, flight number, date, stations, times, and status.",
			s.svc.FlightBasicInfo,
		},
		{
			"get_operation_times",
			"Get scheduled, estimated, and actual operation times plus taxi and block durations for a flight.",
			s.svc.OperationTimes,
		},
		{
			"get_equipment_info",
			"Get aircraft assignment details: type, registration, configuration, tail lock, and onward flight.",
			s.svc.EquipmentInfo,
		},
		{
			"get_delay_summary",
			"Summarize delay reasons, durations, and total delay time for a specific flight.",
			s.svc.DelaySummary,
		},
		{
			"get_fuel_summary",
			"Retrieve fuel summary including planned vs actual fuel for takeoff, landing, and total consumption.",
			s.svc.FuelSummary,
		},
		{
			"get_passenger_info",
			"Get passenger count and connection information for the flight. pax is an object and passengerCount is an array.",
			s.svc.PassengerInfo,
		},
		{
			"get_crew_info",
			"Get crew connections and details for the flight.",
			s.svc.CrewInfo,
		},
	}
	for _, tool := range summaries {
		handler := tool.handler
		opts := append([]mcplib.ToolOption{mcplib.WithDescription(tool.description)}, flightLookupOptions()...)
		s.mcpServer.AddTool(
			mcplib.NewTool(tool.name, opts...),
			func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
				return envelopeResult(handler(ctx, lookupArgs(request))), nil
			},
		)
	}

	// get_flight_by_id: direct fetch, used after route selection.
	s.mcpServer.AddTool(
		mcplib.NewTool("get_flight_by_id",
			mcplib.WithDescription(`Fetch a single flight document by its document handle.

Use this after a lookup returned needs_route_selection=true and the user
picked a route: pass the chosen candidate's doc_id.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("doc_id",
				mcplib.Description("Document handle from a previous lookup"),
				mcplib.Required(),
			),
			mcplib.WithString("projection",
				mcplib.Description(`Optional projection as stringified JSON (e.g. '{"flightLegState.carrier": 1, "_id": 0}')`),
			),
		),
		s.handleFlightByID,
	)

	// health_check: cheap store ping for orchestrators.
	s.mcpServer.AddTool(
		mcplib.NewTool("health_check",
			mcplib.WithDescription("Simple health check for orchestrators and clients. Attempts a cheap DB ping."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
		),
		s.handleHealthCheck,
	)

	// casual_query: envelope wrapper for conversational turns.
	s.mcpServer.AddTool(
		mcplib.NewTool("casual_query",
			mcplib.WithDescription("The user asked a general question unrelated to flight data. Answer it yourself and pass the answer here."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("answer",
				mcplib.Description("Your answer to the user's question"),
			),
		),
		s.handleCasualQuery,
	)

	// raw_mongodb_query: validated escape hatch for arbitrary filters.
	s.mcpServer.AddTool(
		mcplib.NewTool("raw_mongodb_query",
			mcplib.WithDescription(`Execute a raw read-only query (stringified JSON) with optional projection.

Only read-only operators are accepted; server-side code execution and write
stages are rejected. Include a projection to keep payloads small.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("query_json",
				mcplib.Description("The filter as stringified JSON"),
				mcplib.Required(),
			),
			mcplib.WithString("projection",
				mcplib.Description("Optional projection (stringified JSON) selecting fields"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Max documents to return (default 10, capped at 50)"),
				mcplib.Min(1),
				mcplib.Max(50),
				mcplib.DefaultNumber(10),
			),
		),
		s.handleRawQuery,
	)

	// run_aggregated_query: single-statistic aggregations.
	s.mcpServer.AddTool(
		mcplib.NewTool("run_aggregated_query",
			mcplib.WithDescription(`Run statistical or comparative aggregation queries.

Cannot aggregate the delay total field numerically; use
get_total_delay_aggregated for delay arithmetic.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("query_type",
				mcplib.Description(`One of "average", "sum", "min", "max", "count" (aliases avg, mean, total, cnt, minimum, maximum accepted)`),
				mcplib.Required(),
			),
			mcplib.WithString("carrier",
				mcplib.Description("Optional carrier filter"),
			),
			mcplib.WithString("field",
				mcplib.Description(`Field to aggregate, e.g. "flightLegState.pax.passengerCount.count"`),
			),
			mcplib.WithString("start_date",
				mcplib.Description("Optional start date (YYYY-MM-DD)"),
			),
			mcplib.WithString("end_date",
				mcplib.Description("Optional end date (YYYY-MM-DD)"),
			),
			mcplib.WithString("filter_json",
				mcplib.Description("Optional filter query (stringified JSON)"),
			),
		),
		s.handleAggregatedQuery,
	)

	// get_total_delay_aggregated: delay arithmetic over legs.
	s.mcpServer.AddTool(
		mcplib.NewTool("get_total_delay_aggregated",
			mcplib.WithDescription(`Calculate total delay across all flight legs for a given flight.

Supports a single date or a date range. Parses stored duration strings and
returns total minutes, a readable form, and a per-leg breakdown.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("carrier",
				mcplib.Description("Airline carrier code (e.g. \"6E\")"),
			),
			mcplib.WithString("flight_number",
				mcplib.Description("Flight number, digits only (e.g. \"215\")"),
			),
			mcplib.WithString("date_of_origin",
				mcplib.Description("Single date in YYYY-MM-DD format"),
			),
			mcplib.WithString("start_date",
				mcplib.Description("Start date for range query (YYYY-MM-DD)"),
			),
			mcplib.WithString("end_date",
				mcplib.Description("End date for range query (YYYY-MM-DD)"),
			),
			mcplib.WithString("startStation",
				mcplib.Description("Optional filter by departure station"),
			),
			mcplib.WithString("endStation",
				mcplib.Description("Optional filter by arrival station"),
			),
		),
		s.handleTotalDelay,
	)

	// list_delayed_flights: delayed legs in a departure window.
	s.mcpServer.AddTool(
		mcplib.NewTool("list_delayed_flights",
			mcplib.WithDescription("List all flights with a non-zero delay within a scheduled departure time range."),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithString("start_time",
				mcplib.Description(`Start time in ISO format (e.g. "2025-01-28T10:00:00Z")`),
			),
			mcplib.WithString("end_time",
				mcplib.Description(`End time in ISO format (e.g. "2025-01-29T10:00:00Z")`),
			),
			mcplib.WithString("carrier",
				mcplib.Description("Optional carrier filter"),
			),
			mcplib.WithNumber("limit",
				mcplib.Description("Max results (default 50)"),
				mcplib.Min(1),
				mcplib.Max(50),
				mcplib.DefaultNumber(50),
			),
		),
		s.handleDelayedFlights,
	)

	// get_aircraft_rotation: an aircraft's full day of flying.
	s.mcpServer.AddTool(
		mcplib.NewTool("get_aircraft_rotation",
			mcplib.WithDescription(`Get the complete daily rotation (sequence of flights) for an aircraft.

Query by a specific flight to find that aircraft's full day, or directly by
tail number. Returns the rotation sequence with block and turnaround times.`),
			mcplib.WithReadOnlyHintAnnotation(true),
			mcplib.WithIdempotentHintAnnotation(true),
			mcplib.WithString("carrier",
				mcplib.Description("Airline carrier code (e.g. \"6E\")"),
			),
			mcplib.WithString("flight_number",
				mcplib.Description("Flight number used to look up the aircraft (e.g. \"215\")"),
			),
			mcplib.WithString("date_of_origin",
				mcplib.Description("Date in YYYY-MM-DD format"),
			),
			mcplib.WithString("aircraft_registration",
				mcplib.Description(`Direct aircraft tail number (e.g. "VT-IFA" or "VTIFA")`),
			),
			mcplib.WithString("startStation",
				mcplib.Description("Optional departure station to narrow down which flight"),
			),
			mcplib.WithString("endStation",
				mcplib.Description("Optional arrival station to narrow down which flight"),
			),
		),
		s.handleAircraftRotation,
	)
}

// lookupArgs extracts the shared flight identity arguments. flight_number is
// read untyped because planners send it as either a string or a number.
func lookupArgs(request mcplib.CallToolRequest) ops.LookupArgs {
	return ops.LookupArgs{
		Carrier:      request.GetString("carrier", ""),
		FlightNumber: request.GetArguments()["flight_number"],
		DateOfOrigin: request.GetString("date_of_origin", ""),
		StartStation: request.GetString("startStation", ""),
		EndStation:   request.GetString("endStation", ""),
	}
}

func (s *Server) handleFlightByID(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	docID := request.GetString("doc_id", "")
	projection := request.GetString("projection", "")
	return envelopeResult(s.svc.FlightByID(ctx, docID, projection)), nil
}

func (s *Server) handleHealthCheck(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return envelopeResult(s.svc.Health(ctx)), nil
}

func (s *Server) handleCasualQuery(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return envelopeResult(s.svc.CasualAnswer(request.GetString("answer", ""))), nil
}

func (s *Server) handleRawQuery(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	queryJSON := request.GetString("query_json", "")
	projection := request.GetString("projection", "")
	limit := request.GetInt("limit", 10)
	return envelopeResult(s.svc.RawQuery(ctx, queryJSON, projection, int64(limit))), nil
}

func (s *Server) handleAggregatedQuery(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return envelopeResult(s.svc.AggregatedQuery(ctx, ops.AggregatedArgs{
		QueryType:  request.GetString("query_type", ""),
		Carrier:    request.GetString("carrier", ""),
		Field:      request.GetString("field", ""),
		StartDate:  request.GetString("start_date", ""),
		EndDate:    request.GetString("end_date", ""),
		FilterJSON: request.GetString("filter_json", ""),
	})), nil
}

func (s *Server) handleTotalDelay(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return envelopeResult(s.svc.TotalDelay(ctx, ops.TotalDelayArgs{
		Carrier:      request.GetString("carrier", ""),
		FlightNumber: request.GetArguments()["flight_number"],
		DateOfOrigin: request.GetString("date_of_origin", ""),
		StartDate:    request.GetString("start_date", ""),
		EndDate:      request.GetString("end_date", ""),
		StartStation: request.GetString("startStation", ""),
		EndStation:   request.GetString("endStation", ""),
	})), nil
}

func (s *Server) handleDelayedFlights(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return envelopeResult(s.svc.DelayedFlights(ctx,
		request.GetString("start_time", ""),
		request.GetString("end_time", ""),
		request.GetString("carrier", ""),
		int64(request.GetInt("limit", 50)),
	)), nil
}

func (s *Server) handleAircraftRotation(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	return envelopeResult(s.svc.AircraftRotation(ctx, ops.RotationArgs{
		Carrier:              request.GetString("carrier", ""),
		FlightNumber:         request.GetArguments()["flight_number"],
		DateOfOrigin:         request.GetString("date_of_origin", ""),
		AircraftRegistration: request.GetString("aircraft_registration", ""),
		StartStation:         request.GetString("startStation", ""),
		EndStation:           request.GetString("endStation", ""),
	})), nil
}
