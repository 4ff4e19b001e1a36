// Package ops implements the flight operations query surface: identity
// lookups with route disambiguation, raw and aggregated store queries, delay
// arithmetic, and aircraft rotations. Every operation returns an Envelope so
// transport layers can serialize results uniformly.
package ops

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/normalize"
	"github.com/flightops-ai/flightops/internal/query"
	"github.com/flightops-ai/flightops/internal/resolve"
)

// Envelope is the uniform response shape. Exactly one of Data and Error is
// set.
type Envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error *Fault `json:"error,omitempty"`
}

// Fault carries an HTTP-style status code alongside the message.
type Fault struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{OK: true, Data: data}
}

// Errorf builds a failure envelope.
func Errorf(code int, format string, args ...any) Envelope {
	return Envelope{OK: false, Error: &Fault{Message: fmt.Sprintf(format, args...), Code: code}}
}

// RouteSelection is the success payload returned when a lookup matched
// several distinct legs and the caller must pick one.
type RouteSelection struct {
	NeedsRouteSelection bool                `json:"needs_route_selection"`
	Count               int                 `json:"count"`
	Matches             []resolve.Candidate `json:"matches"`
	OriginalQuery       bson.M              `json:"original_query"`
}

// Store is the document store surface the service needs.
type Store interface {
	Ping(ctx context.Context) error
	DocumentByID(ctx context.Context, id string, projection bson.M) (bson.M, error)
	Find(ctx context.Context, filter, projection bson.M, sort bson.D, limit int64) ([]bson.M, error)
	Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error)
}

// Lookuper resolves a flight filter to zero, one, or several legs.
type Lookuper interface {
	Lookup(ctx context.Context, filter, projection bson.M) (resolve.Outcome, error)
}

// Service executes flight operations queries against a store.
type Service struct {
	store    Store
	resolver Lookuper
	logger   *slog.Logger
}

// New creates a Service.
func New(store Store, resolver Lookuper, logger *slog.Logger) *Service {
	return &Service{store: store, resolver: resolver, logger: logger}
}

// LookupArgs identify a flight leg. FlightNumber is untyped because callers
// send it as either a number or a string.
type LookupArgs struct {
	Carrier      string
	FlightNumber any
	DateOfOrigin string
	StartStation string
	EndStation   string
}

// flightFilter validates and normalizes args into a store filter. The second
// return is a failure envelope when validation rejects an argument.
func (s *Service) flightFilter(args LookupArgs) (bson.M, Envelope, bool) {
	key := query.FlightKey{
		Carrier:      args.Carrier,
		DateOfOrigin: args.DateOfOrigin,
		StartStation: args.StartStation,
		EndStation:   args.EndStation,
	}
	if args.FlightNumber != nil && args.FlightNumber != "" {
		n, ok := normalize.FlightNumber(args.FlightNumber)
		if !ok {
			return nil, Errorf(400, "invalid flight_number: %v", args.FlightNumber), false
		}
		key.FlightNumber = &n
	}
	if args.DateOfOrigin != "" {
		d := normalize.Date(args.DateOfOrigin)
		if d == "" {
			return nil, Errorf(400, "invalid date_of_origin format: %s", args.DateOfOrigin), false
		}
		key.DateOfOrigin = d
	}
	return key.Filter(), Envelope{}, true
}

// lookupOne runs the resolve-then-fetch flow shared by all per-flight
// summary operations. notFound overrides the default 404 message when
// non-empty.
func (s *Service) lookupOne(ctx context.Context, args LookupArgs, projection bson.M, notFound string) Envelope {
	filter, env, ok := s.flightFilter(args)
	if !ok {
		return env
	}

	out, err := s.resolver.Lookup(ctx, filter, projection)
	if err != nil {
		s.logger.Error("ops: lookup failed", "error", err, "filter", filter)
		return Errorf(500, "DB error: %v", err)
	}

	switch out.Status {
	case resolve.NotFound:
		if notFound == "" {
			notFound = "No matching document found."
		}
		return Errorf(404, "%s", notFound)
	case resolve.Resolved:
		return OK(out.Record)
	default:
		return OK(RouteSelection{
			NeedsRouteSelection: true,
			Count:               len(out.Candidates),
			Matches:             out.Candidates,
			OriginalQuery:       out.Query,
		})
	}
}
