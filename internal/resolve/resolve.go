// Package resolve decides whether a flight lookup identifies exactly one leg
// document, none, or several that a human must pick between.
//
// The same flight leg is often stored more than once, with copies differing
// only by an internal sequence counter. The resolver collapses those copies
// by canonical flight key before classifying the outcome, so "one flight,
// three revisions" never reads as ambiguous.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/normalize"
)

// Status classifies a lookup outcome.
type Status int

const (
	// NotFound means no leg matched the filter.
	NotFound Status = iota
	// Resolved means exactly one unique leg matched; Record holds it.
	Resolved
	// Ambiguous means several distinct legs matched; the caller must
	// narrow the query with station constraints.
	Ambiguous
)

// Leg is the lightweight per-document projection fetched for
// disambiguation.
type Leg struct {
	DocID              string
	Carrier            string
	FlightNumber       any
	DateOfOrigin       string
	StartStation       string
	EndStation         string
	ScheduledStartTime string
	SeqNumber          any
	FlightStatus       string
}

// Candidate is the view of a Leg surfaced to the caller for route
// selection. It is never returned as a final answer.
type Candidate struct {
	DocID              string `json:"doc_id"`
	StartStation       string `json:"startStation"`
	EndStation         string `json:"endStation"`
	ScheduledStartTime string `json:"scheduledStartTime"`
	SeqNumber          any    `json:"seqNumber,omitempty"`
	FlightStatus       string `json:"flightStatus,omitempty"`
}

// Store is the subset of the document store the resolver needs.
type Store interface {
	// CandidateLegs returns the lightweight projection for every document
	// matching filter, sorted by scheduled start time ascending, capped at
	// limit rows.
	CandidateLegs(ctx context.Context, filter bson.M, limit int64) ([]Leg, error)
	// DocumentByID fetches one full document by handle, honoring the
	// projection.
	DocumentByID(ctx context.Context, id string, projection bson.M) (bson.M, error)
}

// Outcome is the tri-state result of a lookup.
type Outcome struct {
	Status     Status
	Record     bson.M      // populated when Status == Resolved
	Candidates []Candidate // populated when Status == Ambiguous
	Query      bson.M      // the original filter, echoed back on ambiguity
}

// DefaultLimit caps the number of unique candidates considered per lookup.
const DefaultLimit = 50

// Resolver deduplicates candidate legs and classifies lookups.
type Resolver struct {
	store  Store
	limit  int64
	logger *slog.Logger
}

// New creates a Resolver with the default candidate limit.
func New(store Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, limit: DefaultLimit, logger: logger}
}

// Lookup fetches candidate legs for filter, deduplicates them by canonical
// flight key, and resolves to a single full document when unambiguous. The
// raw fetch is capped at twice the unique limit to absorb duplicate rows.
func (r *Resolver) Lookup(ctx context.Context, filter bson.M, projection bson.M) (Outcome, error) {
	legs, err := r.store.CandidateLegs(ctx, filter, r.limit*2)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve: candidates: %w", err)
	}

	type flightKey struct {
		carrier, flightNumber, date, start, end string
	}
	seen := make(map[flightKey]bool)
	var candidates []Candidate
	for _, leg := range legs {
		key := flightKey{
			carrier:      leg.Carrier,
			flightNumber: canonicalNumber(leg.FlightNumber),
			date:         leg.DateOfOrigin,
			start:        leg.StartStation,
			end:          leg.EndStation,
		}
		if seen[key] {
			r.logger.Debug("resolve: duplicate leg collapsed",
				"doc_id", leg.DocID, "seq_number", leg.SeqNumber)
			continue
		}
		seen[key] = true
		candidates = append(candidates, Candidate{
			DocID:              leg.DocID,
			StartStation:       leg.StartStation,
			EndStation:         leg.EndStation,
			ScheduledStartTime: leg.ScheduledStartTime,
			SeqNumber:          leg.SeqNumber,
			FlightStatus:       leg.FlightStatus,
		})
		if int64(len(candidates)) >= r.limit {
			break
		}
	}

	switch len(candidates) {
	case 0:
		return Outcome{Status: NotFound, Query: filter}, nil
	case 1:
		record, err := r.store.DocumentByID(ctx, candidates[0].DocID, projection)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve: fetch record: %w", err)
		}
		return Outcome{Status: Resolved, Record: record}, nil
	default:
		r.logger.Info("resolve: ambiguous lookup",
			"unique_candidates", len(candidates), "raw_legs", len(legs))
		return Outcome{Status: Ambiguous, Candidates: candidates, Query: filter}, nil
	}
}

// canonicalNumber folds the stored flight number, which may arrive as an
// int, a float, or text depending on the ingest path, into one key form so
// "215" and 215 collapse together.
func canonicalNumber(v any) string {
	if n, ok := normalize.FlightNumber(v); ok {
		return strconv.Itoa(n)
	}
	return fmt.Sprint(v)
}
