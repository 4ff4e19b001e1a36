// Package query composes MongoDB filter documents for flight leg lookups and
// validates caller-supplied raw filters before they reach the store.
package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/duration"
)

// Dot-notation field paths into the flight leg document.
const (
	FieldCarrier              = "flightLegState.carrier"
	FieldFlightNumber         = "flightLegState.flightNumber"
	FieldDateOfOrigin         = "flightLegState.dateOfOrigin"
	FieldStartStation         = "flightLegState.startStation"
	FieldEndStation           = "flightLegState.endStation"
	FieldScheduledStartTime   = "flightLegState.scheduledStartTime"
	FieldScheduledEndTime     = "flightLegState.scheduledEndTime"
	FieldSeqNumber            = "flightLegState.seqNumber"
	FieldFlightStatus         = "flightLegState.flightStatus"
	FieldDelayTotal           = "flightLegState.delays.total"
	FieldAircraftRegistration = "flightLegState.equipment.aircraftRegistration"
)

// FlightKey is the canonical identity of one real-world flight leg. Two legs
// with the same carrier, number, and date but different stations are distinct
// flights and are never merged.
type FlightKey struct {
	Carrier      string
	FlightNumber *int
	DateOfOrigin string
	StartStation string
	EndStation   string
}

// Filter builds the store filter for the key. Empty fields place no
// constraint.
func (k FlightKey) Filter() bson.M {
	f := bson.M{}
	if k.Carrier != "" {
		f[FieldCarrier] = k.Carrier
	}
	if k.FlightNumber != nil {
		f[FieldFlightNumber] = *k.FlightNumber
	}
	if k.DateOfOrigin != "" {
		f[FieldDateOfOrigin] = k.DateOfOrigin
	}
	if k.StartStation != "" {
		f[FieldStartStation] = k.StartStation
	}
	if k.EndStation != "" {
		f[FieldEndStation] = k.EndStation
	}
	return f
}

// ParseLoose parses a JSON object that may use single quotes, a habit of
// planner-produced filter strings.
func ParseLoose(text string) (bson.M, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err == nil {
		return bson.M(doc), nil
	}
	repaired := strings.ReplaceAll(text, "'", `"`)
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, fmt.Errorf("query: invalid JSON: %w", err)
	}
	return bson.M(doc), nil
}

// allowedOperators are the read-only operators permitted in nested
// (per-field) position inside a raw filter.
var allowedOperators = map[string]bool{
	"$gt": true, "$gte": true, "$lt": true, "$lte": true,
	"$eq": true, "$ne": true, "$in": true, "$nin": true,
	"$exists": true, "$regex": true, "$options": true,
	"$and": true, "$or": true, "$not": true, "$elemMatch": true,
	"$size": true, "$type": true,
}

// forbiddenOperators can write data or execute server-side code. They are
// listed explicitly so a future allowlist edit cannot accidentally admit
// them.
var forbiddenOperators = map[string]bool{
	"$where": true, "$out": true, "$merge": true,
	"$accumulator": true, "$function": true, "$expr": true,
}

// Validate rejects raw filter documents containing operators that could
// alter stored data or execute code. Top-level keys must be field paths;
// operator keys anywhere in the document must be in the read-only allowlist.
// Validation happens before any store access.
func Validate(filter bson.M) error {
	for key, value := range filter {
		if strings.HasPrefix(key, "$") {
			return fmt.Errorf("query: operator %q is not allowed", key)
		}
		if err := validateValue(value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(v any) error {
	switch doc := v.(type) {
	case bson.M:
		return validateDoc(doc)
	case map[string]any:
		return validateDoc(doc)
	case []any:
		for _, item := range doc {
			if err := validateValue(item); err != nil {
				return err
			}
		}
	case bson.A:
		for _, item := range doc {
			if err := validateValue(item); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateDoc(doc map[string]any) error {
	for key, value := range doc {
		if strings.HasPrefix(key, "$") {
			if forbiddenOperators[key] || !allowedOperators[key] {
				return fmt.Errorf("query: operator %q is not allowed", key)
			}
		}
		if err := validateValue(value); err != nil {
			return err
		}
	}
	return nil
}

// RewriteDelayFilter rewrites numeric comparisons against the delay-total
// field into sentinel string comparisons. Delay totals are persisted as text
// ("PT1H30M", "00:45"), so a numeric $gt/$eq against them never matches:
// "delayed" means "not one of the zero encodings", and "on time" means "one
// of them".
func RewriteDelayFilter(filter bson.M) bson.M {
	out := bson.M{}
	for key, value := range filter {
		if strings.Contains(key, "delays.total") {
			if cond, ok := asDoc(value); ok {
				if v, present := cond["$gt"]; present && isZero(v) {
					out[key] = bson.M{"$nin": duration.ZeroSentinels}
					continue
				}
				if v, present := cond["$eq"]; present && isZero(v) {
					out[key] = bson.M{"$in": []any{"PT0H0M", "00:00"}}
					continue
				}
			}
		}
		out[key] = value
	}
	return out
}

func asDoc(v any) (map[string]any, bool) {
	switch doc := v.(type) {
	case bson.M:
		return doc, true
	case map[string]any:
		return doc, true
	default:
		return nil, false
	}
}

func isZero(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int32:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	default:
		return false
	}
}
