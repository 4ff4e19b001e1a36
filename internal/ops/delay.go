package ops

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/duration"
	"github.com/flightops-ai/flightops/internal/normalize"
	"github.com/flightops-ai/flightops/internal/query"
)

var delayLegProjection = bson.M{
	query.FieldCarrier:            1,
	query.FieldFlightNumber:       1,
	query.FieldDateOfOrigin:       1,
	query.FieldStartStation:       1,
	query.FieldEndStation:         1,
	query.FieldSeqNumber:          1,
	query.FieldDelayTotal:         1,
	query.FieldScheduledStartTime: 1,
}

// TotalDelayArgs parameterize a delay aggregation. Either DateOfOrigin or
// the StartDate/EndDate pair must be set; the range wins when both are.
type TotalDelayArgs struct {
	Carrier      string
	FlightNumber any
	DateOfOrigin string
	StartDate    string
	EndDate      string
	StartStation string
	EndStation   string
}

type delayLeg struct {
	Date               string `json:"date"`
	StartStation       string `json:"startStation"`
	EndStation         string `json:"endStation"`
	SeqNumber          any    `json:"seqNumber"`
	DelayRaw           string `json:"delayRaw"`
	DelayMinutes       int    `json:"delayMinutes"`
	ScheduledStartTime string `json:"scheduledStartTime"`
}

// TotalDelay sums recorded delay durations across every leg matching the
// flight and date constraints. Delay totals are stored as text, so the sum
// is computed here after parsing rather than in the store.
func (s *Service) TotalDelay(ctx context.Context, args TotalDelayArgs) Envelope {
	filter := bson.M{}
	if args.Carrier != "" {
		filter[query.FieldCarrier] = args.Carrier
	}

	var flightNumber any
	if args.FlightNumber != nil && args.FlightNumber != "" {
		n, ok := normalize.FlightNumber(args.FlightNumber)
		if !ok {
			return Errorf(400, "invalid flight_number: %v", args.FlightNumber)
		}
		filter[query.FieldFlightNumber] = n
		flightNumber = n
	}

	var dateRange string
	switch {
	case args.StartDate != "" && args.EndDate != "":
		sd := normalize.Date(args.StartDate)
		ed := normalize.Date(args.EndDate)
		if sd == "" || ed == "" {
			return Errorf(400, "Invalid start_date or end_date format.")
		}
		filter[query.FieldDateOfOrigin] = bson.M{"$gte": sd, "$lte": ed}
		dateRange = sd + " to " + ed
	case args.DateOfOrigin != "":
		d := normalize.Date(args.DateOfOrigin)
		if d == "" {
			return Errorf(400, "Invalid date_of_origin format.")
		}
		filter[query.FieldDateOfOrigin] = d
		dateRange = d
	default:
		return Errorf(400, "Either date_of_origin or start_date + end_date must be provided.")
	}

	if args.StartStation != "" {
		filter[query.FieldStartStation] = args.StartStation
	}
	if args.EndStation != "" {
		filter[query.FieldEndStation] = args.EndStation
	}

	sortOrder := bson.D{
		{Key: query.FieldDateOfOrigin, Value: 1},
		{Key: query.FieldSeqNumber, Value: 1},
	}

	s.logger.Info("ops: delay aggregation", "filter", filter)

	docs, err := s.store.Find(ctx, filter, delayLegProjection, sortOrder, 0)
	if err != nil {
		s.logger.Error("ops: delay aggregation failed", "error", err)
		return Errorf(500, "delay aggregation failed: %v", err)
	}
	if len(docs) == 0 {
		return Errorf(404, "No matching flights found.")
	}

	var (
		legs         []delayLeg
		totalMinutes int
		dates        = map[string]bool{}
	)
	for _, doc := range docs {
		fl := legState(doc)
		raw := delayTotal(fl)
		minutes := duration.ParseMinutes(raw)
		totalMinutes += minutes
		dates[str(fl["dateOfOrigin"])] = true

		legs = append(legs, delayLeg{
			Date:               str(fl["dateOfOrigin"]),
			StartStation:       str(fl["startStation"]),
			EndStation:         str(fl["endStation"]),
			SeqNumber:          fl["seqNumber"],
			DelayRaw:           raw,
			DelayMinutes:       minutes,
			ScheduledStartTime: str(fl["scheduledStartTime"]),
		})
	}

	processed := make([]string, 0, len(dates))
	for d := range dates {
		processed = append(processed, d)
	}
	sort.Strings(processed)

	s.logger.Info("ops: delay aggregation done",
		"total_minutes", totalMinutes, "legs", len(legs), "dates", len(processed))

	return OK(map[string]any{
		"carrier":            args.Carrier,
		"flightNumber":       flightNumber,
		"dateRange":          dateRange,
		"datesProcessed":     processed,
		"totalDelayMinutes":  totalMinutes,
		"totalDelayReadable": duration.Readable(totalMinutes),
		"numberOfLegs":       len(legs),
		"legs":               legs,
		"query":              filter,
	})
}

type delayedFlight struct {
	Carrier            any    `json:"carrier"`
	FlightNumber       any    `json:"flightNumber"`
	Date               any    `json:"date"`
	Route              string `json:"route"`
	ScheduledDeparture any    `json:"scheduledDeparture"`
	Delay              string `json:"delay"`
	DelayMinutes       int    `json:"delayMinutes"`
}

// DelayedFlights lists flights whose delay total is not a zero encoding,
// optionally bounded by a scheduled departure window and carrier.
func (s *Service) DelayedFlights(ctx context.Context, startTime, endTime, carrier string, limit int64) Envelope {
	filter := bson.M{
		query.FieldDelayTotal: bson.M{"$nin": duration.ZeroSentinels},
	}
	if startTime != "" && endTime != "" {
		filter[query.FieldScheduledStartTime] = bson.M{"$gte": startTime, "$lte": endTime}
	} else if startTime != "" {
		filter[query.FieldScheduledStartTime] = bson.M{"$gte": startTime}
	}
	if carrier != "" {
		filter[query.FieldCarrier] = carrier
	}

	projection := bson.M{
		"_id":                         0,
		query.FieldCarrier:            1,
		query.FieldFlightNumber:       1,
		query.FieldDateOfOrigin:       1,
		query.FieldStartStation:       1,
		query.FieldEndStation:         1,
		query.FieldScheduledStartTime: 1,
		query.FieldDelayTotal:         1,
	}
	sortOrder := bson.D{{Key: query.FieldScheduledStartTime, Value: -1}}

	docs, err := s.store.Find(ctx, filter, projection, sortOrder, clampLimit(limit, 50, rawMaxLimit))
	if err != nil {
		s.logger.Error("ops: delayed flights failed", "error", err)
		return Errorf(500, "%v", err)
	}

	results := make([]delayedFlight, 0, len(docs))
	for _, doc := range docs {
		fl := legState(doc)
		raw := delayTotal(fl)
		results = append(results, delayedFlight{
			Carrier:            fl["carrier"],
			FlightNumber:       fl["flightNumber"],
			Date:               fl["dateOfOrigin"],
			Route:              fmt.Sprintf("%s → %s", str(fl["startStation"]), str(fl["endStation"])),
			ScheduledDeparture: fl["scheduledStartTime"],
			Delay:              raw,
			DelayMinutes:       duration.ParseMinutes(raw),
		})
	}

	return OK(map[string]any{
		"count":          len(results),
		"delayedFlights": results,
		"query":          filter,
	})
}

// legState extracts the flightLegState subdocument from a decoded result,
// tolerating both bson.M and plain map shapes.
func legState(doc bson.M) bson.M {
	switch fl := doc["flightLegState"].(type) {
	case bson.M:
		return fl
	case map[string]any:
		return bson.M(fl)
	default:
		return bson.M{}
	}
}

// delayTotal reads delays.total from a leg, defaulting to the zero
// designator.
func delayTotal(fl bson.M) string {
	delays, ok := fl["delays"].(bson.M)
	if !ok {
		if m, ok2 := fl["delays"].(map[string]any); ok2 {
			delays = bson.M(m)
		} else {
			return "PT0H0M"
		}
	}
	if s, ok := delays["total"].(string); ok && s != "" {
		return s
	}
	return "PT0H0M"
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
