package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/duration"
	"github.com/flightops-ai/flightops/internal/normalize"
	"github.com/flightops-ai/flightops/internal/query"
)

// RotationArgs identify an aircraft day. Either AircraftRegistration or a
// flight lookup (carrier, flight number, date) must be provided; the flight
// lookup resolves to a tail number first.
type RotationArgs struct {
	Carrier              string
	FlightNumber         any
	DateOfOrigin         string
	AircraftRegistration string
	StartStation         string
	EndStation           string
}

type rotationLeg struct {
	Carrier            any    `json:"carrier"`
	FlightNumber       any    `json:"flightNumber"`
	Route              string `json:"route"`
	ScheduledDeparture string `json:"scheduledDeparture"`
	ScheduledArrival   string `json:"scheduledArrival"`
	ActualDeparture    any    `json:"actualDeparture"`
	ActualArrival      any    `json:"actualArrival"`
	BlockTime          string `json:"blockTime"`
	BlockMinutes       int    `json:"blockMinutes"`
	Status             any    `json:"status"`
	TurnaroundMinutes  *int   `json:"turnaroundMinutes,omitempty"`
}

// AircraftRotation returns the full sequence of flights an aircraft flew on
// one date, with block and turnaround times.
func (s *Service) AircraftRotation(ctx context.Context, args RotationArgs) Envelope {
	tail := normalize.TailNumber(args.AircraftRegistration)

	if tail == "" && args.FlightNumber != nil && args.FlightNumber != "" {
		resolved, env := s.tailFromFlight(ctx, args)
		if env != nil {
			return *env
		}
		tail = resolved
	}
	if tail == "" {
		return Errorf(400, "Either flight_number or aircraft_registration must be provided")
	}

	date := ""
	if args.DateOfOrigin != "" {
		date = normalize.Date(args.DateOfOrigin)
		if date == "" {
			return Errorf(400, "Invalid date format")
		}
	}

	filter := bson.M{
		query.FieldAircraftRegistration: tail,
		query.FieldDateOfOrigin:         date,
	}
	projection := bson.M{
		"_id":                           0,
		query.FieldCarrier:              1,
		query.FieldFlightNumber:         1,
		query.FieldDateOfOrigin:         1,
		query.FieldStartStation:         1,
		query.FieldEndStation:           1,
		query.FieldScheduledStartTime:   1,
		query.FieldScheduledEndTime:     1,
		query.FieldSeqNumber:            1,
		query.FieldFlightStatus:         1,
		query.FieldAircraftRegistration: 1,
		"flightLegState.operation.actualTimes.offBlock": 1,
		"flightLegState.operation.actualTimes.inBlock":  1,
		"flightLegState.blockTimeSch":                   1,
		"flightLegState.blockTimeActual":                1,
	}
	sortOrder := bson.D{{Key: query.FieldScheduledStartTime, Value: 1}}

	s.logger.Info("ops: rotation query", "tail", tail, "date", date)

	docs, err := s.store.Find(ctx, filter, projection, sortOrder, 0)
	if err != nil {
		s.logger.Error("ops: rotation query failed", "error", err)
		return Errorf(500, "failed to get rotation: %v", err)
	}
	if len(docs) == 0 {
		return Errorf(404,
			"No flights found for aircraft %s on %s. The aircraft may not have operated "+
				"on this date, or it's registered under a different tail number format.",
			tail, args.DateOfOrigin)
	}

	var (
		flights       []rotationLeg
		flightMinutes int
		groundMinutes int
	)
	for _, doc := range docs {
		fl := legState(doc)
		blockTime := str(fl["blockTimeActual"])
		if blockTime == "" {
			blockTime = str(fl["blockTimeSch"])
		}
		if blockTime == "" {
			blockTime = "PT0H0M"
		}
		blockMinutes := duration.ParseMinutes(blockTime)
		flightMinutes += blockMinutes

		actual := subDoc(subDoc(fl, "operation"), "actualTimes")
		flights = append(flights, rotationLeg{
			Carrier:            fl["carrier"],
			FlightNumber:       fl["flightNumber"],
			Route:              fmt.Sprintf("%s → %s", str(fl["startStation"]), str(fl["endStation"])),
			ScheduledDeparture: str(fl["scheduledStartTime"]),
			ScheduledArrival:   str(fl["scheduledEndTime"]),
			ActualDeparture:    actual["offBlock"],
			ActualArrival:      actual["inBlock"],
			BlockTime:          blockTime,
			BlockMinutes:       blockMinutes,
			Status:             fl["flightStatus"],
		})
	}

	for i := 0; i < len(flights)-1; i++ {
		turnaround, ok := minutesBetween(flights[i].ScheduledArrival, flights[i+1].ScheduledDeparture)
		if !ok {
			continue
		}
		flights[i].TurnaroundMinutes = &turnaround
		groundMinutes += turnaround
	}

	var requestedRoute any
	if args.StartStation != "" && args.EndStation != "" {
		requestedRoute = fmt.Sprintf("%s → %s", args.StartStation, args.EndStation)
	}

	s.logger.Info("ops: rotation found",
		"flights", len(flights), "flight_minutes", flightMinutes, "ground_minutes", groundMinutes)

	return OK(map[string]any{
		"aircraftRegistration": tail,
		"carrier":              args.Carrier,
		"date":                 date,
		"numberOfFlights":      len(flights),
		"totalFlightMinutes":   flightMinutes,
		"totalFlightHours":     math.Round(float64(flightMinutes)/60*10) / 10,
		"totalGroundMinutes":   groundMinutes,
		"flights":              flights,
		"requestedFlight": map[string]any{
			"flightNumber": args.FlightNumber,
			"route":        requestedRoute,
		},
	})
}

// tailFromFlight resolves a flight lookup to its assigned tail number,
// returning a failure envelope when the flight or its equipment data is
// missing.
func (s *Service) tailFromFlight(ctx context.Context, args RotationArgs) (string, *Envelope) {
	fail := func(env Envelope) (string, *Envelope) { return "", &env }

	n, ok := normalize.FlightNumber(args.FlightNumber)
	if !ok {
		return fail(Errorf(400, "invalid flight_number: %v", args.FlightNumber))
	}
	date := normalize.Date(args.DateOfOrigin)
	if date == "" {
		return fail(Errorf(400, "Invalid date_of_origin format."))
	}

	filter := bson.M{
		query.FieldCarrier:      args.Carrier,
		query.FieldFlightNumber: n,
		query.FieldDateOfOrigin: date,
	}
	if args.StartStation != "" {
		filter[query.FieldStartStation] = args.StartStation
	}
	if args.EndStation != "" {
		filter[query.FieldEndStation] = args.EndStation
	}

	projection := bson.M{
		query.FieldAircraftRegistration: 1,
		query.FieldCarrier:              1,
		query.FieldFlightNumber:         1,
		query.FieldDateOfOrigin:         1,
		query.FieldStartStation:         1,
		query.FieldEndStation:           1,
	}

	docs, err := s.store.Find(ctx, filter, projection, nil, 1)
	if err != nil {
		return fail(Errorf(500, "DB error: %v", err))
	}
	if len(docs) == 0 {
		return s.rotationFallback(ctx, args, n, date)
	}

	fl := legState(docs[0])
	tail := str(subDoc(fl, "equipment")["aircraftRegistration"])
	if tail == "" {
		return s.missingEquipment(ctx, args, fl, date)
	}
	return tail, nil
}

// rotationFallback reports which routes the flight number did fly on the
// date, so the caller can correct station constraints.
func (s *Service) rotationFallback(ctx context.Context, args RotationArgs, n int, date string) (string, *Envelope) {
	fallback := bson.M{
		query.FieldCarrier:      args.Carrier,
		query.FieldFlightNumber: n,
		query.FieldDateOfOrigin: date,
	}
	projection := bson.M{
		query.FieldStartStation:         1,
		query.FieldEndStation:           1,
		query.FieldAircraftRegistration: 1,
	}

	docs, err := s.store.Find(ctx, fallback, projection, nil, 10)
	if err != nil || len(docs) == 0 {
		env := Errorf(404, "No flight %s %v found on %s", args.Carrier, args.FlightNumber, date)
		return "", &env
	}

	routes := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		fl := legState(doc)
		tail := str(subDoc(fl, "equipment")["aircraftRegistration"])
		if tail == "" {
			tail = "No equipment data"
		}
		routes = append(routes, map[string]any{
			"route":    fmt.Sprintf("%s → %s", str(fl["startStation"]), str(fl["endStation"])),
			"aircraft": tail,
		})
	}
	encoded, _ := json.Marshal(routes)

	env := Errorf(404,
		"Flight %s %v exists on %s but not for route %s→%s. Available routes: %s",
		args.Carrier, args.FlightNumber, date, args.StartStation, args.EndStation, encoded)
	return "", &env
}

// missingEquipment distinguishes one flight missing its tail assignment
// from a date with no equipment data at all.
func (s *Service) missingEquipment(ctx context.Context, args RotationArgs, fl bson.M, date string) (string, *Envelope) {
	probe := bson.M{
		query.FieldDateOfOrigin:         date,
		query.FieldAircraftRegistration: bson.M{"$exists": true, "$ne": nil},
	}
	docs, err := s.store.Find(ctx, probe, bson.M{query.FieldAircraftRegistration: 1}, nil, 1)

	var env Envelope
	if err == nil && len(docs) > 0 {
		env = Errorf(404,
			"Aircraft registration not found for flight %s %v from %s to %s on %s. "+
				"The equipment data is missing for this specific flight, though other flights "+
				"on this date have it. Cannot determine rotation without tail number.",
			args.Carrier, args.FlightNumber, str(fl["startStation"]), str(fl["endStation"]), date)
	} else {
		env = Errorf(404,
			"No aircraft registration data available for any flights on %s. "+
				"Rotation queries require aircraft tail numbers to work.", date)
	}
	return "", &env
}

func subDoc(doc bson.M, key string) bson.M {
	switch sub := doc[key].(type) {
	case bson.M:
		return sub
	case map[string]any:
		return bson.M(sub)
	default:
		return bson.M{}
	}
}

// minutesBetween returns the whole minutes between two RFC 3339 timestamps.
func minutesBetween(from, to string) (int, bool) {
	if from == "" || to == "" {
		return 0, false
	}
	start, err := time.Parse(time.RFC3339, from)
	if err != nil {
		return 0, false
	}
	end, err := time.Parse(time.RFC3339, to)
	if err != nil {
		return 0, false
	}
	return int(end.Sub(start).Minutes()), true
}
