package ops

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/query"
	"github.com/flightops-ai/flightops/internal/store"
)

// Per-operation projections. Each summary tool returns only the slice of the
// leg document its consumers read.
var (
	basicInfoProjection = bson.M{
		"flightLegState.carrier":                    1,
		"flightLegState.flightNumber":               1,
		"flightLegState.suffix":                     1,
		"flightLegState.dateOfOrigin":               1,
		"flightLegState.seqNumber":                  1,
		"flightLegState.startStation":               1,
		"flightLegState.endStation":                 1,
		"flightLegState.startStationICAO":           1,
		"flightLegState.endStationICAO":             1,
		"flightLegState.scheduledStartTime":         1,
		"flightLegState.scheduledEndTime":           1,
		"flightLegState.flightStatus":               1,
		"flightLegState.operationalStatus":          1,
		"flightLegState.flightType":                 1,
		"flightLegState.blockTimeSch":               1,
		"flightLegState.blockTimeActual":            1,
		"flightLegState.flightHoursActual":          1,
		"flightLegState.isOTPFlight":                1,
		"flightLegState.isOTPAchieved":              1,
		"flightLegState.isOTPConsidered":            1,
		"flightLegState.isOTTFlight":                1,
		"flightLegState.isOTTAchievedFlight":        1,
		"flightLegState.turnTimeFlightBeforeActual": 1,
		"flightLegState.turnTimeFlightBeforeSch":    1,
	}

	operationTimesProjection = bson.M{
		"flightLegState.carrier":                  1,
		"flightLegState.flightNumber":             1,
		"flightLegState.dateOfOrigin":             1,
		"flightLegState.startStation":             1,
		"flightLegState.endStation":               1,
		"flightLegState.scheduledStartTime":       1,
		"flightLegState.scheduledEndTime":         1,
		"flightLegState.startTimeOffset":          1,
		"flightLegState.endTimeOffset":            1,
		"flightLegState.operation.estimatedTimes": 1,
		"flightLegState.operation.actualTimes":    1,
		"flightLegState.taxiOutTime":              1,
		"flightLegState.taxiInTime":               1,
		"flightLegState.blockTimeSch":             1,
		"flightLegState.blockTimeActual":          1,
		"flightLegState.flightHoursActual":        1,
	}

	equipmentProjection = bson.M{
		"flightLegState.carrier":                                 1,
		"flightLegState.flightNumber":                            1,
		"flightLegState.dateOfOrigin":                            1,
		"flightLegState.equipment.plannedAircraftType":           1,
		"flightLegState.equipment.aircraft":                      1,
		"flightLegState.equipment.aircraftConfiguration":         1,
		"flightLegState.equipment.aircraftRegistration":          1,
		"flightLegState.equipment.assignedAircraftTypeIATA":      1,
		"flightLegState.equipment.assignedAircraftTypeICAO":      1,
		"flightLegState.equipment.assignedAircraftTypeIndigo":    1,
		"flightLegState.equipment.assignedAircraftConfiguration": 1,
		"flightLegState.equipment.tailLock":                      1,
		"flightLegState.equipment.onwardFlight":                  1,
		"flightLegState.equipment.actualOnwardFlight":            1,
	}

	delaySummaryProjection = bson.M{
		"flightLegState.carrier":                        1,
		"flightLegState.flightNumber":                   1,
		"flightLegState.dateOfOrigin":                   1,
		"flightLegState.startStation":                   1,
		"flightLegState.endStation":                     1,
		"flightLegState.scheduledStartTime":             1,
		"flightLegState.operation.actualTimes.offBlock": 1,
		"flightLegState.delays.total":                   1,
	}

	fuelProjection = bson.M{
		"flightLegState.carrier":                           1,
		"flightLegState.flightNumber":                      1,
		"flightLegState.dateOfOrigin":                      1,
		"flightLegState.startStation":                      1,
		"flightLegState.endStation":                        1,
		"flightLegState.operation.fuel":                    1,
		"flightLegState.operation.flightPlan.offBlockFuel": 1,
		"flightLegState.operation.flightPlan.takeoffFuel":  1,
		"flightLegState.operation.flightPlan.landingFuel":  1,
		"flightLegState.operation.flightPlan.holdFuel":     1,
	}

	passengerProjection = bson.M{
		"flightLegState.carrier":                  1,
		"flightLegState.flightNumber":             1,
		"flightLegState.dateOfOrigin":             1,
		"flightLegState.pax.passengerCount.count": 1,
	}

	crewProjection = bson.M{
		"flightLegState.carrier":         1,
		"flightLegState.flightNumber":    1,
		"flightLegState.dateOfOrigin":    1,
		"flightLegState.crewConnections": 1,
	}
)

// FlightBasicInfo returns core identity, schedule, status, and on-time
// performance fields for one flight leg.
func (s *Service) FlightBasicInfo(ctx context.Context, args LookupArgs) Envelope {
	return s.lookupOne(ctx, args, basicInfoProjection, "")
}

// OperationTimes returns scheduled, estimated, and actual movement times
// plus taxi and block durations.
func (s *Service) OperationTimes(ctx context.Context, args LookupArgs) Envelope {
	return s.lookupOne(ctx, args, operationTimesProjection, "")
}

// EquipmentInfo returns aircraft assignment and configuration details.
func (s *Service) EquipmentInfo(ctx context.Context, args LookupArgs) Envelope {
	return s.lookupOne(ctx, args, equipmentProjection, "")
}

// DelaySummary returns the recorded delay total and departure context for
// one flight leg.
func (s *Service) DelaySummary(ctx context.Context, args LookupArgs) Envelope {
	notFound := fmt.Sprintf(
		"No flight found for carrier=%s, flight_number=%v, date=%s, route=%s→%s. "+
			"Please verify the flight details or try without specifying the route.",
		args.Carrier, args.FlightNumber, args.DateOfOrigin, args.StartStation, args.EndStation)
	return s.lookupOne(ctx, args, delaySummaryProjection, notFound)
}

// FuelSummary returns planned and actual fuel figures.
func (s *Service) FuelSummary(ctx context.Context, args LookupArgs) Envelope {
	return s.lookupOne(ctx, args, fuelProjection, "")
}

// PassengerInfo returns passenger counts for one flight leg.
func (s *Service) PassengerInfo(ctx context.Context, args LookupArgs) Envelope {
	return s.lookupOne(ctx, args, passengerProjection, "")
}

// CrewInfo returns crew connection details for one flight leg.
func (s *Service) CrewInfo(ctx context.Context, args LookupArgs) Envelope {
	return s.lookupOne(ctx, args, crewProjection, "")
}

// FlightByID fetches one document by its handle with an optional caller
// projection.
func (s *Service) FlightByID(ctx context.Context, docID, projection string) Envelope {
	if docID == "" {
		return Errorf(400, "doc_id is required")
	}

	var proj bson.M
	if projection != "" {
		parsed, err := query.ParseLoose(projection)
		if err != nil {
			return Errorf(400, "invalid projection JSON: %v", err)
		}
		proj = parsed
	}

	doc, err := s.store.DocumentByID(ctx, docID, proj)
	if errors.Is(err, store.ErrNotFound) {
		return Errorf(404, "Document not found")
	}
	if err != nil {
		s.logger.Error("ops: fetch by id failed", "error", err, "doc_id", docID)
		return Errorf(500, "DB error: %v", err)
	}
	return OK(doc)
}

// Health reports whether the store is reachable.
func (s *Service) Health(ctx context.Context) Envelope {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("ops: health ping failed", "error", err)
		return Errorf(503, "DB unreachable")
	}
	return OK(map[string]any{"status": "ok", "db_connected": true})
}

// CasualAnswer echoes a conversational answer so chit-chat turns share the
// envelope shape of every other operation.
func (s *Service) CasualAnswer(answer string) Envelope {
	return OK(answer)
}
