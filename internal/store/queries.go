package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/flightops-ai/flightops/internal/query"
	"github.com/flightops-ai/flightops/internal/resolve"
)

// candidateProjection fetches only what disambiguation needs.
var candidateProjection = bson.M{
	"_id":                         1,
	query.FieldCarrier:            1,
	query.FieldFlightNumber:       1,
	query.FieldDateOfOrigin:       1,
	query.FieldStartStation:       1,
	query.FieldEndStation:         1,
	query.FieldScheduledStartTime: 1,
	query.FieldSeqNumber:          1,
	query.FieldFlightStatus:       1,
}

// candidateDoc mirrors candidateProjection for decoding. FlightNumber and
// SeqNumber stay untyped: different ingest paths store them as int or text.
type candidateDoc struct {
	ID  any `bson:"_id"`
	Leg struct {
		Carrier            string `bson:"carrier"`
		FlightNumber       any    `bson:"flightNumber"`
		DateOfOrigin       string `bson:"dateOfOrigin"`
		StartStation       string `bson:"startStation"`
		EndStation         string `bson:"endStation"`
		ScheduledStartTime string `bson:"scheduledStartTime"`
		SeqNumber          any    `bson:"seqNumber"`
		FlightStatus       string `bson:"flightStatus"`
	} `bson:"flightLegState"`
}

// CandidateLegs returns the lightweight candidate projection for every
// document matching filter, sorted by scheduled start time ascending.
func (s *Store) CandidateLegs(ctx context.Context, filter bson.M, limit int64) ([]resolve.Leg, error) {
	opts := options.Find().
		SetProjection(candidateProjection).
		SetSort(bson.D{{Key: query.FieldScheduledStartTime, Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: candidate legs: %w", err)
	}
	defer cur.Close(ctx)

	var legs []resolve.Leg
	for cur.Next(ctx) {
		var doc candidateDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("store: decode candidate: %w", err)
		}
		legs = append(legs, resolve.Leg{
			DocID:              handleString(doc.ID),
			Carrier:            doc.Leg.Carrier,
			FlightNumber:       doc.Leg.FlightNumber,
			DateOfOrigin:       doc.Leg.DateOfOrigin,
			StartStation:       doc.Leg.StartStation,
			EndStation:         doc.Leg.EndStation,
			ScheduledStartTime: doc.Leg.ScheduledStartTime,
			SeqNumber:          doc.Leg.SeqNumber,
			FlightStatus:       doc.Leg.FlightStatus,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("store: candidate cursor: %w", err)
	}
	return legs, nil
}

// DocumentByID fetches one document by its handle, trying an ObjectID
// lookup first and falling back to a string _id, since some ingest paths
// store the handle as text.
func (s *Store) DocumentByID(ctx context.Context, id string, projection bson.M) (bson.M, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		var doc bson.M
		err := s.col.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
		if err == nil {
			return cleanDoc(doc), nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("store: find by id: %w", err)
		}
	}

	var doc bson.M
	err := s.col.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: find by id: %w", err)
	}
	return cleanDoc(doc), nil
}

// Find returns every document matching filter with the given projection,
// sort, and limit. A limit of zero means unbounded.
func (s *Store) Find(ctx context.Context, filter, projection bson.M, sort bson.D, limit int64) ([]bson.M, error) {
	opts := options.Find()
	if projection != nil {
		opts.SetProjection(projection)
	}
	if sort != nil {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cur, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("store: decode: %w", err)
		}
		docs = append(docs, cleanDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("store: cursor: %w", err)
	}
	return docs, nil
}

// Aggregate runs a pipeline and returns the result documents.
func (s *Store) Aggregate(ctx context.Context, pipeline []bson.M) ([]bson.M, error) {
	cur, err := s.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("store: aggregate: %w", err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: aggregate cursor: %w", err)
	}
	return docs, nil
}

func handleString(id any) string {
	if oid, ok := id.(bson.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}
