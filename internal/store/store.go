// Package store provides the read-only MongoDB access layer for flight leg
// documents.
//
// A Store is constructed once at startup and injected into everything that
// reads; the driver pools connections internally, so a single Store is safe
// for concurrent use by all in-flight requests. Nothing in this package
// writes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("store: not found")

// Store wraps the Mongo client and the flight leg collection.
type Store struct {
	client *mongo.Client
	col    *mongo.Collection
	logger *slog.Logger
}

// New connects to MongoDB and verifies connectivity with a ping.
func New(ctx context.Context, uri, database, collection string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{
		client: client,
		col:    client.Database(database).Collection(collection),
		logger: logger,
	}, nil
}

// Ping checks connectivity to the store.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) {
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Warn("store: disconnect", "error", err)
	}
}

// cleanDoc strips the record handle and persistence-framework metadata from
// a document before it leaves the store layer.
func cleanDoc(doc bson.M) bson.M {
	delete(doc, "_id")
	delete(doc, "_class")
	return doc
}
