package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type fakeStore struct {
	legs       []Leg
	legsErr    error
	record     bson.M
	recordErr  error
	fetchedID  string
	legsLimit  int64
	legsFilter bson.M
}

func (f *fakeStore) CandidateLegs(_ context.Context, filter bson.M, limit int64) ([]Leg, error) {
	f.legsFilter = filter
	f.legsLimit = limit
	return f.legs, f.legsErr
}

func (f *fakeStore) DocumentByID(_ context.Context, id string, _ bson.M) (bson.M, error) {
	f.fetchedID = id
	return f.record, f.recordErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func leg(id, start, end string, seq int) Leg {
	return Leg{
		DocID:              id,
		Carrier:            "6E",
		FlightNumber:       215,
		DateOfOrigin:       "2024-06-23",
		StartStation:       start,
		EndStation:         end,
		ScheduledStartTime: fmt.Sprintf("2024-06-23T0%d:00:00Z", seq),
		SeqNumber:          seq,
		FlightStatus:       "SCHEDULED",
	}
}

func TestLookup_NotFound(t *testing.T) {
	store := &fakeStore{}
	r := New(store, testLogger())

	filter := bson.M{"flightLegState.carrier": "6E"}
	out, err := r.Lookup(context.Background(), filter, nil)
	require.NoError(t, err)

	assert.Equal(t, NotFound, out.Status)
	assert.Empty(t, out.Candidates)
	assert.Equal(t, filter, out.Query)
}

func TestLookup_SingleCandidateResolves(t *testing.T) {
	record := bson.M{"flightLegState": bson.M{"carrier": "6E"}}
	store := &fakeStore{
		legs:   []Leg{leg("doc-1", "DEL", "BOM", 1)},
		record: record,
	}
	r := New(store, testLogger())

	out, err := r.Lookup(context.Background(), bson.M{}, bson.M{"flightLegState.carrier": 1})
	require.NoError(t, err)

	assert.Equal(t, Resolved, out.Status)
	assert.Equal(t, record, out.Record)
	assert.Equal(t, "doc-1", store.fetchedID)
}

// N raw copies of the same flight, differing only by sequence counter, must
// collapse to one candidate and resolve rather than read as ambiguous.
func TestLookup_DuplicatesCollapse(t *testing.T) {
	for _, n := range []int{2, 5, 20} {
		store := &fakeStore{record: bson.M{"x": 1}}
		for i := 0; i < n; i++ {
			store.legs = append(store.legs, leg("doc-1", "DEL", "BOM", 1))
		}
		r := New(store, testLogger())

		out, err := r.Lookup(context.Background(), bson.M{}, nil)
		require.NoError(t, err)
		assert.Equal(t, Resolved, out.Status, "with %d raw copies", n)
	}
}

func TestLookup_DistinctRoutesAreAmbiguous(t *testing.T) {
	filter := bson.M{"flightLegState.flightNumber": 215}
	store := &fakeStore{legs: []Leg{
		leg("doc-1", "SXR", "BOM", 1),
		leg("doc-2", "DEL", "BOM", 2),
		leg("doc-2b", "DEL", "BOM", 3), // duplicate of doc-2's flight
	}}
	r := New(store, testLogger())

	out, err := r.Lookup(context.Background(), filter, nil)
	require.NoError(t, err)

	assert.Equal(t, Ambiguous, out.Status)
	require.Len(t, out.Candidates, 2)
	assert.Equal(t, "doc-1", out.Candidates[0].DocID)
	assert.Equal(t, "doc-2", out.Candidates[1].DocID)
	assert.Equal(t, filter, out.Query, "original query is echoed for re-issue")
	assert.Empty(t, out.Record)
}

// The stored flight number type varies by ingest path; "215" and 215 are
// the same flight for dedup purposes.
func TestLookup_MixedNumberTypesCollapse(t *testing.T) {
	a := leg("doc-1", "DEL", "BOM", 1)
	b := leg("doc-2", "DEL", "BOM", 2)
	b.FlightNumber = "215"
	store := &fakeStore{legs: []Leg{a, b}, record: bson.M{"x": 1}}
	r := New(store, testLogger())

	out, err := r.Lookup(context.Background(), bson.M{}, nil)
	require.NoError(t, err)
	assert.Equal(t, Resolved, out.Status)
}

func TestLookup_FetchCapIsDoubleLimit(t *testing.T) {
	store := &fakeStore{}
	r := New(store, testLogger())

	_, err := r.Lookup(context.Background(), bson.M{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultLimit*2), store.legsLimit)
}

func TestLookup_UniqueLimitStopsScan(t *testing.T) {
	store := &fakeStore{}
	for i := 0; i < DefaultLimit+20; i++ {
		store.legs = append(store.legs, leg(fmt.Sprintf("doc-%d", i), fmt.Sprintf("S%d", i), "BOM", i))
	}
	r := New(store, testLogger())

	out, err := r.Lookup(context.Background(), bson.M{}, nil)
	require.NoError(t, err)
	assert.Equal(t, Ambiguous, out.Status)
	assert.Len(t, out.Candidates, DefaultLimit)
}

func TestLookup_StoreErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	store := &fakeStore{legsErr: wantErr}
	r := New(store, testLogger())

	_, err := r.Lookup(context.Background(), bson.M{}, nil)
	assert.ErrorIs(t, err, wantErr)
}
