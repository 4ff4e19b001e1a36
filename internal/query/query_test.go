package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/duration"
	"github.com/flightops-ai/flightops/internal/normalize"
)

func TestFlightKeyFilter(t *testing.T) {
	fn := 215
	key := FlightKey{
		Carrier:      "6E",
		FlightNumber: &fn,
		DateOfOrigin: "2024-06-23",
		StartStation: "DEL",
	}

	assert.Equal(t, bson.M{
		FieldCarrier:      "6E",
		FieldFlightNumber: 215,
		FieldDateOfOrigin: "2024-06-23",
		FieldStartStation: "DEL",
	}, key.Filter())
}

func TestFlightKeyFilter_EmptyFieldsOmitted(t *testing.T) {
	assert.Equal(t, bson.M{}, FlightKey{}.Filter())

	key := FlightKey{Carrier: "AI"}
	assert.Equal(t, bson.M{FieldCarrier: "AI"}, key.Filter())
}

// A string flight number and an integer flight number describe the same
// flight and must compose identical filters.
func TestFlightKeyFilter_NormalizedNumberEquivalence(t *testing.T) {
	fromString, ok := normalize.FlightNumber("215")
	require.True(t, ok)
	fromInt, ok := normalize.FlightNumber(215)
	require.True(t, ok)

	a := FlightKey{Carrier: "6E", FlightNumber: &fromString, DateOfOrigin: "2024-06-23"}
	b := FlightKey{Carrier: "6E", FlightNumber: &fromInt, DateOfOrigin: "2024-06-23"}
	assert.Equal(t, a.Filter(), b.Filter())
}

func TestParseLoose(t *testing.T) {
	doc, err := ParseLoose(`{"flightLegState.carrier": "6E"}`)
	require.NoError(t, err)
	assert.Equal(t, "6E", doc["flightLegState.carrier"])

	// Single quotes are repaired before giving up.
	doc, err = ParseLoose(`{'flightLegState.carrier': '6E', 'flightLegState.flightNumber': 215}`)
	require.NoError(t, err)
	assert.Equal(t, "6E", doc["flightLegState.carrier"])
	assert.Equal(t, float64(215), doc["flightLegState.flightNumber"])

	_, err = ParseLoose(`not json at all`)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  bson.M
		wantErr bool
	}{
		{
			name:   "plain field match",
			filter: bson.M{FieldCarrier: "6E"},
		},
		{
			name:   "nested comparison operators",
			filter: bson.M{FieldDateOfOrigin: map[string]any{"$gte": "2024-06-01", "$lte": "2024-06-30"}},
		},
		{
			name:   "nin over sentinel list",
			filter: bson.M{FieldDelayTotal: map[string]any{"$nin": []any{"PT0H0M", "00:00", "", nil}}},
		},
		{
			name:    "top-level where",
			filter:  bson.M{"$where": "this.x == 1"},
			wantErr: true,
		},
		{
			name:    "top-level operator even when benign",
			filter:  bson.M{"$comment": "hi"},
			wantErr: true,
		},
		{
			name:    "nested out",
			filter:  bson.M{FieldCarrier: map[string]any{"$out": "other"}},
			wantErr: true,
		},
		{
			name:    "nested function deep inside or",
			filter:  bson.M{FieldCarrier: map[string]any{"$or": []any{map[string]any{"$function": "x"}}}},
			wantErr: true,
		},
		{
			name:    "merge inside array",
			filter:  bson.M{FieldCarrier: []any{map[string]any{"$merge": "col"}}},
			wantErr: true,
		},
		{
			name:    "accumulator",
			filter:  bson.M{FieldCarrier: map[string]any{"$accumulator": map[string]any{}}},
			wantErr: true,
		},
		{
			name:    "unknown operator rejected by allowlist",
			filter:  bson.M{FieldCarrier: map[string]any{"$mod": []any{4, 0}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.filter)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRewriteDelayFilter(t *testing.T) {
	t.Run("gt zero becomes sentinel exclusion", func(t *testing.T) {
		in := bson.M{FieldDelayTotal: map[string]any{"$gt": float64(0)}}
		out := RewriteDelayFilter(in)
		assert.Equal(t, bson.M{"$nin": duration.ZeroSentinels}, out[FieldDelayTotal])
	})

	t.Run("eq zero becomes sentinel inclusion", func(t *testing.T) {
		in := bson.M{FieldDelayTotal: map[string]any{"$eq": 0}}
		out := RewriteDelayFilter(in)
		assert.Equal(t, bson.M{"$in": []any{"PT0H0M", "00:00"}}, out[FieldDelayTotal])
	})

	t.Run("non-zero comparison passes through", func(t *testing.T) {
		cond := map[string]any{"$gt": float64(30)}
		in := bson.M{FieldDelayTotal: cond}
		out := RewriteDelayFilter(in)
		assert.Equal(t, cond, out[FieldDelayTotal])
	})

	t.Run("other fields untouched", func(t *testing.T) {
		in := bson.M{
			FieldCarrier:    "6E",
			FieldDelayTotal: map[string]any{"$gt": float64(0)},
		}
		out := RewriteDelayFilter(in)
		assert.Equal(t, "6E", out[FieldCarrier])
		assert.Equal(t, bson.M{"$nin": duration.ZeroSentinels}, out[FieldDelayTotal])
	})
}
