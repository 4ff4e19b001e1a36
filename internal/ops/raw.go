package ops

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/flightops-ai/flightops/internal/query"
)

// rawDefaultProjection is used when the caller omits a projection, keeping
// payloads small.
var rawDefaultProjection = bson.M{
	"_id":                   0,
	query.FieldCarrier:      1,
	query.FieldFlightNumber: 1,
	query.FieldDateOfOrigin: 1,
}

const rawMaxLimit = 50

func clampLimit(limit, def, max int64) int64 {
	if limit <= 0 {
		limit = def
	}
	if limit < 1 {
		limit = 1
	}
	if limit > max {
		limit = max
	}
	return limit
}

// RawQuery runs a caller-supplied filter after validating it against the
// read-only operator allowlist. Delay comparisons are rewritten to the
// sentinel string form before execution.
func (s *Service) RawQuery(ctx context.Context, queryJSON, projection string, limit int64) Envelope {
	filter, err := query.ParseLoose(queryJSON)
	if err != nil {
		return Errorf(400, "invalid query_json: %v", err)
	}
	if err := query.Validate(filter); err != nil {
		return Errorf(400, "%v", err)
	}
	filter = query.RewriteDelayFilter(filter)

	proj := rawDefaultProjection
	if projection != "" {
		parsed, err := query.ParseLoose(projection)
		if err != nil {
			return Errorf(400, "invalid projection JSON: %v", err)
		}
		proj = parsed
	}

	limit = clampLimit(limit, 10, rawMaxLimit)
	sort := bson.D{{Key: query.FieldDateOfOrigin, Value: -1}}

	s.logger.Info("ops: raw query", "filter", filter, "limit", limit)

	docs, err := s.store.Find(ctx, filter, proj, sort, limit)
	if err != nil {
		s.logger.Error("ops: raw query failed", "error", err)
		return Errorf(500, "raw query failed: %v", err)
	}
	if len(docs) == 0 {
		return Errorf(404, "No documents found for the given query.")
	}

	return OK(map[string]any{
		"count":      len(docs),
		"query":      filter,
		"projection": proj,
		"documents":  docs,
	})
}

// aggregationAliases maps colloquial operation names onto the canonical
// aggregation set.
var aggregationAliases = map[string]string{
	"avg":     "average",
	"mean":    "average",
	"total":   "sum",
	"cnt":     "count",
	"minimum": "min",
	"maximum": "max",
}

var aggregationOperators = map[string]string{
	"average": "$avg",
	"sum":     "$sum",
	"min":     "$min",
	"max":     "$max",
}

// AggregatedArgs parameterize a statistical query.
type AggregatedArgs struct {
	QueryType  string
	Carrier    string
	Field      string
	StartDate  string
	EndDate    string
	FilterJSON string
}

// AggregatedQuery runs a $match + $group pipeline computing one statistic
// over a field. Numeric aggregation of the delay-total field is refused
// because it is stored as text.
func (s *Service) AggregatedQuery(ctx context.Context, args AggregatedArgs) Envelope {
	kind := strings.ToLower(args.QueryType)
	if canonical, ok := aggregationAliases[kind]; ok {
		kind = canonical
	}

	_, numeric := aggregationOperators[kind]
	if strings.Contains(args.Field, "delays.total") && numeric {
		return Errorf(400,
			"Cannot compute %s on 'delays.total' (it's a string field). "+
				"Use 'get_total_delay_aggregated' tool instead for delay calculations.",
			args.QueryType)
	}

	match := bson.M{}
	if args.FilterJSON != "" {
		filter, err := query.ParseLoose(args.FilterJSON)
		if err != nil {
			return Errorf(400, "invalid filter_json: %v", err)
		}
		if err := query.Validate(filter); err != nil {
			return Errorf(400, "%v", err)
		}
		for k, v := range query.RewriteDelayFilter(filter) {
			match[k] = v
		}
	}
	if args.Carrier != "" {
		match[query.FieldCarrier] = args.Carrier
	}
	if args.StartDate != "" && args.EndDate != "" {
		match[query.FieldDateOfOrigin] = bson.M{"$gte": args.StartDate, "$lte": args.EndDate}
	}

	var group bson.M
	if kind == "count" {
		group = bson.M{"$sum": 1}
	} else {
		op, ok := aggregationOperators[kind]
		if !ok {
			return Errorf(400,
				"Unsupported query_type '%s'. Use: average, sum, min, max, count", args.QueryType)
		}
		if args.Field == "" {
			return Errorf(400, "field is required for query_type '%s'", args.QueryType)
		}
		group = bson.M{op: "$" + args.Field}
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": nil, "value": group}},
	}

	s.logger.Info("ops: aggregation", "pipeline", pipeline)

	docs, err := s.store.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.Error("ops: aggregation failed", "error", err)
		return Errorf(500, "aggregation failed: %v", err)
	}
	return OK(map[string]any{"pipeline": pipeline, "results": docs})
}
