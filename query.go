package dynaexpr

import (
	"fmt"
	"log/slog"
	"maps"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Query describes a query on a table or one of its indexes.
type Query struct {
	Key        KeyCondition // Key condition, required
	Filter     Predicate    // Optional filter on non-key attributes
	Projection []string     // Attribute paths to return, all when empty
	IndexName  string       // Index to query, the table itself when empty
	Limit      int          // Maximum number of items to evaluate, at most math.MaxInt32
	StartKey   Item         // Exclusive start key for pagination
	Descending bool         // Scan direction (default: false)
}

// MarshalQuery marshals q into a query request. Filter values that collide with
// the key condition's values are renamed, as when combining predicates.
func (t *Table) MarshalQuery(q *Query) (*dynamodb.QueryInput, error) {
	if !q.Key.IsSet() {
		return nil, invalidArgument("query", "", nil, "key condition is empty")
	}
	if q.Limit < 0 || q.Limit > math.MaxInt32 {
		return nil, invalidArgument("query", "", q.Limit, "limit is out of range")
	}
	if err := q.Filter.Err(); err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}

	var (
		keyExpr, names, values = q.Key.build()
		input                  = &dynamodb.QueryInput{
			TableName:              aws.String(t.TableName),
			KeyConditionExpression: aws.String(keyExpr),
			ScanIndexForward:       aws.Bool(!q.Descending),
		}
	)

	if q.Filter.IsSet() {
		input.FilterExpression = aws.String(merge(names, values, q.Filter))
	}

	if len(q.Projection) > 0 {
		projection, projectionNames, err := buildProjection(q.Projection)
		if err != nil {
			return nil, err
		}
		input.ProjectionExpression = projection
		maps.Copy(names, projectionNames)
	}

	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values

	if q.IndexName != "" {
		input.IndexName = aws.String(q.IndexName)
	}

	// Add limit if specified
	if q.Limit > 0 {
		input.Limit = aws.Int32(int32(q.Limit))
	}

	// Add start key if provided
	if q.StartKey != nil {
		input.ExclusiveStartKey = q.StartKey
	}

	t.logger().Debug("marshal query",
		slog.String("table", t.TableName),
		slog.String("index", q.IndexName),
		slog.String("key", keyExpr),
		slog.String("filter", q.Filter.Expression()),
	)
	return input, nil
}

// NextStartKey returns the key to resume a query from, or nil when the last
// page has been read.
func NextStartKey(out *dynamodb.QueryOutput) Item {
	if out == nil || len(out.LastEvaluatedKey) == 0 {
		return nil
	}
	return maps.Clone(out.LastEvaluatedKey)
}
