package dynaexpr

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"gopkg.in/yaml.v3"
)

// Table contains DynamoDB table configuration. Its Marshal methods combine
// mappers, key conditions and predicates into request inputs; executing them is
// left to a [DynamoDBClient].
type Table struct {
	TableName string       `yaml:"table_name"` // Main table name
	Schema    KeySchema    `yaml:"schema"`     // Key and version attributes
	Logger    *slog.Logger `yaml:"-"`          // Debug logger for marshalled requests, discards when nil
}

// NewTable creates a new Table with the given name and key schema.
func NewTable(tableName string, schema KeySchema) *Table {
	return &Table{
		TableName: tableName,
		Schema:    schema,
	}
}

// LoadTable reads a table configuration from YAML:
//
//	table_name: orders
//	schema:
//	  partition_key: pk
//	  sort_key: sk
//	  version: version
func LoadTable(r io.Reader) (*Table, error) {
	var t Table
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode table config: %w", err)
	}
	if t.TableName == "" {
		return nil, invalidArgument("table config", "table_name", nil, "table name is required")
	}
	if err := t.Schema.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.Logger
}

// ReadOptions contains options for get requests.
type ReadOptions struct {
	Projection     []string // Attribute paths to return, all when empty
	ConsistentRead bool     // Use strongly consistent reads
}

// WithProjection limits a read to the given attribute paths.
func WithProjection(paths ...string) func(*ReadOptions) {
	return func(ro *ReadOptions) {
		ro.Projection = append(ro.Projection, paths...)
	}
}

// WithConsistentRead requests a strongly consistent read.
func WithConsistentRead() func(*ReadOptions) {
	return func(ro *ReadOptions) {
		ro.ConsistentRead = true
	}
}

// MarshalPut marshals m into a put item request. The request's condition is the
// conjunction of conditions and, when m declares a version, the version
// condition. The version condition is taken before the item is assembled, and
// the mapper's version is incremented afterwards, so a second put of the same
// mapper is conditioned on the version the first one wrote. When the table has a
// schema, the key and version slots of m must be exactly the ones it names.
func (t *Table) MarshalPut(m *Mapper, conditions ...Predicate) (*dynamodb.PutItemInput, error) {
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}
	if err := t.checkKey(m); err != nil {
		return nil, err
	}

	condition := Every(append(slices.Clone(conditions), m.VersionCondition())...)
	if err := condition.Err(); err != nil {
		return nil, fmt.Errorf("invalid condition: %w", err)
	}
	item := m.AssembleForWrite(true)
	m.IncrementVersion()

	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.TableName),
		Item:      item,
	}
	if condition.IsSet() {
		input.ConditionExpression = aws.String(condition.Expression())
		input.ExpressionAttributeNames = condition.Names()
		input.ExpressionAttributeValues = nonEmpty(condition.Values())
	}

	t.logger().Debug("marshal put",
		slog.String("table", t.TableName),
		slog.Int("attributes", len(item)),
		slog.String("condition", condition.Expression()),
	)
	return input, nil
}

// checkKey verifies that the key and version slots of m are the ones named by
// the table schema. A table without a schema accepts any key.
func (t *Table) checkKey(m *Mapper) error {
	key, err := m.Key()
	if err != nil {
		return err
	}
	schema := t.Schema
	if schema.PartitionKey == "" {
		return nil
	}
	if key.PartitionName() != schema.PartitionKey {
		return invalidArgument("put", key.PartitionName(), schema.PartitionKey, "partition key does not match the table schema")
	}

	switch {
	case schema.SortKey == "" && m.sort != nil:
		return invalidArgument("put", m.sort.name, nil, "the table schema has no sort key")
	case schema.SortKey != "" && m.sort == nil:
		return invalidArgument("put", schema.SortKey, nil, "sort key is required by the table schema")
	case schema.SortKey != "" && m.sort.name != schema.SortKey:
		return invalidArgument("put", m.sort.name, schema.SortKey, "sort key does not match the table schema")
	}

	version, ok := m.VersionState()
	switch {
	case schema.Version != "" && !ok:
		return invalidArgument("put", schema.Version, nil, "version is required by the table schema")
	case ok && version.Name != schema.Version:
		return invalidArgument("put", version.Name, schema.Version, "version does not match the table schema")
	}
	return nil
}

// MarshalGet marshals key into a get item request. The key must identify a
// single item.
func (t *Table) MarshalGet(key KeyCondition, opts ...func(*ReadOptions)) (*dynamodb.GetItemInput, error) {
	if err := checkItemKey("get", key); err != nil {
		return nil, err
	}

	var options ReadOptions
	for _, opt := range opts {
		opt(&options)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(t.TableName),
		Key:       key.ToMap(),
	}
	if options.ConsistentRead {
		input.ConsistentRead = aws.Bool(true)
	}
	if len(options.Projection) > 0 {
		projection, names, err := buildProjection(options.Projection)
		if err != nil {
			return nil, err
		}
		input.ProjectionExpression = projection
		input.ExpressionAttributeNames = names
	}

	t.logger().Debug("marshal get",
		slog.String("table", t.TableName),
		slog.Any("projection", options.Projection),
	)
	return input, nil
}

// MarshalDelete marshals key into a delete item request, conditioned on the
// conjunction of conditions. Pass [Mapper.VersionCondition] to delete only the
// version that was read.
func (t *Table) MarshalDelete(key KeyCondition, conditions ...Predicate) (*dynamodb.DeleteItemInput, error) {
	if err := checkItemKey("delete", key); err != nil {
		return nil, err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(t.TableName),
		Key:       key.ToMap(),
	}
	condition := Every(conditions...)
	if err := condition.Err(); err != nil {
		return nil, fmt.Errorf("invalid condition: %w", err)
	}
	if condition.IsSet() {
		input.ConditionExpression = aws.String(condition.Expression())
		input.ExpressionAttributeNames = condition.Names()
		input.ExpressionAttributeValues = nonEmpty(condition.Values())
	}

	t.logger().Debug("marshal delete",
		slog.String("table", t.TableName),
		slog.String("condition", condition.Expression()),
	)
	return input, nil
}

func checkItemKey(op string, key KeyCondition) error {
	if !key.IsSet() {
		return invalidArgument(op, "", nil, "key condition is empty")
	}
	if key.Ranged() {
		return invalidArgument(op, key.PartitionName(), key.Condition(), "a ranged key condition does not identify a single item")
	}
	return nil
}

// buildProjection compiles paths with the expression builder. Its name
// placeholders (#0, #1, ...) never collide with the prefixed ones used here.
func buildProjection(paths []string) (*string, map[string]string, error) {
	names := make([]expression.NameBuilder, len(paths))
	for i, p := range paths {
		names[i] = expression.Name(p)
	}
	projection := expression.NamesList(names[0], names[1:]...)
	expr, err := expression.NewBuilder().WithProjection(projection).Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build projection: %w", err)
	}
	return expr.Projection(), maps.Clone(expr.Names()), nil
}

// nonEmpty returns nil for an empty map; requests reject empty placeholder maps.
func nonEmpty(values map[string]types.AttributeValue) map[string]types.AttributeValue {
	if len(values) == 0 {
		return nil
	}
	return values
}
