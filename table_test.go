package dynaexpr

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

var testSchema = KeySchema{PartitionKey: "pk", SortKey: "sk", Version: "version"}

func newOrderMapper(t *testing.T) *Mapper {
	t.Helper()
	m := NewMapper().Set("status", String("OPEN"))
	require.NoError(t, m.PartitionKey("pk", String("order#1")))
	require.NoError(t, m.SortKey("sk", String("order")))
	require.NoError(t, m.Version("version", 0))
	return m
}

func TestTable_MarshalPut(t *testing.T) {
	table := NewTable("orders", testSchema)
	m := newOrderMapper(t)

	input, err := table.MarshalPut(m)
	require.NoError(t, err)
	require.Equal(t, "orders", aws.ToString(input.TableName))
	require.Equal(t, "attribute_not_exists(#attr_version) OR #attr_version = :val_version", aws.ToString(input.ConditionExpression))
	require.Equal(t, map[string]string{"#attr_version": "version"}, input.ExpressionAttributeNames)
	require.Equal(t, map[string]types.AttributeValue{
		":val_version": &types.AttributeValueMemberN{Value: "0"},
	}, input.ExpressionAttributeValues)
	require.Equal(t, map[string]types.AttributeValue{
		"pk":      str("order#1"),
		"sk":      str("order"),
		"status":  str("OPEN"),
		"version": &types.AttributeValueMemberN{Value: "1"},
	}, input.Item)

	// The mapper now holds the version it wrote.
	input, err = table.MarshalPut(m)
	require.NoError(t, err)
	require.Equal(t, &types.AttributeValueMemberN{Value: "1"}, input.ExpressionAttributeValues[":val_version"])
	require.Equal(t, &types.AttributeValueMemberN{Value: "2"}, input.Item["version"])
}

func TestTable_MarshalPut_WithConditions(t *testing.T) {
	table := NewTable("orders", testSchema)
	m := newOrderMapper(t)

	input, err := table.MarshalPut(m, Equals("status", String("DRAFT")))
	require.NoError(t, err)
	require.Equal(t,
		"#attr_status = :val_status AND (attribute_not_exists(#attr_version) OR #attr_version = :val_version)",
		aws.ToString(input.ConditionExpression))
	require.Len(t, input.ExpressionAttributeValues, 2)
	require.Equal(t, str("DRAFT"), input.ExpressionAttributeValues[":val_status"])
}

func TestTable_MarshalPut_DoesNotMutateConditions(t *testing.T) {
	table := NewTable("orders", testSchema)
	conditions := []Predicate{Equals("status", String("DRAFT")), Equals("owner", String("alice"))}

	input, err := table.MarshalPut(newOrderMapper(t), conditions[:1]...)
	require.NoError(t, err)
	require.Equal(t,
		"#attr_status = :val_status AND (attribute_not_exists(#attr_version) OR #attr_version = :val_version)",
		aws.ToString(input.ConditionExpression))
	require.Equal(t, "#attr_owner = :val_owner", conditions[1].Expression())
}

func TestTable_MarshalPut_InvalidCondition(t *testing.T) {
	table := NewTable("orders", testSchema)
	m := newOrderMapper(t)

	_, err := table.MarshalPut(m, Equals("total", Number(math.Inf(1))))
	require.ErrorIs(t, err, ErrInvalidArgument)

	v, _ := m.VersionState()
	require.Zero(t, v.Value)

	key, err := m.Key()
	require.NoError(t, err)
	_, err = table.MarshalDelete(key, Equals("total", Number(math.NaN())))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTable_MarshalPut_Unconditioned(t *testing.T) {
	table := NewTable("events", KeySchema{PartitionKey: "id"})
	m := NewMapper().Set("kind", String("click"))
	require.NoError(t, m.PartitionKey("id", String("e1")))

	input, err := table.MarshalPut(m)
	require.NoError(t, err)
	require.Nil(t, input.ConditionExpression)
	require.Nil(t, input.ExpressionAttributeNames)
	require.Nil(t, input.ExpressionAttributeValues)
	require.Len(t, input.Item, 2)

	// Attribute comparisons carry names but no values.
	cond, err := CompareAttributes("spent", LessOrEqual, "budget")
	require.NoError(t, err)
	input, err = table.MarshalPut(m, cond)
	require.NoError(t, err)
	require.Equal(t, "#attr_spent <= #attr_budget", aws.ToString(input.ConditionExpression))
	require.Nil(t, input.ExpressionAttributeValues)
}

func TestTable_MarshalPut_KeyErrors(t *testing.T) {
	table := NewTable("orders", testSchema)

	_, err := table.MarshalPut(NewMapper().Set("status", String("OPEN")))
	require.ErrorIs(t, err, ErrInvalidArgument)

	m := NewMapper()
	require.NoError(t, m.PartitionKey("id", String("x")))
	_, err = table.MarshalPut(m)
	require.ErrorIs(t, err, ErrInvalidArgument)

	m = NewMapper()
	require.NoError(t, m.PartitionKey("pk", String("x")))
	_, err = table.MarshalPut(m)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "sort key is required")

	m = NewMapper()
	require.NoError(t, m.PartitionKey("pk", String("x")))
	require.NoError(t, m.SortKey("other", String("y")))
	require.NoError(t, m.Version("version", 0))
	_, err = table.MarshalPut(m)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "sort key does not match")

	m = NewMapper()
	require.NoError(t, m.PartitionKey("pk", String("x")))
	require.NoError(t, m.SortKey("sk", String("y")))
	_, err = table.MarshalPut(m)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "version is required")

	m = NewMapper()
	require.NoError(t, m.PartitionKey("pk", String("x")))
	require.NoError(t, m.SortKey("sk", String("y")))
	require.NoError(t, m.Version("rev", 0))
	_, err = table.MarshalPut(m)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "version does not match")

	m = NewMapper()
	require.NoError(t, m.PartitionKey("id", String("x")))
	require.NoError(t, m.SortKey("sk", String("y")))
	_, err = NewTable("events", KeySchema{PartitionKey: "id"}).MarshalPut(m)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "no sort key")

	m = newOrderMapper(t).SetNumbers("sizes", []attributevalue.Number{"NaN"})
	_, err = table.MarshalPut(m)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// A failed put leaves the version untouched.
	v, _ := m.VersionState()
	require.Zero(t, v.Value)
}

func TestTable_MarshalGet(t *testing.T) {
	table := NewTable("orders", testSchema)
	key, err := CompositeKey("pk", String("order#1"), "sk", String("order"))
	require.NoError(t, err)

	input, err := table.MarshalGet(key)
	require.NoError(t, err)
	require.Equal(t, key.ToMap(), input.Key)
	require.Nil(t, input.ConsistentRead)
	require.Nil(t, input.ProjectionExpression)

	input, err = table.MarshalGet(key, WithProjection("name", "address.city"), WithConsistentRead())
	require.NoError(t, err)
	require.True(t, aws.ToBool(input.ConsistentRead))
	require.Equal(t, "#0, #1.#2", aws.ToString(input.ProjectionExpression))
	require.Equal(t, map[string]string{"#0": "name", "#1": "address", "#2": "city"}, input.ExpressionAttributeNames)
}

func TestTable_MarshalGet_InvalidKey(t *testing.T) {
	table := NewTable("orders", testSchema)

	_, err := table.MarshalGet(KeyCondition{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	ranged, err := RangeKey("pk", String("p"), BeginsWith("sk", "order#"))
	require.NoError(t, err)
	_, err = table.MarshalGet(ranged)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = table.MarshalDelete(ranged)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTable_MarshalDelete(t *testing.T) {
	table := NewTable("orders", testSchema)

	m, err := Load(map[string]types.AttributeValue{
		"pk":      str("order#1"),
		"sk":      str("order"),
		"version": &types.AttributeValueMemberN{Value: "3"},
	}, testSchema)
	require.NoError(t, err)
	key, err := m.Key()
	require.NoError(t, err)

	input, err := table.MarshalDelete(key, m.VersionCondition())
	require.NoError(t, err)
	require.Equal(t, key.ToMap(), input.Key)
	require.Equal(t, "attribute_not_exists(#attr_version) OR #attr_version = :val_version", aws.ToString(input.ConditionExpression))
	require.Equal(t, &types.AttributeValueMemberN{Value: "3"}, input.ExpressionAttributeValues[":val_version"])

	input, err = table.MarshalDelete(key)
	require.NoError(t, err)
	require.Nil(t, input.ConditionExpression)
}

func TestLoadTable(t *testing.T) {
	config := `
table_name: orders
schema:
  partition_key: pk
  sort_key: sk
  version: version
`
	table, err := LoadTable(strings.NewReader(config))
	require.NoError(t, err)
	require.Equal(t, "orders", table.TableName)
	require.Equal(t, testSchema, table.Schema)
}

func TestLoadTable_Invalid(t *testing.T) {
	tests := map[string]string{
		"missing name":   "schema:\n  partition_key: pk\n",
		"missing key":    "table_name: orders\n",
		"duplicate key":  "table_name: orders\nschema:\n  partition_key: pk\n  sort_key: pk\n",
		"version is key": "table_name: orders\nschema:\n  partition_key: pk\n  version: pk\n",
		"malformed yaml": "table_name: [orders\n",
	}
	for name, config := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadTable(strings.NewReader(config))
			require.Error(t, err)
		})
	}
}

func TestTable_Logger(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("orders", testSchema)
	table.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := table.MarshalPut(newOrderMapper(t))
	require.NoError(t, err)
	require.Contains(t, buf.String(), "marshal put")
	require.Contains(t, buf.String(), "table=orders")
}
