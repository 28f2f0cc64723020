package dynaexpr

import (
	"errors"
	"math"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"
)

func TestMapper_OrdinaryFields(t *testing.T) {
	nested := NewMapper().Set("city", String("Paris"))
	m := NewMapper().
		Set("name", String("widget")).
		Set("price", Number(9.5)).
		Set("active", Bool(true)).
		Set("ignored", nil).
		SetNull("deleted_at").
		SetStrings("tags", []string{"a", "b"}).
		SetStrings("no_tags", []string{}).
		SetStrings("nil_tags", nil).
		SetNumbers("sizes", []attributevalue.Number{"1", "2.5"}).
		SetNumbers("no_sizes", []attributevalue.Number{}).
		SetMapper("address", nested).
		SetMapper("nil_mapper", nil).
		SetMappers("lines", []*Mapper{NewMapper().Set("sku", String("A1"))})
	require.NoError(t, m.Err())

	item := m.AssembleForWrite(true)
	require.Equal(t, map[string]types.AttributeValue{
		"name":       str("widget"),
		"price":      &types.AttributeValueMemberN{Value: "9.5"},
		"active":     &types.AttributeValueMemberBOOL{Value: true},
		"deleted_at": &types.AttributeValueMemberNULL{Value: true},
		"tags":       &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
		"no_tags":    &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		"sizes":      &types.AttributeValueMemberNS{Value: []string{"1", "2.5"}},
		"no_sizes":   &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
		"address": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"city": str("Paris"),
		}},
		"lines": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberM{Value: map[string]types.AttributeValue{"sku": str("A1")}},
		}},
	}, item)
}

func TestMapper_SetNumbersInvalid(t *testing.T) {
	m := NewMapper().SetNumbers("sizes", []attributevalue.Number{"1", "big"})
	require.ErrorIs(t, m.Err(), ErrInvalidArgument)
	require.NotContains(t, m.AssembleForWrite(false), "sizes")

	parent := NewMapper().SetMapper("child", m)
	require.ErrorIs(t, parent.Err(), ErrInvalidArgument)
}

func TestMapper_SetObject(t *testing.T) {
	type address struct {
		Street string `dynamodbav:"street"`
		Zip    int    `dynamodbav:"zip"`
	}

	m := NewMapper()
	require.NoError(t, m.SetObject("address", address{Street: "Main", Zip: 12345}))
	require.NoError(t, m.SetObject("none", nil))

	item := m.AssembleForWrite(false)
	require.Equal(t, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"street": str("Main"),
		"zip":    &types.AttributeValueMemberN{Value: "12345"},
	}}, item["address"])
	require.NotContains(t, item, "none")

	err := m.SetObject("bad", failingMarshaler{})
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.ErrorContains(t, err, "boom")
}

type failingMarshaler struct{}

func (failingMarshaler) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return nil, errors.New("boom")
}

func TestMapper_SetValue(t *testing.T) {
	m := NewMapper()
	require.NoError(t, m.SetValue("meta", map[string]any{
		"count": 3,
		"tags":  []any{"x", attributevalue.Number("1.50")},
	}))
	require.NoError(t, m.SetValue("skip", nil))

	err := m.SetValue("bad", struct{}{})
	require.ErrorIs(t, err, ErrInvalidArgument)

	item := m.AssembleForWrite(false)
	require.Len(t, item, 1)
	require.Equal(t, &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		"count": &types.AttributeValueMemberN{Value: "3"},
		"tags": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			str("x"),
			&types.AttributeValueMemberN{Value: "1.50"},
		}},
	}}, item["meta"])
}

func TestMapper_Roles(t *testing.T) {
	m := NewMapper().Set("pk", String("shadowed"))
	require.NoError(t, m.PartitionKey("pk", String("order#1")))
	require.NoError(t, m.SortKey("sk", Number(7)))
	require.NoError(t, m.Version("version", 0))

	item := m.AssembleForWrite(true)
	require.Equal(t, str("order#1"), item["pk"])
	require.Equal(t, &types.AttributeValueMemberN{Value: "7"}, item["sk"])
	require.Equal(t, &types.AttributeValueMemberN{Value: "1"}, item["version"])

	key, err := m.Key()
	require.NoError(t, err)
	require.Equal(t, "#key_pk = :key_pk AND #key_sk = :key_sk", key.Condition())

	require.NotContains(t, m.AssembleForWrite(false), "version")
}

func TestMapper_DuplicateRoles(t *testing.T) {
	m := NewMapper()
	require.NoError(t, m.PartitionKey("pk", String("a")))

	// The same attribute may be declared again; the latest value wins.
	require.NoError(t, m.PartitionKey("pk", String("b")))
	require.Equal(t, str("b"), m.AssembleForWrite(false)["pk"])

	err := m.PartitionKey("id", String("c"))
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, m.SortKey("sk", String("s")))
	require.ErrorIs(t, m.Field("other", String("s"), RoleSortKey), ErrInvalidArgument)

	require.NoError(t, m.Version("version", 3))
	require.ErrorIs(t, m.Version("rev", 1), ErrInvalidArgument)
}

func TestMapper_FieldValidation(t *testing.T) {
	m := NewMapper()
	require.ErrorIs(t, m.Field("pk", Bool(true), RolePartitionKey), ErrInvalidArgument)
	require.ErrorIs(t, m.Field("version", String("1"), RoleVersion), ErrInvalidArgument)
	require.ErrorIs(t, m.Field("version", NumberLit("1.5"), RoleVersion), ErrInvalidArgument)
	require.ErrorIs(t, m.Field("x", String("1"), Role(99)), ErrInvalidArgument)

	require.NoError(t, m.Field("plain", String("v"), RoleOrdinary))
	require.Equal(t, str("v"), m.AssembleForWrite(false)["plain"])

	_, err := m.Key()
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMapper_NonFiniteNumbers(t *testing.T) {
	m := NewMapper().Set("score", Number(math.NaN())).Set("status", String("OPEN"))
	require.ErrorIs(t, m.Err(), ErrInvalidArgument)
	require.NotContains(t, m.AssembleForWrite(false), "score")

	require.ErrorIs(t, NewMapper().SetValue("score", math.Inf(1)), ErrInvalidArgument)
	require.ErrorIs(t, NewMapper().Field("score", Number(math.Inf(-1)), RoleOrdinary), ErrInvalidArgument)
	require.ErrorIs(t, NewMapper().PartitionKey("pk", Number(math.NaN())), ErrInvalidArgument)
}

func TestMapper_AssembleForRead(t *testing.T) {
	m := NewMapper().
		Set("name", String("widget")).
		Set("price", NumberLit("19.99")).
		SetNull("note").
		SetStrings("tags", []string{"a"}).
		SetMapper("dims", NewMapper().Set("w", Number(2)))
	require.NoError(t, m.PartitionKey("pk", String("p")))
	require.NoError(t, m.Version("version", 4))

	record, err := m.AssembleForRead()
	require.NoError(t, err)
	require.Equal(t, Record{
		"pk":      "p",
		"name":    "widget",
		"price":   attributevalue.Number("19.99"),
		"note":    nil,
		"tags":    []any{"a"},
		"dims":    Record{"w": attributevalue.Number("2")},
		"version": attributevalue.Number("4"),
	}, record)
}

func TestLoad(t *testing.T) {
	schema := KeySchema{PartitionKey: "pk", SortKey: "sk", Version: "version"}
	item := map[string]types.AttributeValue{
		"pk":      str("order#1"),
		"sk":      str("order"),
		"version": &types.AttributeValueMemberN{Value: "5"},
		"status":  str("OPEN"),
	}

	m, err := Load(item, schema)
	require.NoError(t, err)

	v, ok := m.VersionState()
	require.True(t, ok)
	require.Equal(t, VersionState{Name: "version", Value: 5}, v)

	key, err := m.Key()
	require.NoError(t, err)
	require.True(t, key.Composite())

	written := m.AssembleForWrite(true)
	require.Equal(t, &types.AttributeValueMemberN{Value: "6"}, written["version"])
	require.Equal(t, str("OPEN"), written["status"])
}

func TestLoad_MissingVersionStartsAtZero(t *testing.T) {
	m, err := Load(map[string]types.AttributeValue{"pk": str("a")}, KeySchema{PartitionKey: "pk", Version: "version"})
	require.NoError(t, err)

	v, ok := m.VersionState()
	require.True(t, ok)
	require.Equal(t, int64(0), v.Value)
}

func TestLoad_InvalidVersion(t *testing.T) {
	schema := KeySchema{PartitionKey: "pk", Version: "version"}
	for _, bad := range []types.AttributeValue{
		str("abc"),
		&types.AttributeValueMemberN{Value: "1.5"},
		&types.AttributeValueMemberN{Value: "-1"},
		&types.AttributeValueMemberBOOL{Value: true},
		&types.AttributeValueMemberNULL{Value: true},
	} {
		_, err := Load(map[string]types.AttributeValue{"pk": str("a"), "version": bad}, schema)
		require.Error(t, err)
		require.True(t, errors.Is(err, ErrDecode), "%#v", bad)
		require.True(t, errors.Is(err, ErrInvalidArgument), "%#v", bad)

		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		require.Equal(t, "version", decodeErr.Attribute)
	}
}

func TestLoad_UnsupportedTag(t *testing.T) {
	_, err := Load(map[string]types.AttributeValue{
		"pk":    str("a"),
		"blobs": &types.AttributeValueMemberBS{Value: [][]byte{{1}}},
	}, KeySchema{PartitionKey: "pk"})
	require.ErrorIs(t, err, ErrDecode)
	require.False(t, errors.Is(err, ErrInvalidArgument))

	_, err = Load(map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberBOOL{Value: true},
	}, KeySchema{PartitionKey: "pk"})
	require.ErrorIs(t, err, ErrDecode)
}
