// Package dynaexpr builds DynamoDB expressions and items without ever inlining a
// name or a literal into expression text.
package dynaexpr

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// KeySchema names the key and version attributes of a table.
type KeySchema struct {
	PartitionKey string `yaml:"partition_key"`      // Partition (hash) key attribute
	SortKey      string `yaml:"sort_key,omitempty"` // Sort (range) key attribute, empty for a simple key
	Version      string `yaml:"version,omitempty"`  // Version attribute for optimistic locking, empty to disable
}

// Validate reports whether the schema names a partition key distinct from the
// other attributes.
func (s KeySchema) Validate() error {
	switch {
	case s.PartitionKey == "":
		return invalidArgument("key schema", "", nil, "partition key is required")
	case s.SortKey != "" && s.SortKey == s.PartitionKey:
		return invalidArgument("key schema", s.SortKey, nil, "sort key must differ from the partition key")
	case s.Version != "" && (s.Version == s.PartitionKey || s.Version == s.SortKey):
		return invalidArgument("key schema", s.Version, nil, "version cannot be a key attribute")
	}
	return nil
}

// Marshaler can describe itself as item attributes.
type Marshaler interface {
	// MarshalAttributes is invoked by [Marshal]. Implementers add their fields
	// to the mapper and declare their key and version attributes.
	MarshalAttributes(*Mapper) error
}

// Unmarshaler can restore itself from a decoded item.
type Unmarshaler interface {
	// UnmarshalAttributes is invoked by [Unmarshal] with every attribute of the
	// stored item, the version included.
	UnmarshalAttributes(Record) error
}

// SliceOf is a convenience function for converting marshalers of a specific
// type into a slice of [Marshaler].
func SliceOf[T Marshaler](in ...T) []Marshaler {
	result := make([]Marshaler, len(in))
	for i, item := range in {
		result[i] = item
	}
	return result
}

// Marshal runs in against a new mapper and returns it, ready for
// [Table.MarshalPut] or [Mapper.AssembleForWrite].
func Marshal(in Marshaler) (*Mapper, error) {
	m := NewMapper()
	if err := in.MarshalAttributes(m); err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	if err := m.Err(); err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return m, nil
}

// MarshalAll marshals each element of in, typically to nest them with
// [Mapper.SetMappers].
func MarshalAll(in []Marshaler) ([]*Mapper, error) {
	out := make([]*Mapper, len(in))
	for i, m := range in {
		mapper, err := Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = mapper
	}
	return out, nil
}

// Unmarshal decodes item into out. The returned mapper holds the item's key and
// version, so that writing it back with [Table.MarshalPut] is conditioned on the
// version just read. An empty item yields [ErrItemNotFound].
func Unmarshal(item Item, schema KeySchema, out Unmarshaler) (*Mapper, error) {
	if len(item) == 0 {
		return nil, ErrItemNotFound
	}
	m, err := Load(item, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	record, err := m.AssembleForRead()
	if err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	if err := out.UnmarshalAttributes(record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	return m, nil
}

// UnmarshalList calls [Unmarshal] on each item in items and appends the
// results to out. This function is usually called to extract the results of
// [Table.MarshalQuery].
func UnmarshalList[T any, PT interface {
	*T
	Unmarshaler
}](items []Item, schema KeySchema, out *[]T) error {
	for i, item := range items {
		var value T
		if _, err := Unmarshal(item, schema, PT(&value)); err != nil {
			return fmt.Errorf("failed to unmarshal item %d: %w", i, err)
		}
		*out = append(*out, value)
	}
	return nil
}

// DynamoDBClient is the storage gateway the marshalled requests are sent to.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}
