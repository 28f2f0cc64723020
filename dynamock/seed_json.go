package dynamock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/nisimpson/dynaexpr"
)

// SeedFromJSON reads a JSON array of objects, converts each object into an
// item and persists it to the table. Attributes named by the table's key
// schema are declared as keys, and the version attribute, if present, as the
// item's version. JSON numbers keep their exact decimal text.
// Returns the number of items saved and any errors generated.
func (s *SeedTestData) SeedFromJSON(ctx context.Context, r io.Reader) (int, error) {
	mappers, err := MappersFromJSON(r, s.table.Schema)
	if err != nil {
		return 0, err
	}

	count := 0
	for i, m := range mappers {
		if err := s.SeedMapper(ctx, m); err != nil {
			return count, fmt.Errorf("failed to seed item at index %d: %w", i, err)
		}
		count++
	}
	return count, nil
}

// MappersFromJSON converts a JSON array of objects into mappers, routing the
// attributes named by schema to the key and version slots. When the schema
// names a version, an object without one starts at version 0.
func MappersFromJSON(r io.Reader, schema dynaexpr.KeySchema) ([]*dynaexpr.Mapper, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var document []map[string]any
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("failed to parse JSON document: %w", err)
	}

	mappers := make([]*dynaexpr.Mapper, 0, len(document))
	for i, object := range document {
		m, err := mapperFromObject(object, schema)
		if err != nil {
			return nil, fmt.Errorf("failed to convert object at index %d: %w", i, err)
		}
		mappers = append(mappers, m)
	}
	return mappers, nil
}

func mapperFromObject(object map[string]any, schema dynaexpr.KeySchema) (*dynaexpr.Mapper, error) {
	m := dynaexpr.NewMapper()
	for name, raw := range object {
		value := fromJSON(raw)
		switch name {
		case schema.PartitionKey, schema.SortKey:
			lit, err := keyLiteral(name, value)
			if err != nil {
				return nil, err
			}
			role := dynaexpr.RolePartitionKey
			if name == schema.SortKey {
				role = dynaexpr.RoleSortKey
			}
			if err := m.Field(name, lit, role); err != nil {
				return nil, err
			}
		case schema.Version:
			n, ok := value.(attributevalue.Number)
			if !ok {
				return nil, fmt.Errorf("version attribute %q must be a number", name)
			}
			version, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("version attribute %q: %w", name, err)
			}
			if err := m.Version(name, version); err != nil {
				return nil, err
			}
		default:
			if value == nil {
				m.SetNull(name)
				continue
			}
			if err := m.SetValue(name, value); err != nil {
				return nil, err
			}
		}
	}

	if schema.PartitionKey != "" {
		if _, ok := object[schema.PartitionKey]; !ok {
			return nil, fmt.Errorf("object missing partition key %q", schema.PartitionKey)
		}
	}
	if _, ok := m.VersionState(); schema.Version != "" && !ok {
		if err := m.Version(schema.Version, 0); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func keyLiteral(name string, value any) (dynaexpr.Literal, error) {
	switch v := value.(type) {
	case string:
		return dynaexpr.String(v), nil
	case attributevalue.Number:
		return dynaexpr.NumberOf(v)
	default:
		return nil, fmt.Errorf("key attribute %q must be a string or a number", name)
	}
}

// fromJSON converts a value decoded with UseNumber into the host values
// accepted by [dynaexpr.Encode].
func fromJSON(v any) any {
	switch v := v.(type) {
	case json.Number:
		return attributevalue.Number(v.String())
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = fromJSON(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = fromJSON(elem)
		}
		return out
	default:
		return v
	}
}
