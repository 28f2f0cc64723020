package dynaexpr

import (
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Role routes a field either to the ordinary attribute map or to one of the
// dedicated key and version slots of a [Mapper].
type Role int

const (
	RoleOrdinary Role = iota
	RolePartitionKey
	RoleSortKey
	RoleVersion
)

func (r Role) String() string {
	switch r {
	case RoleOrdinary:
		return "ordinary"
	case RolePartitionKey:
		return "partition key"
	case RoleSortKey:
		return "sort key"
	case RoleVersion:
		return "version"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Mapper accumulates the attributes of one item. Ordinary fields are added with
// the chained Set methods; the partition key, sort key and version are held in
// dedicated slots until the item is assembled.
//
// A Mapper is a builder owned by a single call chain and is not safe for
// concurrent use.
type Mapper struct {
	fields    map[string]types.AttributeValue
	partition *keyPart
	sort      *keyPart
	version   *VersionState

	// err holds the first failure of a chained adder.
	err error
}

// NewMapper returns an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{fields: make(map[string]types.AttributeValue)}
}

// Err returns the first error recorded by a chained adder, if any.
func (m *Mapper) Err() error {
	return m.err
}

func (m *Mapper) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// Set adds an ordinary scalar field. A nil literal is ignored; use
// [Mapper.SetNull] to store an explicit null. A number literal that is not a
// finite decimal is recorded as the mapper's error and not stored.
func (m *Mapper) Set(name string, lit Literal) *Mapper {
	if lit == nil {
		return m
	}
	if err := checkLiteral("set", name, lit); err != nil {
		m.fail(err)
		return m
	}
	m.fields[name] = literalValue(lit)
	return m
}

// SetNull stores an explicit NULL for name.
func (m *Mapper) SetNull(name string) *Mapper {
	m.fields[name] = &types.AttributeValueMemberNULL{Value: true}
	return m
}

// SetStrings adds a string set. A nil slice is ignored and an empty slice is
// stored as an empty list, since sets cannot be empty.
func (m *Mapper) SetStrings(name string, values []string) *Mapper {
	switch {
	case values == nil:
	case len(values) == 0:
		m.fields[name] = emptyList()
	default:
		m.fields[name] = &types.AttributeValueMemberSS{Value: append([]string(nil), values...)}
	}
	return m
}

// SetNumbers adds a number set. A nil slice is ignored and an empty slice is
// stored as an empty list. An element that is not decimal text is recorded as
// the mapper's error.
func (m *Mapper) SetNumbers(name string, values []attributevalue.Number) *Mapper {
	switch {
	case values == nil:
	case len(values) == 0:
		m.fields[name] = emptyList()
	default:
		ns := make([]string, len(values))
		for i, n := range values {
			if !decimalPattern.MatchString(n.String()) {
				m.fail(invalidArgument("set numbers", fmt.Sprintf("%s[%d]", name, i), n.String(), "not a decimal number"))
				return m
			}
			ns[i] = n.String()
		}
		m.fields[name] = &types.AttributeValueMemberNS{Value: ns}
	}
	return m
}

// SetMapper adds a nested map built by another mapper. A nil mapper is ignored.
func (m *Mapper) SetMapper(name string, nested *Mapper) *Mapper {
	if nested == nil {
		return m
	}
	if nested.err != nil {
		m.fail(fmt.Errorf("nested %q: %w", name, nested.err))
		return m
	}
	m.fields[name] = &types.AttributeValueMemberM{Value: nested.AssembleForWrite(false)}
	return m
}

// SetMappers adds a list of nested maps.
func (m *Mapper) SetMappers(name string, nested []*Mapper) *Mapper {
	if nested == nil {
		return m
	}
	list := make([]types.AttributeValue, 0, len(nested))
	for i, n := range nested {
		if n == nil {
			list = append(list, &types.AttributeValueMemberNULL{Value: true})
			continue
		}
		if n.err != nil {
			m.fail(fmt.Errorf("nested %q[%d]: %w", name, i, n.err))
			return m
		}
		list = append(list, &types.AttributeValueMemberM{Value: n.AssembleForWrite(false)})
	}
	m.fields[name] = &types.AttributeValueMemberL{Value: list}
	return m
}

// SetObject adds a field marshalled from a Go value with [attributevalue.Marshal],
// honoring its dynamodbav struct tags. A nil value is ignored.
func (m *Mapper) SetObject(name string, v any) error {
	if v == nil {
		return nil
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal %q: %w", ErrInvalidArgument, name, err)
	}
	m.fields[name] = av
	return nil
}

// SetValue adds a field from a plain host value, as accepted by [Encode]. A nil
// value is ignored.
func (m *Mapper) SetValue(name string, v any) error {
	if v == nil {
		return nil
	}
	av, err := encodeAt(name, v)
	if err != nil {
		return err
	}
	m.fields[name] = av
	return nil
}

// Field adds a field with an explicit role. Key roles accept string, number and
// binary literals; the version role accepts a non-negative integer number.
//
// Declaring a role that another attribute already holds fails with
// [ErrInvalidArgument]. Declaring it again for the same attribute replaces the
// held value.
func (m *Mapper) Field(name string, lit Literal, role Role) error {
	switch role {
	case RoleOrdinary:
		if err := checkLiteral("field", name, lit); err != nil {
			return err
		}
		m.Set(name, lit)
		return nil
	case RolePartitionKey:
		return m.setKey(&m.partition, role, name, lit)
	case RoleSortKey:
		return m.setKey(&m.sort, role, name, lit)
	case RoleVersion:
		if m.version != nil && m.version.Name != name {
			return invalidArgument("field", name, m.version.Name, "version is already declared by another attribute")
		}
		n, ok := lit.(NumberLit)
		if !ok {
			return invalidArgument("field", name, lit, "version must be an integer number")
		}
		value, err := parseVersion(name, "N", string(n))
		if err != nil {
			return err
		}
		m.version = &VersionState{Name: name, Value: value}
		return nil
	default:
		return invalidArgument("field", name, int(role), "unknown role")
	}
}

func (m *Mapper) setKey(slot **keyPart, role Role, name string, lit Literal) error {
	if held := *slot; held != nil && held.name != name {
		return invalidArgument("field", name, held.name, role.String()+" is already declared by another attribute")
	}
	part, err := newKeyPart(role.String(), name, lit)
	if err != nil {
		return err
	}
	*slot = part
	return nil
}

// PartitionKey declares the partition key attribute.
func (m *Mapper) PartitionKey(name string, lit Literal) error {
	return m.Field(name, lit, RolePartitionKey)
}

// SortKey declares the sort key attribute.
func (m *Mapper) SortKey(name string, lit Literal) error {
	return m.Field(name, lit, RoleSortKey)
}

// Version declares the version attribute with the last persisted version, 0 for
// an item that was never written.
func (m *Mapper) Version(name string, current int64) error {
	return m.Field(name, Number(current), RoleVersion)
}

// Key returns the equality key condition of the declared key slots.
func (m *Mapper) Key() (KeyCondition, error) {
	if m.partition == nil {
		return KeyCondition{}, invalidArgument("key", "", nil, "no partition key declared")
	}
	return KeyCondition{partition: m.partition, sort: m.sort}, nil
}

// AssembleForWrite returns the item to store. The key slots and, when
// includeVersion is set, the next version are laid over the ordinary fields.
func (m *Mapper) AssembleForWrite(includeVersion bool) map[string]types.AttributeValue {
	item := m.assemble()
	if includeVersion && m.version != nil {
		item[m.version.Name] = m.version.next()
	}
	return item
}

// AssembleForRead returns the fields decoded to plain host values. The version,
// if declared, holds its current value.
func (m *Mapper) AssembleForRead() (Record, error) {
	item := m.assemble()
	if m.version != nil {
		item[m.version.Name] = literalValue(Number(m.version.Value))
	}
	return DecodeItem(item)
}

func (m *Mapper) assemble() map[string]types.AttributeValue {
	item := maps.Clone(m.fields)
	if item == nil {
		item = make(map[string]types.AttributeValue)
	}
	if m.partition != nil {
		item[m.partition.name] = m.partition.value
	}
	if m.sort != nil {
		item[m.sort.name] = m.sort.value
	}
	return item
}

// Load rebuilds a mapper from a stored item. Attributes named by schema are
// routed to the key and version slots; everything else is ordinary.
//
// The version attribute must hold an integer; anything else fails with a
// [DecodeError] instead of defaulting to zero.
func Load(item map[string]types.AttributeValue, schema KeySchema) (*Mapper, error) {
	if _, err := DecodeItem(item); err != nil {
		return nil, err
	}

	m := NewMapper()
	for name, av := range item {
		switch name {
		case schema.PartitionKey:
			m.partition = &keyPart{name: name, value: av}
		case schema.SortKey:
			m.sort = &keyPart{name: name, value: av}
		case schema.Version:
			version, err := versionOf(name, av)
			if err != nil {
				return nil, err
			}
			m.version = &VersionState{Name: name, Value: version}
		default:
			m.fields[name] = av
		}
	}

	for _, part := range []*keyPart{m.partition, m.sort} {
		if part == nil {
			continue
		}
		switch part.value.(type) {
		case *types.AttributeValueMemberS, *types.AttributeValueMemberN, *types.AttributeValueMemberB:
		default:
			return nil, &DecodeError{Attribute: part.name, Tag: attributeTag(part.value)}
		}
	}

	if schema.Version != "" && m.version == nil {
		m.version = &VersionState{Name: schema.Version}
	}
	return m, nil
}

func versionOf(name string, av types.AttributeValue) (int64, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		return parseVersion(name, "N", v.Value)
	case *types.AttributeValueMemberS:
		return parseVersion(name, "S", v.Value)
	default:
		return 0, &DecodeError{
			Attribute: name,
			Tag:       attributeTag(av),
			Err:       invalidArgument("version", name, nil, "version must be an integer"),
		}
	}
}

func emptyList() types.AttributeValue {
	return &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
}
