package dynamock

import (
	"errors"
	"maps"

	"github.com/nisimpson/dynaexpr"
)

// ItemOption is a functional option for configuring items during building.
type ItemOption func(*ItemBuilder)

// ItemBuilder provides item building through functional options only.
type ItemBuilder struct {
	*TestItem
}

// NewItem creates a new item builder with the given options applied.
func NewItem(opts ...ItemOption) *ItemBuilder {
	builder := &ItemBuilder{
		TestItem: &TestItem{
			attributes: make(map[string]any),
		},
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder
}

// Build creates a TestItem from the builder configuration.
func (b *ItemBuilder) Build() *TestItem {
	item := *b.TestItem
	item.attributes = maps.Clone(b.attributes)
	return &item
}

type keyField struct {
	name  string
	value dynaexpr.Literal
}

// WithPartitionKey sets the partition key attribute.
func WithPartitionKey(name string, value dynaexpr.Literal) ItemOption {
	return func(b *ItemBuilder) {
		b.partition = &keyField{name: name, value: value}
	}
}

// WithSortKey sets the sort key attribute.
func WithSortKey(name string, value dynaexpr.Literal) ItemOption {
	return func(b *ItemBuilder) {
		b.sort = &keyField{name: name, value: value}
	}
}

// WithKey sets the partition and sort key attributes from a table schema.
func WithKey(schema dynaexpr.KeySchema, partition, sort string) ItemOption {
	return func(b *ItemBuilder) {
		WithPartitionKey(schema.PartitionKey, dynaexpr.String(partition))(b)
		if schema.SortKey != "" {
			WithSortKey(schema.SortKey, dynaexpr.String(sort))(b)
		}
	}
}

// WithVersion declares the version attribute with the last persisted version.
func WithVersion(name string, current int64) ItemOption {
	return func(b *ItemBuilder) {
		b.versionName = name
		b.version = current
	}
}

// WithAttribute sets an ordinary attribute. The value is anything accepted by
// [dynaexpr.Encode], literals included.
func WithAttribute(name string, value any) ItemOption {
	return func(b *ItemBuilder) {
		b.attributes[name] = value
	}
}

// WithAttributes sets several ordinary attributes.
func WithAttributes(attributes map[string]any) ItemOption {
	return func(b *ItemBuilder) {
		maps.Copy(b.attributes, attributes)
	}
}

// WithNull stores an explicit null for name.
func WithNull(name string) ItemOption {
	return func(b *ItemBuilder) {
		b.nulls = append(b.nulls, name)
	}
}

// TestItem is a generic test item that implements the dynaexpr Marshaler and
// Unmarshaler interfaces.
type TestItem struct {
	partition   *keyField
	sort        *keyField
	versionName string
	version     int64
	attributes  map[string]any
	nulls       []string

	// record holds the attributes read by UnmarshalAttributes.
	record dynaexpr.Record
}

// MarshalAttributes implements the dynaexpr.Marshaler interface.
func (e *TestItem) MarshalAttributes(m *dynaexpr.Mapper) error {
	var errs []error
	for name, value := range e.attributes {
		errs = append(errs, m.SetValue(name, value))
	}
	for _, name := range e.nulls {
		m.SetNull(name)
	}
	if e.partition != nil {
		errs = append(errs, m.PartitionKey(e.partition.name, e.partition.value))
	}
	if e.sort != nil {
		errs = append(errs, m.SortKey(e.sort.name, e.sort.value))
	}
	if e.versionName != "" {
		errs = append(errs, m.Version(e.versionName, e.version))
	}
	return errors.Join(errs...)
}

// UnmarshalAttributes implements the dynaexpr.Unmarshaler interface.
func (e *TestItem) UnmarshalAttributes(r dynaexpr.Record) error {
	e.record = r.Clone()
	if e.versionName != "" {
		version, err := r.Version(e.versionName)
		if err != nil {
			return err
		}
		e.version = version
	}
	return nil
}

// Record returns the attributes read by UnmarshalAttributes, nil before.
func (e *TestItem) Record() dynaexpr.Record {
	return e.record
}

// Attribute returns an ordinary attribute set on the builder.
func (e *TestItem) Attribute(name string) (any, bool) {
	v, ok := e.attributes[name]
	return v, ok
}

// Version returns the held version.
func (e *TestItem) Version() int64 {
	return e.version
}

// Ensure TestItem implements all required interfaces
var _ dynaexpr.Marshaler = (*TestItem)(nil)
var _ dynaexpr.Unmarshaler = (*TestItem)(nil)
