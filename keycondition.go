package dynaexpr

import (
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyCondition constrains the primary key of a table or index: an equality on the
// partition attribute, optionally followed by either an equality on the sort
// attribute or an arbitrary [Predicate] on it.
type KeyCondition struct {
	partition *keyPart
	sort      *keyPart
	sortRange Predicate
}

type keyPart struct {
	name  string
	value types.AttributeValue
}

func (k keyPart) clause() (expr string, names map[string]string, values map[string]types.AttributeValue) {
	ref, names := ResolvePath(k.name, KeyNamePrefix)
	key := valueKey(k.name, KeyValuePrefix)
	return fmt.Sprintf("%s = %s", ref, key), names, map[string]types.AttributeValue{key: k.value}
}

// PartitionKey returns a key condition matching a single partition.
func PartitionKey(name string, value Literal) (KeyCondition, error) {
	part, err := newKeyPart("partition key", name, value)
	if err != nil {
		return KeyCondition{}, err
	}
	return KeyCondition{partition: part}, nil
}

// CompositeKey returns a key condition matching a single item by partition and
// sort key equality.
func CompositeKey(partition string, partitionValue Literal, sort string, sortValue Literal) (KeyCondition, error) {
	kc, err := PartitionKey(partition, partitionValue)
	if err != nil {
		return KeyCondition{}, err
	}
	if sort == partition {
		return KeyCondition{}, invalidArgument("sort key", sort, nil, "sort key must differ from the partition key")
	}
	if kc.sort, err = newKeyPart("sort key", sort, sortValue); err != nil {
		return KeyCondition{}, err
	}
	return kc, nil
}

// KeyFromMap returns an equality key condition from a map of one or two key
// attributes. The attribute named partition is the partition key; the other
// entry, if any, is the sort key.
func KeyFromMap(partition string, key map[string]Literal) (KeyCondition, error) {
	if n := len(key); n < 1 || n > 2 {
		return KeyCondition{}, invalidArgument("key", partition, n, "a key has exactly one or two attributes")
	}
	partitionValue, ok := key[partition]
	if !ok {
		return KeyCondition{}, invalidArgument("key", partition, nil, "partition key attribute is missing")
	}
	for name, value := range key {
		if name != partition {
			return CompositeKey(partition, partitionValue, name, value)
		}
	}
	return PartitionKey(partition, partitionValue)
}

// RangeKey returns a key condition matching one partition and the sort key items
// that satisfy sort, e.g. a [Between] or [BeginsWith] predicate on the sort key.
func RangeKey(partition string, partitionValue Literal, sort Predicate) (KeyCondition, error) {
	kc, err := PartitionKey(partition, partitionValue)
	if err != nil {
		return KeyCondition{}, err
	}
	if !sort.IsSet() {
		return KeyCondition{}, invalidArgument("sort key", "", nil, "sort predicate is empty")
	}
	if err := sort.Err(); err != nil {
		return KeyCondition{}, err
	}
	kc.sortRange = sort
	if sort.eq != nil {
		// A plain equality still identifies a single item.
		part, err := newKeyPart("sort key", sort.eq.path, literalFromValue(sort.eq.value))
		if err != nil {
			return KeyCondition{}, err
		}
		kc.sort = part
	}
	return kc, nil
}

func newKeyPart(op, name string, value Literal) (*keyPart, error) {
	if name == "" {
		return nil, invalidArgument(op, name, nil, "attribute name is empty")
	}
	switch value.(type) {
	case StringLit, NumberLit, BinaryLit:
		if err := checkLiteral(op, name, value); err != nil {
			return nil, err
		}
		return &keyPart{name: name, value: literalValue(value)}, nil
	default:
		return nil, invalidArgument(op, name, value, "key values must be strings, numbers or binary")
	}
}

// literalFromValue recovers a key literal from a wire value produced by a literal.
func literalFromValue(av types.AttributeValue) Literal {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return StringLit(v.Value)
	case *types.AttributeValueMemberN:
		return NumberLit(v.Value)
	case *types.AttributeValueMemberB:
		return BinaryLit(v.Value)
	case *types.AttributeValueMemberBOOL:
		return BoolLit(v.Value)
	default:
		return nil
	}
}

// IsSet reports whether kc holds a partition key.
func (kc KeyCondition) IsSet() bool {
	return kc.partition != nil
}

// Composite reports whether kc constrains the sort key as well as the partition key.
func (kc KeyCondition) Composite() bool {
	return kc.sort != nil || kc.sortRange.IsSet()
}

// Ranged reports whether the sort key constraint is a predicate rather than a
// plain equality. A ranged condition cannot identify a single item.
func (kc KeyCondition) Ranged() bool {
	return kc.sortRange.IsSet() && kc.sortRange.eq == nil
}

// PartitionName returns the name of the partition key attribute.
func (kc KeyCondition) PartitionName() string {
	if kc.partition == nil {
		return ""
	}
	return kc.partition.name
}

// Partition returns the partition equality alone.
func (kc KeyCondition) Partition() KeyCondition {
	return KeyCondition{partition: kc.partition}
}

// Sort returns the sort key equality as a single attribute key condition. It
// reports false when there is no sort constraint or when the constraint is a
// range, membership or other predicate that no single equality can represent.
func (kc KeyCondition) Sort() (KeyCondition, bool) {
	if kc.sort == nil {
		return KeyCondition{}, false
	}
	return KeyCondition{partition: kc.sort}, true
}

// ToMap returns the attributes constrained by equality as a key map, suitable
// for GetItem and DeleteItem requests.
func (kc KeyCondition) ToMap() map[string]types.AttributeValue {
	key := make(map[string]types.AttributeValue, 2)
	if kc.partition != nil {
		key[kc.partition.name] = kc.partition.value
	}
	if kc.sort != nil {
		key[kc.sort.name] = kc.sort.value
	}
	return key
}

// Condition returns the key condition expression text.
func (kc KeyCondition) Condition() string {
	expr, _, _ := kc.build()
	return expr
}

// ConditionNames returns the name placeholders used by [KeyCondition.Condition].
func (kc KeyCondition) ConditionNames() map[string]string {
	_, names, _ := kc.build()
	return names
}

// ConditionValues returns the value placeholders used by [KeyCondition.Condition].
func (kc KeyCondition) ConditionValues() map[string]types.AttributeValue {
	_, _, values := kc.build()
	return values
}

func (kc KeyCondition) build() (string, map[string]string, map[string]types.AttributeValue) {
	if kc.partition == nil {
		return "", map[string]string{}, map[string]types.AttributeValue{}
	}

	expr, names, values := kc.partition.clause()
	switch {
	case kc.sortRange.IsSet():
		sortExpr := kc.sortRange.expression
		if hasTopLevelConnective(sortExpr) {
			sortExpr = "(" + sortExpr + ")"
		}
		expr += " AND " + sortExpr
		maps.Copy(names, kc.sortRange.names)
		maps.Copy(values, kc.sortRange.values)
	case kc.sort != nil:
		sortExpr, sortNames, sortValues := kc.sort.clause()
		expr += " AND " + sortExpr
		maps.Copy(names, sortNames)
		maps.Copy(values, sortValues)
	}
	return expr, names, values
}
