package dynaexpr

import (
	"fmt"
	"maps"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Operator is a comparison operator accepted by [Compare] and [CompareAttributes].
type Operator string

const (
	Equal          Operator = "="
	NotEqual       Operator = "<>"
	Less           Operator = "<"
	LessOrEqual    Operator = "<="
	Greater        Operator = ">"
	GreaterOrEqual Operator = ">="
)

// Valid reports whether op is one of the supported comparison operators.
func (op Operator) Valid() bool {
	switch op {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual:
		return true
	}
	return false
}

// Predicate is a compiled filter or condition expression together with the name
// and value placeholders it references. Predicates are immutable; combining them
// with [Predicate.And], [Predicate.Or] or [Predicate.Not] returns a new value.
//
// The zero Predicate is unset and is ignored by the combinators.
//
// Constructors that cannot return an error, such as [Equals] and [Between],
// record an invalid literal in the predicate instead; see [Predicate.Err].
type Predicate struct {
	expression string
	names      map[string]string
	values     map[string]types.AttributeValue

	// eq is set only for a single equality on one attribute.
	eq *equality

	// err holds the first invalid literal of p or of any predicate it combines.
	err error
}

type equality struct {
	path  string
	value types.AttributeValue
}

// IsSet reports whether p holds an expression.
func (p Predicate) IsSet() bool {
	return p.expression != ""
}

// Expression returns the expression text.
func (p Predicate) Expression() string {
	return p.expression
}

// Names returns a copy of the name placeholder table.
func (p Predicate) Names() map[string]string {
	return maps.Clone(p.names)
}

// Values returns a copy of the value placeholder table.
func (p Predicate) Values() map[string]types.AttributeValue {
	return maps.Clone(p.values)
}

// Err returns the error recorded while building p, if any. Table methods
// refuse predicates that carry an error.
func (p Predicate) Err() error {
	return p.err
}

// String returns the expression text.
func (p Predicate) String() string {
	return p.expression
}

// Equals matches items whose attribute at path equals lit.
//
//	Equals("status", String("ACTIVE"))
//	// #attr_status = :val_status
func Equals(path string, lit Literal) Predicate {
	p := comparison(path, Equal, lit)
	p.eq = &equality{path: path, value: p.values[valueKey(path, FilterValuePrefix)]}
	return p
}

// Compare matches items whose attribute at path compares to lit with op.
// An unsupported operator fails with [ErrInvalidArgument].
func Compare(path string, op Operator, lit Literal) (Predicate, error) {
	if !op.Valid() {
		return Predicate{}, invalidArgument("compare", path, string(op), "unsupported operator")
	}
	p := comparison(path, op, lit)
	if p.err != nil {
		return Predicate{}, p.err
	}
	if op == Equal {
		return Equals(path, lit), nil
	}
	return p, nil
}

func comparison(path string, op Operator, lit Literal) Predicate {
	ref, names := ResolvePath(path, FilterNamePrefix)
	key := valueKey(path, FilterValuePrefix)
	return Predicate{
		expression: fmt.Sprintf("%s %s %s", ref, op, key),
		names:      names,
		values:     map[string]types.AttributeValue{key: literalValue(lit)},
		err:        checkLiteral("compare", path, lit),
	}
}

// Contains matches items whose string attribute at path contains substring.
func Contains(path, substring string) Predicate {
	return function("contains", path, substring)
}

// BeginsWith matches items whose string attribute at path starts with prefix.
func BeginsWith(path, prefix string) Predicate {
	return function("begins_with", path, prefix)
}

func function(name, path, operand string) Predicate {
	ref, names := ResolvePath(path, FilterNamePrefix)
	key := valueKey(path, FilterValuePrefix)
	return Predicate{
		expression: fmt.Sprintf("%s(%s, %s)", name, ref, key),
		names:      names,
		values:     map[string]types.AttributeValue{key: &types.AttributeValueMemberS{Value: operand}},
	}
}

// CompareAttributes compares two attributes of the same item. The result has no
// value placeholders.
func CompareAttributes(path1 string, op Operator, path2 string) (Predicate, error) {
	if !op.Valid() {
		return Predicate{}, invalidArgument("compare attributes", path1, string(op), "unsupported operator")
	}
	ref1, names := ResolvePath(path1, FilterNamePrefix)
	ref2, names2 := ResolvePath(path2, FilterNamePrefix)
	maps.Copy(names, names2)
	return Predicate{
		expression: fmt.Sprintf("%s %s %s", ref1, op, ref2),
		names:      names,
		values:     map[string]types.AttributeValue{},
	}, nil
}

// MatchAny matches items whose attribute at path equals any of values. All values
// must be strings or all must be numbers; an empty list fails with
// [ErrInvalidArgument].
//
//	MatchAny("status", String("A"), String("B"))
//	// #attr_status IN (:val_status_0, :val_status_1)
func MatchAny(path string, values ...Literal) (Predicate, error) {
	if len(values) == 0 {
		return Predicate{}, invalidArgument("match any", path, nil, "at least one value is required")
	}

	tag := literalTag(values[0])
	if tag != "S" && tag != "N" {
		return Predicate{}, invalidArgument("match any", path, values[0], "values must be strings or numbers")
	}

	ref, names := ResolvePath(path, FilterNamePrefix)
	base := valueKey(path, FilterValuePrefix)
	keys := make([]string, len(values))
	avs := make(map[string]types.AttributeValue, len(values))
	for i, v := range values {
		if literalTag(v) != tag {
			return Predicate{}, invalidArgument("match any", path, v, "values must share one type")
		}
		if err := checkLiteral("match any", path, v); err != nil {
			return Predicate{}, err
		}
		keys[i] = fmt.Sprintf("%s_%d", base, i)
		avs[keys[i]] = literalValue(v)
	}

	return Predicate{
		expression: fmt.Sprintf("%s IN (%s)", ref, strings.Join(keys, ", ")),
		names:      names,
		values:     avs,
	}, nil
}

// Between matches items whose attribute at path lies in [start, end], inclusive.
func Between(path string, start, end Literal) Predicate {
	ref, names := ResolvePath(path, FilterNamePrefix)
	base := valueKey(path, FilterValuePrefix)
	startKey, endKey := base+"_start", base+"_end"
	err := checkLiteral("between", path, start)
	if err == nil {
		err = checkLiteral("between", path, end)
	}
	return Predicate{
		expression: fmt.Sprintf("%s BETWEEN %s AND %s", ref, startKey, endKey),
		names:      names,
		values: map[string]types.AttributeValue{
			startKey: literalValue(start),
			endKey:   literalValue(end),
		},
		err: err,
	}
}

// Defined matches items that have a non-null attribute at path.
func Defined(path string) Predicate {
	return existence(path, "attribute_exists(%s) AND NOT %s = %s")
}

// Undefined matches items that lack the attribute at path or hold null in it.
func Undefined(path string) Predicate {
	return existence(path, "attribute_not_exists(%s) OR %s = %s")
}

func existence(path, format string) Predicate {
	ref, names := ResolvePath(path, FilterNamePrefix)
	key := valueKey(path, FilterValuePrefix) + "_null"
	return Predicate{
		expression: fmt.Sprintf(format, ref, ref, key),
		names:      names,
		values:     map[string]types.AttributeValue{key: &types.AttributeValueMemberNULL{Value: true}},
	}
}
