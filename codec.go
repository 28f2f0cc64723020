package dynaexpr

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Record is a decoded item: every attribute holds a plain host value, one of
// string, [attributevalue.Number], bool, nil, []byte, []any or Record.
//
// The typed getters are lenient: a missing attribute or one of another type
// yields the zero value. [Record.Version] is the exception and fails instead.
type Record map[string]any

// Encode converts a host value into its wire representation. It accepts the
// values produced by [Decode] as well as the Go integer and float types,
// []string and map[string]any.
func Encode(v any) (types.AttributeValue, error) {
	return encodeAt("", v)
}

func encodeAt(path string, v any) (types.AttributeValue, error) {
	switch v := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case types.AttributeValue:
		return v, nil
	case Literal:
		return encodeLiteral(path, v)
	case string:
		return &types.AttributeValueMemberS{Value: v}, nil
	case attributevalue.Number:
		lit, err := NumberOf(v)
		if err != nil {
			return nil, invalidArgument("encode", path, string(v), "not a decimal number")
		}
		return literalValue(lit), nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: v}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: v}, nil
	case int:
		return encodeLiteral(path, Number(v))
	case int32:
		return encodeLiteral(path, Number(v))
	case int64:
		return encodeLiteral(path, Number(v))
	case uint:
		return encodeLiteral(path, Number(v))
	case uint64:
		return encodeLiteral(path, Number(v))
	case float32:
		return encodeLiteral(path, Number(v))
	case float64:
		return encodeLiteral(path, Number(v))
	case []string:
		list := make([]types.AttributeValue, len(v))
		for i, s := range v {
			list[i] = &types.AttributeValueMemberS{Value: s}
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case []any:
		list := make([]types.AttributeValue, len(v))
		for i, elem := range v {
			av, err := encodeAt(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			list[i] = av
		}
		return &types.AttributeValueMemberL{Value: list}, nil
	case Record:
		return encodeMap(path, v)
	case map[string]any:
		return encodeMap(path, v)
	default:
		return nil, invalidArgument("encode", path, fmt.Sprintf("%T", v), "unsupported value type")
	}
}

func encodeLiteral(path string, lit Literal) (types.AttributeValue, error) {
	if err := checkLiteral("encode", path, lit); err != nil {
		return nil, err
	}
	return literalValue(lit), nil
}

func encodeMap(path string, m map[string]any) (types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(m))
	for k, elem := range m {
		av, err := encodeAt(joinPath(path, k), elem)
		if err != nil {
			return nil, err
		}
		out[k] = av
	}
	return &types.AttributeValueMemberM{Value: out}, nil
}

// Decode converts a wire value into a plain host value. Binary sets and unknown
// union members fail with a [DecodeError].
func Decode(av types.AttributeValue) (any, error) {
	return decodeAt("", av)
}

// DecodeItem decodes every attribute of item.
func DecodeItem(item map[string]types.AttributeValue) (Record, error) {
	out := make(Record, len(item))
	for name, av := range item {
		v, err := decodeAt(name, av)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func decodeAt(path string, av types.AttributeValue) (any, error) {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value, nil
	case *types.AttributeValueMemberN:
		return attributevalue.Number(v.Value), nil
	case *types.AttributeValueMemberBOOL:
		return v.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberB:
		return v.Value, nil
	case *types.AttributeValueMemberSS:
		list := make([]any, len(v.Value))
		for i, s := range v.Value {
			list[i] = s
		}
		return list, nil
	case *types.AttributeValueMemberNS:
		list := make([]any, len(v.Value))
		for i, n := range v.Value {
			list[i] = attributevalue.Number(n)
		}
		return list, nil
	case *types.AttributeValueMemberL:
		list := make([]any, len(v.Value))
		for i, elem := range v.Value {
			decoded, err := decodeAt(fmt.Sprintf("%s[%d]", path, i), elem)
			if err != nil {
				return nil, err
			}
			list[i] = decoded
		}
		return list, nil
	case *types.AttributeValueMemberM:
		m := make(Record, len(v.Value))
		for k, elem := range v.Value {
			decoded, err := decodeAt(joinPath(path, k), elem)
			if err != nil {
				return nil, err
			}
			m[k] = decoded
		}
		return m, nil
	case *types.AttributeValueMemberBS:
		return nil, &DecodeError{Attribute: path, Tag: "BS"}
	case *types.UnknownUnionMember:
		return nil, &DecodeError{Attribute: path, Tag: v.Tag}
	default:
		return nil, &DecodeError{Attribute: path, Tag: attributeTag(av)}
	}
}

// attributeTag returns the wire tag of av.
func attributeTag(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.UnknownUnionMember:
		return v.Tag
	default:
		return fmt.Sprintf("%T", av)
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}

// String returns the attribute as a string. Numbers are returned as their
// decimal text.
func (r Record) String(name string) string {
	switch v := r[name].(type) {
	case string:
		return v
	case attributevalue.Number:
		return v.String()
	default:
		return ""
	}
}

// Number returns the attribute as a decimal number. Strings holding decimal
// text are accepted.
func (r Record) Number(name string) attributevalue.Number {
	switch v := r[name].(type) {
	case attributevalue.Number:
		return v
	case string:
		if decimalPattern.MatchString(v) {
			return attributevalue.Number(v)
		}
	}
	return ""
}

// Int returns the attribute as an int64, or 0 when it is not an integer.
func (r Record) Int(name string) int64 {
	n, err := r.Number(name).Int64()
	if err != nil {
		return 0
	}
	return n
}

// Bool returns the attribute as a bool. The strings "true" and "false" and the
// numbers 0 and 1 are accepted.
func (r Record) Bool(name string) bool {
	switch v := r[name].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	case attributevalue.Number:
		return v.String() == "1"
	default:
		return false
	}
}

// List returns the attribute as a list.
func (r Record) List(name string) []any {
	v, _ := r[name].([]any)
	return v
}

// Strings returns the string elements of a list attribute.
func (r Record) Strings(name string) []string {
	list := r.List(name)
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, elem := range list {
		if s, ok := elem.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Map returns the attribute as a nested record.
func (r Record) Map(name string) Record {
	v, _ := r[name].(Record)
	return v
}

// Has reports whether the attribute is present, including explicit nulls.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Version returns the attribute as an integer version. Unlike the other getters
// it never defaults: a missing attribute is version 0, but any value that is not
// an integer literal, null included, fails with a [DecodeError].
func (r Record) Version(name string) (int64, error) {
	v, ok := r[name]
	if !ok {
		return 0, nil
	}
	var text, tag string
	switch v := v.(type) {
	case attributevalue.Number:
		text, tag = v.String(), "N"
	case string:
		text, tag = v, "S"
	case nil:
		return 0, &DecodeError{
			Attribute: name,
			Tag:       "NULL",
			Err:       invalidArgument("version", name, nil, "version must be an integer"),
		}
	default:
		return 0, &DecodeError{
			Attribute: name,
			Tag:       fmt.Sprintf("%T", v),
			Err:       invalidArgument("version", name, v, "version must be an integer"),
		}
	}
	return parseVersion(name, tag, text)
}

func parseVersion(name, tag, text string) (int64, error) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil || n < 0 {
		return 0, &DecodeError{
			Attribute: name,
			Tag:       tag,
			Value:     text,
			Err:       invalidArgument("version", name, text, "version must be a non-negative integer"),
		}
	}
	return n, nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Record:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = cloneValue(elem)
		}
		return out
	case []byte:
		return append([]byte(nil), v...)
	case map[string]any:
		return Record(maps.Clone(v)).Clone()
	default:
		return v
	}
}
