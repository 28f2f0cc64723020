package dynaexpr

import (
	"regexp"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/exp/constraints"
)

// Literal is a typed value used in a predicate, a key condition or a mapper field.
// It is one of [StringLit], [NumberLit], [BoolLit] or [BinaryLit].
type Literal interface {
	attributeValue() types.AttributeValue
}

// StringLit is a string literal, stored with the S tag.
type StringLit string

// NumberLit is a number literal holding exact decimal text, stored with the N tag.
type NumberLit string

// BoolLit is a boolean literal, stored with the BOOL tag.
type BoolLit bool

// BinaryLit is a binary literal, stored with the B tag.
type BinaryLit []byte

func (s StringLit) attributeValue() types.AttributeValue {
	return &types.AttributeValueMemberS{Value: string(s)}
}

func (n NumberLit) attributeValue() types.AttributeValue {
	return &types.AttributeValueMemberN{Value: string(n)}
}

func (b BoolLit) attributeValue() types.AttributeValue {
	return &types.AttributeValueMemberBOOL{Value: bool(b)}
}

func (b BinaryLit) attributeValue() types.AttributeValue {
	return &types.AttributeValueMemberB{Value: append([]byte(nil), b...)}
}

// String returns a string literal.
func String(s string) Literal { return StringLit(s) }

// Bool returns a boolean literal.
func Bool(b bool) Literal { return BoolLit(b) }

// Binary returns a binary literal.
func Binary(b []byte) Literal { return BinaryLit(append([]byte(nil), b...)) }

// Number returns a number literal for any integer or floating point value.
// Floats are formatted with the shortest representation that round-trips.
//
// NaN and the infinities have no decimal form. The literal they produce is
// rejected with [ErrInvalidArgument] by every constructor and adder it is
// passed to.
func Number[T constraints.Integer | constraints.Float](n T) Literal {
	return NumberLit(formatNumber(n))
}

func formatNumber[T constraints.Integer | constraints.Float](n T) string {
	switch v := any(n).(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return strconv.FormatUint(uint64(n), 10)
	default:
		return strconv.FormatInt(int64(n), 10)
	}
}

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Decimal returns a number literal from decimal text without passing through a
// binary float, preserving every digit.
func Decimal(text string) (Literal, error) {
	if !decimalPattern.MatchString(text) {
		return nil, invalidArgument("decimal", "", text, "not a decimal number")
	}
	return NumberLit(text), nil
}

// NumberOf returns a number literal for an [attributevalue.Number].
func NumberOf(n attributevalue.Number) (Literal, error) {
	return Decimal(n.String())
}

// checkLiteral rejects a number literal whose text is not a finite decimal.
func checkLiteral(op, path string, lit Literal) error {
	if n, ok := lit.(NumberLit); ok && !decimalPattern.MatchString(string(n)) {
		return invalidArgument(op, path, string(n), "not a finite decimal number")
	}
	return nil
}

// literalValue converts lit to its wire value. A nil literal is NULL.
func literalValue(lit Literal) types.AttributeValue {
	if lit == nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	return lit.attributeValue()
}

// literalTag returns the wire tag of lit.
func literalTag(lit Literal) string {
	switch lit.(type) {
	case StringLit:
		return "S"
	case NumberLit:
		return "N"
	case BoolLit:
		return "BOOL"
	case BinaryLit:
		return "B"
	default:
		return "NULL"
	}
}
