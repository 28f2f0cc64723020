package dynaexpr

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var (
	// ErrItemNotFound is returned when an item is not found in DynamoDB operations.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidArgument is the kind shared by every argument failure: a bad operator
	// token, a key literal of the wrong type, an empty membership list, a duplicate
	// role declaration or a malformed typed value.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDecode is the kind shared by failures to decode wire data, such as an
	// attribute value tag the mapper does not support.
	ErrDecode = errors.New("decode failure")

	// ErrConcurrentModification is returned by [IsConditionFailed] callers when a
	// versioned write was rejected because another writer advanced the version.
	ErrConcurrentModification = errors.New("item was modified concurrently")
)

// ArgumentError describes an invalid argument passed to a builder.
type ArgumentError struct {
	Op     string // Builder operation, e.g. "compare"
	Path   string // Attribute path involved, if any
	Value  any    // Offending value or token
	Reason string // Human readable reason
}

func (e *ArgumentError) Error() string {
	msg := "dynaexpr: " + e.Op
	if e.Path != "" {
		msg += fmt.Sprintf(" %q", e.Path)
	}
	msg += ": " + e.Reason
	if e.Value != nil {
		msg += fmt.Sprintf(" (got %#v)", e.Value)
	}
	return msg
}

// Is reports whether target is [ErrInvalidArgument].
func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalidArgument(op, path string, value any, reason string) error {
	return &ArgumentError{Op: op, Path: path, Value: value, Reason: reason}
}

// DecodeError describes wire data that could not be decoded into a host value.
type DecodeError struct {
	Attribute string // Attribute name or path within the item
	Tag       string // Wire tag of the offending value
	Value     string // Offending text, when the tag itself was valid
	Err       error  // Underlying cause, may be nil
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("dynaexpr: cannot decode attribute %q", e.Attribute)
	if e.Tag != "" {
		msg += " with tag " + e.Tag
	}
	if e.Value != "" {
		msg += fmt.Sprintf(" (value %q)", e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is [ErrDecode].
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsConditionFailed reports whether err was caused by a failed condition
// expression, such as the version condition attached by [Table.MarshalPut].
func IsConditionFailed(err error) bool {
	if errors.Is(err, ErrConcurrentModification) {
		return true
	}
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// WrapConditionFailed converts a conditional check failure returned by the
// client into [ErrConcurrentModification]. Other errors are returned unchanged.
func WrapConditionFailed(err error) error {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return fmt.Errorf("%w: %v", ErrConcurrentModification, condErr)
	}
	return err
}
