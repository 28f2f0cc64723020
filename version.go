package dynaexpr

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// VersionState is the version attribute of a mapper: its name and the last
// persisted version, 0 for an item that was never written.
type VersionState struct {
	Name  string
	Value int64
}

func (v VersionState) next() types.AttributeValue {
	return literalValue(Number(v.Value + 1))
}

// VersionState returns the declared version, if any.
func (m *Mapper) VersionState() (VersionState, bool) {
	if m.version == nil {
		return VersionState{}, false
	}
	return *m.version, true
}

// IncrementVersion advances the held version by one. It is called once per
// write, right after the write's [Mapper.VersionCondition] has been taken, so a
// mapper reused for a second write conditions on the version it just wrote.
// It does nothing when no version is declared.
func (m *Mapper) IncrementVersion() {
	if m.version != nil {
		m.version.Value++
	}
}

// VersionCondition returns the optimistic concurrency condition for the next
// write: the item must not exist yet, or it must still hold the version this
// mapper last read.
//
//	attribute_not_exists(#attr_version) OR #attr_version = :val_version
//
// The result is unset when no version is declared.
func (m *Mapper) VersionCondition() Predicate {
	if m.version == nil {
		return Predicate{}
	}
	ref, names := ResolvePath(m.version.Name, FilterNamePrefix)
	key := valueKey(m.version.Name, FilterValuePrefix)
	return Predicate{
		expression: fmt.Sprintf("attribute_not_exists(%s) OR %s = %s", ref, ref, key),
		names:      names,
		values:     map[string]types.AttributeValue{key: literalValue(Number(m.version.Value))},
	}
}
