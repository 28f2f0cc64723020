package dynaexpr

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// And returns a predicate matching items that satisfy p and every one of others.
func (p Predicate) And(others ...Predicate) Predicate {
	return combine("AND", append([]Predicate{p}, others...))
}

// Or returns a predicate matching items that satisfy p or any one of others.
func (p Predicate) Or(others ...Predicate) Predicate {
	return combine("OR", append([]Predicate{p}, others...))
}

// Not returns the negation of p. The operand is parenthesized only when it has a
// top-level AND or OR.
func (p Predicate) Not() Predicate {
	if !p.IsSet() {
		return p
	}
	expr := "NOT " + p.expression
	if hasTopLevelConnective(p.expression) {
		expr = "NOT (" + p.expression + ")"
	}
	return Predicate{
		expression: expr,
		names:      maps.Clone(p.names),
		values:     maps.Clone(p.values),
		err:        p.err,
	}
}

// Every returns the conjunction of predicates. It is equivalent to folding them
// with [Predicate.And].
func Every(predicates ...Predicate) Predicate {
	return combine("AND", predicates)
}

// Any returns the disjunction of predicates. It is equivalent to folding them
// with [Predicate.Or].
func Any(predicates ...Predicate) Predicate {
	return combine("OR", predicates)
}

func combine(connective string, operands []Predicate) Predicate {
	set := slices.DeleteFunc(slices.Clone(operands), func(p Predicate) bool { return !p.IsSet() })
	switch len(set) {
	case 0:
		return Predicate{}
	case 1:
		return set[0]
	}

	var (
		names  = make(map[string]string)
		values = make(map[string]types.AttributeValue)
		parts  = make([]string, 0, len(set))
		err    error
	)
	for _, p := range set {
		if err == nil {
			err = p.err
		}
		expr := merge(names, values, p)
		if needsParens(expr) {
			expr = "(" + expr + ")"
		}
		parts = append(parts, expr)
	}

	return Predicate{
		expression: strings.Join(parts, " "+connective+" "),
		names:      names,
		values:     values,
		err:        err,
	}
}

// merge adds the placeholders of p to names and values and returns the
// expression text of p. Value keys already present in values are renamed to the
// first free key_1, key_2, ... and the returned text is rewritten to match, so
// that no literal is lost.
func merge(names map[string]string, values map[string]types.AttributeValue, p Predicate) string {
	maps.Copy(names, p.names)

	keys := slices.Sorted(maps.Keys(p.values))
	renames := make(map[string]string)
	assigned := make(map[string]bool)
	taken := func(key string) bool {
		if _, ok := values[key]; ok {
			return true
		}
		if _, ok := p.values[key]; ok {
			return true
		}
		return assigned[key]
	}

	for _, key := range keys {
		if _, ok := values[key]; !ok {
			continue
		}
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s_%d", key, i)
			if !taken(candidate) {
				renames[key] = candidate
				assigned[candidate] = true
				break
			}
		}
	}

	for _, key := range keys {
		target := key
		if renamed, ok := renames[key]; ok {
			target = renamed
		}
		values[target] = p.values[key]
	}

	if len(renames) == 0 {
		return p.expression
	}
	return renamePlaceholders(p.expression, renames)
}

// renamePlaceholders replaces whole value placeholder tokens in expr. A token is a
// ':' followed by the longest run of placeholder characters, so ":val_a" never
// matches inside ":val_a_start".
func renamePlaceholders(expr string, renames map[string]string) string {
	var sb strings.Builder
	sb.Grow(len(expr))
	for i := 0; i < len(expr); {
		if expr[i] != ':' {
			sb.WriteByte(expr[i])
			i++
			continue
		}
		j := i + 1
		for j < len(expr) && isPlaceholderChar(expr[j]) {
			j++
		}
		token := expr[i:j]
		if renamed, ok := renames[token]; ok {
			token = renamed
		}
		sb.WriteString(token)
		i = j
	}
	return sb.String()
}

// needsParens reports whether expr must be wrapped before joining it with other
// operands: it starts with NOT or has a top-level AND or OR.
func needsParens(expr string) bool {
	fields := strings.Fields(expr)
	if len(fields) > 0 && strings.EqualFold(fields[0], "NOT") {
		return true
	}
	return hasTopLevelConnective(expr)
}

// hasTopLevelConnective reports whether expr has an AND or OR outside of any
// parentheses. The AND closing a BETWEEN range is not a connective.
func hasTopLevelConnective(expr string) bool {
	depth := 0
	between := false
	for _, field := range strings.Fields(expr) {
		if depth == 0 {
			switch strings.ToUpper(field) {
			case "BETWEEN":
				between = true
			case "AND":
				if !between {
					return true
				}
				between = false
			case "OR":
				return true
			}
		}
		depth += strings.Count(field, "(") - strings.Count(field, ")")
	}
	return false
}
