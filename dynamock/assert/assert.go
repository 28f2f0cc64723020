// Package assert provides fluent assertion utilities for testing DynamoDB
// items, predicates and key conditions built with dynaexpr.
//
// # Usage
//
//	import "github.com/nisimpson/dynaexpr/dynamock/assert"
//
//	// Assert on DynamoDB items
//	assert.Items(t, result.Items).
//		HasCount(3).
//		ContainsKey("pk", "order#1").
//		HasAttribute("status", "ACTIVE")
//
//	// Assert on predicates
//	assert.Predicate(t, filter).
//		HasExpression("#attr_status = :val_status").
//		HasValue(":val_status", "ACTIVE").
//		IsWellFormed()
package assert

import (
	"regexp"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaexpr"
)

// ItemsAssertion provides fluent assertions for DynamoDB items.
type ItemsAssertion struct {
	t     testing.TB
	items []map[string]types.AttributeValue
}

// Items creates a new ItemsAssertion for the given DynamoDB items.
func Items(t testing.TB, items []map[string]types.AttributeValue) *ItemsAssertion {
	return &ItemsAssertion{
		t:     t,
		items: items,
	}
}

// HasCount asserts that the items collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	a.t.Helper()
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// IsEmpty asserts that the items collection is empty.
func (a *ItemsAssertion) IsEmpty() *ItemsAssertion {
	a.t.Helper()
	return a.HasCount(0)
}

// IsNotEmpty asserts that the items collection is not empty.
func (a *ItemsAssertion) IsNotEmpty() *ItemsAssertion {
	a.t.Helper()
	if len(a.items) == 0 {
		a.t.Error("expected items to not be empty")
	}
	return a
}

// ContainsKey asserts that at least one item holds the string key value.
func (a *ItemsAssertion) ContainsKey(keyName, value string) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		if stringAttribute(item, keyName) == value {
			return a
		}
	}
	a.t.Errorf("expected to find item with %s = %s", keyName, value)
	return a
}

// HasAttribute asserts that at least one item has the specified string attribute
// with the expected value.
func (a *ItemsAssertion) HasAttribute(attributeName, expectedValue string) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		if stringAttribute(item, attributeName) == expectedValue {
			return a
		}
	}
	a.t.Errorf("expected to find attribute %s with value %s in items", attributeName, expectedValue)
	return a
}

func stringAttribute(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// DynamoDBItemAssertion provides fluent assertions for individual DynamoDB items.
type DynamoDBItemAssertion struct {
	t    testing.TB
	item map[string]types.AttributeValue
}

// DynamoDBItem creates a new DynamoDBItemAssertion for the given item.
func DynamoDBItem(t testing.TB, item map[string]types.AttributeValue) *DynamoDBItemAssertion {
	return &DynamoDBItemAssertion{
		t:    t,
		item: item,
	}
}

// HasAttribute asserts that the item has the specified string attribute with the expected value.
func (a *DynamoDBItemAssertion) HasAttribute(attrName, expectedValue string) *DynamoDBItemAssertion {
	a.t.Helper()
	if attr, exists := a.item[attrName]; !exists {
		a.t.Errorf("item missing attribute %s", attrName)
	} else if attrStr, ok := attr.(*types.AttributeValueMemberS); !ok {
		a.t.Errorf("attribute %s is not a string", attrName)
	} else if attrStr.Value != expectedValue {
		a.t.Errorf("attribute %s expected %s, got %s", attrName, expectedValue, attrStr.Value)
	}
	return a
}

// HasNumber asserts that the item has the specified number attribute with the
// expected decimal text.
func (a *DynamoDBItemAssertion) HasNumber(attrName, expectedValue string) *DynamoDBItemAssertion {
	a.t.Helper()
	if attr, exists := a.item[attrName]; !exists {
		a.t.Errorf("item missing attribute %s", attrName)
	} else if attrNum, ok := attr.(*types.AttributeValueMemberN); !ok {
		a.t.Errorf("attribute %s is not a number", attrName)
	} else if attrNum.Value != expectedValue {
		a.t.Errorf("attribute %s expected %s, got %s", attrName, expectedValue, attrNum.Value)
	}
	return a
}

// HasNull asserts that the item stores an explicit null for the attribute.
func (a *DynamoDBItemAssertion) HasNull(attrName string) *DynamoDBItemAssertion {
	a.t.Helper()
	if _, ok := a.item[attrName].(*types.AttributeValueMemberNULL); !ok {
		a.t.Errorf("attribute %s is not null", attrName)
	}
	return a
}

// Lacks asserts that the item does not have the attribute.
func (a *DynamoDBItemAssertion) Lacks(attrName string) *DynamoDBItemAssertion {
	a.t.Helper()
	if _, exists := a.item[attrName]; exists {
		a.t.Errorf("item should not have attribute %s", attrName)
	}
	return a
}

// HasCount asserts the number of attributes of the item.
func (a *DynamoDBItemAssertion) HasCount(expected int) *DynamoDBItemAssertion {
	a.t.Helper()
	if len(a.item) != expected {
		a.t.Errorf("expected %d attributes, got %d", expected, len(a.item))
	}
	return a
}

// PredicateAssertion provides fluent assertions for predicates.
type PredicateAssertion struct {
	t testing.TB
	p dynaexpr.Predicate
}

// Predicate creates a new PredicateAssertion for p.
func Predicate(t testing.TB, p dynaexpr.Predicate) *PredicateAssertion {
	return &PredicateAssertion{t: t, p: p}
}

// HasExpression asserts the exact expression text.
func (a *PredicateAssertion) HasExpression(expected string) *PredicateAssertion {
	a.t.Helper()
	if got := a.p.Expression(); got != expected {
		a.t.Errorf("expected expression %q, got %q", expected, got)
	}
	return a
}

// HasName asserts that placeholder maps to the attribute name segment.
func (a *PredicateAssertion) HasName(placeholder, segment string) *PredicateAssertion {
	a.t.Helper()
	checkName(a.t, a.p.Names(), placeholder, segment)
	return a
}

// HasValue asserts that placeholder holds the string literal value.
func (a *PredicateAssertion) HasValue(placeholder, value string) *PredicateAssertion {
	a.t.Helper()
	checkValue(a.t, a.p.Values(), placeholder, &types.AttributeValueMemberS{Value: value})
	return a
}

// HasNumberValue asserts that placeholder holds the number literal value.
func (a *PredicateAssertion) HasNumberValue(placeholder, value string) *PredicateAssertion {
	a.t.Helper()
	checkValue(a.t, a.p.Values(), placeholder, &types.AttributeValueMemberN{Value: value})
	return a
}

// HasValueCount asserts the number of value placeholders.
func (a *PredicateAssertion) HasValueCount(expected int) *PredicateAssertion {
	a.t.Helper()
	if got := len(a.p.Values()); got != expected {
		a.t.Errorf("expected %d values, got %d", expected, got)
	}
	return a
}

// IsWellFormed asserts that every placeholder in the expression has exactly
// one table entry and that no table entry is unused.
func (a *PredicateAssertion) IsWellFormed() *PredicateAssertion {
	a.t.Helper()
	checkPlaceholders(a.t, a.p.Expression(), a.p.Names(), a.p.Values())
	return a
}

// KeyConditionAssertion provides fluent assertions for key conditions.
type KeyConditionAssertion struct {
	t  testing.TB
	kc dynaexpr.KeyCondition
}

// KeyCondition creates a new KeyConditionAssertion for kc.
func KeyCondition(t testing.TB, kc dynaexpr.KeyCondition) *KeyConditionAssertion {
	return &KeyConditionAssertion{t: t, kc: kc}
}

// HasCondition asserts the exact key condition text.
func (a *KeyConditionAssertion) HasCondition(expected string) *KeyConditionAssertion {
	a.t.Helper()
	if got := a.kc.Condition(); got != expected {
		a.t.Errorf("expected key condition %q, got %q", expected, got)
	}
	return a
}

// IsComposite asserts whether the condition constrains the sort key.
func (a *KeyConditionAssertion) IsComposite(expected bool) *KeyConditionAssertion {
	a.t.Helper()
	if got := a.kc.Composite(); got != expected {
		a.t.Errorf("expected composite %v, got %v", expected, got)
	}
	return a
}

// HasKeyAttribute asserts that the equality key map holds the string value.
func (a *KeyConditionAssertion) HasKeyAttribute(name, value string) *KeyConditionAssertion {
	a.t.Helper()
	if got := stringAttribute(a.kc.ToMap(), name); got != value {
		a.t.Errorf("expected key attribute %s = %q, got %q", name, value, got)
	}
	return a
}

// IsWellFormed asserts that the condition's placeholders and tables agree.
func (a *KeyConditionAssertion) IsWellFormed() *KeyConditionAssertion {
	a.t.Helper()
	checkPlaceholders(a.t, a.kc.Condition(), a.kc.ConditionNames(), a.kc.ConditionValues())
	return a
}

var (
	namePlaceholder  = regexp.MustCompile(`#[A-Za-z0-9_]+`)
	valuePlaceholder = regexp.MustCompile(`:[A-Za-z0-9_]+`)
)

func checkPlaceholders(t testing.TB, expr string, names map[string]string, values map[string]types.AttributeValue) {
	t.Helper()
	usedNames := make(map[string]bool)
	for _, token := range namePlaceholder.FindAllString(expr, -1) {
		usedNames[token] = true
		if _, ok := names[token]; !ok {
			t.Errorf("name placeholder %s has no entry", token)
		}
	}
	for token := range names {
		if !usedNames[token] {
			t.Errorf("name placeholder %s is not used by %q", token, expr)
		}
	}

	usedValues := make(map[string]bool)
	for _, token := range valuePlaceholder.FindAllString(expr, -1) {
		usedValues[token] = true
		if _, ok := values[token]; !ok {
			t.Errorf("value placeholder %s has no entry", token)
		}
	}
	for token := range values {
		if !usedValues[token] {
			t.Errorf("value placeholder %s is not used by %q", token, expr)
		}
	}
}

func checkName(t testing.TB, names map[string]string, placeholder, segment string) {
	t.Helper()
	if got, ok := names[placeholder]; !ok {
		t.Errorf("missing name placeholder %s", placeholder)
	} else if got != segment {
		t.Errorf("name placeholder %s expected %q, got %q", placeholder, segment, got)
	}
}

func checkValue(t testing.TB, values map[string]types.AttributeValue, placeholder string, expected types.AttributeValue) {
	t.Helper()
	got, ok := values[placeholder]
	if !ok {
		t.Errorf("missing value placeholder %s", placeholder)
		return
	}
	switch want := expected.(type) {
	case *types.AttributeValueMemberS:
		if g, ok := got.(*types.AttributeValueMemberS); !ok || g.Value != want.Value {
			t.Errorf("value placeholder %s expected S(%q), got %#v", placeholder, want.Value, got)
		}
	case *types.AttributeValueMemberN:
		if g, ok := got.(*types.AttributeValueMemberN); !ok || g.Value != want.Value {
			t.Errorf("value placeholder %s expected N(%s), got %#v", placeholder, want.Value, got)
		}
	}
}
