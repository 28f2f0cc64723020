package dynaexpr_test

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaexpr"
)

// Order is a sample domain type stored as a single versioned item.
type Order struct {
	ID       string
	Customer string
	Status   string
	Total    string
	Version  int64
}

func (o *Order) MarshalAttributes(m *dynaexpr.Mapper) error {
	total, err := dynaexpr.Decimal(o.Total)
	if err != nil {
		return err
	}
	m.Set("customer", dynaexpr.String(o.Customer)).
		Set("status", dynaexpr.String(o.Status)).
		Set("total", total)
	return errors.Join(
		m.PartitionKey("pk", dynaexpr.String("customer#"+o.Customer)),
		m.SortKey("sk", dynaexpr.String("order#"+o.ID)),
		m.Version("version", o.Version),
	)
}

func (o *Order) UnmarshalAttributes(r dynaexpr.Record) (err error) {
	o.ID = strings.TrimPrefix(r.String("sk"), "order#")
	o.Customer = r.String("customer")
	o.Status = r.String("status")
	o.Total = r.Number("total").String()
	o.Version, err = r.Version("version")
	return err
}

var orderSchema = dynaexpr.KeySchema{PartitionKey: "pk", SortKey: "sk", Version: "version"}

// Example demonstrates a versioned put without making any AWS calls.
func Example() {
	table := dynaexpr.NewTable("orders", orderSchema)

	m, err := dynaexpr.Marshal(&Order{ID: "O1", Customer: "C1", Status: "OPEN", Total: "19.99"})
	if err != nil {
		log.Fatal(err)
	}

	putInput, err := table.MarshalPut(m)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(*putInput.ConditionExpression)
	fmt.Println("stored version:", putInput.Item["version"].(*types.AttributeValueMemberN).Value)

	// Output:
	// attribute_not_exists(#attr_version) OR #attr_version = :val_version
	// stored version: 1
}

// ExamplePredicate_Or shows that every literal survives when two predicates
// reference the same attribute.
func ExamplePredicate_Or() {
	filter := dynaexpr.Equals("status", dynaexpr.String("OPEN")).
		Or(dynaexpr.Equals("status", dynaexpr.String("SHIPPED")))

	fmt.Println(filter.Expression())
	fmt.Println(slices.Sorted(maps.Keys(filter.Values())))

	// Output:
	// #attr_status = :val_status OR #attr_status = :val_status_1
	// [:val_status :val_status_1]
}

// ExampleTable_MarshalQuery lists a customer's open orders.
func ExampleTable_MarshalQuery() {
	table := dynaexpr.NewTable("orders", orderSchema)

	key, err := dynaexpr.RangeKey("pk", dynaexpr.String("customer#C1"), dynaexpr.BeginsWith("sk", "order#"))
	if err != nil {
		log.Fatal(err)
	}

	queryInput, err := table.MarshalQuery(&dynaexpr.Query{
		Key:    key,
		Filter: dynaexpr.Equals("status", dynaexpr.String("OPEN")),
		Limit:  10,
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(*queryInput.KeyConditionExpression)
	fmt.Println(*queryInput.FilterExpression)

	// Output:
	// #key_pk = :key_pk AND begins_with(#attr_sk, :val_sk)
	// #attr_status = :val_status
}

// ExampleMatchAny builds a membership test.
func ExampleMatchAny() {
	in, err := dynaexpr.MatchAny("status", dynaexpr.String("OPEN"), dynaexpr.String("HELD"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(in.Not().Expression())

	// Output:
	// NOT #attr_status IN (:val_status_0, :val_status_1)
}
