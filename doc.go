// Package dynaexpr builds DynamoDB filter, condition and key condition
// expressions, and maps domain values to and from items.
//
// Every attribute name and every literal goes through the two placeholder
// tables of a request (ExpressionAttributeNames and ExpressionAttributeValues);
// nothing is inlined into expression text. The package never sends a request:
// the Table methods return SDK inputs for a [DynamoDBClient] to execute.
//
// # Predicates
//
// Filters and conditions are immutable [Predicate] values:
//
//	active := dynaexpr.Equals("status", dynaexpr.String("ACTIVE"))
//	// #attr_status = :val_status
//
//	cheap, err := dynaexpr.Compare("price", dynaexpr.Less, dynaexpr.Number(50))
//	filter := active.And(cheap.Or(dynaexpr.Undefined("price")))
//
// Combining predicates that reference the same attribute keeps every literal:
// a colliding value placeholder is renamed to :val_status_1, :val_status_2 and
// so on. Nested attributes use dotted paths, "user.profile.id".
//
// # Key conditions
//
//	key, err := dynaexpr.CompositeKey("pk", dynaexpr.String("order#1"), "sk", dynaexpr.String("item#7"))
//	page, err := dynaexpr.RangeKey("pk", dynaexpr.String("order#1"), dynaexpr.BeginsWith("sk", "item#"))
//
// Key conditions use the #key_ and :key_ prefixes so a filter on a key
// attribute never replaces the key's own placeholders.
//
// # Mapping items
//
// Domain types implement [Marshaler] and [Unmarshaler]:
//
//	func (o *Order) MarshalAttributes(m *dynaexpr.Mapper) error {
//	    m.Set("status", dynaexpr.String(o.Status)).
//	        SetStrings("tags", o.Tags)
//	    return errors.Join(
//	        m.PartitionKey("pk", dynaexpr.String("order#"+o.ID)),
//	        m.SortKey("sk", dynaexpr.String("order")),
//	        m.Version("version", o.Version),
//	    )
//	}
//
//	func (o *Order) UnmarshalAttributes(r dynaexpr.Record) (err error) {
//	    o.Status = r.String("status")
//	    o.Version, err = r.Version("version")
//	    return err
//	}
//
// # Optimistic locking
//
// When a mapper declares a version, [Table.MarshalPut] conditions the write on
// the version that was read and stores the next one:
//
//	table := dynaexpr.NewTable("orders", dynaexpr.KeySchema{PartitionKey: "pk", SortKey: "sk", Version: "version"})
//	m, err := dynaexpr.Marshal(order)
//	input, err := table.MarshalPut(m)
//	_, err = client.PutItem(ctx, input)
//	if dynaexpr.IsConditionFailed(err) {
//	    // another writer got there first
//	}
package dynaexpr
