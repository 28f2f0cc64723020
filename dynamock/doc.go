// Package dynamock provides testing utilities for the dynaexpr library.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for unit testing
//   - Local DynamoDB integration utilities
//   - Test item builders with functional options
//   - Test data seeding helpers, from entities or JSON
//   - Integration test utilities with automatic cleanup
//
// # Mock Client
//
// The MockClient provides an expectation-based mock implementation where you set
// expectations for specific operations; any other call fails the test:
//
//	mock := dynamock.NewMockClient(t)
//
//	// Set expectation for PutItem
//	mock.PutFunc = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
//		// Verify the operation parameters
//		return &dynamodb.PutItemOutput{}, nil
//	}
//
//	// Or reject a versioned write
//	mock.PutFunc = dynamock.Returns[dynamodb.PutItemInput, dynamodb.PutItemOutput](nil, dynamock.ConditionFailed())
//
// # Test Items
//
//	item := dynamock.NewItem(
//		dynamock.WithPartitionKey("pk", dynaexpr.String("order#1")),
//		dynamock.WithSortKey("sk", dynaexpr.String("order")),
//		dynamock.WithVersion("version", 0),
//		dynamock.WithAttribute("status", "OPEN"),
//	).Build()
//
// # Seeding
//
//	seeder := dynamock.NewSeedTestData(client, table)
//	count, err := seeder.SeedFromJSON(ctx, strings.NewReader(`[
//		{"pk": "order#1", "sk": "order", "total": 12.50}
//	]`))
//
// # Integration Tests
//
// RunIntegrationTest creates a fresh table in DynamoDB Local and removes it
// afterwards. Tests are skipped in short mode or when DynamoDB Local is not
// running:
//
//	dynamock.RunIntegrationTest(t, nil, func(local *dynamock.LocalDynamoDB, table *dynaexpr.Table) {
//		// use local.Client and table
//	})
package dynamock
