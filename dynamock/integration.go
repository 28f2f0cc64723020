package dynamock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nisimpson/dynaexpr"
)

// NewTestTable generates a unique table name for testing.
func NewTestTable(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// SeedTestData is a helper for seeding test data into a table.
type SeedTestData struct {
	client dynaexpr.DynamoDBClient
	table  *dynaexpr.Table
}

// NewSeedTestData creates a new test data seeder.
func NewSeedTestData(client dynaexpr.DynamoDBClient, table *dynaexpr.Table) *SeedTestData {
	return &SeedTestData{
		client: client,
		table:  table,
	}
}

// SeedMapper writes a single mapper into the table, with its version
// condition if it declares one.
func (s *SeedTestData) SeedMapper(ctx context.Context, m *dynaexpr.Mapper) error {
	putInput, err := s.table.MarshalPut(m)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, putInput); err != nil {
		return fmt.Errorf("failed to put item: %w", dynaexpr.WrapConditionFailed(err))
	}
	return nil
}

// SeedEntity seeds a single entity into the table.
func (s *SeedTestData) SeedEntity(ctx context.Context, entity dynaexpr.Marshaler) error {
	m, err := dynaexpr.Marshal(entity)
	if err != nil {
		return err
	}
	return s.SeedMapper(ctx, m)
}

// SeedEntities seeds multiple entities into the table.
func (s *SeedTestData) SeedEntities(ctx context.Context, entities ...dynaexpr.Marshaler) error {
	for _, entity := range entities {
		if err := s.SeedEntity(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	Port             int
	SkipIfNotRunning bool
	TablePrefix      string
	Schema           dynaexpr.KeySchema
	CleanupTimeout   time.Duration
}

// DefaultIntegrationTestConfig returns a default configuration for integration tests.
func DefaultIntegrationTestConfig() *IntegrationTestConfig {
	return &IntegrationTestConfig{
		Port:             DefaultLocalPort,
		SkipIfNotRunning: true,
		TablePrefix:      "integration-test",
		Schema:           dynaexpr.KeySchema{PartitionKey: "pk", SortKey: "sk", Version: "version"},
		CleanupTimeout:   30 * time.Second,
	}
}

// RunIntegrationTest runs fn against a fresh table in DynamoDB Local. The test
// is skipped in short mode, and when DynamoDB Local is not running unless the
// configuration says otherwise. The table is deleted afterwards.
func RunIntegrationTest(t *testing.T, config *IntegrationTestConfig, fn func(local *LocalDynamoDB, table *dynaexpr.Table)) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	if config == nil {
		config = DefaultIntegrationTestConfig()
	}

	ctx := context.Background()
	local, err := NewLocalDynamoDB(ctx, config.Port)
	if err != nil {
		t.Fatalf("Failed to configure DynamoDB Local client: %v", err)
	}

	// Check if DynamoDB Local is available
	if !local.IsAvailable(ctx) {
		if config.SkipIfNotRunning {
			t.Skipf("DynamoDB Local not available on port %d", config.Port)
		}
		t.Fatalf("DynamoDB Local not available on port %d", config.Port)
	}

	table := dynaexpr.NewTable(NewTestTable(config.TablePrefix), config.Schema)
	if err := local.CreateTable(ctx, table, nil); err != nil {
		t.Fatalf("Failed to create test table %s: %v", table.TableName, err)
	}

	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), config.CleanupTimeout)
		defer cancel()

		if err := local.DeleteTable(cleanupCtx, table.TableName); err != nil {
			t.Errorf("Failed to cleanup table %s: %v", table.TableName, err)
		}
	})

	fn(local, table)
}
