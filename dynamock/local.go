package dynamock

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynaexpr"
)

// DefaultLocalPort is the default port for DynamoDB Local.
const DefaultLocalPort = 8000

// LocalDynamoDB represents a connection to a local DynamoDB instance.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

// NewLocalClient creates a DynamoDB client configured to connect to a local
// DynamoDB instance. The shared AWS configuration is loaded for everything but
// the endpoint and credentials, which are fixed for DynamoDB Local.
//
// Example usage:
//
//	client, err := dynamock.NewLocalClient(ctx, 8000)
//	// Use client with your tests
func NewLocalClient(ctx context.Context, port int) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"), // DynamoDB Local doesn't care about region
		config.WithCredentialsProvider(localCredentials),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewLocalClientFromConfig(cfg, port), nil
}

// NewLocalClientFromConfig creates a local DynamoDB client using the provided AWS config.
// This allows for more customization than NewLocalClient.
func NewLocalClientFromConfig(cfg aws.Config, port int) *dynamodb.Client {
	endpoint := localEndpoint(port)

	cfg.Credentials = localCredentials

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
}

// DynamoDB Local requires signed requests but accepts any key pair.
var localCredentials = credentials.NewStaticCredentialsProvider("local", "local", "")

func localEndpoint(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// NewLocalDynamoDB creates a LocalDynamoDB instance with the specified port.
// This provides additional utilities beyond just the client.
func NewLocalDynamoDB(ctx context.Context, port int) (*LocalDynamoDB, error) {
	client, err := NewLocalClient(ctx, port)
	if err != nil {
		return nil, err
	}
	return &LocalDynamoDB{
		Client:   client,
		Endpoint: localEndpoint(port),
		Port:     port,
	}, nil
}

// IsAvailable checks if DynamoDB Local is running on the configured port.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	// Try to connect to the port
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", l.Port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	// Try to list tables to verify it's actually DynamoDB
	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	return err == nil
}

// WaitForAvailable waits for DynamoDB Local to become available.
// Returns an error if it doesn't become available within the timeout.
func (l *LocalDynamoDB) WaitForAvailable(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		if l.IsAvailable(ctx) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}

	return fmt.Errorf("DynamoDB Local not available at %s after %v", l.Endpoint, timeout)
}

// CreateTableInput returns the create table request for table. Key attributes
// are strings unless keyTypes overrides them.
func CreateTableInput(table *dynaexpr.Table, keyTypes map[string]types.ScalarAttributeType) *dynamodb.CreateTableInput {
	attributeType := func(name string) types.ScalarAttributeType {
		if t, ok := keyTypes[name]; ok {
			return t
		}
		return types.ScalarAttributeTypeS
	}

	schema := table.Schema
	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(table.TableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(schema.PartitionKey),
				AttributeType: attributeType(schema.PartitionKey),
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(schema.PartitionKey),
				KeyType:       types.KeyTypeHash,
			},
		},
	}

	if schema.SortKey != "" {
		input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(schema.SortKey),
			AttributeType: attributeType(schema.SortKey),
		})
		input.KeySchema = append(input.KeySchema, types.KeySchemaElement{
			AttributeName: aws.String(schema.SortKey),
			KeyType:       types.KeyTypeRange,
		})
	}

	return input
}

// CreateTable creates a table with the key schema of table and waits for it
// to become active.
func (l *LocalDynamoDB) CreateTable(ctx context.Context, table *dynaexpr.Table, keyTypes map[string]types.ScalarAttributeType) error {
	if err := table.Schema.Validate(); err != nil {
		return err
	}

	_, err := l.Client.CreateTable(ctx, CreateTableInput(table, keyTypes))
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", table.TableName, err)
	}

	// Wait for table to become active
	return l.WaitForTableActive(ctx, table.TableName, 30*time.Second)
}

// WaitForTableActive waits for a table to become active.
func (l *LocalDynamoDB) WaitForTableActive(ctx context.Context, tableName string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		output, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			return fmt.Errorf("failed to describe table %s: %w", tableName, err)
		}

		if output.Table.TableStatus == types.TableStatusActive {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}

	return fmt.Errorf("table %s did not become active within %v", tableName, timeout)
}

// DeleteTable deletes a table and waits for it to be fully deleted.
func (l *LocalDynamoDB) DeleteTable(ctx context.Context, tableName string) error {
	_, err := l.Client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableName, err)
	}

	// Wait for table to be deleted
	return l.WaitForTableDeleted(ctx, tableName, 30*time.Second)
}

// WaitForTableDeleted waits for a table to be fully deleted.
func (l *LocalDynamoDB) WaitForTableDeleted(ctx context.Context, tableName string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		_, err := l.Client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		})

		// If we get a ResourceNotFoundException, the table is deleted
		if err != nil {
			var notFoundErr *types.ResourceNotFoundException
			if errors.As(err, &notFoundErr) {
				return nil
			}
			return fmt.Errorf("error checking table deletion status: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}

	return fmt.Errorf("table %s was not deleted within %v", tableName, timeout)
}
