package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/config"
)

// Bootstrap creates every table and GSI the marketplace needs. Tables that
// already exist are left untouched, so it runs on every startup.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables) {
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Listings),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(
			attr("listing_id", types.ScalarAttributeTypeS),
			attr("owner_id", types.ScalarAttributeTypeS),
			attr("city", types.ScalarAttributeTypeS),
			attr("created_at", types.ScalarAttributeTypeS),
		),
		KeySchema: keySchema("listing_id", ""),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexOwnerCreated, "owner_id", "created_at"),
			gsi(indexCityCreated, "city", "created_at"),
		},
	})

	// display_order is the sort key so a Limit=1 query returns the primary image.
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.ListingImages),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(
			attr("listing_id", types.ScalarAttributeTypeS),
			attr("display_order", types.ScalarAttributeTypeN),
		),
		KeySchema: keySchema("listing_id", "display_order"),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Brands),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(attr("brand_id", types.ScalarAttributeTypeS)),
		KeySchema:            keySchema("brand_id", ""),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Requests),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(
			attr("request_id", types.ScalarAttributeTypeS),
			attr("user_id", types.ScalarAttributeTypeS),
			attr("created_at", types.ScalarAttributeTypeS),
		),
		KeySchema: keySchema("request_id", ""),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserCreated, "user_id", "created_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Notifications),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(
			attr("notification_id", types.ScalarAttributeTypeS),
			attr("user_id", types.ScalarAttributeTypeS),
			attr("created_at", types.ScalarAttributeTypeS),
		),
		KeySchema: keySchema("notification_id", ""),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserCreated, "user_id", "created_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Messages),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(
			attr("message_id", types.ScalarAttributeTypeS),
			attr("sender_id", types.ScalarAttributeTypeS),
			attr("receiver_id", types.ScalarAttributeTypeS),
			attr("listing_id", types.ScalarAttributeTypeS),
			attr("created_at", types.ScalarAttributeTypeS),
		),
		KeySchema: keySchema("message_id", ""),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexSenderCreated, "sender_id", "created_at"),
			gsi(indexReceiverCreated, "receiver_id", "created_at"),
			gsi(indexListingCreated, "listing_id", "created_at"),
		},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Profiles),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(attr("user_id", types.ScalarAttributeTypeS)),
		KeySchema:            keySchema("user_id", ""),
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Likes),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: attrs(
			attr("user_id", types.ScalarAttributeTypeS),
			attr("listing_id", types.ScalarAttributeTypeS),
		),
		KeySchema: keySchema("user_id", "listing_id"),
	})
}

func attr(name string, t types.ScalarAttributeType) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: t}
}

func attrs(defs ...types.AttributeDefinition) []types.AttributeDefinition { return defs }

// keySchema builds a primary key schema. If sortKey is empty, only a hash key is added.
func keySchema(hashKey, sortKey string) []types.KeySchemaElement {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return ks
}

// gsi builds a GSI descriptor projecting all attributes.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  keySchema(hashKey, sortKey),
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
	} else {
		slog.Info("created table", "table", *input.TableName)
	}
}
