package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/domain"
)

// LikeRepo is the source of truth for which listings a user liked.
// PK: user_id, SK: listing_id.
type LikeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewLikeRepo(client *dynamodb.Client, tableName string) *LikeRepo {
	return &LikeRepo{client: client, tableName: tableName}
}

func (r *LikeRepo) Put(ctx context.Context, l *domain.Like) error {
	item, err := marshalItem(l)
	if err != nil {
		return fmt.Errorf("marshal like: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *LikeRepo) Delete(ctx context.Context, userID, listingID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "listing_id", listingID),
	})
	return err
}

func (r *LikeRepo) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  compositeKey("user_id", userID, "listing_id", listingID),
		ProjectionExpression: aws.String("user_id"),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

func (r *LikeRepo) ListByUser(ctx context.Context, userID string) ([]domain.Like, error) {
	return queryAll[domain.Like](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
}
