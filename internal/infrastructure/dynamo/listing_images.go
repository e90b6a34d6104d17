package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/domain"
)

// ListingImageRepo stores the ordered image keys of each listing.
// PK: listing_id, SK: display_order.
type ListingImageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewListingImageRepo(client *dynamodb.Client, tableName string) *ListingImageRepo {
	return &ListingImageRepo{client: client, tableName: tableName}
}

func (r *ListingImageRepo) List(ctx context.Context, listingID string) ([]domain.ListingImage, error) {
	return queryAll[domain.ListingImage](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("listing_id = :lid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: listingID},
		},
		ScanIndexForward: aws.Bool(true),
	})
}

// Primary returns the image with the lowest display order, or nil when the
// listing has no images.
func (r *ListingImageRepo) Primary(ctx context.Context, listingID string) (*domain.ListingImage, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("listing_id = :lid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: listingID},
		},
		ScanIndexForward: aws.Bool(true),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, nil
	}
	var img domain.ListingImage
	if err := attributevalue.UnmarshalMap(out.Items[0], &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// Replace swaps the listing's image set for objectKeys, in order.
// The first key becomes the primary image.
func (r *ListingImageRepo) Replace(ctx context.Context, listingID string, objectKeys []string) ([]domain.ListingImage, error) {
	if err := r.DeleteAll(ctx, listingID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	images := make([]domain.ListingImage, 0, len(objectKeys))
	reqs := make([]types.WriteRequest, 0, len(objectKeys))
	for i, key := range objectKeys {
		img := domain.ListingImage{
			ListingID:    listingID,
			DisplayOrder: i,
			ObjectKey:    key,
			IsPrimary:    i == 0,
			CreatedAt:    now,
		}
		item, err := marshalItem(img)
		if err != nil {
			return nil, fmt.Errorf("marshal listing image: %w", err)
		}
		images = append(images, img)
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	if err := batchWrite(ctx, r.client, r.tableName, reqs); err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ListingImageRepo) DeleteAll(ctx context.Context, listingID string) error {
	existing, err := r.List(ctx, listingID)
	if err != nil {
		return err
	}
	reqs := make([]types.WriteRequest, 0, len(existing))
	for _, img := range existing {
		reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
			Key: map[string]types.AttributeValue{
				"listing_id":    &types.AttributeValueMemberS{Value: listingID},
				"display_order": &types.AttributeValueMemberN{Value: strconv.Itoa(img.DisplayOrder)},
			},
		}})
	}
	return batchWrite(ctx, r.client, r.tableName, reqs)
}
