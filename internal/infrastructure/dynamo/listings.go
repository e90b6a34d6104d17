package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/domain"
)

// batchGetLimit is the DynamoDB maximum number of keys per BatchGetItem.
const batchGetLimit = 100

// ListingRepo provides typed DynamoDB operations for the listings table.
type ListingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewListingRepo(client *dynamodb.Client, tableName string) *ListingRepo {
	return &ListingRepo{client: client, tableName: tableName}
}

func (r *ListingRepo) Put(ctx context.Context, l *domain.Listing) error {
	item, err := marshalItem(l)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ListingRepo) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("listing_id", listingID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("listing not found: %w", domain.ErrNotFound)
	}
	var l domain.Listing
	if err := attributevalue.UnmarshalMap(out.Item, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Update applies a partial update and returns the stored listing.
func (r *ListingRepo) Update(ctx context.Context, listingID string, updates map[string]interface{}) (*domain.Listing, error) {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("listing_id", listingID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(listing_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, notFoundOnConditionFailure(err, "listing")
	}
	var l domain.Listing
	if err := attributevalue.UnmarshalMap(out.Attributes, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepo) Delete(ctx context.Context, listingID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("listing_id", listingID),
	})
	return err
}

// List returns listings newest first, optionally restricted to one city.
func (r *ListingRepo) List(ctx context.Context, city *domain.City) ([]domain.Listing, error) {
	if city != nil {
		return queryAll[domain.Listing](ctx, r.client, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(indexCityCreated),
			KeyConditionExpression: aws.String("city = :city"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":city": &types.AttributeValueMemberS{Value: string(*city)},
			},
			ScanIndexForward: aws.Bool(false),
		})
	}
	listings, err := scanAll[domain.Listing](ctx, r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

func (r *ListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	return queryAll[domain.Listing](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexOwnerCreated),
		KeyConditionExpression: aws.String("owner_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: ownerID},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

// BatchGet loads the listings with the given IDs. Missing IDs are skipped and
// the result order is unspecified.
func (r *ListingRepo) BatchGet(ctx context.Context, listingIDs []string) ([]domain.Listing, error) {
	var out []domain.Listing
	for start := 0; start < len(listingIDs); start += batchGetLimit {
		end := min(start+batchGetLimit, len(listingIDs))
		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, id := range listingIDs[start:end] {
			keys = append(keys, strKey("listing_id", id))
		}
		pending := map[string]types.KeysAndAttributes{r.tableName: {Keys: keys}}
		for attempt := 0; len(pending[r.tableName].Keys) > 0; attempt++ {
			if attempt > maxBatchRetries {
				return nil, fmt.Errorf("batch get %s: %d keys left unprocessed", r.tableName, len(pending[r.tableName].Keys))
			}
			if err := backoff(ctx, attempt); err != nil {
				return nil, fmt.Errorf("batch get %s: %w", r.tableName, err)
			}
			res, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, fmt.Errorf("batch get %s: %w", r.tableName, err)
			}
			var page []domain.Listing
			if err := attributevalue.UnmarshalListOfMaps(res.Responses[r.tableName], &page); err != nil {
				return nil, err
			}
			out = append(out, page...)
			pending = res.UnprocessedKeys
		}
	}
	return out, nil
}
