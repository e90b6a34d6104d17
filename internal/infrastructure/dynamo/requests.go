package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/domain"
)

// RequestRepo provides typed DynamoDB operations for the phone_requests table.
type RequestRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRequestRepo(client *dynamodb.Client, tableName string) *RequestRepo {
	return &RequestRepo{client: client, tableName: tableName}
}

func (r *RequestRepo) Put(ctx context.Context, req *domain.SearchRequest) error {
	item, err := marshalItem(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RequestRepo) Get(ctx context.Context, requestID string) (*domain.SearchRequest, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("request_id", requestID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("request not found: %w", domain.ErrNotFound)
	}
	var req domain.SearchRequest
	if err := attributevalue.UnmarshalMap(out.Item, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepo) Delete(ctx context.Context, requestID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("request_id", requestID),
	})
	return err
}

// ListActive scans every active request. The matcher needs the whole set, so
// the scan follows pagination to the end.
func (r *RequestRepo) ListActive(ctx context.Context) ([]domain.SearchRequest, error) {
	return scanAll[domain.SearchRequest](ctx, r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("#active = :t"),
		ExpressionAttributeNames: map[string]string{"#active": fieldIsActive},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
}

// ListByUser returns the user's requests newest first.
func (r *RequestRepo) ListByUser(ctx context.Context, userID string) ([]domain.SearchRequest, error) {
	return queryAll[domain.SearchRequest](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreated),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

func (r *RequestRepo) SetActive(ctx context.Context, requestID string, active bool) (*domain.SearchRequest, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldIsActive:  active,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("request_id", requestID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(request_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, notFoundOnConditionFailure(err, "request")
	}
	var req domain.SearchRequest
	if err := attributevalue.UnmarshalMap(out.Attributes, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
