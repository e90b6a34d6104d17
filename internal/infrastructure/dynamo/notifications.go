package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/domain"
)

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewNotificationRepo(client *dynamodb.Client, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// PutBatch writes all notifications, 25 per request.
func (r *NotificationRepo) PutBatch(ctx context.Context, notifications []domain.Notification) error {
	reqs := make([]types.WriteRequest, 0, len(notifications))
	for i := range notifications {
		item, err := marshalItem(&notifications[i])
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return batchWrite(ctx, r.client, r.tableName, reqs)
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("notification_id", notificationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByUser returns the user's notifications newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string) ([]domain.Notification, error) {
	return queryAll[domain.Notification](ctx, r.client, r.userQuery(userID, false))
}

// ListUnread queries the user_id-created_at GSI and filters for is_read = false.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return queryAll[domain.Notification](ctx, r.client, r.userQuery(userID, true))
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	input := r.userQuery(userID, true)
	input.Select = types.SelectCount
	total := 0
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(page.Count)
	}
	return total, nil
}

func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("notification_id", notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(notification_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return notFoundOnConditionFailure(err, "notification")
}

// MarkAllRead marks every unread notification of the user and returns how many
// were updated. It stops at the first failure.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	unread, err := r.ListUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	for i, n := range unread {
		if err := r.MarkAsRead(ctx, n.NotificationID); err != nil {
			return i, err
		}
	}
	return len(unread), nil
}

func (r *NotificationRepo) userQuery(userID string, unreadOnly bool) *dynamodb.QueryInput {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreated),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if unreadOnly {
		input.FilterExpression = aws.String("#read = :f")
		input.ExpressionAttributeNames = map[string]string{"#read": fieldIsRead}
		input.ExpressionAttributeValues[":f"] = &types.AttributeValueMemberBOOL{Value: false}
	}
	return input
}
