package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/telbozor/api/internal/domain"
)

// MessageRepo provides typed DynamoDB operations for the messages table.
type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
	item, err := marshalItem(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MessageRepo) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("message_id", messageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("message not found: %w", domain.ErrNotFound)
	}
	var m domain.Message
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForUser returns every message the user sent or received, oldest first.
func (r *MessageRepo) ListForUser(ctx context.Context, userID string) ([]domain.Message, error) {
	sent, err := queryAll[domain.Message](ctx, r.client, r.participantQuery(indexSenderCreated, "sender_id", userID))
	if err != nil {
		return nil, fmt.Errorf("query sent messages: %w", err)
	}
	received, err := queryAll[domain.Message](ctx, r.client, r.participantQuery(indexReceiverCreated, "receiver_id", userID))
	if err != nil {
		return nil, fmt.Errorf("query received messages: %w", err)
	}
	return mergeMessages(sent, received), nil
}

// ListThread returns the messages exchanged between a and b about one listing, oldest first.
func (r *MessageRepo) ListThread(ctx context.Context, listingID, a, b string) ([]domain.Message, error) {
	msgs, err := queryAll[domain.Message](ctx, r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexListingCreated),
		KeyConditionExpression: aws.String("listing_id = :lid"),
		FilterExpression:       aws.String("(sender_id = :a AND receiver_id = :b) OR (sender_id = :b AND receiver_id = :a)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: listingID},
			":a":   &types.AttributeValueMemberS{Value: a},
			":b":   &types.AttributeValueMemberS{Value: b},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	sortMessages(msgs)
	return msgs, nil
}

// UpdateContent replaces the text of a message and returns the stored message.
func (r *MessageRepo) UpdateContent(ctx context.Context, messageID, content string) (*domain.Message, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldContent: content})
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("message_id", messageID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(message_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, notFoundOnConditionFailure(err, "message")
	}
	var m domain.Message
	if err := attributevalue.UnmarshalMap(out.Attributes, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MessageRepo) Delete(ctx context.Context, messageID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("message_id", messageID),
	})
	return err
}

// MarkRead sets is_read on each message. Messages that no longer exist are skipped.
func (r *MessageRepo) MarkRead(ctx context.Context, messageIDs []string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return err
	}
	for _, id := range messageIDs {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey("message_id", id),
			UpdateExpression:          aws.String(ue.Expr),
			ConditionExpression:       aws.String("attribute_exists(message_id)"),
			ExpressionAttributeNames:  ue.Names,
			ExpressionAttributeValues: ue.Values,
		})
		var ccf *types.ConditionalCheckFailedException
		if err != nil && !errors.As(err, &ccf) {
			return fmt.Errorf("mark message %s read: %w", id, err)
		}
	}
	return nil
}

func (r *MessageRepo) participantQuery(index, attr, userID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(index),
		KeyConditionExpression: aws.String("#p = :uid"),
		ExpressionAttributeNames: map[string]string{
			"#p": attr,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(true),
	}
}

// mergeMessages de-duplicates by message ID and orders by arrival.
// A message sent to oneself appears in both inputs.
func mergeMessages(sets ...[]domain.Message) []domain.Message {
	seen := make(map[string]struct{})
	var out []domain.Message
	for _, set := range sets {
		for _, m := range set {
			if _, ok := seen[m.MessageID]; ok {
				continue
			}
			seen[m.MessageID] = struct{}{}
			out = append(out, m)
		}
	}
	sortMessages(out)
	return out
}

// sortMessages orders by creation time. Message IDs are monotonic ULIDs, so
// they break ties between messages stored in the same instant.
func sortMessages(msgs []domain.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		if !msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		}
		return msgs[i].MessageID < msgs[j].MessageID
	})
}
