package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/telbozor/api/internal/config"
	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/infrastructure/awscfg"
)

// TopicPublisher pushes match notifications to an SNS topic. Mobile push
// subscriptions filter on the user_id message attribute.
type TopicPublisher struct {
	client   *sns.Client
	topicARN string
}

type pushPayload struct {
	NotificationID string  `json:"notification_id"`
	UserID         string  `json:"user_id"`
	ListingID      *string `json:"listing_id,omitempty"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
}

func NewTopicPublisher(ctx context.Context, cfg *config.Config) (*TopicPublisher, error) {
	awsCfg, err := awscfg.Load(ctx, cfg, cfg.SNSRegion)
	if err != nil {
		return nil, err
	}
	endpoint := awscfg.Endpoint(cfg)
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.BaseEndpoint = endpoint
	})
	return &TopicPublisher{client: client, topicARN: cfg.SNSTopicARN}, nil
}

func (p *TopicPublisher) Publish(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(pushPayload{
		NotificationID: n.NotificationID,
		UserID:         n.UserID,
		ListingID:      n.ListingID,
		Title:          n.Title,
		Message:        n.Message,
	})
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(n.Title),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"user_id": {DataType: aws.String("String"), StringValue: aws.String(n.UserID)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
