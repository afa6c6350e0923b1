// Package notify sends low-stock alerts to an SNS topic, which fans them out
// to the kitchen staff's phones and mailboxes.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
)

const defaultRegion = "eu-central-1"

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSNotifier struct {
	client   publisher
	topicARN string
	kitchen  string
}

// NewSNSNotifier loads the default AWS credential chain for region.
func NewSNSNotifier(ctx context.Context, region, topicARN, kitchenName string) (*SNSNotifier, error) {
	if topicARN == "" {
		return nil, errors.New("notify: topic arn is required")
	}
	if region == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("notify: load aws config: %w", err)
	}
	return &SNSNotifier{client: sns.NewFromConfig(cfg), topicARN: topicARN, kitchen: kitchenName}, nil
}

func (n *SNSNotifier) NotifyLowStock(ctx context.Context, e alert.LowStockEvent) error {
	subject := "Low stock: " + e.IngredientName
	if n.kitchen != "" {
		subject = n.kitchen + ": " + subject
	}
	// SNS rejects subjects over 100 characters
	if len(subject) > 100 {
		subject = subject[:100]
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("notify: encode alert: %w", err)
	}
	msg, err := json.Marshal(map[string]string{
		"default": e.Message,
		"email":   e.Message,
		"sqs":     string(body),
		"lambda":  string(body),
	})
	if err != nil {
		return fmt.Errorf("notify: encode message: %w", err)
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn:         aws.String(n.topicARN),
		Subject:          aws.String(subject),
		Message:          aws.String(string(msg)),
		MessageStructure: aws.String("json"),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String(e.EventName())},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: publish alert %s: %w", e.AlertID, err)
	}
	return nil
}
