package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulhayo-abdurazzoqova/kindergarten-kitchen-keeper-pro/internal/domain/alert"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func TestNotifyLowStockPublishesToTopic(t *testing.T) {
	client := &fakeSNS{}
	n := &SNSNotifier{client: client, topicARN: "arn:aws:sns:eu-central-1:1:kitchen", kitchen: "KinderKitchen"}

	evt := alert.LowStockEvent{AlertID: "a1", IngredientName: "Milk", Message: "Milk is below minimum quantity"}
	require.NoError(t, n.NotifyLowStock(context.Background(), evt))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:eu-central-1:1:kitchen", aws.ToString(in.TopicArn))
	assert.Equal(t, "KinderKitchen: Low stock: Milk", aws.ToString(in.Subject))
	assert.Equal(t, "json", aws.ToString(in.MessageStructure))
	assert.Equal(t, "stock.low", aws.ToString(in.MessageAttributes["event"].StringValue))

	var msg map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &msg))
	assert.Equal(t, "Milk is below minimum quantity", msg["default"])
	assert.Contains(t, msg["sqs"], `"alertId":"a1"`)
}

func TestNotifyLowStockTruncatesSubject(t *testing.T) {
	client := &fakeSNS{}
	n := &SNSNotifier{client: client, topicARN: "arn"}

	require.NoError(t, n.NotifyLowStock(context.Background(), alert.LowStockEvent{IngredientName: strings.Repeat("x", 150)}))

	assert.Len(t, aws.ToString(client.inputs[0].Subject), 100)
}

func TestNotifyLowStockWrapsError(t *testing.T) {
	boom := errors.New("throttled")
	n := &SNSNotifier{client: &fakeSNS{err: boom}, topicARN: "arn"}

	err := n.NotifyLowStock(context.Background(), alert.LowStockEvent{AlertID: "a9"})

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a9")
}

func TestNewSNSNotifierRequiresTopic(t *testing.T) {
	_, err := NewSNSNotifier(context.Background(), "", "", "")
	assert.Error(t, err)
}
