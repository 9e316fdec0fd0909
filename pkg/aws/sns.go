package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher publishes order events to a topic. Attributes become String
// message attributes so subscribers can filter on them.
type SNSPublisher interface {
	Publish(ctx context.Context, topicArn string, message []byte, attributes map[string]string) error
}

type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return &SNSClient{client: sns.NewFromConfig(cfg)}
}

func (s *SNSClient) Publish(ctx context.Context, topicArn string, message []byte, attributes map[string]string) error {
	if topicArn == "" {
		return fmt.Errorf("empty topicArn")
	}
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          sdkaws.String(topicArn),
		Message:           sdkaws.String(string(message)),
		MessageAttributes: MessageAttributes(attributes),
	})
	if err != nil {
		return fmt.Errorf("sns publish to %s: %w", topicArn, err)
	}
	return nil
}

// MessageAttributes converts plain string attributes, skipping empty values
// which SNS rejects.
func MessageAttributes(attributes map[string]string) map[string]types.MessageAttributeValue {
	if len(attributes) == 0 {
		return nil
	}
	out := make(map[string]types.MessageAttributeValue, len(attributes))
	for name, value := range attributes {
		if value == "" {
			continue
		}
		out[name] = types.MessageAttributeValue{
			DataType:    sdkaws.String("String"),
			StringValue: sdkaws.String(value),
		}
	}
	return out
}
