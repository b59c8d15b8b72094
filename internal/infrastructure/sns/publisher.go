package snsinfra

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/parishpush/internal/domain"
)

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends domain events to an SNS topic. With no topic configured
// Publish is a no-op.
type Publisher struct {
	client   publishAPI
	topicARN string
}

// NewClient creates an SNS client, honouring a LocalStack endpoint override.
func NewClient(awsCfg aws.Config, endpointURL string) *sns.Client {
	var opts []func(*sns.Options)
	if endpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(endpointURL)
		})
	}
	return sns.NewFromConfig(awsCfg, opts...)
}

func NewPublisher(client *sns.Client, topicARN string) *Publisher {
	return &Publisher{client: client, topicARN: topicARN}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.Event) error {
	if p == nil || p.topicARN == "" {
		return nil
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event_type": {DataType: aws.String("String"), StringValue: aws.String(string(ev.Type))},
			"parish_id":  {DataType: aws.String("String"), StringValue: aws.String(ev.ParishID)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
