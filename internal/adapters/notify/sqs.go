package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sjaypeter/Veterinary-Telemedicine-Api/internal/domain/notifications"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsSender interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type SQSPublisher struct {
	client   sqsSender
	queueURL string
	timeout  time.Duration
}

var _ notifications.Publisher = (*SQSPublisher)(nil)

// NewSQSPublisher usa la cadena de credenciales por defecto de AWS.
func NewSQSPublisher(ctx context.Context, region, queueURL string, timeout time.Duration) (*SQSPublisher, error) {
	if queueURL == "" {
		return nil, errors.New("sqs: empty queue url")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("sqs: load aws config: %w", err)
	}
	return &SQSPublisher{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		timeout:  timeout,
	}, nil
}

func (p *SQSPublisher) Publish(ctx context.Context, n notifications.Notification) error {
	body, err := Encode(n)
	if err != nil {
		return fmt.Errorf("sqs: encode notification %s: %w", n.ID, err)
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"recipient_id": {DataType: aws.String("String"), StringValue: aws.String(n.RecipientID)},
			"type":         {DataType: aws.String("String"), StringValue: aws.String(string(n.Type))},
		},
	})
	if err != nil {
		return fmt.Errorf("sqs: publish notification %s: %w", n.ID, err)
	}
	return nil
}
