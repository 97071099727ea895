// internal/common/aws/clients.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

const smsTypeAttribute = "AWS.SNS.SMS.SMSType"

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SESClient sends match notification emails.
type SESClient struct {
	client sesAPI
}

// SNSClient sends match notification text messages. Direct-to-phone
// publishes are marked transactional unless the caller set a type.
type SNSClient struct {
	client snsAPI
}

// NewClients loads the shared AWS configuration once and builds the clients
// that are enabled. Disabled clients are nil.
func NewClients(ctx context.Context, region string, email, sms bool) (*SESClient, *SNSClient, error) {
	if !email && !sms {
		return nil, nil, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, nil, fmt.Errorf("load aws config for %s: %w", region, err)
	}

	var (
		sesClient *SESClient
		snsClient *SNSClient
	)
	if email {
		sesClient = &SESClient{client: ses.NewFromConfig(cfg)}
	}
	if sms {
		snsClient = &SNSClient{client: sns.NewFromConfig(cfg)}
	}
	return sesClient, snsClient, nil
}

func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input, optFns...)
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if input.PhoneNumber != nil {
		if _, ok := input.MessageAttributes[smsTypeAttribute]; !ok {
			attrs := make(map[string]snstypes.MessageAttributeValue, len(input.MessageAttributes)+1)
			for k, v := range input.MessageAttributes {
				attrs[k] = v
			}
			attrs[smsTypeAttribute] = snstypes.MessageAttributeValue{
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String("Transactional"),
			}
			in := *input
			in.MessageAttributes = attrs
			input = &in
		}
	}
	return s.client.Publish(ctx, input, optFns...)
}
