package sender

import (
	"context"
	"fmt"

	"chefly/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// smsBodyLimit keeps messages inside a single SMS segment.
const smsBodyLimit = 160

// snsAPI is the slice of *sns.Client the SMS sender uses.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SMSSender delivers over AWS SNS. The dispatcher only invokes it for
// high/urgent priority; the sender itself just formats and publishes.
type SMSSender struct {
	Client   snsAPI
	SenderID string
}

// NewSMSSender builds an SNS-backed sender for the given region.
func NewSMSSender(ctx context.Context, region, senderID string) (*SMSSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SMSSender{Client: sns.NewFromConfig(cfg), SenderID: senderID}, nil
}

func (s *SMSSender) Channel() models.NotificationChannel { return models.ChannelSMS }

func (s *SMSSender) Send(ctx context.Context, dest Destination, payload models.NotificationPayload) Outcome {
	if dest.Phone == "" {
		return failure(models.ErrorKindNoDestination, fmt.Errorf("user %s has no phone number", dest.UserID))
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(dest.Phone),
		Message:     aws.String(SMSBody(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.SenderID),
			},
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	}

	out, err := s.Client.Publish(ctx, input)
	if err != nil {
		return failure(classify(err), err)
	}
	return Outcome{OK: true, ProviderMessageID: aws.ToString(out.MessageId)}
}

// SMSBody renders "title: body" truncated to a single SMS segment.
func SMSBody(payload models.NotificationPayload) string {
	body := payload.Title + ": " + payload.Body
	runes := []rune(body)
	if len(runes) <= smsBodyLimit {
		return body
	}
	return string(runes[:smsBodyLimit-1]) + "…"
}
