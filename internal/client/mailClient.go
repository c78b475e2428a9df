package client

import (
	"context"
	"fmt"
	"log/slog"
	"tafaseel/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type MailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

func NewMailer(ctx context.Context, mailCfg *config.Mail, log *slog.Logger) (Mailer, error) {
	switch mailCfg.Driver {
	case "ses":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return &sesMailerImpl{client: ses.NewFromConfig(cfg), from: mailCfg.From}, nil
	case "log", "":
		return &logMailerImpl{log: log, from: mailCfg.From}, nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", mailCfg.Driver)
	}
}

type sesMailerImpl struct {
	client *ses.Client
	from   string
}

func (m *sesMailerImpl) Send(ctx context.Context, msg MailMessage) error {
	body := &types.Body{}
	if msg.Text != "" {
		body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}
	if msg.HTML != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(m.from),
		Destination: &types.Destination{ToAddresses: []string{msg.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

// logMailerImpl writes mail to the log instead of sending it.
type logMailerImpl struct {
	log  *slog.Logger
	from string
}

func (m *logMailerImpl) Send(ctx context.Context, msg MailMessage) error {
	m.log.InfoContext(ctx, "mail",
		"from", m.from,
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.Text,
	)
	return nil
}
