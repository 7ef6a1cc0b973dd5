package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

// Message is a single outgoing email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers email messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid sender when apiKey is set, otherwise a sender that only logs.
func New(apiKey, fromName, fromEmail string, logger *zap.Logger) Sender {
	if apiKey == "" {
		return NewLogSender(logger)
	}
	return NewSendGridSender(apiKey, fromName, fromEmail)
}

// SendGridSender posts messages to the SendGrid v3 mail API.
type SendGridSender struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendGridSender builds a SendGrid-backed sender.
func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		key:        apiKey,
		host:       defaultHost,
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[" + fromName + "] ",
	}
}

// Send delivers msg. Context cancellation is honoured before the request is issued.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if msg.ToEmail == "" {
		return fmt.Errorf("recipient required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	req := sendgrid.GetRequest(s.key, endpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a logging sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not delivered, no provider configured",
		zap.String("to", msg.ToEmail),
		zap.String("subject", msg.Subject),
	)
	return nil
}
