package mail

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"
)

// Subject is used for every relayed contact message.
const Subject = "New Contact Message - CloudNotes"

// Message is a contact form submission.
type Message struct {
	Name  string
	Email string
	Body  string
}

// Sender delivers one message to the site owner.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendgridSender delivers through the SendGrid v3 API.
type SendgridSender struct {
	client *sendgrid.Client
	from   *sgmail.Email
	to     *sgmail.Email
}

func NewSendgridSender(apiKey, from, to string) *SendgridSender {
	return &SendgridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail("CloudNotes", from),
		to:     sgmail.NewEmail("CloudNotes", to),
	}
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	message := sgmail.NewSingleEmail(s.from, Subject, s.to, PlainText(msg), htmlContent(msg))
	message.SetReplyTo(sgmail.NewEmail(msg.Name, msg.Email))

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("send contact mail: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

// LogSender is used when no mail provider is configured; it only records the submission.
type LogSender struct {
	Logger *logrus.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.WithField("from", msg.Email).Info("mail delivery disabled, contact message dropped")
	return nil
}

// PlainText renders the body sent to the site owner.
func PlainText(msg Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", msg.Name)
	fmt.Fprintf(&b, "Email: %s\n", msg.Email)
	fmt.Fprintf(&b, "Message:\n%s\n", msg.Body)
	return b.String()
}

func htmlContent(msg Message) string {
	return fmt.Sprintf("<p><strong>Name:</strong> %s</p><p><strong>Email:</strong> %s</p><p>%s</p>",
		html.EscapeString(msg.Name),
		html.EscapeString(msg.Email),
		strings.ReplaceAll(html.EscapeString(msg.Body), "\n", "<br>"),
	)
}
