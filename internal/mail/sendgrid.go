package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridMailer struct {
	host       string
	key        string
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

// NewSendgridMailer creates a Mailer backed by the SendGrid v3 API.
func NewSendgridMailer(apiKey, fromName, fromAddress, appName string, logger *zap.Logger) Mailer {
	return &sendgridMailer{
		host:       sendgridHost,
		key:        apiKey,
		from:       sgmail.NewEmail(fromName, fromAddress),
		subjPrefix: "[" + appName + "] ",
		logger:     logger,
	}
}

// SendGradeNotification sends one mail. It gives up when ctx is done; the
// SendGrid client has no context support, so an abandoned request finishes
// in the background.
func (m *sendgridMailer) SendGradeNotification(ctx context.Context, n GradeNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := renderGradeNotification(n)

	done := make(chan error, 1)
	go func() { done <- m.send(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		m.logger.Warn("mail send abandoned", zap.String("to", msg.toAddr), zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func (m *sendgridMailer) prepare(msg message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.subject
	p.AddTos(sgmail.NewEmail(msg.toName, msg.toAddr))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(
		sgmail.NewContent("text/plain", msg.text),
		sgmail.NewContent("text/html", msg.html),
	)
	return v3
}

func (m *sendgridMailer) send(msg message) error {
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	m.logger.Debug("mail sent", zap.String("to", msg.toAddr), zap.Int("status", res.StatusCode))
	return nil
}
