package mail

import (
	"context"

	"go.uber.org/zap"
)

// logMailer writes mail to the log instead of sending it. Used when no
// SendGrid key is configured.
type logMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) SendGradeNotification(ctx context.Context, n GradeNotification) error {
	msg := renderGradeNotification(n)
	m.logger.Info("mail (not sent)",
		zap.String("to", msg.toAddr),
		zap.String("subject", msg.subject),
		zap.String("text", msg.text),
	)
	return nil
}
