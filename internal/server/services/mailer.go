package services

import (
	"context"

	"github.com/dmitrijs2005/jobportal/internal/logging"
)

// Mailer delivers account mail: login codes and verification or reset links.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outgoing mail to the log instead of sending it.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info(ctx, "Mail sent", "to", to, "subject", subject, "body", body)
	return nil
}
