package backend

import (
	"context"
	"net/url"

	"github.com/questeded/quested/internal/logger"
)

// Mailer delivers auth links to users.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, link string) error
	SendRecovery(ctx context.Context, email, link string) error
}

// LogMailer writes links to the log instead of sending mail. Used in
// development and when no mail provider is configured.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log.With("service", "LogMailer")}
}

func (m *LogMailer) SendConfirmation(_ context.Context, email, link string) error {
	m.log.Info("Confirmation link issued", "to", email, "link", link)
	return nil
}

func (m *LogMailer) SendRecovery(_ context.Context, email, link string) error {
	m.log.Info("Recovery link issued", "to", email, "link", link)
	return nil
}

// buildLink appends the token to redirectTo. With no redirect the bare
// token is returned.
func buildLink(redirectTo, kind, token string) string {
	if redirectTo == "" {
		return token
	}
	u, err := url.Parse(redirectTo)
	if err != nil {
		return token
	}
	q := u.Query()
	q.Set("type", kind)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
