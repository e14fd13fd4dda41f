package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"
)

const alertFooter = "----------------------------------------\n" +
	"This is an automated email to report client health issues, " +
	"take appropriate action to avoid getting this message every hour."

// Email sends degradation alerts over SMTP. The transport is upgraded via
// mandatory STARTTLS before authenticating.
type Email struct {
	From   string
	client *mail.Client
}

func NewEmail(host string, port int, from, password string) (*Email, error) {
	c, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(from),
		mail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &Email{From: from, client: c}, nil
}

func (e *Email) Notify(ctx context.Context, a Alert) error {
	msg := mail.NewMsg()
	if err := msg.From(e.From); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := msg.To(a.Recipient); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	msg.Subject(Subject(a.Host))
	msg.SetBodyString(mail.TypeTextPlain, Body(a.Host, a.Issues))

	if err := e.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send to %s: %w", a.Recipient, err)
	}
	return nil
}

func Subject(host string) string {
	return "Client-Health: Services Down for " + host
}

// Body enumerates the issues 1-indexed and appends the fixed footer. The host
// gets a zero-width space after each dot so mail clients don't linkify it.
func Body(host string, issues []string) string {
	var b strings.Builder
	displayHost := strings.ReplaceAll(host, ".", ".\u200b")
	fmt.Fprintf(&b, "The following services are down for client %s:\n\n", displayHost)
	for i, issue := range issues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, issue)
	}
	b.WriteString("\n")
	b.WriteString(alertFooter)
	return b.String()
}
