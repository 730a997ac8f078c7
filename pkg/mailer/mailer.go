// Package mailer sends transactional mail over SMTP. Sends are
// fire-and-forget from the caller's point of view: a failed send is logged by
// the caller and never blocks an order.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Config holds SMTP connection credentials.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Mailer sends plain-text mail through a single SMTP account.
type Mailer struct {
	cfg Config
}

// New creates a Mailer. Returns nil when no SMTP host is configured, so
// callers can wire it straight through as an optional dependency.
func New(cfg Config) *Mailer {
	if cfg.Host == "" {
		return nil
	}
	return &Mailer{cfg: cfg}
}

func (m *Mailer) send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	addr := m.cfg.Host + ":" + m.cfg.Port
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

// SendOrderPlaced mails the order confirmation for a freshly placed order.
func (m *Mailer) SendOrderPlaced(to, orderNumber string, total float64) error {
	subject := fmt.Sprintf("Order %s received", orderNumber)
	body := fmt.Sprintf(
		"Thank you for your order!\r\n\r\n"+
			"Order number: %s\r\n"+
			"Order total:  $%.2f\r\n\r\n"+
			"Market-priced items are quoted by our staff before confirmation;\r\n"+
			"the final total may differ if your order contains any.\r\n",
		orderNumber, total)
	return m.send(to, subject, body)
}
