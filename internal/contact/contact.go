// Package contact delivers contact-form submissions by email.
package contact

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/rogermuhire/portfolio/internal/config"
	"github.com/rogermuhire/portfolio/internal/logger"
)

// Submission is what a visitor enters in the contact form.
type Submission struct {
	Name    string `form:"name"`
	Email   string `form:"email"`
	Message string `form:"message"`
}

// Sender delivers a submission. Mailer is the SMTP implementation.
type Sender interface {
	Send(ctx context.Context, s Submission) error
}

// Mailer sends plain-text notifications to a fixed recipient through an
// unauthenticated SMTP relay.
type Mailer struct {
	addr        string
	from        string
	to          string
	subject     string
	dialTimeout time.Duration
	log         *logger.Logger
}

func NewMailer(cfg config.MailConfig, log *logger.Logger) *Mailer {
	if log == nil {
		log = logger.Nop()
	}
	return &Mailer{
		addr:        cfg.Addr(),
		from:        cfg.From,
		to:          cfg.To,
		subject:     cfg.Subject,
		dialTimeout: cfg.DialTimeout,
		log:         log,
	}
}

// Body renders the notification text.
func Body(s Submission) string {
	return fmt.Sprintf("Name: %s\nEmail: %s\nMessage: %s", s.Name, s.Email, s.Message)
}

// Compose builds the full RFC 5322 message for s.
func (m *Mailer) Compose(s Submission) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.from)
	fmt.Fprintf(&buf, "To: %s\r\n", m.to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", m.subject)
	if addr, err := mail.ParseAddress(s.Email); err == nil {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", addr.String())
	}
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(Body(s), "\r\n", "\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// Send dials the relay and hands over one message. Errors from any SMTP
// stage up to the end of DATA are returned wrapped with the stage name;
// nothing is retried. Once the relay accepts the data the message counts
// as delivered, so a failed QUIT is only logged.
func (m *Mailer) Send(ctx context.Context, s Submission) error {
	dialer := net.Dialer{Timeout: m.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	host, _, _ := net.SplitHostPort(m.addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Mail(m.from); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(m.to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(m.Compose(s)); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if err := c.Quit(); err != nil {
		m.log.WithError(err).Warnw("SMTP QUIT failed after message was accepted", "relay", m.addr)
	}
	return nil
}
