// Package mail implements outbound mail over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/google/uuid"

	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/conf"
)

// Sender sends mail through an authenticated SMTP submission endpoint.
type Sender struct {
	cfg  conf.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	log  *slog.Logger
}

// NewSender creates an SMTP mail sender.
func NewSender(cfg conf.MailConfig, log *slog.Logger) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail, log: log}
}

// SendMail sends one message and returns its generated message ID. A thread
// ID on the outbound message becomes In-Reply-To/References headers so
// recipients see the reply in the original thread.
func (s *Sender) SendMail(ctx context.Context, msg repo.OutboundMail) (repo.MailReceipt, error) {
	if msg.To == "" {
		return repo.MailReceipt{}, fmt.Errorf("outbound mail has no recipient")
	}
	if err := ctx.Err(); err != nil {
		return repo.MailReceipt{}, err
	}

	msgID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.SMTPHost)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.CC != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", msg.CC)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Message-ID: %s\r\n", msgID)
	if msg.ThreadID != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", msg.ThreadID)
		fmt.Fprintf(&b, "References: %s\r\n", msg.ThreadID)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	recipients := []string{msg.To}
	for _, cc := range strings.Split(msg.CC, ",") {
		cc = strings.TrimSpace(cc)
		if cc != "" {
			recipients = append(recipients, cc)
		}
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	if err := s.send(s.cfg.Addr(), auth, s.cfg.From, recipients, []byte(b.String())); err != nil {
		return repo.MailReceipt{}, fmt.Errorf("smtp send: %w", err)
	}

	s.log.Debug("mail sent", "to", msg.To, "id", msgID)
	return repo.MailReceipt{ID: msgID, ThreadID: msg.ThreadID}, nil
}

var _ repo.Mailer = (*Sender)(nil)
