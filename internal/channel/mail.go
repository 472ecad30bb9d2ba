package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
)

// MailMessage is one inbound message as reported by a MailSource.
type MailMessage struct {
	ID       string
	ThreadID string
	From     string
	To       string
	Subject  string
	Date     string
	Snippet  string
}

// MailSource retrieves new messages from the operator's mailbox. Concrete
// backends (IMAP, provider APIs) implement it outside this package.
type MailSource interface {
	ListUnread(ctx context.Context, max int) ([]MailMessage, error)
}

// Mail polls a mailbox for unread messages. Every inbound email is surfaced
// at high priority; an email that reaches the inbox already passed the
// operator's own filters.
type Mail struct {
	source   MailSource
	maxFetch int
	now      func() time.Time
}

// NewMail creates the mailbox channel.
func NewMail(source MailSource) *Mail {
	return &Mail{source: source, maxFetch: 50, now: time.Now}
}

func (m *Mail) Name() string            { return "email" }
func (m *Mail) Kind() domain.RecordKind { return domain.KindEmail }

func (m *Mail) FetchNewEvents(ctx context.Context) ([]domain.RawEvent, error) {
	msgs, err := m.source.ListUnread(ctx, m.maxFetch)
	if err != nil {
		return nil, fmt.Errorf("list unread mail: %w", err)
	}

	events := make([]domain.RawEvent, 0, len(msgs))
	for _, msg := range msgs {
		events = append(events, domain.RawEvent{
			Key:  msg.ID,
			Text: msg.Subject + " " + msg.Snippet,
			Time: m.now(),
			Fields: map[string]string{
				"message_id": msg.ID,
				"thread_id":  msg.ThreadID,
				"from":       msg.From,
				"to":         msg.To,
				"subject":    msg.Subject,
				"date":       msg.Date,
				"snippet":    msg.Snippet,
			},
		})
	}
	return events, nil
}

func (m *Mail) BuildRecord(ev domain.RawEvent) (*domain.ActionRecord, error) {
	if ev.Fields["message_id"] == "" {
		return nil, fmt.Errorf("mail event %q has no message id", ev.Key)
	}
	subject := ev.Fields["subject"]
	if subject == "" {
		subject = "(no subject)"
	}

	return &domain.ActionRecord{
		Kind:          domain.KindEmail,
		SourceChannel: m.Name(),
		DedupKey:      ev.Key,
		Priority:      domain.PriorityHigh,
		Status:        domain.StatusPending,
		CreatedAt:     ev.Time,
		Filename:      "EMAIL_" + ev.Fields["message_id"] + ".md",
		Title:         "Email: " + subject,
		Payload: []domain.Field{
			{Key: "message_id", Value: ev.Fields["message_id"]},
			{Key: "thread_id", Value: ev.Fields["thread_id"]},
			{Key: "from", Value: usecase.SanitizePreview(ev.Fields["from"], 100)},
			{Key: "to", Value: usecase.SanitizePreview(ev.Fields["to"], 100)},
			{Key: "subject", Value: usecase.SanitizePreview(subject, 150)},
			{Key: "date", Value: ev.Fields["date"]},
		},
		Sections: []domain.Section{
			{Name: "Snippet", Text: ev.Fields["snippet"]},
			{Name: "Suggested Actions", Text: "- [ ] Read the full email\n- [ ] Draft a reply\n- [ ] Archive if no response needed"},
		},
	}, nil
}

var _ repo.Channel = (*Mail)(nil)
