package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
)

// Conversation is one unread conversation preview from a scraped surface.
type Conversation struct {
	Contact string
	Preview string
}

// ConversationSource lists unread conversation previews from a chat surface
// that has no API (WhatsApp Web, LinkedIn messaging). The browser automation
// behind it implements this interface elsewhere.
type ConversationSource interface {
	UnreadConversations(ctx context.Context) ([]Conversation, error)
}

// Scrape polls a ConversationSource and keys its events by contact with a
// content fingerprint, so a contact sending a new message after a quiet
// period produces a new record while an unchanged preview does not.
type Scrape struct {
	name     string
	kind     domain.RecordKind
	source   ConversationSource
	keywords []string
	now      func() time.Time
}

// NewScrape creates a scraping channel. An empty keyword list accepts every
// conversation; otherwise only previews containing a keyword are surfaced.
func NewScrape(name string, kind domain.RecordKind, source ConversationSource, keywords []string) *Scrape {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Scrape{name: name, kind: kind, source: source, keywords: lowered, now: time.Now}
}

func (s *Scrape) Name() string            { return s.name }
func (s *Scrape) Kind() domain.RecordKind { return s.kind }

func (s *Scrape) FetchNewEvents(ctx context.Context) ([]domain.RawEvent, error) {
	convos, err := s.source.UnreadConversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", s.name, err)
	}

	var events []domain.RawEvent
	for _, c := range convos {
		if c.Contact == "" || !s.matches(c.Preview) {
			continue
		}
		events = append(events, domain.RawEvent{
			Key:         c.Contact,
			Fingerprint: domain.ContentFingerprint(c.Preview),
			Text:        c.Preview,
			Time:        s.now(),
			Fields: map[string]string{
				"contact": c.Contact,
				"preview": c.Preview,
			},
		})
	}
	return events, nil
}

func (s *Scrape) matches(preview string) bool {
	if len(s.keywords) == 0 {
		return true
	}
	lower := strings.ToLower(preview)
	for _, kw := range s.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (s *Scrape) BuildRecord(ev domain.RawEvent) (*domain.ActionRecord, error) {
	contact := ev.Fields["contact"]
	if contact == "" {
		return nil, fmt.Errorf("scrape event %q has no contact", ev.Key)
	}
	preview := ev.Fields["preview"]
	stamp := ev.Time.UTC().Format("2006-01-02_1504")

	return &domain.ActionRecord{
		Kind:          s.kind,
		SourceChannel: s.name,
		DedupKey:      ev.Key,
		Priority:      domain.EscalatePriority(preview),
		Status:        domain.StatusPending,
		CreatedAt:     ev.Time,
		Filename:      fmt.Sprintf("%s_%s_%s.md", strings.ToUpper(s.name), domain.SanitizeName(contact), stamp),
		Title:         fmt.Sprintf("Message from %s", contact),
		Payload: []domain.Field{
			{Key: "contact", Value: usecase.SanitizePreview(contact, 100)},
			{Key: "message_preview", Value: usecase.SanitizePreview(preview, 200)},
		},
		Sections: []domain.Section{
			{Name: "Message Preview", Text: preview},
			{Name: "Suggested Actions", Text: "- [ ] Open the conversation\n- [ ] Draft a reply for approval"},
		},
	}, nil
}

var _ repo.Channel = (*Scrape)(nil)
