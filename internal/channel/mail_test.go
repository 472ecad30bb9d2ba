package channel

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
)

func TestFileMailSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail_unread.json")
	content := `[
		{"id": "m1", "thread_id": "t1", "from": "a@x.com", "subject": "hello", "snippet": "hi"},
		{"id": "m2", "from": "b@x.com", "subject": "again"}
	]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileMailSource(path)
	msgs, err := source.ListUnread(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].ThreadID != "t1" || msgs[0].From != "a@x.com" {
		t.Errorf("first message = %+v", msgs[0])
	}

	limited, _ := source.ListUnread(context.Background(), 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
}

func TestFileMailSourceMissingFile(t *testing.T) {
	source := NewFileMailSource(filepath.Join(t.TempDir(), "absent.json"))
	msgs, err := source.ListUnread(context.Background(), 10)
	if err != nil {
		t.Fatalf("missing drop file should not error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("got %d messages", len(msgs))
	}
}

func TestMailBuildRecord(t *testing.T) {
	m := NewMail(NewFileMailSource("unused"))
	ev := domain.RawEvent{
		Key:  "m1",
		Time: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Fields: map[string]string{
			"message_id": "m1",
			"thread_id":  "t1",
			"from":       "client@example.com",
			"subject":    "Invoice overdue",
			"snippet":    "Please pay.",
		},
	}

	rec, err := m.BuildRecord(ev)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Filename != "EMAIL_m1.md" {
		t.Errorf("filename = %q", rec.Filename)
	}
	if rec.Priority != domain.PriorityHigh {
		t.Errorf("priority = %q, inbound mail is always high", rec.Priority)
	}
	if rec.Title != "Email: Invoice overdue" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestFileConversationSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whatsapp_unread.json")
	if err := os.WriteFile(path, []byte(`[{"contact": "Jane", "preview": "hello"}]`), 0644); err != nil {
		t.Fatal(err)
	}

	source := NewFileConversationSource(path)
	convos, err := source.UnreadConversations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(convos) != 1 || convos[0].Contact != "Jane" || convos[0].Preview != "hello" {
		t.Errorf("convos = %+v", convos)
	}
}
