package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/frontmatter"
)

func TestDigestBuildsOneRecordPerChat(t *testing.T) {
	buffer := newMockBuffer()
	vault := newMockVaultRepo()
	capture := NewCaptureUsecase(newMockStateRepo(), vault, &mockAuditRepo{}, false, testLogger())
	uc := NewDigestUsecase(buffer, capture, testLogger())
	uc.SetClock(func() time.Time { return time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC) })

	ctx := context.Background()
	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	msgs := []*domain.BufferedMessage{
		{ChatID: "oc_team", ChatName: "Team Room", SenderName: "Alice", Content: "standup at 10", CreatedAt: base},
		{ChatID: "oc_team", ChatName: "Team Room", SenderName: "Bob", Content: "running late", CreatedAt: base.Add(time.Minute)},
		{ChatID: "oc_sales", ChatName: "Sales", SenderName: "Eve", Content: "lead came in", CreatedAt: base},
	}
	for _, m := range msgs {
		if err := buffer.AddMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	if err := uc.BuildDigests(ctx); err != nil {
		t.Fatal(err)
	}

	if len(vault.pending) != 2 {
		t.Fatalf("pending has %d documents, want one per chat", len(vault.pending))
	}

	var teamDoc string
	for name, doc := range vault.pending {
		if strings.Contains(name, "Team_Room") {
			teamDoc = doc
		}
	}
	if teamDoc == "" {
		t.Fatalf("no digest for Team Room in %v", keys(vault.pending))
	}
	fields, body := frontmatter.Parse(teamDoc)
	if fields["message_count"] != "2" {
		t.Errorf("message_count = %q", fields["message_count"])
	}
	messages := frontmatter.ExtractSection(body, "Messages")
	if !strings.Contains(messages, "Alice: standup at 10") || !strings.Contains(messages, "Bob: running late") {
		t.Errorf("digest body missing messages: %q", messages)
	}

	// Everything consumed.
	if remaining, _ := buffer.GetUnprocessed(ctx); len(remaining) != 0 {
		t.Errorf("%d messages left unprocessed", len(remaining))
	}
}

func TestDigestRepeatCycleKeepsLateMessagesBuffered(t *testing.T) {
	buffer := newMockBuffer()
	vault := newMockVaultRepo()
	capture := NewCaptureUsecase(newMockStateRepo(), vault, &mockAuditRepo{}, false, testLogger())
	uc := NewDigestUsecase(buffer, capture, testLogger())

	clock := time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC)
	uc.SetClock(func() time.Time { return clock })

	ctx := context.Background()
	if err := buffer.AddMessage(ctx, &domain.BufferedMessage{
		ChatID: "oc_team", SenderName: "Alice", Content: "first", CreatedAt: clock,
	}); err != nil {
		t.Fatal(err)
	}
	if err := uc.BuildDigests(ctx); err != nil {
		t.Fatal(err)
	}
	if len(vault.pending) != 1 {
		t.Fatalf("pending has %d documents after first cycle, want 1", len(vault.pending))
	}

	// A message arrives and a second cycle runs inside the same dedup window.
	// Capture suppresses the duplicate digest, so the message must stay
	// buffered rather than being consumed without ever appearing in a record.
	if err := buffer.AddMessage(ctx, &domain.BufferedMessage{
		ChatID: "oc_team", SenderName: "Bob", Content: "second", CreatedAt: clock.Add(10 * time.Second),
	}); err != nil {
		t.Fatal(err)
	}
	if err := uc.BuildDigests(ctx); err != nil {
		t.Fatal(err)
	}
	if remaining, _ := buffer.GetUnprocessed(ctx); len(remaining) != 1 {
		t.Fatalf("%d messages unprocessed after same-window cycle, want 1", len(remaining))
	}

	// The next window picks it up.
	clock = clock.Add(time.Minute)
	if err := uc.BuildDigests(ctx); err != nil {
		t.Fatal(err)
	}
	if remaining, _ := buffer.GetUnprocessed(ctx); len(remaining) != 0 {
		t.Fatalf("%d messages left unprocessed after new window", len(remaining))
	}

	var found bool
	for _, doc := range vault.pending {
		if strings.Contains(doc, "Bob: second") {
			found = true
		}
	}
	if !found {
		t.Error("late message never reached a digest record")
	}
}

func TestDigestEmptyBufferIsNoop(t *testing.T) {
	buffer := newMockBuffer()
	vault := newMockVaultRepo()
	capture := NewCaptureUsecase(newMockStateRepo(), vault, &mockAuditRepo{}, false, testLogger())
	uc := NewDigestUsecase(buffer, capture, testLogger())

	if err := uc.BuildDigests(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(vault.pending) != 0 {
		t.Error("empty buffer produced records")
	}
}

func keys(m map[string]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}
