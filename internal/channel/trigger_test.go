package channel

import (
	"context"
	"testing"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/domain"
)

func TestPostTriggerDailyKey(t *testing.T) {
	trigger := NewPostTrigger()
	trigger.now = func() time.Time { return time.Date(2026, 1, 15, 23, 50, 0, 0, time.UTC) }

	events, err := trigger.FetchNewEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Key != "post_trigger_2026-01-15" {
		t.Errorf("key = %q", events[0].Key)
	}

	// Same day, later run: same key, so dedup makes it a no-op downstream.
	trigger.now = func() time.Time { return time.Date(2026, 1, 15, 23, 59, 0, 0, time.UTC) }
	again, _ := trigger.FetchNewEvents(context.Background())
	if again[0].Key != events[0].Key {
		t.Error("key changed within the same day")
	}

	// Next UTC day: new key.
	trigger.now = func() time.Time { return time.Date(2026, 1, 16, 0, 1, 0, 0, time.UTC) }
	next, _ := trigger.FetchNewEvents(context.Background())
	if next[0].Key != "post_trigger_2026-01-16" {
		t.Errorf("next day key = %q", next[0].Key)
	}
}

func TestPostTriggerBuildRecord(t *testing.T) {
	trigger := NewPostTrigger()
	ev := domain.RawEvent{
		Key:    "post_trigger_2026-01-15",
		Time:   time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		Fields: map[string]string{"date": "2026-01-15"},
	}

	rec, err := trigger.BuildRecord(ev)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Filename != "POST_TRIGGER_2026-01-15.md" {
		t.Errorf("filename = %q", rec.Filename)
	}
	if rec.Kind != domain.KindScheduledTrigger {
		t.Errorf("kind = %q", rec.Kind)
	}
}
