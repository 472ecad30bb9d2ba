package repo

import (
	"context"

	"github.com/404mw/vaultrelay/internal/biz/domain"
)

// Channel is the capability a watcher loop drives: discover new raw events
// on a platform and normalize one event into an action record.
//
// Poll-driven channels query their platform inside FetchNewEvents.
// Push-driven channels drain an internal queue there instead, so the watcher
// loop stays the single consumer either way.
type Channel interface {
	Name() string
	Kind() domain.RecordKind
	FetchNewEvents(ctx context.Context) ([]domain.RawEvent, error)
	BuildRecord(ev domain.RawEvent) (*domain.ActionRecord, error)
}
