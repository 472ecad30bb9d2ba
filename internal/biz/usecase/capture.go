package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/404mw/vaultrelay/internal/biz/domain"
	"github.com/404mw/vaultrelay/internal/biz/repo"
)

// CaptureUsecase runs raw events through deduplication, record building,
// document persistence, state update, and audit. It is the single write path
// into the pending inbox.
//
// Dedup state is loaded lazily per channel and held in memory for the life
// of the process; every accepted event is persisted to the state file
// immediately, so a crash between events loses nothing.
type CaptureUsecase struct {
	state  repo.StateRepo
	vault  repo.VaultRepo
	audit  repo.AuditRepo
	dryRun bool
	log    *slog.Logger

	mu   sync.Mutex
	sets map[string]map[string]bool
	maps map[string]map[string]string
}

// NewCaptureUsecase creates the capture pipeline.
func NewCaptureUsecase(state repo.StateRepo, vault repo.VaultRepo, audit repo.AuditRepo, dryRun bool, log *slog.Logger) *CaptureUsecase {
	return &CaptureUsecase{
		state:  state,
		vault:  vault,
		audit:  audit,
		dryRun: dryRun,
		log:    log,
		sets:   map[string]map[string]bool{},
		maps:   map[string]map[string]string{},
	}
}

// ProcessEvent runs one event from a channel through the pipeline. It
// returns true when a new document was written to the pending inbox; seen
// events and dry-run captures return false.
func (uc *CaptureUsecase) ProcessEvent(ctx context.Context, ch repo.Channel, ev domain.RawEvent) (bool, error) {
	if uc.alreadySeen(ch.Name(), ev) {
		return false, nil
	}

	rec, err := ch.BuildRecord(ev)
	if err != nil {
		return false, fmt.Errorf("build record for %s: %w", ev.Key, err)
	}
	return uc.capture(ch.Name(), ev, rec)
}

// ProcessPrebuilt captures a record the caller has already built, still
// honoring dedup, persistence, and audit. The digest scheduler uses it.
func (uc *CaptureUsecase) ProcessPrebuilt(ctx context.Context, channelName string, ev domain.RawEvent, rec *domain.ActionRecord) (bool, error) {
	if uc.alreadySeen(channelName, ev) {
		return false, nil
	}
	return uc.capture(channelName, ev, rec)
}

// alreadySeen checks the event against the channel's dedup state. Events
// with a fingerprint are map-keyed: the same key reappearing with changed
// content is new.
func (uc *CaptureUsecase) alreadySeen(channel string, ev domain.RawEvent) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if ev.Fingerprint != "" {
		m, ok := uc.maps[channel]
		if !ok {
			m = uc.state.LoadMap(channel)
			uc.maps[channel] = m
		}
		return m[ev.Key] == ev.Fingerprint
	}

	s, ok := uc.sets[channel]
	if !ok {
		s = uc.state.LoadSet(channel)
		uc.sets[channel] = s
	}
	return s[ev.Key]
}

func (uc *CaptureUsecase) capture(channel string, ev domain.RawEvent, rec *domain.ActionRecord) (bool, error) {
	if uc.dryRun {
		uc.log.Info("[dry-run] would create record",
			"channel", channel, "file", rec.Filename, "priority", rec.Priority)
		if err := uc.markSeen(channel, ev); err != nil {
			return false, err
		}
		return false, nil
	}

	doc := RenderDocument(rec)
	if err := uc.vault.WritePending(rec.Filename, doc); err != nil {
		return false, fmt.Errorf("write pending record: %w", err)
	}

	// State is only advanced after the document exists: a crash in between
	// reprocesses the event and overwrites the same file, never loses it.
	if err := uc.markSeen(channel, ev); err != nil {
		return false, err
	}

	entry := domain.AuditEntry{
		ActionType: fmt.Sprintf("%s_detected", rec.Kind),
		Actor:      channel,
		Target:     ev.Key,
		Parameters: map[string]string{
			"action_file": rec.Filename,
			"priority":    string(rec.Priority),
		},
		ApprovalStatus: "not_required",
		Result:         domain.ResultSuccess,
	}
	if err := uc.audit.Append(entry); err != nil {
		uc.log.Error("audit append failed", "channel", channel, "err", err)
	}

	uc.log.Info("record created", "channel", channel, "file", rec.Filename, "priority", rec.Priority)
	return true, nil
}

// markSeen records the event in the channel's dedup state and persists the
// state file immediately.
func (uc *CaptureUsecase) markSeen(channel string, ev domain.RawEvent) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if ev.Fingerprint != "" {
		m, ok := uc.maps[channel]
		if !ok {
			m = uc.state.LoadMap(channel)
			uc.maps[channel] = m
		}
		m[ev.Key] = ev.Fingerprint
		if err := uc.state.SaveMap(channel, m); err != nil {
			return fmt.Errorf("save state for %s: %w", channel, err)
		}
		return nil
	}

	s, ok := uc.sets[channel]
	if !ok {
		s = uc.state.LoadSet(channel)
		uc.sets[channel] = s
	}
	s[ev.Key] = true
	if err := uc.state.SaveSet(channel, s); err != nil {
		return fmt.Errorf("save state for %s: %w", channel, err)
	}
	return nil
}
