// Package service contains the long-running loops that tie channels and
// usecases together.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
)

// WatcherLoop drives one channel on a fixed polling cadence. A cycle fetches
// the channel's new events and feeds them through capture one at a time;
// per-event failures are logged and the cycle continues.
type WatcherLoop struct {
	channel  repo.Channel
	capture  *usecase.CaptureUsecase
	interval time.Duration
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcherLoop creates a watcher for one channel.
func NewWatcherLoop(ch repo.Channel, capture *usecase.CaptureUsecase, interval time.Duration, log *slog.Logger) *WatcherLoop {
	return &WatcherLoop{channel: ch, capture: capture, interval: interval, log: log}
}

// Start launches the polling loop. The first cycle runs immediately.
func (w *WatcherLoop) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.loop()

	w.log.Info("watcher started",
		"channel", w.channel.Name(), "kind", w.channel.Kind(), "interval", w.interval)
}

// Stop cancels the loop and waits for the in-flight cycle to finish. The
// event being processed when Stop is called completes; the rest of its batch
// is abandoned and rediscovered next start.
func (w *WatcherLoop) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info("watcher stopped", "channel", w.channel.Name())
}

func (w *WatcherLoop) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runCycle()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.runCycle()
		}
	}
}

func (w *WatcherLoop) runCycle() {
	events, err := w.channel.FetchNewEvents(w.ctx)
	if err != nil {
		w.log.Error("fetch failed", "channel", w.channel.Name(), "err", err)
		return
	}

	for _, ev := range events {
		if _, err := w.capture.ProcessEvent(w.ctx, w.channel, ev); err != nil {
			w.log.Error("event processing failed", "channel", w.channel.Name(), "key", ev.Key, "err", err)
		}
		select {
		case <-w.ctx.Done():
			return
		default:
		}
	}
}

// WatcherSet manages a group of watcher loops as one unit.
type WatcherSet struct {
	watchers []*WatcherLoop
}

// Add registers a watcher with the set.
func (s *WatcherSet) Add(w *WatcherLoop) {
	s.watchers = append(s.watchers, w)
}

// StartAll starts every registered watcher.
func (s *WatcherSet) StartAll(ctx context.Context) {
	for _, w := range s.watchers {
		w.Start(ctx)
	}
}

// StopAll stops every watcher, waiting for in-flight work.
func (s *WatcherSet) StopAll() {
	for _, w := range s.watchers {
		w.Stop()
	}
}
