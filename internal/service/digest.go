package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/repo"
	"github.com/404mw/vaultrelay/internal/biz/usecase"
)

// bufferRetention is how long processed buffered messages are kept before
// the cleanup loop deletes them.
const bufferRetention = 7 * 24 * time.Hour

// DigestScheduler periodically rolls buffered chat messages into digest
// records and prunes old processed messages from the buffer.
type DigestScheduler struct {
	digest   *usecase.DigestUsecase
	buffer   repo.BufferRepo
	interval time.Duration
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDigestScheduler creates the digest scheduler.
func NewDigestScheduler(digest *usecase.DigestUsecase, buffer repo.BufferRepo, interval time.Duration, log *slog.Logger) *DigestScheduler {
	return &DigestScheduler{digest: digest, buffer: buffer, interval: interval, log: log}
}

// Start launches the digest and cleanup loops.
func (s *DigestScheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.digestLoop()
	go s.cleanupLoop()

	s.log.Info("digest scheduler started", "interval", s.interval)
}

// Stop cancels the loops and waits for in-flight work.
func (s *DigestScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info("digest scheduler stopped")
}

func (s *DigestScheduler) digestLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.digest.BuildDigests(s.ctx); err != nil {
				s.log.Error("digest cycle failed", "err", err)
			}
		}
	}
}

func (s *DigestScheduler) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(6 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			count, err := s.buffer.CleanupOld(s.ctx, time.Now().Add(-bufferRetention))
			if err != nil {
				s.log.Error("buffer cleanup failed", "err", err)
				continue
			}
			if count > 0 {
				s.log.Info("buffer cleaned up", "removed", count)
			}
		}
	}
}
