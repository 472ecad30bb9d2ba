package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/404mw/vaultrelay/internal/biz/usecase"
)

// Dispatcher periodically scans the approved directory and executes what it
// finds there.
type Dispatcher struct {
	dispatch *usecase.DispatchUsecase
	interval time.Duration
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates the approval dispatcher service.
func NewDispatcher(dispatch *usecase.DispatchUsecase, interval time.Duration, log *slog.Logger) *Dispatcher {
	return &Dispatcher{dispatch: dispatch, interval: interval, log: log}
}

// Start launches the scan loop. The first scan runs immediately so records
// approved while the process was down are picked up without waiting an
// interval.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.loop()

	d.log.Info("dispatcher started", "interval", d.interval)
}

// Stop cancels the loop and waits for the in-flight scan to finish.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.log.Info("dispatcher stopped")
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.scan()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.scan()
		}
	}
}

func (d *Dispatcher) scan() {
	if err := d.dispatch.ProcessApproved(d.ctx); err != nil {
		d.log.Error("approved scan failed", "err", err)
	}
}
