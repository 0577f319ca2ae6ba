// internal/app/system/workers/loginflowcleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dalemusser/marathonhub/internal/app/store/loginflow"
	"github.com/dalemusser/marathonhub/internal/app/system/timeouts"
)

// LoginFlowCleanup is a background worker that sweeps expired login
// flow sessions. The TTL index does the same job eventually; the sweep
// keeps the collection small when the TTL monitor lags.
type LoginFlowCleanup struct {
	flows    *loginflow.Store
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewLoginFlowCleanup creates a new cleanup worker.
//
// Parameters:
//   - flows: the login flow store
//   - logger: zap logger for logging
//   - interval: how often to run the sweep (e.g., 5 minutes)
func NewLoginFlowCleanup(flows *loginflow.Store, logger *zap.Logger, interval time.Duration) *LoginFlowCleanup {
	return &LoginFlowCleanup{
		flows:    flows,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *LoginFlowCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("login flow cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *LoginFlowCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("login flow cleanup worker stopped")
}

func (w *LoginFlowCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *LoginFlowCleanup) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	count, err := w.flows.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("failed to sweep expired login flow sessions", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("swept expired login flow sessions", zap.Int64("count", count))
	}
}
