// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/meeralabs/portal/internal/app/store/sessions"
	"go.uber.org/zap"
)

// inactiveCloser is the slice of the sessions store the worker needs.
type inactiveCloser interface {
	CloseInactive(ctx context.Context, threshold time.Duration) (int64, error)
}

var _ inactiveCloser = (*sessions.Store)(nil)

// SessionCleanup is a background worker that closes backend sessions nobody
// has touched within the inactivity threshold. Only the mongo backend keeps
// its own sessions, so only it runs this worker.
type SessionCleanup struct {
	sessions          inactiveCloser
	log               *zap.Logger
	interval          time.Duration
	inactiveThreshold time.Duration
	stopCh            chan struct{}
	stopOnce          sync.Once
	wg                sync.WaitGroup
}

// NewSessionCleanup creates a new session cleanup worker.
//
// Parameters:
//   - sessStore: the sessions store
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 1 minute)
//   - inactiveThreshold: how long a session must be idle before closing (e.g., 12 hours)
func NewSessionCleanup(sessStore inactiveCloser, logger *zap.Logger, interval, inactiveThreshold time.Duration) *SessionCleanup {
	return &SessionCleanup{
		sessions:          sessStore,
		log:               logger,
		interval:          interval,
		inactiveThreshold: inactiveThreshold,
		stopCh:            make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *SessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("session cleanup worker started",
		zap.Duration("interval", w.interval),
		zap.Duration("inactive_threshold", w.inactiveThreshold))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call twice.
func (w *SessionCleanup) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("session cleanup worker stopped")
	})
}

func (w *SessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.cleanup()
		}
	}
}

func (w *SessionCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.sessions.CloseInactive(ctx, w.inactiveThreshold)
	if err != nil {
		w.log.Error("failed to close inactive sessions", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("closed inactive sessions", zap.Int64("count", count))
	}
}
