package worker

import (
	"context"
	"sync"
	"time"

	"github.com/stayfront/outreach/internal/infra/http/middleware"
	"github.com/stayfront/outreach/internal/logging"
	"github.com/stayfront/outreach/internal/usecase"
)

// DispatchWorker invokes the dispatcher once per tick. A single-flight
// guard keeps at most one invocation running, which is what keeps the
// quota counters consistent without distributed locking.
type DispatchWorker struct {
	dispatcher   *usecase.Dispatcher
	tickInterval time.Duration

	mu      sync.Mutex
	running bool
}

func NewDispatchWorker(d *usecase.Dispatcher, tickInterval time.Duration) *DispatchWorker {
	if tickInterval <= 0 {
		tickInterval = time.Minute
	}
	return &DispatchWorker{
		dispatcher:   d,
		tickInterval: tickInterval,
	}
}

func (w *DispatchWorker) Start(ctx context.Context) {
	logging.Logger.Info().
		Dur("interval", w.tickInterval).
		Msg("dispatch worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Logger.Info().Msg("dispatch worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *DispatchWorker) tick(ctx context.Context) {
	if !w.tryAcquire() {
		// The previous send (including its stagger delay) is still in
		// flight; this tick is simply dropped.
		logging.Logger.Debug().Msg("tick skipped: dispatch in flight")
		return
	}
	defer w.release()

	result := w.dispatcher.Dispatch(ctx)
	middleware.RecordDispatch(result.Outcome, result.Reason)
	if result.Outcome == usecase.OutcomeSent {
		middleware.RecordEmailSent(result.Mailbox, result.CampaignID)
	}
}

func (w *DispatchWorker) tryAcquire() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return false
	}
	w.running = true
	return true
}

func (w *DispatchWorker) release() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}
