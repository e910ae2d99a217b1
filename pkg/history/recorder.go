package history

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blackcoderx/courier/pkg/dispatch"
	"github.com/blackcoderx/courier/pkg/exchange"
)

const writeTimeout = 5 * time.Second

// Recorder persists completed dispatches in the background. It satisfies
// dispatch.Observer; Observe never blocks on the store and failures are only
// logged.
type Recorder struct {
	store    Store
	identity Identity
	logger   *slog.Logger
	wg       sync.WaitGroup
}

var _ dispatch.Observer = (*Recorder)(nil)

// NewRecorder creates a new Recorder.
func NewRecorder(store Store, identity Identity, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if identity == nil {
		identity = StaticIdentity("")
	}
	return &Recorder{store: store, identity: identity, logger: logger}
}

// Observe schedules an entry for out. Without a signed-in user nothing is
// recorded.
func (r *Recorder) Observe(ctx context.Context, req exchange.Request, url string, out dispatch.Outcome) {
	userID, ok := r.identity.CurrentUser(ctx)
	if !ok || r.store == nil {
		return
	}
	entry := NewEntry(userID, req, url, out)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		// The dispatch context may already be gone by the time we write.
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()

		if err := r.store.Append(wctx, entry); err != nil {
			r.logger.Warn("failed to record history", "url", url, "error", err)
			return
		}
		r.logger.Debug("history recorded", "id", entry.ID, "status", entry.StatusCode)
	}()
}

// Wait blocks until every scheduled write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
