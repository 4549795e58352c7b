// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"net/http"
	"time"

	uierrors "github.com/meeralabs/portal/internal/app/features/errors"
	"github.com/meeralabs/portal/internal/app/system/auth"
	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/metrics"
	"github.com/meeralabs/portal/internal/app/system/viewstate"
	"go.uber.org/zap"
)

// Waits bounds how long one request holds its mount open.
type Waits struct {
	// Identity is how long to wait for the identity fetch before answering
	// with the loading placeholder.
	Identity time.Duration
	// Interactions is the extra grace given to the interaction fetch once
	// identity has resolved. Zero renders whatever has arrived.
	Interactions time.Duration
	// Fetch bounds each backend call.
	Fetch time.Duration
}

type Handler struct {
	Backend    backend.Backend
	SessionMgr *auth.SessionManager
	Metrics    *metrics.Metrics
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
	Waits      Waits
	Location   *time.Location

	parked *parkedMounts
}

// defaultLinger bounds how long a parked controller waits to be resumed when
// no fetch timeout is configured.
const defaultLinger = 30 * time.Second

func NewHandler(be backend.Backend, sm *auth.SessionManager, m *metrics.Metrics, errLog *uierrors.ErrorLogger, waits Waits, logger *zap.Logger) *Handler {
	return &Handler{
		Backend:    be,
		SessionMgr: sm,
		Metrics:    m,
		ErrLog:     errLog,
		Log:        logger,
		Waits:      waits,
		Location:   time.UTC,
		parked:     newParkedMounts(),
	}
}

// Parked reports how many controllers are waiting to be resumed by a later poll.
func (h *Handler) Parked() int { return h.parked.Len() }

// mount returns the view state reached within the configured waits. If the
// identity fetch is still running when Waits.Identity elapses, the controller
// is parked under the session token so the next poll resumes the same fetch
// rather than restarting it. Otherwise the controller is unmounted on return.
func (h *Handler) mount(r *http.Request, u *auth.SessionUser) (viewstate.State, string) {
	ctx := r.Context()

	ctrl := h.parked.take(u.Token)
	if ctrl == nil {
		ctrl = viewstate.New(h.Backend.Client(u.Token), viewstate.Options{
			Log:          h.Log,
			Metrics:      h.Metrics,
			FetchTimeout: h.Waits.Fetch,
		})
		// Fetches may outlive this request; Unmount or the fetch timeout ends them.
		if err := ctrl.Mount(context.WithoutCancel(ctx)); err != nil {
			// A fresh controller cannot already be mounted.
			h.Log.Error("dashboard mount failed", zap.Error(err))
			ctrl.Unmount()
			return ctrl.State(), ctrl.ID()
		}
	}

	if !waitFor(ctx, ctrl.Ready(), h.Waits.Identity) {
		h.parked.park(u.Token, ctrl, h.linger())
		return ctrl.State(), ctrl.ID()
	}
	defer ctrl.Unmount()

	waitFor(ctx, ctrl.Settled(), h.Waits.Interactions)
	return ctrl.State(), ctrl.ID()
}

// linger is how long a parked controller waits for the next poll: long enough
// for the identity fetch to finish or time out, plus two refresh intervals.
func (h *Handler) linger() time.Duration {
	d := h.Waits.Fetch
	if d <= 0 {
		d = defaultLinger
	}
	return d + 2*time.Duration(h.refreshSeconds())*time.Second
}

// waitFor blocks until ch closes, d elapses, or ctx ends. It reports whether ch closed.
func waitFor(ctx context.Context, ch <-chan struct{}, d time.Duration) bool {
	select {
	case <-ch:
		return true
	default:
	}
	if d <= 0 {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// dropSession clears a cookie whose token the backend no longer recognizes.
func (h *Handler) dropSession(w http.ResponseWriter, r *http.Request) {
	if h.SessionMgr == nil {
		return
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("clear stale session failed", zap.Error(err))
	}
}
