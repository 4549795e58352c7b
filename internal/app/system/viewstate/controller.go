package viewstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/metrics"
	"github.com/meeralabs/portal/internal/app/system/navigation"
	"github.com/meeralabs/portal/internal/domain/models"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyMounted is returned by a second Mount on the same controller.
	ErrAlreadyMounted = errors.New("viewstate: controller already mounted")
	// ErrUnmounted is returned by Mount after Unmount.
	ErrUnmounted = errors.New("viewstate: controller unmounted")
)

// Options configures a Controller. The zero value is usable.
type Options struct {
	Log     *zap.Logger
	Metrics *metrics.Metrics

	// FetchTimeout bounds each fetch; zero means only the mount context applies.
	FetchTimeout time.Duration
}

// Controller owns the view state of one dashboard mount.
//
// The two fetches issued by Mount have no ordering between them. Results that
// arrive after Unmount are dropped.
type Controller struct {
	client  backend.Client
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
	id      string

	mu        sync.Mutex
	state     State
	mounted   bool
	unmounted bool
	cancel    context.CancelFunc

	ready   chan struct{}
	settled chan struct{}
	wg      sync.WaitGroup
}

// New returns an unmounted controller bound to client.
func New(client backend.Client, opts Options) *Controller {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	return &Controller{
		client:  client,
		log:     log.With(zap.String("mount_id", id)),
		metrics: opts.Metrics,
		timeout: opts.FetchTimeout,
		id:      id,
		state:   initialState(),
		ready:   make(chan struct{}),
		settled: make(chan struct{}),
	}
}

// ID identifies this mount in logs.
func (c *Controller) ID() string { return c.id }

// Mount starts the identity and interaction fetches. Both run until they
// resolve, ctx ends, or Unmount is called.
func (c *Controller) Mount(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return ErrUnmounted
	}
	if c.mounted {
		return ErrAlreadyMounted
	}
	c.mounted = true

	ctx, c.cancel = context.WithCancel(ctx)
	c.metrics.CountMount()

	c.wg.Add(2)
	go c.loadIdentity(ctx)
	go c.loadInteractions(ctx)
	return nil
}

// Unmount cancels in-flight fetches and freezes the state. It is safe to call
// more than once and before Mount.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until both fetch goroutines have returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Ready is closed once the identity fetch has been applied (Loading is false).
func (c *Controller) Ready() <-chan struct{} { return c.ready }

// Settled is closed once the interaction fetch has been applied.
func (c *Controller) Settled() <-chan struct{} { return c.settled }

// State returns a copy of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// apply runs fn against the state unless the controller was unmounted.
func (c *Controller) apply(fn func(*State)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return false
	}
	fn(&c.state)
	return true
}

func (c *Controller) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

func (c *Controller) loadIdentity(ctx context.Context) {
	defer c.wg.Done()

	fctx, cancel := c.fetchContext(ctx)
	defer cancel()

	start := time.Now()
	u, err := c.client.CurrentUser(fctx)
	elapsed := time.Since(start)

	applied := c.apply(func(s *State) {
		s.Loading = false
		if err != nil {
			s.Identity = failed[*models.Identity](err)
			s.User = nil
			return
		}
		s.Identity = ok(u)
		s.User = u
	})
	if !applied {
		c.metrics.ObserveFetch(metrics.OpIdentity, metrics.OutcomeDiscarded, elapsed)
		c.log.Debug("identity result discarded after unmount", zap.Error(err))
		return
	}
	close(c.ready)

	switch {
	case err != nil:
		c.metrics.ObserveFetch(metrics.OpIdentity, metrics.OutcomeFailed, elapsed)
		c.log.Warn("identity fetch failed", zap.Error(err), zap.Duration("elapsed", elapsed))
	case u == nil:
		c.metrics.ObserveFetch(metrics.OpIdentity, metrics.OutcomeAbsent, elapsed)
		c.log.Debug("identity fetch: no signed-in user")
	default:
		c.metrics.ObserveFetch(metrics.OpIdentity, metrics.OutcomeOK, elapsed)
	}
}

func (c *Controller) loadInteractions(ctx context.Context) {
	defer c.wg.Done()

	fctx, cancel := c.fetchContext(ctx)
	defer cancel()

	start := time.Now()
	items, err := c.client.FetchInteractions(fctx)
	elapsed := time.Since(start)
	if items == nil {
		items = []models.Interaction{}
	}

	applied := c.apply(func(s *State) {
		if err != nil {
			s.Feed = failed[[]models.Interaction](err)
			return
		}
		s.Feed = ok(items)
		s.Interactions = items
	})
	if !applied {
		c.metrics.ObserveFetch(metrics.OpInteractions, metrics.OutcomeDiscarded, elapsed)
		c.log.Debug("interactions result discarded after unmount", zap.Error(err))
		return
	}
	close(c.settled)

	if err != nil {
		c.metrics.ObserveFetch(metrics.OpInteractions, metrics.OutcomeFailed, elapsed)
		c.log.Warn("interactions fetch failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return
	}
	c.metrics.ObserveFetch(metrics.OpInteractions, metrics.OutcomeOK, elapsed)
}

// SignOutOutcome says where to navigate after SignOut and whether the remote
// session could not be terminated.
type SignOutOutcome struct {
	Location string
	Failed   bool
	Err      error
}

// SignOut terminates the remote session and then always navigates to login.
// The phase moves signingOut -> signedOut | signOutFailed; a failure is
// surfaced through the login notice rather than blocking navigation.
// A session that is already gone counts as signed out.
func (c *Controller) SignOut(ctx context.Context) SignOutOutcome {
	c.apply(func(s *State) {
		s.SignOut = SigningOut
		s.SignOutErr = nil
	})

	err := c.client.SignOut(ctx)
	if errors.Is(err, backend.ErrNoSession) {
		err = nil
	}

	c.apply(func(s *State) {
		if err != nil {
			s.SignOut = SignOutFailed
			s.SignOutErr = err
			return
		}
		s.SignOut = SignedOut
	})

	if err != nil {
		c.metrics.CountSignOut(metrics.OutcomeFailed)
		c.log.Warn("sign-out failed; navigating to login anyway", zap.Error(err))
		return SignOutOutcome{
			Location: navigation.LoginURL(navigation.NoticeSignOutFailed),
			Failed:   true,
			Err:      err,
		}
	}

	c.metrics.CountSignOut(metrics.OutcomeOK)
	return SignOutOutcome{Location: navigation.LoginURL(navigation.NoticeSignedOut)}
}
