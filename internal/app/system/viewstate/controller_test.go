package viewstate_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/app/system/metrics"
	"github.com/meeralabs/portal/internal/app/system/viewstate"
	"github.com/meeralabs/portal/internal/domain/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

// gatedClient blocks each call until its gate is closed, so tests control resolution order.
type gatedClient struct {
	identityGate chan struct{}
	feedGate     chan struct{}

	user      *models.Identity
	userErr   error
	items     []models.Interaction
	itemsErr  error
	signOut   error
	signOuts  atomic.Int32
	ignoreCtx bool
}

func newGatedClient() *gatedClient {
	return &gatedClient{
		identityGate: make(chan struct{}),
		feedGate:     make(chan struct{}),
		user:         &models.Identity{ID: "u1", Email: "ada@example.com"},
	}
}

func (c *gatedClient) wait(ctx context.Context, gate chan struct{}) error {
	if c.ignoreCtx {
		<-gate
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *gatedClient) CurrentUser(ctx context.Context) (*models.Identity, error) {
	if err := c.wait(ctx, c.identityGate); err != nil {
		return nil, err
	}
	return c.user, c.userErr
}

func (c *gatedClient) FetchInteractions(ctx context.Context) ([]models.Interaction, error) {
	if err := c.wait(ctx, c.feedGate); err != nil {
		return nil, err
	}
	return c.items, c.itemsErr
}

func (c *gatedClient) SignOut(ctx context.Context) error {
	c.signOuts.Add(1)
	return c.signOut
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestController_InitialStateIsLoading(t *testing.T) {
	c := viewstate.New(newGatedClient(), viewstate.Options{})
	s := c.State()
	if !s.Loading {
		t.Error("expected Loading before mount")
	}
	if s.User != nil {
		t.Errorf("got user %v, want nil", s.User)
	}
	if s.Interactions == nil || len(s.Interactions) != 0 {
		t.Errorf("got interactions %v, want empty non-nil", s.Interactions)
	}
	if !s.Identity.Pending() || !s.Feed.Pending() {
		t.Error("expected both results pending")
	}
}

func TestController_LoadingEndsOnIdentityRegardlessOfFeed(t *testing.T) {
	client := newGatedClient()
	c := viewstate.New(client, viewstate.Options{Log: zap.NewNop()})
	defer func() {
		c.Unmount()
		c.Wait()
	}()

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	close(client.identityGate)
	waitFor(t, c.Ready(), "identity")

	s := c.State()
	if s.Loading {
		t.Error("Loading should be false once identity resolved")
	}
	if s.User == nil || s.User.Email != "ada@example.com" {
		t.Errorf("got user %v, want ada@example.com", s.User)
	}
	if !s.Feed.Pending() {
		t.Errorf("feed status = %v, want pending", s.Feed.Status)
	}
	if len(s.Interactions) != 0 {
		t.Errorf("got %d interactions, want 0 while feed pending", len(s.Interactions))
	}

	select {
	case <-c.Settled():
		t.Fatal("Settled closed before the feed resolved")
	default:
	}
}

func TestController_FeedBeforeIdentityKeepsLoading(t *testing.T) {
	client := newGatedClient()
	client.items = []models.Interaction{{ID: "1", Content: "a"}}
	c := viewstate.New(client, viewstate.Options{})
	defer c.Unmount()

	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	close(client.feedGate)
	waitFor(t, c.Settled(), "feed")

	s := c.State()
	if !s.Loading {
		t.Error("Loading must not reflect the interaction fetch")
	}
	if len(s.Interactions) != 1 {
		t.Errorf("got %d interactions, want 1", len(s.Interactions))
	}

	close(client.identityGate)
	waitFor(t, c.Ready(), "identity")
	c.Wait()
}

func TestController_PreservesBackendOrder(t *testing.T) {
	client := newGatedClient()
	client.items = []models.Interaction{
		{ID: "b", Timestamp: time.Unix(100, 0)},
		{ID: "a", Timestamp: time.Unix(300, 0)},
		{ID: "c", Timestamp: time.Unix(200, 0)},
	}
	close(client.identityGate)
	close(client.feedGate)

	c := viewstate.New(client, viewstate.Options{})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Wait()

	got := c.State().Interactions
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d interactions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Errorf("item %d: got %q, want %q", i, got[i].ID, want[i])
		}
	}
}

func TestController_AbsentIdentity(t *testing.T) {
	client := newGatedClient()
	client.user = nil
	close(client.identityGate)
	close(client.feedGate)

	c := viewstate.New(client, viewstate.Options{})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Wait()

	s := c.State()
	if s.Loading {
		t.Error("Loading should be false")
	}
	if s.User != nil {
		t.Errorf("got user %v, want nil", s.User)
	}
	if s.Identity.Status != viewstate.StatusOK {
		t.Errorf("identity status = %v, want ok (absent is not a failure)", s.Identity.Status)
	}
}

func TestController_FailuresAreExplicit(t *testing.T) {
	client := newGatedClient()
	client.userErr = backend.ErrUnavailable
	client.itemsErr = errors.New("boom")
	close(client.identityGate)
	close(client.feedGate)

	m := metrics.New()
	c := viewstate.New(client, viewstate.Options{Metrics: m})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Wait()

	s := c.State()
	if !s.Identity.Failed() || !errors.Is(s.Identity.Err, backend.ErrUnavailable) {
		t.Errorf("identity = %+v, want failed with ErrUnavailable", s.Identity)
	}
	if !s.Feed.Failed() {
		t.Errorf("feed status = %v, want failed", s.Feed.Status)
	}
	if s.Interactions == nil || len(s.Interactions) != 0 {
		t.Errorf("got interactions %v, want empty", s.Interactions)
	}

	if got := testutil.ToFloat64(m.Mounts); got != 1 {
		t.Errorf("got %v mounts, want 1", got)
	}
	// One series per (op, outcome): identity/failed and interactions/failed.
	if got := testutil.CollectAndCount(m.FetchDuration); got != 2 {
		t.Errorf("got %d fetch series, want 2", got)
	}
}

func TestController_MountTwice(t *testing.T) {
	client := newGatedClient()
	close(client.identityGate)
	close(client.feedGate)

	c := viewstate.New(client, viewstate.Options{})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := c.Mount(context.Background()); !errors.Is(err, viewstate.ErrAlreadyMounted) {
		t.Errorf("second Mount: got %v, want ErrAlreadyMounted", err)
	}
	c.Wait()
	c.Unmount()
	c.Unmount()
}

func TestController_MountAfterUnmount(t *testing.T) {
	c := viewstate.New(newGatedClient(), viewstate.Options{})
	c.Unmount()
	if err := c.Mount(context.Background()); !errors.Is(err, viewstate.ErrUnmounted) {
		t.Errorf("got %v, want ErrUnmounted", err)
	}
}

func TestController_UnmountDiscardsLateResults(t *testing.T) {
	client := newGatedClient()
	// The fake ignores cancellation so results arrive after unmount.
	client.ignoreCtx = true
	client.items = []models.Interaction{{ID: "late"}}

	c := viewstate.New(client, viewstate.Options{})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Unmount()

	close(client.identityGate)
	close(client.feedGate)
	c.Wait()

	s := c.State()
	if !s.Loading {
		t.Error("late identity result was applied after unmount")
	}
	if s.User != nil {
		t.Errorf("got user %v after unmount, want nil", s.User)
	}
	if len(s.Interactions) != 0 {
		t.Errorf("got %d interactions after unmount, want 0", len(s.Interactions))
	}

	select {
	case <-c.Ready():
		t.Error("Ready closed for a discarded result")
	default:
	}
}

func TestController_UnmountCancelsFetches(t *testing.T) {
	client := newGatedClient()
	c := viewstate.New(client, viewstate.Options{})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Unmount()

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	waitFor(t, done, "fetch goroutines to exit")
}

func TestController_FetchTimeout(t *testing.T) {
	client := newGatedClient()
	c := viewstate.New(client, viewstate.Options{FetchTimeout: 20 * time.Millisecond})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	waitFor(t, c.Ready(), "identity timeout")
	c.Wait()

	s := c.State()
	if !s.Identity.Failed() || !errors.Is(s.Identity.Err, context.DeadlineExceeded) {
		t.Errorf("identity = %+v, want failed with deadline exceeded", s.Identity)
	}
	if !s.Feed.Failed() {
		t.Errorf("feed status = %v, want failed", s.Feed.Status)
	}
}

func TestController_StateIsACopy(t *testing.T) {
	client := newGatedClient()
	client.items = []models.Interaction{{ID: "1"}}
	close(client.identityGate)
	close(client.feedGate)

	c := viewstate.New(client, viewstate.Options{})
	if err := c.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	c.Wait()

	s := c.State()
	s.Interactions[0].ID = "mutated"
	s.User.Email = "mutated"

	again := c.State()
	if again.Interactions[0].ID != "1" {
		t.Error("State leaked the interactions slice")
	}
	if again.User.Email != "ada@example.com" {
		t.Error("State leaked the identity pointer")
	}
}

func TestController_SignOutSuccess(t *testing.T) {
	client := newGatedClient()
	m := metrics.New()
	c := viewstate.New(client, viewstate.Options{Metrics: m})

	out := c.SignOut(context.Background())
	if out.Location != "/login?notice=signed_out" {
		t.Errorf("got location %q, want /login?notice=signed_out", out.Location)
	}
	if out.Failed {
		t.Error("expected success")
	}
	if got := c.State().SignOut; got != viewstate.SignedOut {
		t.Errorf("got phase %v, want signed_out", got)
	}
	if got := client.signOuts.Load(); got != 1 {
		t.Errorf("got %d sign-out calls, want 1", got)
	}
	if got := testutil.ToFloat64(m.SignOuts.WithLabelValues(metrics.OutcomeOK)); got != 1 {
		t.Errorf("got %v ok sign-outs, want 1", got)
	}
}

func TestController_SignOutFailureStillNavigates(t *testing.T) {
	client := newGatedClient()
	client.signOut = backend.ErrUnavailable
	c := viewstate.New(client, viewstate.Options{})

	out := c.SignOut(context.Background())
	if out.Location != "/login?notice=signout_failed" {
		t.Errorf("got location %q, want /login?notice=signout_failed", out.Location)
	}
	if !out.Failed || !errors.Is(out.Err, backend.ErrUnavailable) {
		t.Errorf("got %+v, want failed with ErrUnavailable", out)
	}
	s := c.State()
	if s.SignOut != viewstate.SignOutFailed {
		t.Errorf("got phase %v, want signout_failed", s.SignOut)
	}
	if !errors.Is(s.SignOutErr, backend.ErrUnavailable) {
		t.Errorf("got SignOutErr %v, want ErrUnavailable", s.SignOutErr)
	}
}

func TestController_SignOutWithoutSessionCountsAsSignedOut(t *testing.T) {
	client := newGatedClient()
	client.signOut = backend.ErrNoSession
	c := viewstate.New(client, viewstate.Options{})

	out := c.SignOut(context.Background())
	if out.Failed {
		t.Errorf("got %+v, want success", out)
	}
	if got := c.State().SignOut; got != viewstate.SignedOut {
		t.Errorf("got phase %v, want signed_out", got)
	}
}
