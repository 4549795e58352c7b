package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/meeralabs/portal/internal/app/system/backend"
	"github.com/meeralabs/portal/internal/domain/models"
	"golang.org/x/oauth2"
)

// FakeBackend is an in-memory backend.Backend. Every client it hands out sees
// the same configured results, except that a token other than Token is
// treated as having no session.
//
// IdentityGate and ItemsGate, when non-nil, block the matching fetch until
// they are closed or the call's context ends. IdentityDelay makes every
// identity fetch take that long unless its context ends first.
type FakeBackend struct {
	Token    string
	Email    string
	Password string

	Identity    *models.Identity
	IdentityErr error
	Items       []models.Interaction
	ItemsErr    error
	SignOutErr  error
	PingErr     error

	IdentityGate  chan struct{}
	ItemsGate     chan struct{}
	IdentityDelay time.Duration

	mu       sync.Mutex
	signIns  int
	signOuts int
}

// NewFakeBackend returns a backend with one signed-up account whose session
// token is "fake-token".
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Token:    "fake-token",
		Email:    "ada@example.com",
		Password: "correct horse",
		Identity: &models.Identity{ID: "user-1", Email: "ada@example.com"},
		Items:    []models.Interaction{},
	}
}

func (b *FakeBackend) Name() string { return "fake" }

func (b *FakeBackend) SignIn(ctx context.Context, email, password string) (*oauth2.Token, error) {
	b.mu.Lock()
	b.signIns++
	b.mu.Unlock()
	if email != b.Email || password != b.Password {
		return nil, backend.ErrInvalidCredentials
	}
	return &oauth2.Token{AccessToken: b.Token, TokenType: "bearer"}, nil
}

func (b *FakeBackend) Client(token string) backend.Client {
	return &fakeClient{b: b, token: token}
}

func (b *FakeBackend) Ping(ctx context.Context) error { return b.PingErr }

// SignIns reports how many sign-in attempts were made.
func (b *FakeBackend) SignIns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signIns
}

// SignOuts reports how many sign-out calls reached the backend.
func (b *FakeBackend) SignOuts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signOuts
}

type fakeClient struct {
	b     *FakeBackend
	token string
}

func wait(ctx context.Context, gate chan struct{}) error {
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *fakeClient) CurrentUser(ctx context.Context) (*models.Identity, error) {
	if err := wait(ctx, c.b.IdentityGate); err != nil {
		return nil, err
	}
	if d := c.b.IdentityDelay; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.b.IdentityErr != nil {
		return nil, c.b.IdentityErr
	}
	if c.token != c.b.Token || c.b.Identity == nil {
		return nil, nil
	}
	u := *c.b.Identity
	return &u, nil
}

func (c *fakeClient) SignOut(ctx context.Context) error {
	c.b.mu.Lock()
	c.b.signOuts++
	c.b.mu.Unlock()
	if c.b.SignOutErr != nil {
		return c.b.SignOutErr
	}
	if c.token != c.b.Token {
		return backend.ErrNoSession
	}
	return nil
}

func (c *fakeClient) FetchInteractions(ctx context.Context) ([]models.Interaction, error) {
	if err := wait(ctx, c.b.ItemsGate); err != nil {
		return nil, err
	}
	if c.b.ItemsErr != nil {
		return nil, c.b.ItemsErr
	}
	if c.token != c.b.Token {
		return nil, backend.ErrNoSession
	}
	return append([]models.Interaction(nil), c.b.Items...), nil
}
