// Package backend defines the service client the portal talks to for identity,
// interaction data and session termination, plus the adapters that implement it.
//
// A Backend signs users in and hands out a Client bound to one session token.
// Handlers never construct adapters themselves; bootstrap picks one from config
// and injects it, so tests can substitute a fake.
package backend

import (
	"context"
	"errors"

	"github.com/meeralabs/portal/internal/domain/models"
	"golang.org/x/oauth2"
)

// Adapter names accepted by the "backend" config key.
const (
	KindMongo    = "mongo"
	KindSupabase = "supabase"
)

var (
	// ErrInvalidCredentials is returned by SignIn for a bad email/password pair.
	ErrInvalidCredentials = errors.New("backend: invalid email or password")
	// ErrNoSession means the token does not name a live session.
	ErrNoSession = errors.New("backend: no active session")
	// ErrUnavailable wraps transport failures and 5xx responses.
	ErrUnavailable = errors.New("backend: service unavailable")
)

// Client is the per-session view of the backend.
type Client interface {
	// CurrentUser returns the signed-in identity. A nil identity with a nil
	// error means nobody is signed in with this token.
	CurrentUser(ctx context.Context) (*models.Identity, error)

	// SignOut terminates the remote session.
	SignOut(ctx context.Context) error

	// FetchInteractions returns the user's interactions in backend order.
	FetchInteractions(ctx context.Context) ([]models.Interaction, error)
}

// Backend authenticates users and binds clients to session tokens.
type Backend interface {
	Name() string
	SignIn(ctx context.Context, email, password string) (*oauth2.Token, error)
	Client(token string) Client
	Ping(ctx context.Context) error
}

type clientInfoKey struct{}

// ClientInfo describes the browser a sign-in came from.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithClientInfo attaches browser details for adapters that record them.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFrom returns the details set by WithClientInfo, if any.
func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
