// Package viewstate implements the dashboard's view-state controller: it
// mounts against a backend client, runs the identity and interaction fetches
// concurrently, and exposes a snapshot that Build turns into a renderable View.
package viewstate

import "github.com/meeralabs/portal/internal/domain/models"

// Status is the resolution state of one fetch.
type Status int

const (
	StatusPending Status = iota
	StatusOK
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Result carries a fetch outcome so failures stay distinguishable from empty data.
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

func ok[T any](v T) Result[T]          { return Result[T]{Status: StatusOK, Value: v} }
func failed[T any](err error) Result[T] { return Result[T]{Status: StatusFailed, Err: err} }

// Pending reports whether the fetch has not resolved yet.
func (r Result[T]) Pending() bool { return r.Status == StatusPending }

// Failed reports whether the fetch resolved with an error.
func (r Result[T]) Failed() bool { return r.Status == StatusFailed }

// SignOutPhase tracks the sign-out transition.
type SignOutPhase int

const (
	SignOutIdle SignOutPhase = iota
	SigningOut
	SignedOut
	SignOutFailed
)

func (p SignOutPhase) String() string {
	switch p {
	case SigningOut:
		return "signing_out"
	case SignedOut:
		return "signed_out"
	case SignOutFailed:
		return "signout_failed"
	default:
		return "idle"
	}
}

// State is a point-in-time snapshot of one mount.
//
// Loading is true until the identity fetch resolves and never reflects the
// interaction fetch. Interactions keep backend order.
type State struct {
	Loading      bool
	User         *models.Identity
	Interactions []models.Interaction

	Identity Result[*models.Identity]
	Feed     Result[[]models.Interaction]

	SignOut    SignOutPhase
	SignOutErr error
}

func initialState() State {
	return State{Loading: true, Interactions: []models.Interaction{}}
}

// clone copies the slice and identity so callers cannot mutate controller state.
func (s State) clone() State {
	out := s
	out.Interactions = append([]models.Interaction(nil), s.Interactions...)
	out.Feed.Value = append([]models.Interaction(nil), s.Feed.Value...)
	if s.User != nil {
		u := *s.User
		out.User = &u
		out.Identity.Value = &u
	}
	return out
}
