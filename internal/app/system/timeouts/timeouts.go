// Package timeouts holds the process-wide deadlines for backend calls made
// outside the dashboard controller.
//
//   - Ping bounds health checks.
//   - Short bounds one sign-in or sign-out round trip.
//   - Medium bounds startup work such as the initial database ping.
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Budgets is a set of deadlines. A zero field means "keep the current value".
type Budgets struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
}

// Defaults apply until Configure is called.
var Defaults = Budgets{
	Ping:   2 * time.Second,
	Short:  5 * time.Second,
	Medium: 10 * time.Second,
}

var current atomic.Pointer[Budgets]

func init() { Reset() }

// Current returns the budgets in effect.
func Current() Budgets { return *current.Load() }

func Ping() time.Duration   { return Current().Ping }
func Short() time.Duration  { return Current().Short }
func Medium() time.Duration { return Current().Medium }

// Configure overlays the non-zero fields of b onto the current budgets.
func Configure(b Budgets) {
	next := Current()
	if b.Ping > 0 {
		next.Ping = b.Ping
	}
	if b.Short > 0 {
		next.Short = b.Short
	}
	if b.Medium > 0 {
		next.Medium = b.Medium
	}
	current.Store(&next)
}

// Reset restores Defaults.
func Reset() {
	d := Defaults
	current.Store(&d)
}

// WithTimeout derives a context bounded by d. Its cancel func logs a warning
// naming op when the deadline, rather than the caller, ended the context.
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
			log.Warn("deadline exceeded", zap.String("op", op), zap.Duration("budget", d))
		}
		cancel()
	}
}
