// internal/app/features/dashboard/mounts.go
package dashboard

import (
	"sync"
	"time"

	"github.com/meeralabs/portal/internal/app/system/viewstate"
)

// parkedMounts holds controllers whose identity fetch was still running when
// their request answered with the loading page. The next request carrying the
// same session token resumes the parked controller instead of starting a new
// fetch. A controller nobody resumes is unmounted after its linger period.
type parkedMounts struct {
	mu      sync.Mutex
	byToken map[string]*parkedMount
}

type parkedMount struct {
	ctrl  *viewstate.Controller
	timer *time.Timer
}

func newParkedMounts() *parkedMounts {
	return &parkedMounts{byToken: make(map[string]*parkedMount)}
}

// take removes and returns the controller parked for token, or nil.
func (p *parkedMounts) take(token string) *viewstate.Controller {
	p.mu.Lock()
	defer p.mu.Unlock()
	pm, ok := p.byToken[token]
	if !ok {
		return nil
	}
	delete(p.byToken, token)
	pm.timer.Stop()
	return pm.ctrl
}

// park stores ctrl under token for up to linger. A controller already parked
// under token is unmounted.
func (p *parkedMounts) park(token string, ctrl *viewstate.Controller, linger time.Duration) {
	pm := &parkedMount{ctrl: ctrl}

	p.mu.Lock()
	old := p.byToken[token]
	p.byToken[token] = pm
	pm.timer = time.AfterFunc(linger, func() { p.expire(token, pm) })
	p.mu.Unlock()

	if old != nil && old.ctrl != ctrl {
		old.timer.Stop()
		old.ctrl.Unmount()
	}
}

func (p *parkedMounts) expire(token string, pm *parkedMount) {
	p.mu.Lock()
	if p.byToken[token] != pm {
		// Resumed or replaced in the meantime.
		p.mu.Unlock()
		return
	}
	delete(p.byToken, token)
	p.mu.Unlock()
	pm.ctrl.Unmount()
}

// Len is the number of parked controllers.
func (p *parkedMounts) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byToken)
}
