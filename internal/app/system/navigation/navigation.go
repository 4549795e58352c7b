// Package navigation holds the portal's fixed top-level locations and the
// helpers for safe post-login redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// Top-level locations.
const (
	DashboardPath  = "/dashboard"
	PerceptionPath = "/perception"
	LogsPath       = "/logs"
	MonitorPath    = "/monitor"
	LoginPath      = "/login"
	LogoutPath     = "/logout"
)

// Notices shown on the login page after a sign-out, keyed by the "notice" query param.
const (
	NoticeSignedOut     = "signed_out"
	NoticeSignOutFailed = "signout_failed"
)

// Link is one navigation entry.
type Link struct {
	Label  string
	Href   string
	Active bool
}

// primary is the nav bar order.
var primary = []Link{
	{Label: "Dashboard", Href: DashboardPath},
	{Label: "Perception", Href: PerceptionPath},
	{Label: "Logs", Href: LogsPath},
	{Label: "Monitor", Href: MonitorPath},
}

// Primary returns the nav bar links with the one matching current marked active.
func Primary(current string) []Link {
	out := make([]Link, len(primary))
	copy(out, primary)
	for i := range out {
		out[i].Active = out[i].Href == current
	}
	return out
}

// LoginURL returns the login location, optionally carrying a notice.
func LoginURL(notice string) string {
	if notice == "" {
		return LoginPath
	}
	return LoginPath + "?notice=" + notice
}

// SafeReturnURL extracts a same-site return path from the "return" query
// parameter or form value. Anything else yields fallback.
func SafeReturnURL(r *http.Request, fallback string) string {
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}
	if ret == "" || strings.HasPrefix(ret, LoginPath) || strings.HasPrefix(ret, LogoutPath) {
		return fallback
	}
	return ret
}
