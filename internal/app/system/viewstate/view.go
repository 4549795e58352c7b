package viewstate

import (
	"time"

	"github.com/meeralabs/portal/internal/app/system/htmlsanitize"
	"github.com/meeralabs/portal/internal/app/system/navigation"
	"github.com/meeralabs/portal/internal/domain/models"
)

// RecentLimit is how many interactions the Recent Activity card shows.
const RecentLimit = 3

// Phase selects which top-level view to render.
type Phase string

const (
	PhaseLoading   Phase = "loading"
	PhaseReady     Phase = "ready"
	PhaseError     Phase = "error"
	PhaseAnonymous Phase = "anonymous"
)

// Item is one rendered interaction row.
type Item struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	ISOTime   string `json:"iso_time"`
}

// Action is a quick-action tile. An empty Href renders disabled.
type Action struct {
	Label string `json:"label"`
	Href  string `json:"href,omitempty"`
}

// View is the render model derived from a State.
type View struct {
	Phase Phase             `json:"phase"`
	Nav   []navigation.Link `json:"-"`

	Email   string `json:"email,omitempty"`
	Initial string `json:"initial,omitempty"`

	Recent      []Item `json:"recent"`
	All         []Item `json:"all"`
	RecentEmpty bool   `json:"recent_empty"`
	AllEmpty    bool   `json:"all_empty"`

	// FeedPending is set when the interaction fetch had not resolved at build time.
	FeedPending bool   `json:"feed_pending"`
	FeedError   bool   `json:"feed_error"`
	CTAHref     string `json:"cta_href"`

	Actions []Action `json:"actions"`

	SignOut string `json:"signout"`
}

var quickActions = []Action{
	{Label: "Access Perception", Href: navigation.PerceptionPath},
	{Label: "Monitor", Href: navigation.MonitorPath},
	{Label: "View System Logs", Href: navigation.LogsPath},
	{Label: "Configure Settings"},
}

const timeLayout = "Jan 2, 2006 3:04 PM"

// BuildView derives the render model from s. Timestamps are shown in loc;
// a nil loc means UTC.
func BuildView(s State, loc *time.Location) View {
	if loc == nil {
		loc = time.UTC
	}
	v := View{
		Recent:  []Item{},
		All:     []Item{},
		SignOut: s.SignOut.String(),
	}

	switch {
	case s.Loading:
		v.Phase = PhaseLoading
		return v
	case s.Identity.Failed():
		v.Phase = PhaseError
		return v
	case s.User == nil:
		v.Phase = PhaseAnonymous
		return v
	}

	v.Phase = PhaseReady
	v.Nav = navigation.Primary(navigation.DashboardPath)
	v.Email = s.User.Email
	v.Initial = htmlsanitize.Initial(s.User.Email)
	v.CTAHref = navigation.PerceptionPath
	v.Actions = append([]Action(nil), quickActions...)
	v.FeedPending = s.Feed.Pending()
	v.FeedError = s.Feed.Failed()

	for _, it := range s.Interactions {
		v.All = append(v.All, toItem(it, loc))
	}
	n := len(v.All)
	if n > RecentLimit {
		n = RecentLimit
	}
	v.Recent = append(v.Recent, v.All[:n]...)

	// A failed or pending feed is not an empty feed.
	settled := !v.FeedPending && !v.FeedError
	v.RecentEmpty = settled && len(v.Recent) == 0
	v.AllEmpty = settled && len(v.All) == 0
	return v
}

func toItem(it models.Interaction, loc *time.Location) Item {
	out := Item{ID: it.ID, Content: htmlsanitize.PlainText(it.Content)}
	if !it.Timestamp.IsZero() {
		t := it.Timestamp.In(loc)
		out.Timestamp = t.Format(timeLayout)
		out.ISOTime = t.Format(time.RFC3339)
	}
	return out
}
