package activation

import "github.com/pscheid92/pageswitch/internal/domain"

// Route binds an inbound GET path to the activation it always sends.
type Route struct {
	Path       string
	Activation domain.PageActivation
}

var routes = []Route{
	{Path: "/set_dashboard_active", Activation: domain.PageActivation{Page: "dashboard", TimeoutSeconds: 5, SessionID: "user_325"}},
	{Path: "/set_settings_active", Activation: domain.PageActivation{Page: "settings", TimeoutSeconds: 10, SessionID: "user_893"}},
	{Path: "/set_profile_active", Activation: domain.PageActivation{Page: "profile", TimeoutSeconds: 3, SessionID: "user_246"}},
	{Path: "/set_notifications_active", Activation: domain.PageActivation{Page: "notifications", TimeoutSeconds: 8, SessionID: "user_123"}},
}

// Routes returns a copy of the dispatch table.
func Routes() []Route {
	out := make([]Route, len(routes))
	copy(out, routes)
	return out
}
