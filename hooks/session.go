// Package hooks holds the per-entity data access modules behind the dashboard:
// boards, tasks and contacts, each owning an in-memory mirror of its records,
// plus the bridge to the Method CRM sync service. Every hook is scoped to an
// explicit Session; there is no process-wide state.
package hooks

// Session identifies the signed-in user a set of hooks operates for. A zero
// session is anonymous: every data operation silently no-ops, mirroring the
// dashboard's logged-out state.
type Session struct {
	UserID string
}

// Anonymous reports whether no user is signed in.
func (s Session) Anonymous() bool { return s.UserID == "" }
