package cli

import (
	"context"

	"github.com/dmitrijs2005/quickqr/internal/client/guard"
)

// route binds a command to the view it runs in.
type route struct {
	view string
	kind guard.Kind
}

var routes = map[string]route{
	"register": {view: "/register", kind: guard.Guest},
	"login":    {view: "/login", kind: guard.Guest},
	"generate": {view: "/dashboard", kind: guard.Protected},
	"stats":    {view: "/dashboard", kind: guard.Protected},
	"history":  {view: "/history", kind: guard.Protected},
	"today":    {view: "/history", kind: guard.Protected},
	"delete":   {view: "/history", kind: guard.Protected},
	"download": {view: "/history", kind: guard.Protected},
	"reload":   {view: "/history", kind: guard.Protected},
}

// navigate evaluates the guard of r and reports whether the command may
// run. A denied command leaves the user at the redirect target.
func (a *App) navigate(ctx context.Context, r route) bool {
	d := a.policy.Decide(r.kind, a.sessions.Snapshot().Status)

	switch d.Action {
	case guard.Render:
		a.mount(r)
		return true
	case guard.Redirect:
		a.unmount(d.Target)
		noteColor.Fprintf(a.out, "%s is not available, redirected to %s\n", r.view, d.Target)
		a.log.Debug(ctx, "guard redirect", "view", r.view, "target", d.Target)
		return false
	default:
		noteColor.Fprintln(a.out, "Session is still being restored, try again in a moment")
		return false
	}
}

// mount makes r the current view. Re-entering the current view keeps its
// subscription.
func (a *App) mount(r route) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.view != nil && a.path == r.view {
		return
	}
	if a.view != nil {
		a.view.Unmount()
	}

	a.path = r.view
	var v *guard.View
	v = a.policy.Mount(a.sessions, r.kind, func(d guard.Decision) {
		if d.Action != guard.Redirect {
			return
		}
		a.mu.Lock()
		current := a.view == v
		a.mu.Unlock()
		if !current {
			return
		}
		a.unmount(d.Target)
		if r.kind == guard.Protected {
			noteColor.Fprintf(a.out, "\nSigned out, redirected to %s\n", d.Target)
		} else {
			noteColor.Fprintf(a.out, "Now at %s\n", d.Target)
		}
	})
	a.view = v
}

// unmount drops the current view and moves to path.
func (a *App) unmount(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.view != nil {
		a.view.Unmount()
		a.view = nil
	}
	a.path = path
}
