// Package guard decides whether a view may render for the current session.
// It holds no business logic: every decision is a pure function of the
// session status.
package guard

import (
	"sync"

	"github.com/dmitrijs2005/quickqr/internal/client/session"
)

// Kind selects the access policy of a view.
type Kind int

const (
	// Protected views render only for an authenticated session.
	Protected Kind = iota
	// Guest views render only for an anonymous session.
	Guest
)

func (k Kind) String() string {
	if k == Guest {
		return "guest"
	}
	return "protected"
}

// Action is what the view layer should do.
type Action int

const (
	// Loading means the session is not resolved yet. No redirect may be
	// issued in this state.
	Loading Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "loading"
	}
}

// Decision is the outcome of a guard. Target is set only for Redirect.
type Decision struct {
	Action Action
	Target string
}

const (
	DefaultSignInPath  = "/login"
	DefaultLandingPath = "/dashboard"
)

// Policy holds the redirect targets.
type Policy struct {
	SignInPath  string
	LandingPath string
}

// DefaultPolicy redirects to /login and /dashboard.
var DefaultPolicy = Policy{SignInPath: DefaultSignInPath, LandingPath: DefaultLandingPath}

// Decide maps a session status to a decision for a view of the given kind.
func (p Policy) Decide(kind Kind, status session.Status) Decision {
	switch status {
	case session.StatusAuthenticated:
		if kind == Guest {
			return Decision{Action: Redirect, Target: p.landing()}
		}
		return Decision{Action: Render}
	case session.StatusAnonymous:
		if kind == Protected {
			return Decision{Action: Redirect, Target: p.signIn()}
		}
		return Decision{Action: Render}
	default:
		return Decision{Action: Loading}
	}
}

func (p Policy) signIn() string {
	if p.SignInPath == "" {
		return DefaultSignInPath
	}
	return p.SignInPath
}

func (p Policy) landing() string {
	if p.LandingPath == "" {
		return DefaultLandingPath
	}
	return p.LandingPath
}

// Decide applies DefaultPolicy.
func Decide(kind Kind, status session.Status) Decision {
	return DefaultPolicy.Decide(kind, status)
}

// View is a mounted guard. Its decision follows the session as long as it
// stays mounted.
type View struct {
	policy Policy
	kind   Kind

	mu          sync.Mutex
	decision    Decision
	unsubscribe func()
	once        sync.Once
}

// Mount evaluates the guard for the current session state and re-evaluates
// it on every transition. onChange, if not nil, is called with each new
// decision that differs from the previous one.
func (p Policy) Mount(src session.Reader, kind Kind, onChange func(Decision)) *View {
	v := &View{policy: p, kind: kind}
	v.decision = p.Decide(kind, src.Snapshot().Status)
	v.unsubscribe = src.Subscribe(func(session.State) {
		// Decide from the live state: a delivery can be overtaken by a
		// later transition before it reaches this view.
		v.mu.Lock()
		d := p.Decide(kind, src.Snapshot().Status)
		changed := d != v.decision
		v.decision = d
		v.mu.Unlock()
		if changed && onChange != nil {
			onChange(d)
		}
	})
	return v
}

// Mount applies DefaultPolicy.
func Mount(src session.Reader, kind Kind, onChange func(Decision)) *View {
	return DefaultPolicy.Mount(src, kind, onChange)
}

// Kind returns the policy kind of the view.
func (v *View) Kind() Kind { return v.kind }

// Decision returns the current decision.
func (v *View) Decision() Decision {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.decision
}

// Unmount stops following the session. It is safe to call more than once.
func (v *View) Unmount() {
	v.once.Do(v.unsubscribe)
}
