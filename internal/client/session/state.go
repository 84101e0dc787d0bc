package session

import "github.com/dmitrijs2005/quickqr/internal/client/api"

// Status is the authentication status of the session.
type Status int

const (
	StatusUnknown Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// State is the view-safe snapshot of the session. User is non-nil iff
// Status is StatusAuthenticated.
//
// Version grows by one with every transition. Deliveries to a subscriber
// never go backwards in Version.
type State struct {
	Status  Status
	User    *api.User
	Version uint64
}

// Reader is the read-only face of the session given to views and guards.
type Reader interface {
	Snapshot() State
	Subscribe(fn func(State)) (unsubscribe func())
}
