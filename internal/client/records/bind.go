package records

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/quickqr/internal/client/session"
)

// BindSession keeps store in step with the session: entering
// Authenticated starts a background Load, leaving it resets the
// collection. A different user signing in also resets first. The current
// state is applied immediately. The returned function stops the binding
// and waits for the loads it started.
func BindSession(ctx context.Context, src session.Reader, store *Store) (unbind func()) {
	var (
		mu      sync.Mutex
		userID  string
		applied session.State
		started bool
		wg      sync.WaitGroup
	)

	// follow applies the live session state. Deliveries can arrive out of
	// order, so the delivered value itself is not used.
	follow := func() {
		mu.Lock()
		defer mu.Unlock()

		st := src.Snapshot()
		if started && sameSessionState(st, applied) {
			return
		}
		started = true
		applied = st

		switch st.Status {
		case session.StatusAuthenticated:
			if st.User != nil && userID != "" && st.User.ID != userID {
				store.Reset()
			}
			if st.User != nil {
				userID = st.User.ID
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.Load(ctx)
			}()
		case session.StatusAnonymous:
			userID = ""
			store.Reset()
		}
	}

	unsubscribe := src.Subscribe(func(session.State) { follow() })
	follow()

	return func() {
		unsubscribe()
		wg.Wait()
	}
}

func sameSessionState(a, b session.State) bool {
	if a.Status != b.Status || a.Version != b.Version {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == b.User
	}
	return a.User.ID == b.User.ID
}
