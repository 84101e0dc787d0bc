package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
	"github.com/dmitrijs2005/quickqr/internal/client/observe"
	"github.com/dmitrijs2005/quickqr/internal/client/storage"
	"github.com/dmitrijs2005/quickqr/internal/logging"
)

// Store owns the session state machine.
type Store struct {
	backend api.Backend
	creds   storage.CredentialStore
	log     logging.Logger

	mu      sync.Mutex
	status  Status
	user    *api.User
	token   string
	busy    bool
	version uint64

	hub observe.Hub[State]
}

var _ Reader = (*Store)(nil)

// NewStore creates a Store in StatusUnknown. Call Restore once at startup.
func NewStore(backend api.Backend, creds storage.CredentialStore, log logging.Logger) *Store {
	return &Store{
		backend: backend,
		creds:   creds,
		log:     logging.OrDiscard(log).With("component", "session"),
		status:  StatusUnknown,
	}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := State{Status: s.status, Version: s.version}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// Authenticated reports whether a session exists.
func (s *Store) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == StatusAuthenticated
}

// Subscribe registers fn to receive the state after every transition.
// Transitions published concurrently, or from inside a listener, can
// finish out of order; fn only ever sees a newer Version than the last one
// it was given, and older deliveries are dropped.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	var (
		mu   sync.Mutex
		seen uint64
	)
	return s.hub.Subscribe(func(st State) {
		mu.Lock()
		if st.Version <= seen {
			mu.Unlock()
			return
		}
		seen = st.Version
		mu.Unlock()
		fn(st)
	})
}

// transitionLocked bumps the version and returns the new snapshot.
func (s *Store) transitionLocked() State {
	s.version++
	return s.snapshotLocked()
}

// TokenSource exposes the credential to the transport layer only.
func (s *Store) TokenSource() api.TokenSource {
	return func() string {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.token
	}
}

func (s *Store) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return api.ErrOperationInProgress
	}
	s.busy = true
	return nil
}

func (s *Store) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Restore resolves the initial status from the persisted credential.
// Failures end in StatusAnonymous and are never returned.
//
// It only acts while the status is StatusUnknown, so it runs to completion
// at most once. A call that overlaps Login or Register returns immediately
// and leaves the status to that operation; if the operation fails the status
// is still unknown and Restore may be called again.
func (s *Store) Restore(ctx context.Context) {
	s.mu.Lock()
	if s.status != StatusUnknown || s.busy {
		s.mu.Unlock()
		return
	}
	s.busy = true
	s.mu.Unlock()
	defer s.release()

	token, err := s.creds.Load(ctx)
	if err != nil {
		s.log.Warn(ctx, "reading persisted credential failed", "error", err)
		s.resolveAnonymous(ctx, true)
		return
	}
	if token == "" {
		s.log.Debug(ctx, "no persisted credential")
		s.resolveAnonymous(ctx, false)
		return
	}

	user, err := s.backend.Me(ctx, token)
	if err != nil {
		s.log.Info(ctx, "persisted credential not accepted", "error", err)
		s.resolveAnonymous(ctx, true)
		return
	}

	s.mu.Lock()
	if s.status != StatusUnknown {
		// Logout won while the profile fetch was in flight.
		s.mu.Unlock()
		return
	}
	s.status = StatusAuthenticated
	s.user = user
	s.token = token
	st := s.transitionLocked()
	s.mu.Unlock()

	s.log.Info(ctx, "session restored", "user_id", user.ID)
	s.hub.Publish(st)
}

// resolveAnonymous ends Restore in StatusAnonymous unless something else
// already resolved the status.
func (s *Store) resolveAnonymous(ctx context.Context, clear bool) {
	if clear {
		if err := s.creds.Clear(ctx); err != nil {
			s.log.Warn(ctx, "clearing persisted credential failed", "error", err)
		}
	}

	s.mu.Lock()
	if s.status != StatusUnknown {
		s.mu.Unlock()
		return
	}
	s.status = StatusAnonymous
	st := s.transitionLocked()
	s.mu.Unlock()

	s.hub.Publish(st)
}

// Login authenticates with email and password.
//
// Errors: api.ErrInvalidCredentials, api.ErrNetwork,
// api.ErrOperationInProgress, api.ErrInternal.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.log.Info(ctx, "login failed", "error", err)
		return err
	}
	return s.establish(ctx, res)
}

// Register creates an account and signs it in. Profile rules such as
// password length or confirmation are checked by the caller.
//
// Errors: those of Login plus api.ErrUsernameTaken, api.ErrEmailTaken and
// api.ErrValidation.
func (s *Store) Register(ctx context.Context, profile api.Profile) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	res, err := s.backend.Register(ctx, profile)
	if err != nil {
		s.log.Info(ctx, "registration failed", "error", err)
		return err
	}
	return s.establish(ctx, res)
}

// establish persists the credential and then switches to Authenticated.
// A persistence failure leaves the previous state untouched.
func (s *Store) establish(ctx context.Context, res *api.AuthResult) error {
	if err := s.creds.Save(ctx, res.Token); err != nil {
		s.log.Error(ctx, "persisting credential failed", "error", err)
		return fmt.Errorf("%w: persist credential: %w", api.ErrInternal, err)
	}

	user := res.User
	s.mu.Lock()
	s.status = StatusAuthenticated
	s.user = &user
	s.token = res.Token
	st := s.transitionLocked()
	s.mu.Unlock()

	s.log.Info(ctx, "signed in", "user_id", user.ID)
	s.hub.Publish(st)
	return nil
}

// Logout ends the session locally. It always succeeds; a storage failure
// is logged.
func (s *Store) Logout(ctx context.Context) {
	s.signOut(ctx, "signed out")
}

// Reject handles a backend refusal of the current credential observed on an
// authenticated call. It has the same effect as Logout.
func (s *Store) Reject(ctx context.Context) {
	s.signOut(ctx, "credential rejected by backend")
}

func (s *Store) signOut(ctx context.Context, reason string) {
	s.mu.Lock()
	changed := s.status != StatusAnonymous
	s.status = StatusAnonymous
	s.user = nil
	s.token = ""
	var st State
	if changed {
		st = s.transitionLocked()
	}
	s.mu.Unlock()

	if err := s.creds.Clear(ctx); err != nil {
		s.log.Warn(ctx, "clearing persisted credential failed", "error", err)
	}

	if changed {
		s.log.Info(ctx, reason)
		s.hub.Publish(st)
	}
}
