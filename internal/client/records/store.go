package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
	"github.com/dmitrijs2005/quickqr/internal/client/observe"
	"github.com/dmitrijs2005/quickqr/internal/logging"
)

// Session is the part of the session store the records store depends on.
type Session interface {
	Authenticated() bool
	Reject(ctx context.Context)
}

// State is a snapshot of the store.
type State struct {
	Records []Record
	// Loading is true while a history load is outstanding. Views must not
	// assume any records exist until it is false.
	Loading bool
	// Loaded is true once a history load has succeeded for this session.
	Loaded bool
	// LastError is the failure of the most recent load, if any.
	LastError error
}

// Counts are derived from the collection on every call.
type Counts struct {
	Total      int
	Today      int
	Categories int
}

type opKind int

const (
	opCreate opKind = iota
	opDelete
)

// journalEntry is a confirmed mutation replayed on top of a history load
// that was already in flight when the mutation completed.
type journalEntry struct {
	seq    uint64
	kind   opKind
	record Record
	id     string
}

// Store holds the collection of QR records for the current session.
type Store struct {
	backend api.Backend
	session Session
	log     logging.Logger
	now     func() time.Time

	mu       sync.Mutex
	records  []Record
	loading  bool
	loaded   bool
	lastErr  error
	gen      uint64
	loadSeq  uint64
	inflight int
	opSeq    uint64
	journal  []journalEntry

	hub observe.Hub[State]
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for CreatedAt fallbacks and the Today view.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(backend api.Backend, session Session, log logging.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		session: session,
		log:     logging.OrDiscard(log).With("component", "records"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to receive the state after every change.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// State returns a snapshot of the store.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	return State{
		Records:   s.copyLocked(),
		Loading:   s.loading,
		Loaded:    s.loaded,
		LastError: s.lastErr,
	}
}

// Records returns a copy of the collection, newest first.
func (s *Store) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Store) copyLocked() []Record {
	return append([]Record(nil), s.records...)
}

func (s *Store) publish() {
	s.mu.Lock()
	st := s.stateLocked()
	s.mu.Unlock()
	s.hub.Publish(st)
}

// rejectOn signs the session out when the backend refused its credential.
func (s *Store) rejectOn(ctx context.Context, err error) {
	if errors.Is(err, api.ErrAuthRejected) && s.session != nil {
		s.log.Info(ctx, "backend rejected session credential")
		s.session.Reject(ctx)
	}
}

// rejectIfCurrent calls rejectOn only while gen is still the live
// generation. A rejection of a credential from an earlier session must not
// sign out the current one.
func (s *Store) rejectIfCurrent(ctx context.Context, gen uint64, err error) {
	s.mu.Lock()
	stale := gen != s.gen
	s.mu.Unlock()
	if stale {
		s.log.Debug(ctx, "ignoring rejection from a previous session", "error", err)
		return
	}
	s.rejectOn(ctx, err)
}

func (s *Store) requireSession() error {
	if s.session == nil || !s.session.Authenticated() {
		return api.ErrNoSession
	}
	return nil
}

// Load fetches the full history and replaces the collection. On failure the
// previous collection is kept and the error, wrapping api.ErrLoadFailed, is
// both returned and recorded in State.LastError.
//
// When loads overlap, only the most recent one is applied.
func (s *Store) Load(ctx context.Context) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	gen := s.gen
	mark := s.opSeq
	s.inflight++
	s.loading = true
	st := s.stateLocked()
	s.mu.Unlock()
	s.hub.Publish(st)

	raw, err := s.backend.History(ctx)

	var fresh []Record
	if err == nil {
		fresh, err = s.normalizeAll(raw)
	}

	s.mu.Lock()
	s.inflight--
	if gen != s.gen || seq != s.loadSeq {
		s.trimJournalLocked()
		s.mu.Unlock()
		if err != nil {
			err = fmt.Errorf("%w: %w", api.ErrLoadFailed, err)
		}
		s.log.Debug(ctx, "discarding superseded history load", "error", err)
		return err
	}

	s.loading = false
	if err != nil {
		err = fmt.Errorf("%w: %w", api.ErrLoadFailed, err)
		s.lastErr = err
		s.trimJournalLocked()
		s.mu.Unlock()

		s.log.Warn(ctx, "loading history failed", "error", err)
		s.rejectOn(ctx, err)
		s.publish()
		return err
	}

	s.records = s.replayLocked(fresh, mark)
	s.loaded = true
	s.lastErr = nil
	s.trimJournalLocked()
	n := len(s.records)
	s.mu.Unlock()

	s.log.Debug(ctx, "history loaded", "count", n)
	s.publish()
	return nil
}

func (s *Store) normalizeAll(raw []api.RawRecord) ([]Record, error) {
	now := s.now()
	out := make([]Record, 0, len(raw))
	pos := make(map[string]int, len(raw))
	for _, obj := range raw {
		r, err := Normalize(Unwrap(obj), now)
		if err != nil {
			return nil, err
		}
		// a later duplicate replaces the earlier one in place
		if i, ok := pos[r.ID]; ok {
			out[i] = r
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out, nil
}

// replayLocked applies mutations confirmed after mark to a freshly loaded
// collection.
func (s *Store) replayLocked(fresh []Record, mark uint64) []Record {
	for _, e := range s.journal {
		if e.seq <= mark {
			continue
		}
		switch e.kind {
		case opCreate:
			if indexOf(fresh, e.record.ID) < 0 {
				fresh = append([]Record{e.record}, fresh...)
			}
		case opDelete:
			fresh = without(fresh, e.id)
		}
	}
	return fresh
}

func (s *Store) journalLocked(e journalEntry) {
	s.opSeq++
	if s.inflight == 0 {
		return
	}
	e.seq = s.opSeq
	s.journal = append(s.journal, e)
}

func (s *Store) trimJournalLocked() {
	if s.inflight == 0 {
		s.journal = nil
	}
}

// Create asks the backend for a new QR code and inserts the result. Nothing
// changes locally when the call fails.
func (s *Store) Create(ctx context.Context, req api.GenerateRequest) (Record, error) {
	if err := s.requireSession(); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	raw, err := s.backend.Generate(ctx, req)
	if err != nil {
		s.log.Info(ctx, "generating qr code failed", "error", err)
		s.rejectIfCurrent(ctx, gen, err)
		return Record{}, err
	}

	r, err := Normalize(Unwrap(raw), s.now())
	if err != nil {
		s.log.Warn(ctx, "backend returned malformed qr record", "error", err)
		return Record{}, err
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.log.Debug(ctx, "dropping create result from a previous session", "id", r.ID)
		return r, nil
	}
	inserted := s.insertLocked(r)
	s.mu.Unlock()

	if inserted {
		s.publish()
	}
	return r, nil
}

// Insert adds a record produced outside Create, for example a duplicate
// notification of the same generate call. It is a no-op when the id is
// already present.
func (s *Store) Insert(raw map[string]any) (Record, bool, error) {
	r, err := Normalize(Unwrap(raw), s.now())
	if err != nil {
		return Record{}, false, err
	}

	s.mu.Lock()
	inserted := s.insertLocked(r)
	s.mu.Unlock()

	if inserted {
		s.publish()
	}
	return r, inserted, nil
}

func (s *Store) insertLocked(r Record) bool {
	s.journalLocked(journalEntry{kind: opCreate, record: r})
	if indexOf(s.records, r.ID) >= 0 {
		return false
	}
	s.records = append([]Record{r}, s.records...)
	return true
}

// Delete removes id on the backend and then locally. A backend 404 counts
// as confirmation. On any other failure the record stays and the returned
// error wraps both api.ErrDeleteFailed and the cause.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.requireSession(); err != nil {
		return err
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	err := s.backend.Delete(ctx, id)
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		err = fmt.Errorf("%w: %w", api.ErrDeleteFailed, err)
		s.log.Info(ctx, "deleting qr code failed", "id", id, "error", err)
		s.rejectIfCurrent(ctx, gen, err)
		return err
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	s.journalLocked(journalEntry{kind: opDelete, id: id})
	before := len(s.records)
	s.records = without(s.records, id)
	removed := len(s.records) != before
	s.mu.Unlock()

	if removed {
		s.publish()
	}
	return nil
}

// Reset drops the collection. Operations that started before the reset
// complete without touching the new state.
func (s *Store) Reset() {
	s.mu.Lock()
	s.gen++
	s.loadSeq++
	s.records = nil
	s.loading = false
	s.loaded = false
	s.lastErr = nil
	s.journal = nil
	st := s.stateLocked()
	s.mu.Unlock()

	s.hub.Publish(st)
}

// Counts derives totals from the current collection.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := Counts{Total: len(s.records)}
	types := make(map[string]struct{})
	for _, r := range s.records {
		if sameDay(r.CreatedAt, now) {
			c.Today++
		}
		if r.Type != AllTypes {
			types[r.Type] = struct{}{}
		}
	}
	c.Categories = len(types)
	return c
}

// Filtered returns the records whose type equals tag, in collection order.
// AllTypes or an empty tag selects everything.
func (s *Store) Filtered(tag string) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tag == "" || tag == AllTypes {
		return s.copyLocked()
	}
	var out []Record
	for _, r := range s.records {
		if r.Type == tag {
			out = append(out, r)
		}
	}
	return out
}

// Today returns the records created on the current local day.
func (s *Store) Today() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []Record
	for _, r := range s.records {
		if sameDay(r.CreatedAt, now) {
			out = append(out, r)
		}
	}
	return out
}

func indexOf(rs []Record, id string) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func without(rs []Record, id string) []Record {
	i := indexOf(rs, id)
	if i < 0 {
		return rs
	}
	out := make([]Record, 0, len(rs)-1)
	out = append(out, rs[:i]...)
	return append(out, rs[i+1:]...)
}
