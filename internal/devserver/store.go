package devserver

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
	ErrNotFound      = errors.New("not found")
)

// User is a registered account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
}

// Record is a stored QR code.
type Record struct {
	ID        int64
	OwnerID   int64
	Name      string
	URL       string
	ImageURL  string
	Type      string
	CreatedAt time.Time
	Scans     int64
}

// Store keeps users and records in memory. It is safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]*User
	byEmail    map[string]int64
	byUsername map[string]int64
	records    map[int64]*Record
	nextUser   int64
	nextRecord int64
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int64]*User),
		byEmail:    make(map[string]int64),
		byUsername: make(map[string]int64),
		records:    make(map[int64]*Record),
		now:        time.Now,
	}
}

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// CreateUser registers a new account. Usernames and emails are unique, the
// latter case-insensitively.
func (s *Store) CreateUser(username, email string, passwordHash []byte) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[username]; ok {
		return User{}, ErrUsernameTaken
	}
	if _, ok := s.byEmail[emailKey(email)]; ok {
		return User{}, ErrEmailTaken
	}

	s.nextUser++
	u := &User{ID: s.nextUser, Username: username, Email: email, PasswordHash: passwordHash}
	s.users[u.ID] = u
	s.byUsername[username] = u.ID
	s.byEmail[emailKey(email)] = u.ID
	return *u, nil
}

func (s *Store) UserByEmail(email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[emailKey(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return *s.users[id], nil
}

func (s *Store) UserByID(id string) (User, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return User{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[n]
	if !ok {
		return User{}, ErrNotFound
	}
	return *u, nil
}

// AddRecord stores a new record for owner.
func (s *Store) AddRecord(owner int64, name, url, imageURL, typ string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRecord++
	r := &Record{
		ID:        s.nextRecord,
		OwnerID:   owner,
		Name:      name,
		URL:       url,
		ImageURL:  imageURL,
		Type:      typ,
		CreatedAt: s.now().UTC(),
	}
	s.records[r.ID] = r
	return *r
}

// Records returns owner's records, newest first.
func (s *Store) Records(owner int64) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, r := range s.records {
		if r.OwnerID == owner {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// DeleteRecord removes one of owner's records. Records of other users are
// reported as ErrNotFound.
func (s *Store) DeleteRecord(owner int64, id string) error {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[n]
	if !ok || r.OwnerID != owner {
		return ErrNotFound
	}
	delete(s.records, n)
	return nil
}
