package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/quickqr/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/quickqr/internal/common"
	"github.com/dmitrijs2005/quickqr/internal/dbx"
)

// CredentialStore persists the session credential across process restarts.
//
// Load returns an empty string and a nil error when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SQLiteCredentialStore keeps the credential in the metadata table under
// common.CredentialStorageKey.
type SQLiteCredentialStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ CredentialStore = (*SQLiteCredentialStore)(nil)

func NewSQLiteCredentialStore(db *sql.DB) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{db: db, now: time.Now}
}

func (s *SQLiteCredentialStore) Load(ctx context.Context) (string, error) {
	v, found, err := metadata.NewSQLiteRepository(s.db).Get(ctx, common.CredentialStorageKey)
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}
	if !found {
		return "", nil
	}
	return string(v), nil
}

// Save writes the token and its save time in a single transaction.
func (s *SQLiteCredentialStore) Save(ctx context.Context, token string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.CredentialStorageKey, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, common.CredentialSavedAtKey, []byte(s.now().UTC().Format(time.RFC3339)))
	})
}

func (s *SQLiteCredentialStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, common.CredentialStorageKey, common.CredentialSavedAtKey)
	})
}

// MemoryCredentialStore is a process-local CredentialStore.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	token string
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

func (m *MemoryCredentialStore) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryCredentialStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryCredentialStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
