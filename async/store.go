package async

import (
	"context"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
)

// Store persists named byte records. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save writes the record, replacing any previous value.
	Save(ctx context.Context, name string, data []byte) error

	// Load reads the record, returning a NotFoundError when it has never
	// been saved.
	Load(ctx context.Context, name string) ([]byte, error)
}

// MemStore is an in-memory Store for tests and scratch runs.
type MemStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string][]byte)}
}

func (s *MemStore) Save(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	s.records[name] = copied
	return nil
}

func (s *MemStore) Load(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.records[name]
	if !ok {
		return nil, &adcerrors.NotFoundError{Kind: "record", Name: name}
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, nil
}

var recordsBucket = []byte("records")

// BoltStore persists records in a bbolt database file.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating as needed) the database file and its
// records bucket.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, &adcerrors.StoreError{Op: "open", Record: path, Cause: err}
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, &adcerrors.StoreError{Op: "init", Record: path, Cause: err}
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Save(ctx context.Context, name string, data []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(name), data)
	})
	if err != nil {
		return &adcerrors.StoreError{Op: "save", Record: name, Cause: err}
	}
	return nil
}

func (s *BoltStore) Load(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		stored := tx.Bucket(recordsBucket).Get([]byte(name))
		if stored == nil {
			return nil
		}
		data = make([]byte, len(stored))
		copy(data, stored)
		return nil
	})
	if err != nil {
		return nil, &adcerrors.StoreError{Op: "load", Record: name, Cause: err}
	}
	if data == nil {
		return nil, &adcerrors.NotFoundError{Kind: "record", Name: name}
	}
	return data, nil
}
