package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketSessions = []byte("sessions")
)

// ErrSessionNotFound is returned when no checkpoint exists under a name.
var ErrSessionNotFound = fmt.Errorf("session not found")

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "kubesim.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSessions); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketSessions, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// SaveSession writes a session checkpoint, replacing any prior one.
func (s *BoltStore) SaveSession(rec *SessionRecord) error {
	rec.UpdatedAt = time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		return b.Put([]byte(rec.Name), data)
	})
}

// GetSession loads a session checkpoint by name.
func (s *BoltStore) GetSession(name string) (*SessionRecord, error) {
	var rec *SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		data := b.Get([]byte(name))
		if data == nil {
			return fmt.Errorf("session %q: %w", name, ErrSessionNotFound)
		}
		rec = &SessionRecord{}
		if err := json.Unmarshal(data, rec); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListSessions returns every saved session checkpoint.
func (s *BoltStore) ListSessions() ([]*SessionRecord, error) {
	var recs []*SessionRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		return b.ForEach(func(k, v []byte) error {
			rec := &SessionRecord{}
			if err := json.Unmarshal(v, rec); err != nil {
				return fmt.Errorf("failed to unmarshal session %s: %w", k, err)
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// DeleteSession removes a session checkpoint.
func (s *BoltStore) DeleteSession(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(name))
	})
}
