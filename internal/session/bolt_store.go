package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	sessionBucket = "sessions"
	currentKey    = "current"
)

// boltStore persists the session in a BoltDB file with 0600 permissions.
type boltStore struct {
	db *bolt.DB
}

func openBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Current returns the stored session. Expired sessions are deleted on read
// and reported absent.
func (b *boltStore) Current() (domain.Session, bool, error) {
	if b == nil || b.db == nil {
		return domain.Session{}, false, nil
	}

	var sess domain.Session
	var found bool
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}

		value := bucket.Get([]byte(currentKey))
		if value == nil {
			return nil
		}

		var stored domain.Session
		if err := json.Unmarshal(value, &stored); err != nil || stored.Expired(time.Now()) {
			return bucket.Delete([]byte(currentKey))
		}

		sess = stored
		found = true
		return nil
	})
	return sess, found, err
}

func (b *boltStore) Save(sess domain.Session) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("session store is closed")
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket missing")
		}
		return bucket.Put([]byte(currentKey), payload)
	})
}

func (b *boltStore) Clear() error {
	if b == nil || b.db == nil {
		return nil
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(currentKey))
	})
}
