// Package lockout tracks consecutive failed login attempts per username in
// a durable Badger store, so the counter survives process restarts. The
// counter is independent of session state: it is keyed by username, not by
// client.
package lockout

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultThreshold is the failure count at which the login flow clears the
// account's credential.
const DefaultThreshold = 3

const keyPrefix = "lf:"

// record is the durable per-username failure counter.
type record struct {
	Count     int       `msgpack:"count"`
	UpdatedAt time.Time `msgpack:"updated_at"`
}

// Tracker is a durable login-failure counter. Increments for the same
// username are serialized through a per-key mutex around the Badger
// read-modify-write, so concurrent failed attempts never lose a count;
// different usernames proceed independently.
type Tracker struct {
	db *badger.DB

	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

// Open opens (creating if necessary) the failure store in dir.
func Open(dir string) (*Tracker, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "lockout: failed to open failure store")
	}
	return &Tracker{
		db:   db,
		keys: make(map[string]*sync.Mutex),
	}, nil
}

// Close closes the underlying store.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// RecordFailure durably increments the username's failure counter and
// returns the new value. A storage fault must never block a login attempt:
// it is logged and the attempt degrades to a single, uncounted failure
// (returned count 1).
func (t *Tracker) RecordFailure(username string) int {
	key := recordKey(username)
	l := t.keyLock(key)
	l.Lock()
	defer l.Unlock()

	count, err := t.increment(key)
	if err != nil {
		log.WithError(err).Warn("lockout: failed to persist login failure")
		return 1
	}
	return count
}

// Clear deletes the username's failure record. Clearing a username without
// a record is a no-op.
func (t *Tracker) Clear(username string) error {
	key := recordKey(username)
	l := t.keyLock(key)
	l.Lock()
	defer l.Unlock()

	return t.db.Update(
		func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		},
	)
}

// Failures returns the current failure count for the username.
func (t *Tracker) Failures(username string) (int, error) {
	var rec record
	err := t.db.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(recordKey(username)))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return item.Value(
				func(val []byte) error {
					return msgpack.Unmarshal(val, &rec)
				},
			)
		},
	)
	if err != nil {
		return 0, err
	}
	return rec.Count, nil
}

func (t *Tracker) increment(key string) (int, error) {
	var count int
	err := t.db.Update(
		func(txn *badger.Txn) error {
			var rec record
			item, err := txn.Get([]byte(key))
			if err == nil {
				if verr := item.Value(
					func(val []byte) error {
						return msgpack.Unmarshal(val, &rec)
					},
				); verr != nil {
					// A corrupt record restarts the count rather than
					// blocking logins.
					rec = record{}
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			rec.Count++
			rec.UpdatedAt = time.Now()
			data, err := msgpack.Marshal(&rec)
			if err != nil {
				return err
			}
			count = rec.Count
			return txn.Set([]byte(key), data)
		},
	)
	return count, err
}

// keyLock returns the mutex serializing writers of one record. The map
// grows with the number of distinct usernames seen since startup, which is
// bounded by the user table.
func (t *Tracker) keyLock(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.keys[key]
	if !ok {
		l = &sync.Mutex{}
		t.keys[key] = l
	}
	return l
}

// recordKey hashes the username so arbitrary input never shapes a store
// key.
func recordKey(username string) string {
	sum := sha256.Sum256([]byte(username))
	return keyPrefix + hex.EncodeToString(sum[:])
}
