// Package store implements an in-memory multi-version transactional
// key/value store with byte-size limit accounting. It is the reference
// target the conformance harness verifies itself against: writes accumulate
// into a per-transaction mutation set whose total size is checked at commit
// against the effective limit (transaction override first, then the
// store-wide default).
package store

import (
	"sync"
	"time"
)

// Size limit bounds. Values outside this range are rejected with
// CodeInvalidOptionValue rather than clamped, so misconfiguration is loud.
const (
	MinSizeLimit     = 32
	MaxSizeLimit     = 10_000_000
	DefaultSizeLimit = MaxSizeLimit
)

// versionedValue is one committed revision of a key. Clears append a
// tombstone revision rather than deleting, so snapshots and conflict
// detection see the full history.
type versionedValue struct {
	value     []byte
	version   uint64
	tombstone bool
}

// Store is an in-memory versioned key/value store. Every commit advances a
// single store-wide version and appends a revision per written key, so a
// transaction reads the revision current at its snapshot and conflicts are
// detected against anything committed after it.
type Store struct {
	mu      sync.RWMutex
	data    map[string][]versionedValue // revisions, ascending by version
	version uint64

	defaultSizeLimit int64
	closed           bool
}

// New creates an empty store with the default size limit.
func New() *Store {
	return &Store{
		data:             make(map[string][]versionedValue),
		defaultSizeLimit: DefaultSizeLimit,
	}
}

// SetDefaultSizeLimit sets the store-wide transaction size limit in bytes.
// It applies to transactions that do not carry their own override.
func (s *Store) SetDefaultSizeLimit(bytes int64) error {
	if bytes < MinSizeLimit || bytes > MaxSizeLimit {
		return newError("SetDefaultSizeLimit", CodeInvalidOptionValue, ErrInvalidOptionValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return newError("SetDefaultSizeLimit", 0, ErrStoreClosed)
	}
	s.defaultSizeLimit = bytes
	return nil
}

// DefaultSizeLimitBytes returns the current store-wide size limit.
func (s *Store) DefaultSizeLimitBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultSizeLimit
}

// Version returns the current committed version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// KeyCount returns the number of live keys, excluding tombstones.
func (s *Store) KeyCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, revs := range s.data {
		if len(revs) > 0 && !revs[len(revs)-1].tombstone {
			n++
		}
	}
	return n
}

// revisionAt returns the newest revision of key at or below version.
// Callers hold s.mu.
func (s *Store) revisionAt(key string, version uint64) (versionedValue, bool) {
	revs := s.data[key]
	for i := len(revs) - 1; i >= 0; i-- {
		if revs[i].version <= version {
			return revs[i], true
		}
	}
	return versionedValue{}, false
}

// Begin starts a new transaction snapshotted at the current version.
// A zero deadline means the transaction never times out.
func (s *Store) Begin(deadline time.Time) (*Txn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, newError("Begin", 0, ErrStoreClosed)
	}
	return &Txn{
		store:       s,
		readVersion: s.version,
		reads:       make(map[string]struct{}),
		writes:      make(map[string]mutation),
		deadline:    deadline,
	}, nil
}

// Close marks the store closed. Subsequent transactions fail with
// ErrStoreClosed; in-flight transactions fail at commit.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
