package store

import (
	"time"
)

type mutationKind uint8

const (
	mutSet mutationKind = iota
	mutClear
)

type mutation struct {
	kind  mutationKind
	value []byte
}

// size returns the bytes this mutation contributes to the transaction's
// accumulated mutation size. A clear counts its key only.
func (m mutation) size(key string) int64 {
	if m.kind == mutClear {
		return int64(len(key))
	}
	return int64(len(key) + len(m.value))
}

// Txn is a single transaction against a Store. It reads from a snapshot
// taken at Begin and buffers writes until Commit. A transaction must be
// committed or cancelled exactly once; reuse afterwards fails with
// CodeClientInvalidOperation.
//
// Txn is not safe for concurrent use.
type Txn struct {
	store       *Store
	readVersion uint64
	reads       map[string]struct{}
	writes      map[string]mutation
	mutationLen int64
	sizeLimit   int64 // 0 = inherit store default
	deadline    time.Time
	finished    bool
}

// SetSizeLimit sets a size limit scoped to this transaction, overriding the
// store-wide default. Passing 0 removes the override.
func (t *Txn) SetSizeLimit(bytes int64) error {
	if err := t.usable("SetSizeLimit"); err != nil {
		return err
	}
	if bytes != 0 && (bytes < MinSizeLimit || bytes > MaxSizeLimit) {
		return newError("SetSizeLimit", CodeInvalidOptionValue, ErrInvalidOptionValue)
	}
	t.sizeLimit = bytes
	return nil
}

// EffectiveSizeLimit resolves the limit applied at commit: the transaction
// override when set, otherwise the store-wide default.
func (t *Txn) EffectiveSizeLimit() int64 {
	if t.sizeLimit > 0 {
		return t.sizeLimit
	}
	return t.store.DefaultSizeLimitBytes()
}

// Size returns the accumulated mutation size in bytes.
func (t *Txn) Size() int64 {
	return t.mutationLen
}

// Get returns the value for key: a pending write in this transaction wins,
// otherwise the committed value from the snapshot. Returns ErrKeyNotFound
// when the key is absent.
func (t *Txn) Get(key []byte) ([]byte, error) {
	if err := t.usable("Get"); err != nil {
		return nil, err
	}
	k := string(key)
	if m, ok := t.writes[k]; ok {
		if m.kind == mutClear {
			return nil, newError("Get", 0, ErrKeyNotFound)
		}
		out := make([]byte, len(m.value))
		copy(out, m.value)
		return out, nil
	}

	t.reads[k] = struct{}{}

	t.store.mu.RLock()
	vv, ok := t.store.revisionAt(k, t.readVersion)
	t.store.mu.RUnlock()

	if !ok || vv.tombstone {
		return nil, newError("Get", 0, ErrKeyNotFound)
	}
	out := make([]byte, len(vv.value))
	copy(out, vv.value)
	return out, nil
}

// Set buffers a write of key to value. The value is copied, so the caller
// may reuse its buffer.
func (t *Txn) Set(key, value []byte) error {
	if err := t.usable("Set"); err != nil {
		return err
	}
	v := make([]byte, len(value))
	copy(v, value)
	t.record(string(key), mutation{kind: mutSet, value: v})
	return nil
}

// Clear buffers a deletion of key.
func (t *Txn) Clear(key []byte) error {
	if err := t.usable("Clear"); err != nil {
		return err
	}
	t.record(string(key), mutation{kind: mutClear})
	return nil
}

// record replaces any pending mutation for the key, adjusting the
// accumulated size so the last write per key counts exactly once.
func (t *Txn) record(key string, m mutation) {
	if prev, ok := t.writes[key]; ok {
		t.mutationLen -= prev.size(key)
	}
	t.writes[key] = m
	t.mutationLen += m.size(key)
}

// Commit atomically applies the buffered mutations. It fails with
// CodeTransactionTooLarge when the accumulated mutation size exceeds the
// effective limit, and with CodeNotCommitted when a key read by this
// transaction was committed to by another transaction in the meantime.
// A failed commit applies nothing.
func (t *Txn) Commit() (uint64, error) {
	if err := t.usable("Commit"); err != nil {
		return 0, err
	}
	t.finished = true

	if limit := t.EffectiveSizeLimit(); t.mutationLen > limit {
		return 0, newError("Commit", CodeTransactionTooLarge, ErrTransactionTooLarge)
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.closed {
		return 0, newError("Commit", 0, ErrStoreClosed)
	}

	// Conflict check: a key this transaction read must not have been
	// written to after its snapshot.
	for k := range t.reads {
		if revs := t.store.data[k]; len(revs) > 0 && revs[len(revs)-1].version > t.readVersion {
			return 0, newError("Commit", CodeNotCommitted, ErrNotCommitted)
		}
	}

	if len(t.writes) == 0 {
		return t.store.version, nil
	}

	t.store.version++
	committed := t.store.version
	for k, m := range t.writes {
		vv := versionedValue{version: committed, tombstone: m.kind == mutClear}
		if m.kind == mutSet {
			vv.value = m.value
		}
		t.store.data[k] = append(t.store.data[k], vv)
	}
	return committed, nil
}

// Cancel discards the transaction. It is a no-op on an already finished
// transaction.
func (t *Txn) Cancel() {
	t.finished = true
	t.writes = nil
	t.reads = nil
}

// usable gates every operation: finished transactions and transactions past
// their deadline are rejected before any work happens.
func (t *Txn) usable(op string) error {
	if t.finished {
		return newError(op, CodeClientInvalidOperation, ErrTransactionFinished)
	}
	if !t.deadline.IsZero() && time.Now().After(t.deadline) {
		t.finished = true
		return newError(op, CodeTransactionTimedOut, ErrTransactionTimedOut)
	}
	return nil
}
