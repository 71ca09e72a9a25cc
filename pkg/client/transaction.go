package client

import (
	"github.com/dd0wney/kvconform/pkg/logging"
	"github.com/dd0wney/kvconform/pkg/store"
)

// Transaction is one unit of atomic read/write work. Instances are created
// by Transact and are only valid inside the function they are passed to.
type Transaction struct {
	d txnDriver
}

// Get returns the value stored under key, or store.ErrKeyNotFound.
func (t *Transaction) Get(key []byte) ([]byte, error) {
	return t.d.get(key)
}

// Set buffers a write of key to value.
func (t *Transaction) Set(key, value []byte) error {
	return t.d.set(key, value)
}

// Clear buffers a deletion of key.
func (t *Transaction) Clear(key []byte) error {
	return t.d.clear(key)
}

// SetOption sets a transaction-scoped option. Only
// transaction_size_limit_bytes is recognized at transaction scope; it
// overrides the connection-wide default for this transaction.
func (t *Transaction) SetOption(name string, value int64) error {
	if name != OptionTransactionSizeLimitBytes {
		return &ConfigurationError{Option: name, Cause: ErrUnknownOption}
	}
	return t.d.setOption(name, value)
}

// Transact runs fn inside a transaction: a fresh transaction per attempt,
// commit on success, retry on retryable conflicts up to the configured
// transaction_retry_limit, immediate propagation of everything else. This is
// the retry wrapper the conformance harness delegates to; the harness never
// retries on its own.
func (db *Database) Transact(fn func(*Transaction) error) error {
	db.mu.Lock()
	attempts := db.retryLimit + 1
	closed := db.closed
	db.mu.Unlock()

	if closed {
		return &ConnectionError{Endpoint: db.endpoint, Cause: ErrDatabaseClosed}
	}

	var lastErr error
	for attempt := int64(0); attempt < attempts; attempt++ {
		td, err := db.drv.begin()
		if err != nil {
			return err
		}
		txn := &Transaction{d: td}

		err = fn(txn)
		if err == nil {
			_, err = td.commit()
			if err == nil {
				db.metrics.RecordTransaction("committed")
				return nil
			}
		} else {
			// fn failed before commit; the transaction must not apply.
			if cErr := td.cancel(); cErr != nil {
				db.logger.Warn("transaction cancel failed", logging.Error(cErr))
			}
		}

		if store.Retryable(err) {
			lastErr = err
			if attempt < attempts-1 {
				db.metrics.RecordTransactionRetry()
				db.logger.Debug("retrying transaction",
					logging.Int64("attempt", attempt+1),
					logging.Error(err),
				)
				continue
			}
			db.metrics.RecordTransaction("retry_exhausted")
			return err
		}

		db.metrics.RecordTransaction("failed")
		return err
	}

	return lastErr
}

// Set writes one key/value pair in its own transaction.
func (db *Database) Set(key, value []byte) error {
	return db.Transact(func(txn *Transaction) error {
		return txn.Set(key, value)
	})
}

// Get reads one key in its own transaction. Returns store.ErrKeyNotFound
// when the key is absent.
func (db *Database) Get(key []byte) ([]byte, error) {
	var value []byte
	err := db.Transact(func(txn *Transaction) error {
		v, err := txn.Get(key)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Clear deletes one key in its own transaction.
func (db *Database) Clear(key []byte) error {
	return db.Transact(func(txn *Transaction) error {
		return txn.Clear(key)
	})
}
