package client

import (
	"sync"
	"time"

	"github.com/dd0wney/kvconform/pkg/store"
)

// localDriver serves a Database from an embedded reference store in the
// same process. The transaction timeout is applied as a deadline at begin,
// exactly as the store server does for remote connections.
type localDriver struct {
	st *store.Store

	mu        sync.Mutex
	timeoutMS int64
}

func newLocalDriver(st *store.Store) *localDriver {
	return &localDriver{st: st}
}

func (d *localDriver) setOption(name string, value int64) error {
	switch name {
	case OptionTransactionSizeLimitBytes:
		return d.st.SetDefaultSizeLimit(value)
	case OptionTransactionTimeoutMS:
		if value < 0 {
			return &ConfigurationError{Option: name, Cause: ErrInvalidOptionValue}
		}
		d.mu.Lock()
		d.timeoutMS = value
		d.mu.Unlock()
		return nil
	default:
		return &ConfigurationError{Option: name, Cause: ErrUnknownOption}
	}
}

func (d *localDriver) begin() (txnDriver, error) {
	d.mu.Lock()
	timeoutMS := d.timeoutMS
	d.mu.Unlock()

	var deadline time.Time
	if timeoutMS > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	}
	txn, err := d.st.Begin(deadline)
	if err != nil {
		return nil, err
	}
	return &localTxn{txn: txn}, nil
}

func (d *localDriver) close() error {
	return d.st.Close()
}

type localTxn struct {
	txn *store.Txn
}

func (t *localTxn) get(key []byte) ([]byte, error) {
	return t.txn.Get(key)
}

func (t *localTxn) set(key, value []byte) error {
	return t.txn.Set(key, value)
}

func (t *localTxn) clear(key []byte) error {
	return t.txn.Clear(key)
}

func (t *localTxn) setOption(name string, value int64) error {
	if name != OptionTransactionSizeLimitBytes {
		return &ConfigurationError{Option: name, Cause: ErrUnknownOption}
	}
	return t.txn.SetSizeLimit(value)
}

func (t *localTxn) commit() (uint64, error) {
	return t.txn.Commit()
}

func (t *localTxn) cancel() error {
	t.txn.Cancel()
	return nil
}
