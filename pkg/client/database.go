// Package client is the transactional client interface the conformance
// harness drives. A Database is a connection handle to a target store:
// either an embedded reference store (local: endpoints) or a store server
// reached over the wire protocol (tcp://, ipc://, inproc:// endpoints).
package client

import (
	"strings"
	"sync"

	"github.com/dd0wney/kvconform/pkg/logging"
	"github.com/dd0wney/kvconform/pkg/metrics"
	"github.com/dd0wney/kvconform/pkg/store"
	"github.com/dd0wney/kvconform/pkg/wire"
)

// Recognized database and transaction option names.
const (
	OptionTransactionTimeoutMS      = wire.OptionTransactionTimeoutMS
	OptionTransactionRetryLimit     = wire.OptionTransactionRetryLimit
	OptionTransactionSizeLimitBytes = wire.OptionTransactionSizeLimitBytes
)

// DefaultRetryLimit bounds the automatic retry loop when the caller never
// configures one.
const DefaultRetryLimit = 5

// Database is a handle to the target store. It is created by Open, holds
// connection-wide options, and hands out transactions via Transact.
type Database struct {
	endpoint string
	drv      driver

	mu         sync.Mutex
	retryLimit int64
	options    map[string]int64 // last applied value per option name
	closed     bool

	logger  logging.Logger
	metrics *metrics.Registry
}

// Open establishes a connection to the store at endpoint. Endpoints with a
// "local:" prefix embed a fresh reference store in-process; mangos schemes
// (tcp://, ipc://, inproc://) dial a store server. SelectAPIVersion must
// have been called first.
func Open(endpoint string) (*Database, error) {
	version, err := selectedAPIVersion()
	if err != nil {
		return nil, err
	}

	var drv driver
	switch {
	case strings.HasPrefix(endpoint, "local:"):
		drv = newLocalDriver(store.New())
	case strings.HasPrefix(endpoint, "tcp://"),
		strings.HasPrefix(endpoint, "ipc://"),
		strings.HasPrefix(endpoint, "inproc://"):
		drv, err = dialRemote(endpoint, version)
		if err != nil {
			return nil, err
		}
	default:
		return nil, &ConnectionError{Endpoint: endpoint, Cause: ErrEndpointMalformed}
	}

	return newDatabase(endpoint, drv), nil
}

// Embedded wraps an existing reference store in a Database. Used by tests
// and tools that need to inspect or seed the store directly.
func Embedded(st *store.Store) (*Database, error) {
	if _, err := selectedAPIVersion(); err != nil {
		return nil, err
	}
	return newDatabase("local:embedded", newLocalDriver(st)), nil
}

func newDatabase(endpoint string, drv driver) *Database {
	return &Database{
		endpoint:   endpoint,
		drv:        drv,
		retryLimit: DefaultRetryLimit,
		options:    make(map[string]int64),
		logger:     logging.NewNopLogger(),
		metrics:    metrics.DefaultRegistry(),
	}
}

// SetLogger replaces the database's logger.
func (db *Database) SetLogger(logger logging.Logger) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.logger = logger
}

// Endpoint returns the endpoint descriptor this database was opened with.
func (db *Database) Endpoint() string {
	return db.endpoint
}

// SetOption sets a connection-wide option. Setting an option to the value
// it already holds is a no-op. Unknown names fail with ConfigurationError.
func (db *Database) SetOption(name string, value int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return &ConnectionError{Endpoint: db.endpoint, Cause: ErrDatabaseClosed}
	}

	switch name {
	case OptionTransactionTimeoutMS, OptionTransactionRetryLimit, OptionTransactionSizeLimitBytes:
	default:
		return &ConfigurationError{Option: name, Cause: ErrUnknownOption}
	}

	if prev, ok := db.options[name]; ok && prev == value {
		db.logger.Debug("option unchanged", logging.Option(name), logging.Int64("value", value))
		return nil
	}

	if name == OptionTransactionRetryLimit {
		if value < 0 {
			return &ConfigurationError{Option: name, Cause: ErrInvalidOptionValue}
		}
		db.retryLimit = value
	} else {
		if err := db.drv.setOption(name, value); err != nil {
			return err
		}
	}

	db.options[name] = value
	db.logger.Debug("option set", logging.Option(name), logging.Int64("value", value))
	return nil
}

// Close releases the connection. Safe to call more than once.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.drv.close()
}

// ErrInvalidOptionValue mirrors the store's sentinel for client-side option
// validation, so callers match one error either way.
var ErrInvalidOptionValue = store.ErrInvalidOptionValue
