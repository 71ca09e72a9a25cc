package client

// driver abstracts the two ways a Database reaches a store: embedded
// (driver_local.go) and over the wire (driver_remote.go).
type driver interface {
	setOption(name string, value int64) error
	begin() (txnDriver, error)
	close() error
}

// txnDriver is one in-flight transaction as the driver sees it.
type txnDriver interface {
	get(key []byte) ([]byte, error)
	set(key, value []byte) error
	clear(key []byte) error
	setOption(name string, value int64) error
	commit() (uint64, error)
	cancel() error
}
