package server

import (
	"errors"
	"time"
)

// Config errors
var (
	ErrNoListenAddr       = errors.New("listen address is required")
	ErrInvalidRecvTimeout = errors.New("receive timeout must be positive")
	ErrInvalidReapConfig  = errors.New("reap interval must be positive")
)

// Config defines the store server configuration
type Config struct {
	// ListenAddr is the mangos listen address (tcp://, ipc://, inproc://)
	ListenAddr string

	// RecvTimeout bounds each socket receive so stop requests are noticed
	RecvTimeout time.Duration

	// ReapInterval is how often expired transactions are collected
	ReapInterval time.Duration

	// IdleTxnTTL is how long a transaction without a deadline may sit idle
	// before the reaper cancels it
	IdleTxnTTL time.Duration
}

// DefaultConfig returns a safe default configuration
func DefaultConfig(listenAddr string) Config {
	return Config{
		ListenAddr:   listenAddr,
		RecvTimeout:  500 * time.Millisecond,
		ReapInterval: 1 * time.Second,
		IdleTxnTTL:   5 * time.Minute,
	}
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return ErrNoListenAddr
	}
	if c.RecvTimeout <= 0 {
		return ErrInvalidRecvTimeout
	}
	if c.ReapInterval <= 0 || c.IdleTxnTTL <= 0 {
		return ErrInvalidReapConfig
	}
	return nil
}
