// Package server exposes the reference store over the wire protocol so the
// conformance harness can exercise a real network endpoint.
package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/kvconform/pkg/logging"
	"github.com/dd0wney/kvconform/pkg/metrics"
	"github.com/dd0wney/kvconform/pkg/store"
	"github.com/dd0wney/kvconform/pkg/wire"
)

// txnEntry tracks one server-side transaction and when the reaper may
// collect it.
type txnEntry struct {
	txn     *store.Txn
	expires time.Time
}

// Server serves a reference store over a rep socket. One request is handled
// at a time; the req/rep protocol already serializes clients.
type Server struct {
	cfg     Config
	store   *store.Store
	logger  logging.Logger
	metrics *metrics.Registry

	sock wire.ListenSocket

	mu               sync.Mutex
	txns             map[string]*txnEntry
	reaped           map[string]time.Time // reaped txn ID -> when to forget it
	sessionTimeoutMS int64

	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	runningMu sync.Mutex
}

// New creates a server around the given store.
func New(cfg Config, st *store.Store) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Server{
		cfg:     cfg,
		store:   st,
		logger:  logging.With(logging.Component("server")),
		metrics: metrics.DefaultRegistry(),
		txns:    make(map[string]*txnEntry),
		reaped:  make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}, nil
}

// SetLogger replaces the server's logger. Call before Start.
func (s *Server) SetLogger(logger logging.Logger) {
	s.logger = logger
}

// Start binds the listen socket and starts the serve and reap loops.
func (s *Server) Start() error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	sock, err := wire.NewRepSocket()
	if err != nil {
		return fmt.Errorf("failed to create REP socket: %w", err)
	}
	if err := sock.SetRecvDeadline(s.cfg.RecvTimeout); err != nil {
		sock.Close()
		return fmt.Errorf("failed to set receive deadline: %w", err)
	}
	if err := sock.Listen(s.cfg.ListenAddr); err != nil {
		sock.Close()
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.sock = sock

	s.wg.Add(2)
	go s.serveLoop()
	go s.reapLoop()

	s.running = true
	s.logger.Info("store server started", logging.Endpoint(s.cfg.ListenAddr))
	return nil
}

// Stop shuts the server down and waits for the loops to exit.
func (s *Server) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.wg.Wait()
	s.sock.Close()

	s.mu.Lock()
	for id, e := range s.txns {
		e.txn.Cancel()
		delete(s.txns, id)
	}
	s.mu.Unlock()

	s.running = false
	s.logger.Info("store server stopped")
}

// serveLoop receives one frame at a time and replies to it.
func (s *Server) serveLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		frame, err := s.sock.Recv()
		if err != nil {
			if wire.IsTimeoutErr(err) {
				continue
			}
			if wire.IsClosedErr(err) {
				return
			}
			s.logger.Error("receive failed", logging.Error(err))
			continue
		}
		s.metrics.RecordWireFrame("recv", len(frame))

		reply := s.handleFrame(frame)
		out, err := wire.Encode(reply)
		if err != nil {
			s.logger.Error("failed to encode reply", logging.Error(err))
			continue
		}
		s.metrics.RecordWireFrame("send", len(out))
		if err := s.sock.Send(out); err != nil {
			if wire.IsClosedErr(err) {
				return
			}
			s.logger.Error("send failed", logging.Error(err))
		}
	}
}

// handleFrame decodes, dispatches, and converts errors into error replies.
func (s *Server) handleFrame(frame []byte) *wire.Message {
	msg, err := wire.Decode(frame)
	if err != nil {
		s.logger.Warn("undecodable frame", logging.Error(err))
		return mustErrorReply(store.CodeClientInvalidOperation, err.Error())
	}

	start := time.Now()
	reply, err := s.dispatch(msg)
	elapsed := time.Since(start)

	if err != nil {
		code := store.CodeOf(err)
		if code == 0 {
			code = store.CodeClientInvalidOperation
		}
		s.metrics.RecordWireRequest(msg.Type.String(), "error", elapsed)
		s.logger.Debug("request failed",
			logging.Operation(msg.Type.String()),
			logging.Code(code),
			logging.Error(err),
		)
		return mustErrorReply(code, err.Error())
	}

	s.metrics.RecordWireRequest(msg.Type.String(), "ok", elapsed)
	return reply
}

// reapLoop cancels transactions whose deadline or idle TTL has passed, so a
// client that vanished mid-transaction cannot pin store state forever.
func (s *Server) reapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.reapExpired()
		}
	}
}

func (s *Server) reapExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.txns {
		if now.After(e.expires) {
			e.txn.Cancel()
			delete(s.txns, id)
			// Remember the ID for a while so a late request on it reads
			// as timed out rather than never-issued.
			s.reaped[id] = now.Add(s.cfg.IdleTxnTTL)
			s.logger.Debug("reaped expired transaction", logging.TxnID(id))
		}
	}
	for id, forget := range s.reaped {
		if now.After(forget) {
			delete(s.reaped, id)
		}
	}
}

func mustErrorReply(code int, msg string) *wire.Message {
	reply, err := wire.NewErrorReply(code, msg)
	if err != nil {
		// Reply is a struct of plain fields; marshalling cannot fail.
		panic(err)
	}
	return reply
}
