package server

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/kvconform/pkg/logging"
	"github.com/dd0wney/kvconform/pkg/store"
	"github.com/dd0wney/kvconform/pkg/wire"
)

// dispatch routes one request to its handler and wraps the result in a
// success reply.
func (s *Server) dispatch(msg *wire.Message) (*wire.Message, error) {
	switch msg.Type {
	case wire.MsgHello:
		return s.handleHello(msg)
	case wire.MsgSetDatabaseOption:
		return s.handleSetDatabaseOption(msg)
	case wire.MsgBegin:
		return s.handleBegin()
	case wire.MsgGet:
		return s.handleGet(msg)
	case wire.MsgSet:
		return s.handleSet(msg)
	case wire.MsgClear:
		return s.handleClear(msg)
	case wire.MsgSetTxnOption:
		return s.handleSetTxnOption(msg)
	case wire.MsgCommit:
		return s.handleCommit(msg)
	case wire.MsgCancel:
		return s.handleCancel(msg)
	default:
		return nil, fmt.Errorf("unsupported message type %d", msg.Type)
	}
}

func (s *Server) handleHello(msg *wire.Message) (*wire.Message, error) {
	var req wire.HelloRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}
	if req.APIVersion < 1 || req.APIVersion > wire.ProtocolVersion {
		return nil, fmt.Errorf("unsupported API version %d", req.APIVersion)
	}
	return wire.NewReply(wire.HelloResponse{
		DefaultSizeLimit: s.store.DefaultSizeLimitBytes(),
	})
}

func (s *Server) handleSetDatabaseOption(msg *wire.Message) (*wire.Message, error) {
	var req wire.SetDatabaseOptionRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}

	switch req.Name {
	case wire.OptionTransactionSizeLimitBytes:
		if err := s.store.SetDefaultSizeLimit(req.Value); err != nil {
			return nil, err
		}
	case wire.OptionTransactionTimeoutMS:
		if req.Value < 0 {
			return nil, store.FromCode("SetOption", store.CodeInvalidOptionValue, "negative timeout")
		}
		s.mu.Lock()
		s.sessionTimeoutMS = req.Value
		s.mu.Unlock()
	default:
		return nil, store.FromCode("SetOption", store.CodeInvalidOptionValue,
			fmt.Sprintf("unrecognized option %q", req.Name))
	}
	return wire.NewReply(struct{}{})
}

func (s *Server) handleBegin() (*wire.Message, error) {
	s.mu.Lock()
	timeoutMS := s.sessionTimeoutMS
	s.mu.Unlock()

	var deadline time.Time
	if timeoutMS > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMS) * time.Millisecond)
	}

	txn, err := s.store.Begin(deadline)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	expires := deadline
	if expires.IsZero() {
		expires = time.Now().Add(s.cfg.IdleTxnTTL)
	}

	s.mu.Lock()
	s.txns[id] = &txnEntry{txn: txn, expires: expires}
	s.mu.Unlock()

	return wire.NewReply(wire.BeginResponse{TxnID: id})
}

// lookupTxn resolves a transaction ID. A reaped ID reads as timed out, the
// same classification an embedded transaction gets past its deadline; an ID
// the server never issued reads as a client error.
func (s *Server) lookupTxn(id string) (*store.Txn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.txns[id]
	if !ok {
		if _, expired := s.reaped[id]; expired {
			return nil, store.FromCode("Lookup", store.CodeTransactionTimedOut,
				fmt.Sprintf("transaction %s expired", id))
		}
		return nil, store.FromCode("Lookup", store.CodeClientInvalidOperation,
			fmt.Sprintf("unknown transaction %s", id))
	}
	return e.txn, nil
}

func (s *Server) dropTxn(id string) {
	s.mu.Lock()
	delete(s.txns, id)
	s.mu.Unlock()
}

func (s *Server) handleGet(msg *wire.Message) (*wire.Message, error) {
	var req wire.GetRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}
	txn, err := s.lookupTxn(req.TxnID)
	if err != nil {
		return nil, err
	}

	value, err := txn.Get(req.Key)
	if err != nil {
		// Absence is a normal outcome, not a wire error.
		if store.IsNotFound(err) {
			return wire.NewReply(wire.GetResponse{Found: false})
		}
		return nil, err
	}
	return wire.NewReply(wire.GetResponse{Value: value, Found: true})
}

func (s *Server) handleSet(msg *wire.Message) (*wire.Message, error) {
	var req wire.SetRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}
	txn, err := s.lookupTxn(req.TxnID)
	if err != nil {
		return nil, err
	}
	if err := txn.Set(req.Key, req.Value); err != nil {
		return nil, err
	}
	s.logger.Debug("write buffered",
		logging.TxnID(req.TxnID),
		logging.Key(req.Key),
		logging.SizeBytes(txn.Size()),
	)
	return wire.NewReply(struct{}{})
}

func (s *Server) handleClear(msg *wire.Message) (*wire.Message, error) {
	var req wire.ClearRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}
	txn, err := s.lookupTxn(req.TxnID)
	if err != nil {
		return nil, err
	}
	if err := txn.Clear(req.Key); err != nil {
		return nil, err
	}
	return wire.NewReply(struct{}{})
}

func (s *Server) handleSetTxnOption(msg *wire.Message) (*wire.Message, error) {
	var req wire.SetTxnOptionRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}
	txn, err := s.lookupTxn(req.TxnID)
	if err != nil {
		return nil, err
	}
	if req.Name != wire.OptionTransactionSizeLimitBytes {
		return nil, store.FromCode("SetOption", store.CodeInvalidOptionValue,
			fmt.Sprintf("unrecognized transaction option %q", req.Name))
	}
	if err := txn.SetSizeLimit(req.Value); err != nil {
		return nil, err
	}
	return wire.NewReply(struct{}{})
}

func (s *Server) handleCommit(msg *wire.Message) (*wire.Message, error) {
	var req wire.TxnRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}
	txn, err := s.lookupTxn(req.TxnID)
	if err != nil {
		return nil, err
	}
	defer s.dropTxn(req.TxnID)

	size := txn.Size()
	version, err := txn.Commit()
	if err != nil {
		s.metrics.RecordStoreCommit("error")
		return nil, err
	}

	s.metrics.RecordStoreCommit("ok")
	s.metrics.RecordCommitSize(size)
	s.metrics.SetStoreKeys(s.store.KeyCount())
	s.logger.Debug("transaction committed",
		logging.TxnID(req.TxnID),
		logging.SizeBytes(size),
		logging.Uint64("version", version),
	)
	return wire.NewReply(wire.CommitResponse{Version: version})
}

func (s *Server) handleCancel(msg *wire.Message) (*wire.Message, error) {
	var req wire.TxnRequest
	if err := msg.DecodePayload(&req); err != nil {
		return nil, err
	}
	txn, err := s.lookupTxn(req.TxnID)
	if err != nil {
		return nil, err
	}
	txn.Cancel()
	s.dropTxn(req.TxnID)
	return wire.NewReply(struct{}{})
}
