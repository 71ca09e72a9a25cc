// Package wire defines the request/reply protocol between the conformance
// client and the reference store server.
package wire

import (
	"encoding/json"
	"time"
)

// ProtocolVersion is the newest protocol revision this package speaks.
// Clients announce their version in the hello exchange and servers reject
// versions they do not know.
const ProtocolVersion = 1

// Database and transaction option names as they appear on the wire.
const (
	OptionTransactionTimeoutMS      = "transaction_timeout_ms"
	OptionTransactionRetryLimit     = "transaction_retry_limit"
	OptionTransactionSizeLimitBytes = "transaction_size_limit_bytes"
)

// MessageType represents the type of a wire message
type MessageType uint8

const (
	// Session messages
	MsgHello MessageType = iota
	MsgSetDatabaseOption

	// Transaction messages
	MsgBegin
	MsgGet
	MsgSet
	MsgClear
	MsgSetTxnOption
	MsgCommit
	MsgCancel

	// Reply
	MsgReply
)

// String returns the wire operation name, used for logging and metrics labels.
func (m MessageType) String() string {
	switch m {
	case MsgHello:
		return "hello"
	case MsgSetDatabaseOption:
		return "set_database_option"
	case MsgBegin:
		return "begin"
	case MsgGet:
		return "get"
	case MsgSet:
		return "set"
	case MsgClear:
		return "clear"
	case MsgSetTxnOption:
		return "set_txn_option"
	case MsgCommit:
		return "commit"
	case MsgCancel:
		return "cancel"
	case MsgReply:
		return "reply"
	default:
		return "unknown"
	}
}

// Message is the envelope for every request and reply.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      []byte      `json:"data,omitempty"`
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}, nil
}

// DecodePayload decodes the message payload into the provided value.
func (m *Message) DecodePayload(v any) error {
	return json.Unmarshal(m.Data, v)
}

// HelloRequest opens a session. The server rejects API versions it does not
// speak so client and server cannot silently disagree on semantics.
type HelloRequest struct {
	APIVersion int `json:"api_version"`
}

// HelloResponse reports the server's store-wide defaults.
type HelloResponse struct {
	DefaultSizeLimit int64 `json:"default_size_limit"`
}

// SetDatabaseOptionRequest sets a connection-wide option on the server.
type SetDatabaseOptionRequest struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// BeginResponse carries the server-assigned transaction ID.
type BeginResponse struct {
	TxnID string `json:"txn_id"`
}

// GetRequest reads one key inside a transaction.
type GetRequest struct {
	TxnID string `json:"txn_id"`
	Key   []byte `json:"key"`
}

// GetResponse carries the value; Found is false when the key is absent.
type GetResponse struct {
	Value []byte `json:"value,omitempty"`
	Found bool   `json:"found"`
}

// SetRequest buffers one write inside a transaction.
type SetRequest struct {
	TxnID string `json:"txn_id"`
	Key   []byte `json:"key"`
	Value []byte `json:"value"`
}

// ClearRequest buffers one deletion inside a transaction.
type ClearRequest struct {
	TxnID string `json:"txn_id"`
	Key   []byte `json:"key"`
}

// SetTxnOptionRequest sets a transaction-scoped option.
type SetTxnOptionRequest struct {
	TxnID string `json:"txn_id"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// TxnRequest addresses an existing transaction (commit, cancel).
type TxnRequest struct {
	TxnID string `json:"txn_id"`
}

// CommitResponse carries the version the transaction committed at.
type CommitResponse struct {
	Version uint64 `json:"version"`
}

// Reply is the payload of every MsgReply. Code 0 means success and Result
// holds the operation's response payload; a non-zero Code carries the
// store's numeric error code.
type Reply struct {
	Code   int             `json:"code"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// NewReply builds a success reply wrapping the given result payload.
func NewReply(result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return NewMessage(MsgReply, Reply{Result: raw})
}

// NewErrorReply builds a failure reply with the given store code.
func NewErrorReply(code int, msg string) (*Message, error) {
	return NewMessage(MsgReply, Reply{Code: code, Error: msg})
}
