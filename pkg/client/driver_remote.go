package client

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/kvconform/pkg/store"
	"github.com/dd0wney/kvconform/pkg/wire"
)

// socketTimeout bounds every wire round trip. It must comfortably exceed
// the transaction timeout so the server, not the socket, decides when a
// transaction dies.
const socketTimeout = 15 * time.Second

// remoteDriver reaches a store server over the wire protocol. The req/rep
// pair enforces strict request alternation, so all round trips share one
// mutex.
type remoteDriver struct {
	endpoint string

	mu   sync.Mutex
	sock wire.DialSocket
}

// dialRemote connects to a store server and performs the hello exchange.
func dialRemote(endpoint string, apiVersion int) (*remoteDriver, error) {
	sock, err := wire.NewReqSocket()
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Cause: err}
	}
	if err := sock.SetSendDeadline(socketTimeout); err != nil {
		sock.Close()
		return nil, &ConnectionError{Endpoint: endpoint, Cause: err}
	}
	if err := sock.SetRecvDeadline(socketTimeout); err != nil {
		sock.Close()
		return nil, &ConnectionError{Endpoint: endpoint, Cause: err}
	}
	if err := sock.Dial(endpoint); err != nil {
		sock.Close()
		return nil, &ConnectionError{Endpoint: endpoint, Cause: fmt.Errorf("%w: %v", ErrEndpointUnreachable, err)}
	}

	d := &remoteDriver{endpoint: endpoint, sock: sock}

	var hello wire.HelloResponse
	if err := d.roundTrip(wire.MsgHello, wire.HelloRequest{APIVersion: apiVersion}, &hello); err != nil {
		sock.Close()
		return nil, &ConnectionError{Endpoint: endpoint, Cause: err}
	}
	return d, nil
}

// roundTrip sends one request and decodes the reply into result. A non-zero
// reply code is reconstructed into the matching store error.
func (d *remoteDriver) roundTrip(msgType wire.MessageType, payload, result any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	msg, err := wire.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	frame, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	if err := d.sock.Send(frame); err != nil {
		return &ConnectionError{Endpoint: d.endpoint, Cause: err}
	}
	respFrame, err := d.sock.Recv()
	if err != nil {
		if wire.IsTimeoutErr(err) {
			return &ConnectionError{Endpoint: d.endpoint, Cause: fmt.Errorf("%w: %v", ErrEndpointUnreachable, err)}
		}
		return &ConnectionError{Endpoint: d.endpoint, Cause: err}
	}
	resp, err := wire.Decode(respFrame)
	if err != nil {
		return &ConnectionError{Endpoint: d.endpoint, Cause: err}
	}

	var reply wire.Reply
	if err := resp.DecodePayload(&reply); err != nil {
		return &ConnectionError{Endpoint: d.endpoint, Cause: err}
	}
	if reply.Code != 0 {
		return store.FromCode(msgType.String(), reply.Code, reply.Error)
	}
	if result != nil && len(reply.Result) > 0 {
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return &ConnectionError{Endpoint: d.endpoint, Cause: err}
		}
	}
	return nil
}

func (d *remoteDriver) setOption(name string, value int64) error {
	return d.roundTrip(wire.MsgSetDatabaseOption, wire.SetDatabaseOptionRequest{Name: name, Value: value}, nil)
}

func (d *remoteDriver) begin() (txnDriver, error) {
	var resp wire.BeginResponse
	if err := d.roundTrip(wire.MsgBegin, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &remoteTxn{d: d, id: resp.TxnID}, nil
}

func (d *remoteDriver) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sock.Close()
}

type remoteTxn struct {
	d  *remoteDriver
	id string
}

func (t *remoteTxn) get(key []byte) ([]byte, error) {
	var resp wire.GetResponse
	if err := t.d.roundTrip(wire.MsgGet, wire.GetRequest{TxnID: t.id, Key: key}, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, &store.StoreError{Op: "Get", Cause: store.ErrKeyNotFound}
	}
	return resp.Value, nil
}

func (t *remoteTxn) set(key, value []byte) error {
	return t.d.roundTrip(wire.MsgSet, wire.SetRequest{TxnID: t.id, Key: key, Value: value}, nil)
}

func (t *remoteTxn) clear(key []byte) error {
	return t.d.roundTrip(wire.MsgClear, wire.ClearRequest{TxnID: t.id, Key: key}, nil)
}

func (t *remoteTxn) setOption(name string, value int64) error {
	return t.d.roundTrip(wire.MsgSetTxnOption, wire.SetTxnOptionRequest{TxnID: t.id, Name: name, Value: value}, nil)
}

func (t *remoteTxn) commit() (uint64, error) {
	var resp wire.CommitResponse
	if err := t.d.roundTrip(wire.MsgCommit, wire.TxnRequest{TxnID: t.id}, &resp); err != nil {
		return 0, err
	}
	return resp.Version, nil
}

func (t *remoteTxn) cancel() error {
	return t.d.roundTrip(wire.MsgCancel, wire.TxnRequest{TxnID: t.id}, nil)
}
