package wire

import (
	"time"

	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/rep"
	"go.nanomsg.org/mangos/v3/protocol/req"

	// Register all transports
	_ "go.nanomsg.org/mangos/v3/transport/all"
)

// Socket is the minimal surface the client and server need from a
// messaging socket.
type Socket interface {
	Send(data []byte) error
	Recv() ([]byte, error)
	Close() error
	SetRecvDeadline(d time.Duration) error
	SetSendDeadline(d time.Duration) error
}

// ListenSocket is a socket bound to a local address.
type ListenSocket interface {
	Socket
	Listen(addr string) error
}

// DialSocket is a socket connected to a remote address.
type DialSocket interface {
	Socket
	Dial(addr string) error
}

// mangosSocket wraps a mangos.Socket to implement our Socket interface.
type mangosSocket struct {
	sock mangos.Socket
}

func (s *mangosSocket) Send(data []byte) error {
	return s.sock.Send(data)
}

func (s *mangosSocket) Recv() ([]byte, error) {
	return s.sock.Recv()
}

func (s *mangosSocket) Close() error {
	return s.sock.Close()
}

func (s *mangosSocket) SetRecvDeadline(d time.Duration) error {
	return s.sock.SetOption(mangos.OptionRecvDeadline, d)
}

func (s *mangosSocket) SetSendDeadline(d time.Duration) error {
	return s.sock.SetOption(mangos.OptionSendDeadline, d)
}

func (s *mangosSocket) Listen(addr string) error {
	return s.sock.Listen(addr)
}

func (s *mangosSocket) Dial(addr string) error {
	return s.sock.Dial(addr)
}

// NewRepSocket creates the server side of the request/reply pair.
func NewRepSocket() (ListenSocket, error) {
	sock, err := rep.NewSocket()
	if err != nil {
		return nil, err
	}
	return &mangosSocket{sock: sock}, nil
}

// NewReqSocket creates the client side of the request/reply pair.
func NewReqSocket() (DialSocket, error) {
	sock, err := req.NewSocket()
	if err != nil {
		return nil, err
	}
	return &mangosSocket{sock: sock}, nil
}

// IsClosedErr reports whether the error came from a closed mangos socket.
func IsClosedErr(err error) bool {
	return err == mangos.ErrClosed
}

// IsTimeoutErr reports whether the error is a socket deadline expiry.
func IsTimeoutErr(err error) bool {
	return err == mangos.ErrRecvTimeout || err == mangos.ErrSendTimeout
}
