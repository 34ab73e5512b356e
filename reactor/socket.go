// Copyright (C) 2019-2020 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package reactor

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/algorand/go-deadlock"
)

// ErrWriteBusy is returned by Write when a previous Write on the same Socket
// is still in flight, mirroring spec's "a second concurrent async_write on a
// socket with one in flight is an error" busy condition.
var ErrWriteBusy = errors.New("reactor: write already in flight")

// Socket is a single connection with a pluggable StreamEngine. Writes are
// single-owner: Write refuses to start a second write while one is already
// running, rather than interleaving two callers' bytes. The read side has no
// such restriction — only one reader goroutine is expected to call Read in
// practice, matching the teacher's per-peer single readLoop goroutine.
type Socket struct {
	conn   net.Conn
	engine StreamEngine

	mu   deadlock.Mutex
	busy bool
}

// Dial opens a TCP connection to addr and wraps it with engine (nil selects
// IdentityEngine).
func Dial(ctx context.Context, network, addr string, engine StreamEngine) (*Socket, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return NewSocket(conn, engine), nil
}

// NewSocket wraps an already-established connection.
func NewSocket(conn net.Conn, engine StreamEngine) *Socket {
	if engine == nil {
		engine = NewIdentityEngine(conn)
	}
	return &Socket{conn: conn, engine: engine}
}

// ClientHandshake drives the engine's client-side handshake to completion.
func (s *Socket) ClientHandshake() error {
	status, err := s.engine.ClientHandshake()
	return statusToErr(status, err)
}

// ServerHandshake drives the engine's server-side handshake to completion.
func (s *Socket) ServerHandshake() error {
	status, err := s.engine.ServerHandshake()
	return statusToErr(status, err)
}

// Read fills buf via the engine, returning io.EOF on orderly close.
func (s *Socket) Read(buf []byte) (int, error) {
	status, n, err := s.engine.Read(buf)
	if status == StatusSuccess {
		return n, nil
	}
	return n, statusToErr(status, err)
}

// Write sends all of buf via the engine. It returns ErrWriteBusy instead of
// blocking if another Write on this Socket is already running.
func (s *Socket) Write(buf []byte) (int, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return 0, ErrWriteBusy
	}
	s.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	var total int
	for total < len(buf) {
		status, n, err := s.engine.Write(buf[total:])
		total += n
		if status != StatusSuccess {
			return total, statusToErr(status, err)
		}
		if n == 0 {
			return total, errors.New("reactor: write made no progress")
		}
	}
	return total, nil
}

// Close closes the underlying connection.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// RemoteAddr returns the connection's remote address.
func (s *Socket) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

func statusToErr(status Status, err error) error {
	switch status {
	case StatusSuccess:
		return nil
	case StatusEOF:
		return io.EOF
	case StatusWantRead, StatusWantWrite:
		return nil
	default:
		return NewErrorCode(err)
	}
}
