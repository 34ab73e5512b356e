// Copyright (C) 2019-2021 Algorand, Inc.
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

package catchup

import (
	"net"
	"sync"

	"github.com/coredb/replicator/logging"
	"github.com/coredb/replicator/protocol"
	"github.com/coredb/replicator/reactor"
	"github.com/coredb/replicator/wireproto"
)

// RangeSource is the donor-side view of the write-set cache: the same
// surface gcache.Cache already exposes, named separately here so catchup
// depends only on an interface, not on gcache directly.
type RangeSource interface {
	Low() (int64, bool)
	High() (int64, bool)
	Get(seqno int64) ([]byte, bool, error)
}

// DonorServer answers STATE_REQ connections from joiners, streaming every
// write-set at or above the requested seqno out of a RangeSource, grounded
// on catchup/wsFetcher.go's request-serving counterpart
// (rpcs.WsFetcherService) adapted to our own wireproto framing instead of
// the teacher's RPC registry.
type DonorServer struct {
	source RangeSource

	mu sync.Mutex
	ln net.Listener
	wg sync.WaitGroup
}

// NewDonorServer creates a DonorServer reading from source.
func NewDonorServer(source RangeSource) *DonorServer {
	return &DonorServer{source: source}
}

// Listen binds addr and begins accepting STATE_REQ connections in the
// background. Addr may be "" or end in ":0" to pick an ephemeral port;
// Addr() reports the bound address once Listen returns.
func (d *DonorServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.ln = ln
	d.mu.Unlock()

	d.wg.Add(1)
	go d.acceptLoop(ln)
	return nil
}

// Addr returns the bound listen address, or "" if Listen has not been called.
func (d *DonorServer) Addr() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ln == nil {
		return ""
	}
	return d.ln.Addr().String()
}

// Close stops accepting new connections and waits for in-flight ones to drain.
func (d *DonorServer) Close() error {
	d.mu.Lock()
	ln := d.ln
	d.mu.Unlock()
	if ln == nil {
		return nil
	}
	err := ln.Close()
	d.wg.Wait()
	return err
}

func (d *DonorServer) acceptLoop(ln net.Listener) {
	defer d.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.serve(conn)
		}()
	}
}

func (d *DonorServer) serve(conn net.Conn) {
	sock := reactor.NewSocket(conn, nil)
	defer sock.Close()

	if err := sock.ServerHandshake(); err != nil {
		logging.Base().Warnf("catchup: donor handshake failed: %v", err)
		return
	}

	frame, err := wireproto.Decode(sock)
	if err != nil {
		logging.Base().Warnf("catchup: donor reading STATE_REQ failed: %v", err)
		return
	}
	if frame.Header.Type != wireproto.StateReqTag {
		logging.Base().Warnf("catchup: donor got unexpected frame tag %s", frame.Header.Type)
		return
	}

	var req stateReq
	if err := protocol.DecodeReflect(frame.Payload, &req); err != nil {
		logging.Base().Warnf("catchup: donor decoding STATE_REQ failed: %v", err)
		return
	}

	d.streamRange(sock, req.FromSeqno)
}

func (d *DonorServer) streamRange(sock *reactor.Socket, fromSeqno int64) {
	low, haveLow := d.source.Low()
	high, haveHigh := d.source.High()

	needsSST := haveLow && fromSeqno < low
	if !haveHigh {
		high = fromSeqno - 1
	}

	if !needsSST {
		start := fromSeqno
		if !haveLow {
			start = high + 1
		}
		for seqno := start; seqno <= high; seqno++ {
			payload, ok, err := d.source.Get(seqno)
			if err != nil || !ok {
				continue
			}
			if werr := d.sendItem(sock, seqno, payload); werr != nil {
				logging.Base().Warnf("catchup: donor streaming seqno %d failed: %v", seqno, werr)
				return
			}
		}
	}

	if err := d.sendDone(sock, needsSST, high); err != nil {
		logging.Base().Warnf("catchup: donor sending STATE_RESP done frame failed: %v", err)
	}
}

func (d *DonorServer) sendItem(sock *reactor.Socket, seqno int64, payload []byte) error {
	body := protocol.EncodeReflect(stateResp{Seqno: seqno, Payload: payload})
	hdr := wireproto.Header{Version: wireproto.CurrentVersion, Type: wireproto.StateRespTag}
	return wireproto.Encode(sock, hdr, body)
}

func (d *DonorServer) sendDone(sock *reactor.Socket, needsSST bool, highSeqno int64) error {
	body := protocol.EncodeReflect(stateResp{Done: true, NeedsSST: needsSST, HighSeqno: highSeqno})
	hdr := wireproto.Header{Version: wireproto.CurrentVersion, Type: wireproto.StateRespTag}
	return wireproto.Encode(sock, hdr, body)
}
