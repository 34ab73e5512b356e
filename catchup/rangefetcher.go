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
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coredb/replicator/protocol"
	"github.com/coredb/replicator/reactor"
	"github.com/coredb/replicator/wireproto"
)

// RangeItem is one write-set fetched from a donor during IST, still opaque
// to catchup: decoding its payload into a domain write-set is the caller's
// (replicator's) job.
type RangeItem struct {
	Seqno   int64
	Payload []byte
}

// stateReq is the joiner's request, msgpack-reflected the same way
// gcs.wireAction and replicator.wireWriteSet are.
type stateReq struct {
	FromSeqno int64
}

// stateResp is a single frame of the donor's reply stream: either one
// write-set (Done == false) or the terminal frame carrying whether a full
// SST is required because fromSeqno fell below the donor's cache floor.
type stateResp struct {
	Done      bool
	NeedsSST  bool
	HighSeqno int64
	Seqno     int64
	Payload   []byte
}

// RangeFetcher dials a single donor and drains the write-set range starting
// at fromSeqno, grounded on catchup/wsFetcher.go's wsFetcherClient: a
// per-request child context, a single in-flight request per call, and a
// single error/success outcome reported back to the caller for donor
// ranking.
type RangeFetcher struct {
	dialTimeout int
}

// NewRangeFetcher creates a RangeFetcher.
func NewRangeFetcher() *RangeFetcher {
	return &RangeFetcher{}
}

// Fetch dials donorAddr, requests every write-set from fromSeqno onward, and
// returns them in order along with whether the donor reports a full SST is
// needed (fromSeqno predates its cache floor) and the donor's highest known
// seqno at response time.
func (f *RangeFetcher) Fetch(ctx context.Context, donorAddr string, fromSeqno int64) ([]RangeItem, bool, int64, error) {
	sock, err := reactor.Dial(ctx, "tcp", donorAddr, nil)
	if err != nil {
		return nil, false, 0, fmt.Errorf("catchup: dialing donor %s: %w", donorAddr, err)
	}
	defer sock.Close()

	if err := sock.ClientHandshake(); err != nil {
		return nil, false, 0, fmt.Errorf("catchup: handshake with donor %s: %w", donorAddr, err)
	}

	reqBytes := protocol.EncodeReflect(stateReq{FromSeqno: fromSeqno})
	hdr := wireproto.Header{Version: wireproto.CurrentVersion, Type: wireproto.StateReqTag, SourceUUID: uuid.Nil}
	if err := wireproto.Encode(sock, hdr, reqBytes); err != nil {
		return nil, false, 0, fmt.Errorf("catchup: sending STATE_REQ to %s: %w", donorAddr, err)
	}

	var items []RangeItem
	for {
		frame, err := wireproto.Decode(sock)
		if err != nil {
			return nil, false, 0, fmt.Errorf("catchup: reading STATE_RESP from %s: %w", donorAddr, err)
		}
		if frame.Header.Type != wireproto.StateRespTag {
			return nil, false, 0, fmt.Errorf("catchup: unexpected frame tag %s from %s", frame.Header.Type, donorAddr)
		}

		var resp stateResp
		if err := protocol.DecodeReflect(frame.Payload, &resp); err != nil {
			return nil, false, 0, fmt.Errorf("catchup: decoding STATE_RESP from %s: %w", donorAddr, err)
		}
		if resp.Done {
			return items, resp.NeedsSST, resp.HighSeqno, nil
		}
		items = append(items, RangeItem{Seqno: resp.Seqno, Payload: resp.Payload})
	}
}
