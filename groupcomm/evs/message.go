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

// Package evs converts gmcast's unreliable point-to-point delivery into
// reliable, FIFO-per-source, totally ordered delivery with views emitted as
// barriers on membership change, per spec §4.2. Total order is reached by a
// single rotating sequencer (the lowest-UUID member of the current view) who
// stamps every accepted message with the next aggregate sequence number and
// re-broadcasts it as a delegate message; every member — including the
// sequencer itself — delivers strictly by increasing aggregate sequence.
// This is a deliberate, documented simplification of full extended virtual
// synchrony's distributed total-order agreement (see DESIGN.md): it
// satisfies spec §4.2's ordering guarantees at the cost of the sequencer
// itself being a transient bottleneck, resolved by the next view's
// re-election whenever the sequencer is lost.
package evs

import (
	"github.com/google/uuid"

	"github.com/coredb/replicator/wireproto"
)

// MessageType distinguishes the handful of EVS protocol messages from a
// user payload in transit.
type MessageType int

const (
	MsgUser MessageType = iota
	MsgDelegate
	MsgGap
	MsgJoin
	MsgInstall
)

// Message is a single EVS-framed unit: an originally-submitted user message,
// or the sequencer's delegate re-broadcast of one, or a protocol control
// message (gap retransmit request, join, install).
type Message struct {
	Type MessageType

	Source    uuid.UUID
	SourceSeq uint64

	AggSeq uint64

	Tag     wireproto.Tag
	Payload []byte
}
