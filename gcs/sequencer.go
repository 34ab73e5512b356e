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

package gcs

import (
	"github.com/algorand/go-deadlock"

	"github.com/coredb/replicator/groupcomm"
	"github.com/coredb/replicator/protocol"
	"github.com/coredb/replicator/wireproto"
)

// wireAction is the msgpack-reflected shape of an Action crossing the wire;
// View is carried separately (views are delivered in-band by groupcomm
// itself, never re-encoded as an Action payload).
type wireAction struct {
	Type          ActionType
	Payload       []byte
	LastCommitted int64
}

// EncodeWriteSet wraps a certified write-set's bytes as an ActionWriteSet
// wire payload.
func EncodeWriteSet(payload []byte) []byte {
	return protocol.EncodeReflect(wireAction{Type: ActionWriteSet, Payload: payload})
}

// EncodeCommitCut wraps a COMMIT_CUT announcement.
func EncodeCommitCut(lastCommitted int64) []byte {
	return protocol.EncodeReflect(wireAction{Type: ActionCommitCut, LastCommitted: lastCommitted})
}

// Sequencer assigns a strictly increasing global seqno to every delivered
// payload action and republishes each groupcomm.UpEvent as an Action on Fifo, the single
// producer/single-consumer handoff queue the certifier drains. This is the
// seqno-assignment point spec §4.3 describes: "a single certifier thread
// dequeues from L2 and feeds L4," made possible because groupcomm.Gcomm
// already guarantees total order — the sequencer only needs to count.
type Sequencer struct {
	mu    deadlock.Mutex
	next  int64
	state *StateMachine
	fifo  *Fifo
}

// NewSequencer creates a Sequencer feeding actions into fifo, starting
// seqno assignment at 1 (0 is reserved to mean "no seqno yet" throughout
// L3/L4).
func NewSequencer(state *StateMachine, fifo *Fifo) *Sequencer {
	return &Sequencer{next: 1, state: state, fifo: fifo}
}

// HandleUp consumes one up-call event, translating views into
// ActionConfChange (advancing the node state machine; a view takes no global
// seqno, so its Seqno stays 0) and payloads into their wire-decoded Action,
// each stamped with the next global seqno.
func (s *Sequencer) HandleUp(ev groupcomm.UpEvent) bool {
	if ev.IsView() {
		s.state.ConfChange()
		return s.fifo.Put(Action{Type: ActionConfChange, View: ev.View})
	}

	if ev.Tag != wireproto.ActionTag {
		return true
	}

	var wa wireAction
	if err := protocol.DecodeReflect(ev.Payload, &wa); err != nil {
		return true
	}

	action := Action{Type: wa.Type, Source: ev.Source, Payload: wa.Payload, LastCommitted: wa.LastCommitted}
	return s.fifo.Put(s.nextAction(action))
}

func (s *Sequencer) nextAction(a Action) Action {
	s.mu.Lock()
	a.Seqno = s.next
	s.next++
	s.mu.Unlock()
	return a
}

// Next reports the seqno that will be assigned to the next payload action, for
// diagnostics and tests.
func (s *Sequencer) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
