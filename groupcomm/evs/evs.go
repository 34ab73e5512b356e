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

package evs

import (
	"sort"

	"github.com/algorand/go-deadlock"
	"github.com/google/uuid"

	"github.com/coredb/replicator/groupcomm"
	"github.com/coredb/replicator/logging"
	"github.com/coredb/replicator/wireproto"
)

// Transport is the down-call EVS uses to actually move bytes: send to one
// member, or broadcast to every current member.
type Transport interface {
	SendTo(dest uuid.UUID, msg Message) error
	Broadcast(msg Message) error
}

// Evs implements reliable FIFO-per-source, totally ordered delivery over an
// unreliable Transport.
type Evs struct {
	mu deadlock.Mutex

	self      uuid.UUID
	transport Transport

	view      groupcomm.View
	sequencer uuid.UUID

	// outboundSeq is this member's own per-source sequence counter for
	// messages it originates.
	outboundSeq uint64
	// nextAggSeq is the next aggregate sequence number the sequencer will
	// assign; meaningful only when self == sequencer.
	nextAggSeq uint64

	// perSourceExpected is the next SourceSeq expected from each source,
	// enforcing FIFO-per-source delivery before a message is handed to the
	// total-order stage.
	perSourceExpected map[uuid.UUID]uint64
	perSourcePending  map[uuid.UUID]map[uint64]Message

	// nextDeliverAgg/holding implement total-order delivery: a delegate
	// message is held until every lower aggregate sequence has already been
	// delivered.
	nextDeliverAgg uint64
	holding        map[uint64]Message

	up chan groupcomm.UpEvent
}

// New creates an Evs instance for self, sitting on transport, with no view
// installed yet (callers must call InstallView before traffic flows).
func New(self uuid.UUID, transport Transport) *Evs {
	return &Evs{
		self:              self,
		transport:         transport,
		perSourceExpected: make(map[uuid.UUID]uint64),
		perSourcePending:  make(map[uuid.UUID]map[uint64]Message),
		holding:           make(map[uint64]Message),
		up:                make(chan groupcomm.UpEvent, 256),
	}
}

// Up returns the channel payloads and views are delivered on.
func (e *Evs) Up() <-chan groupcomm.UpEvent {
	return e.up
}

// electSequencer picks the lowest-UUID member of the view as the message
// sequencer — any deterministic, view-wide-agreed rule works, since every
// member computes the same view and thus the same sequencer.
func electSequencer(view groupcomm.View) uuid.UUID {
	members := append([]groupcomm.Member(nil), view.Members...)
	sort.Slice(members, func(i, j int) bool {
		return members[i].UUID.String() < members[j].UUID.String()
	})
	if len(members) == 0 {
		return uuid.UUID{}
	}
	return members[0].UUID
}

// InstallView delivers view as a barrier: no payload from the prior view is
// delivered after this call, and delivery state resets for the new view's
// membership (matching spec §4.2's install-view-as-barrier guarantee).
func (e *Evs) InstallView(view groupcomm.View) {
	e.mu.Lock()
	e.view = view
	e.sequencer = electSequencer(view)
	e.perSourceExpected = make(map[uuid.UUID]uint64)
	e.perSourcePending = make(map[uuid.UUID]map[uint64]Message)
	e.holding = make(map[uint64]Message)
	e.nextDeliverAgg = 0
	if e.sequencer == e.self {
		e.nextAggSeq = 0
	}
	e.mu.Unlock()

	e.up <- groupcomm.UpEvent{View: &view}
}

// Broadcast is the down-call: submit payload for total-order delivery.
// Non-sequencer members forward a user message to the sequencer; the
// sequencer stamps and re-broadcasts directly.
func (e *Evs) Broadcast(payload []byte, tag wireproto.Tag) error {
	e.mu.Lock()
	seq := e.outboundSeq
	e.outboundSeq++
	sequencer := e.sequencer
	self := e.self
	e.mu.Unlock()

	msg := Message{Type: MsgUser, Source: self, SourceSeq: seq, Tag: tag, Payload: payload}

	if sequencer == self {
		return e.sequence(msg)
	}
	return e.transport.SendTo(sequencer, msg)
}

// HandleIncoming processes a message received from the transport, whatever
// member sent it.
func (e *Evs) HandleIncoming(msg Message) {
	switch msg.Type {
	case MsgUser:
		e.handleUser(msg)
	case MsgDelegate:
		e.handleDelegate(msg)
	case MsgJoin, MsgGap, MsgInstall:
		logging.Base().Debugf("evs: ignoring unhandled control message type %d", msg.Type)
	}
}

// handleUser runs only on the sequencer: it enforces FIFO-per-source order
// on the incoming user message before stamping and re-broadcasting it.
func (e *Evs) handleUser(msg Message) {
	e.mu.Lock()
	if e.self != e.sequencer {
		e.mu.Unlock()
		return
	}

	expected := e.perSourceExpected[msg.Source]
	if msg.SourceSeq != expected {
		if e.perSourcePending[msg.Source] == nil {
			e.perSourcePending[msg.Source] = make(map[uint64]Message)
		}
		e.perSourcePending[msg.Source][msg.SourceSeq] = msg
		e.mu.Unlock()
		return
	}

	ready := []Message{msg}
	next := expected + 1
	for {
		m, ok := e.perSourcePending[msg.Source][next]
		if !ok {
			break
		}
		ready = append(ready, m)
		delete(e.perSourcePending[msg.Source], next)
		next++
	}
	e.perSourceExpected[msg.Source] = next
	e.mu.Unlock()

	for _, m := range ready {
		e.sequence(m)
	}
}

// sequence runs only on the sequencer: it assigns the next aggregate
// sequence number to msg and re-broadcasts it as a delegate message.
func (e *Evs) sequence(msg Message) error {
	e.mu.Lock()
	msg.Type = MsgDelegate
	msg.AggSeq = e.nextAggSeq
	e.nextAggSeq++
	e.mu.Unlock()

	return e.transport.Broadcast(msg)
}

// handleDelegate runs on every member (including the sequencer, which
// delivers its own re-broadcasts like anyone else) and delivers strictly by
// increasing aggregate sequence.
func (e *Evs) handleDelegate(msg Message) {
	e.mu.Lock()
	if msg.AggSeq != e.nextDeliverAgg {
		e.holding[msg.AggSeq] = msg
		e.mu.Unlock()
		return
	}

	ready := []Message{msg}
	next := e.nextDeliverAgg + 1
	for {
		m, ok := e.holding[next]
		if !ok {
			break
		}
		ready = append(ready, m)
		delete(e.holding, next)
		next++
	}
	e.nextDeliverAgg = next
	e.mu.Unlock()

	for _, m := range ready {
		e.up <- groupcomm.UpEvent{Source: m.Source, Tag: m.Tag, SenderSeq: m.AggSeq, Payload: m.Payload}
	}
}

// Close shuts down delivery.
func (e *Evs) Close() error {
	close(e.up)
	return nil
}
