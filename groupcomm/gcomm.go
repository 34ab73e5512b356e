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

// Package groupcomm defines the up-call/down-call contract between the
// group-communication stack (L1: gmcast/evs/pc) and GCS (L2): a single Up
// channel delivering either payloads or views, and a single PassDown call
// for multicast. original_source/gcs/src/gcs_gcomm.cpp fixes this as one
// handle_up(msg|view) function with views delivered in-band on the same
// channel as payloads, not a side channel — Up below carries that through
// directly as a tagged union rather than two separate channels.
package groupcomm

import (
	"github.com/google/uuid"

	"github.com/coredb/replicator/wireproto"
)

// Member identifies one group member.
type Member struct {
	UUID    uuid.UUID
	Address string
	Weight  int
}

// View describes the current membership, delivered as a barrier in the
// delivery stream: no payload from view v is ever delivered after view v+1.
type View struct {
	ViewSeq   uint64
	Members   []Member
	Primary   bool
	Bootstrap bool
}

// UpEvent is exactly one of Payload-set or View-set, delivered in strict
// total order across every member.
type UpEvent struct {
	// Source, Tag, and SenderSeq are only meaningful when Payload != nil.
	Source    uuid.UUID
	Tag       wireproto.Tag
	SenderSeq uint64
	Payload   []byte

	// View is only meaningful when Payload == nil.
	View *View
}

// IsView reports whether this event carries a view rather than a payload.
func (e UpEvent) IsView() bool {
	return e.Payload == nil
}

// Gcomm is the contract L2 (GCS) consumes from L1 (group communication).
type Gcomm interface {
	// Up delivers payloads and views in strict total order, FIFO per
	// source, safe (delivered to every member that stays in the same
	// primary component).
	Up() <-chan UpEvent

	// PassDown multicasts payload tagged with tag to every current member.
	PassDown(payload []byte, tag wireproto.Tag) error

	// Close shuts down the stack, closing Up().
	Close() error
}
