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
	"github.com/google/uuid"

	"github.com/coredb/replicator/groupcomm"
)

// ActionType distinguishes the kinds of action GCS sequences and hands to
// its consumer (the certifier for WRITESET, the replicator state machine
// for everything else).
type ActionType int

const (
	ActionWriteSet ActionType = iota
	ActionCommitCut
	ActionConfChange
	ActionStateReq
	ActionSync
	ActionJoin
	ActionLeave
	ActionVote
	ActionCausal
)

func (t ActionType) String() string {
	switch t {
	case ActionWriteSet:
		return "WRITESET"
	case ActionCommitCut:
		return "COMMIT_CUT"
	case ActionConfChange:
		return "CONF_CHANGE"
	case ActionStateReq:
		return "STATE_REQ"
	case ActionSync:
		return "SYNC"
	case ActionJoin:
		return "JOIN"
	case ActionLeave:
		return "LEAVE"
	case ActionVote:
		return "VOTE"
	case ActionCausal:
		return "CAUSAL"
	default:
		return "UNKNOWN"
	}
}

// Action is one globally-sequenced unit of group-communication delivery,
// assigned a seqno by the order in which GCS observes it on the EVS/PC
// up-call stream.
type Action struct {
	Type  ActionType
	Seqno int64

	// Source identifies the originating member; meaningful for every type.
	Source uuid.UUID

	// Payload carries the write-set bytes for ActionWriteSet, the donor
	// UUID for ActionStateReq, or is empty for pure control actions.
	Payload []byte

	// View is set for ActionConfChange, carrying the new membership.
	View *groupcomm.View

	// LastCommitted is set for ActionCommitCut: the min over the cluster of
	// committed seqnos, advancing the certifier's trailing-window floor.
	LastCommitted int64
}
