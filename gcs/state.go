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

import "github.com/algorand/go-deadlock"

// NodeState is a member's position in the GCS join/sync lifecycle.
type NodeState int

const (
	StateClosed NodeState = iota
	StateOpen
	StateConnected
	StateJoiner
	StateDonor
	StateJoined
	StateSynced
)

func (s NodeState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateConnected:
		return "CONNECTED"
	case StateJoiner:
		return "JOINER"
	case StateDonor:
		return "DONOR"
	case StateJoined:
		return "JOINED"
	case StateSynced:
		return "SYNCED"
	default:
		return "UNKNOWN"
	}
}

// StateMachine tracks one member's position in
// CLOSED -> OPEN -> CONNECTED -> JOINER -> DONOR|JOINED -> SYNCED -> DONOR|SYNCED,
// transitioning on local API calls (Connect/Close) and incoming
// CONF_CHANGE/JOIN/SYNC actions, per spec §4.3.
type StateMachine struct {
	mu    deadlock.Mutex
	state NodeState
}

// NewStateMachine creates a StateMachine in StateClosed.
func NewStateMachine() *StateMachine {
	return &StateMachine{state: StateClosed}
}

// Current returns the current state.
func (m *StateMachine) Current() NodeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect transitions CLOSED -> OPEN, the local call that begins dialing
// the seed list.
func (m *StateMachine) Connect() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateClosed {
		return false
	}
	m.state = StateOpen
	return true
}

// ConfChange applies an incoming CONF_CHANGE action: OPEN -> CONNECTED on
// the first view, or a no-op state transition for any later view (the
// caller separately decides primacy and whether a state transfer is due).
func (m *StateMachine) ConfChange() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateOpen {
		m.state = StateConnected
	}
}

// BeginJoin transitions CONNECTED -> JOINER: the local state_id differs
// from the view's, so a STATE_REQ must be sent before this member may
// apply or originate write-sets.
func (m *StateMachine) BeginJoin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected {
		return false
	}
	m.state = StateJoiner
	return true
}

// BecomeDonor transitions CONNECTED|SYNCED -> DONOR: this member was
// selected to service another's STATE_REQ.
func (m *StateMachine) BecomeDonor() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected && m.state != StateSynced {
		return false
	}
	m.state = StateDonor
	return true
}

// FinishDonate returns a DONOR to SYNCED once its snapshot/IST stream has
// been fully shipped.
func (m *StateMachine) FinishDonate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDonor {
		return false
	}
	m.state = StateSynced
	return true
}

// Joined transitions JOINER -> JOINED once a snapshot has been received and
// applied (IST draining may still be in progress).
func (m *StateMachine) Joined() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateJoiner {
		return false
	}
	m.state = StateJoined
	return true
}

// Sync applies an incoming SYNC action: JOINED|CONNECTED -> SYNCED. Only
// SYNCED members may originate write-sets.
func (m *StateMachine) Sync() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateJoined && m.state != StateConnected {
		return false
	}
	m.state = StateSynced
	return true
}

// CanReplicate reports whether this member may originate write-sets.
func (m *StateMachine) CanReplicate() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateSynced
}

// Close transitions unconditionally to CLOSED, the terminal state for a
// graceful leave.
func (m *StateMachine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
}
