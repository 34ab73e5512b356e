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

// Package wireproto defines the wire framing between group members: a fixed
// 32-byte header followed by a tagged payload body. The header is encoded
// with encoding/binary directly; bodies are dispatched on a single-byte Tag,
// the same way application messages are dispatched in the gossip layer.
package wireproto

// Tag identifies the type of a framed message's payload.
type Tag byte

// Message tags, grouped by the layer that owns them.
const (
	UnknownTag Tag = iota

	// GMCast handshake and membership gossip (L1).
	GMCastHandshakeTag
	GMCastHeartbeatTag
	GMCastStateTag

	// EVS (extended virtual synchrony) control messages (L1).
	EVSUserTag
	EVSDelegateTag
	EVSGapTag
	EVSJoinTag
	EVSInstallTag

	// PC (primary component) control messages (L1).
	PCStateTag
	PCInstallTag

	// Application payload, carrying GCS action framing (L2+).
	ActionTag

	// Donor/joiner state-transfer request/response (L5, point-to-point
	// rather than total-order broadcast).
	StateReqTag
	StateRespTag
)

var tagNames = map[Tag]string{
	UnknownTag:         "unknown",
	GMCastHandshakeTag: "gmcast_handshake",
	GMCastHeartbeatTag: "gmcast_heartbeat",
	GMCastStateTag:     "gmcast_state",
	EVSUserTag:         "evs_user",
	EVSDelegateTag:     "evs_delegate",
	EVSGapTag:          "evs_gap",
	EVSJoinTag:         "evs_join",
	EVSInstallTag:      "evs_install",
	PCStateTag:         "pc_state",
	PCInstallTag:       "pc_install",
	ActionTag:          "action",
	StateReqTag:        "state_req",
	StateRespTag:       "state_resp",
}

// String reports a human-readable tag name, for logging.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "unknown"
}
