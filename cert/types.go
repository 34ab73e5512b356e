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

// Package cert implements the certification engine (L4): it maintains the
// certification index keyed by fingerprints of write-set certification keys
// and decides, in strict seqno order, whether a delivered write-set conflicts
// with one already certified inside its originator's snapshot horizon.
package cert

import "github.com/google/uuid"

// Flags are per-write-set behavior bits, orthogonal to certification itself.
type Flags uint32

const (
	FlagCommit Flags = 1 << iota
	FlagRollback
	FlagIsolation
	FlagPAUnsafe
	FlagCommutative
	FlagNative
)

// Key is a single certification key: an opaque byte string drawn from the
// database's key namespace, tagged full or partial match. Both kinds are
// certified identically — the fingerprint covers the tag, so a full-match
// key and a partial-match key with the same bytes never alias each other.
type Key struct {
	Bytes   []byte
	Partial bool
}

// WriteSet is a single transaction's replicated change set.
type WriteSet struct {
	SourceUUID uuid.UUID
	TrxID      uint64
	LastSeen   int64
	Keys       []Key
	Data       []byte
	Flags      Flags
}
