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

package cert

import (
	"crypto/sha256"

	"github.com/algorand/go-deadlock"

	"github.com/coredb/replicator/logging"
	"github.com/coredb/replicator/replerrors"
)

// Fingerprint is a content digest of a certification key, used as the
// certification index's map key instead of the raw (possibly large) key
// bytes. A content hash has no third-party equivalent worth adding; see
// DESIGN.md.
type Fingerprint [sha256.Size]byte

// Sum computes k's fingerprint; Partial is folded in so a full-match key and
// a partial-match key sharing the same bytes never collide.
func Sum(k Key) Fingerprint {
	h := sha256.New()
	if k.Partial {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write(k.Bytes)
	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// Certifier holds the certification index (fingerprint → certifying seqno)
// and the in-flight set (seqno → fingerprints) used to prune it. It must be
// driven by a single certifier thread in strictly increasing seqno order;
// Certify fatally aborts the process on an out-of-order call, since that
// means the node's view of global order is no longer trustworthy.
type Certifier struct {
	mu deadlock.Mutex

	idx      map[Fingerprint]int64
	inflight map[int64][]Fingerprint

	trailingWindow int64
	logConflicts   bool

	lastSeqno int64
}

// NewCertifier creates a Certifier pruning idx entries older than
// last_committed - trailingWindow.
func NewCertifier(trailingWindow int64, logConflicts bool) *Certifier {
	return &Certifier{
		idx:            make(map[Fingerprint]int64),
		inflight:       make(map[int64][]Fingerprint),
		trailingWindow: trailingWindow,
		logConflicts:   logConflicts,
		lastSeqno:      -1,
	}
}

// Certify decides whether the write-set delivered at seqno conflicts with
// one already certified after its snapshot horizon (LastSeen). On success it
// records seqno as the certifying seqno for every key. seqno must be greater
// than every previously certified seqno.
func (c *Certifier) Certify(seqno int64, ws *WriteSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seqno <= c.lastSeqno {
		logging.Base().Fatalf("cert: seqno regression, got %d after %d", seqno, c.lastSeqno)
	}
	c.lastSeqno = seqno

	fps := make([]Fingerprint, len(ws.Keys))
	for i, k := range ws.Keys {
		fps[i] = Sum(k)
	}

	for i, fp := range fps {
		if certifiedAt, ok := c.idx[fp]; ok && certifiedAt > ws.LastSeen {
			if c.logConflicts {
				logging.Base().Infof("cert: rejecting seqno %d: key %d conflicts with seqno %d (last_seen %d)",
					seqno, i, certifiedAt, ws.LastSeen)
			}
			return replerrors.MakeCertificationFailedError("conflicting key certified after snapshot horizon")
		}
	}

	for _, fp := range fps {
		c.idx[fp] = seqno
	}
	c.inflight[seqno] = fps
	return nil
}

// Purge advances the trailing window to lastCommitted, removing idx entries
// older than lastCommitted-trailingWindow and every in-flight entry below
// lastCommitted.
func (c *Certifier) Purge(lastCommitted int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	floor := lastCommitted - c.trailingWindow
	for fp, certifiedAt := range c.idx {
		if certifiedAt < floor {
			delete(c.idx, fp)
		}
	}
	for seqno := range c.inflight {
		if seqno < lastCommitted {
			delete(c.inflight, seqno)
		}
	}
}

// IndexLen reports the number of live fingerprints in the certification
// index.
func (c *Certifier) IndexLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.idx)
}

// InFlightLen reports the number of seqnos still tracked in the in-flight
// set.
func (c *Certifier) InFlightLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}
