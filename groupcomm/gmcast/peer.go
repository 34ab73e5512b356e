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

package gmcast

import (
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/google/uuid"

	"github.com/coredb/replicator/reactor"
)

// Peer is one connected group member's transport-level state.
type Peer struct {
	UUID        uuid.UUID
	Address     string
	Socket      *reactor.Socket
	lastContact time.Time
}

// PeerSet tracks every currently connected peer, keyed by member UUID, and
// detects dead peers by heartbeat staleness — the fan-out layer's half of
// spec §4.2's "heartbeat, and dead-peer eviction".
type PeerSet struct {
	mu    deadlock.Mutex
	peers map[uuid.UUID]*Peer
}

// NewPeerSet creates an empty peer set.
func NewPeerSet() *PeerSet {
	return &PeerSet{peers: make(map[uuid.UUID]*Peer)}
}

// Add registers a newly connected peer, marking it contacted now.
func (s *PeerSet) Add(p *Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.lastContact = time.Now()
	s.peers[p.UUID] = p
}

// Remove drops id from the set, e.g. on socket close.
func (s *PeerSet) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, id)
}

// Touch records a heartbeat or any other contact from id.
func (s *PeerSet) Touch(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.peers[id]; ok {
		p.lastContact = time.Now()
	}
}

// Get returns the peer registered under id, if connected.
func (s *PeerSet) Get(id uuid.UUID) (*Peer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.peers[id]
	return p, ok
}

// List returns every currently connected peer.
func (s *PeerSet) List() []*Peer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}

// Len reports how many peers are connected.
func (s *PeerSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// EvictDead removes and returns every peer whose last contact is older than
// timeout, closing its socket.
func (s *PeerSet) EvictDead(timeout time.Duration) []*Peer {
	s.mu.Lock()
	cutoff := time.Now().Add(-timeout)
	var dead []*Peer
	for id, p := range s.peers {
		if p.lastContact.Before(cutoff) {
			dead = append(dead, p)
			delete(s.peers, id)
		}
	}
	s.mu.Unlock()

	for _, p := range dead {
		if p.Socket != nil {
			p.Socket.Close()
		}
	}
	return dead
}
