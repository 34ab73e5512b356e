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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPeerSetAddGetRemove(t *testing.T) {
	t.Parallel()

	s := NewPeerSet()
	id := uuid.New()
	s.Add(&Peer{UUID: id, Address: "a:1"})

	p, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, "a:1", p.Address)
	require.Equal(t, 1, s.Len())

	s.Remove(id)
	require.Equal(t, 0, s.Len())
}

func TestPeerSetEvictDead(t *testing.T) {
	t.Parallel()

	s := NewPeerSet()
	stale := uuid.New()
	fresh := uuid.New()
	s.Add(&Peer{UUID: stale})
	s.Add(&Peer{UUID: fresh})

	s.mu.Lock()
	s.peers[stale].lastContact = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	dead := s.EvictDead(time.Minute)
	require.Len(t, dead, 1)
	require.Equal(t, stale, dead[0].UUID)
	require.Equal(t, 1, s.Len())

	_, ok := s.Get(fresh)
	require.True(t, ok)
}

func TestPeerSetTouchUpdatesContact(t *testing.T) {
	t.Parallel()

	s := NewPeerSet()
	id := uuid.New()
	s.Add(&Peer{UUID: id})

	s.mu.Lock()
	s.peers[id].lastContact = time.Now().Add(-time.Hour)
	s.mu.Unlock()

	s.Touch(id)
	dead := s.EvictDead(time.Minute)
	require.Empty(t, dead)
}
