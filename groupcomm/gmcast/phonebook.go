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

// Package gmcast implements the group-communication fan-out layer: point-to-
// point TCP/TLS connections to every other member, seed-list gossip, and
// heartbeat/dead-peer eviction, grounded on the teacher's
// network/phonebook.go and network/mesh.go.
package gmcast

import (
	"math/rand"

	"github.com/algorand/go-deadlock"
)

func shuffleStrings(set []string) {
	rand.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
}

func shuffleSelect(set []string, n int) []string {
	if n >= len(set) {
		out := make([]string, len(set))
		copy(out, set)
		shuffleStrings(out)
		return out
	}
	indexSample := make([]int, n)
	for i := range indexSample {
		indexSample[i] = rand.Intn(len(set)-i) + i
		for oi, ois := range indexSample[:i] {
			if ois == indexSample[i] {
				indexSample[i] = oi
			}
		}
	}
	out := make([]string, n)
	for i, index := range indexSample {
		out[i] = set[index]
	}
	return out
}

// Phonebook is the seed list of candidate member addresses used for initial
// and ongoing mesh discovery.
type Phonebook struct {
	lock  deadlock.RWMutex
	addrs []string
}

// NewPhonebook seeds the phonebook with the given group's known addresses.
func NewPhonebook(seed []string) *Phonebook {
	p := &Phonebook{}
	p.ExtendPeerList(seed)
	return p
}

// GetAddresses returns up to n addresses in random order.
func (p *Phonebook) GetAddresses(n int) []string {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return shuffleSelect(p.addrs, n)
}

// ExtendPeerList adds any addresses in more not already present.
func (p *Phonebook) ExtendPeerList(more []string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for _, addr := range more {
		found := false
		for _, existing := range p.addrs {
			if existing == addr {
				found = true
				break
			}
		}
		if !found {
			p.addrs = append(p.addrs, addr)
		}
	}
}

// Remove drops addr from the phonebook, e.g. after repeated dial failures.
func (p *Phonebook) Remove(addr string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	for i, existing := range p.addrs {
		if existing == addr {
			p.addrs = append(p.addrs[:i], p.addrs[i+1:]...)
			return
		}
	}
}

// Length reports how many addresses are known.
func (p *Phonebook) Length() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return len(p.addrs)
}

// ReplacePeerList atomically replaces the known address set.
func (p *Phonebook) ReplacePeerList(addrs []string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.addrs = make([]string, len(addrs))
	copy(p.addrs, addrs)
}
