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
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/coredb/replicator/logging"
)

const defaultMeshInterval = 10 * time.Second

// jitterBackoff is a minimal exponential-backoff-with-jitter delay
// generator: d = base*2^attempts, capped at max, then randomized uniformly
// within [d/2, d). This
// is a one-off formula, not a reusable scheduling library, so it is written
// directly against math/rand rather than pulling in a dependency for it.
type jitterBackoff struct {
	base, max time.Duration
	attempts  int
}

func (b *jitterBackoff) next() time.Duration {
	d := b.base << b.attempts
	if d <= 0 || d > b.max {
		d = b.max
	}
	b.attempts++
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	return d/2 + jitter
}

func (b *jitterBackoff) reset() {
	b.attempts = 0
}

// Mesher periodically dials phonebook addresses not already connected,
// backing off when none are reachable, adapted from the teacher's
// network/mesh.go meshThread loop — interval-driven with exponential
// jitter backoff on a miss and reset on a hit.
type Mesher struct {
	phonebook *Phonebook
	connectFn func(addr string) bool
	interval  time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewMesher creates a Mesher that calls connectFn for phonebook addresses on
// each tick; connectFn should return true if at least one new connection was
// established.
func NewMesher(phonebook *Phonebook, connectFn func(addr string) bool) *Mesher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Mesher{
		phonebook: phonebook,
		connectFn: connectFn,
		interval:  defaultMeshInterval,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the mesh maintenance loop.
func (m *Mesher) Start() {
	m.wg.Add(1)
	go m.loop()
}

// Stop cancels the loop and waits for it to exit.
func (m *Mesher) Stop() {
	m.cancel()
	m.wg.Wait()
}

func (m *Mesher) loop() {
	defer m.wg.Done()

	backoff := &jitterBackoff{base: 2 * time.Second, max: m.interval * 4}
	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-timer.C:
		}

		found := false
		for _, addr := range m.phonebook.GetAddresses(m.phonebook.Length()) {
			if m.connectFn(addr) {
				found = true
			}
		}

		if found {
			timer.Reset(m.interval)
			backoff.reset()
		} else {
			delay := backoff.next()
			logging.Base().Debugf("gmcast: no new peers reachable, backing off %s", delay)
			timer.Reset(delay)
		}
	}
}
