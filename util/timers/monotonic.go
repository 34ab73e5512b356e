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

package timers

import (
	"time"

	"github.com/coredb/replicator/logging"
)

// MonotonicFactory allocates Monotonic clocks.
type MonotonicFactory struct{}

// Zero returns a new Monotonic clock zeroed to now.
func (*MonotonicFactory) Zero(label interface{}) Clock {
	z := time.Now().UTC()
	logging.Base().Debugf("allocating new clock zeroed to %v for %v", z, label)
	return MakeMonotonicClock(z)
}

// MakeMonotonicClockFactory creates a new monotonic clock factory.
func MakeMonotonicClockFactory() ClockFactory {
	return &MonotonicFactory{}
}

// Monotonic uses the system's monotonic clock to emit timeouts.
type Monotonic struct {
	zero     time.Time
	timeouts map[time.Duration]<-chan time.Time
}

// MakeMonotonicClock creates a new monotonic clock with a given zero point.
func MakeMonotonicClock(zero time.Time) Clock {
	return &Monotonic{zero: zero}
}

// Zero returns a new Clock reset to the current time.
func (m *Monotonic) Zero() Clock {
	return MakeMonotonicClock(time.Now().UTC())
}

// TimeoutAt returns a channel that fires when delta has elapsed since Zero.
func (m *Monotonic) TimeoutAt(delta time.Duration) <-chan time.Time {
	if m.timeouts == nil {
		m.timeouts = make(map[time.Duration]<-chan time.Time)
	}
	if timeoutCh, ok := m.timeouts[delta]; ok {
		return timeoutCh
	}

	target := m.zero.Add(delta)
	left := time.Until(target)

	var timeoutCh <-chan time.Time
	if left < 0 {
		timeout := make(chan time.Time)
		close(timeout)
		timeoutCh = timeout
	} else {
		timeoutCh = time.After(left)
	}
	m.timeouts[delta] = timeoutCh
	return timeoutCh
}

// Since reports the wall time elapsed since this clock's zero point.
func (m *Monotonic) Since() time.Duration {
	return time.Since(m.zero)
}

func (m *Monotonic) String() string {
	return m.zero.String()
}
