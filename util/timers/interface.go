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

// Package timers provides a Clock abstraction for EVS/GCS timeout and
// flow-control deadlines: join-retransmission periods, causal-read
// deadlines, and backpressure windows.
package timers

import (
	"time"
)

// Clock provides timeout events which fire at some point after a point in time.
type Clock interface {
	// Zero returns a reset Clock, using the point at which Zero was called
	// as the reference point for subsequent TimeoutAt calls.
	Zero() Clock

	// TimeoutAt returns a channel that fires delta time after Zero was
	// called. If delta has already passed, it returns a closed channel.
	TimeoutAt(delta time.Duration) <-chan time.Time
}

// ClockFactory allocates Clocks, keyed by an arbitrary caller label (used for
// logging only).
type ClockFactory interface {
	Zero(label interface{}) Clock
}

// WallClock reports elapsed time since some reference point, for use by
// DeadlineMonitor implementations.
type WallClock interface {
	Since() time.Duration
}

// DeadlineMonitor reports whether a fixed expiration has passed.
type DeadlineMonitor interface {
	Expired() bool
}
