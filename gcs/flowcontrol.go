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

import (
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/google/uuid"
)

// FlowControlState is the local pause/resume state a member broadcasts to
// the rest of the cluster when its applier backlog crosses the configured
// watermarks.
type FlowControlState int

const (
	FlowRunning FlowControlState = iota
	FlowPaused
)

// flowSample is one peer's last-reported backlog, aged out after
// staleSampleAge if no fresher report arrives.
type flowSample struct {
	backlog  int64
	lastSeen time.Time
}

// FlowControl periodically compares a member's local applier backlog
// against configured watermarks and decides whether to broadcast a pause
// or resume, following the same sample-and-threshold idiom the teacher
// uses in its connection performance monitor: accumulate short-lived
// per-peer samples, then act once a threshold is crossed rather than
// reacting to every single data point.
type FlowControl struct {
	mu deadlock.Mutex

	lowWatermark  int64
	highWatermark int64
	staleAge      time.Duration

	self  uuid.UUID
	state FlowControlState

	samples map[uuid.UUID]flowSample
}

// NewFlowControl creates a FlowControl for self. A broadcast pause fires
// once the local backlog crosses highWatermark; resume fires once it falls
// back to lowWatermark or below. staleAge bounds how long a peer's last
// reported sample is trusted before it's excluded from the cluster
// backlog estimate.
func NewFlowControl(self uuid.UUID, lowWatermark, highWatermark int64, staleAge time.Duration) *FlowControl {
	return &FlowControl{
		self:          self,
		lowWatermark:  lowWatermark,
		highWatermark: highWatermark,
		staleAge:      staleAge,
		samples:       make(map[uuid.UUID]flowSample),
	}
}

// ReportPeerBacklog records a peer's most recently broadcast backlog
// figure (its L3 cache occupancy), used to estimate cluster-wide
// congestion for diagnostics.
func (f *FlowControl) ReportPeerBacklog(peer uuid.UUID, backlog int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples[peer] = flowSample{backlog: backlog, lastSeen: time.Now()}
}

// EvaluateLocal updates local backlog and reports whether flow control
// state changed (the caller is responsible for multicasting the new
// state when it does).
func (f *FlowControl) EvaluateLocal(localBacklog int64) (changed bool, newState FlowControlState) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case FlowRunning:
		if localBacklog >= f.highWatermark {
			f.state = FlowPaused
			return true, FlowPaused
		}
	case FlowPaused:
		if localBacklog <= f.lowWatermark {
			f.state = FlowRunning
			return true, FlowRunning
		}
	}
	return false, f.state
}

// State reports the current flow-control state.
func (f *FlowControl) State() FlowControlState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ClusterBacklog sums every non-stale peer sample plus the local figure.
// Donor selection does not use it; it ranks donors by fetch history.
func (f *FlowControl) ClusterBacklog(localBacklog int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := localBacklog
	now := time.Now()
	for _, s := range f.samples {
		if now.Sub(s.lastSeen) > f.staleAge {
			continue
		}
		total += s.backlog
	}
	return total
}

// PeerBacklog returns the last reported backlog for peer, if a non-stale
// sample exists.
func (f *FlowControl) PeerBacklog(peer uuid.UUID) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.samples[peer]
	if !ok || time.Since(s.lastSeen) > f.staleAge {
		return 0, false
	}
	return s.backlog, true
}
