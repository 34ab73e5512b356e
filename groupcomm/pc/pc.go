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

// Package pc decides, for every EVS view, whether it is primary: it contains
// a majority of the previous primary view's members, or it is the bootstrap
// view. Non-primary views pass membership information upstream but no
// application payloads, per spec §4.2.
package pc

import (
	"github.com/algorand/go-deadlock"

	"github.com/coredb/replicator/groupcomm"
	"github.com/coredb/replicator/logging"
)

// PrimaryComponent wraps an upstream view/payload stream (from evs.Evs or a
// test double implementing the same Up()/Close() shape) and re-publishes it
// with View.Primary decided and non-primary payloads dropped.
type PrimaryComponent struct {
	mu deadlock.Mutex

	bootstrap bool

	lastPrimaryMembers map[string]struct{}
	currentlyPrimary   bool

	up chan groupcomm.UpEvent
}

// New creates a PrimaryComponent. bootstrap marks this node as allowed to
// force the first view primary with no prior primary to compare against
// (the operator force-bootstrap case from spec §4.2's failure semantics).
func New(bootstrap bool) *PrimaryComponent {
	return &PrimaryComponent{bootstrap: bootstrap, up: make(chan groupcomm.UpEvent, 256)}
}

// Up returns the re-published, primary-decided event stream.
func (p *PrimaryComponent) Up() <-chan groupcomm.UpEvent {
	return p.up
}

func memberSet(view groupcomm.View) map[string]struct{} {
	set := make(map[string]struct{}, len(view.Members))
	for _, m := range view.Members {
		set[m.UUID.String()] = struct{}{}
	}
	return set
}

// isPrimary reports whether view contains a strict majority of
// lastPrimaryMembers, or is the bootstrap view.
func (p *PrimaryComponent) isPrimary(view groupcomm.View) bool {
	if view.Bootstrap && p.bootstrap {
		return true
	}
	if p.lastPrimaryMembers == nil {
		return false
	}

	current := memberSet(view)
	overlap := 0
	for id := range p.lastPrimaryMembers {
		if _, ok := current[id]; ok {
			overlap++
		}
	}
	return overlap*2 > len(p.lastPrimaryMembers)
}

// HandleUp consumes one event from the upstream EVS/transport layer,
// deciding primacy for views and dropping payloads while non-primary.
func (p *PrimaryComponent) HandleUp(ev groupcomm.UpEvent) {
	if !ev.IsView() {
		p.mu.Lock()
		deliver := p.currentlyPrimary
		p.mu.Unlock()
		if deliver {
			p.up <- ev
		}
		return
	}

	p.mu.Lock()
	primary := p.isPrimary(*ev.View)
	p.currentlyPrimary = primary
	if primary {
		p.lastPrimaryMembers = memberSet(*ev.View)
	}
	p.mu.Unlock()

	if !primary {
		logging.Base().Infof("pc: view %d is non-primary (no majority of previous primary view)", ev.View.ViewSeq)
	}

	decided := *ev.View
	decided.Primary = primary
	p.up <- groupcomm.UpEvent{View: &decided}
}

// IsPrimary reports the current primacy decision.
func (p *PrimaryComponent) IsPrimary() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentlyPrimary
}

// Close shuts down the republished stream.
func (p *PrimaryComponent) Close() error {
	close(p.up)
	return nil
}
