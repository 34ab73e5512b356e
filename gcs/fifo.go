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

// Package gcs implements the sequencing and flow-control layer (L2) between
// the group-communication up-calls and the write-set cache/certification
// pipeline. Fifo is a fixed-capacity, blocking ring buffer used to hand
// delivered actions from the group-comm callback goroutine to the single
// consumer goroutine that applies them in order, with a condition-variable
// pair guarding "not full" and "not empty" the way gcs_fifo_lite.c does.
package gcs

import (
	"sync"

	"github.com/algorand/go-deadlock"
)

// Fifo is a fixed-capacity FIFO queue of opaque items. Put blocks while the
// queue is full; Get blocks while it is empty. Close wakes every blocked
// caller; subsequent Put calls return ok=false, and Get returns ok=false
// once the items already queued are drained.
type Fifo struct {
	mu       deadlock.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items  []interface{}
	head   int
	used   int
	closed bool
}

// NewFifo creates a Fifo with room for capacity items, rounded up to the next
// power of two. A capacity below 1 is treated as 1.
func NewFifo(capacity int) *Fifo {
	if capacity < 1 {
		capacity = 1
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	f := &Fifo{items: make([]interface{}, size)}
	f.notFull = sync.NewCond(&f.mu)
	f.notEmpty = sync.NewCond(&f.mu)
	return f
}

// Put appends an item, blocking while the queue is full. ok is false if the
// queue was closed before the item could be enqueued.
func (f *Fifo) Put(item interface{}) (ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.used == len(f.items) && !f.closed {
		f.notFull.Wait()
	}
	if f.closed {
		return false
	}

	tail := (f.head + f.used) % len(f.items)
	f.items[tail] = item
	f.used++

	f.notEmpty.Signal()
	return true
}

// Get removes and returns the oldest item, blocking while the queue is
// empty. ok is false if the queue is closed and drained.
func (f *Fifo) Get() (item interface{}, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for f.used == 0 && !f.closed {
		f.notEmpty.Wait()
	}
	if f.used == 0 {
		return nil, false
	}

	item = f.items[f.head]
	f.items[f.head] = nil
	f.head = (f.head + 1) % len(f.items)
	f.used--

	f.notFull.Signal()
	return item, true
}

// Len reports the number of items currently queued.
func (f *Fifo) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used
}

// Close marks the FIFO closed and wakes every blocked Put/Get caller. Items
// already queued remain available to Get until drained.
func (f *Fifo) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.notFull.Broadcast()
	f.notEmpty.Broadcast()
}

// Closed reports whether Close has been called.
func (f *Fifo) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
