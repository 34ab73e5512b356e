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

// Package gcache implements the write-set cache (L3): a bounded in-memory
// store for recently certified write sets plus a file-backed page ring for
// overflow, indexed by global seqno so both the applier and donor/SST paths
// can fetch write sets by position.
package gcache

import (
	"github.com/algorand/go-deadlock"
)

// SeqnoNone marks a Buffer that has not yet been assigned a global seqno.
const SeqnoNone int64 = -1

// Buffer is a single write-set payload tracked by the cache.
type Buffer struct {
	Data     []byte
	Seqno    int64
	released bool
}

// MemStore is a bounded pool of in-memory buffers. Buffers keep their data
// resident until Discard is called; Free only discards buffers that never
// received a seqno (aborted before certification completed).
type MemStore struct {
	mu deadlock.Mutex

	maxSize     int64
	size        int64
	allocd      map[*Buffer]struct{}
	seqnoLocked int64
}

// NewMemStore creates a MemStore bounded at maxSize bytes.
func NewMemStore(maxSize int64) *MemStore {
	return &MemStore{
		maxSize:     maxSize,
		allocd:      make(map[*Buffer]struct{}),
		seqnoLocked: -1,
	}
}

func (m *MemStore) haveFreeSpace(delta int64) bool {
	return m.size+delta <= m.maxSize
}

// Malloc allocates a new buffer of the given size, or returns ok=false if
// doing so would exceed the store's byte budget.
func (m *MemStore) Malloc(size int) (buf *Buffer, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int64(size)
	if n > m.maxSize || !m.haveFreeSpace(n) {
		return nil, false
	}

	buf = &Buffer{Data: make([]byte, size), Seqno: SeqnoNone}
	m.allocd[buf] = struct{}{}
	m.size += n
	return buf, true
}

// Realloc resizes buf in place, preserving its existing content up to
// min(old, new) length. A nil buf behaves like Malloc.
func (m *MemStore) Realloc(buf *Buffer, size int) (*Buffer, bool) {
	if buf == nil {
		return m.Malloc(size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if size == 0 {
		m.freeLocked(buf)
		return nil, true
	}

	oldSize := int64(len(buf.Data))
	diff := int64(size) - oldSize
	if int64(size) > m.maxSize || !m.haveFreeSpace(diff) {
		return nil, false
	}

	grown := make([]byte, size)
	copy(grown, buf.Data)
	buf.Data = grown
	m.size += diff
	return buf, true
}

// Free discards buf only if it was never assigned a seqno; buffers already
// committed to the seqno index must go through Discard instead.
func (m *MemStore) Free(buf *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if buf.Seqno == SeqnoNone {
		m.discardLocked(buf)
	}
}

func (m *MemStore) freeLocked(buf *Buffer) {
	if buf.Seqno == SeqnoNone {
		m.discardLocked(buf)
	}
}

// Discard removes buf from the store and returns its bytes to the budget. It
// checks neither the released flag nor the SeqnoLock floor.
func (m *MemStore) Discard(buf *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discardLocked(buf)
}

func (m *MemStore) discardLocked(buf *Buffer) {
	if _, ok := m.allocd[buf]; !ok {
		return
	}
	m.size -= int64(len(buf.Data))
	delete(m.allocd, buf)
}

// Repossess marks a previously released buffer as back in use (e.g. a donor
// re-reading a write set it had already released for local discard).
func (m *MemStore) Repossess(buf *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf.released = false
}

// Release sets buf's released flag; Discard does not depend on it.
func (m *MemStore) Release(buf *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf.released = true
}

// SeqnoLock records seqno as the locked floor. Discard does not consult it,
// so it does not by itself keep any buffer resident.
func (m *MemStore) SeqnoLock(seqno int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqnoLocked = seqno
}

// SeqnoUnlock releases the seqno floor set by SeqnoLock.
func (m *MemStore) SeqnoUnlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqnoLocked = -1
}

// SetMaxSize adjusts the store's byte budget.
func (m *MemStore) SetMaxSize(size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxSize = size
}

// Allocated reports the number of bytes currently resident.
func (m *MemStore) Allocated() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Reset frees every tracked buffer, used when the node abandons its cache
// entirely (e.g. before a full SST).
func (m *MemStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocd = make(map[*Buffer]struct{})
	m.size = 0
}
