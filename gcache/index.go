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

package gcache

import (
	"github.com/algorand/go-deadlock"

	"github.com/coredb/replicator/util"
)

// Index tracks every certified Buffer resident in the cache, ordered by
// global seqno. Buffers are added in increasing seqno order, so the list's
// front holds the highest seqno and its back holds the lowest; a map gives
// O(1) amortized lookup of a node by seqno.
type Index struct {
	mu deadlock.Mutex

	list  *util.List[*Buffer]
	nodes map[int64]*util.ListNode[*Buffer]
	head  *util.ListNode[*Buffer]
}

// NewIndex creates an empty seqno index.
func NewIndex() *Index {
	return &Index{
		list:  util.NewList[*Buffer](),
		nodes: make(map[int64]*util.ListNode[*Buffer]),
	}
}

// Add registers buf under its seqno. buf must already carry a real seqno
// (not SeqnoNone) and must not already be present.
func (idx *Index) Add(buf *Buffer) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if buf.Seqno == SeqnoNone {
		return
	}
	if _, exists := idx.nodes[buf.Seqno]; exists {
		return
	}

	node := idx.list.PushFront(buf)
	idx.nodes[buf.Seqno] = node
	idx.head = node
}

// Remove drops the buffer at seqno from the index, if present.
func (idx *Index) Remove(seqno int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	node, ok := idx.nodes[seqno]
	if !ok {
		return
	}
	if node == idx.head {
		// the highest seqno was just removed; High() is unknown until the
		// next Add since the list exposes no forward traversal from here.
		idx.head = nil
	}
	idx.list.Remove(node)
	delete(idx.nodes, seqno)
}

// Get returns the buffer registered at seqno, if any.
func (idx *Index) Get(seqno int64) (*Buffer, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	node, ok := idx.nodes[seqno]
	if !ok {
		return nil, false
	}
	return node.Value, true
}

// Low returns the buffer with the lowest resident seqno.
func (idx *Index) Low() (*Buffer, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	node := idx.list.Back()
	if node == nil {
		return nil, false
	}
	return node.Value, true
}

// High returns the buffer with the highest resident seqno, when known. It
// returns false if the previous high was removed out of order and no later
// seqno has been added since.
func (idx *Index) High() (*Buffer, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.head == nil {
		return nil, false
	}
	return idx.head.Value, true
}

// Len reports the number of buffers currently indexed.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return len(idx.nodes)
}

// Touch moves the buffer at seqno to the front of the list, e.g. on a cache
// hit from a re-requesting donor. It has no effect on Low/High.
func (idx *Index) Touch(seqno int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	node, ok := idx.nodes[seqno]
	if !ok {
		return
	}
	idx.list.MoveToFront(node)
}
