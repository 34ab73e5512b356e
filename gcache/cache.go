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
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/algorand/go-deadlock"

	"github.com/coredb/replicator/logging"
	"github.com/coredb/replicator/util/kvstore"
)

// Cache is the L3 write-set cache: MemStore is tried first for every Put,
// falling back to PageStore on no-space or oversize, with a single Index
// tracking every resident seqno regardless of which store holds it.
//
// manifest, when non-nil, is a page-ordinal→seqno-bounds accelerant for
// recovery; it is never authoritative. A missing or stale manifest only
// costs recovery time, since Recover always re-derives truth from the page
// header scan.
type Cache struct {
	mu deadlock.Mutex

	mem       *MemStore
	pages     *PageStore
	index     *Index
	manifest  kvstore.KVStore
	locations map[int64]PageLocation
}

// NewCache constructs a Cache bounded at memMax resident bytes, spilling to
// file-backed pages of pageSize bytes under dir/name.*. manifest may be nil.
func NewCache(memMax int64, dir, name string, pageSize int64, manifest kvstore.KVStore) (*Cache, error) {
	pages, err := NewPageStore(dir, name, pageSize)
	if err != nil {
		return nil, err
	}
	return &Cache{
		mem:       NewMemStore(memMax),
		pages:     pages,
		index:     NewIndex(),
		manifest:  manifest,
		locations: make(map[int64]PageLocation),
	}, nil
}

// Recover rebuilds the seqno index from whatever is already on disk. The
// page header scan (PageStore.Recover) is authoritative; the manifest, if
// present, is consulted only to log a discrepancy, never to skip the scan.
func (c *Cache) Recover() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	locations, err := c.pages.Recover()
	if err != nil {
		return fmt.Errorf("gcache: recovering page ring: %w", err)
	}
	seqnos := make([]int64, 0, len(locations))
	for seqno, loc := range locations {
		c.locations[seqno] = loc
		seqnos = append(seqnos, seqno)
	}
	// Index relies on buffers arriving in increasing seqno order.
	sort.Slice(seqnos, func(i, j int) bool { return seqnos[i] < seqnos[j] })
	for _, seqno := range seqnos {
		c.index.Add(&Buffer{Seqno: seqno})
	}

	if c.manifest != nil {
		if manifestCount := c.manifestEntryCount(); manifestCount != len(locations) {
			logging.Base().Infof("gcache: manifest listed %d page entries, header scan found %d; scan wins",
				manifestCount, len(locations))
		}
	}
	return nil
}

func (c *Cache) manifestEntryCount() int {
	it := c.manifest.NewIterator(nil, nil)
	defer it.Close()
	n := 0
	for ; it.Valid(); it.Next() {
		n++
	}
	return n
}

// manifestKey encodes a page ordinal as the pebble key for its bounds entry.
func manifestKey(ordinal int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(ordinal))
	return key
}

// recordManifest persists that ordinal's page now holds seqno, best-effort;
// a manifest write failure never fails the Put, since the manifest is only
// a recovery accelerant.
func (c *Cache) recordManifest(loc PageLocation, seqno int64) {
	if c.manifest == nil {
		return
	}
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, uint64(seqno))
	if err := c.manifest.Set(manifestKey(loc.Ordinal), value); err != nil {
		logging.Base().Warnf("gcache: manifest write for page %d failed (non-fatal): %v", loc.Ordinal, err)
	}
}

// Put stores data under seqno, preferring MemStore and falling back to the
// page ring on no-space or oversize, per spec's MemStore-first allocation
// policy.
func (c *Cache) Put(seqno int64, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if buf, ok := c.mem.Malloc(len(data)); ok {
		copy(buf.Data, data)
		buf.Seqno = seqno
		c.index.Add(buf)
		return nil
	}

	loc, err := c.pages.Append(seqno, data)
	if err != nil {
		return fmt.Errorf("gcache: spilling seqno %d to page store: %w", seqno, err)
	}
	c.locations[seqno] = loc
	c.index.Add(&Buffer{Seqno: seqno})
	c.recordManifest(loc, seqno)
	return nil
}

// Get returns the write-set payload stored at seqno.
func (c *Cache) Get(seqno int64) ([]byte, bool, error) {
	c.mu.Lock()
	buf, resident := c.index.Get(seqno)
	if !resident {
		c.mu.Unlock()
		return nil, false, nil
	}
	loc, spilled := c.locations[seqno]
	c.mu.Unlock()

	if spilled {
		data, err := c.pages.Read(loc)
		if err != nil {
			return nil, true, fmt.Errorf("gcache: reading seqno %d from page store: %w", seqno, err)
		}
		return data, true, nil
	}
	return buf.Data, true, nil
}

// Discard drops seqno from the cache entirely: from MemStore if resident
// there, or from the index bookkeeping for a page-ring buffer (the page
// file itself is only reclaimed once every seqno it holds is discarded,
// via ReclaimBelow).
func (c *Cache) Discard(seqno int64, buf *Buffer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if buf != nil {
		c.mem.Discard(buf)
	}
	delete(c.locations, seqno)
	c.index.Remove(seqno)
}

// Release discards seqno from whichever store holds it, looking up the
// resident MemStore buffer (if any) itself so callers — the replicator's
// commit() call, principally — don't need to track Buffer pointers
// themselves.
func (c *Cache) Release(seqno int64) {
	c.mu.Lock()
	buf, resident := c.index.Get(seqno)
	_, spilled := c.locations[seqno]
	c.mu.Unlock()
	if !resident {
		return
	}

	if spilled {
		c.Discard(seqno, nil)
		return
	}
	c.Discard(seqno, buf)
}

// SeqnoLock records seqno as the MemStore's locked floor. Neither Discard,
// Release nor ReclaimBelow consults it, so it does not keep any seqno
// resident.
func (c *Cache) SeqnoLock(seqno int64) {
	c.mem.SeqnoLock(seqno)
}

// SeqnoUnlock releases a previously set SeqnoLock floor.
func (c *Cache) SeqnoUnlock() {
	c.mem.SeqnoUnlock()
}

// ReclaimBelow removes every page-ring seqno strictly below watermark from
// the index and deletes any page file that no longer holds a live seqno.
func (c *Cache) ReclaimBelow(watermark int64) error {
	c.mu.Lock()
	for seqno := range c.locations {
		if seqno < watermark {
			delete(c.locations, seqno)
			c.index.Remove(seqno)
		}
	}
	c.mu.Unlock()

	return c.pages.ReclaimBelow(watermark)
}

// Low returns the lowest resident seqno.
func (c *Cache) Low() (int64, bool) {
	buf, ok := c.index.Low()
	if !ok {
		return 0, false
	}
	return buf.Seqno, true
}

// High returns the highest resident seqno, when known.
func (c *Cache) High() (int64, bool) {
	buf, ok := c.index.High()
	if !ok {
		return 0, false
	}
	return buf.Seqno, true
}

// Len reports how many seqnos are currently resident across both stores.
func (c *Cache) Len() int {
	return c.index.Len()
}

// Close closes the page ring without deleting its files, leaving them for
// the next Recover.
func (c *Cache) Close() error {
	return c.pages.Close()
}

// Reset discards every resident buffer and removes all page files; used
// before a full SST when the node abandons its cache entirely.
func (c *Cache) Reset() error {
	c.mu.Lock()
	c.mem.Reset()
	c.locations = make(map[int64]PageLocation)
	c.mu.Unlock()

	c.index = NewIndex()
	return c.pages.RemoveAll()
}
