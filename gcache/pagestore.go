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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/algorand/go-deadlock"

	"github.com/coredb/replicator/logging"
)

// recordHeaderSize is the on-disk size of a page record header: an 8-byte
// big-endian seqno followed by a 4-byte big-endian payload length.
const recordHeaderSize = 8 + 4

// PageLocation pins a buffer to an offset within a specific page file.
type PageLocation struct {
	Ordinal int
	Offset  int64
	Length  uint32
}

// page is a single file-backed page: append-only until it hits pageSize,
// after which the store rolls over to a new ordinal.
type page struct {
	ordinal int
	path    string
	file    *os.File
	size    int64
	minSeq  int64
	maxSeq  int64
}

// PageStore is a ring of file-backed pages under dir, named "<name>.<ordinal>".
// Allocation always appends to the current (highest-ordinal) page, creating a
// new one lazily when the current page cannot fit the next record. Pages are
// reclaimed — their backing file removed — once every buffer they hold has
// fallen below the store's reclaim watermark.
type PageStore struct {
	mu deadlock.Mutex

	dir      string
	name     string
	pageSize int64

	pages      []*page
	nextOrdinal int
}

// NewPageStore opens (creating if necessary) a page ring at dir/name.*.
func NewPageStore(dir, name string, pageSize int64) (*PageStore, error) {
	if pageSize <= int64(recordHeaderSize) {
		return nil, fmt.Errorf("gcache: page size %d too small for a header", pageSize)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("gcache: creating page dir %s: %w", dir, err)
	}
	return &PageStore{dir: dir, name: name, pageSize: pageSize}, nil
}

func (ps *PageStore) pagePath(ordinal int) string {
	return filepath.Join(ps.dir, fmt.Sprintf("%s.%d", ps.name, ordinal))
}

// Recover scans every page file matching this store's name under dir,
// rebuilding the seqno→location map by reading record headers end to end
// (the authoritative recovery path from spec §6). Every page is scanned; no
// manifest is consulted here.
func (ps *PageStore) Recover() (map[int64]PageLocation, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	entries, err := os.ReadDir(ps.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[int64]PageLocation{}, nil
		}
		return nil, fmt.Errorf("gcache: reading page dir %s: %w", ps.dir, err)
	}

	prefix := ps.name + "."
	var ordinals []int
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(e.Name(), prefix))
		if err != nil {
			continue
		}
		ordinals = append(ordinals, n)
	}
	sort.Ints(ordinals)

	locations := make(map[int64]PageLocation)
	ps.pages = ps.pages[:0]

	for _, ordinal := range ordinals {
		p, pageLocations, err := ps.scanPage(ordinal)
		if err != nil {
			logging.Base().Warnf("gcache: page %d truncated or corrupt at tail, recovered %d records: %v",
				ordinal, len(pageLocations), err)
		}
		ps.pages = append(ps.pages, p)
		if ordinal >= ps.nextOrdinal {
			ps.nextOrdinal = ordinal + 1
		}
		for seqno, loc := range pageLocations {
			locations[seqno] = loc
		}
	}

	return locations, nil
}

// scanPage opens ordinal for append and replays its records from the start,
// returning every record it could parse before hitting EOF or corruption.
// A short/corrupt trailing record is not an error for the caller: it simply
// stops the scan there, matching "at most one gap segment during recovery".
func (ps *PageStore) scanPage(ordinal int) (*page, map[int64]PageLocation, error) {
	path := ps.pagePath(ordinal)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("gcache: opening page %s: %w", path, err)
	}

	p := &page{ordinal: ordinal, path: path, file: f, minSeq: SeqnoNone, maxSeq: SeqnoNone}
	locations := make(map[int64]PageLocation)

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("gcache: stat page %s: %w", path, err)
	}

	var offset int64
	var scanErr error
	header := make([]byte, recordHeaderSize)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if err != io.EOF {
				scanErr = fmt.Errorf("short record header at offset %d: %w", offset, err)
			}
			break
		}
		seqno := int64(binary.BigEndian.Uint64(header[0:8]))
		length := binary.BigEndian.Uint32(header[8:12])

		payloadOffset := offset + recordHeaderSize
		if payloadOffset+int64(length) > info.Size() {
			scanErr = fmt.Errorf("short record payload at offset %d", payloadOffset)
			break
		}
		if _, err := f.Seek(int64(length), io.SeekCurrent); err != nil {
			scanErr = fmt.Errorf("seeking past payload at offset %d: %w", payloadOffset, err)
			break
		}

		locations[seqno] = PageLocation{Ordinal: ordinal, Offset: payloadOffset, Length: length}
		if p.minSeq == SeqnoNone || seqno < p.minSeq {
			p.minSeq = seqno
		}
		if seqno > p.maxSeq {
			p.maxSeq = seqno
		}
		offset = payloadOffset + int64(length)
	}

	p.size = offset
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return p, locations, fmt.Errorf("seeking to append point: %w", err)
	}
	return p, locations, scanErr
}

func (ps *PageStore) currentPage() (*page, error) {
	if len(ps.pages) > 0 {
		last := ps.pages[len(ps.pages)-1]
		if last.size+recordHeaderSize <= ps.pageSize {
			return last, nil
		}
	}
	return ps.rollPage()
}

func (ps *PageStore) rollPage() (*page, error) {
	ordinal := ps.nextOrdinal
	ps.nextOrdinal++
	path := ps.pagePath(ordinal)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("gcache: creating page %s: %w", path, err)
	}
	p := &page{ordinal: ordinal, path: path, file: f, minSeq: SeqnoNone, maxSeq: SeqnoNone}
	ps.pages = append(ps.pages, p)
	return p, nil
}

// Append writes data under seqno to the current page, rolling to a new page
// if the record would not fit. It returns the location the record landed at.
func (ps *PageStore) Append(seqno int64, data []byte) (PageLocation, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if int64(recordHeaderSize+len(data)) > ps.pageSize {
		return PageLocation{}, fmt.Errorf("gcache: record of %d bytes exceeds page size %d", len(data), ps.pageSize)
	}

	p, err := ps.currentPage()
	if err != nil {
		return PageLocation{}, err
	}
	if p.size+int64(recordHeaderSize+len(data)) > ps.pageSize {
		p, err = ps.rollPage()
		if err != nil {
			return PageLocation{}, err
		}
	}

	header := make([]byte, recordHeaderSize)
	binary.BigEndian.PutUint64(header[0:8], uint64(seqno))
	binary.BigEndian.PutUint32(header[8:12], uint32(len(data)))

	if _, err := p.file.Write(header); err != nil {
		return PageLocation{}, fmt.Errorf("gcache: writing record header: %w", err)
	}
	payloadOffset := p.size + recordHeaderSize
	if _, err := p.file.Write(data); err != nil {
		return PageLocation{}, fmt.Errorf("gcache: writing record payload: %w", err)
	}

	p.size = payloadOffset + int64(len(data))
	if p.minSeq == SeqnoNone || seqno < p.minSeq {
		p.minSeq = seqno
	}
	if seqno > p.maxSeq {
		p.maxSeq = seqno
	}

	return PageLocation{Ordinal: p.ordinal, Offset: payloadOffset, Length: uint32(len(data))}, nil
}

// Read returns the payload bytes at loc.
func (ps *PageStore) Read(loc PageLocation) ([]byte, error) {
	ps.mu.Lock()
	p := ps.findPage(loc.Ordinal)
	ps.mu.Unlock()

	if p == nil {
		return nil, fmt.Errorf("gcache: page %d not resident", loc.Ordinal)
	}

	buf := make([]byte, loc.Length)
	if _, err := p.file.ReadAt(buf, loc.Offset); err != nil {
		return nil, fmt.Errorf("gcache: reading page %d at %d: %w", loc.Ordinal, loc.Offset, err)
	}
	return buf, nil
}

func (ps *PageStore) findPage(ordinal int) *page {
	for _, p := range ps.pages {
		if p.ordinal == ordinal {
			return p
		}
	}
	return nil
}

// ReclaimBelow deletes every page whose highest seqno is strictly below
// watermark, except the current (last) page, which is never reclaimed while
// it is still accepting appends.
func (ps *PageStore) ReclaimBelow(watermark int64) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	kept := ps.pages[:0:0]
	for i, p := range ps.pages {
		last := i == len(ps.pages)-1
		if !last && p.maxSeq < watermark {
			if err := p.file.Close(); err != nil {
				logging.Base().Warnf("gcache: closing reclaimed page %d: %v", p.ordinal, err)
			}
			if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("gcache: removing page %s: %w", p.path, err)
			}
			continue
		}
		kept = append(kept, p)
	}
	ps.pages = kept
	return nil
}

// PageCount reports how many pages are currently resident.
func (ps *PageStore) PageCount() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.pages)
}

// Close closes every open page file. Page files are left on disk for the
// next Recover; Cache.Close goes through here and does not remove them.
func (ps *PageStore) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var firstErr error
	for _, p := range ps.pages {
		if err := p.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RemoveAll closes and deletes every page file; Cache.Reset calls it.
func (ps *PageStore) RemoveAll() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var firstErr error
	for _, p := range ps.pages {
		if err := p.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	ps.pages = nil
	return firstErr
}
