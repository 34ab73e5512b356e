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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageStoreAppendAndRead(t *testing.T) {
	t.Parallel()

	ps, err := NewPageStore(t.TempDir(), "galera.cache", 4096)
	require.NoError(t, err)

	loc, err := ps.Append(1, []byte("hello"))
	require.NoError(t, err)

	got, err := ps.Read(loc)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), got)
}

func TestPageStoreRollsOverWhenFull(t *testing.T) {
	t.Parallel()

	ps, err := NewPageStore(t.TempDir(), "galera.cache", recordHeaderSize+8)
	require.NoError(t, err)

	loc1, err := ps.Append(1, []byte("aaaaaaaa"))
	require.NoError(t, err)
	loc2, err := ps.Append(2, []byte("bbbbbbbb"))
	require.NoError(t, err)

	require.Equal(t, 0, loc1.Ordinal)
	require.Equal(t, 1, loc2.Ordinal)
	require.Equal(t, 2, ps.PageCount())
}

func TestPageStoreRejectsOversizedRecord(t *testing.T) {
	t.Parallel()

	ps, err := NewPageStore(t.TempDir(), "galera.cache", recordHeaderSize+4)
	require.NoError(t, err)

	_, err = ps.Append(1, []byte("too big for a page"))
	require.Error(t, err)
}

func TestPageStoreRecoverRebuildsLocations(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ps, err := NewPageStore(dir, "galera.cache", 4096)
	require.NoError(t, err)

	for seqno := int64(1); seqno <= 5; seqno++ {
		_, err := ps.Append(seqno, []byte{byte(seqno)})
		require.NoError(t, err)
	}
	require.NoError(t, ps.Close())

	reopened, err := NewPageStore(dir, "galera.cache", 4096)
	require.NoError(t, err)

	locations, err := reopened.Recover()
	require.NoError(t, err)
	require.Len(t, locations, 5)

	loc, ok := locations[3]
	require.True(t, ok)
	got, err := reopened.Read(loc)
	require.NoError(t, err)
	require.Equal(t, []byte{3}, got)
}

func TestPageStoreReclaimBelowKeepsCurrentPage(t *testing.T) {
	t.Parallel()

	ps, err := NewPageStore(t.TempDir(), "galera.cache", recordHeaderSize+8)
	require.NoError(t, err)

	_, err = ps.Append(1, []byte("aaaaaaaa"))
	require.NoError(t, err)
	_, err = ps.Append(2, []byte("bbbbbbbb"))
	require.NoError(t, err)
	require.Equal(t, 2, ps.PageCount())

	require.NoError(t, ps.ReclaimBelow(2))
	require.Equal(t, 1, ps.PageCount())
}
