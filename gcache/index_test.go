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

func TestIndexLowHigh(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	_, ok := idx.Low()
	require.False(t, ok)
	_, ok = idx.High()
	require.False(t, ok)

	for seqno := int64(1); seqno <= 5; seqno++ {
		idx.Add(&Buffer{Seqno: seqno})
	}
	require.Equal(t, 5, idx.Len())

	low, ok := idx.Low()
	require.True(t, ok)
	require.Equal(t, int64(1), low.Seqno)

	high, ok := idx.High()
	require.True(t, ok)
	require.Equal(t, int64(5), high.Seqno)
}

func TestIndexGetAndRemove(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	for seqno := int64(1); seqno <= 3; seqno++ {
		idx.Add(&Buffer{Seqno: seqno})
	}

	buf, ok := idx.Get(2)
	require.True(t, ok)
	require.Equal(t, int64(2), buf.Seqno)

	idx.Remove(2)
	require.Equal(t, 2, idx.Len())
	_, ok = idx.Get(2)
	require.False(t, ok)

	low, ok := idx.Low()
	require.True(t, ok)
	require.Equal(t, int64(1), low.Seqno)

	high, ok := idx.High()
	require.True(t, ok)
	require.Equal(t, int64(3), high.Seqno)
}

func TestIndexRemoveHighClearsHighUntilNextAdd(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add(&Buffer{Seqno: 1})
	idx.Add(&Buffer{Seqno: 2})

	idx.Remove(2)
	_, ok := idx.High()
	require.False(t, ok)

	idx.Add(&Buffer{Seqno: 3})
	high, ok := idx.High()
	require.True(t, ok)
	require.Equal(t, int64(3), high.Seqno)
}

func TestIndexIgnoresSeqnoNone(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add(&Buffer{Seqno: SeqnoNone})
	require.Equal(t, 0, idx.Len())
}

func TestIndexTouchDoesNotChangeLowHigh(t *testing.T) {
	t.Parallel()

	idx := NewIndex()
	idx.Add(&Buffer{Seqno: 1})
	idx.Add(&Buffer{Seqno: 2})
	idx.Add(&Buffer{Seqno: 3})

	idx.Touch(1)

	low, ok := idx.Low()
	require.True(t, ok)
	require.Equal(t, int64(1), low.Seqno)

	high, ok := idx.High()
	require.True(t, ok)
	require.Equal(t, int64(3), high.Seqno)
}
