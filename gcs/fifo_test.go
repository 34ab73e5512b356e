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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFifoPutGetOrder(t *testing.T) {
	t.Parallel()

	f := NewFifo(4)
	for i := 0; i < 4; i++ {
		ok := f.Put(i)
		require.True(t, ok)
	}
	require.Equal(t, 4, f.Len())

	for i := 0; i < 4; i++ {
		item, ok := f.Get()
		require.True(t, ok)
		require.Equal(t, i, item)
	}
	require.Equal(t, 0, f.Len())
}

func TestFifoPutBlocksWhenFull(t *testing.T) {
	t.Parallel()

	f := NewFifo(1)
	require.True(t, f.Put("a"))

	done := make(chan bool, 1)
	go func() {
		done <- f.Put("b")
	}()

	select {
	case <-done:
		t.Fatal("Put should have blocked while full")
	case <-time.After(50 * time.Millisecond):
	}

	item, ok := f.Get()
	require.True(t, ok)
	require.Equal(t, "a", item)

	require.True(t, <-done)
}

func TestFifoCloseWakesBlockedCallers(t *testing.T) {
	t.Parallel()

	f := NewFifo(1)
	var wg sync.WaitGroup
	wg.Add(2)

	var getOk, putOk bool
	go func() {
		defer wg.Done()
		_, getOk = f.Get()
	}()
	go func() {
		defer wg.Done()
		require.True(t, f.Put("x"))
		// Capacity 1 and a single Get: at most one of "y" and "z" fits, so
		// the last Put is still blocked when Close runs.
		f.Put("y")
		putOk = f.Put("z")
	}()

	time.Sleep(20 * time.Millisecond)
	f.Close()
	wg.Wait()

	require.True(t, f.Closed())
	require.False(t, putOk)
	_ = getOk
}
