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

package gmcast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhonebookExtendDeduplicates(t *testing.T) {
	t.Parallel()

	p := NewPhonebook([]string{"a:1", "b:2"})
	p.ExtendPeerList([]string{"b:2", "c:3"})
	require.Equal(t, 3, p.Length())
}

func TestPhonebookGetAddressesBounded(t *testing.T) {
	t.Parallel()

	p := NewPhonebook([]string{"a:1", "b:2", "c:3"})
	got := p.GetAddresses(2)
	require.Len(t, got, 2)
}

func TestPhonebookRemove(t *testing.T) {
	t.Parallel()

	p := NewPhonebook([]string{"a:1", "b:2"})
	p.Remove("a:1")
	require.Equal(t, 1, p.Length())
	require.Equal(t, []string{"b:2"}, p.GetAddresses(10))
}

func TestPhonebookReplacePeerList(t *testing.T) {
	t.Parallel()

	p := NewPhonebook([]string{"a:1"})
	p.ReplacePeerList([]string{"x:9", "y:8"})
	require.Equal(t, 2, p.Length())
}
