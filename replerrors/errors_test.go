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

package replerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindAndFatal(t *testing.T) {
	t.Parallel()

	err := MakeCertificationFailedError("write set 42 conflicts with seqno 41")
	require.Equal(t, CertificationFailed, err.Kind())
	require.False(t, err.Fatal())

	fatal := MakeInternalError("seqno regressed", nil)
	require.Equal(t, Internal, fatal.Kind())
	require.True(t, fatal.Fatal())
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	t.Parallel()

	err := MakeNotPrimaryError("component lost quorum")
	require.True(t, errors.Is(err, New(NotPrimary, "")))
	require.False(t, errors.Is(err, New(NotConnected, "")))
}

func TestWrapUnwrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset by peer")
	err := MakeTransportError("write failed", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection reset by peer")
}
