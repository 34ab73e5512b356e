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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestFlowControlPausesAtHighWatermark(t *testing.T) {
	t.Parallel()

	f := NewFlowControl(uuid.New(), 10, 100, time.Minute)

	changed, state := f.EvaluateLocal(50)
	require.False(t, changed)
	require.Equal(t, FlowRunning, state)

	changed, state = f.EvaluateLocal(100)
	require.True(t, changed)
	require.Equal(t, FlowPaused, state)
	require.Equal(t, FlowPaused, f.State())
}

func TestFlowControlResumesAtLowWatermark(t *testing.T) {
	t.Parallel()

	f := NewFlowControl(uuid.New(), 10, 100, time.Minute)
	f.EvaluateLocal(100)
	require.Equal(t, FlowPaused, f.State())

	changed, state := f.EvaluateLocal(50)
	require.False(t, changed)
	require.Equal(t, FlowPaused, state)

	changed, state = f.EvaluateLocal(10)
	require.True(t, changed)
	require.Equal(t, FlowRunning, state)
}

func TestFlowControlClusterBacklogExcludesStaleSamples(t *testing.T) {
	t.Parallel()

	f := NewFlowControl(uuid.New(), 10, 100, 50*time.Millisecond)
	peer := uuid.New()
	f.ReportPeerBacklog(peer, 40)

	require.Equal(t, int64(45), f.ClusterBacklog(5))

	time.Sleep(75 * time.Millisecond)
	require.Equal(t, int64(5), f.ClusterBacklog(5))

	_, ok := f.PeerBacklog(peer)
	require.False(t, ok)
}
