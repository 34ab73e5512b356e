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

package pc

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/coredb/replicator/groupcomm"
)

func members(n int) []groupcomm.Member {
	out := make([]groupcomm.Member, n)
	for i := range out {
		out[i] = groupcomm.Member{UUID: uuid.New()}
	}
	return out
}

func TestBootstrapViewIsPrimary(t *testing.T) {
	t.Parallel()

	p := New(true)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 1, Members: members(3), Bootstrap: true}})

	ev := <-p.Up()
	require.True(t, ev.IsView())
	require.True(t, ev.View.Primary)
	require.True(t, p.IsPrimary())
}

func TestNonBootstrapFirstViewIsNonPrimary(t *testing.T) {
	t.Parallel()

	p := New(false)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 1, Members: members(3)}})

	ev := <-p.Up()
	require.False(t, ev.View.Primary)
	require.False(t, p.IsPrimary())
}

func TestViewWithMajorityOfPreviousPrimaryStaysPrimary(t *testing.T) {
	t.Parallel()

	p := New(true)
	all := members(3)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 1, Members: all, Bootstrap: true}})
	<-p.Up()

	majority := append([]groupcomm.Member(nil), all[:2]...)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 2, Members: majority}})
	ev := <-p.Up()
	require.True(t, ev.View.Primary)
}

func TestViewWithoutMajorityOfPreviousPrimaryIsNonPrimary(t *testing.T) {
	t.Parallel()

	p := New(true)
	all := members(3)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 1, Members: all, Bootstrap: true}})
	<-p.Up()

	minority := append([]groupcomm.Member(nil), all[:1]...)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 2, Members: minority}})
	ev := <-p.Up()
	require.False(t, ev.View.Primary)
}

func TestPayloadsDroppedWhileNonPrimary(t *testing.T) {
	t.Parallel()

	p := New(false)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 1, Members: members(3)}})
	<-p.Up()

	p.HandleUp(groupcomm.UpEvent{Payload: []byte("data")})

	select {
	case ev := <-p.Up():
		t.Fatalf("expected no delivery while non-primary, got %+v", ev)
	default:
	}
}

func TestPayloadsDeliveredWhilePrimary(t *testing.T) {
	t.Parallel()

	p := New(true)
	p.HandleUp(groupcomm.UpEvent{View: &groupcomm.View{ViewSeq: 1, Members: members(3), Bootstrap: true}})
	<-p.Up()

	p.HandleUp(groupcomm.UpEvent{Payload: []byte("data")})
	ev := <-p.Up()
	require.Equal(t, "data", string(ev.Payload))
}
