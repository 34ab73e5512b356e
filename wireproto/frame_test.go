// Copyright (C) 2019-2021 Algorand, Inc.
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

package wireproto

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	h := Header{
		Version:    CurrentVersion,
		Type:       ActionTag,
		Flags:      0x1,
		SourceUUID: uuid.New(),
		Seq:        42,
	}
	payload := []byte("certification write set payload")

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, h, payload))

	frame, err := Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, h.Version, frame.Header.Version)
	require.Equal(t, h.Type, frame.Header.Type)
	require.Equal(t, h.Flags, frame.Header.Flags)
	require.Equal(t, h.SourceUUID, frame.Header.SourceUUID)
	require.Equal(t, h.Seq, frame.Header.Seq)
	require.Equal(t, uint32(len(payload)), frame.Header.PayloadLen)
	require.Equal(t, payload, frame.Payload)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	h := Header{Version: 99, Type: ActionTag, SourceUUID: uuid.New()}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, h, nil))

	_, err := Decode(&buf)
	require.Error(t, err)
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	h := Header{Version: CurrentVersion, Type: ActionTag, SourceUUID: uuid.New()}
	oversized := make([]byte, MaxPayloadLen+1)

	var buf bytes.Buffer
	err := Encode(&buf, h, oversized)
	require.Error(t, err)
}
