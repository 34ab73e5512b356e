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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// HeaderSize is the length, in bytes, of the fixed frame header:
// version(1) + type(1) + flags(1) + reserved(1) + source_uuid(16) + seq(8) + payload_len(4).
const HeaderSize = 1 + 1 + 1 + 1 + 16 + 8 + 4

// CurrentVersion is the wire framing version this package encodes.
const CurrentVersion = 1

// MaxPayloadLen bounds a single frame's payload; larger write sets are
// rejected by the caller with a size_exceeded error before ever reaching
// the wire.
const MaxPayloadLen = 64 << 20

// Header is the fixed portion of every framed message.
type Header struct {
	Version    uint8
	Type       Tag
	Flags      uint8
	SourceUUID uuid.UUID
	Seq        uint64
	PayloadLen uint32
}

// Frame is a decoded message: its header plus the raw payload bytes, which
// callers decode further according to Header.Type.
type Frame struct {
	Header  Header
	Payload []byte
}

// Encode writes version, type, flags, a zero reserved byte, the source UUID,
// seq and payload length, followed by payload, to w.
func Encode(w io.Writer, h Header, payload []byte) error {
	if len(payload) > MaxPayloadLen {
		return fmt.Errorf("wireproto: payload length %d exceeds max %d", len(payload), MaxPayloadLen)
	}
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = h.Version
	buf[1] = byte(h.Type)
	buf[2] = h.Flags
	buf[3] = 0 // reserved
	copy(buf[4:20], h.SourceUUID[:])
	binary.BigEndian.PutUint64(buf[20:28], h.Seq)
	binary.BigEndian.PutUint32(buf[28:32], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)

	_, err := w.Write(buf)
	return err
}

// Decode reads one framed message from r.
func Decode(r io.Reader) (Frame, error) {
	hdr := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return Frame{}, err
	}

	var h Header
	h.Version = hdr[0]
	h.Type = Tag(hdr[1])
	h.Flags = hdr[2]
	copy(h.SourceUUID[:], hdr[4:20])
	h.Seq = binary.BigEndian.Uint64(hdr[20:28])
	h.PayloadLen = binary.BigEndian.Uint32(hdr[28:32])

	if h.Version != CurrentVersion {
		return Frame{}, fmt.Errorf("wireproto: unsupported frame version %d", h.Version)
	}
	if h.PayloadLen > MaxPayloadLen {
		return Frame{}, fmt.Errorf("wireproto: payload length %d exceeds max %d", h.PayloadLen, MaxPayloadLen)
	}

	payload := make([]byte, h.PayloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, err
	}

	return Frame{Header: h, Payload: payload}, nil
}
