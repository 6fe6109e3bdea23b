// Copyright 2026 The AllKorrect Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wire implements the daemon's frame channel: an 8-byte header (u32
// type, u32 size, both little-endian) followed by a body, plus the message
// type-tag table and body encode/decode, grounded on Message.cpp/.h.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/allkorrect/allkorrect/internal/apperrors"
)

// MaxBodySize bounds a single frame's body, matching Message::MAX_BODY_SIZE.
const MaxBodySize = 100 * 1024 * 1024

// Type is the dense message type tag carried in the frame header.
type Type uint32

const (
	EXIT Type = iota
	EXEC
	EXEC_REPLY
	PUT_BLOB
	OK
	GET_BLOB
	GET_BLOB_REPLY
	MOVE_BLOB2FILE
	MOVE_BLOB2BLOB
	MOVE_FILE2FILE
	MOVE_FILE2BLOB
	COPY_BLOB2FILE
	COPY_BLOB2BLOB
	COPY_FILE2FILE
	COPY_FILE2BLOB
	HAS_BLOB
	HAS_FILE
	HAS_BLOB_REPLY
	HAS_FILE_REPLY
)

func (t Type) String() string {
	names := [...]string{
		"EXIT", "EXEC", "EXEC_REPLY", "PUT_BLOB", "OK", "GET_BLOB", "GET_BLOB_REPLY",
		"MOVE_BLOB2FILE", "MOVE_BLOB2BLOB", "MOVE_FILE2FILE", "MOVE_FILE2BLOB",
		"COPY_BLOB2FILE", "COPY_BLOB2BLOB", "COPY_FILE2FILE", "COPY_FILE2BLOB",
		"HAS_BLOB", "HAS_FILE", "HAS_BLOB_REPLY", "HAS_FILE_REPLY",
	}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("Type(%d)", t)
}

// Frame is one message as it travels over the wire.
type Frame struct {
	Type Type
	Body []byte
}

// ReadFrame reads one 8-byte header plus body from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, apperrors.Wrap(apperrors.TransportFault, "read frame header", err)
	}

	typ := Type(binary.LittleEndian.Uint32(header[0:4]))
	size := binary.LittleEndian.Uint32(header[4:8])
	if size > MaxBodySize {
		return Frame{}, apperrors.New(apperrors.ProtocolError, "received message body too large")
	}

	body := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return Frame{}, apperrors.Wrap(apperrors.TransportFault, "read frame body", err)
		}
	}
	return Frame{Type: typ, Body: body}, nil
}

// WriteFrame writes f's 8-byte header followed by its body.
func WriteFrame(w io.Writer, f Frame) error {
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(f.Type))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(f.Body)))
	if _, err := w.Write(header[:]); err != nil {
		return apperrors.Wrap(apperrors.TransportFault, "write frame header", err)
	}
	if len(f.Body) > 0 {
		if _, err := w.Write(f.Body); err != nil {
			return apperrors.Wrap(apperrors.TransportFault, "write frame body", err)
		}
	}
	return nil
}
