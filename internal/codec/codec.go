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

// Package codec implements the fixed-width little-endian integer and
// 7-bit-varint-length-prefixed string encoding the wire protocol's message
// bodies use, a direct translation of the original's BinaryStream.
package codec

import (
	"encoding/binary"
	"fmt"
)

// Writer accumulates an encoded message body.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) WriteInt8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) WriteInt32(v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	w.buf = append(w.buf, b[:]...)
}

// WriteString writes a 7-bit varint length prefix (continuation bit 0x80,
// least-significant group first) followed by the raw bytes.
func (w *Writer) WriteString(s string) {
	n := len(s)
	for n > 127 {
		w.buf = append(w.buf, byte(0x80|(n&0x7F)))
		n >>= 7
	}
	w.buf = append(w.buf, byte(n))
	w.buf = append(w.buf, s...)
}

// WriteBytes writes raw bytes with no length prefix at all: used for blob
// payloads, whose length is carried by a preceding WriteInt32.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Reader consumes an encoded message body in the same order it was written.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining returns the bytes not yet consumed.
func (r *Reader) Remaining() []byte {
	return r.buf[r.pos:]
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("codec: short read: want %d bytes, have %d", n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadInt8() (int8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// ReadString reads a 7-bit varint length prefix followed by the raw bytes.
func (r *Reader) ReadString() (string, error) {
	var length, shift uint
	for {
		lenByte, err := r.take(1)
		if err != nil {
			return "", err
		}
		b := lenByte[0]
		length |= uint(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	raw, err := r.take(int(length))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ReadBytes reads exactly n raw bytes with no length prefix.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}
