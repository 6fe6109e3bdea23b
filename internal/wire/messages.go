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

package wire

import (
	"fmt"

	"github.com/allkorrect/allkorrect/internal/codec"
)

// Restriction selects the syscall/open-path allow-list tier an EXEC request
// runs under.
type Restriction int32

const (
	STRICT Restriction = iota
	LOOSE
)

// ResultType mirrors Execute::ResultType exactly, UNKNOWN included, so the
// wire encoding of a verdict is a direct int32 cast.
type ResultType int32

const (
	UNKNOWN ResultType = iota - 1
	SUCCESS
	FAILURE
	CRASHED
	TLE
	MLE
	OLE
	VIOLATION
	MATH_ERROR
	MEM_VIOLATION
)

func (r ResultType) String() string {
	switch r {
	case UNKNOWN:
		return "UNKNOWN"
	case SUCCESS:
		return "SUCCESS"
	case FAILURE:
		return "FAILURE"
	case CRASHED:
		return "CRASHED"
	case TLE:
		return "TLE"
	case MLE:
		return "MLE"
	case OLE:
		return "OLE"
	case VIOLATION:
		return "VIOLATION"
	case MATH_ERROR:
		return "MATH_ERROR"
	case MEM_VIOLATION:
		return "MEM_VIOLATION"
	default:
		return fmt.Sprintf("ResultType(%d)", r)
	}
}

// MsgExec is the decoded body of an EXEC frame.
type MsgExec struct {
	Cmd         string
	Args        []string
	MemoryLimit int64 // bytes, -1 means unlimited
	OutputLimit int64 // bytes, -1 means unlimited
	TimeLimit   int32 // milliseconds, -1 means unlimited
	Restriction Restriction
	Input       string // blob name, empty means no stdin redirection
}

func DecodeMsgExec(body []byte) (MsgExec, error) {
	r := codec.NewReader(body)
	var m MsgExec
	var err error
	if m.Cmd, err = r.ReadString(); err != nil {
		return m, err
	}
	argc, err := r.ReadInt32()
	if err != nil {
		return m, err
	}
	m.Args = make([]string, 0, argc)
	for i := int32(0); i < argc; i++ {
		s, err := r.ReadString()
		if err != nil {
			return m, err
		}
		m.Args = append(m.Args, s)
	}
	if m.MemoryLimit, err = r.ReadInt64(); err != nil {
		return m, err
	}
	if m.OutputLimit, err = r.ReadInt64(); err != nil {
		return m, err
	}
	tl, err := r.ReadInt32()
	if err != nil {
		return m, err
	}
	m.TimeLimit = tl
	restriction, err := r.ReadInt32()
	if err != nil {
		return m, err
	}
	m.Restriction = Restriction(restriction)
	if m.Input, err = r.ReadString(); err != nil {
		return m, err
	}
	return m, nil
}

// MsgExecReply is the encoded body of an EXEC_REPLY frame.
type MsgExecReply struct {
	ExitStatus int32
	Type       ResultType
	Output     string // blob name holding stdout
	Error      string // blob name holding stderr
	Memory     int64  // bytes
	Time       int32  // milliseconds
}

func EncodeMsgExecReply(m MsgExecReply) Frame {
	w := codec.NewWriter()
	w.WriteInt32(m.ExitStatus)
	w.WriteInt32(int32(m.Type))
	w.WriteString(m.Output)
	w.WriteString(m.Error)
	w.WriteInt64(m.Memory)
	w.WriteInt32(m.Time)
	return Frame{Type: EXEC_REPLY, Body: w.Bytes()}
}

// MsgPutBlob is the decoded body of a PUT_BLOB frame: a varint-prefixed
// name, an int32 len, then exactly len raw bytes, which DecodeMsgPutBlob
// returns as Buf.
type MsgPutBlob struct {
	Name string
	Buf  []byte
}

func DecodeMsgPutBlob(body []byte) (MsgPutBlob, error) {
	r := codec.NewReader(body)
	var m MsgPutBlob
	var err error
	if m.Name, err = r.ReadString(); err != nil {
		return m, err
	}
	length, err := r.ReadInt32()
	if err != nil {
		return m, err
	}
	m.Buf, err = r.ReadBytes(int(length))
	return m, err
}

// DecodeName reads a single varint-prefixed string body, the shared shape of
// GET_BLOB, HAS_BLOB and HAS_FILE request bodies.
func DecodeName(body []byte) (string, error) {
	return codec.NewReader(body).ReadString()
}

// MsgCopyMove is the decoded body shared by all 8 MOVE_*/COPY_* frames.
type MsgCopyMove struct {
	OldName string
	NewName string
}

func DecodeMsgCopyMove(body []byte) (MsgCopyMove, error) {
	r := codec.NewReader(body)
	var m MsgCopyMove
	var err error
	if m.OldName, err = r.ReadString(); err != nil {
		return m, err
	}
	m.NewName, err = r.ReadString()
	return m, err
}

// EncodeBoolReply encodes the single-int32 boolean body HAS_BLOB_REPLY and
// HAS_FILE_REPLY carry.
func EncodeBoolReply(typ Type, v bool) Frame {
	w := codec.NewWriter()
	if v {
		w.WriteInt32(1)
	} else {
		w.WriteInt32(0)
	}
	return Frame{Type: typ, Body: w.Bytes()}
}

// OKReply is the empty-body acknowledgement PUT_BLOB and every MOVE_*/COPY_*
// operation replies with on success.
func OKReply() Frame {
	return Frame{Type: OK, Body: nil}
}

// GetBlobReply wraps raw blob content with no additional framing: the frame
// body itself IS the blob content.
func GetBlobReply(content []byte) Frame {
	return Frame{Type: GET_BLOB_REPLY, Body: content}
}
