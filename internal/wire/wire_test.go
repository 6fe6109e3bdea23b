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
	"bytes"
	"testing"

	"github.com/allkorrect/allkorrect/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Frame{Type: PUT_BLOB, Body: []byte("hello")}

	require.NoError(t, WriteFrame(&buf, in))
	out, err := ReadFrame(&buf)

	require.NoError(t, err)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.Body, out.Body)
}

func TestReadFrameRejectsOversizedBody(t *testing.T) {
	var header [8]byte
	header[4] = 0xFF
	header[5] = 0xFF
	header[6] = 0xFF
	header[7] = 0xFF
	_, err := ReadFrame(bytes.NewReader(header[:]))
	assert.Error(t, err)
}

func TestMsgExecRoundTrip(t *testing.T) {
	w := codec.NewWriter()
	w.WriteString("echo")
	w.WriteInt32(2)
	w.WriteString("-n")
	w.WriteString("hi")
	w.WriteInt64(256 << 20)
	w.WriteInt64(64 << 20)
	w.WriteInt32(1000)
	w.WriteInt32(int32(LOOSE))
	w.WriteString("input-blob")

	got, err := DecodeMsgExec(w.Bytes())

	require.NoError(t, err)
	assert.Equal(t, "echo", got.Cmd)
	assert.Equal(t, []string{"-n", "hi"}, got.Args)
	assert.EqualValues(t, 256<<20, got.MemoryLimit)
	assert.EqualValues(t, 64<<20, got.OutputLimit)
	assert.EqualValues(t, 1000, got.TimeLimit)
	assert.Equal(t, LOOSE, got.Restriction)
	assert.Equal(t, "input-blob", got.Input)
}

func TestMsgExecReplyEncode(t *testing.T) {
	f := EncodeMsgExecReply(MsgExecReply{
		ExitStatus: 0,
		Type:       SUCCESS,
		Output:     "out1",
		Error:      "err1",
		Memory:     1024,
		Time:       42,
	})

	assert.Equal(t, EXEC_REPLY, f.Type)

	r := codec.NewReader(f.Body)
	exitStatus, err := r.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 0, exitStatus)
	resultType, err := r.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, SUCCESS, ResultType(resultType))
}

func TestDecodeMsgPutBlob(t *testing.T) {
	w := codec.NewWriter()
	w.WriteString("myblob")
	w.WriteInt32(3)
	w.WriteBytes([]byte{1, 2, 3})

	got, err := DecodeMsgPutBlob(w.Bytes())

	require.NoError(t, err)
	assert.Equal(t, "myblob", got.Name)
	assert.Equal(t, []byte{1, 2, 3}, got.Buf)
}

func TestDecodeMsgCopyMove(t *testing.T) {
	w := codec.NewWriter()
	w.WriteString("a")
	w.WriteString("b")

	got, err := DecodeMsgCopyMove(w.Bytes())

	require.NoError(t, err)
	assert.Equal(t, MsgCopyMove{OldName: "a", NewName: "b"}, got)
}

func TestResultTypeValues(t *testing.T) {
	assert.EqualValues(t, -1, UNKNOWN)
	assert.EqualValues(t, 0, SUCCESS)
	assert.EqualValues(t, 8, MEM_VIOLATION)
}
