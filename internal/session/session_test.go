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

package session

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/allkorrect/allkorrect/internal/apperrors"
	"github.com/allkorrect/allkorrect/internal/codec"
	"github.com/allkorrect/allkorrect/internal/sandbox"
	"github.com/allkorrect/allkorrect/internal/store"
	"github.com/allkorrect/allkorrect/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipe implements Conn over two independent buffers. SetDeadline is a no-op:
// these tests exercise dispatch logic, not idle-timeout enforcement.
type pipe struct {
	in  *bytes.Buffer
	out *bytes.Buffer
}

func (p *pipe) Read(b []byte) (int, error)    { return p.in.Read(b) }
func (p *pipe) Write(b []byte) (int, error)   { return p.out.Write(b) }
func (p *pipe) SetDeadline(t time.Time) error { return nil }

type fakeSandbox struct {
	result *sandbox.Result
	err    error
}

func (f *fakeSandbox) Run(arg *sandbox.Arg) (*sandbox.Result, error) {
	return f.result, f.err
}

func newSession(t *testing.T, in *bytes.Buffer) (*Session, *pipe) {
	t.Helper()
	root := t.TempDir() + string(filepath.Separator)
	s := store.New(root)
	require.NoError(t, s.Init())
	tmpDir, err := s.NewTmpDir()
	require.NoError(t, err)

	p := &pipe{in: in, out: &bytes.Buffer{}}
	return &Session{
		Conn:    p,
		Store:   s,
		TmpDir:  tmpDir,
		Sandbox: &fakeSandbox{result: &sandbox.Result{Type: wire.SUCCESS}},
	}, p
}

func putBlobFrame(name string, content []byte) wire.Frame {
	w := codec.NewWriter()
	w.WriteString(name)
	w.WriteInt32(int32(len(content)))
	w.WriteBytes(content)
	return wire.Frame{Type: wire.PUT_BLOB, Body: w.Bytes()}
}

func nameFrame(typ wire.Type, name string) wire.Frame {
	w := codec.NewWriter()
	w.WriteString(name)
	return wire.Frame{Type: typ, Body: w.Bytes()}
}

func readReply(t *testing.T, buf *bytes.Buffer) wire.Frame {
	t.Helper()
	f, err := wire.ReadFrame(buf)
	require.NoError(t, err)
	return f
}

// deadlineTrackingConn wraps pipe to count SetDeadline calls, so tests can
// assert the idle timeout is refreshed per frame rather than set once.
type deadlineTrackingConn struct {
	*pipe
	deadlines int
}

func (d *deadlineTrackingConn) SetDeadline(t time.Time) error {
	d.deadlines++
	return nil
}

func TestServeRefreshesDeadlinePerFrame(t *testing.T) {
	in := &bytes.Buffer{}
	require.NoError(t, wire.WriteFrame(in, putBlobFrame("b1", []byte("hello"))))
	require.NoError(t, wire.WriteFrame(in, nameFrame(wire.GET_BLOB, "b1")))
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.EXIT}))

	sess, p := newSession(t, in)
	tracked := &deadlineTrackingConn{pipe: p}
	sess.Conn = tracked
	sess.IdleTimeout = 5 * time.Second

	require.NoError(t, sess.Serve())

	// Two PUT_BLOB/GET_BLOB round trips, each refreshing before its read
	// and before its write, plus one read-side refresh before EXIT: a
	// single deadline set at connection start would leave this at 1.
	assert.Greater(t, tracked.deadlines, 1)
}

func TestServeExitEndsCleanly(t *testing.T) {
	in := &bytes.Buffer{}
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.EXIT}))
	sess, _ := newSession(t, in)
	assert.NoError(t, sess.Serve())
}

func TestServeUnknownTypeTerminatesSession(t *testing.T) {
	in := &bytes.Buffer{}
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.Type(999)}))
	sess, _ := newSession(t, in)
	err := sess.Serve()
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ProtocolError))
}

func TestPutThenGetBlobRoundTrip(t *testing.T) {
	in := &bytes.Buffer{}
	require.NoError(t, wire.WriteFrame(in, putBlobFrame("b1", []byte("hello"))))
	require.NoError(t, wire.WriteFrame(in, nameFrame(wire.GET_BLOB, "b1")))
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.EXIT}))

	sess, p := newSession(t, in)
	require.NoError(t, sess.Serve())

	okFrame := readReply(t, p.out)
	assert.Equal(t, wire.OK, okFrame.Type)

	getFrame := readReply(t, p.out)
	assert.Equal(t, wire.GET_BLOB_REPLY, getFrame.Type)
	assert.Equal(t, "hello", string(getFrame.Body))
}

func TestHasBlobReportsFalseThenTrue(t *testing.T) {
	in := &bytes.Buffer{}
	require.NoError(t, wire.WriteFrame(in, nameFrame(wire.HAS_BLOB, "missing")))
	require.NoError(t, wire.WriteFrame(in, putBlobFrame("missing", []byte("now here"))))
	require.NoError(t, wire.WriteFrame(in, nameFrame(wire.HAS_BLOB, "missing")))
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.EXIT}))

	sess, p := newSession(t, in)
	require.NoError(t, sess.Serve())

	reply := readReply(t, p.out)
	assert.Equal(t, wire.HAS_BLOB_REPLY, reply.Type)
	r := codec.NewReader(reply.Body)
	v, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(0), v)

	_ = readReply(t, p.out) // OK from PUT_BLOB
	reply = readReply(t, p.out)
	assert.Equal(t, wire.HAS_BLOB_REPLY, reply.Type)
	r = codec.NewReader(reply.Body)
	v, err = r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
}

func TestMoveBlobToFile(t *testing.T) {
	in := &bytes.Buffer{}
	require.NoError(t, wire.WriteFrame(in, putBlobFrame("src", []byte("data"))))
	w := codec.NewWriter()
	w.WriteString("src")
	w.WriteString("dst")
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.MOVE_BLOB2FILE, Body: w.Bytes()}))
	require.NoError(t, wire.WriteFrame(in, nameFrame(wire.HAS_FILE, "dst")))
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.EXIT}))

	sess, p := newSession(t, in)
	require.NoError(t, sess.Serve())

	_ = readReply(t, p.out) // OK from PUT_BLOB
	_ = readReply(t, p.out) // OK from MOVE
	hasReply := readReply(t, p.out)
	r := codec.NewReader(hasReply.Body)
	v, err := r.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)
}

func TestExecRoundTrip(t *testing.T) {
	in := &bytes.Buffer{}
	w := codec.NewWriter()
	w.WriteString("/bin/true")
	w.WriteInt32(0)
	w.WriteInt64(-1)
	w.WriteInt64(-1)
	w.WriteInt32(1000)
	w.WriteInt32(int32(wire.STRICT))
	w.WriteString("")
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.EXEC, Body: w.Bytes()}))
	require.NoError(t, wire.WriteFrame(in, wire.Frame{Type: wire.EXIT}))

	sess, p := newSession(t, in)
	require.NoError(t, sess.Serve())

	reply := readReply(t, p.out)
	assert.Equal(t, wire.EXEC_REPLY, reply.Type)
	m, err := decodeExecReplyForTest(reply.Body)
	require.NoError(t, err)
	assert.Equal(t, wire.SUCCESS, m.Type)
}

func decodeExecReplyForTest(body []byte) (wire.MsgExecReply, error) {
	r := codec.NewReader(body)
	var m wire.MsgExecReply
	var err error
	var exitStatus, typ int32
	if exitStatus, err = r.ReadInt32(); err != nil {
		return m, err
	}
	if typ, err = r.ReadInt32(); err != nil {
		return m, err
	}
	if m.Output, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Error, err = r.ReadString(); err != nil {
		return m, err
	}
	if m.Memory, err = r.ReadInt64(); err != nil {
		return m, err
	}
	if m.Time, err = r.ReadInt32(); err != nil {
		return m, err
	}
	m.ExitStatus = exitStatus
	m.Type = wire.ResultType(typ)
	return m, nil
}
