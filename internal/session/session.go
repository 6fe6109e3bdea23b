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

// Package session implements the per-connection message state machine:
// EXIT/EXEC/PUT_BLOB/GET_BLOB/HAS_BLOB/HAS_FILE/8xMOVE-COPY, grounded on
// Daemon.cpp's serve()/deal* functions.
package session

import (
	"io"
	"path/filepath"
	"time"

	"github.com/allkorrect/allkorrect/common"
	"github.com/allkorrect/allkorrect/internal/apperrors"
	"github.com/allkorrect/allkorrect/internal/guard"
	"github.com/allkorrect/allkorrect/internal/logger"
	"github.com/allkorrect/allkorrect/internal/metrics"
	"github.com/allkorrect/allkorrect/internal/sandbox"
	"github.com/allkorrect/allkorrect/internal/store"
	"github.com/allkorrect/allkorrect/internal/wire"
)

// Conn is the minimal frame transport a Session needs; satisfied by a
// net.Conn wrapped for ReadFrame/WriteFrame use. SetDeadline lets Serve
// refresh a per-I/O idle timeout ahead of every frame, rather than bound
// the whole session with one deadline set at connection start.
type Conn interface {
	io.Reader
	io.Writer
	SetDeadline(t time.Time) error
}

// Sandbox runs one EXEC request. Abstracted behind an interface so Session
// can be tested without spawning real traced processes.
type Sandbox interface {
	Run(arg *sandbox.Arg) (*sandbox.Result, error)
}

// Session serves one client connection to completion: reading frames,
// dispatching to a handler, writing replies, until EXIT or a fatal error.
type Session struct {
	Conn    Conn
	Store   *store.Store
	TmpDir  string
	Sandbox Sandbox
	UID     uint32
	GID     uint32

	// IdleTimeout, if positive, is refreshed on Conn before every frame
	// read and write — spec.md §4.2/§6's "socket read/send timeouts of 5
	// seconds", an idle timeout per I/O call rather than a single deadline
	// for the whole session.
	IdleTimeout time.Duration
}

// Serve runs the dispatch loop until EXIT, a fatal error, or the peer closes
// the connection. A peer that closes between frames is reported as a
// TransportFault wrapping io.EOF; callers can tell it apart from other
// transport faults via errors.Is(err, io.EOF).
func (s *Session) Serve() error {
	for {
		if err := s.refreshDeadline(); err != nil {
			return apperrors.Wrap(apperrors.TransportFault, "set read deadline", err)
		}
		frame, err := wire.ReadFrame(s.Conn)
		if err != nil {
			return err
		}

		if frame.Type == wire.EXIT {
			return nil
		}

		reply, err := s.dispatch(frame)
		if err != nil {
			return err
		}

		if err := s.refreshDeadline(); err != nil {
			return apperrors.Wrap(apperrors.TransportFault, "set write deadline", err)
		}
		if err := wire.WriteFrame(s.Conn, reply); err != nil {
			return err
		}
	}
}

// refreshDeadline extends Conn's read/write deadline by IdleTimeout from
// now, or does nothing if IdleTimeout is unset.
func (s *Session) refreshDeadline() error {
	if s.IdleTimeout <= 0 {
		return nil
	}
	return s.Conn.SetDeadline(time.Now().Add(s.IdleTimeout))
}

func (s *Session) dispatch(frame wire.Frame) (wire.Frame, error) {
	switch frame.Type {
	case wire.EXEC:
		return s.handleExec(frame.Body)
	case wire.PUT_BLOB:
		return s.handlePutBlob(frame.Body)
	case wire.GET_BLOB:
		return s.handleGetBlob(frame.Body)
	case wire.HAS_BLOB:
		return s.handleHas(frame.Body, wire.HAS_BLOB_REPLY, s.blobPath)
	case wire.HAS_FILE:
		return s.handleHas(frame.Body, wire.HAS_FILE_REPLY, s.filePath)
	case wire.MOVE_BLOB2FILE:
		return s.handleMoveCopy(frame.Body, s.blobPath, s.filePath, store.MoveBlob2File)
	case wire.MOVE_BLOB2BLOB:
		return s.handleMoveCopy(frame.Body, s.blobPath, s.blobPath, store.MoveBlob2Blob)
	case wire.MOVE_FILE2FILE:
		return s.handleMoveCopy(frame.Body, s.filePath, s.filePath, store.MoveFile2File)
	case wire.MOVE_FILE2BLOB:
		return s.handleMoveCopy(frame.Body, s.filePath, s.blobPath, store.MoveFile2Blob)
	case wire.COPY_BLOB2FILE:
		return s.handleMoveCopy(frame.Body, s.blobPath, s.filePath, store.CopyBlob2File)
	case wire.COPY_BLOB2BLOB:
		return s.handleMoveCopy(frame.Body, s.blobPath, s.blobPath, store.CopyBlob2Blob)
	case wire.COPY_FILE2FILE:
		return s.handleMoveCopy(frame.Body, s.filePath, s.filePath, store.CopyFile2File)
	case wire.COPY_FILE2BLOB:
		return s.handleMoveCopy(frame.Body, s.filePath, s.blobPath, store.CopyFile2Blob)
	default:
		return wire.Frame{}, apperrors.New(apperrors.ProtocolError, "unknown message type "+frame.Type.String())
	}
}

func (s *Session) blobPath(name string) string { return filepath.Join(s.Store.Root, name) }
func (s *Session) filePath(name string) string { return filepath.Join(s.TmpDir, name) }

func (s *Session) handlePutBlob(body []byte) (wire.Frame, error) {
	m, err := wire.DecodeMsgPutBlob(body)
	if err != nil {
		return wire.Frame{}, err
	}
	if err := store.CheckName(m.Name); err != nil {
		return wire.Frame{}, err
	}
	logger.Infof("put blob %q (%d bytes)", m.Name, len(m.Buf))
	if err := store.PutBlob(s.blobPath(m.Name), m.Buf); err != nil {
		return wire.Frame{}, err
	}
	return wire.OKReply(), nil
}

func (s *Session) handleGetBlob(body []byte) (wire.Frame, error) {
	name, err := wire.DecodeName(body)
	if err != nil {
		return wire.Frame{}, err
	}
	if err := store.CheckName(name); err != nil {
		return wire.Frame{}, err
	}
	logger.Infof("get blob %q", name)
	content, err := store.GetBlob(s.blobPath(name))
	if err != nil {
		return wire.Frame{}, err
	}
	return wire.GetBlobReply(content), nil
}

func (s *Session) handleHas(body []byte, replyType wire.Type, resolve func(string) string) (wire.Frame, error) {
	name, err := wire.DecodeName(body)
	if err != nil {
		return wire.Frame{}, err
	}
	if err := store.CheckName(name); err != nil {
		return wire.Frame{}, err
	}
	has, err := store.Has(resolve(name))
	if err != nil {
		return wire.Frame{}, err
	}
	return wire.EncodeBoolReply(replyType, has), nil
}

func (s *Session) handleMoveCopy(body []byte, resolveOld, resolveNew func(string) string, op func(string, string) error) (wire.Frame, error) {
	m, err := wire.DecodeMsgCopyMove(body)
	if err != nil {
		return wire.Frame{}, err
	}
	if err := store.CheckName(m.OldName); err != nil {
		return wire.Frame{}, err
	}
	if err := store.CheckName(m.NewName); err != nil {
		return wire.Frame{}, err
	}
	logger.Infof("%s %q -> %q", "move/copy", m.OldName, m.NewName)
	if err := op(resolveOld(m.OldName), resolveNew(m.NewName)); err != nil {
		return wire.Frame{}, err
	}
	return wire.OKReply(), nil
}

// handleExec validates and sets up the input/output/error blobs, runs the
// sandboxed command, and restores all three blobs' permissions on every
// exit path via an internal/guard stack — matching dealExec's scoped
// permission-restore discipline.
func (s *Session) handleExec(body []byte) (wire.Frame, error) {
	m, err := wire.DecodeMsgExec(body)
	if err != nil {
		return wire.Frame{}, err
	}

	g := guard.New()
	defer func() {
		if err := g.Run(); err != nil {
			logger.Errorf("exec cleanup: %v", err)
		}
	}()

	var inputPath string
	if m.Input != "" {
		if err := store.CheckName(m.Input); err != nil {
			return wire.Frame{}, err
		}
		inputPath = s.blobPath(m.Input)
		if has, err := store.Has(inputPath); err != nil {
			return wire.Frame{}, err
		} else if !has {
			return wire.Frame{}, apperrors.New(apperrors.NotFound, "input blob not found: "+m.Input)
		}
		if err := store.SetReadOnly(inputPath); err != nil {
			return wire.Frame{}, err
		}
		g.Defer(func() error { return store.Restore(inputPath) })
	}

	outputName := store.RandString()
	errorName := store.RandString()
	outputPath := s.blobPath(outputName)
	errorPath := s.blobPath(errorName)

	if err := store.NewBlob(outputPath); err != nil {
		return wire.Frame{}, err
	}
	g.Defer(func() error { return store.Restore(outputPath) })
	if err := store.SetWriteOnly(outputPath); err != nil {
		return wire.Frame{}, err
	}

	if err := store.NewBlob(errorPath); err != nil {
		return wire.Frame{}, err
	}
	g.Defer(func() error { return store.Restore(errorPath) })
	if err := store.SetWriteOnly(errorPath); err != nil {
		return wire.Frame{}, err
	}

	processLimit, limitSyscall := 20, false
	if m.Restriction == wire.STRICT {
		processLimit, limitSyscall = 1, true
	}

	logger.Infof("exec %q %v (restriction=%s)", m.Cmd, m.Args, m.Restriction)

	arg := &sandbox.Arg{
		Command: m.Cmd,
		Argv:    m.Args,
		Cwd:     s.TmpDir,
		UID:     s.UID,
		GID:     s.GID,
		Limit: sandbox.Limits{
			MemoryLimit:  m.MemoryLimit,
			OutputLimit:  m.OutputLimit,
			TimeLimit:    m.TimeLimit,
			ProcessLimit: processLimit,
			LimitSyscall: limitSyscall,
		},
	}

	inFile, err := openReadOrNil(inputPath)
	if err != nil {
		return wire.Frame{}, err
	}
	if inFile != nil {
		defer common.CloseFile(inFile)
		arg.Stdin = inFile
	}

	outFile, errFile, err := openWriteFiles(outputPath, errorPath)
	if err != nil {
		return wire.Frame{}, err
	}
	defer common.CloseFile(outFile)
	defer common.CloseFile(errFile)
	arg.Stdout = outFile
	arg.Stderr = errFile

	result, err := s.Sandbox.Run(arg)
	if err != nil {
		return wire.Frame{}, apperrors.Wrap(apperrors.IOError, "sandbox run", err)
	}
	metrics.RecordVerdict(result.Type)

	return wire.EncodeMsgExecReply(wire.MsgExecReply{
		ExitStatus: result.ExitStatus,
		Type:       result.Type,
		Output:     outputName,
		Error:      errorName,
		Memory:     result.Memory,
		Time:       result.Time,
	}), nil
}
