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

// Package daemon implements the accept loop: bind, listen, serve one client
// connection at a time, tear down its tmp dir, repeat — grounded on
// Daemon.cpp's Run()/serve().
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/allkorrect/allkorrect/internal/apperrors"
	"github.com/allkorrect/allkorrect/internal/guard"
	"github.com/allkorrect/allkorrect/internal/logger"
	"github.com/allkorrect/allkorrect/internal/metrics"
	"github.com/allkorrect/allkorrect/internal/sandbox"
	"github.com/allkorrect/allkorrect/internal/session"
	"github.com/allkorrect/allkorrect/internal/store"
	"golang.org/x/sync/errgroup"
)

// realSandbox adapts the package-level sandbox.Run function to the
// session.Sandbox interface.
type realSandbox struct{}

func (realSandbox) Run(arg *sandbox.Arg) (*sandbox.Result, error) { return sandbox.Run(arg) }

// Daemon serves AllKorrect's TCP frontend: one client session at a time,
// per spec.md §5's single-threaded-cooperative session model.
type Daemon struct {
	Port               int
	Store              *store.Store
	SessionTimeout     time.Duration
	UID, GID           uint32 // sandboxed children's unprivileged identity

	running int32 // atomic; cleared by the SIGINT handler
}

// Run binds the listening socket and serves client connections until SIGINT
// or ctx is cancelled. The janitor is started separately by the caller via
// errgroup, per spec.md §5's "one background OS thread runs the cache
// janitor" — Run itself is only the accept loop.
func (d *Daemon) Run(ctx context.Context) error {
	atomic.StoreInt32(&d.running, 1)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", d.Port))
	if err != nil {
		return apperrors.Wrap(apperrors.FatalConfig, "bind daemon socket", err)
	}
	defer ln.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}
		atomic.StoreInt32(&d.running, 0)
		ln.Close()
	}()

	logger.Infof("daemon listening on port %d", d.Port)

	for atomic.LoadInt32(&d.running) == 1 {
		conn, err := ln.Accept()
		if err != nil {
			if atomic.LoadInt32(&d.running) == 0 {
				return nil
			}
			return apperrors.Wrap(apperrors.TransportFault, "accept", err)
		}

		metrics.Sessions.Inc()
		d.serve(conn)
	}
	return nil
}

// serve runs exactly one session to completion, matching Daemon::serve's
// per-connection tmp-dir-then-socket teardown (LIFO: tmp dir removed before
// the socket is closed, since the original's Defer guards destruct in
// reverse declaration order).
func (d *Daemon) serve(conn net.Conn) {
	tmpDir, err := d.Store.NewTmpDir()
	if err != nil {
		logger.Errorf("create session tmp dir: %v", err)
		conn.Close()
		return
	}

	g := guard.New()
	g.Defer(func() error { return conn.Close() })
	g.Defer(func() error { return store.RecursiveRemove(tmpDir) })
	defer func() {
		if err := g.Run(); err != nil {
			logger.Errorf("session teardown: %v", err)
		}
	}()

	logger.Infof("session started, tmp dir %s", tmpDir)

	sess := &session.Session{
		Conn:        conn,
		Store:       d.Store,
		TmpDir:      tmpDir,
		Sandbox:     realSandbox{},
		UID:         d.UID,
		GID:         d.GID,
		IdleTimeout: d.SessionTimeout,
	}

	if err := sess.Serve(); err != nil && !errors.Is(err, io.EOF) {
		logger.Errorf("session ended: %v", err)
	}

	logger.Infof("session ended")
}

// RunJanitor adapts a janitor's Run method so it can be grouped under the
// same errgroup.Group as Run, per SPEC_FULL.md §B's wiring of
// golang.org/x/sync/errgroup to coordinate the accept loop and the janitor
// goroutine under one cancellation signal.
func RunJanitor(ctx context.Context, g *errgroup.Group, run func(context.Context) error) {
	g.Go(func() error { return run(ctx) })
}
