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

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/allkorrect/allkorrect/cfg"
	"github.com/allkorrect/allkorrect/clock"
	"github.com/allkorrect/allkorrect/internal/apperrors"
	"github.com/allkorrect/allkorrect/internal/daemon"
	"github.com/allkorrect/allkorrect/internal/janitor"
	"github.com/allkorrect/allkorrect/internal/logger"
	"github.com/allkorrect/allkorrect/internal/metrics"
	"github.com/allkorrect/allkorrect/internal/perms"
	"github.com/allkorrect/allkorrect/internal/store"
	"github.com/jacobsa/daemonize"
	"golang.org/x/sync/errgroup"
)

// inBackgroundEnvVar marks a process as the re-exec'd child started by
// daemonize.Run, mirroring gcsfuse's own GCSFuseInBackgroundMode convention
// (cmd/legacy_main.go) for telling the parent and child invocations apart.
const inBackgroundEnvVar = "ALLKORRECTD_IN_BACKGROUND"

// runServe is rootCmd's RunE body. It daemonizes (re-execing itself
// detached) unless Foreground is set or this process is already the
// daemonized child, then runs the server to completion.
func runServe(ctx context.Context, c *cfg.Config) error {
	if err := logger.Init(c.Logging); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if !c.Daemon.Foreground && os.Getenv(inBackgroundEnvVar) == "" {
		return daemonizeSelf()
	}

	err := serveForeground(ctx, c)
	if os.Getenv(inBackgroundEnvVar) != "" {
		if err2 := daemonize.SignalOutcome(err); err2 != nil {
			logger.Errorf("signal daemonize outcome: %v", err2)
		}
	}
	return err
}

// daemonizeSelf re-execs the current binary with the same arguments plus
// inBackgroundEnvVar set, matching daemonize.Run's parent-process role in
// gcsfuse's cmd/legacy_main.go.
func daemonizeSelf() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	env := append(os.Environ(), inBackgroundEnvVar+"=true")
	if err := daemonize.Run(exe, os.Args[1:], env, os.Stdout); err != nil {
		return fmt.Errorf("daemonize.Run: %w", err)
	}
	return nil
}

// serveForeground performs the startup sequence spec.md §6 and SPEC_FULL.md
// §D require (root check, uid/gid banner, cache reconciliation) and then
// runs the daemon's accept loop and janitor until ctx is cancelled.
func serveForeground(ctx context.Context, c *cfg.Config) error {
	uid, euid, gid, egid := os.Getuid(), os.Geteuid(), os.Getgid(), os.Getegid()
	logger.Infof("My uid=%d euid=%d gid=%d egid=%d", uid, euid, gid, egid)

	if euid != 0 {
		return apperrors.New(apperrors.FatalConfig, "allkorrectd must run as root (euid 0)")
	}

	sandboxUID, sandboxGID, err := perms.ResolveSandboxUser(c.Sandbox.NobodyUser, c.Sandbox.NogroupGroup)
	if err != nil {
		return apperrors.Wrap(apperrors.FatalConfig, "resolve sandbox user", err)
	}

	s := store.New(c.Daemon.CacheRoot)
	if err := s.Init(); err != nil {
		return err
	}
	if err := s.Reconcile(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	j := &janitor.Janitor{
		Root:         c.Daemon.CacheRoot,
		Clock:        clock.RealClock{},
		Interval:     secondsToDuration(c.Daemon.JanitorIntervalSecs),
		MinAge:       secondsToDuration(c.Daemon.MinDeletionAgeSecs),
		MaxCacheSize: int64(c.Daemon.MaxCacheSize),
	}
	daemon.RunJanitor(gctx, g, j.Run)

	g.Go(func() error { return metrics.Serve(gctx, c.Metrics.ListenAddr) })

	d := &daemon.Daemon{
		Port:           c.Daemon.Port,
		Store:          s,
		SessionTimeout: secondsToDuration(c.Daemon.SessionTimeoutSecs),
		UID:            sandboxUID,
		GID:            sandboxGID,
	}
	g.Go(func() error { return d.Run(gctx) })

	return g.Wait()
}

func secondsToDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}
