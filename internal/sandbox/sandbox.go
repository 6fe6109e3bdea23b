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

// Package sandbox runs a single command under ptrace supervision, enforcing
// the rlimits and syscall/open-path allow-lists of Limits and reporting the
// outcome as a wire.ResultType. Grounded on original_source/Execute.cpp,
// translated into Go's os/exec + golang.org/x/sys/unix ptrace idiom (the
// pack carries no Go example of a ptrace-based sandbox loop, so this file's
// structure is adapted from the C++ source itself rather than a Go
// exemplar — see DESIGN.md).
package sandbox

import (
	"os"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"github.com/allkorrect/allkorrect/internal/apperrors"
	"github.com/allkorrect/allkorrect/internal/wire"
	"golang.org/x/sys/unix"
)

// Arg describes one sandboxed run.
type Arg struct {
	Command string
	Argv    []string
	Cwd     string

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	UID, GID uint32

	Limit Limits
}

// Result is the outcome of a sandboxed run.
type Result struct {
	Type       wire.ResultType
	ExitStatus int32
	Time       int32 // user CPU time in milliseconds, per spec.md §3
	Memory     int64 // peak data-segment bytes observed
}

// Run executes arg.Command under ptrace, enforcing arg.Limit, and blocks
// until it exits or is killed for violating a limit. Run locks the calling
// goroutine to an OS thread for its duration, since ptrace state is
// per-thread: every Wait4/PtraceCont/PtraceGetRegs call below must run on
// exactly the thread that called cmd.Start.
func Run(arg *Arg) (*Result, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cmd := buildCmd(arg)

	if err := cmd.Start(); err != nil {
		return nil, apperrors.Wrap(apperrors.IOError, "start sandboxed process", err)
	}
	pid := cmd.Process.Pid

	var ws unix.WaitStatus
	var ru unix.Rusage
	if _, err := unix.Wait4(pid, &ws, 0, &ru); err != nil {
		_ = cmd.Process.Kill()
		return nil, apperrors.Wrap(apperrors.IOError, "wait for initial stop", err)
	}
	if !ws.Stopped() {
		return finish(ws, &ru), nil
	}

	if err := setRLimits(pid, arg.Limit); err != nil {
		killTree(pid)
		return nil, apperrors.Wrap(apperrors.IOError, "set rlimits", err)
	}

	t := &tracer{limit: arg.Limit, memoryLimit: arg.Limit.MemoryLimit}

	stop := make(chan struct{})
	watchdogFired := make(chan struct{}, 1)
	go watchdog(arg.Limit.TimeLimit, func() {
		select {
		case watchdogFired <- struct{}{}:
			_ = unix.Kill(pid, unix.SIGUSR1)
		default:
		}
	}, stop)
	defer close(stop)

	if err := unix.PtraceSyscall(pid, 0); err != nil {
		killTree(pid)
		return nil, apperrors.Wrap(apperrors.IOError, "resume into exec", err)
	}

	result := parentLoop(pid, t, watchdogFired)
	if t.memoryPeak > result.Memory {
		result.Memory = t.memoryPeak
	}
	return result, nil
}

// cpuTimeMs converts an Rusage's user-CPU-time fields to milliseconds,
// matching Execute.cpp's use of ru_utime for result->time.
func cpuTimeMs(ru *unix.Rusage) int32 {
	d := time.Duration(ru.Utime.Sec)*time.Second + time.Duration(ru.Utime.Usec)*time.Microsecond
	return int32(d.Milliseconds())
}

// buildCmd constructs the exec.Cmd that Run starts: a credential switch to
// the sandbox's unprivileged uid/gid and Ptrace:true, which makes the Go
// runtime have the child call PTRACE_TRACEME and raise SIGSTOP on itself
// before calling execve, matching doChild's manual TRACEME call.
func buildCmd(arg *Arg) *exec.Cmd {
	cmd := exec.Command(arg.Command, arg.Argv...)
	cmd.Dir = arg.Cwd
	cmd.Stdin = arg.Stdin
	cmd.Stdout = arg.Stdout
	cmd.Stderr = arg.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Ptrace:     true,
		Credential: &syscall.Credential{Uid: arg.UID, Gid: arg.GID},
	}
	return cmd
}

// finish builds a Result for a tracee that exited before ever reaching a
// traced stop (e.g. it failed to exec at all).
func finish(ws unix.WaitStatus, ru *unix.Rusage) *Result {
	r := &Result{Time: cpuTimeMs(ru)}
	switch {
	case ws.Exited():
		code := ws.ExitStatus()
		r.ExitStatus = int32(code)
		if code == 0 {
			r.Type = wire.SUCCESS
		} else {
			r.Type = wire.FAILURE
		}
	case ws.Signaled():
		r.Type = wire.CRASHED
	default:
		r.Type = wire.CRASHED
	}
	return r
}

// parentLoop repeatedly resumes pid via PTRACE_SYSCALL, inspecting every
// stop, until the tracee exits or a limit violation kills the tree.
// Grounded on Execute.cpp's parentLoop and its signal-to-verdict switch.
func parentLoop(pid int, t *tracer, watchdogFired <-chan struct{}) *Result {
	for {
		var ws unix.WaitStatus
		var ru unix.Rusage
		if _, err := unix.Wait4(pid, &ws, 0, &ru); err != nil {
			return &Result{Type: wire.CRASHED}
		}
		cpuMs := cpuTimeMs(&ru)

		if ws.Exited() {
			code := ws.ExitStatus()
			r := &Result{ExitStatus: int32(code), Time: cpuMs}
			if code == 0 {
				r.Type = wire.SUCCESS
			} else {
				r.Type = wire.FAILURE
			}
			return r
		}

		if ws.Signaled() {
			return &Result{Type: wire.CRASHED, Time: cpuMs}
		}

		if !ws.Stopped() {
			continue
		}

		// Spec §4.5: on every stop, update result.time from user CPU time
		// and raise TLE as soon as it exceeds the limit, independent of
		// the coarser RLIMIT_CPU/SIGXCPU and wall-clock watchdog paths.
		if t.limit.TimeLimit >= 0 && cpuMs > t.limit.TimeLimit {
			killTree(pid)
			return &Result{Type: wire.TLE, Time: cpuMs}
		}

		sig := ws.StopSignal()

		switch sig {
		case unix.SIGURG, unix.SIGCHLD, unix.SIGWINCH:
			if err := unix.PtraceSyscall(pid, 0); err != nil {
				return &Result{Type: wire.CRASHED, Time: cpuMs}
			}
			continue

		case unix.SIGTRAP:
			regs, err := ptraceGetRegs(pid)
			if err != nil {
				killTree(pid)
				return &Result{Type: wire.CRASHED, Time: cpuMs}
			}
			v := t.checkSyscall(pid, &regs)
			if v.done {
				killTree(pid)
				return &Result{Type: v.result, Time: cpuMs}
			}
			if err := unix.PtraceSyscall(pid, 0); err != nil {
				return &Result{Type: wire.CRASHED, Time: cpuMs}
			}
			continue

		case unix.SIGXFSZ:
			killTree(pid)
			return &Result{Type: wire.OLE, Time: cpuMs}

		case unix.SIGXCPU:
			killTree(pid)
			return &Result{Type: wire.TLE, Time: cpuMs}

		case unix.SIGUSR1:
			select {
			case <-watchdogFired:
				killTree(pid)
				return &Result{Type: wire.TLE, Time: cpuMs}
			default:
			}
			if err := unix.PtraceSyscall(pid, 0); err != nil {
				return &Result{Type: wire.CRASHED, Time: cpuMs}
			}
			continue

		case unix.SIGSEGV:
			killTree(pid)
			return &Result{Type: wire.MEM_VIOLATION, Time: cpuMs}

		case unix.SIGFPE:
			killTree(pid)
			return &Result{Type: wire.MATH_ERROR, Time: cpuMs}

		default:
			killTree(pid)
			return &Result{Type: wire.CRASHED, Time: cpuMs}
		}
	}
}
