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

package sandbox

import (
	"math"

	"golang.org/x/sys/unix"
)

// memoryLimitRate doubles the requested memory limit before it is applied
// as RLIMIT_AS, matching Execute.cpp's MEMORY_LIMIT_RATE: the hard limit
// exists to stop runaway allocation, not to police the declared limit
// (that's done by sampling /proc/{pid}/statm on brk/mmap/munmap instead).
const memoryLimitRate = 2

// niceLimit is the RLIMIT_NICE ceiling; the lowest nice value it allows
// is 20 - rlim_cur, so setting rlim_cur=20 lets the process go no lower
// than nice 0.
const niceLimit = 20

// Limits bounds a single sandboxed run.
type Limits struct {
	// MemoryLimit is in bytes; negative means unlimited.
	MemoryLimit int64
	// OutputLimit is in bytes; negative means unlimited.
	OutputLimit int64
	// TimeLimit is in milliseconds; negative means unlimited.
	TimeLimit int32
	// ProcessLimit bounds RLIMIT_NPROC; negative means unlimited.
	ProcessLimit int
	// LimitSyscall selects the STRICT syscall/open-path allow-list when true,
	// STRICT union LOOSE otherwise.
	LimitSyscall bool
}

// setRLimits applies rlimits to pid via PTRACE_SETREGSET's sibling,
// PR_SET_*-free prlimit(2), which a root parent may target at any process.
// The original applies these inside the not-yet-exec'd child itself
// (doChild, before PTRACE_TRACEME); Run achieves the same end state from
// the parent side instead, against the child stopped at its post-TRACEME
// SIGSTOP, which avoids needing to inject code into the forked child that
// os/exec does not expose a hook for.
func setRLimits(pid int, limit Limits) error {
	if limit.OutputLimit >= 0 {
		rl := unix.Rlimit{Cur: uint64(limit.OutputLimit), Max: uint64(limit.OutputLimit)}
		if err := unix.Prlimit(pid, unix.RLIMIT_FSIZE, &rl, nil); err != nil {
			return err
		}
	}

	if limit.MemoryLimit >= 0 {
		bound := uint64(limit.MemoryLimit) * memoryLimitRate
		rl := unix.Rlimit{Cur: bound, Max: bound}
		if err := unix.Prlimit(pid, unix.RLIMIT_AS, &rl, nil); err != nil {
			return err
		}
	}

	if err := unix.Prlimit(pid, unix.RLIMIT_CORE, &unix.Rlimit{Cur: 0, Max: 0}, nil); err != nil {
		return err
	}

	if limit.TimeLimit >= 0 {
		cur := uint64(math.Ceil(float64(limit.TimeLimit) / 1000.0))
		rl := unix.Rlimit{Cur: cur, Max: cur + 1}
		if err := unix.Prlimit(pid, unix.RLIMIT_CPU, &rl, nil); err != nil {
			return err
		}
	}

	if err := unix.Prlimit(pid, unix.RLIMIT_NICE, &unix.Rlimit{Cur: niceLimit, Max: niceLimit}, nil); err != nil {
		return err
	}

	if limit.ProcessLimit >= 0 {
		rl := unix.Rlimit{Cur: uint64(limit.ProcessLimit), Max: uint64(limit.ProcessLimit)}
		if err := unix.Prlimit(pid, unix.RLIMIT_NPROC, &rl, nil); err != nil {
			return err
		}
	}

	return nil
}
