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
	"github.com/allkorrect/allkorrect/internal/logger"
	"github.com/allkorrect/allkorrect/internal/wire"
	"golang.org/x/sys/unix"
)

// wordSize is sizeof(long) on amd64, the unit PTRACE_PEEKDATA reads.
const wordSize = 8

// maxPathPeek bounds peekString so a tracee can't force an unbounded read by
// never NUL-terminating its argument.
const maxPathPeek = 4096

// peekString reads a NUL-terminated string out of the tracee's address space
// at addr, one machine word at a time, matching Execute.cpp's peekString.
func peekString(pid int, addr uintptr) (string, error) {
	var out []byte
	for len(out) < maxPathPeek {
		var word [wordSize]byte
		if _, err := unix.PtracePeekData(pid, addr+uintptr(len(out)), word[:]); err != nil {
			return "", err
		}
		for _, b := range word {
			if b == 0 {
				return string(out), nil
			}
			out = append(out, b)
		}
	}
	return string(out), nil
}

// verdict is the outcome of inspecting one stopped-tracee event.
type verdict struct {
	done   bool
	result wire.ResultType
}

// tracer holds the per-run state checkSyscall needs across traps: whether
// execve has already happened once (STRICT forbids a second) and the
// declared memory limit to check brk/mmap/munmap against.
type tracer struct {
	limit       Limits
	hasExec     bool
	memoryLimit int64
	memoryPeak  int64
}

// checkSyscall inspects the syscall the tracee just entered, matching
// Execute.cpp's checkSyscall. verdict.done true means the run must be killed
// with verdict.result; verdict.done false means continue tracing, and
// verdict.result is then left at its zero value.
func (t *tracer) checkSyscall(pid int, regs *unix.PtraceRegs) verdict {
	num := regs.Orig_rax
	logger.Tracef("syscall %d (rdi=%#x rsi=%#x)", num, regs.Rdi, regs.Rsi)

	if !isSyscallAllowed(num, t.limit.LimitSyscall) {
		return verdict{done: true, result: wire.VIOLATION}
	}

	switch num {
	case unix.SYS_OPEN, unix.SYS_OPENAT:
		addr := uintptr(regs.Rdi)
		if num == unix.SYS_OPENAT {
			addr = uintptr(regs.Rsi)
		}
		path, err := peekString(pid, addr)
		if err != nil {
			return verdict{done: true, result: wire.VIOLATION}
		}
		if !isPathAllowed(path, t.limit.LimitSyscall) {
			return verdict{done: true, result: wire.VIOLATION}
		}

	case unix.SYS_EXECVE:
		if t.hasExec && t.limit.LimitSyscall {
			return verdict{done: true, result: wire.VIOLATION}
		}
		t.hasExec = true

	case unix.SYS_BRK, unix.SYS_MMAP, unix.SYS_MUNMAP:
		// result.memory is always sampled, matching Execute.cpp's checkSyscall
		// (`result->memory = getMemoryUsed(pid);` runs unconditionally); only
		// the MLE threshold comparison is gated on a configured limit.
		used, err := getMemoryUsed(pid)
		if err == nil {
			if used > t.memoryPeak {
				t.memoryPeak = used
			}
			if t.memoryLimit >= 0 && used > t.memoryLimit {
				return verdict{done: true, result: wire.MLE}
			}
		}
	}

	return verdict{}
}

func ptraceGetRegs(pid int) (unix.PtraceRegs, error) {
	var regs unix.PtraceRegs
	err := unix.PtraceGetRegs(pid, &regs)
	return regs, err
}
