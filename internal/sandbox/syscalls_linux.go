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
	"strings"

	"golang.org/x/sys/unix"
)

// strictSyscalls is the syscall allow-list under STRICT restriction,
// transcribed verbatim from Execute.cpp's ALLOWED_SYSCALL.
var strictSyscalls = map[uint64]bool{
	unix.SYS_GETXATTR:       true,
	unix.SYS_ACCESS:         true,
	unix.SYS_BRK:            true,
	unix.SYS_CLOSE:          true,
	unix.SYS_EXECVE:         true,
	unix.SYS_EXIT_GROUP:     true,
	unix.SYS_FSTAT:          true,
	unix.SYS_FUTEX:          true,
	unix.SYS_GETRLIMIT:      true,
	unix.SYS_IOCTL:          true,
	unix.SYS_IOPERM:         true,
	unix.SYS_MMAP:           true,
	unix.SYS_OPEN:           true,
	unix.SYS_RT_SIGACTION:   true,
	unix.SYS_RT_SIGPROCMASK: true,
	unix.SYS_SET_ROBUST_LIST: true,
	unix.SYS_SET_THREAD_AREA: true,
	unix.SYS_SET_TID_ADDRESS: true,
	unix.SYS_STAT:           true,
	unix.SYS_UNAME:          true,
	unix.SYS_WRITE:          true,
	unix.SYS_READ:           true,
	unix.SYS_MPROTECT:       true,
	unix.SYS_ARCH_PRCTL:     true,
	unix.SYS_MUNMAP:         true,
	unix.SYS_CLONE:          true,
}

// looseSyscalls is the additional set permitted under LOOSE restriction,
// on top of strictSyscalls — ALLOWED_SYSCALL_LOOSE.
var looseSyscalls = map[uint64]bool{
	unix.SYS_READLINK: true,
	unix.SYS_OPENAT:   true,
	unix.SYS_GETDENTS: true,
	unix.SYS_GETGID:   true,
	unix.SYS_GETEGID:  true,
	unix.SYS_GETUID:   true,
	unix.SYS_GETEUID:  true,
	unix.SYS_SETRLIMIT: true,
	unix.SYS_LSTAT:    true,
	unix.SYS_VFORK:    true,
	unix.SYS_WAIT4:    true,
	unix.SYS_UNLINK:   true,
	unix.SYS_GETPID:   true,
	unix.SYS_WRITEV:   true,
}

// allowedOpenStrict is the path-prefix allow-list for open()/openat() under
// STRICT restriction — ALLOWED_OPEN.
var allowedOpenStrict = []string{"/usr/", "/lib/", "/lib64/", "/etc/", "/proc/"}

// allowedOpenLoose extends allowedOpenStrict under LOOSE restriction —
// ALLOWED_OPEN_LOOSE.
var allowedOpenLoose = []string{"/sys/", "/tmp/"}

func isSyscallAllowed(num uint64, limitSyscall bool) bool {
	if strictSyscalls[num] {
		return true
	}
	if !limitSyscall {
		return looseSyscalls[num]
	}
	return false
}

func isPathAllowed(path string, limitSyscall bool) bool {
	for _, prefix := range allowedOpenStrict {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	if !limitSyscall {
		for _, prefix := range allowedOpenLoose {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		}
	}
	return false
}
