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
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// childrenOf scans /proc for every numeric pid directory whose stat file
// reports ppid as its fourth field, matching killTree's isAllNumberic +
// fscanf("%*s%*s%*s%d", &ppid) walk.
func childrenOf(ppid int) []int {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil
	}
	var children []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
		if err != nil {
			continue
		}
		// The comm field can itself contain parentheses and spaces, so the
		// ppid field is located from the end of the last ')' rather than by
		// naive whitespace splitting of the whole line.
		text := string(raw)
		close := strings.LastIndexByte(text, ')')
		if close < 0 {
			continue
		}
		fields := strings.Fields(text[close+1:])
		if len(fields) < 2 {
			continue
		}
		parent, err := strconv.Atoi(fields[1])
		if err != nil || parent != ppid {
			continue
		}
		children = append(children, pid)
	}
	return children
}

// killTree recursively SIGKILLs pid and every descendant discovered via
// /proc, matching Execute.cpp's killTree.
func killTree(pid int) {
	for _, child := range childrenOf(pid) {
		killTree(child)
	}
	_ = unix.Kill(pid, unix.SIGKILL)
}
