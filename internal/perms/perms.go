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

// Package perms resolves the uid/gid the daemon itself runs as, and the
// unprivileged uid/gid sandboxed children are dropped to.
package perms

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"
)

// MyUserAndGroup returns the real uid and gid of the running process.
func MyUserAndGroup() (uid uint32, gid uint32, err error) {
	return uint32(unix.Getuid()), uint32(unix.Getgid()), nil
}

// ResolveSandboxUser resolves the named unprivileged user and group the
// sandboxed child should setuid/setgid to. AllKorrect.cpp hard-codes
// "nobody"/"nogroup"; this keeps the name configurable but the fallback the
// same: if the group lookup fails, fall back to the user's primary gid.
func ResolveSandboxUser(userName, groupName string) (uid uint32, gid uint32, err error) {
	u, err := user.Lookup(userName)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup user %q: %w", userName, err)
	}
	uidN, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse uid for %q: %w", userName, err)
	}

	g, err := user.LookupGroup(groupName)
	if err != nil {
		gidN, perr := strconv.ParseUint(u.Gid, 10, 32)
		if perr != nil {
			return 0, 0, fmt.Errorf("lookup group %q: %w (and fallback to primary gid failed: %v)", groupName, err, perr)
		}
		return uint32(uidN), uint32(gidN), nil
	}
	gidN, err := strconv.ParseUint(g.Gid, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("parse gid for %q: %w", groupName, err)
	}
	return uint32(uidN), uint32(gidN), nil
}
