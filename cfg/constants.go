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

package cfg

const (
	// Logging-level constants.

	TRACE   = "TRACE"
	DEBUG   = "DEBUG"
	INFO    = "INFO"
	WARNING = "WARNING"
	ERROR   = "ERROR"
	OFF     = "OFF"
)

const (
	// DefaultPort is the fixed TCP port the daemon listens on.
	DefaultPort = 10010

	// DefaultCacheRoot is where blobs and session tmp directories live.
	DefaultCacheRoot = "/var/cache/allkorrect/"

	// DefaultSessionTimeoutSecs bounds a single frame read/write.
	DefaultSessionTimeoutSecs = 5

	// DefaultJanitorIntervalSecs is the period between cache sweeps.
	DefaultJanitorIntervalSecs = 60

	// DefaultMinDeletionAgeSecs is how old a blob must be before it is
	// eligible for deletion.
	DefaultMinDeletionAgeSecs = 600

	// DefaultMaxCacheSizeMB bounds total cache-class blob size.
	DefaultMaxCacheSizeMB int64 = 500

	// DefaultNobodyUser / DefaultNogroupGroup name the unprivileged
	// identity sandboxed children run as.
	DefaultNobodyUser   = "nobody"
	DefaultNogroupGroup = "nogroup"
)
