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

// Package janitor implements the cache janitor: a periodic, non-recursive
// sweep of the cache root that evicts idle blobs, grounded on
// FileSystem::CleanBlobs.
package janitor

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/allkorrect/allkorrect/clock"
	"github.com/allkorrect/allkorrect/internal/apperrors"
	"github.com/allkorrect/allkorrect/internal/logger"
	"github.com/allkorrect/allkorrect/internal/metrics"
	"golang.org/x/sys/unix"
)

type entry struct {
	path string
	size int64
}

// Janitor periodically sweeps root, deleting idle blobs.
type Janitor struct {
	Root         string
	Clock        clock.Clock
	Interval     time.Duration
	MinAge       time.Duration
	MaxCacheSize int64
}

// Run sweeps every Interval until ctx is cancelled, matching cleanThread's
// sleep-then-sweep loop (minus the original's silent per-iteration panic
// recovery, replaced by structured error logging).
func (j *Janitor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-j.Clock.After(j.Interval):
			if err := j.Sweep(); err != nil {
				logger.Errorf("janitor sweep failed: %v", err)
			}
		}
	}
}

// Sweep performs one pass: every tmp-class (leading '_') entry idle past
// MinAge is deleted unconditionally; cache-class entries idle past MinAge
// are deleted in ascending size order only while the cache-class total
// exceeds MaxCacheSize.
func (j *Janitor) Sweep() error {
	entries, err := os.ReadDir(j.Root)
	if err != nil {
		return apperrors.Wrap(apperrors.IOError, "read cache root", err)
	}

	now := j.Clock.Now()
	var tmp, cache []entry
	var cacheTotal int64

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		full := filepath.Join(j.Root, e.Name())
		var st unix.Stat_t
		if err := unix.Stat(full, &st); err != nil {
			continue
		}
		lastTouched := latest(st)
		if now.Sub(lastTouched) <= j.MinAge {
			continue
		}
		ent := entry{path: full, size: st.Size}
		if len(e.Name()) > 0 && e.Name()[0] == '_' {
			tmp = append(tmp, ent)
		} else {
			cache = append(cache, ent)
			cacheTotal += ent.size
		}
	}

	count := 0
	for _, e := range tmp {
		if os.Remove(e.path) == nil {
			count++
		}
	}

	if cacheTotal > j.MaxCacheSize {
		sort.Slice(cache, func(i, k int) bool { return cache[i].size < cache[k].size })
		for _, e := range cache {
			if os.Remove(e.path) == nil {
				count++
			}
			cacheTotal -= e.size
			if cacheTotal <= j.MaxCacheSize {
				break
			}
		}
	}

	if count > 0 {
		logger.Infof("janitor cleaned %d blobs", count)
	}
	metrics.JanitorSweepsTotal.Inc()
	return nil
}

func latest(st unix.Stat_t) time.Time {
	a := time.Unix(st.Atim.Sec, st.Atim.Nsec)
	c := time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	m := time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
	latest := a
	if c.After(latest) {
		latest = c
	}
	if m.After(latest) {
		latest = m
	}
	return latest
}
