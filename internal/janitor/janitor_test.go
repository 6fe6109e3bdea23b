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

package janitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/allkorrect/allkorrect/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0700))
}

func TestSweepAlwaysDeletesTmpClass(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "_tmpblob"), 10)
	writeFile(t, filepath.Join(root, "cacheblob"), 10)

	j := &Janitor{Root: root, Clock: clock.RealClock{}, MinAge: 0, MaxCacheSize: 1 << 30}
	require.NoError(t, j.Sweep())

	_, err := os.Stat(filepath.Join(root, "_tmpblob"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(root, "cacheblob"))
	assert.NoError(t, err)
}

func TestSweepEvictsCacheClassOnlyOverCap(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small"), 10)
	writeFile(t, filepath.Join(root, "big"), 100)

	j := &Janitor{Root: root, Clock: clock.RealClock{}, MinAge: 0, MaxCacheSize: 100}
	require.NoError(t, j.Sweep())

	_, errSmall := os.Stat(filepath.Join(root, "small"))
	_, errBig := os.Stat(filepath.Join(root, "big"))
	assert.True(t, os.IsNotExist(errSmall), "smallest cache-class entry should be evicted first")
	assert.NoError(t, errBig)
}

func TestSweepKeepsEntriesUnderMinAge(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cacheblob"), 10)

	j := &Janitor{Root: root, Clock: clock.RealClock{}, MinAge: time.Hour, MaxCacheSize: 0}
	require.NoError(t, j.Sweep())

	_, err := os.Stat(filepath.Join(root, "cacheblob"))
	assert.NoError(t, err)
}

// TestRunSweepsOnEachSimulatedInterval drives Janitor.Run's Interval-gated
// loop deterministically via clock.SimulatedClock instead of sleeping on a
// real Interval, confirming Run actually sweeps each time Clock.After fires
// rather than only once at startup.
func TestRunSweepsOnEachSimulatedInterval(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "_tmpblob"), 10)

	sc := clock.NewSimulatedClock(time.Now())
	j := &Janitor{Root: root, Clock: sc, Interval: time.Minute, MinAge: 0, MaxCacheSize: 1 << 30}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Run(ctx) }()

	var gone bool
	for i := 0; i < 100 && !gone; i++ {
		sc.AdvanceTime(time.Minute)
		time.Sleep(5 * time.Millisecond)
		if _, err := os.Stat(filepath.Join(root, "_tmpblob")); os.IsNotExist(err) {
			gone = true
		}
	}
	assert.True(t, gone, "Run did not sweep after simulated interval ticks")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
