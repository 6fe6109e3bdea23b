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
	"time"
)

// wallClockFactor is how far past the declared CPU time limit a run may run
// wall-clock time before the watchdog intervenes, matching the 1.5x in
// Execute.cpp's alarm(ceil(1.5 * timeLimit / 1000)).
const wallClockFactor = 1.5

// watchdog calls onFire once wallClockFactor times timeLimitMs has elapsed
// (rounded up to a whole millisecond), then every second thereafter,
// until stop is closed — matching alarmHandler's re-arming alarm(1) after
// the first wall-clock trip. It runs as a goroutine rather than a SIGALRM
// handler, since Go cannot run arbitrary code safely from a signal handler.
func watchdog(timeLimitMs int32, onFire func(), stop <-chan struct{}) {
	if timeLimitMs < 0 {
		return
	}
	first := time.Duration(math.Ceil(wallClockFactor*float64(timeLimitMs))) * time.Millisecond
	timer := time.NewTimer(first)
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
			onFire()
			timer.Reset(time.Second)
		}
	}
}
