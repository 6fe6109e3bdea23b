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

// Package guard implements scoped cleanup, modeled on the original's RAII
// Defer helper (a destructor-run std::function), but as an explicit stack
// that reports every cleanup failure instead of silently swallowing them.
package guard

import "go.uber.org/multierr"

// Guard accumulates cleanup functions and runs them in reverse order,
// combining any failures with go.uber.org/multierr.
type Guard struct {
	fns []func() error
}

// New returns an empty Guard.
func New() *Guard {
	return &Guard{}
}

// Defer registers a cleanup function to run when Run is called. Functions
// run in LIFO order, mirroring C++ destructor unwind order for stack-local
// Defer objects.
func (g *Guard) Defer(fn func() error) {
	g.fns = append(g.fns, fn)
}

// Run executes every registered cleanup function, LIFO, and returns the
// combination of any errors they produced.
func (g *Guard) Run() error {
	var err error
	for i := len(g.fns) - 1; i >= 0; i-- {
		err = multierr.Append(err, g.fns[i]())
	}
	g.fns = nil
	return err
}
