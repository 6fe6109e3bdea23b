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

package guard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunsInLIFOOrder(t *testing.T) {
	g := New()
	var order []int
	g.Defer(func() error { order = append(order, 1); return nil })
	g.Defer(func() error { order = append(order, 2); return nil })
	g.Defer(func() error { order = append(order, 3); return nil })

	err := g.Run()

	assert.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestCombinesFailures(t *testing.T) {
	g := New()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	g.Defer(func() error { return errA })
	g.Defer(func() error { return nil })
	g.Defer(func() error { return errB })

	err := g.Run()

	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestRunClearsStack(t *testing.T) {
	g := New()
	calls := 0
	g.Defer(func() error { calls++; return nil })

	_ = g.Run()
	_ = g.Run()

	assert.Equal(t, 1, calls)
}
