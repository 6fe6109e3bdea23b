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

package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedWidthRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteInt8(-7)
	w.WriteInt32(-123456)
	w.WriteUint32(4000000000)
	w.WriteInt64(-9000000000000)

	r := NewReader(w.Bytes())
	i8, err := r.ReadInt8()
	require.NoError(t, err)
	assert.EqualValues(t, -7, i8)

	i32, err := r.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, -123456, i32)

	u32, err := r.ReadUint32()
	require.NoError(t, err)
	assert.EqualValues(t, 4000000000, u32)

	i64, err := r.ReadInt64()
	require.NoError(t, err)
	assert.EqualValues(t, -9000000000000, i64)
}

func TestStringRoundTripVariousLengths(t *testing.T) {
	lengths := []int{0, 1, 126, 127, 128, 129, 16384, 20000}
	for _, n := range lengths {
		s := strings.Repeat("x", n)
		w := NewWriter()
		w.WriteString(s)

		r := NewReader(w.Bytes())
		got, err := r.ReadString()
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.Len(t, r.Remaining(), 0)
	}
}

func TestShortReadErrors(t *testing.T) {
	r := NewReader([]byte{1, 2})
	_, err := r.ReadInt32()
	assert.Error(t, err)
}

func TestReadBytesRaw(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(3)
	w.WriteBytes([]byte{0xAA, 0xBB, 0xCC})

	r := NewReader(w.Bytes())
	n, err := r.ReadInt32()
	require.NoError(t, err)
	raw, err := r.ReadBytes(int(n))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, raw)
}
