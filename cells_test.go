/*
 * Copyright 2019 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package membership

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainCells(t *testing.T) {
	c := newCellStore(0, 64)
	c.set(0, 0xDEADBEEF)
	c.set(63, ^uint64(0))
	require.Equal(t, uint64(0xDEADBEEF), c.get(0))
	require.Equal(t, ^uint64(0), c.get(63))
	require.Equal(t, 64*8, c.nbytes())

	clone := c.clone()
	clone.set(0, 1)
	require.Equal(t, uint64(0xDEADBEEF), c.get(0))
	require.Equal(t, uint64(1), clone.get(0))
}

func TestPacked12Cells(t *testing.T) {
	const cells = 256
	c := newCellStore(12, cells)

	// Neighboring cells share bytes; writes must not bleed.
	c.set(0, 0xFFF)
	c.set(1, 0x000)
	c.set(2, 0xABC)
	require.Equal(t, uint64(0xFFF), c.get(0))
	require.Equal(t, uint64(0x000), c.get(1))
	require.Equal(t, uint64(0xABC), c.get(2))

	c.set(1, 0x123)
	require.Equal(t, uint64(0xFFF), c.get(0))
	require.Equal(t, uint64(0x123), c.get(1))
	require.Equal(t, uint64(0xABC), c.get(2))

	// Values wider than 12 bits are truncated on write.
	c.set(4, 0xFFFFF)
	require.Equal(t, uint64(0xFFF), c.get(4))

	// Full randomized round-trip against a reference slice.
	rng := rand.New(rand.NewSource(41))
	want := make([]uint64, cells)
	for i := uint32(0); i < cells; i++ {
		want[i] = uint64(rng.Uint32()) & packedMask
		c.set(i, want[i])
	}
	for i := uint32(0); i < cells; i++ {
		require.Equal(t, want[i], c.get(i), "cell %d", i)
	}

	// Three bytes per two cells, plus load padding.
	require.Equal(t, cells*3/2+2, c.nbytes())
}

func TestCellStoreRandomize(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	for _, bits := range []uint8{0, 12} {
		c := newCellStore(bits, 128)
		c.randomize(rng)
		nonZero := 0
		for i := uint32(0); i < 128; i++ {
			if c.get(i) != 0 {
				nonZero++
			}
		}
		require.Greater(t, nonZero, 100, "valueBits=%d", bits)
	}
}

func TestCellStoreUnsupportedWidth(t *testing.T) {
	require.Panics(t, func() { newCellStore(8, 16) })
}
