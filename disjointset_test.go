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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisjointSetMerge(t *testing.T) {
	d := newDisjointSet(8)
	require.False(t, d.sameSet(0, 1))
	d.merge(0, 1)
	require.True(t, d.sameSet(0, 1))

	d.merge(2, 3)
	require.False(t, d.sameSet(1, 2))
	d.merge(1, 3)
	require.True(t, d.sameSet(0, 2))
	require.True(t, d.sameSet(0, 3))
	require.False(t, d.sameSet(0, 4))
}

func TestDisjointSetRoots(t *testing.T) {
	d := newDisjointSet(4)
	// Untouched nodes are not roots yet.
	require.False(t, d.isRoot(0))

	d.merge(0, 1)
	roots := 0
	for i := int32(0); i < 4; i++ {
		if d.isRoot(i) {
			roots++
		}
	}
	require.Equal(t, 1, roots)
}

func TestDisjointSetReset(t *testing.T) {
	d := newDisjointSet(4)
	d.merge(0, 1)
	d.merge(2, 3)
	d.reset()
	require.False(t, d.sameSet(0, 1))
	require.False(t, d.sameSet(2, 3))
}

func TestDisjointSetResize(t *testing.T) {
	d := newDisjointSet(2)
	d.merge(0, 1)
	d.resize(6)
	require.True(t, d.sameSet(0, 1))
	require.False(t, d.sameSet(1, 5))
	d.merge(4, 5)
	require.True(t, d.sameSet(4, 5))
}
