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

package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistogramBounds(t *testing.T) {
	bounds := HistogramBounds(2, 5)
	require.Equal(t, []float64{4, 8, 16, 32}, bounds)
}

func TestHistogramUpdate(t *testing.T) {
	h := NewHistogram(HistogramBounds(0, 4)) // 1 2 4 8 16
	for _, v := range []int64{0, 1, 3, 7, 15, 100} {
		h.Update(v)
	}
	require.Equal(t, int64(6), h.Count)
	require.Equal(t, int64(0), h.Min)
	require.Equal(t, int64(100), h.Max)
	require.Equal(t, int64(126), h.Sum)
	require.InDelta(t, 21.0, h.Mean(), 0.001)

	// 0 -> [0,1), 1 -> [1,2), 3 -> [2,4), 7 -> [4,8), 15 -> [8,16),
	// 100 -> overflow bucket.
	require.Equal(t, []int64{1, 1, 1, 1, 1, 1}, h.CountPerBucket)
}

func TestHistogramPercentile(t *testing.T) {
	h := NewHistogram(HistogramBounds(0, 4))
	for v := int64(0); v < 16; v++ {
		h.Update(v)
	}
	require.Equal(t, float64(1), h.Percentile(0))
	require.Equal(t, float64(16), h.Percentile(1))
	require.True(t, h.Percentile(0.5) <= 16)

	h.Update(1 << 20)
	require.True(t, math.IsInf(h.Percentile(1), 1))
}

func TestHistogramString(t *testing.T) {
	h := NewHistogram(HistogramBounds(0, 2))
	require.Equal(t, "", (*Histogram)(nil).String())
	h.Update(1)
	s := h.String()
	require.Contains(t, s, "Histogram")
	require.Contains(t, s, "Mean: 1.00")
}
