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

// Package stats holds the small measurement helpers the benchmark driver
// reports with.
package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// HistogramBounds creates bounds for a histogram: powers of two of the form
// [2^minExponent, ..., 2^maxExponent].
func HistogramBounds(minExponent, maxExponent uint32) []float64 {
	var bounds []float64
	for i := minExponent; i <= maxExponent; i++ {
		bounds = append(bounds, float64(int(1)<<i))
	}
	return bounds
}

// Histogram aggregates observed values, typically per-query latencies in
// nanoseconds, into buckets delimited by Bounds.
type Histogram struct {
	Bounds         []float64
	Count          int64
	CountPerBucket []int64
	Min            int64
	Max            int64
	Sum            int64
}

// NewHistogram returns a histogram with properly initialized fields.
func NewHistogram(bounds []float64) *Histogram {
	return &Histogram{
		Bounds:         bounds,
		CountPerBucket: make([]int64, len(bounds)+1),
		Max:            0,
		Min:            math.MaxInt64,
	}
}

// Update records one value.
func (h *Histogram) Update(value int64) {
	if h == nil {
		return
	}
	if value > h.Max {
		h.Max = value
	}
	if value < h.Min {
		h.Min = value
	}
	h.Sum += value
	h.Count++

	for index := 0; index <= len(h.Bounds); index++ {
		// Allocate value in the last bucket if we reached the end of the
		// Bounds array.
		if index == len(h.Bounds) {
			h.CountPerBucket[index]++
			break
		}
		if value < int64(h.Bounds[index]) {
			h.CountPerBucket[index]++
			break
		}
	}
}

// Mean returns the average of the recorded values.
func (h *Histogram) Mean() float64 {
	if h.Count == 0 {
		return 0
	}
	return float64(h.Sum) / float64(h.Count)
}

// Percentile returns the upper bound of the bucket containing the p-th
// percentile of the recorded values, p in [0, 1].
func (h *Histogram) Percentile(p float64) float64 {
	if h.Count == 0 {
		return 0
	}
	total := int64(0)
	target := int64(math.Ceil(float64(h.Count) * p))
	for index, count := range h.CountPerBucket {
		total += count
		if total < target {
			continue
		}
		if index == len(h.Bounds) {
			return math.Inf(1)
		}
		return h.Bounds[index]
	}
	return math.Inf(1)
}

// String converts the histogram data into a human-readable string.
func (h *Histogram) String() string {
	if h == nil {
		return ""
	}
	var b strings.Builder

	b.WriteString(" -- Histogram: ")
	b.WriteString(fmt.Sprintf("Min value: %d ", h.Min))
	b.WriteString(fmt.Sprintf("Max value: %d ", h.Max))
	b.WriteString(fmt.Sprintf("Mean: %.2f ", h.Mean()))

	numBounds := len(h.Bounds)
	for index, count := range h.CountPerBucket {
		if count == 0 {
			continue
		}

		// The last bucket represents the range from the last bound up to
		// infinity so it's processed differently than the other buckets.
		if index == len(h.CountPerBucket)-1 {
			lowerBound := int(h.Bounds[numBounds-1])
			b.WriteString(fmt.Sprintf("[%d, %s) %s %.2f%% ", lowerBound, "infinity",
				humanize.Comma(count), float64(count*100)/float64(h.Count)))
			continue
		}

		upperBound := int(h.Bounds[index])
		lowerBound := 0
		if index > 0 {
			lowerBound = int(h.Bounds[index-1])
		}

		b.WriteString(fmt.Sprintf("[%d, %d) %s %.2f%% ", lowerBound, upperBound,
			humanize.Comma(count), float64(count*100)/float64(h.Count)))
	}
	b.WriteString(" --")
	return b.String()
}
