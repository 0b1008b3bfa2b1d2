/*
 * Copyright 2021 Dgraph Labs, Inc. and Contributors
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
	"fmt"

	"github.com/dustin/go-humanize"
)

// Metrics is a snapshot of build statistics for an Othello instance.
// Construction and mutation are single-threaded, so the fields are plain
// values.
type Metrics struct {
	// RehashTries is the number of seed pairs drawn by the last build.
	RehashTries int
	// TableA and TableB are the current table lengths in cells.
	TableA, TableB uint32
}

// Metrics returns the build statistics of the last (re)build.
func (o *Othello) Metrics() Metrics {
	return Metrics{
		RehashTries: o.tries,
		TableA:      o.ma,
		TableB:      o.mb,
	}
}

func (m Metrics) String() string {
	return fmt.Sprintf("tries: %d ma/mb: %s/%s",
		m.RehashTries, humanize.Comma(int64(m.TableA)), humanize.Comma(int64(m.TableB)))
}

// CascadeMetrics is a snapshot of build statistics for a Cascade.
type CascadeMetrics struct {
	// Levels is the number of filters built.
	Levels int
	// ResidualFps holds the false-positive count each level handed to the
	// next one; the last entry is 0 when the build terminated on an empty
	// residual.
	ResidualFps []int
}

// Metrics returns the cascade's build statistics.
func (c *Cascade) Metrics() CascadeMetrics {
	fps := make([]int, len(c.levelFps))
	copy(fps, c.levelFps)
	return CascadeMetrics{
		Levels: len(c.filters),
		ResidualFps: fps,
	}
}

func (m CascadeMetrics) String() string {
	return fmt.Sprintf("levels: %d residuals: %v", m.Levels, m.ResidualFps)
}
