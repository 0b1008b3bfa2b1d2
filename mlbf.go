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

	"github.com/pkg/errors"
)

// CascadeConfig is passed to NewCascade.
type CascadeConfig struct {
	// Revoked and Stay are the two disjoint key sets. Contains reports true
	// for Revoked keys and false for Stay keys.
	Revoked [][]byte
	Stay    [][]byte
	// FPRate is the per-level false-positive target used to size each filter.
	FPRate float64
	// FirstFPRate, when non-zero, selects the dual-rate benchmark variant:
	// the level-1 filter is sized with this rate and the build stops as soon
	// as a residual, check or insert set has one element or fewer. Zero selects the canonical single-rate variant, which runs
	// until the residual is empty.
	FirstFPRate float64
	// Seed for per-level filter seeds. 0 uses DefaultSeed.
	Seed int64
	// OptimalK sizes each level with the textbook hash count instead of the
	// single hash the cascade normally uses.
	OptimalK bool
}

// Cascade is a multi-level Bloom filter over two disjoint key sets R and S.
// Odd levels hold R-side keys; the S-side keys that test positive on an odd
// level are inserted at the next, even level, and even levels swap the roles. A key's classification is
// decided by the first level that reports it absent, or by the parity of the
// level count if every level reports it present.
type Cascade struct {
	filters  []*bloomFilter
	levelFps []int // residual false-positive count per level
}

// NewCascade builds the cascade. Build terminates when a level produces no
// false positives (canonical) or when the residual sets degenerate
// (dual-rate variant). The canonical build classifies the build sets
// exactly; the dual-rate build may stop with keys of its last residual, which
// are then misclassified.
func NewCascade(cfg *CascadeConfig) (*Cascade, error) {
	if cfg.FPRate <= 0 || cfg.FPRate >= 1 {
		return nil, errors.Errorf("mlbf: false-positive rate %v out of (0, 1)", cfg.FPRate)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	rng := rand.New(rand.NewSource(seed))

	c := &Cascade{}
	dualRate := cfg.FirstFPRate != 0

	// rRemain and sRemain project each side's residual from the level rates;
	// the stop rule tests the live set sizes, and the concrete filters are
	// always sized for the live sets.
	rRemain, sRemain := len(cfg.Revoked), len(cfg.Stay)
	revoked, stay := cfg.Revoked, cfg.Stay

	for level := 1; ; level++ {
		curRate := cfg.FPRate
		if dualRate && level == 1 {
			curRate = cfg.FirstFPRate
		}
		var toInsert, toCheck [][]byte
		if level%2 == 1 {
			toInsert, toCheck = revoked, stay
			sRemain = int(float64(sRemain)*curRate + 0.5)
		} else {
			toInsert, toCheck = stay, revoked
			rRemain = int(float64(rRemain)*curRate + 0.5)
		}

		f := newBloomFilter(curRate, len(toInsert)+len(toCheck), rng.Uint64(), cfg.OptimalK)
		for _, k := range toInsert {
			f.add(k)
		}
		var fps [][]byte
		for _, k := range toCheck {
			if f.lookup(k) {
				fps = append(fps, k)
			}
		}
		c.filters = append(c.filters, f)
		c.levelFps = append(c.levelFps, len(fps))

		if dualRate {
			if len(fps) <= 1 || len(toCheck) <= 1 || len(toInsert) <= 1 {
				break
			}
		} else if len(fps) == 0 {
			break
		}

		// The false positives of this level become the other side's check
		// set one level down.
		if level%2 == 1 {
			stay = fps
		} else {
			revoked = fps
		}
	}
	return c, nil
}

// Contains classifies key: true means the revoked side, false the stay side.
// Exact for keys in either build set of a canonical (single-rate) cascade.
//
// Each level that reports the key present flips the classification; the
// first level that reports it absent is conclusive. A key present at every
// level is classified by the parity of the level count.
func (c *Cascade) Contains(key []byte) bool {
	included := false
	for _, f := range c.filters {
		if !f.lookup(key) {
			return included
		}
		included = !included
	}
	return len(c.filters)%2 == 1
}

// ByteSize returns the summed size of all levels in bytes.
func (c *Cascade) ByteSize() int {
	var size int
	for _, f := range c.filters {
		size += f.numBytes()
	}
	return size
}

// Levels returns the number of filters in the cascade.
func (c *Cascade) Levels() int {
	return len(c.filters)
}
