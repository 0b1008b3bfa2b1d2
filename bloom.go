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
	"math"

	"github.com/cespare/xxhash/v2"
)

// bloomFilter is an ordinary Bloom filter sized from a target false-positive
// rate and capacity. The cascade stacks several of these.
//
// The number of hash functions defaults to one even though the optimal k is
// computed; the cascade's observed per-level false-positive rate depends on
// this, so it is the default rather than a bug. Pass optimalK to get the
// textbook behavior.
type bloomFilter struct {
	bits bitArray
	m    uint64 // cell count
	k    int    // digests per key
	seed uint64
}

// bloomCells computes m = ceil(-n*ln(p) / (ln 2)^2).
func bloomCells(fp float64, capacity int) uint64 {
	ln2 := math.Ln2
	return uint64(math.Ceil(-float64(capacity) * math.Log(fp) / ln2 / ln2))
}

// bloomHashes computes the optimal k = ceil((m/n) * ln 2).
func bloomHashes(cells uint64, capacity int) int {
	frac := float64(cells) / float64(capacity)
	return int(math.Ceil(frac * math.Ln2))
}

func newBloomFilter(fp float64, capacity int, seed uint64, optimalK bool) *bloomFilter {
	if capacity < 1 {
		capacity = 1
	}
	m := bloomCells(fp, capacity)
	if m < 64 {
		m = 64
	}
	k := 1
	if optimalK {
		k = bloomHashes(m, capacity)
	}
	return &bloomFilter{
		bits: newBitArray(m),
		m:    m,
		k:    k,
		seed: seed,
	}
}

// digest mixes the per-filter seed into a 64-bit hash of key. The two 32-bit
// halves feed the enhanced double hashing construction that derives the k
// cell indices.
func (f *bloomFilter) digest(key []byte) (uint32, uint32) {
	h := xxhash.Sum64(key) ^ f.seed
	// Finalize so every seed bit reaches both halves; otherwise the first
	// cell index would ignore the low half of the seed.
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return uint32(h >> 32), uint32(h)
}

func (f *bloomFilter) add(key []byte) {
	h1, h2 := f.digest(key)
	for i := 0; i < f.k; i++ {
		f.bits.set(uint64(h1) % f.m)
		h1 += h2
		h2 += uint32(i)
	}
}

// lookup reports whether every derived bit is set. False positives are
// possible; false negatives are not.
func (f *bloomFilter) lookup(key []byte) bool {
	h1, h2 := f.digest(key)
	for i := 0; i < f.k; i++ {
		if !f.bits.test(uint64(h1) % f.m) {
			return false
		}
		h1 += h2
		h2 += uint32(i)
	}
	return true
}

func (f *bloomFilter) clearAll() {
	f.bits.resetAll()
}

// numBits returns the filter size in bits.
func (f *bloomFilter) numBits() uint64 {
	return f.m
}

// numBytes returns the allocated size in bytes.
func (f *bloomFilter) numBytes() int {
	return len(f.bits) * 8
}
