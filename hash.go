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

// Package membership implements two compact structures that classify a key
// into one of two disjoint sets known at build time: an Othello hash (a
// two-table XOR lookup built over an acyclic bipartite graph) and a
// multi-level Bloom filter cascade. Both are built once and then queried;
// the Othello control plane additionally supports incremental insertion and
// deletion.
package membership

import (
	"encoding/binary"

	farm "github.com/dgryski/go-farm"
)

// Hasher32 is a 32-bit hash function with a settable seed. Two Hasher32
// values with independent seeds index the two Othello tables; the build
// retries with fresh seeds until the induced bipartite graph is acyclic.
type Hasher32 struct {
	seed uint32
}

// NewHasher32 returns a hasher with the given seed.
func NewHasher32(seed uint32) Hasher32 {
	return Hasher32{seed: seed}
}

// SetSeed replaces the seed.
func (h *Hasher32) SetSeed(seed uint32) {
	h.seed = seed
}

// Seed returns the current seed.
func (h Hasher32) Seed() uint32 {
	return h.seed
}

// Hash returns a 32-bit digest of key. Deterministic for a given (seed, key).
func (h Hasher32) Hash(key []byte) uint32 {
	return farm.Hash32WithSeed(key, h.seed)
}

// KeyToBytes converts the supported key types to the byte form the hashers
// and stores operate on. Integer keys use a fixed-width little-endian
// encoding so the same numeric key always maps to the same bytes.
func KeyToBytes(key interface{}) []byte {
	switch k := key.(type) {
	case []byte:
		return k
	case string:
		return []byte(k)
	case uint64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, k)
		return b
	case int64:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(k))
		return b
	case uint32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, k)
		return b
	case int32:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(k))
		return b
	case int:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(k))
		return b
	default:
		panic("membership: key type not supported")
	}
}
