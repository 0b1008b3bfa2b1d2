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
	"bytes"
	"math/rand"

	"github.com/pkg/errors"
)

const (
	// defaultMaxRehash bounds the number of seed pairs tried before a build
	// is declared failed.
	defaultMaxRehash = 5000

	// DefaultSeed seeds the builder's pseudo-random source when the caller
	// does not supply one, for reproducible builds.
	DefaultSeed = 0x19900111
)

// Config is passed to New for creating Othello instances.
type Config struct {
	// Keys and Values are parallel slices of equal length. Keys must be
	// distinct; duplicate keys leave the structure undefined.
	Keys   [][]byte
	Values []uint64
	// ValueBits is the meaningful width of values. 0 means the full 64 bits;
	// 12 selects the packed three-bytes-per-two-cells store.
	ValueBits uint8
	// Seed for the pseudo-random source driving hash seeds and cell
	// initialization. 0 uses DefaultSeed.
	Seed int64
	// MaxRehash overrides the rehash limit. 0 uses the default of 5000.
	MaxRehash int
}

type kv struct {
	key []byte
	val uint64
}

// Othello maps each of n build-time keys to a value such that
// mem[ha(k)] XOR mem[hb(k)] = value(k). The two tables A and B are
// concatenated in mem; edges (ha(k), hb(k)) over the key set form an acyclic
// bipartite graph, re-seeded until they do. A parallel index table supports
// recovering a known key's position in the key-value list, which is what
// membership tests and deletion are built on.
//
// Othello is not safe for concurrent use; take a Snapshot for shared readers.
type Othello struct {
	ma, mb uint32
	ha, hb Hasher32
	mem    cellStore
	indMem []uint32

	kvs        []kv
	keyReserve int

	// Per-node singly linked lists of the key indices touching the node.
	// head is indexed by node; nextA/nextB are indexed by key and carry the
	// list links for the key's A-side and B-side endpoint respectively.
	// -1 terminates a list.
	head  []int32
	nextA []int32
	nextB []int32

	disj *disjointSet

	// BFS scratch, reused across fills.
	visited []bool
	queue   []uint32

	rng       *rand.Rand
	valueBits uint8
	lmask     uint64
	maxRehash int
	tries     int
}

// New builds an Othello from cfg.Keys and cfg.Values. It retries with fresh
// hash seeds until the induced graph is acyclic and returns ErrBuildExhausted
// if the rehash limit is hit.
func New(cfg *Config) (*Othello, error) {
	if len(cfg.Keys) != len(cfg.Values) {
		return nil, errors.Errorf("othello: %d keys but %d values", len(cfg.Keys), len(cfg.Values))
	}
	if cfg.ValueBits != 0 && cfg.ValueBits != packedValueBits {
		return nil, errors.Errorf("othello: unsupported value width %d", cfg.ValueBits)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	maxRehash := cfg.MaxRehash
	if maxRehash == 0 {
		maxRehash = defaultMaxRehash
	}
	o := &Othello{
		rng:       rand.New(rand.NewSource(seed)),
		valueBits: cfg.ValueBits,
		lmask:     valueMask(cfg.ValueBits),
		maxRehash: maxRehash,
	}

	n := len(cfg.Keys)
	o.reserveKeys(n)
	o.resizeTables(n)
	for i := 0; i < n; i++ {
		o.kvs = append(o.kvs, kv{key: cfg.Keys[i], val: cfg.Values[i]})
	}
	if err := o.build(); err != nil {
		return nil, err
	}
	return o, nil
}

func valueMask(valueBits uint8) uint64 {
	if valueBits == 0 || valueBits == 64 {
		return ^uint64(0)
	}
	return 1<<valueBits - 1
}

// tableSizes picks the smallest power-of-two table lengths with
// ma >= 1.333*n and mb >= n, starting from 128 and 256.
func tableSizes(n int) (ma, mb uint32) {
	hl1, hl2 := 7, 8
	for float64(uint64(1)<<hl1) < float64(n)*1.333334 {
		hl1++
	}
	for uint64(1)<<hl2 < uint64(n) {
		hl2++
	}
	return 1 << hl1, 1 << hl2
}

// reserveKeys makes room for n keys, growing the key-value slice and the
// per-key adjacency links to at least max(256, 2n) to amortise insertion.
func (o *Othello) reserveKeys(n int) {
	if o.keyReserve != 0 && n <= o.keyReserve {
		return
	}
	o.keyReserve = 256
	if 2*n > o.keyReserve {
		o.keyReserve = 2 * n
	}
	kvs := make([]kv, len(o.kvs), o.keyReserve)
	copy(kvs, o.kvs)
	o.kvs = kvs

	nextA := make([]int32, o.keyReserve)
	nextB := make([]int32, o.keyReserve)
	copy(nextA, o.nextA)
	copy(nextB, o.nextB)
	for i := len(o.nextA); i < o.keyReserve; i++ {
		nextA[i] = -1
		nextB[i] = -1
	}
	o.nextA = nextA
	o.nextB = nextB
}

// resizeTables reallocates the node-indexed state when n no longer fits the
// current tables. Reports whether the tables changed, in which case the
// caller must rebuild.
func (o *Othello) resizeTables(n int) bool {
	ma, mb := tableSizes(n)
	if ma <= o.ma && mb <= o.mb {
		return false
	}
	o.ma, o.mb = ma, mb
	total := ma + mb
	o.mem = newCellStore(o.valueBits, total)
	o.indMem = make([]uint32, total)
	o.head = make([]int32, total)
	o.disj = newDisjointSet(int(total))
	o.visited = make([]bool, total)
	return true
}

func (o *Othello) endpoints(key []byte) (uint32, uint32) {
	a := o.ha.Hash(key) & (o.ma - 1)
	b := o.ma + o.hb.Hash(key)&(o.mb-1)
	return a, b
}

// resetBuildState discards everything except keys and values: cells and
// index cells are refilled with random bits, adjacency and the disjoint set
// are cleared.
func (o *Othello) resetBuildState() {
	o.mem.randomize(o.rng)
	for i := range o.indMem {
		o.indMem[i] = o.rng.Uint32()
	}
	for i := range o.head {
		o.head[i] = -1
	}
	for i := range o.nextA {
		o.nextA[i] = -1
		o.nextB[i] = -1
	}
	o.disj.reset()
}

// newHash draws a fresh seed pair.
func (o *Othello) newHash() {
	o.ha.SetSeed(o.rng.Uint32())
	o.hb.SetSeed(o.rng.Uint32())
	o.tries++
}

// addEdge prepends key kid to the lists of both endpoints and records the
// connection in the disjoint set. Values and the index table are untouched.
func (o *Othello) addEdge(kid int32, a, b uint32) {
	o.nextA[kid] = o.head[a]
	o.head[a] = kid
	o.nextB[kid] = o.head[b]
	o.head[b] = kid
	o.disj.merge(int32(a), int32(b))
}

// testHash adds every key's edge, failing as soon as an edge would close a
// cycle. On success the adjacency lists and disjoint set describe a forest.
func (o *Othello) testHash() bool {
	for i := range o.kvs {
		a, b := o.endpoints(o.kvs[i].key)
		if o.disj.sameSet(int32(a), int32(b)) {
			return false
		}
		o.addEdge(int32(i), a, b)
	}
	return true
}

// fillTree walks the connected component of root in BFS order. For every
// edge crossing from a settled node to an unsettled one it derives the
// opposite cell so the XOR invariant holds: value(k) = mem[a]^mem[b] and
// index(k) = indMem[a]^indMem[b]. Each node is visited exactly once; the
// scratch marks are undone by replaying the queue.
func (o *Othello) fillTree(root uint32, fillValue, fillIndex bool) {
	q := o.queue[:0]
	o.visited[root] = true
	q = append(q, root)

	for qi := 0; qi < len(q); qi++ {
		node := q[qi]
		next := o.nextB
		if node < o.ma {
			next = o.nextA
		}
		for kid := o.head[node]; kid >= 0; kid = next[kid] {
			a, b := o.endpoints(o.kvs[kid].key)
			src, dst := a, b
			if !o.visited[a] {
				src, dst = b, a
			}
			if o.visited[dst] {
				continue
			}
			if fillValue {
				o.mem.set(dst, (o.kvs[kid].val^o.mem.get(src))&o.lmask)
			}
			if fillIndex {
				o.indMem[dst] = uint32(kid) ^ o.indMem[src]
			}
			o.visited[dst] = true
			q = append(q, dst)
		}
	}
	for _, v := range q {
		o.visited[v] = false
	}
	o.queue = q[:0]
}

// fillAll seeds one random cell per component root and derives the rest of
// each tree from it.
func (o *Othello) fillAll() {
	total := o.ma + o.mb
	for v := uint32(0); v < total; v++ {
		if o.disj.isRoot(int32(v)) {
			o.mem.set(v, o.rng.Uint64()&o.lmask)
			o.fillTree(v, true, true)
		}
	}
}

// tryBuild runs one build attempt with the current seeds.
func (o *Othello) tryBuild() bool {
	o.resetBuildState()
	if len(o.kvs) == 0 {
		return true
	}
	ok := o.testHash()
	if ok {
		o.fillAll()
	}
	// The disjoint set is only meaningful during the attempt; it is not
	// maintained across insert and erase.
	o.disj.reset()
	return ok
}

// build retries attempts with fresh seed pairs until one succeeds or the
// rehash limit is reached.
func (o *Othello) build() error {
	o.tries = 0
	for {
		o.newHash()
		if o.tryBuild() {
			return nil
		}
		if o.tries >= o.maxRehash {
			return errors.Wrapf(ErrBuildExhausted,
				"%d keys, ma/mb = %d/%d, %d tries", len(o.kvs), o.ma, o.mb, o.tries)
		}
	}
}

// testConnected reports whether node b0 is reachable from node a0 over the
// current adjacency, i.e. whether a new edge (a0, b0) would close a cycle.
// Key indices are enqueued as kid when traversed A-to-B and as -kid-1 when
// traversed B-to-A, so the edge that led into a node is not walked back.
func (o *Othello) testConnected(a0, b0 uint32) bool {
	var q []int32
	for t := o.head[a0]; t >= 0; t = o.nextA[t] {
		q = append(q, t)
	}
	for qi := 0; qi < len(q); qi++ {
		e := q[qi]
		aToB := e >= 0
		kid := e
		if !aToB {
			kid = -e - 1
		}
		a, b := o.endpoints(o.kvs[kid].key)
		if b == b0 {
			return true
		}
		if aToB {
			for t := o.head[b]; t >= 0; t = o.nextB[t] {
				if t != kid {
					q = append(q, -t-1)
				}
			}
		} else {
			for t := o.head[a]; t >= 0; t = o.nextA[t] {
				if t != kid {
					q = append(q, t)
				}
			}
		}
	}
	return false
}

// Insert adds one key-value pair. If the new edge would close a cycle, or if
// the tables had to grow, the whole structure is rebuilt from scratch with
// all keys; otherwise the new branch is filled in place and no other
// component is disturbed. On a failed rebuild the key is rolled back and the
// error returned.
func (o *Othello) Insert(key []byte, value uint64) error {
	n := len(o.kvs)
	o.reserveKeys(n + 1)
	rebuilt := o.resizeTables(n + 1)
	o.kvs = append(o.kvs, kv{key: key, val: value})

	if rebuilt {
		if err := o.build(); err != nil {
			o.kvs = o.kvs[:n]
			return err
		}
		return nil
	}

	a, b := o.endpoints(key)
	if o.testConnected(a, b) {
		if err := o.build(); err != nil {
			o.kvs = o.kvs[:n]
			return err
		}
		return nil
	}
	o.addEdge(int32(n), a, b)
	o.fillTree(a, true, true)
	return nil
}

// unlink removes key kid from the list of node; next is the link array of
// the partition node belongs to.
func (o *Othello) unlink(kid int32, node uint32, next []int32) {
	if o.head[node] == kid {
		o.head[node] = next[kid]
		return
	}
	t := o.head[node]
	for next[t] != kid {
		t = next[t]
	}
	next[t] = next[kid]
}

// relink rewrites the occurrence of key old in node's list to new, carrying
// over old's link.
func (o *Othello) relink(old, new int32, node uint32, next []int32) {
	next[new] = next[old]
	if o.head[node] == old {
		o.head[node] = new
		return
	}
	t := o.head[node]
	for next[t] != old {
		t = next[t]
	}
	next[t] = new
}

// EraseAt removes the key at index i. The tail key is swapped into the hole,
// its adjacency entries are rewritten to the new index, and the index table
// of its component is re-derived. Cell values are unaffected.
func (o *Othello) EraseAt(i int) error {
	n := len(o.kvs)
	if i < 0 || i >= n {
		return errors.Wrapf(ErrIndexOutOfRange, "erase at %d, size %d", i, n)
	}
	a, b := o.endpoints(o.kvs[i].key)
	o.unlink(int32(i), a, o.nextA)
	o.unlink(int32(i), b, o.nextB)

	last := n - 1
	if i == last {
		o.kvs[last] = kv{}
		o.kvs = o.kvs[:last]
		return nil
	}

	o.kvs[i] = o.kvs[last]
	o.kvs[last] = kv{}
	o.kvs = o.kvs[:last]

	la, lb := o.endpoints(o.kvs[i].key)
	o.relink(int32(last), int32(i), la, o.nextA)
	o.relink(int32(last), int32(i), lb, o.nextB)
	o.fillTree(la, false, true)
	return nil
}

// Erase removes key if present and reports whether it was.
func (o *Othello) Erase(key []byte) bool {
	if !o.IsMember(key) {
		return false
	}
	// QueryIndex is exact for members, so EraseAt cannot fail here.
	_ = o.EraseAt(int(o.QueryIndex(key)))
	return true
}

// UpdateValueAt replaces the value stored for the key at index i and
// re-derives the cells of that key's component so queries observe it.
func (o *Othello) UpdateValueAt(i int, value uint64) error {
	if i < 0 || i >= len(o.kvs) {
		return errors.Wrapf(ErrIndexOutOfRange, "update at %d, size %d", i, len(o.kvs))
	}
	o.kvs[i].val = value
	a, _ := o.endpoints(o.kvs[i].key)
	o.fillTree(a, true, false)
	return nil
}

// Query returns the value mapped to key, masked to the configured width.
// For keys that were never inserted the result is arbitrary but
// deterministic.
func (o *Othello) Query(key []byte) uint64 {
	a, b := o.endpoints(key)
	return (o.mem.get(a) ^ o.mem.get(b)) & o.lmask
}

// QueryIndex returns the position of key in the key-value list. Exact for
// inserted keys, arbitrary for others.
func (o *Othello) QueryIndex(key []byte) uint32 {
	a, b := o.endpoints(key)
	return o.indMem[a] ^ o.indMem[b]
}

// IsMember reports whether key was inserted, with one XOR and one key
// comparison.
func (o *Othello) IsMember(key []byte) bool {
	i := o.QueryIndex(key)
	return int64(i) < int64(len(o.kvs)) && bytes.Equal(o.kvs[i].key, key)
}

// Size returns the number of stored keys.
func (o *Othello) Size() int {
	return len(o.kvs)
}

// MemSize returns the size in bytes of the value cell array, the part a data
// plane carries.
func (o *Othello) MemSize() int {
	return o.mem.nbytes()
}

// CheckIntegrity verifies the XOR invariant for every stored key and that
// the stored edges still form a forest.
func (o *Othello) CheckIntegrity() error {
	for i := range o.kvs {
		if got, want := o.Query(o.kvs[i].key), o.kvs[i].val&o.lmask; got != want {
			return errors.Errorf("othello: key %d maps to %#x, want %#x", i, got, want)
		}
		if got := o.QueryIndex(o.kvs[i].key); got != uint32(i) {
			return errors.Errorf("othello: key %d indexes to %d", i, got)
		}
	}
	d := newDisjointSet(int(o.ma + o.mb))
	for i := range o.kvs {
		a, b := o.endpoints(o.kvs[i].key)
		if d.sameSet(int32(a), int32(b)) {
			return errors.Errorf("othello: key %d closes a cycle", i)
		}
		d.merge(int32(a), int32(b))
	}
	return nil
}
