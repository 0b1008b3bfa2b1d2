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

// DataPlane is a read-only snapshot of an Othello's tables and hash seeds.
// It has no mutating methods besides UpdateFromControlPlane and is safe to
// share across concurrently reading goroutines once published.
type DataPlane struct {
	ma, mb uint32
	ha, hb Hasher32
	mem    cellStore
	lmask  uint64
}

// Snapshot captures the current tables for data-plane queries. Later control
// plane mutations are not reflected until UpdateFromControlPlane.
func (o *Othello) Snapshot() *DataPlane {
	return &DataPlane{
		ma:    o.ma,
		mb:    o.mb,
		ha:    o.ha,
		hb:    o.hb,
		mem:   o.mem.clone(),
		lmask: o.lmask,
	}
}

// UpdateFromControlPlane re-copies the control plane's tables and seeds.
// The caller is responsible for publishing the snapshot to readers; the copy
// must complete before readers observe it.
func (d *DataPlane) UpdateFromControlPlane(o *Othello) {
	d.ma = o.ma
	d.mb = o.mb
	d.ha = o.ha
	d.hb = o.hb
	d.mem = o.mem.clone()
	d.lmask = o.lmask
}

// Query returns the value mapped to key, masked to the configured width.
// Arbitrary but deterministic for keys the control plane never stored.
func (d *DataPlane) Query(key []byte) uint64 {
	a := d.ha.Hash(key) & (d.ma - 1)
	b := d.ma + d.hb.Hash(key)&(d.mb-1)
	return (d.mem.get(a) ^ d.mem.get(b)) & d.lmask
}

// MemUsage returns the snapshot's table size in bytes.
func (d *DataPlane) MemUsage() int {
	return d.mem.nbytes()
}
