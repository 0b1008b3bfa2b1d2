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

func TestStressOthelloRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	keys, _ := randomKVs(10000, 67)
	values := make([]uint64, len(keys))
	for i := range values {
		values[i] = uint64(rng.Uint32())
	}
	o, err := New(&Config{Keys: keys, Values: values})
	require.NoError(t, err)
	requireRoundTrip(t, o, keys, values)
	require.NoError(t, o.CheckIntegrity())
}

func TestStressOthelloLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large build in short mode")
	}
	keys, values := randomKVs(100000, 71)
	o, err := New(&Config{Keys: keys, Values: values})
	require.NoError(t, err)
	requireRoundTrip(t, o, keys, values)
}

// Random interleaving of inserts and erases, verified against a map.
func TestStressOthelloChurn(t *testing.T) {
	keys, values := randomKVs(4000, 73)
	o, err := New(&Config{Keys: keys[:2000], Values: values[:2000]})
	require.NoError(t, err)

	live := make(map[int]bool, len(keys))
	for i := 0; i < 2000; i++ {
		live[i] = true
	}

	rng := rand.New(rand.NewSource(79))
	next := 2000
	for step := 0; step < 3000; step++ {
		if next < len(keys) && (rng.Intn(2) == 0 || len(live) == 0) {
			require.NoError(t, o.Insert(keys[next], values[next]))
			live[next] = true
			next++
			continue
		}
		// Pick an arbitrary live key to erase.
		for i := range live {
			require.True(t, o.Erase(keys[i]))
			delete(live, i)
			break
		}
	}

	require.Equal(t, len(live), o.Size())
	for i := range keys[:next] {
		if live[i] {
			require.True(t, o.IsMember(keys[i]), "key %d", i)
			require.Equal(t, values[i], o.Query(keys[i]), "key %d", i)
		} else {
			require.False(t, o.IsMember(keys[i]), "key %d", i)
		}
	}
	require.NoError(t, o.CheckIntegrity())
}

func BenchmarkOthelloBuild(b *testing.B) {
	keys, values := randomKVs(10000, 83)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := New(&Config{Keys: keys, Values: values}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOthelloQuery(b *testing.B) {
	keys, values := randomKVs(10000, 89)
	o, err := New(&Config{Keys: keys, Values: values})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		o.Query(keys[i%len(keys)])
	}
}

func BenchmarkDataPlaneQuery(b *testing.B) {
	keys, values := randomKVs(10000, 97)
	o, err := New(&Config{Keys: keys, Values: values})
	if err != nil {
		b.Fatal(err)
	}
	dp := o.Snapshot()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dp.Query(keys[i%len(keys)])
	}
}

func BenchmarkCascadeContains(b *testing.B) {
	revoked := stringKeys("revoked", 10000)
	stay := stringKeys("stay", 10000)
	c, err := NewCascade(&CascadeConfig{Revoked: revoked, Stay: stay, FPRate: 0.5})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Contains(revoked[i%len(revoked)])
	}
}
