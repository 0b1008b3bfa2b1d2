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

// othello-bench builds an Othello hash and a multi-level Bloom filter
// cascade over the same revoked/stay key files and compares build time,
// size and query throughput.
package main

import (
	"bufio"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"

	membership "github.com/hmyan90/othello-vs-multi-level-bloom-filter"
	"github.com/hmyan90/othello-vs-multi-level-bloom-filter/stats"
)

const (
	revokedValue = 1
	stayValue    = 0

	// latencySample spaces out the per-query clock reads so the histogram
	// does not dominate the measured loop.
	latencySample = 1024
)

var (
	fpRate      = flag.Float64("fp-rate", 0.5, "per-level false-positive target for the cascade")
	firstFpRate = flag.Float64("first-fp-rate", 0, "level-1 rate; non-zero selects the dual-rate cascade variant")
	queries     = flag.Int("queries", 10000000, "number of queries per structure")
	seed        = flag.Int64("seed", membership.DefaultSeed, "pseudo-random seed for builds and query order")
	cpu         = flag.Int("cpu", -1, "pin the process to this CPU; -1 leaves scheduling alone")
	optimalK    = flag.Bool("optimal-k", false, "size cascade levels with the optimal hash count instead of one")
)

// loadKeys reads one key per line. Each line is truncated to its first half;
// the truncation is part of the original measurement setup and is kept so
// the benchmark numbers stay comparable.
func loadKeys(path string) ([][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var keys [][]byte
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		keys = append(keys, []byte(line[:len(line)/2]))
	}
	return keys, errors.Wrapf(sc.Err(), "read %s", path)
}

func mb(n int) float64 {
	return float64(n) / (1 << 20)
}

// queryAll runs the measured loop against one structure and prints error
// count, mean latency, throughput and a latency histogram.
func queryAll(name string, idx []int, revoked, stay [][]byte, query func([]byte) bool) {
	fmt.Printf("---%s---\n", name)
	hist := stats.NewHistogram(stats.HistogramBounds(4, 16))
	numErr := 0
	start := time.Now()
	for i, id := range idx {
		var key []byte
		want := false
		if id < len(revoked) {
			key = revoked[id]
			want = true
		} else {
			key = stay[id-len(revoked)]
		}
		if i%latencySample == 0 {
			qs := time.Now()
			if query(key) != want {
				numErr++
			}
			hist.Update(time.Since(qs).Nanoseconds())
			continue
		}
		if query(key) != want {
			numErr++
		}
	}
	elapsed := time.Since(start)

	fmt.Printf("Error count %d\n", numErr)
	fmt.Printf("Average query time: %.4fus\n",
		float64(elapsed.Microseconds())/float64(len(idx)))
	fmt.Printf("Query throughput is: %s queries/s\n",
		humanize.Comma(int64(float64(len(idx))/elapsed.Seconds())))
	fmt.Printf("Latency (ns):%s\n", hist)
}

func main() {
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: othello-bench [flags] revoked_file stay_file")
		os.Exit(1)
	}
	if *cpu >= 0 {
		if err := pinToCPU(*cpu); err != nil {
			log.Printf("cpu pinning: %v", err)
		}
	}

	revoked, err := loadKeys(flag.Arg(0))
	if err != nil {
		log.Fatalf("load revoked keys: %v", err)
	}
	stay, err := loadKeys(flag.Arg(1))
	if err != nil {
		log.Fatalf("load stay keys: %v", err)
	}
	fmt.Printf("Loaded %s revoked and %s stay keys\n",
		humanize.Comma(int64(len(revoked))), humanize.Comma(int64(len(stay))))

	keys := make([][]byte, 0, len(revoked)+len(stay))
	values := make([]uint64, 0, len(revoked)+len(stay))
	for _, k := range revoked {
		keys = append(keys, k)
		values = append(values, revokedValue)
	}
	for _, k := range stay {
		keys = append(keys, k)
		values = append(values, stayValue)
	}

	start := time.Now()
	oth, err := membership.New(&membership.Config{
		Keys:   keys,
		Values: values,
		Seed:   *seed,
	})
	if err != nil {
		log.Fatalf("othello build: %v", err)
	}
	fmt.Printf("Othello build time: %dms (%s)\n",
		time.Since(start).Milliseconds(), oth.Metrics())
	dataPlane := oth.Snapshot()

	start = time.Now()
	cascade, err := membership.NewCascade(&membership.CascadeConfig{
		Revoked:     revoked,
		Stay:        stay,
		FPRate:      *fpRate,
		FirstFPRate: *firstFpRate,
		Seed:        *seed,
		OptimalK:    *optimalK,
	})
	if err != nil {
		log.Fatalf("mlbf build: %v", err)
	}
	fmt.Printf("MLBF build time: %dms (%s)\n",
		time.Since(start).Milliseconds(), cascade.Metrics())

	fmt.Printf("Othello size: %.2fMB (%s)\n",
		mb(dataPlane.MemUsage()), humanize.IBytes(uint64(dataPlane.MemUsage())))
	fmt.Printf("MLBF size: %.2fMB (%s)\n",
		mb(cascade.ByteSize()), humanize.IBytes(uint64(cascade.ByteSize())))

	total := len(revoked) + len(stay)
	if total == 0 {
		return
	}
	fmt.Printf("query %s times\n", humanize.Comma(int64(*queries)))
	rng := rand.New(rand.NewSource(*seed))
	idx := make([]int, *queries)
	for i := range idx {
		idx[i] = rng.Intn(total)
	}

	queryAll("Othello", idx, revoked, stay, func(k []byte) bool {
		return dataPlane.Query(k) == revokedValue
	})
	queryAll("MLBF", idx, revoked, stay, cascade.Contains)
}
