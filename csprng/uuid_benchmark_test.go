// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package csprng

import (
	"sync"
	"testing"

	"github.com/google/uuid"
)

// benchConcurrent runs fn across goroutines goroutines, splitting b.N
// iterations as evenly as possible.
func benchConcurrent(b *testing.B, fn func(), goroutines int) {
	nPerG := b.N / goroutines
	rem := b.N % goroutines
	var wg sync.WaitGroup
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < goroutines; i++ {
		iters := nPerG
		if i < rem {
			iters++
		}
		wg.Add(1)
		go func(iters int) {
			defer wg.Done()
			for j := 0; j < iters; j++ {
				fn()
			}
		}(iters)
	}
	wg.Wait()
}

// itoa renders i without the allocations b.Run's Sprintf would add on
// a hot sub-benchmark loop.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [12]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = '0' + byte(i%10)
		i /= 10
	}
	return string(buf[pos:])
}

// BenchmarkUUID_v4_Default_Serial baselines uuid.New() on its default crypto/rand source.
func BenchmarkUUID_v4_Default_Serial(b *testing.B) {
	uuid.SetRand(nil)
	b.ReportAllocs()
	for b.Loop() {
		_ = uuid.New()
	}
}

// BenchmarkUUID_v4_Default_Parallel runs the same baseline under RunParallel.
func BenchmarkUUID_v4_Default_Parallel(b *testing.B) {
	uuid.SetRand(nil)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = uuid.New()
		}
	})
}

// BenchmarkUUID_v4_Default_Concurrent sweeps goroutine counts against the baseline.
func BenchmarkUUID_v4_Default_Concurrent(b *testing.B) {
	uuid.SetRand(nil)
	for _, gr := range []int{2, 4, 8, 16, 32, 64, 128, 256} {
		b.Run("Goroutines_"+itoa(gr), func(b *testing.B) {
			benchConcurrent(b, func() { _ = uuid.New() }, gr)
		})
	}
}

// BenchmarkUUID_v4_CSPRNG_Serial swaps uuid.SetRand to the package Reader.
func BenchmarkUUID_v4_CSPRNG_Serial(b *testing.B) {
	uuid.SetRand(Reader)
	defer uuid.SetRand(nil)
	b.ReportAllocs()
	for b.Loop() {
		_ = uuid.New()
	}
}

// BenchmarkUUID_v4_CSPRNG_Parallel runs the CSPRNG source under RunParallel.
func BenchmarkUUID_v4_CSPRNG_Parallel(b *testing.B) {
	uuid.SetRand(Reader)
	defer uuid.SetRand(nil)
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = uuid.New()
		}
	})
}

// BenchmarkUUID_v4_CSPRNG_Concurrent sweeps goroutine counts against the CSPRNG source.
func BenchmarkUUID_v4_CSPRNG_Concurrent(b *testing.B) {
	uuid.SetRand(Reader)
	defer uuid.SetRand(nil)
	for _, gr := range []int{2, 4, 8, 16, 32, 64, 128, 256} {
		b.Run("Goroutines_"+itoa(gr), func(b *testing.B) {
			benchConcurrent(b, func() { _ = uuid.New() }, gr)
		})
	}
}

// BenchmarkUUID_v4_CSPRNG_SingleShard isolates shard contention by
// forcing a single shard behind the CSPRNG source, the worst case for
// concurrent UUID generation since every goroutine blocks on the same
// sync.Pool entry.
func BenchmarkUUID_v4_CSPRNG_SingleShard(b *testing.B) {
	rdr, err := NewReader(WithShards(1))
	if err != nil {
		b.Fatalf("NewReader failed: %v", err)
	}
	uuid.SetRand(rdr)
	defer uuid.SetRand(nil)
	for _, gr := range []int{2, 8, 32, 128} {
		b.Run("Goroutines_"+itoa(gr), func(b *testing.B) {
			benchConcurrent(b, func() { _ = uuid.New() }, gr)
		})
	}
}
