// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package csprng provides the toolkit's pluggable CSPRNG source
// (component C8): a ChaCha20-backed io.Reader that Key256.New and
// aead.Cipher.Encrypt draw on for uniformly random bytes, pooled across
// shards for concurrent use.
package csprng

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/chacha20"

	"github.com/opensse/rcprf-tk/logging"
)

// Reader is the package-level random source, initialized at load time
// with DefaultConfig. It panics on init if the OS entropy source cannot
// be reached at all — a cryptographic byte source that silently fails
// open is worse than one that refuses to start.
var Reader io.Reader

// Interface is satisfied by any pooled CSPRNG reader returned by
// NewReader, exposing the non-secret Config alongside io.Reader.
type Interface interface {
	io.Reader

	// Config returns a copy of this source's operating parameters. It
	// never exposes key material or mutable internal state.
	Config() Config
}

func init() {
	cfg := DefaultConfig()
	pools, err := buildShardPools(cfg)
	if err != nil {
		panic(err)
	}
	Reader = &pooledReader{pools: pools}
}

// pooledReader draws from a set of sync.Pool-managed shards, each an
// independent ChaCha20 keystream with its own rekey schedule.
type pooledReader struct {
	config *Config
	pools  []*sync.Pool
}

// NewReader builds a pooled CSPRNG source customized by opts. The
// returned Interface is safe for concurrent use; construction fails if
// even one shard cannot source a key/nonce pair within MaxInitRetries
// attempts.
func NewReader(opts ...Option) (Interface, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Shards <= 0 {
		// A fractional CPU quota under cgroups can report GOMAXPROCS(0)
		// as 1; either way this keeps the shard count sane.
		cfg.Shards = runtime.GOMAXPROCS(0)
	}

	pools, err := buildShardPools(cfg)
	if err != nil {
		return nil, err
	}
	return &pooledReader{pools: pools, config: &cfg}, nil
}

// buildShardPools constructs cfg.Shards independent sync.Pool instances
// of *shard, each primed and tested eagerly so a catastrophic entropy
// failure surfaces at construction time rather than on first Read.
func buildShardPools(cfg Config) ([]*sync.Pool, error) {
	pools := make([]*sync.Pool, cfg.Shards)
	for i := range pools {
		cfg := cfg
		pools[i] = &sync.Pool{
			New: func() interface{} {
				var (
					s   *shard
					err error
				)
				for r := 0; r < cfg.MaxInitRetries; r++ {
					if s, err = newShard(&cfg); err == nil {
						return s
					}
				}
				return nil
			},
		}

		item := pools[i].Get()
		if item == nil {
			logger := cfg.Logger
			if logger == nil {
				logger = logging.NoOp()
			}
			logger.Error(context.Background(), "csprng: shard initialization failed",
				"shard", i, "retries", cfg.MaxInitRetries)
			return nil, fmt.Errorf("csprng: shard initialization failed after %d retries", cfg.MaxInitRetries)
		}
		pools[i].Put(item)
	}
	return pools, nil
}

func (r *pooledReader) Config() Config {
	return *r.config
}

// shardIndex picks a pool shard via math/rand/v2's top-level IntN (its
// runtime-seeded global source); it only balances load across shards and never influences the
// bytes a shard actually emits.
func shardIndex(n int) int {
	return mrand.IntN(n)
}

func (r *pooledReader) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	n := len(r.pools)
	idx := 0
	if n > 1 {
		idx = shardIndex(n)
	}

	s := r.pools[idx].Get().(*shard)
	defer r.pools[idx].Put(s)

	return s.Read(b)
}

// shard is one ChaCha20 keystream in the pool, rekeying itself
// asynchronously once its output crosses config.MaxBytesPerKey.
type shard struct {
	config *Config

	// cipher is swapped atomically so Read never blocks on a rekey in
	// progress.
	cipher atomic.Value

	// zero is reused scratch plaintext for XORKeyStream; each shard is
	// pool-checked-out to one goroutine at a time, so no lock guards it.
	zero []byte

	usage    uint64
	rekeying uint32
}

func (s *shard) Read(b []byte) (int, error) {
	n := len(b)
	if n == 0 {
		return 0, nil
	}

	stream := s.cipher.Load().(*chacha20.Cipher)

	if s.config.UseZeroBuffer {
		if cap(s.zero) < n {
			s.zero = make([]byte, n)
		} else {
			s.zero = s.zero[:n]
		}
		stream.XORKeyStream(b, s.zero)
	} else {
		stream.XORKeyStream(b, b)
	}

	if s.config.EnableKeyRotation {
		atomic.AddUint64(&s.usage, uint64(n))
		if atomic.LoadUint64(&s.usage) > s.config.MaxBytesPerKey {
			if atomic.CompareAndSwapUint32(&s.rekeying, 0, 1) {
				go s.asyncRekey()
			}
		}
	}

	return n, nil
}

func newShard(config *Config) (*shard, error) {
	stream, err := newCipher()
	if err != nil {
		return nil, err
	}

	var zero []byte
	if config.UseZeroBuffer && config.DefaultBufferSize > 0 {
		zero = make([]byte, config.DefaultBufferSize)
	} else {
		zero = make([]byte, 0)
	}

	s := &shard{zero: zero, config: config}
	s.cipher.Store(stream)
	return s, nil
}

// newCipher draws a fresh key and nonce from crypto/rand, builds the
// ChaCha20 cipher, and zeroes the seed material before returning.
func newCipher() (*chacha20.Cipher, error) {
	key := make([]byte, chacha20.KeySize)
	nonce := make([]byte, chacha20.NonceSizeX)

	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("csprng: failed to read key: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("csprng: failed to read nonce: %w", err)
	}

	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)

	for i := range key {
		key[i] = 0
	}
	for i := range nonce {
		nonce[i] = 0
	}

	if err != nil {
		return nil, fmt.Errorf("csprng: unable to initialize cipher: %w", err)
	}
	return stream, nil
}

// asyncRekey retries sourcing a fresh cipher up to config.MaxRekeyAttempts
// times with jittered exponential backoff, swapping it in on success and
// wiping the superseded cipher's state. It leaves the current cipher in
// place if every attempt fails.
func (s *shard) asyncRekey() {
	defer atomic.StoreUint32(&s.rekeying, 0)

	base := s.config.RekeyBackoff
	maxBackoff := s.config.MaxRekeyBackoff
	if maxBackoff == 0 {
		maxBackoff = maxRekeyBackoff
	}

	logger := s.config.Logger
	if logger == nil {
		logger = logging.NoOp()
	}

	for i := 0; i < s.config.MaxRekeyAttempts; i++ {
		old := s.cipher.Load().(*chacha20.Cipher)

		stream, err := newCipher()
		if err == nil {
			s.cipher.Store(stream)
			atomic.StoreUint64(&s.usage, 0)
			*old = chacha20.Cipher{}
			logger.Info(context.Background(), "csprng: shard rekeyed", "attempt", i+1)
			return
		}

		var jitter [8]byte
		if _, err := rand.Read(jitter[:]); err == nil {
			rnd := binary.BigEndian.Uint64(jitter[:])
			time.Sleep(base + time.Duration(rnd%uint64(base)))
		} else {
			time.Sleep(base)
		}

		base *= 2
		if base > maxBackoff {
			base = maxBackoff
		}
	}

	logger.Warn(context.Background(), "csprng: shard rekey exhausted, keeping current cipher",
		"attempts", s.config.MaxRekeyAttempts)
}
