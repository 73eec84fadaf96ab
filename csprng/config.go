// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package csprng

import (
	"runtime"
	"time"

	"github.com/opensse/rcprf-tk/logging"
)

// Config tunes the pool of ChaCha20-PRNG shards backing Key256 generation
// and every AEAD-Wrap nonce draw.
type Config struct {
	// MaxBytesPerKey is the output, in bytes, a shard emits under one
	// key/nonce pair before an asynchronous rekey is triggered. It only
	// takes effect when EnableKeyRotation is set; with rotation enabled,
	// zero triggers a rekey after every non-empty Read.
	MaxBytesPerKey uint64

	// MaxInitRetries bounds how many times a shard may retry sourcing a
	// fresh key/nonce from the OS entropy pool before initialization is
	// treated as failed.
	MaxInitRetries int

	// MaxRekeyAttempts bounds how many times asyncRekey retries before
	// giving up and leaving the shard's current cipher in place.
	MaxRekeyAttempts int

	// RekeyBackoff is the initial delay between failed rekey attempts;
	// it doubles on each subsequent failure up to MaxRekeyBackoff.
	RekeyBackoff time.Duration

	// MaxRekeyBackoff caps the exponential backoff between rekey
	// attempts.
	MaxRekeyBackoff time.Duration

	// EnableKeyRotation turns on the MaxBytesPerKey-triggered rekey.
	EnableKeyRotation bool

	// UseZeroBuffer selects a zero-filled scratch buffer for
	// XORKeyStream instead of XORing a buffer into itself in place.
	UseZeroBuffer bool

	// DefaultBufferSize preallocates the zero scratch buffer when
	// UseZeroBuffer is set.
	DefaultBufferSize int

	// Shards is the number of independent pool shards. Zero defaults to
	// runtime.GOMAXPROCS(0).
	Shards int

	// Logger traces shard initialization failures and rekey events
	// (component C9). Never logs key, nonce, or cipher state. Defaults
	// to logging.NoOp(); the package-level Reader always uses NoOp,
	// since only NewReader's explicit opts can supply one.
	Logger logging.Logger
}

const (
	maxRekeyAttempts  = 5
	rekeyBackoff      = 100 * time.Millisecond
	maxRekeyBackoff   = 2 * time.Second
	maxBytesPerKey    = 1 << 30
	defaultBufferSize = 64
)

// DefaultConfig returns the recommended production defaults: 1 GiB per
// key, three init retries, five rekey attempts backing off from 100ms to
// 2s, key rotation and the zero buffer both disabled, and one shard per
// GOMAXPROCS.
func DefaultConfig() Config {
	return Config{
		MaxBytesPerKey:    maxBytesPerKey,
		MaxInitRetries:    3,
		MaxRekeyAttempts:  maxRekeyAttempts,
		MaxRekeyBackoff:   maxRekeyBackoff,
		RekeyBackoff:      rekeyBackoff,
		UseZeroBuffer:     false,
		EnableKeyRotation: false,
		DefaultBufferSize: defaultBufferSize,
		Shards:            runtime.GOMAXPROCS(0),
		Logger:            logging.NoOp(),
	}
}

// Option customizes a Config passed to NewReader.
type Option func(*Config)

// WithMaxBytesPerKey sets the per-key output budget before rekeying.
func WithMaxBytesPerKey(n uint64) Option {
	return func(cfg *Config) { cfg.MaxBytesPerKey = n }
}

// WithMaxInitRetries sets the shard-initialization retry budget.
func WithMaxInitRetries(r int) Option {
	return func(cfg *Config) { cfg.MaxInitRetries = r }
}

// WithMaxRekeyAttempts sets the asynchronous-rekey retry budget.
func WithMaxRekeyAttempts(r int) Option {
	return func(cfg *Config) { cfg.MaxRekeyAttempts = r }
}

// WithMaxRekeyBackoff caps the exponential backoff between rekey
// attempts.
func WithMaxRekeyBackoff(d time.Duration) Option {
	return func(cfg *Config) { cfg.MaxRekeyBackoff = d }
}

// WithRekeyBackoff sets the initial backoff before the first rekey
// retry.
func WithRekeyBackoff(d time.Duration) Option {
	return func(cfg *Config) { cfg.RekeyBackoff = d }
}

// WithEnableKeyRotation turns the MaxBytesPerKey-triggered rekey on or
// off.
func WithEnableKeyRotation(enable bool) Option {
	return func(cfg *Config) { cfg.EnableKeyRotation = enable }
}

// WithZeroBuffer selects the zero-filled scratch buffer XORKeyStream
// path over in-place XOR.
func WithZeroBuffer(enable bool) Option {
	return func(cfg *Config) { cfg.UseZeroBuffer = enable }
}

// WithDefaultBufferSize preallocates the zero scratch buffer; only
// relevant alongside WithZeroBuffer(true).
func WithDefaultBufferSize(n int) Option {
	return func(cfg *Config) { cfg.DefaultBufferSize = n }
}

// WithShards sets the number of independent pool shards. n <= 0 falls
// back to runtime.GOMAXPROCS(0), which keeps the default sane inside a
// container with a fractional CPU quota.
func WithShards(n int) Option {
	return func(cfg *Config) { cfg.Shards = n }
}

// WithLogger attaches a logging.Logger for shard init failures and
// rekey events. A nil l is treated as logging.NoOp().
func WithLogger(l logging.Logger) Option {
	return func(cfg *Config) {
		if l == nil {
			l = logging.NoOp()
		}
		cfg.Logger = l
	}
}
