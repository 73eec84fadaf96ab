// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package prf implements PRF (component C2): a keyed function producing
// arbitrary-length pseudo-random output from a byte input, built on a
// blake2b keyed hash run in counter mode.
//
// The output length is bound into the computation as domain separation: two
// calls with the same key and input but different requested lengths are not
// related by a common prefix. golang.org/x/crypto/blake2b does not expose
// the RFC 7693 salt/personalization parameter-block fields that the
// reference construction uses for that binding, so both 8-byte fields are
// hashed into the preimage instead, ahead of the real input; blake2b.New's
// own hash-length parameter still participates in its IV mixing, so the
// length-binding property holds under this substitution.
package prf

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/opensse/rcprf-tk/key256"
)

// blockSize is blake2b's native output size; Fill emits output in blocks of
// at most this many bytes, one blake2b invocation per block.
const blockSize = 64

// PRF owns a single Key256 and is stateless after construction: every call
// to Fill is a pure function of the key, the counter-mode block index, the
// requested output length, and the input.
type PRF struct {
	key *key256.Key256
}

// FromKey constructs a PRF from an existing key. The PRF takes ownership of
// key; callers must not retain their own reference to it.
func FromKey(key *key256.Key256) *PRF {
	return &PRF{key: key}
}

// New constructs a PRF keyed with a fresh, randomly generated Key256.
func New() (*PRF, error) {
	k, err := key256.New()
	if err != nil {
		return nil, err
	}
	return FromKey(k), nil
}

// Zero zeroes the PRF's embedded key material.
func (p *PRF) Zero() {
	p.key.Zero()
}

// KeyBytes exposes the PRF's key content for serialization. The returned
// slice aliases the PRF's internal key storage.
func (p *PRF) KeyBytes() []byte {
	return p.key.Bytes()
}

// CloneInsecure returns a PRF keyed with an independent copy of p's key.
// Named loudly for the same reason as Key256.CloneInsecure: the RC-PRF tree
// engine uses it to plant a borrowed subtree key into a long-lived leaf
// element.
func (p *PRF) CloneInsecure() *PRF {
	return FromKey(p.key.CloneInsecure())
}

// Fill deterministically fills output with exactly len(output) bytes of
// pseudo-random output derived from input under the PRF's key.
//
// For block i = 0, 1, ..., Fill evaluates a blake2b-keyed hash of length
// min(blockSize, len(output)-64*i) over the 16-byte header
// (i as a little-endian u64, len(output) as a little-endian u64) followed
// by input, and concatenates the blocks until len(output) bytes have been
// produced.
func (p *PRF) Fill(input, output []byte) error {
	total := uint64(len(output))
	written := 0
	for i := uint64(0); written < len(output); i++ {
		remaining := len(output) - written
		outLen := remaining
		if outLen > blockSize {
			outLen = blockSize
		}

		h, err := blake2b.New(outLen, p.key.Bytes())
		if err != nil {
			return err
		}

		var header [16]byte
		binary.LittleEndian.PutUint64(header[0:8], i)
		binary.LittleEndian.PutUint64(header[8:16], total)
		if _, err := h.Write(header[:]); err != nil {
			return err
		}
		if _, err := h.Write(input); err != nil {
			return err
		}

		copy(output[written:written+outLen], h.Sum(nil))
		written += outLen
	}
	return nil
}
