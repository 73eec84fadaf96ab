// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package prg implements PRG and KDPRG (component C3): a seekable
// pseudo-random generator backed by ChaCha20 with a fixed all-zero nonce,
// addressable by byte offset, plus its key-deriving variant used by the
// RC-PRF engine to turn one inner-node key into its two children's keys.
//
// Package layout and the "zero the destination, then XOR the keystream
// into it" idiom both follow the teacher's csprng package; this package
// differs only in exposing an offset-seekable Fill rather than a pooled
// io.Reader, since the RC-PRF engine needs repeatable, addressable output
// rather than a consumable stream.
package prg

import (
	"fmt"
	"math"

	"golang.org/x/crypto/chacha20"

	"github.com/opensse/rcprf-tk/key256"
)

// blockSize is ChaCha20's keystream block size in bytes.
const blockSize = 64

// nonce is the PRG's fixed, all-zero 12-byte ChaCha20 nonce. A PRG is a
// single-use-per-key stream cipher addressed by offset rather than by
// nonce, so nonce reuse across Fill/FillAt calls under the same key is
// the intended mode of operation, not a hazard.
var nonce [chacha20.NonceSize]byte

// Prg owns a single Key256 and is stateless: repeated calls to FillAt with
// the same offset reproduce the same output.
type Prg struct {
	key *key256.Key256
}

// FromKey constructs a Prg from an existing key. The Prg takes ownership
// of key; callers must not retain their own reference to it.
func FromKey(key *key256.Key256) *Prg {
	return &Prg{key: key}
}

// New constructs a Prg keyed with a fresh, randomly generated Key256.
func New() (*Prg, error) {
	k, err := key256.New()
	if err != nil {
		return nil, err
	}
	return FromKey(k), nil
}

// Zero zeroes the Prg's embedded key material.
func (p *Prg) Zero() {
	p.key.Zero()
}

// KeyBytes exposes the Prg's key content for serialization. The returned
// slice aliases the Prg's internal key storage.
func (p *Prg) KeyBytes() []byte {
	return p.key.Bytes()
}

// CloneInsecure returns a Prg keyed with an independent copy of p's key.
func (p *Prg) CloneInsecure() *Prg {
	return FromKey(p.key.CloneInsecure())
}

// Fill fills output with pseudo-random bytes starting at stream offset 0.
// It is equivalent to FillAt(0, output).
func (p *Prg) Fill(output []byte) error {
	return p.FillAt(0, output)
}

// FillAt deterministically fills output with len(output) bytes drawn from
// the PRG's keystream starting at byte offset.
//
// FillAt(o, buf) always equals the slice [o:o+len(buf)] of FillAt(0, ...):
// the cipher is block-aligned to offset/blockSize via SetCounter, and the
// sub-block remainder is discarded by keystream-generating it into a
// scratch buffer ahead of the real output, the same "encrypt a throwaway
// buffer to skip ahead" idiom the teacher's PRNG uses to discard its
// zero-buffer prefix.
func (p *Prg) FillAt(offset uint64, output []byte) error {
	if len(output) == 0 {
		return nil
	}

	blockCounter := offset / blockSize
	remainder := int(offset % blockSize)
	if blockCounter > math.MaxUint32 {
		return fmt.Errorf("prg: offset %d exceeds the maximum seekable offset", offset)
	}

	cipher, err := chacha20.NewUnauthenticatedCipher(p.key.Bytes(), nonce[:])
	if err != nil {
		return err
	}
	cipher.SetCounter(uint32(blockCounter))

	if remainder > 0 {
		scratch := make([]byte, remainder)
		cipher.XORKeyStream(scratch, scratch)
	}

	for i := range output {
		output[i] = 0
	}
	cipher.XORKeyStream(output, output)
	return nil
}
