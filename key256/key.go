// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package key256 implements Key256 (component C1): a 32-byte secret
// container with guaranteed zeroization and move-only-by-convention copy
// semantics. It is the sole key material type embedded by PRF, PRG, KDPRG,
// and AeadCipher.
package key256

import (
	"fmt"

	"github.com/opensse/rcprf-tk/csprng"
)

// Size is the length, in bytes, of a Key256's secret content.
const Size = 32

// Key256 owns 32 bytes of secret material. It is always handled through a
// pointer: there is no exported function that duplicates a Key256 other
// than CloneInsecure, whose name flags the security-sensitive call site at
// review time. Callers MUST call Zero once a Key256 is no longer needed;
// Go has no destructors, so zeroization cannot be automatic.
type Key256 struct {
	content [Size]byte
}

// New draws Size bytes from the package's CSPRNG source (csprng.Reader) and
// returns a freshly keyed Key256.
func New() (*Key256, error) {
	k := new(Key256)
	if _, err := csprng.Reader.Read(k.content[:]); err != nil {
		return nil, err
	}
	return k, nil
}

// FromBytes consumes buf into a new Key256. buf MUST be exactly Size bytes
// long and is zeroed by this call, per the spec's key-consumption contract:
// the caller's copy of the secret never outlives this call.
func FromBytes(buf []byte) (*Key256, error) {
	if len(buf) != Size {
		return nil, &InvalidKeyLengthError{Got: len(buf), Want: Size}
	}
	k := new(Key256)
	copy(k.content[:], buf)
	for i := range buf {
		buf[i] = 0
	}
	return k, nil
}

// Bytes returns the key's secret content. The returned slice aliases k's
// internal storage; callers in this module's trust boundary (prf, prg,
// aead, serialization) use it directly, but it must never be copied to a
// buffer that outlives k without an explicit accounting for zeroization.
func (k *Key256) Bytes() []byte {
	return k.content[:]
}

// Zero overwrites the key's secret content with zeroes. It is idempotent
// and safe to call on every exit path of an operation that allocated or
// borrowed this key, per the spec's secret-data rule.
func (k *Key256) Zero() {
	for i := range k.content {
		k.content[i] = 0
	}
}

// CloneInsecure returns a duplicate of k with independent backing storage.
// The name is deliberately loud: duplicating key material widens the set
// of buffers that must be zeroized, and every call site should be able to
// justify why a second copy is needed (here, RC-PRF's element.go plants a
// duplicate subtree key into an element after borrowing the original from
// the parent's KDPRG derivation).
func (k *Key256) CloneInsecure() *Key256 {
	c := new(Key256)
	copy(c.content[:], k.content[:])
	return c
}

// InvalidKeyLengthError reports that a buffer handed to FromBytes was not
// exactly Size bytes long.
type InvalidKeyLengthError struct {
	Got  int
	Want int
}

func (e *InvalidKeyLengthError) Error() string {
	return fmt.Sprintf("key256: invalid key length: got %d, want %d", e.Got, e.Want)
}
