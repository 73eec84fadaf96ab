// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package prg

import "github.com/opensse/rcprf-tk/key256"

// KDPrg is the key-deriving variant of Prg. It is used by the RC-PRF tree
// engine to turn one inner node's key into its children's keys: child 0's
// key is DeriveKey(0), child 1's is DeriveKey(1).
type KDPrg struct {
	prg *Prg
}

// KDFromKey constructs a KDPrg from an existing key. The KDPrg takes
// ownership of key; callers must not retain their own reference to it.
func KDFromKey(key *key256.Key256) *KDPrg {
	return &KDPrg{prg: FromKey(key)}
}

// NewKD constructs a KDPrg keyed with a fresh, randomly generated Key256.
func NewKD() (*KDPrg, error) {
	p, err := New()
	if err != nil {
		return nil, err
	}
	return &KDPrg{prg: p}, nil
}

// Zero zeroes the KDPrg's embedded key material.
func (k *KDPrg) Zero() {
	k.prg.Zero()
}

// KeyBytes exposes the KDPrg's key content for serialization.
func (k *KDPrg) KeyBytes() []byte {
	return k.prg.KeyBytes()
}

// CloneInsecure returns a KDPrg keyed with an independent copy of k's key.
// The RC-PRF tree engine uses this when an inner element must outlive the
// parent derivation call that produced its key.
func (k *KDPrg) CloneInsecure() *KDPrg {
	return &KDPrg{prg: k.prg.CloneInsecure()}
}

// DeriveKey returns the Key256 at derivation index i: the bytes at stream
// offset i*key256.Size in the underlying PRG's keystream.
func (k *KDPrg) DeriveKey(i uint32) (*key256.Key256, error) {
	buf := make([]byte, key256.Size)
	if err := k.prg.FillAt(uint64(i)*uint64(key256.Size), buf); err != nil {
		return nil, err
	}
	return key256.FromBytes(buf)
}

// DeriveKeyPair returns the two keys at indices i and i+1, used internally
// by the RC-PRF engine to derive both children of a node in one call.
func (k *KDPrg) DeriveKeyPair(i uint32) (left, right *key256.Key256, err error) {
	left, err = k.DeriveKey(i)
	if err != nil {
		return nil, nil, err
	}
	right, err = k.DeriveKey(i + 1)
	if err != nil {
		left.Zero()
		return nil, nil, err
	}
	return left, right, nil
}

// DeriveKeys returns the keys at indices [a, b) in index order.
func (k *KDPrg) DeriveKeys(a, b uint32) ([]*key256.Key256, error) {
	if b < a {
		return nil, nil
	}
	keys := make([]*key256.Key256, 0, b-a)
	for i := a; i < b; i++ {
		key, err := k.DeriveKey(i)
		if err != nil {
			for _, prev := range keys {
				prev.Zero()
			}
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
