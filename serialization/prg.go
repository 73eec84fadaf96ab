// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package serialization

import (
	"github.com/opensse/rcprf-tk/aead"
	"github.com/opensse/rcprf-tk/key256"
	"github.com/opensse/rcprf-tk/prg"
)

type prgMarshaler struct {
	p *prg.Prg
}

func (m prgMarshaler) SerializationTag() Tag { return TagPRG }

func (m prgMarshaler) MarshalContent() ([]byte, error) {
	content := make([]byte, key256.Size)
	copy(content, m.p.KeyBytes())
	return content, nil
}

// MarshalPRG encodes p's tagged cleartext form.
func MarshalPRG(p *prg.Prg) ([]byte, error) {
	return EncodeCleartext(prgMarshaler{p: p})
}

// UnmarshalPRG decodes a PRG from its tagged cleartext form.
func UnmarshalPRG(data []byte) (*prg.Prg, error) {
	return DecodeCleartext(data, TagPRG, func(content []byte) (*prg.Prg, error) {
		k, err := key256.FromBytes(append([]byte{}, content...))
		if err != nil {
			return nil, err
		}
		return prg.FromKey(k), nil
	})
}

// WrapPRG seals p's tagged cleartext form under cipher.
func WrapPRG(cipher *aead.Cipher, p *prg.Prg) ([]byte, error) {
	return Wrap(cipher, prgMarshaler{p: p})
}

// UnwrapPRG opens and decodes a PRG sealed by WrapPRG.
func UnwrapPRG(cipher *aead.Cipher, ciphertext []byte) (*prg.Prg, error) {
	return Unwrap(cipher, ciphertext, TagPRG, func(content []byte) (*prg.Prg, error) {
		k, err := key256.FromBytes(append([]byte{}, content...))
		if err != nil {
			return nil, err
		}
		return prg.FromKey(k), nil
	})
}

type kdPrgMarshaler struct {
	k *prg.KDPrg
}

func (m kdPrgMarshaler) SerializationTag() Tag { return TagKDPRG }

func (m kdPrgMarshaler) MarshalContent() ([]byte, error) {
	content := make([]byte, key256.Size)
	copy(content, m.k.KeyBytes())
	return content, nil
}

// MarshalKDPrg encodes k's tagged cleartext form.
func MarshalKDPrg(k *prg.KDPrg) ([]byte, error) {
	return EncodeCleartext(kdPrgMarshaler{k: k})
}

// UnmarshalKDPrg decodes a KDPrg from its tagged cleartext form.
func UnmarshalKDPrg(data []byte) (*prg.KDPrg, error) {
	return DecodeCleartext(data, TagKDPRG, func(content []byte) (*prg.KDPrg, error) {
		k, err := key256.FromBytes(append([]byte{}, content...))
		if err != nil {
			return nil, err
		}
		return prg.KDFromKey(k), nil
	})
}

// WrapKDPrg seals k's tagged cleartext form under cipher.
func WrapKDPrg(cipher *aead.Cipher, k *prg.KDPrg) ([]byte, error) {
	return Wrap(cipher, kdPrgMarshaler{k: k})
}

// UnwrapKDPrg opens and decodes a KDPrg sealed by WrapKDPrg.
func UnwrapKDPrg(cipher *aead.Cipher, ciphertext []byte) (*prg.KDPrg, error) {
	return Unwrap(cipher, ciphertext, TagKDPRG, func(content []byte) (*prg.KDPrg, error) {
		k, err := key256.FromBytes(append([]byte{}, content...))
		if err != nil {
			return nil, err
		}
		return prg.KDFromKey(k), nil
	})
}
