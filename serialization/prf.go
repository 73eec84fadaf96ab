// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package serialization

import (
	"github.com/opensse/rcprf-tk/aead"
	"github.com/opensse/rcprf-tk/key256"
	"github.com/opensse/rcprf-tk/prf"
)

// prfMarshaler adapts *prf.PRF to ContentMarshaler. A PRF's content is
// simply its key bytes; the tag is what tells a future reader that those
// 32 bytes are a PRF key rather than, say, a PRG key.
type prfMarshaler struct {
	p *prf.PRF
}

func (m prfMarshaler) SerializationTag() Tag { return TagPRF }

func (m prfMarshaler) MarshalContent() ([]byte, error) {
	content := make([]byte, key256.Size)
	copy(content, m.p.KeyBytes())
	return content, nil
}

// MarshalPRF encodes p's tagged cleartext form: tag ‖ key bytes.
func MarshalPRF(p *prf.PRF) ([]byte, error) {
	return EncodeCleartext(prfMarshaler{p: p})
}

// UnmarshalPRF decodes a PRF from its tagged cleartext form.
func UnmarshalPRF(data []byte) (*prf.PRF, error) {
	return DecodeCleartext(data, TagPRF, func(content []byte) (*prf.PRF, error) {
		k, err := key256.FromBytes(append([]byte{}, content...))
		if err != nil {
			return nil, err
		}
		return prf.FromKey(k), nil
	})
}

// WrapPRF seals p's tagged cleartext form under cipher.
func WrapPRF(cipher *aead.Cipher, p *prf.PRF) ([]byte, error) {
	return Wrap(cipher, prfMarshaler{p: p})
}

// UnwrapPRF opens and decodes a PRF sealed by WrapPRF.
func UnwrapPRF(cipher *aead.Cipher, ciphertext []byte) (*prf.PRF, error) {
	return Unwrap(cipher, ciphertext, TagPRF, func(content []byte) (*prf.PRF, error) {
		k, err := key256.FromBytes(append([]byte{}, content...))
		if err != nil {
			return nil, err
		}
		return prf.FromKey(k), nil
	})
}
