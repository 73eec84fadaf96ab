// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package serialization

import "github.com/opensse/rcprf-tk/aead"

// Wrap serializes m to its tagged cleartext form and seals it under
// cipher, producing an authenticated, self-describing ciphertext: no
// separate type hint is needed to unwrap it, since the tag travels
// inside the sealed content.
func Wrap(cipher *aead.Cipher, m ContentMarshaler) ([]byte, error) {
	cleartext, err := EncodeCleartext(m)
	if err != nil {
		return nil, err
	}
	return cipher.Seal(cleartext)
}

// Unwrap opens ciphertext under cipher and decodes the resulting
// cleartext, checking its tag against want and delegating content
// decoding to unmarshal. Returns an *aead.AuthenticationError unchanged
// if the seal does not verify.
func Unwrap[T any](cipher *aead.Cipher, ciphertext []byte, want Tag, unmarshal func([]byte) (T, error)) (T, error) {
	var zero T

	cleartext, err := cipher.Open(ciphertext)
	if err != nil {
		return zero, err
	}

	return DecodeCleartext(cleartext, want, unmarshal)
}
