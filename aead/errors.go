// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package aead

import "fmt"

// CiphertextLengthError reports that a ciphertext buffer passed to Encrypt
// or Decrypt was too short to hold (or be decrypted from) the message.
type CiphertextLengthError struct {
	Got  int
	Want int
}

func (e *CiphertextLengthError) Error() string {
	return fmt.Sprintf("aead: ciphertext buffer too short: got %d bytes, need at least %d", e.Got, e.Want)
}

// PlaintextLengthError reports that a plaintext buffer passed to Decrypt
// was too short to hold the decrypted message.
type PlaintextLengthError struct {
	Got  int
	Want int
}

func (e *PlaintextLengthError) Error() string {
	return fmt.Sprintf("aead: plaintext buffer too short: got %d bytes, need at least %d", e.Got, e.Want)
}

// AuthenticationError reports that Decrypt failed to verify the Poly1305
// tag: the ciphertext, nonce, or tag was modified since it was sealed.
type AuthenticationError struct{}

func (e *AuthenticationError) Error() string {
	return "aead: authentication failed"
}
