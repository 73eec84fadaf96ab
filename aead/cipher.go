// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package aead implements AEAD-Wrap (component C4): nonce-misuse-resistant
// authenticated sealing of arbitrary serialized primitives.
//
// A Cipher's master key never touches ChaCha20-Poly1305 directly. Instead,
// each message draws a fresh random 16-byte nonce N, derives a per-message
// key K' = PRF(K, N, 32) via the PRF component, and seals under K' with the
// first 12 bytes of N as the ChaCha20-Poly1305 nonce. This mirrors the
// buffer layout idiom in the pack's creachadair-keyring cipher.go
// ([nonce | ciphertext | tag]) and sidesteps the classical Gueron-Bellare
// nonce-reuse hazard of a 96-bit AEAD nonce by making per-message key
// collisions, not nonce collisions, the event that would need to repeat.
package aead

import (
	"context"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/opensse/rcprf-tk/csprng"
	"github.com/opensse/rcprf-tk/key256"
	"github.com/opensse/rcprf-tk/logging"
	"github.com/opensse/rcprf-tk/prf"
)

const (
	// NonceSize is the size, in bytes, of a Cipher's random per-message IV.
	NonceSize = 16

	// TagSize is the size, in bytes, of the Poly1305 authentication tag.
	TagSize = 16

	// CiphertextExpansion is the number of bytes a sealed message grows by
	// relative to its plaintext: the nonce plus the tag.
	CiphertextExpansion = NonceSize + TagSize
)

// Cipher owns a Key256 viewed as the master key for the per-message
// subkey-derivation PRF.
type Cipher struct {
	kdf    *prf.PRF
	logger logging.Logger
}

// Option customizes a Cipher at construction time.
type Option func(*Cipher)

// WithLogger attaches a Logger that traces Seal/Open calls without ever
// logging key material, nonces, plaintext, or ciphertext bytes. Omit this
// option to get logging.NoOp.
func WithLogger(l logging.Logger) Option {
	return func(c *Cipher) { c.logger = l }
}

// FromKey constructs a Cipher from an existing master key. The Cipher
// takes ownership of key; callers must not retain their own reference.
func FromKey(key *key256.Key256, opts ...Option) *Cipher {
	c := &Cipher{kdf: prf.FromKey(key), logger: logging.NoOp()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New constructs a Cipher keyed with a fresh, randomly generated Key256.
func New(opts ...Option) (*Cipher, error) {
	k, err := key256.New()
	if err != nil {
		return nil, err
	}
	return FromKey(k, opts...), nil
}

// Zero zeroes the Cipher's embedded master key material.
func (c *Cipher) Zero() {
	c.kdf.Zero()
}

func (c *Cipher) deriveMessageKey(nonce []byte) (*key256.Key256, error) {
	buf := make([]byte, key256.Size)
	if err := c.kdf.Fill(nonce, buf); err != nil {
		return nil, err
	}
	return key256.FromBytes(buf)
}

// Encrypt seals plaintext into ciphertext, which MUST be at least
// len(plaintext)+CiphertextExpansion bytes long. On success, ciphertext's
// first len(plaintext)+CiphertextExpansion bytes hold N ‖ body ‖ tag.
func (c *Cipher) Encrypt(plaintext, ciphertext []byte) error {
	need := len(plaintext) + CiphertextExpansion
	if len(ciphertext) < need {
		return &CiphertextLengthError{Got: len(ciphertext), Want: need}
	}

	var nonce [NonceSize]byte
	if _, err := csprng.Reader.Read(nonce[:]); err != nil {
		return err
	}

	messageKey, err := c.deriveMessageKey(nonce[:])
	if err != nil {
		return err
	}
	defer messageKey.Zero()

	inner, err := chacha20poly1305.New(messageKey.Bytes())
	if err != nil {
		return err
	}

	sealed := inner.Seal(nil, nonce[:12], plaintext, nil)

	copy(ciphertext[:NonceSize], nonce[:])
	copy(ciphertext[NonceSize:need], sealed)

	c.logger.Debug(context.Background(), "aead: sealed message",
		"plaintext_len", len(plaintext), logging.Redacted("nonce"))
	return nil
}

// Decrypt opens ciphertext into plaintext, which MUST be at least
// len(ciphertext)-CiphertextExpansion bytes long. Returns
// AuthenticationError if the tag does not verify; plaintext's contents are
// unspecified on any error return.
func (c *Cipher) Decrypt(ciphertext, plaintext []byte) error {
	if len(ciphertext) < CiphertextExpansion {
		return &CiphertextLengthError{Got: len(ciphertext), Want: CiphertextExpansion}
	}

	need := len(ciphertext) - CiphertextExpansion
	if len(plaintext) < need {
		return &PlaintextLengthError{Got: len(plaintext), Want: need}
	}

	nonce := ciphertext[:NonceSize]
	body := ciphertext[NonceSize:]

	messageKey, err := c.deriveMessageKey(nonce)
	if err != nil {
		return err
	}
	defer messageKey.Zero()

	inner, err := chacha20poly1305.New(messageKey.Bytes())
	if err != nil {
		return err
	}

	opened, err := inner.Open(nil, nonce[:12], body, nil)
	if err != nil {
		c.logger.Warn(context.Background(), "aead: authentication failed on open", "ciphertext_len", len(ciphertext))
		return &AuthenticationError{}
	}

	copy(plaintext[:len(opened)], opened)
	c.logger.Debug(context.Background(), "aead: opened message", "plaintext_len", len(opened))
	return nil
}

// Seal is a convenience wrapper over Encrypt that allocates its own output
// buffer.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	ciphertext := make([]byte, len(plaintext)+CiphertextExpansion)
	if err := c.Encrypt(plaintext, ciphertext); err != nil {
		return nil, err
	}
	return ciphertext, nil
}

// Open is a convenience wrapper over Decrypt that allocates its own output
// buffer.
func (c *Cipher) Open(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < CiphertextExpansion {
		return nil, &CiphertextLengthError{Got: len(ciphertext), Want: CiphertextExpansion}
	}
	plaintext := make([]byte, len(ciphertext)-CiphertextExpansion)
	if err := c.Decrypt(ciphertext, plaintext); err != nil {
		return nil, err
	}
	return plaintext, nil
}
