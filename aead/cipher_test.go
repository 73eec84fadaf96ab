// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package aead

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opensse/rcprf-tk/key256"
)

func Test_Seal_Open_RoundTrip(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c, err := New()
	is.NoError(err)

	plaintext := []byte("range-constrained pseudo-random function")
	ciphertext, err := c.Seal(plaintext)
	is.NoError(err)
	is.Len(ciphertext, len(plaintext)+CiphertextExpansion)

	opened, err := c.Open(ciphertext)
	is.NoError(err)
	is.Equal(plaintext, opened)
}

func Test_Seal_ProducesDistinctCiphertextsForSamePlaintext(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c, err := New()
	is.NoError(err)

	plaintext := []byte("same plaintext, different nonce each call")
	a, err := c.Seal(plaintext)
	is.NoError(err)
	b, err := c.Seal(plaintext)
	is.NoError(err)

	is.NotEqual(a, b, "random per-message nonce should make ciphertexts differ")
}

func Test_Open_DetectsBitFlip(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c, err := New()
	is.NoError(err)

	plaintext := []byte("authenticate me")
	ciphertext, err := c.Seal(plaintext)
	is.NoError(err)

	ciphertext[17] ^= 0x01

	_, err = c.Open(ciphertext)
	is.Error(err)
	is.ErrorAs(err, new(*AuthenticationError))
}

func Test_Open_DetectsTruncatedCiphertext(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c, err := New()
	is.NoError(err)

	_, err = c.Open(make([]byte, NonceSize))
	is.Error(err)
	is.ErrorAs(err, new(*CiphertextLengthError))
}

func Test_Decrypt_RejectsUndersizedPlaintextBuffer(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	c, err := New()
	is.NoError(err)

	plaintext := []byte("twelve bytes")
	ciphertext, err := c.Seal(plaintext)
	is.NoError(err)

	undersized := make([]byte, len(plaintext)-1)
	err = c.Decrypt(ciphertext, undersized)
	is.Error(err)
	is.ErrorAs(err, new(*PlaintextLengthError))
}

func Test_FromKey_TwoCiphersOnSameKeyAgreeOnDecryption(t *testing.T) {
	t.Parallel()
	is := assert.New(t)

	k, err := key256.New()
	is.NoError(err)
	k2 := k.CloneInsecure()

	sealer := FromKey(k)
	opener := FromKey(k2)

	plaintext := []byte("shared master key")
	ciphertext, err := sealer.Seal(plaintext)
	is.NoError(err)

	opened, err := opener.Open(ciphertext)
	is.NoError(err)
	is.Equal(plaintext, opened)
}
