// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package serialization

import (
	"github.com/opensse/rcprf-tk/aead"
	"github.com/opensse/rcprf-tk/rcprf"
)

// rcprfMarshaler adapts *rcprf.RCPrf to ContentMarshaler. Its content is
// the tagged bytes of its root element; LeafElement/InnerElement tags
// inside that content are private to the rcprf package and never reach
// this layer.
type rcprfMarshaler struct {
	r *rcprf.RCPrf
}

func (m rcprfMarshaler) SerializationTag() Tag { return TagRCPRF }

func (m rcprfMarshaler) MarshalContent() ([]byte, error) { return m.r.MarshalContent() }

// MarshalRCPrf encodes r's tagged cleartext form.
func MarshalRCPrf(r *rcprf.RCPrf) ([]byte, error) {
	return EncodeCleartext(rcprfMarshaler{r: r})
}

// UnmarshalRCPrf decodes an RCPrf from its tagged cleartext form.
func UnmarshalRCPrf(data []byte) (*rcprf.RCPrf, error) {
	return DecodeCleartext(data, TagRCPRF, rcprf.UnmarshalRCPrf)
}

// WrapRCPrf seals r's tagged cleartext form under cipher.
func WrapRCPrf(cipher *aead.Cipher, r *rcprf.RCPrf) ([]byte, error) {
	return Wrap(cipher, rcprfMarshaler{r: r})
}

// UnwrapRCPrf opens and decodes an RCPrf sealed by WrapRCPrf.
func UnwrapRCPrf(cipher *aead.Cipher, ciphertext []byte) (*rcprf.RCPrf, error) {
	return Unwrap(cipher, ciphertext, TagRCPRF, rcprf.UnmarshalRCPrf)
}

// constrainedRCPrfMarshaler adapts *rcprf.ConstrainedRCPrf to
// ContentMarshaler.
type constrainedRCPrfMarshaler struct {
	c *rcprf.ConstrainedRCPrf
}

func (m constrainedRCPrfMarshaler) SerializationTag() Tag { return TagConstrainedRCPRF }

func (m constrainedRCPrfMarshaler) MarshalContent() ([]byte, error) { return m.c.MarshalContent() }

// MarshalConstrainedRCPrf encodes c's tagged cleartext form.
func MarshalConstrainedRCPrf(c *rcprf.ConstrainedRCPrf) ([]byte, error) {
	return EncodeCleartext(constrainedRCPrfMarshaler{c: c})
}

// UnmarshalConstrainedRCPrf decodes a ConstrainedRCPrf from its tagged
// cleartext form.
func UnmarshalConstrainedRCPrf(data []byte) (*rcprf.ConstrainedRCPrf, error) {
	return DecodeCleartext(data, TagConstrainedRCPRF, rcprf.UnmarshalConstrainedRCPrf)
}

// WrapConstrainedRCPrf seals c's tagged cleartext form under cipher.
func WrapConstrainedRCPrf(cipher *aead.Cipher, c *rcprf.ConstrainedRCPrf) ([]byte, error) {
	return Wrap(cipher, constrainedRCPrfMarshaler{c: c})
}

// UnwrapConstrainedRCPrf opens and decodes a ConstrainedRCPrf sealed by
// WrapConstrainedRCPrf.
func UnwrapConstrainedRCPrf(cipher *aead.Cipher, ciphertext []byte) (*rcprf.ConstrainedRCPrf, error) {
	return Unwrap(cipher, ciphertext, TagConstrainedRCPRF, rcprf.UnmarshalConstrainedRCPrf)
}
