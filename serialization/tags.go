// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package serialization implements tagged serialization (component C5):
// a 16-bit type tag prefixed to the content of every serializable
// primitive in the toolkit, plus the AEAD wrapper that composes tagged
// cleartext serialization with AEAD-Wrap to produce authenticated,
// self-describing ciphertexts.
package serialization

import "encoding/binary"

// Tag identifies the type of object that follows it in a serialized
// stream. Tag values are part of the wire format and must never be
// renumbered.
type Tag uint16

const (
	TagPRF              Tag = 1
	TagPRG              Tag = 2
	TagKDPRG            Tag = 3
	TagRCPRF            Tag = 4
	TagConstrainedRCPRF Tag = 5
	TagLeafElement      Tag = 6
	TagInnerElement     Tag = 7
	TagCipher           Tag = 8 // reserved: standalone Cipher is a non-goal, see SPEC_FULL.md §12.
	TagAEADCipher       Tag = 9
)

// TagSize is the wire size, in bytes, of a serialized Tag.
const TagSize = 2

func (t Tag) String() string {
	switch t {
	case TagPRF:
		return "PRF"
	case TagPRG:
		return "PRG"
	case TagKDPRG:
		return "KDPRG"
	case TagRCPRF:
		return "RCPRF"
	case TagConstrainedRCPRF:
		return "ConstrainedRCPRF"
	case TagLeafElement:
		return "LeafElement"
	case TagInnerElement:
		return "InnerElement"
	case TagCipher:
		return "Cipher"
	case TagAEADCipher:
		return "AEADCipher"
	default:
		return "Unknown"
	}
}

// ParseTag validates a raw 16-bit value as a known Tag.
func ParseTag(v uint16) (Tag, error) {
	switch Tag(v) {
	case TagPRF, TagPRG, TagKDPRG, TagRCPRF, TagConstrainedRCPRF,
		TagLeafElement, TagInnerElement, TagCipher, TagAEADCipher:
		return Tag(v), nil
	default:
		return 0, &InvalidTagError{Value: v}
	}
}

// encodeTag appends the little-endian encoding of t to buf.
func encodeTag(t Tag) []byte {
	var buf [TagSize]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(t))
	return buf[:]
}

// decodeTag reads a Tag from the first TagSize bytes of data, returning
// the tag and the remaining bytes.
func decodeTag(data []byte) (Tag, []byte, error) {
	if len(data) < TagSize {
		return 0, nil, &TruncatedInputError{Got: len(data), Want: TagSize}
	}
	v := binary.LittleEndian.Uint16(data[:TagSize])
	tag, err := ParseTag(v)
	if err != nil {
		return 0, nil, err
	}
	return tag, data[TagSize:], nil
}

// Tagged is implemented by every type that has a fixed SerializationTag.
type Tagged interface {
	SerializationTag() Tag
}

// ContentMarshaler is implemented by types that know how to encode their
// own content (everything after the tag).
type ContentMarshaler interface {
	Tagged
	MarshalContent() ([]byte, error)
}
