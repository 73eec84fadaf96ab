// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package serialization

// EncodeCleartext writes m's tag followed by its content, producing the
// cleartext form that AEAD-Wrap then seals: tag ‖ content.
func EncodeCleartext(m ContentMarshaler) ([]byte, error) {
	content, err := m.MarshalContent()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, TagSize+len(content))
	copy(buf[:TagSize], encodeTag(m.SerializationTag()))
	copy(buf[TagSize:], content)
	return buf, nil
}

// DecodeCleartextTag reads and validates the leading tag of data,
// returning it alongside the remaining content bytes.
func DecodeCleartextTag(data []byte) (Tag, []byte, error) {
	return decodeTag(data)
}

// DecodeCleartext reads data's leading tag, checks it against want, and
// passes the remaining content bytes to unmarshal. Go's lack of a
// trait-with-associated-constructor mechanism (the original's
// DeserializableCleartextContent) is worked around with an explicit
// unmarshal function supplied by the caller rather than by dispatching on
// T's own method set.
func DecodeCleartext[T any](data []byte, want Tag, unmarshal func([]byte) (T, error)) (T, error) {
	var zero T

	tag, content, err := decodeTag(data)
	if err != nil {
		return zero, err
	}
	if tag != want {
		return zero, &TagMismatchError{Got: tag, Want: want}
	}

	return unmarshal(content)
}
