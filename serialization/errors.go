// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package serialization

import "fmt"

// InvalidTagError reports that a 16-bit value read from a serialized
// stream does not correspond to any known SerializationTag.
type InvalidTagError struct {
	Value uint16
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("serialization: invalid tag value %d", e.Value)
}

// TagMismatchError reports that a deserialized tag does not match the
// type the caller asked to decode.
type TagMismatchError struct {
	Got  Tag
	Want Tag
}

func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("serialization: tag mismatch: got %s, want %s", e.Got, e.Want)
}

// TruncatedInputError reports that a byte stream ended before the
// expected fixed-size field could be read.
type TruncatedInputError struct {
	Got  int
	Want int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("serialization: truncated input: got %d bytes, need at least %d", e.Got, e.Want)
}

// ContentDeserializationError wraps a logical error encountered while
// decoding an object's content, after its tag was already validated.
type ContentDeserializationError struct {
	Reason string
}

func (e *ContentDeserializationError) Error() string {
	return fmt.Sprintf("serialization: content deserialization error: %s", e.Reason)
}
