// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package rcprf

import "fmt"

// OutOfRangeError reports that an evaluation or constrain target is not
// contained in the RC-PRF's current range.
type OutOfRangeError struct {
	Target Range
	Valid  Range
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("rcprf: range %s is not contained in the valid range %s", e.Target, e.Valid)
}

// InvalidEvalPointError reports that a single evaluation point fell
// outside the RC-PRF's range.
type InvalidEvalPointError struct {
	Point uint64
	Valid Range
}

func (e *InvalidEvalPointError) Error() string {
	return fmt.Sprintf("rcprf: evaluation point %d outside of valid range %s", e.Point, e.Valid)
}

// WidthMismatchError reports that the number of output buffers passed to
// EvalRange/ParEvalRange did not match the requested range's width.
type WidthMismatchError struct {
	OutputsLen int
	RangeWidth uint64
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("rcprf: incompatible range width (%d) and outputs length (%d)", e.RangeWidth, e.OutputsLen)
}

// InvalidTreeHeightError reports that a requested tree height exceeds
// MaxHeight.
type InvalidTreeHeightError struct {
	Height uint8
	Max    uint8
}

func (e *InvalidTreeHeightError) Error() string {
	return fmt.Sprintf("rcprf: tree height (%d) is too large; the maximum height is %d", e.Height, e.Max)
}

// EmptyRangeError reports that an operation was asked to act on a range
// with no elements, which the RC-PRF's element set cannot represent.
type EmptyRangeError struct{}

func (e *EmptyRangeError) Error() string {
	return "rcprf: range is empty"
}

// NonConsecutiveMergeRangesError reports that two constrained RC-PRF
// element sequences were merged whose ranges are not exactly consecutive.
type NonConsecutiveMergeRangesError struct {
	A, B Range
}

func (e *NonConsecutiveMergeRangesError) Error() string {
	return fmt.Sprintf("rcprf: ranges of the RC-PRFs to be merged (%s and %s) are not consecutive", e.A, e.B)
}

// InvalidTagError reports an unrecognized element tag in a serialized
// RC-PRF or constrained RC-PRF byte stream.
type InvalidTagError struct {
	Value uint16
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("rcprf: invalid element tag %d", e.Value)
}

// TruncatedInputError reports that a byte slice being decoded was shorter
// than the encoding it claims to contain.
type TruncatedInputError struct {
	Got, Want int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("rcprf: truncated input: got %d bytes, want at least %d", e.Got, e.Want)
}

// ContentDeserializationError reports a structural problem with a
// serialized RC-PRF or constrained RC-PRF byte stream beyond a simple
// length mismatch.
type ContentDeserializationError struct {
	Reason string
}

func (e *ContentDeserializationError) Error() string {
	return fmt.Sprintf("rcprf: content deserialization error: %s", e.Reason)
}
