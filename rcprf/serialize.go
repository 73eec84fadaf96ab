// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package rcprf

import (
	"encoding/binary"

	"github.com/opensse/rcprf-tk/key256"
	"github.com/opensse/rcprf-tk/logging"
	"github.com/opensse/rcprf-tk/prf"
	"github.com/opensse/rcprf-tk/prg"
)

// elementTag identifies an element's concrete type inside the byte stream
// of a serialized RCPrf or ConstrainedRCPrf. These values match the
// LeafElement(6)/InnerElement(7) entries of the outer tag registry (see
// the serialization package), but are encoded and decoded entirely within
// this package: the element list is private to a serialized RC-PRF's own
// content and is never independently wrapped.
type elementTag uint16

const (
	elementTagLeaf  elementTag = 6
	elementTagInner elementTag = 7
)

const elementTagSize = 2

// embeddedPRFTag and embeddedKDPrgTag tag the 32-byte key nested inside a
// serialized Leaf/Inner element, matching the PRF(1)/KDPRG(3) entries of
// the outer tag registry per spec.md §4.7 ("PRF(tag=1 then 32-byte key)",
// "KDPRG(tag=3 then 32-byte key)"). Like elementTag, these are private to
// this package rather than shared with the serialization package's own
// Tag type, to avoid an import cycle (see DESIGN.md).
const (
	embeddedPRFTag   elementTag = 1
	embeddedKDPrgTag elementTag = 3
)

const embeddedTagSize = 2

func marshalElement(e element) ([]byte, error) {
	switch v := e.(type) {
	case *leafElement:
		return marshalLeaf(v)
	case *innerElement:
		return marshalInner(v)
	default:
		return nil, &ContentDeserializationError{Reason: "rcprf: unknown element implementation"}
	}
}

func unmarshalElement(data []byte) (element, []byte, error) {
	if len(data) < elementTagSize {
		return nil, nil, &TruncatedInputError{Got: len(data), Want: elementTagSize}
	}
	tag := elementTag(binary.LittleEndian.Uint16(data))
	rest := data[elementTagSize:]
	switch tag {
	case elementTagLeaf:
		return unmarshalLeaf(rest)
	case elementTagInner:
		return unmarshalInner(rest)
	default:
		return nil, nil, &InvalidTagError{Value: uint16(tag)}
	}
}

// leafElement content, per spec.md §4.7: H(1B) || leaf_index(8B LE) ||
// PRF(tag=1 then 32-byte key).
func marshalLeaf(e *leafElement) ([]byte, error) {
	key := e.prf.KeyBytes()
	out := make([]byte, elementTagSize+1+8+embeddedTagSize+len(key))
	binary.LittleEndian.PutUint16(out, uint16(elementTagLeaf))
	out[elementTagSize] = e.rcprfHgt
	binary.LittleEndian.PutUint64(out[elementTagSize+1:], e.index)
	binary.LittleEndian.PutUint16(out[elementTagSize+9:], uint16(embeddedPRFTag))
	copy(out[elementTagSize+9+embeddedTagSize:], key)
	return out, nil
}

func unmarshalLeaf(data []byte) (element, []byte, error) {
	want := 1 + 8 + embeddedTagSize + key256.Size
	if len(data) < want {
		return nil, nil, &TruncatedInputError{Got: len(data), Want: want}
	}
	rcprfHgt := data[0]
	index := binary.LittleEndian.Uint64(data[1:9])
	embTag := elementTag(binary.LittleEndian.Uint16(data[9:11]))
	if embTag != embeddedPRFTag {
		return nil, nil, &InvalidTagError{Value: uint16(embTag)}
	}
	key, err := key256.FromBytes(data[11 : 11+key256.Size])
	if err != nil {
		return nil, nil, err
	}
	return &leafElement{prf: prf.FromKey(key), index: index, rcprfHgt: rcprfHgt}, data[want:], nil
}

// innerElement content, per spec.md §4.7: H(1B) || subtree_height(1B) ||
// range.min(8B LE) || range.max(8B LE) || KDPRG(tag=3 then 32-byte key).
func marshalInner(e *innerElement) ([]byte, error) {
	key := e.prg.KeyBytes()
	out := make([]byte, elementTagSize+2+16+embeddedTagSize+len(key))
	binary.LittleEndian.PutUint16(out, uint16(elementTagInner))
	out[elementTagSize] = e.rcprfHgt
	out[elementTagSize+1] = e.subtreeHgt
	binary.LittleEndian.PutUint64(out[elementTagSize+2:], e.rng.Min())
	binary.LittleEndian.PutUint64(out[elementTagSize+10:], e.rng.Max())
	binary.LittleEndian.PutUint16(out[elementTagSize+18:], uint16(embeddedKDPrgTag))
	copy(out[elementTagSize+18+embeddedTagSize:], key)
	return out, nil
}

func unmarshalInner(data []byte) (element, []byte, error) {
	want := 2 + 16 + embeddedTagSize + key256.Size
	if len(data) < want {
		return nil, nil, &TruncatedInputError{Got: len(data), Want: want}
	}
	rcprfHgt := data[0]
	subtreeHgt := data[1]
	min := binary.LittleEndian.Uint64(data[2:10])
	max := binary.LittleEndian.Uint64(data[10:18])
	embTag := elementTag(binary.LittleEndian.Uint16(data[18:20]))
	if embTag != embeddedKDPrgTag {
		return nil, nil, &InvalidTagError{Value: uint16(embTag)}
	}
	key, err := key256.FromBytes(data[20 : 20+key256.Size])
	if err != nil {
		return nil, nil, err
	}
	return &innerElement{
		prg:        prg.KDFromKey(key),
		rng:        NewRange(min, max),
		subtreeHgt: subtreeHgt,
		rcprfHgt:   rcprfHgt,
	}, data[want:], nil
}

// MarshalContent encodes r as its root element's self-tagged bytes.
func (r *RCPrf) MarshalContent() ([]byte, error) {
	return marshalElement(r.root)
}

// UnmarshalRCPrf decodes the bytes produced by MarshalContent.
func UnmarshalRCPrf(data []byte) (*RCPrf, error) {
	e, rest, err := unmarshalElement(data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, &ContentDeserializationError{Reason: "rcprf: trailing bytes after RC-PRF content"}
	}
	inner, ok := e.(*innerElement)
	if !ok {
		return nil, &ContentDeserializationError{Reason: "rcprf: RC-PRF root element is not an Inner element"}
	}
	return &RCPrf{root: inner, logger: logging.NoOp()}, nil
}

const elementCountSize = 8

// MarshalContent encodes c as element_count(8B LE) followed by each
// element's self-tagged bytes in order.
func (c *ConstrainedRCPrf) MarshalContent() ([]byte, error) {
	out := make([]byte, elementCountSize)
	binary.LittleEndian.PutUint64(out, uint64(len(c.elements)))
	for _, e := range c.elements {
		b, err := marshalElement(e)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// UnmarshalConstrainedRCPrf decodes the bytes produced by MarshalContent.
func UnmarshalConstrainedRCPrf(data []byte) (*ConstrainedRCPrf, error) {
	if len(data) < elementCountSize {
		return nil, &TruncatedInputError{Got: len(data), Want: elementCountSize}
	}
	count := binary.LittleEndian.Uint64(data[:elementCountSize])
	rest := data[elementCountSize:]

	elements := make([]element, 0, count)
	for i := uint64(0); i < count; i++ {
		e, tail, err := unmarshalElement(rest)
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
		rest = tail
	}
	if len(rest) != 0 {
		return nil, &ContentDeserializationError{Reason: "rcprf: trailing bytes after constrained RC-PRF content"}
	}
	if len(elements) == 0 {
		return nil, &EmptyRangeError{}
	}
	return &ConstrainedRCPrf{elements: elements, logger: logging.NoOp()}, nil
}
