// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package rcprf

import "context"

// Pair is one (leaf index, PRF output) pair produced by an Iterator.
type Pair struct {
	Index  uint64
	Output []byte
}

// Iterator walks every leaf covered by a RangePRF's range, in either
// direction, splitting Inner nodes into their children on demand instead
// of evaluating the whole range up front. Calling Next and NextBack on the
// same Iterator lets a caller consume from both ends; the two meet in the
// middle without either side re-deriving a key the other already consumed.
//
// Iterator is not safe for concurrent use.
type Iterator struct {
	outputSize int
	// front and back hold elements not yet handed out, ordered so that
	// front[0] and back[len(back)-1] are, respectively, the next values
	// Next and NextBack will produce. Exactly one of a leaf-sized slot in
	// front or back is ever materialized per Next/NextBack call.
	front []element
	back  []element
}

// NewIterator returns an Iterator over every leaf of p's range, each
// output filled to outputSize bytes.
func NewIterator(p RangePRF, outputSize int) (*Iterator, error) {
	var elems []element
	switch v := p.(type) {
	case *RCPrf:
		elems = []element{v.root}
	case *ConstrainedRCPrf:
		elems = append(elems, v.elements...)
	default:
		return nil, &ContentDeserializationError{Reason: "rcprf: unsupported RangePRF implementation for iteration"}
	}
	return &Iterator{outputSize: outputSize, front: elems}, nil
}

// Next returns the next (index, output) pair in ascending order, or false
// once front and back have met.
func (it *Iterator) Next() (Pair, bool) {
	for {
		if len(it.front) == 0 {
			if len(it.back) == 0 {
				return Pair{}, false
			}
			it.front, it.back = it.back, nil
		}
		e := it.front[0]
		if e.isLeaf() {
			it.front = it.front[1:]
			return it.evalOne(e), true
		}
		left, right := e.splitNode()
		it.front = append([]element{left, right}, it.front[1:]...)
	}
}

// NextBack returns the next (index, output) pair in descending order, or
// false once front and back have met.
func (it *Iterator) NextBack() (Pair, bool) {
	for {
		if len(it.back) == 0 {
			if len(it.front) == 0 {
				return Pair{}, false
			}
			it.back, it.front = it.front, nil
		}
		e := it.back[len(it.back)-1]
		if e.isLeaf() {
			it.back = it.back[:len(it.back)-1]
			return it.evalOne(e), true
		}
		left, right := e.splitNode()
		it.back = append(it.back[:len(it.back)-1], left, right)
	}
}

func (it *Iterator) evalOne(e element) Pair {
	output := make([]byte, it.outputSize)
	index := e.nodeRange().Min()
	e.uncheckedEval(index, output)
	return Pair{Index: index, Output: output}
}

// Collect drains the iterator front-to-back into a slice; it is meant for
// small ranges and tests, not for production use on wide ranges.
func (it *Iterator) Collect() []Pair {
	var out []Pair
	for {
		p, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}

// ParCollect evaluates every leaf of p's range concurrently via
// ParEvalRange and returns the same (index, output) pairs Collect would,
// in the same ascending order. It exists so that callers who want a
// parallel traversal are not forced to hand-roll a worker pool over
// Iterator's splitNode-based walk, which is intentionally sequential.
func ParCollect(ctx context.Context, p RangePRF, outputSize int) ([]Pair, error) {
	rng := p.Range()
	width := rng.Width()
	outputs := make([][]byte, width)
	for i := range outputs {
		outputs[i] = make([]byte, outputSize)
	}
	if err := p.ParEvalRange(ctx, rng, outputs); err != nil {
		return nil, err
	}
	pairs := make([]Pair, width)
	for i, out := range outputs {
		pairs[i] = Pair{Index: rng.Min() + uint64(i), Output: out}
	}
	return pairs, nil
}
