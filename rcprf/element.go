// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package rcprf

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/opensse/rcprf-tk/prf"
	"github.com/opensse/rcprf-tk/prg"
)

// MaxHeight is the largest tree height a RC-PRF may be constructed with.
// A tree of this height covers the full uint64 domain [0, 2^64-1].
const MaxHeight uint8 = 65

// MaxLeafIndex returns the largest valid leaf index of a tree of the given
// height: 0 for height 0, and 2^64-1 for height >= MaxHeight (since 2^64
// does not fit in a uint64, that bound is special-cased rather than
// computed).
func MaxLeafIndex(height uint8) uint64 {
	if height == 0 {
		return 0
	}
	if height >= MaxHeight {
		return ^uint64(0)
	}
	return (uint64(1) << (height - 1)) - 1
}

// childIndex returns which child of a node at the given depth leaf_index
// descends into: 0 (left) or 1 (right), read off the
// (height-node_depth-2)-th most significant bit of leaf_index.
func childIndex(height uint8, leafIndex uint64, nodeDepth uint8) uint32 {
	mask := uint64(1) << (height - nodeDepth - 2)
	if leafIndex&mask == 0 {
		return 0
	}
	return 1
}

// element is the tagged-variant interface shared by innerElement and
// leafElement: every RC-PRF tree node, whether it owns a subtree or a
// single leaf, satisfies it. Bounds-checking lives one layer up, in
// Range-Eval-Constrain; these methods assume the caller already verified
// containment.
type element interface {
	isLeaf() bool
	treeHeight() uint8
	subtreeHeight() uint8
	nodeRange() Range
	uncheckedEval(x uint64, output []byte)
	uncheckedEvalRange(r Range, outputs [][]byte)
	uncheckedParEvalRange(ctx context.Context, r Range, outputs [][]byte) error
	uncheckedConstrain(r Range) *ConstrainedRCPrf
	splitNode() (element, element)
	cloneInsecure() element
	zero()
}

// leafElement owns a single PRF keyed for one leaf index. Its subtree
// height is, by convention, 2: the minimal tree spans a node and its two
// (unmaterialized) leaf slots, and the leaf itself is the unit of output.
type leafElement struct {
	prf      *prf.PRF
	index    uint64
	rcprfHgt uint8
}

func (e *leafElement) isLeaf() bool         { return true }
func (e *leafElement) treeHeight() uint8    { return e.rcprfHgt }
func (e *leafElement) subtreeHeight() uint8 { return 2 }
func (e *leafElement) nodeRange() Range     { return NewRange(e.index, e.index) }

func (e *leafElement) uncheckedEval(x uint64, output []byte) {
	if err := e.prf.Fill([]byte{0}, output); err != nil {
		panic(err)
	}
}

func (e *leafElement) uncheckedEvalRange(r Range, outputs [][]byte) {
	e.uncheckedEval(r.Min(), outputs[0])
}

func (e *leafElement) uncheckedParEvalRange(_ context.Context, r Range, outputs [][]byte) error {
	// A single leaf is not worth spawning a task for.
	e.uncheckedEvalRange(r, outputs)
	return nil
}

func (e *leafElement) uncheckedConstrain(_ Range) *ConstrainedRCPrf {
	return &ConstrainedRCPrf{elements: []element{e.cloneInsecure()}}
}

func (e *leafElement) splitNode() (element, element) {
	panic("rcprf: invalid tree state: attempted to split a leaf")
}

func (e *leafElement) cloneInsecure() element {
	return &leafElement{prf: e.prf.CloneInsecure(), index: e.index, rcprfHgt: e.rcprfHgt}
}

func (e *leafElement) zero() { e.prf.Zero() }

// innerElement owns a KDPRG keying an entire subtree. Children are derived
// on demand via DeriveKeyPair and never persisted: there is no pointer from
// an innerElement to its children.
type innerElement struct {
	prg        *prg.KDPrg
	rng        Range
	subtreeHgt uint8
	rcprfHgt   uint8
}

func (e *innerElement) isLeaf() bool         { return false }
func (e *innerElement) treeHeight() uint8    { return e.rcprfHgt }
func (e *innerElement) subtreeHeight() uint8 { return e.subtreeHgt }
func (e *innerElement) nodeRange() Range     { return e.rng }

// halfWidth returns the width of either child subtree.
func (e *innerElement) halfWidth() uint64 {
	return uint64(1) << (e.subtreeHgt - 2)
}

// childRanges returns the [min,max] ranges covered by the left and right
// children.
func (e *innerElement) childRanges() (left, right Range) {
	hw := e.halfWidth()
	left = NewRange(e.rng.Min(), e.rng.Min()+hw-1)
	right = NewRange(e.rng.Min()+hw, e.rng.Max())
	return
}

// deriveChild derives the key for child index (0 or 1) and wraps it in an
// element. The decision of whether that element is an Inner node or a Leaf
// rests on e's OWN subtree height, not the child's: an Inner node with
// subtree_height greater than 2 yields an Inner child whose subtree_height
// is one less, and an Inner node with subtree_height 2 (width 2) yields
// Leaf children directly.
func (e *innerElement) deriveChild(index uint32, subRange Range) element {
	key, err := e.prg.DeriveKey(index)
	if err != nil {
		panic(err)
	}
	if e.subtreeHgt > 2 {
		return &innerElement{
			prg:        prg.KDFromKey(key),
			rng:        subRange,
			subtreeHgt: e.subtreeHgt - 1,
			rcprfHgt:   e.rcprfHgt,
		}
	}
	return &leafElement{prf: prf.FromKey(key), index: subRange.Min(), rcprfHgt: e.rcprfHgt}
}

func (e *innerElement) uncheckedEval(x uint64, output []byte) {
	child := childIndex(e.rcprfHgt, x, e.rcprfHgt-e.subtreeHgt)

	hw := e.halfWidth()
	submin := e.rng.Min() + uint64(child)*hw
	subRange := NewRange(submin, submin+hw-1)

	childNode := e.deriveChild(child, subRange)
	childNode.uncheckedEval(x, output)
}

func (e *innerElement) uncheckedEvalRange(r Range, outputs [][]byte) {
	if e.subtreeHgt > 2 {
		leftRange, rightRange := e.childRanges()
		offset := 0

		if lr, ok := leftRange.Intersection(r); ok {
			width := int(lr.Width())
			e.deriveChild(0, leftRange).uncheckedEvalRange(lr, outputs[0:width])
			offset = width
		}

		if rr, ok := rightRange.Intersection(r); ok {
			width := int(rr.Width())
			e.deriveChild(1, rightRange).uncheckedEvalRange(rr, outputs[offset:offset+width])
		}
		return
	}

	// subtreeHgt == 2: both children are leaves.
	offset := 0
	if r.ContainsLeaf(e.rng.Min()) {
		e.deriveChild(0, NewRange(e.rng.Min(), e.rng.Min())).uncheckedEval(e.rng.Min(), outputs[0])
		offset++
	}
	if r.ContainsLeaf(e.rng.Max()) {
		e.deriveChild(1, NewRange(e.rng.Max(), e.rng.Max())).uncheckedEval(e.rng.Max(), outputs[offset])
	}
}

func (e *innerElement) uncheckedParEvalRange(ctx context.Context, r Range, outputs [][]byte) error {
	if e.subtreeHgt <= 2 {
		// Not worth spawning a task for two leaves.
		e.uncheckedEvalRange(r, outputs)
		return nil
	}

	leftRange, rightRange := e.childRanges()
	g, ctx := errgroup.WithContext(ctx)

	offset := 0
	if lr, ok := leftRange.Intersection(r); ok {
		width := int(lr.Width())
		leftOutputs := outputs[0:width]
		offset = width

		left := e.deriveChild(0, leftRange)
		g.Go(func() error {
			return left.uncheckedParEvalRange(ctx, lr, leftOutputs)
		})
	}

	if rr, ok := rightRange.Intersection(r); ok {
		width := int(rr.Width())
		rightOutputs := outputs[offset : offset+width]

		// The right subtree continues on this goroutine; only the left
		// subtree was spawned, mirroring a rayon::scope that spawns one
		// side and keeps the other on the calling thread.
		right := e.deriveChild(1, rightRange)
		if err := right.uncheckedParEvalRange(ctx, rr, rightOutputs); err != nil {
			_ = g.Wait()
			return err
		}
	}

	return g.Wait()
}

func (e *innerElement) uncheckedConstrain(r Range) *ConstrainedRCPrf {
	if e.rng.Equal(r) {
		return &ConstrainedRCPrf{elements: []element{e.cloneInsecure()}}
	}

	if e.subtreeHgt > 2 {
		leftRange, rightRange := e.childRanges()

		var left, right *ConstrainedRCPrf
		if lr, ok := leftRange.Intersection(r); ok {
			left = e.deriveChild(0, leftRange).uncheckedConstrain(lr)
		}
		if rr, ok := rightRange.Intersection(r); ok {
			right = e.deriveChild(1, rightRange).uncheckedConstrain(rr)
		}

		switch {
		case left == nil && right == nil:
			panic("rcprf: invalid constrain: range does not intersect either child")
		case left == nil:
			return right
		case right == nil:
			return left
		default:
			if err := left.merge(right); err != nil {
				panic(err)
			}
			return left
		}
	}

	// subtreeHgt == 2, r is a strict, single-leaf sub-range of this node.
	child := childIndex(e.rcprfHgt, r.Min(), e.rcprfHgt-e.subtreeHgt)
	childNode := e.deriveChild(child, NewRange(r.Min(), r.Min()))
	return &ConstrainedRCPrf{elements: []element{childNode}}
}

func (e *innerElement) splitNode() (element, element) {
	leftRange, rightRange := e.childRanges()
	return e.deriveChild(0, leftRange), e.deriveChild(1, rightRange)
}

func (e *innerElement) cloneInsecure() element {
	return &innerElement{
		prg:        e.prg.CloneInsecure(),
		rng:        e.rng,
		subtreeHgt: e.subtreeHgt,
		rcprfHgt:   e.rcprfHgt,
	}
}

func (e *innerElement) zero() { e.prg.Zero() }
