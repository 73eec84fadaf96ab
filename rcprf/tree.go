// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package rcprf

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/opensse/rcprf-tk/key256"
	"github.com/opensse/rcprf-tk/logging"
	"github.com/opensse/rcprf-tk/prg"
)

// RangePRF is the public behavior shared by an unconstrained RC-PRF and any
// constrained RC-PRF derived from one: point evaluation, sequential and
// parallel range evaluation, and further constraining.
type RangePRF interface {
	// Range returns the domain [min,max] on which evaluation succeeds.
	Range() Range
	// TreeHeight returns the height of the underlying tree; it is
	// invariant under Constrain.
	TreeHeight() uint8
	// Eval fills output with the pseudo-random value at leaf x.
	Eval(x uint64, output []byte) error
	// EvalRange fills outputs[i] with the value at leaf r.Min()+i.
	EvalRange(r Range, outputs [][]byte) error
	// ParEvalRange behaves like EvalRange but may evaluate subtrees
	// concurrently; its output is always byte-identical to EvalRange's.
	ParEvalRange(ctx context.Context, r Range, outputs [][]byte) error
	// Constrain returns a RangePRF whose Range() is exactly r.
	Constrain(r Range) (*ConstrainedRCPrf, error)
}

// checkedEval implements the bounds-checked Eval contract shared by RCPrf
// and ConstrainedRCPrf: verify x falls in rng, then delegate to e.
func checkedEval(e element, rng Range, x uint64, output []byte) error {
	if !rng.ContainsLeaf(x) {
		return &InvalidEvalPointError{Point: x, Valid: rng}
	}
	e.uncheckedEval(x, output)
	return nil
}

func checkedEvalRange(e element, rng Range, r Range, outputs [][]byte) error {
	if !rng.ContainsRange(r) {
		return &OutOfRangeError{Target: r, Valid: rng}
	}
	// Width wraps to 0 for the full H=65 range, whose 2^64 leaves no
	// outputs slice can hold.
	if r.Width() == 0 || r.Width() != uint64(len(outputs)) {
		return &WidthMismatchError{OutputsLen: len(outputs), RangeWidth: r.Width()}
	}
	e.uncheckedEvalRange(r, outputs)
	return nil
}

func checkedParEvalRange(ctx context.Context, e element, rng Range, r Range, outputs [][]byte) error {
	if !rng.ContainsRange(r) {
		return &OutOfRangeError{Target: r, Valid: rng}
	}
	if r.Width() == 0 || r.Width() != uint64(len(outputs)) {
		return &WidthMismatchError{OutputsLen: len(outputs), RangeWidth: r.Width()}
	}
	return e.uncheckedParEvalRange(ctx, r, outputs)
}

func checkedConstrain(e element, rng Range, r Range) (*ConstrainedRCPrf, error) {
	if !rng.ContainsRange(r) {
		return nil, &OutOfRangeError{Target: r, Valid: rng}
	}
	return e.uncheckedConstrain(r), nil
}

// RCPrf is an unconstrained range-constrained PRF: a single Inner element
// whose range spans the full tree, [0, MaxLeafIndex(height)].
type RCPrf struct {
	root   *innerElement
	logger logging.Logger
}

// Option customizes an RCPrf at construction time.
type Option func(*RCPrf)

// WithLogger attaches a Logger that traces construction and Constrain
// calls without ever logging key material or evaluation outputs. Omit
// this option to get logging.NoOp. The logger carries over to every
// ConstrainedRCPrf derived from this RCPrf.
func WithLogger(l logging.Logger) Option {
	return func(r *RCPrf) { r.logger = l }
}

// New returns an RCPrf based on a tree of the given height, with a
// freshly generated random root key.
func New(height uint8, opts ...Option) (*RCPrf, error) {
	k, err := key256.New()
	if err != nil {
		return nil, err
	}
	return FromKey(k, height, opts...)
}

// FromKey returns an RCPrf based on a tree of the given height, rooted at
// the given key. FromKey takes ownership of root; callers must not retain
// their own reference to it.
func FromKey(root *key256.Key256, height uint8, opts ...Option) (*RCPrf, error) {
	if height > MaxHeight {
		return nil, &InvalidTreeHeightError{Height: height, Max: MaxHeight}
	}
	r := &RCPrf{
		root: &innerElement{
			prg:        prg.KDFromKey(root),
			rng:        NewRange(0, MaxLeafIndex(height)),
			subtreeHgt: height,
			rcprfHgt:   height,
		},
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger.Debug(context.Background(), "rcprf: constructed tree", "height", height)
	return r, nil
}

// Range returns [0, MaxLeafIndex(TreeHeight())].
func (r *RCPrf) Range() Range { return r.root.nodeRange() }

// TreeHeight returns the height the RCPrf was constructed with.
func (r *RCPrf) TreeHeight() uint8 { return r.root.treeHeight() }

// Eval fills output with the pseudo-random value at leaf x.
func (r *RCPrf) Eval(x uint64, output []byte) error {
	return checkedEval(r.root, r.Range(), x, output)
}

// EvalRange fills outputs[i] with the value at leaf rng.Min()+i.
func (r *RCPrf) EvalRange(rng Range, outputs [][]byte) error {
	return checkedEvalRange(r.root, r.Range(), rng, outputs)
}

// ParEvalRange behaves like EvalRange but evaluates the two subtrees of
// every Inner node it visits concurrently.
func (r *RCPrf) ParEvalRange(ctx context.Context, rng Range, outputs [][]byte) error {
	return checkedParEvalRange(ctx, r.root, r.Range(), rng, outputs)
}

// Constrain returns a ConstrainedRCPrf whose Range() equals rng.
func (r *RCPrf) Constrain(rng Range) (*ConstrainedRCPrf, error) {
	c, err := checkedConstrain(r.root, r.Range(), rng)
	if err != nil {
		return nil, err
	}
	if r.logger == nil {
		r.logger = logging.NoOp()
	}
	c.logger = r.logger
	c.logger.Info(context.Background(), "rcprf: constrained tree", "range", rng.String())
	return c, nil
}

// Zero zeroes the RCPrf's embedded root key material.
func (r *RCPrf) Zero() { r.root.zero() }

// ConstrainedRCPrf is the result of constraining an RCPrf (or another
// ConstrainedRCPrf) to a sub-range: an ordered sequence of tree elements
// whose ranges partition the constrained range into complete subtrees and,
// at the edges, singleton leaves.
type ConstrainedRCPrf struct {
	elements []element
	logger   logging.Logger
}

// Range returns the union of the element sequence's individual ranges:
// [first.Min(), last.Max()].
func (c *ConstrainedRCPrf) Range() Range {
	return NewRange(c.elements[0].nodeRange().Min(), c.elements[len(c.elements)-1].nodeRange().Max())
}

// TreeHeight returns the height of the tree this ConstrainedRCPrf was
// constrained from; it never changes under further constraining.
func (c *ConstrainedRCPrf) TreeHeight() uint8 {
	return c.elements[0].treeHeight()
}

// elementFor returns the element whose range contains x.
func (c *ConstrainedRCPrf) elementFor(x uint64) element {
	for _, e := range c.elements {
		if e.nodeRange().ContainsLeaf(x) {
			return e
		}
	}
	return nil
}

func (c *ConstrainedRCPrf) uncheckedEval(x uint64, output []byte) {
	e := c.elementFor(x)
	if e == nil {
		panic("rcprf: invalid constrained state: no element covers the requested leaf")
	}
	e.uncheckedEval(x, output)
}

func (c *ConstrainedRCPrf) uncheckedEvalRange(r Range, outputs [][]byte) {
	offset := 0
	for _, e := range c.elements {
		sub, ok := e.nodeRange().Intersection(r)
		if !ok {
			continue
		}
		width := int(sub.Width())
		e.uncheckedEvalRange(sub, outputs[offset:offset+width])
		offset += width
	}
}

func (c *ConstrainedRCPrf) uncheckedParEvalRange(ctx context.Context, r Range, outputs [][]byte) error {
	type job struct {
		e      element
		sub    Range
		output [][]byte
	}
	var jobs []job
	offset := 0
	for _, e := range c.elements {
		sub, ok := e.nodeRange().Intersection(r)
		if !ok {
			continue
		}
		width := int(sub.Width())
		jobs = append(jobs, job{e: e, sub: sub, output: outputs[offset : offset+width]})
		offset += width
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			return j.e.uncheckedParEvalRange(ctx, j.sub, j.output)
		})
	}
	return g.Wait()
}

func (c *ConstrainedRCPrf) uncheckedConstrain(r Range) *ConstrainedRCPrf {
	result := &ConstrainedRCPrf{}
	for _, e := range c.elements {
		sub, ok := e.nodeRange().Intersection(r)
		if !ok {
			continue
		}
		if err := result.merge(e.uncheckedConstrain(sub)); err != nil {
			panic(err)
		}
	}
	return result
}

// Eval fills output with the pseudo-random value at leaf x.
func (c *ConstrainedRCPrf) Eval(x uint64, output []byte) error {
	return checkedEval(constrainedAsElement{c}, c.Range(), x, output)
}

// EvalRange fills outputs[i] with the value at leaf rng.Min()+i.
func (c *ConstrainedRCPrf) EvalRange(rng Range, outputs [][]byte) error {
	return checkedEvalRange(constrainedAsElement{c}, c.Range(), rng, outputs)
}

// ParEvalRange behaves like EvalRange but evaluates independent elements,
// and each element's subtrees, concurrently.
func (c *ConstrainedRCPrf) ParEvalRange(ctx context.Context, rng Range, outputs [][]byte) error {
	return checkedParEvalRange(ctx, constrainedAsElement{c}, c.Range(), rng, outputs)
}

// Constrain returns a ConstrainedRCPrf whose Range() equals rng.
func (c *ConstrainedRCPrf) Constrain(rng Range) (*ConstrainedRCPrf, error) {
	result, err := checkedConstrain(constrainedAsElement{c}, c.Range(), rng)
	if err != nil {
		return nil, err
	}
	result.logger = c.loggerOrNoOp()
	result.logger.Info(context.Background(), "rcprf: further constrained tree", "range", rng.String())
	return result, nil
}

// loggerOrNoOp returns c.logger, falling back to logging.NoOp for
// ConstrainedRCPrf values built outside of RCPrf.Constrain (for instance,
// ones freshly deserialized) that never had a logger assigned.
func (c *ConstrainedRCPrf) loggerOrNoOp() logging.Logger {
	if c.logger == nil {
		return logging.NoOp()
	}
	return c.logger
}

// Zero zeroes every element's embedded key material.
func (c *ConstrainedRCPrf) Zero() {
	for _, e := range c.elements {
		e.zero()
	}
	c.elements = nil
}

// merge appends other's elements to c's if the two ranges are exactly
// consecutive (other immediately follows or immediately precedes c), and
// errors otherwise. An empty receiver or argument is absorbed without
// error, matching the base case of the range-eval/constrain recursion
// where one side of a split may not intersect the requested range at all.
func (c *ConstrainedRCPrf) merge(other *ConstrainedRCPrf) error {
	if len(c.elements) == 0 {
		c.elements = other.elements
		return nil
	}
	if len(other.elements) == 0 {
		return nil
	}

	cRange, otherRange := c.Range(), other.Range()
	switch {
	case cRange.Max() < otherRange.Min():
		if otherRange.Min()-cRange.Max() == 1 {
			c.elements = append(c.elements, other.elements...)
			return nil
		}
	case cRange.Min() > otherRange.Max():
		if cRange.Min()-otherRange.Max() == 1 {
			c.elements = append(other.elements, c.elements...)
			return nil
		}
	}
	return &NonConsecutiveMergeRangesError{A: cRange, B: otherRange}
}

// constrainedAsElement adapts *ConstrainedRCPrf to the element interface so
// that checkedEval/checkedEvalRange/checkedParEvalRange/checkedConstrain
// can be shared between RCPrf and ConstrainedRCPrf without duplicating the
// bounds-checking logic.
type constrainedAsElement struct {
	c *ConstrainedRCPrf
}

func (a constrainedAsElement) isLeaf() bool         { return len(a.c.elements) == 1 && a.c.elements[0].isLeaf() }
func (a constrainedAsElement) treeHeight() uint8    { return a.c.TreeHeight() }
func (a constrainedAsElement) subtreeHeight() uint8 { return a.c.elements[0].subtreeHeight() }
func (a constrainedAsElement) nodeRange() Range     { return a.c.Range() }

func (a constrainedAsElement) uncheckedEval(x uint64, output []byte) { a.c.uncheckedEval(x, output) }
func (a constrainedAsElement) uncheckedEvalRange(r Range, outputs [][]byte) {
	a.c.uncheckedEvalRange(r, outputs)
}
func (a constrainedAsElement) uncheckedParEvalRange(ctx context.Context, r Range, outputs [][]byte) error {
	return a.c.uncheckedParEvalRange(ctx, r, outputs)
}
func (a constrainedAsElement) uncheckedConstrain(r Range) *ConstrainedRCPrf {
	return a.c.uncheckedConstrain(r)
}
func (a constrainedAsElement) splitNode() (element, element) {
	panic("rcprf: constrainedAsElement does not support splitNode")
}
func (a constrainedAsElement) cloneInsecure() element {
	panic("rcprf: constrainedAsElement does not support cloneInsecure")
}
func (a constrainedAsElement) zero() { a.c.Zero() }
