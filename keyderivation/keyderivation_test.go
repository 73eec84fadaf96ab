// Copyright (c) 2024-2026 The RCPRF-TK Authors
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

package keyderivation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opensse/rcprf-tk/key256"
	"github.com/opensse/rcprf-tk/rcprf"
)

// Test_KeyDerivationConsistency mirrors key_derivation_rcprf_consistency:
// DeriveKeysRange and the sequential key iterator must both agree with a
// direct byte-level EvalRange over the same underlying key.
func Test_KeyDerivationConsistency(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	const height = 6

	root, err := key256.New()
	require.NoError(err)
	rootDup := root.CloneInsecure()

	reference, err := rcprf.FromKey(root, height)
	require.NoError(err)

	full := reference.Range()
	referenceBufs := make([][]byte, full.Width())
	for i := range referenceBufs {
		referenceBufs[i] = make([]byte, key256.Size)
	}
	require.NoError(reference.EvalRange(full, referenceBufs))

	kd, err := FromKey(rootDup, height, Key256Factory)
	require.NoError(err)

	keys, err := kd.DeriveKeysRange(full)
	require.NoError(err)
	require.Len(keys, len(referenceBufs))

	it, err := kd.KeyRangeIterator(full)
	require.NoError(err)

	for i, want := range referenceBufs {
		require.Equal(want, keys[i].Bytes(), "leaf %d: DeriveKeysRange mismatch", full.Min()+uint64(i))

		pair, ok, err := it.Next()
		require.NoError(err)
		require.True(ok)
		require.Equal(full.Min()+uint64(i), pair.Index)
		require.Equal(want, pair.Key.Bytes(), "leaf %d: iterator mismatch", full.Min()+uint64(i))
	}

	_, ok, err := it.Next()
	require.NoError(err)
	require.False(ok)
}

// Test_ParKeyDerivationConsistency mirrors
// par_key_derivation_rcprf_consistency.
func Test_ParKeyDerivationConsistency(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	const height = 6
	ctx := context.Background()

	root, err := key256.New()
	require.NoError(err)
	rootDup := root.CloneInsecure()

	reference, err := rcprf.FromKey(root, height)
	require.NoError(err)

	full := reference.Range()
	referenceBufs := make([][]byte, full.Width())
	for i := range referenceBufs {
		referenceBufs[i] = make([]byte, key256.Size)
	}
	require.NoError(reference.ParEvalRange(ctx, full, referenceBufs))

	kd, err := FromKey(rootDup, height, Key256Factory)
	require.NoError(err)

	keys, err := kd.ParDeriveKeysRange(ctx, full)
	require.NoError(err)

	constrained, err := kd.Constrain(full)
	require.NoError(err)
	parIterKeys, err := constrained.IntoKeyParIterator(ctx)
	require.NoError(err)

	require.Len(keys, len(referenceBufs))
	require.Len(parIterKeys, len(referenceBufs))

	for i, want := range referenceBufs {
		require.Equal(want, keys[i].Bytes())
		require.Equal(full.Min()+uint64(i), parIterKeys[i].Index)
		require.Equal(want, parIterKeys[i].Key.Bytes())
	}
}

// Test_DeriveKey_SinglePoint checks DeriveKey against direct Eval.
func Test_DeriveKey_SinglePoint(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	root, err := key256.New()
	require.NoError(err)
	rootDup := root.CloneInsecure()

	reference, err := rcprf.FromKey(root, 5)
	require.NoError(err)
	kd, err := FromKey(rootDup, 5, Key256Factory)
	require.NoError(err)

	want := make([]byte, key256.Size)
	require.NoError(reference.Eval(9, want))

	got, err := kd.DeriveKey(9)
	require.NoError(err)
	require.Equal(want, got.Bytes())
}
