// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/katalvlaran/nufate/cascade"
	"github.com/katalvlaran/nufate/energy"
	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/xsec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func complexBasis(t *testing.T) *cascade.Eigenbasis {
	t.Helper()
	// Rotation generator eigenvectors: (1, ∓i)/√2.
	const h = 0.7071067811865476
	b, err := cascade.NewEigenbasis(
		[]complex128{complex(-1, 2), complex(-1, -2)},
		[]complex128{complex(h, 0), complex(h, 0), complex(0, -h), complex(0, h)},
	)
	require.NoError(t, err)

	return b
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, ErrNoPath)

	s, err := Open("", WithInMemory())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestBadger_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(dir, WithSyncWrites())
	require.NoError(t, err)

	_, ok, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := complexBasis(t)
	require.NoError(t, s.Save(ctx, "eigen/test", want))
	require.NoError(t, s.Close())

	// Reopen to check the record survived on disk.
	s, err = Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, ok, err := s.Load(ctx, "eigen/test")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Values(), got.Values())
	assert.Equal(t, want.Vectors(), got.Vectors())
	assert.False(t, got.IsReal())
	assert.InEpsilon(t, want.Condition(), got.Condition(), 1e-12)
}

func TestBadger_Corrupt(t *testing.T) {
	ctx := context.Background()
	s, err := Open("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	raw := encode(complexBasis(t))
	records := map[string][]byte{
		"short":     raw[:3],
		"magic":     append([]byte("XXXX"), raw[4:]...),
		"version":   append(append([]byte(magic), 9), raw[5:]...),
		"truncated": raw[:len(raw)-8],
		// All-zero eigenvectors are singular.
		"singular": append(append([]byte(nil), raw[:headerLength+32]...), make([]byte, len(raw)-headerLength-32)...),
		// Dimensions the payload cannot hold.
		"dim-max32": oversizedRecord(math.MaxUint32),
		"dim-bound": oversizedRecord(maxDim + 1),
	}
	for key, v := range records {
		require.NoError(t, s.db.Update(func(txn *badger.Txn) error { return txn.Set([]byte(key), v) }))
	}
	for key := range records {
		_, ok, err := s.Load(ctx, key)
		assert.ErrorIs(t, err, ErrCorrupt, key)
		assert.False(t, ok, key)
	}
}

// oversizedRecord is a valid header claiming dim entries with a
// one-value payload.
func oversizedRecord(dim uint32) []byte {
	rec := append([]byte(magic), version)
	rec = binary.LittleEndian.AppendUint32(rec, dim)

	return append(rec, make([]byte, 16)...)
}

func TestDecode_RejectsOversizedDim(t *testing.T) {
	for _, dim := range []uint32{maxDim + 1, 1 << 31, math.MaxUint32} {
		_, err := decode(oversizedRecord(dim))
		assert.ErrorIs(t, err, ErrCorrupt, "dim %d", dim)
	}
}

func TestBadger_ContextAndNil(t *testing.T) {
	s, err := Open("", WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Save(ctx, "k", complexBasis(t)), context.Canceled)
	_, err = s.Keys(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)

	assert.Error(t, s.Save(context.Background(), "k", nil))
}

func TestBadger_BacksEngine(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	g, err := energy.LogSpace(1e3, 1e7, 5)
	require.NoError(t, err)
	first, err := cascade.NewEngine(g, xsec.NewParametric(), nil, cascade.WithStore(s))
	require.NoError(t, err)
	require.NoError(t, first.Warm(ctx))

	keys, err := s.Keys(ctx, "eigen/")
	require.NoError(t, err)
	assert.Len(t, keys, 10)

	second, err := cascade.NewEngine(g, xsec.NewParametric(), nil, cascade.WithStore(s))
	require.NoError(t, err)
	for _, f := range flavor.All() {
		a, err := first.Eigenbasis(f, f)
		require.NoError(t, err)
		b, err := second.Eigenbasis(f, f)
		require.NoError(t, err)
		assert.Equal(t, a.Values(), b.Values(), f.String())
	}

	x := []float64{0, 1e33, 1e34}
	want, err := first.TransferMatrixElement(4, flavor.NuTau, flavor.NuE, x)
	require.NoError(t, err)
	got, err := second.TransferMatrixElement(4, flavor.NuTau, flavor.NuE, x)
	require.NoError(t, err)
	assert.Equal(t, want.RawData(), got.RawData())
}
