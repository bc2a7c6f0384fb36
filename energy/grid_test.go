// SPDX-License-Identifier: MIT

package energy_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/nufate/energy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSpace_Scenario(t *testing.T) {
	g, err := energy.LogSpace(1e3, 1e7, 5)
	require.NoError(t, err)
	require.Equal(t, 5, g.Len())
	assert.Equal(t, []float64{1e3, 1e4, 1e5, 1e6, 1e7}, roundAll(g.Nodes()))
	assert.InDelta(t, math.Log(10), g.DLogE(), 1e-12)
	assert.InDelta(t, 2*math.Sinh(math.Log(10)/2), g.Width(), 1e-12)
	assert.InDelta(t, 1e4*g.Width(), g.BinWidth(1), 1e-6)
}

func TestNewGrid_Validation(t *testing.T) {
	tests := []struct {
		name  string
		nodes []float64
		want  error
	}{
		{"single", []float64{1}, energy.ErrTooFewNodes},
		{"zero", []float64{0, 1}, energy.ErrNonPositive},
		{"nan", []float64{1, math.NaN()}, energy.ErrNonPositive},
		{"decreasing", []float64{10, 1}, energy.ErrNotIncreasing},
		{"linear", []float64{1, 2, 3}, energy.ErrNotLogSpaced},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := energy.NewGrid(tc.nodes)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNewGrid_Tolerance(t *testing.T) {
	nodes := []float64{1, 10, 100.01}
	_, err := energy.NewGrid(nodes)
	assert.ErrorIs(t, err, energy.ErrNotLogSpaced)

	_, err = energy.NewGrid(nodes, energy.WithSpacingTolerance(1e-3))
	assert.NoError(t, err)
	assert.Panics(t, func() { energy.WithSpacingTolerance(-1) })
}

func TestGrid_IsImmutable(t *testing.T) {
	nodes := []float64{1, 10, 100}
	g, err := energy.NewGrid(nodes)
	require.NoError(t, err)
	nodes[0] = 5
	assert.Equal(t, 1.0, g.At(0))
	out := g.Nodes()
	out[1] = 0
	assert.Equal(t, 10.0, g.At(1))
}

func TestDifferentialElement(t *testing.T) {
	g, err := energy.NewGrid([]float64{1, 10, 100})
	require.NoError(t, err)
	// ΔlogE · E_i² / E_j with i=0 (1 GeV) receiving from j=2 (100 GeV).
	assert.InDelta(t, math.Log(10)*1/100, g.DifferentialElement(0, 2), 1e-15)
}

func TestFingerprint(t *testing.T) {
	a, _ := energy.LogSpace(1e3, 1e7, 5)
	b, _ := energy.LogSpace(1e3, 1e7, 5)
	c, _ := energy.LogSpace(1e3, 1e7, 6)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Len(t, a.Fingerprint(), 24)
}

func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = math.Round(x)
	}

	return out
}
