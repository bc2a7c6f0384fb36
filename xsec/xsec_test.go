// SPDX-License-Identifier: MIT

package xsec_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/xsec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/integrate/quad"
)

// integrateOut returns ∫₀^ein f(eout) deout.
func integrateOut(f func(eout float64) float64, ein float64) float64 {
	return quad.Fixed(f, 0, ein, 64, nil, 0)
}

func TestParametric_TotalsPositiveAndRising(t *testing.T) {
	p := xsec.NewParametric()
	for _, f := range flavor.All() {
		for _, c := range []xsec.Channel{xsec.CC, xsec.NC} {
			prev := 0.0
			for _, e := range []float64{1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e9} {
				s := xsec.IsoscalarTotal(p, f, c, e)
				require.Greater(t, s, prev, "%s %s at %g", f, c, e)
				prev = s
			}
		}
	}
}

func TestParametric_TotalMagnitude(t *testing.T) {
	p := xsec.NewParametric()
	// Linear regime at 100 GeV, ~0.68e-36 cm² for νμ CC.
	assert.InEpsilon(t, 0.677e-36, xsec.IsoscalarTotal(p, flavor.NuMu, xsec.CC, 100), 0.05)
	// CC exceeds NC and ν exceeds ν̄ at low energy.
	assert.Greater(t, xsec.IsoscalarTotal(p, flavor.NuMu, xsec.CC, 1e3), xsec.IsoscalarTotal(p, flavor.NuMu, xsec.NC, 1e3))
	assert.Greater(t, xsec.IsoscalarTotal(p, flavor.NuMu, xsec.CC, 1e3), xsec.IsoscalarTotal(p, flavor.NuMuBar, xsec.CC, 1e3))
}

func TestParametric_IsospinAveragesOut(t *testing.T) {
	p := xsec.NewParametric()
	e := 1e5
	n := p.Total(flavor.NuE, xsec.Neutron, xsec.CC, e)
	pr := p.Total(flavor.NuE, xsec.Proton, xsec.CC, e)
	assert.Greater(t, n, pr)
	assert.InEpsilon(t, (n+pr)/2, xsec.IsoscalarTotal(p, flavor.NuE, xsec.CC, e), 1e-12)
	assert.Equal(t, p.Total(flavor.NuE, xsec.Neutron, xsec.NC, e), p.Total(flavor.NuE, xsec.Proton, xsec.NC, e))
}

func TestParametric_DifferentialNormalized(t *testing.T) {
	p := xsec.NewParametric()
	ein := 1e6
	for _, f := range []flavor.Flavor{flavor.NuMu, flavor.NuMuBar} {
		for _, c := range []xsec.Channel{xsec.CC, xsec.NC} {
			got := integrateOut(func(eout float64) float64 {
				return xsec.IsoscalarDifferential(p, f, c, ein, eout)
			}, ein)
			assert.InEpsilon(t, xsec.IsoscalarTotal(p, f, c, ein), got, 1e-6, "%s %s", f, c)
		}
	}
}

func TestParametric_DifferentialSupport(t *testing.T) {
	p := xsec.NewParametric()
	assert.Zero(t, p.Differential(flavor.NuE, xsec.Neutron, xsec.NC, 10, 10))
	assert.Zero(t, p.Differential(flavor.NuE, xsec.Neutron, xsec.NC, 10, 20))
	assert.Zero(t, p.Differential(flavor.NuE, xsec.Neutron, xsec.NC, 10, 0))
	assert.Positive(t, p.Differential(flavor.NuE, xsec.Neutron, xsec.NC, 10, 5))
}

func TestParametric_SecondaryBranching(t *testing.T) {
	p := xsec.NewParametric(xsec.WithQuadraturePoints(48))
	ein := 1e6
	sigma := xsec.IsoscalarTotal(p, flavor.NuTau, xsec.CC, ein)
	tests := []struct {
		sec  flavor.Flavor
		want float64
	}{
		{flavor.NuE, xsec.BranchingTauToE},
		{flavor.NuMu, xsec.BranchingTauToMu},
		{flavor.NuTau, 1},
	}
	for _, tc := range tests {
		t.Run(tc.sec.String(), func(t *testing.T) {
			got := integrateOut(func(eout float64) float64 {
				return xsec.IsoscalarSecondary(p, flavor.NuTau, tc.sec, xsec.CC, ein, eout)
			}, ein)
			assert.InEpsilon(t, tc.want*sigma, got, 1e-2)
		})
	}
}

func TestParametric_SecondaryRules(t *testing.T) {
	p := xsec.NewParametric()
	ein, eout := 1e5, 3e4
	assert.Zero(t, p.Secondary(flavor.NuMu, flavor.NuE, xsec.Neutron, xsec.CC, ein, eout), "light flavors have no secondaries")
	assert.Zero(t, p.Secondary(flavor.NuTau, flavor.NuE, xsec.Neutron, xsec.NC, ein, eout), "NC has no secondaries")
	assert.Zero(t, p.Secondary(flavor.NuTau, flavor.NuEBar, xsec.Neutron, xsec.CC, ein, eout), "parity is conserved")
	assert.Positive(t, p.Secondary(flavor.NuTauBar, flavor.NuMuBar, xsec.Neutron, xsec.CC, ein, eout))
}

func TestParametric_FinalState(t *testing.T) {
	p := xsec.NewParametric()
	ein := 1e6
	sigma := xsec.IsoscalarTotal(p, flavor.NuTau, xsec.CC, ein)
	got := integrateOut(func(e float64) float64 {
		return xsec.IsoscalarFinalState(p, flavor.NuTau, xsec.CC, ein, e)
	}, ein)
	assert.InEpsilon(t, (xsec.BranchingTauToHadrons+xsec.BranchingTauToE)*sigma, got, 1e-2)
	assert.Zero(t, p.FinalState(flavor.NuMu, xsec.Neutron, xsec.CC, ein, 1e5))
}

func TestGlashow_Peak(t *testing.T) {
	g := xsec.NewGlashow()
	peak := xsec.WMass * xsec.WMass / (2 * xsec.ElectronMass)
	top := g.Total(peak)
	assert.Greater(t, top, 3e-31)
	assert.Less(t, top, 7e-31)
	assert.Greater(t, top, g.Total(0.8*peak))
	assert.Greater(t, top, g.Total(1.2*peak))
	assert.Zero(t, g.Total(0))
}

func TestGlashow_DifferentialNormalized(t *testing.T) {
	g := xsec.NewGlashow()
	ein := 6e6
	got := integrateOut(func(e float64) float64 { return g.Differential(ein, e) }, ein)
	assert.InEpsilon(t, 0.1071*g.Total(ein), got, 1e-6)
}

func TestWithoutResonance(t *testing.T) {
	p := xsec.NewParametric(xsec.WithoutResonance())
	assert.Zero(t, p.Resonance().Total(6.3e6))
	assert.NotEqual(t, xsec.NewParametric().ID(), p.ID())
	assert.Panics(t, func() { xsec.WithQuadraturePoints(1) })
}

func TestParametric_NonFiniteInputs(t *testing.T) {
	p := xsec.NewParametric()
	assert.Zero(t, p.Total(flavor.Flavor(9), xsec.Neutron, xsec.CC, 1e3))
	assert.Zero(t, p.Differential(flavor.NuE, xsec.Neutron, xsec.CC, 1e3, math.NaN()))
}
