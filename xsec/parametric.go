// SPDX-License-Identifier: MIT

package xsec

import (
	"fmt"
	"math"

	"github.com/katalvlaran/nufate/flavor"
	"gonum.org/v1/gonum/integrate/quad"
)

// Tau decay branching ratios.
const (
	BranchingTauToE        = 0.1782
	BranchingTauToMu       = 0.1739
	BranchingTauToHadrons  = 1 - BranchingTauToE - BranchingTauToMu
	DefaultQuadraturePoint = 32
)

// disParams holds a two-regime fit of a DIS total cross-section:
// σ_low = lin·E below the W-propagator regime, σ_high = norm·E^index above it,
// blended harmonically so σ ≈ min(σ_low, σ_high) with a smooth transition.
type disParams struct {
	lin   float64 // cm² GeV⁻¹
	norm  float64 // cm²
	index float64
}

func (p disParams) eval(e float64) float64 {
	low := p.lin * e
	high := p.norm * math.Pow(e, p.index)

	return low * high / (low + high)
}

// [antineutrino][channel]; neutrino fits after Gandhi et al. (CTEQ4-DIS).
var disFits = [2][2]disParams{
	{ // ν
		CC: {lin: 0.677e-38, norm: 5.53e-36, index: 0.363},
		NC: {lin: 0.211e-38, norm: 2.31e-36, index: 0.363},
	},
	{ // ν̄
		CC: {lin: 0.334e-38, norm: 3.64e-36, index: 0.402},
		NC: {lin: 0.124e-38, norm: 1.80e-36, index: 0.409},
	},
}

// isospinSplit is the fractional excess of the ν CC cross-section on neutrons
// over protons (d-quark valence); the sign flips for ν̄. It cancels in the
// isoscalar average.
const isospinSplit = 0.05

// Parametric is an analytic cross-section model: broken power-law DIS totals,
// (1−y) inelasticity shapes, tau-decay spectra folded by Gauss–Legendre
// quadrature, and a Breit–Wigner Glashow resonance.
type Parametric struct {
	points    int
	resonance Resonance
}

// ParametricOption configures NewParametric.
type ParametricOption func(*Parametric)

// WithQuadraturePoints sets the Gauss–Legendre order used for tau-decay folds.
// Panics unless n >= 2.
func WithQuadraturePoints(n int) ParametricOption {
	if n < 2 {
		panic("xsec: WithQuadraturePoints: n must be >= 2")
	}

	return func(p *Parametric) { p.points = n }
}

// WithResonance replaces the Glashow resonance model.
func WithResonance(r Resonance) ParametricOption {
	return func(p *Parametric) { p.resonance = r }
}

// WithoutResonance disables the Glashow resonance.
func WithoutResonance() ParametricOption {
	return func(p *Parametric) { p.resonance = NoResonance{} }
}

// NewParametric returns the reference model.
func NewParametric(opts ...ParametricOption) *Parametric {
	p := &Parametric{points: DefaultQuadraturePoint, resonance: NewGlashow()}
	for _, set := range opts {
		set(p)
	}

	return p
}

var _ Provider = (*Parametric)(nil)

// ID implements Provider.
func (p *Parametric) ID() string {
	return fmt.Sprintf("parametric-v1/q%d/%T", p.points, p.resonance)
}

// Total implements Provider. It is flavor-universal apart from ν/ν̄.
func (p *Parametric) Total(f flavor.Flavor, t Target, c Channel, e float64) float64 {
	if !f.Valid() || e <= 0 {
		return 0
	}
	anti := 0
	if f.IsAnti() {
		anti = 1
	}
	sigma := disFits[anti][c].eval(e)
	if c == CC {
		split := isospinSplit
		if f.IsAnti() {
			split = -split
		}
		if t == Proton {
			split = -split
		}
		sigma *= 1 + split
	}

	return sigma
}

// inelasticity returns the normalized density of y = 1 − E_out/E_in.
// Neutrinos scatter mostly off quarks (1 + (1−y)²), antineutrinos mostly
// off antiquark-like helicity configurations (1/3 + (1−y)²).
func inelasticity(anti bool, y float64) float64 {
	if y < 0 || y > 1 {
		return 0
	}
	u := (1 - y) * (1 - y)
	if anti {
		return 1.5 * (1.0/3 + u)
	}

	return 0.75 * (1 + u)
}

// Differential implements Provider.
func (p *Parametric) Differential(f flavor.Flavor, t Target, c Channel, ein, eout float64) float64 {
	if !(eout > 0) || !(eout < ein) {
		return 0
	}
	y := 1 - eout/ein

	return p.Total(f, t, c, ein) * inelasticity(f.IsAnti(), y) / ein
}

// Lepton-decay spectra in the collinear limit, as densities of the energy
// fraction z carried by the daughter.
func chargedOrTauNeutrino(z float64) float64 { return 5.0/3 - 3*z*z + 4.0/3*z*z*z }
func antiLeptonNeutrino(z float64) float64   { return 2 - 6*z*z + 4*z*z*z }

// fold integrates the CC inelasticity against a tau-decay spectrum:
//
//	F(x) = ∫₀^{1−x} dy p(y) · spectrum(x/(1−y)) / (1−y)
//
// giving the density of x = E_daughter/E_ν.
func (p *Parametric) fold(anti bool, x float64, spectrum func(z float64) float64) float64 {
	if !(x > 0) || !(x < 1) {
		return 0
	}
	integrand := func(y float64) float64 {
		keep := 1 - y
		return inelasticity(anti, y) * spectrum(x/keep) / keep
	}

	return quad.Fixed(integrand, 0, 1-x, p.points, nil, 0)
}

// Secondary implements Provider. Only tau CC interactions yield secondaries:
// light flavors through the leptonic decays, the tau flavor itself through
// every decay mode.
func (p *Parametric) Secondary(f, sec flavor.Flavor, t Target, c Channel, ein, eout float64) float64 {
	if c != CC || !f.IsTau() || !(eout > 0) || !(eout < ein) || f%2 != sec%2 {
		return 0
	}
	anti := f.IsAnti()
	x := eout / ein
	var density float64
	switch {
	case sec == f:
		density = (BranchingTauToE+BranchingTauToMu)*p.fold(anti, x, chargedOrTauNeutrino) +
			BranchingTauToHadrons*p.fold(anti, x, func(float64) float64 { return 1 })
	case sec == flavor.NuE+f%2:
		density = BranchingTauToE * p.fold(anti, x, antiLeptonNeutrino)
	case sec == flavor.NuMu+f%2:
		density = BranchingTauToMu * p.fold(anti, x, antiLeptonNeutrino)
	}

	return p.Total(f, t, c, ein) * density / ein
}

// FinalState implements Provider for the tau CC visible energy: hadronic
// decays deposit everything but the ντ (flat in z), electronic decays deposit
// the electron, muonic decays deposit nothing. Other flavors return 0.
func (p *Parametric) FinalState(f flavor.Flavor, t Target, c Channel, ein, evis float64) float64 {
	if c != CC || !f.IsTau() || !(evis > 0) || !(evis < ein) {
		return 0
	}
	anti := f.IsAnti()
	v := evis / ein
	density := BranchingTauToHadrons*p.fold(anti, v, func(float64) float64 { return 1 }) +
		BranchingTauToE*p.fold(anti, v, chargedOrTauNeutrino)

	return p.Total(f, t, c, ein) * density / ein
}

// Resonance implements Provider.
func (p *Parametric) Resonance() Resonance { return p.resonance }
