// SPDX-License-Identifier: MIT

package xsec

import "math"

// Electroweak constants (PDG).
const (
	FermiConstant = 1.1663787e-5  // GeV⁻²
	WMass         = 80.379        // GeV
	WWidth        = 2.085         // GeV
	ElectronMass  = 0.51099895e-3 // GeV

	// GeV⁻² → cm².
	gev2ToCm2 = 0.389379e-27

	// W branching ratios used to scale the μ channel to the total and to
	// select the e⁻ν̄e final state.
	branchingWToMu = 0.1063
	branchingWToE  = 0.1071
)

// Glashow is the Breit–Wigner ν̄e e⁻ → W⁻ resonance near 6.3 PeV.
type Glashow struct{}

// NewGlashow returns the default resonance model.
func NewGlashow() Glashow { return Glashow{} }

var _ Resonance = Glashow{}

// muonChannel is σ(ν̄e e⁻ → ν̄μ μ⁻).
func muonChannel(e float64) float64 {
	s := 2 * ElectronMass * e
	m2 := WMass * WMass
	d := s - m2

	return FermiConstant * FermiConstant * s / (3 * math.Pi) *
		m2 * m2 / (d*d + m2*WWidth*WWidth) * gev2ToCm2
}

// Total implements Resonance.
func (Glashow) Total(e float64) float64 {
	if !(e > 0) {
		return 0
	}

	return muonChannel(e) / branchingWToMu
}

// Differential implements Resonance. The outgoing ν̄e from W⁻ → e⁻ν̄e carries
// a fraction z = eout/ein distributed as 3z² (V−A helicity structure).
func (g Glashow) Differential(ein, eout float64) float64 {
	if !(eout > 0) || !(eout < ein) {
		return 0
	}
	z := eout / ein

	return g.Total(ein) * branchingWToE * 3 * z * z / ein
}

// NoResonance disables the Glashow channel.
type NoResonance struct{}

// Total implements Resonance.
func (NoResonance) Total(float64) float64 { return 0 }

// Differential implements Resonance.
func (NoResonance) Differential(float64, float64) float64 { return 0 }
