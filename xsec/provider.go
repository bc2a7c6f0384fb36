// SPDX-License-Identifier: MIT

// Package xsec defines the cross-section collaborator consumed by the cascade
// solver and ships a parametric reference model.
//
// Units:
//
//	totals          cm²
//	differentials   cm² GeV⁻¹ (density in the outgoing or visible energy)
//
// Providers are queried pointwise; the cascade engine evaluates them on its
// energy grid once and memoizes the result, so providers need not cache.
// A provider signals an unusable value by returning NaN; callers treat any
// non-finite or negative value as fatal.
package xsec

import "github.com/katalvlaran/nufate/flavor"

// Target is the struck nucleon.
type Target int

const (
	Neutron Target = iota
	Proton
)

// Targets lists the nucleons of an isoscalar medium.
var Targets = [2]Target{Neutron, Proton}

func (t Target) String() string {
	if t == Proton {
		return "p"
	}

	return "n"
}

// Channel is the weak interaction channel.
type Channel int

const (
	// CC is the charged-current channel: the neutrino converts to its charged lepton.
	CC Channel = iota
	// NC is the neutral-current channel: the neutrino survives with reduced energy.
	NC
)

func (c Channel) String() string {
	if c == NC {
		return "NC"
	}

	return "CC"
}

// Provider supplies neutrino–nucleon cross-sections.
type Provider interface {
	// ID names the model; it keys persisted eigenbases, so it must change
	// whenever the returned numbers change.
	ID() string

	// Total returns σ(E) for flavor f on target t in channel c.
	Total(f flavor.Flavor, t Target, c Channel, e float64) float64

	// Differential returns dσ/dE_out for the outgoing lepton (the neutrino
	// itself for NC) with energy eout < ein.
	Differential(f flavor.Flavor, t Target, c Channel, ein, eout float64) float64

	// Secondary returns dσ/dE for a neutrino of flavor sec emerging from the
	// decay of the charged lepton produced by f in channel c.
	Secondary(f, sec flavor.Flavor, t Target, c Channel, ein, eout float64) float64

	// FinalState returns dσ/dE_vis for the visible energy deposited by the
	// final state (for tau flavors: the tau decay products).
	FinalState(f flavor.Flavor, t Target, c Channel, ein, evis float64) float64

	// Resonance returns the ν̄e–electron Glashow resonance model.
	Resonance() Resonance
}

// Resonance is the ν̄e e⁻ → W⁻ cross-section per target electron.
type Resonance interface {
	// Total returns σ(E) summed over all W decay channels.
	Total(e float64) float64

	// Differential returns dσ/dE_out for the ν̄e emerging from W⁻ → e⁻ ν̄e.
	Differential(ein, eout float64) float64
}

// IsoscalarTotal averages Total over neutron and proton.
func IsoscalarTotal(p Provider, f flavor.Flavor, c Channel, e float64) float64 {
	var sum float64
	for _, t := range Targets {
		sum += p.Total(f, t, c, e)
	}

	return sum / 2
}

// IsoscalarDifferential averages Differential over neutron and proton.
func IsoscalarDifferential(p Provider, f flavor.Flavor, c Channel, ein, eout float64) float64 {
	var sum float64
	for _, t := range Targets {
		sum += p.Differential(f, t, c, ein, eout)
	}

	return sum / 2
}

// IsoscalarSecondary averages Secondary over neutron and proton.
func IsoscalarSecondary(p Provider, f, sec flavor.Flavor, c Channel, ein, eout float64) float64 {
	var sum float64
	for _, t := range Targets {
		sum += p.Secondary(f, sec, t, c, ein, eout)
	}

	return sum / 2
}

// IsoscalarFinalState averages FinalState over neutron and proton.
func IsoscalarFinalState(p Provider, f flavor.Flavor, c Channel, ein, evis float64) float64 {
	var sum float64
	for _, t := range Targets {
		sum += p.FinalState(f, t, c, ein, evis)
	}

	return sum / 2
}
