// SPDX-License-Identifier: MIT

// Package nufate propagates high-energy neutrino fluxes through the Earth by
// solving the cascade equation on a log-spaced energy grid.
//
// The equation for ψ = E²φ along column density X,
//
//	dψ/dX = (Source − Sink)·ψ
//
// is linear with constant coefficients, so every trajectory is one matrix
// exponential. nufate diagonalizes each generator once, caches the eigenbasis
// (in memory and optionally on disk) and evaluates arbitrary column densities
// by scaling eigenvalues.
//
// Physics covered:
//
//   - Absorption by CC and NC interactions on isoscalar nucleons
//   - NC down-scattering within a flavor
//   - The Glashow resonance (ν̄e e⁻ → W⁻) in absorption and down-scattering
//   - Tau regeneration: ντ → τ → ντ + νe/νμ secondaries of matching parity
//   - Shower rates: visible-energy deposition per metre of detector medium
//
// Packages:
//
//	flavor/      the six species, parity and the tau-regeneration table
//	energy/      log-spaced grid, bin widths and differential elements
//	xsec/        cross-section provider interface and a parametric model
//	earth/       PREM column densities along chords
//	matrix/      dense primitives and kernels for operator assembly
//	cascade/     operators, eigenbasis cache, transfer matrices, attenuation
//	shower/      interaction densities and deposition-rate matrices
//	store/       BadgerDB persistence for eigenbases
//	cmd/nufate   command-line front end
//
// Quick start:
//
//	grid, _ := energy.LogSpace(1e3, 1e10, 100)
//	e, _ := cascade.NewEngine(grid, xsec.NewParametric(), earth.NewPREM())
//	att, _ := e.Attenuation(ctx, [][]float64{flux}, []float64{-1}, []float64{1.5}, 1)
//	ratio, _ := att.Flavor(flavor.NuMu)
//
//	go install github.com/katalvlaran/nufate/cmd/nufate@latest
package nufate
