// SPDX-License-Identifier: MIT

// Package cascade solves the neutrino cascade equation on a log-spaced energy
// grid and propagates fluxes through a column density of target nucleons.
//
// What & Why:
//
// In the E²-weighted flux ψ(E) = E²·φ(E) the cascade equation for one flavor
// discretizes to the linear system
//
//	dψ/dX = M·ψ,   M = Source − Sink
//
// where X is the column density (nucleons/cm²), Sink is diag(σ_tot(E_i)) and
// Source holds the downscattering cross-sections dσ(E_j → E_i) weighted by
// ΔlogE·E_i²/E_j (row i outgoing, column j incoming, j > i). Tau regeneration
// couples a tau flavor to a light flavor of matching parity through the 2N×2N
// block generator
//
//	[ Source(out,out) − Sink(out)   Source(tau,out)             ]
//	[ 0                             Source(tau,tau) − Sink(tau) ]
//
// acting on the stacked vector {secondary flux, tau flux}.
//
// Algorithm:
//   - Stage 1: memoize σ_tot and dσ on the grid per flavor / flavor pair.
//   - Stage 2: diagonalize M = V·diag(w)·V⁻¹ once per pair (general,
//     non-symmetric eigensolver) and cache the LU factors of V.
//   - Stage 3: for an initial vector ψ₀ solve V·c = ψ₀ and reconstruct
//     ψ(X) = Re(V·diag(exp(w·X))·c), rejecting results with a non-negligible
//     imaginary residue or non-finite entries.
//
// Entry points:
//   - TransferMatrixElement: response to a unit flux in one energy bin.
//   - TransferMatrix: every (flavor, out flavor, trajectory, node) response.
//   - Attenuation: propagated/initial ratio of a supplied flux for all flavors.
//
// Concurrency:
//
// An Engine is safe for concurrent use. Caches are populated lazily; the first
// population of a key is deduplicated so concurrent callers share one
// decomposition. Node loops fan out over WithWorkers goroutines.
package cascade
