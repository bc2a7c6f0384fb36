// SPDX-License-Identifier: MIT

// Package shower turns cascade transfer matrices into the rate of visible
// energy deposition per metre of detector medium.
//
// InteractionDensity(f) is an N×N matrix indexed [incoming node][deposited
// node] in events per metre. It combines:
//
//	NC      all flavors, deposited energy E_ν − E_ν' (below the diagonal)
//	CC νμ   the initial hadronic cascade only; the muon escapes
//	CC ντ   the visible energy left after the tau decays
//	CC νe   the whole neutrino energy (diagonal)
//	GR ν̄e   the Glashow resonance total cross-section (diagonal)
//
// Engine.TransferMatrix folds the attenuated flux of every incoming flavor and
// node through the density of every flavor it can reach, so each entry is a
// rate per metre rather than a survival fraction.
package shower
