// SPDX-License-Identifier: MIT

// Package flavor enumerates the six neutrino species propagated by the
// cascade solver and encodes which flavor transitions are physical.
//
// Index layout (even = particle, odd = antiparticle):
//
//	0 νe   1 ν̄e   2 νμ   3 ν̄μ   4 ντ   5 ν̄τ
//
// Transitions never change parity (no lepton-number violation). The only
// flavor-changing transitions are tau regeneration into the light flavors of
// matching parity: ντ → {νe, νμ} and ν̄τ → {ν̄e, ν̄μ}.
package flavor

import (
	"errors"
	"fmt"
	"strings"
)

// Flavor is a neutrino species index in [0, Count).
type Flavor int

const (
	NuE Flavor = iota
	NuEBar
	NuMu
	NuMuBar
	NuTau
	NuTauBar
)

// Count is the number of propagated species.
const Count = 6

var (
	// ErrInvalidFlavor is returned for an index outside [0, Count).
	ErrInvalidFlavor = errors.New("flavor: index out of range [0,6)")

	// ErrParityViolation is returned when a transition would mix particle and antiparticle.
	ErrParityViolation = errors.New("flavor: no lepton-number-violating transitions")

	// ErrNotMixingPair is returned for a flavor-changing pair other than tau regeneration.
	ErrNotMixingPair = errors.New("flavor: transition is not a tau-regeneration pair")
)

var names = [Count]string{"nu_e", "nu_e_bar", "nu_mu", "nu_mu_bar", "nu_tau", "nu_tau_bar"}

// All returns every flavor in index order.
func All() []Flavor {
	return []Flavor{NuE, NuEBar, NuMu, NuMuBar, NuTau, NuTauBar}
}

// Valid reports whether f is in [0, Count).
func (f Flavor) Valid() bool { return f >= 0 && f < Count }

// IsAnti reports whether f is an antineutrino.
func (f Flavor) IsAnti() bool { return f%2 == 1 }

// IsTau reports whether f is ντ or ν̄τ.
func (f Flavor) IsTau() bool { return f == NuTau || f == NuTauBar }

// String returns the canonical snake_case name.
func (f Flavor) String() string {
	if !f.Valid() {
		return fmt.Sprintf("flavor(%d)", int(f))
	}

	return names[f]
}

// Parse maps a canonical name (case-insensitive) or decimal index to a Flavor.
func Parse(s string) (Flavor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return Flavor(i), nil
		}
	}
	var idx int
	if _, err := fmt.Sscanf(s, "%d", &idx); err == nil && Flavor(idx).Valid() && fmt.Sprint(idx) == s {
		return Flavor(idx), nil
	}

	return 0, fmt.Errorf("parse %q: %w", s, ErrInvalidFlavor)
}

// Validate returns ErrInvalidFlavor unless f is in range.
func Validate(f Flavor) error {
	if !f.Valid() {
		return fmt.Errorf("%d: %w", int(f), ErrInvalidFlavor)
	}

	return nil
}

// ValidatePair checks the range of both flavors and that they share parity.
// It does not require the pair to be a mixing pair; see ValidateTransition.
func ValidatePair(f, out Flavor) error {
	if err := Validate(f); err != nil {
		return err
	}
	if err := Validate(out); err != nil {
		return err
	}
	if f%2 != out%2 {
		return fmt.Errorf("%s -> %s: %w", f, out, ErrParityViolation)
	}

	return nil
}

// ValidateTransition accepts f == out for any flavor and f != out only for
// tau regeneration into a matching-parity light flavor.
func ValidateTransition(f, out Flavor) error {
	if err := ValidatePair(f, out); err != nil {
		return err
	}
	if f != out && !IsMixingPair(f, out) {
		return fmt.Errorf("%s -> %s: %w", f, out, ErrNotMixingPair)
	}

	return nil
}

// IsMixingPair reports whether (f, out) is a tau-regeneration pair.
func IsMixingPair(f, out Flavor) bool {
	if !f.IsTau() || !out.Valid() || out.IsTau() {
		return false
	}

	return f%2 == out%2
}

// Secondaries returns the light flavors a tau flavor regenerates into, in
// index order; it is empty for the light flavors.
func Secondaries(f Flavor) []Flavor {
	if !f.IsTau() {
		return nil
	}
	parity := f % 2

	return []Flavor{NuE + parity, NuMu + parity}
}
