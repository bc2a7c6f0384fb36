// SPDX-License-Identifier: MIT

// Package earth supplies column densities (target nucleons per cm²) along a
// neutrino trajectory ending at a detector buried in a spherical Earth.
//
// Geometry: a detector at depth d below the surface sits at radius R−d.
// A neutrino arriving from zenith θ (0 = straight down, π = straight up)
// has traversed the chord of length
//
//	L(θ, d) = −(R−d)·cosθ + sqrt(R² − (R−d)²·sin²θ)
//
// and, at distance s back along its track, was at radius
// r(s)² = (R−d)² + s² + 2s(R−d)·cosθ.
package earth

import (
	"errors"
	"fmt"
	"math"
)

const (
	// Radius is the mean Earth radius in km.
	Radius = 6371.0

	// Avogadro converts grams of isoscalar matter into nucleons.
	Avogadro = 6.0221415e23

	kmToCm = 1e5
)

var (
	// ErrZenithRange is returned for a zenith outside [0, π] or non-finite.
	ErrZenithRange = errors.New("earth: zenith must be in [0, pi]")

	// ErrDepthRange is returned for a depth outside [0, Radius).
	ErrDepthRange = errors.New("earth: depth must be in [0, 6371) km")
)

// PathLength yields the column density in nucleons/cm² for a trajectory
// arriving at zenith angle zenith (radians) at a detector depthKM below the
// surface.
type PathLength interface {
	ColumnDensity(zenith, depthKM float64) (float64, error)
}

// Func adapts an ordinary function to PathLength.
type Func func(zenith, depthKM float64) (float64, error)

// ColumnDensity implements PathLength.
func (f Func) ColumnDensity(zenith, depthKM float64) (float64, error) { return f(zenith, depthKM) }

// Constant returns the same column density for every trajectory.
type Constant float64

// ColumnDensity implements PathLength.
func (c Constant) ColumnDensity(zenith, depthKM float64) (float64, error) {
	if err := validate(zenith, depthKM); err != nil {
		return 0, err
	}

	return float64(c), nil
}

func validate(zenith, depthKM float64) error {
	if !(zenith >= 0 && zenith <= math.Pi) {
		return fmt.Errorf("zenith %g: %w", zenith, ErrZenithRange)
	}
	if !(depthKM >= 0 && depthKM < Radius) {
		return fmt.Errorf("depth %g: %w", depthKM, ErrDepthRange)
	}

	return nil
}

// ChordLength returns L(θ, d) in km.
func ChordLength(zenith, depthKM float64) float64 {
	rd := Radius - depthKM
	sin := math.Sin(zenith)

	return -rd*math.Cos(zenith) + math.Sqrt(Radius*Radius-rd*rd*sin*sin)
}
