// SPDX-License-Identifier: MIT

package shower

import (
	"fmt"
	"math"
	"sync"

	"github.com/katalvlaran/nufate/cascade"
	"github.com/katalvlaran/nufate/earth"
	"github.com/katalvlaran/nufate/energy"
	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/matrix"
	"github.com/katalvlaran/nufate/xsec"
	"golang.org/x/sync/singleflight"
)

// cmPerMetre converts an inverse-centimetre rate to inverse metres.
const cmPerMetre = 100

// Engine is a cascade engine that also knows how neutrino interactions
// deposit energy in the detector medium.
type Engine struct {
	*cascade.Engine

	density float64

	mu        sync.RWMutex
	densities map[flavor.Flavor]*matrix.Dense
	group     singleflight.Group
}

// NewEngine builds a shower engine on grid with cross-sections from xs.
// Options passed through WithCascade configure the embedded cascade engine.
func NewEngine(grid *energy.Grid, xs xsec.Provider, path earth.PathLength, opts ...Option) (*Engine, error) {
	o := gatherOptions(opts)
	ce, err := cascade.NewEngine(grid, xs, path, o.cascade...)
	if err != nil {
		return nil, err
	}

	return &Engine{
		Engine:    ce,
		density:   o.density,
		densities: make(map[flavor.Flavor]*matrix.Dense),
	}, nil
}

// MediumDensity returns the medium density in g/cm³.
func (e *Engine) MediumDensity() float64 { return e.density }

// densityFactor converts cm² per nucleon into interactions per metre.
func (e *Engine) densityFactor() float64 {
	return e.density * earth.Avogadro * cmPerMetre
}

// InteractionDensity returns the N×N matrix of interactions per metre that
// deposit visible energy E_k (column) for a neutrino of flavor f at E_i (row).
// The result is a copy and may be modified.
func (e *Engine) InteractionDensity(f flavor.Flavor) (*matrix.Dense, error) {
	d, err := e.interactionDensity(f)
	if err != nil {
		return nil, fmt.Errorf("InteractionDensity: %w", err)
	}

	return d.Clone().(*matrix.Dense), nil
}

func (e *Engine) cachedDensity(f flavor.Flavor) (*matrix.Dense, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.densities[f]

	return d, ok
}

// interactionDensity returns the cached density matrix (do not mutate).
func (e *Engine) interactionDensity(f flavor.Flavor) (*matrix.Dense, error) {
	if err := flavor.Validate(f); err != nil {
		return nil, err
	}
	if d, ok := e.cachedDensity(f); ok {
		return d, nil
	}
	v, err, _ := e.group.Do(f.String(), func() (any, error) {
		if d, ok := e.cachedDensity(f); ok {
			return d, nil
		}
		d, err := e.buildDensity(f)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.densities[f] = d
		e.mu.Unlock()

		return d, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*matrix.Dense), nil
}

func (e *Engine) buildDensity(f flavor.Flavor) (*matrix.Dense, error) {
	grid, xs := e.Grid(), e.Provider()
	n := grid.Len()
	check := func(i, k int, v float64) error {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("interaction density %v[%d][%d] = %g: %w", f, i, k, v, cascade.ErrCrossSection)
		}

		return nil
	}

	// Partial deposits below the neutrino energy.
	partial := make([]float64, n*n)
	// Full deposits: νe CC and the Glashow resonance.
	full := make([]float64, n)
	for i := 0; i < n; i++ {
		enu := grid.At(i)
		for k := 0; k < i; k++ {
			ef := grid.At(k)
			d := xsec.IsoscalarDifferential(xs, f, xsec.NC, enu, enu-ef)
			switch f {
			case flavor.NuMu, flavor.NuMuBar:
				// Hadronic cascade only: the muon carries enu-ef away.
				d += xsec.IsoscalarDifferential(xs, f, xsec.CC, enu, enu-ef)
			case flavor.NuTau, flavor.NuTauBar:
				d += xsec.IsoscalarFinalState(xs, f, xsec.CC, enu, ef)
			}
			d *= grid.BinWidth(k)
			if err := check(i, k, d); err != nil {
				return nil, err
			}
			partial[i*n+k] = d
		}
		if f == flavor.NuE || f == flavor.NuEBar {
			full[i] = xsec.IsoscalarTotal(xs, f, xsec.CC, enu)
		}
		if f == flavor.NuEBar {
			if res := xs.Resonance(); res != nil {
				full[i] += res.Total(enu)
			}
		}
		if err := check(i, i, full[i]); err != nil {
			return nil, err
		}
	}

	lower, err := matrix.NewDenseFrom(n, n, partial)
	if err != nil {
		return nil, err
	}
	diag, err := matrix.NewDiag(full)
	if err != nil {
		return nil, err
	}
	sum, err := matrix.Add(lower, diag)
	if err != nil {
		return nil, err
	}

	return matrix.Scale(sum, e.densityFactor())
}
