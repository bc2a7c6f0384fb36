// SPDX-License-Identifier: MIT

package cascade

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/katalvlaran/nufate/earth"
	"github.com/katalvlaran/nufate/energy"
	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/matrix"
	"github.com/katalvlaran/nufate/xsec"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// pair keys per-(flavor, out flavor) caches.
type pair struct {
	f, out flavor.Flavor
}

func (p pair) mixing() bool { return p.f != p.out }

// Engine owns one energy grid, one cross-section provider and the caches
// derived from them.
type Engine struct {
	grid *energy.Grid
	xs   xsec.Provider
	path earth.PathLength
	opts options

	totals memo[flavor.Flavor, []float64]
	diffs  memo[pair, *matrix.Dense]
	bases  memo[pair, *Eigenbasis]

	elemOnce sync.Once
	elements *matrix.Dense
}

// NewEngine builds an engine on grid with cross-sections from xs.
// path may be nil when only the *At entry points (explicit column densities)
// are used.
func NewEngine(grid *energy.Grid, xs xsec.Provider, path earth.PathLength, opts ...Option) (*Engine, error) {
	if grid == nil || xs == nil {
		return nil, ErrNilProvider
	}

	return &Engine{grid: grid, xs: xs, path: path, opts: gatherOptions(opts)}, nil
}

// Grid returns the engine's energy grid.
func (e *Engine) Grid() *energy.Grid { return e.grid }

// Provider returns the engine's cross-section provider.
func (e *Engine) Provider() xsec.Provider { return e.xs }

// Workers returns the concurrency bound set by WithWorkers.
func (e *Engine) Workers() int { return e.opts.workers }

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.opts.logger }

// TracerProvider returns the provider set by WithTracerProvider, or the
// global provider current at the time of the call.
func (e *Engine) TracerProvider() trace.TracerProvider {
	if e.opts.tp != nil {
		return e.opts.tp
	}

	return otel.GetTracerProvider()
}

func (e *Engine) tracer() trace.Tracer { return e.TracerProvider().Tracer(TracerName) }

// checkXS validates a provider value.
func checkXS(op string, v float64, args ...any) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s%v = %g: %w", op, args, v, ErrCrossSection)
	}

	return nil
}

// totalCrossSection returns the cached σ_tot vector (do not mutate).
func (e *Engine) totalCrossSection(f flavor.Flavor) ([]float64, error) {
	if err := flavor.Validate(f); err != nil {
		return nil, err
	}
	v, _, err := e.totals.get(f, func() ([]float64, error) {
		n := e.grid.Len()
		out := make([]float64, n)
		res := e.xs.Resonance()
		for i := 0; i < n; i++ {
			en := e.grid.At(i)
			s := xsec.IsoscalarTotal(e.xs, f, xsec.CC, en) + xsec.IsoscalarTotal(e.xs, f, xsec.NC, en)
			if f == flavor.NuEBar && res != nil {
				// One electron per two nucleons in isoscalar matter.
				s += res.Total(en) / 2
			}
			if err := checkXS("total", s, f, en); err != nil {
				return nil, err
			}
			out[i] = s
		}

		return out, nil
	})

	return v, err
}

// differentialCrossSection returns the cached N×N matrix D with
// D[i][j] = dσ(E_j → E_i) for j > i and zero elsewhere (do not mutate).
func (e *Engine) differentialCrossSection(f, out flavor.Flavor) (*matrix.Dense, error) {
	if err := flavor.ValidateTransition(f, out); err != nil {
		return nil, err
	}
	key := pair{f, out}
	v, _, err := e.diffs.get(key, func() (*matrix.Dense, error) {
		n := e.grid.Len()
		data := make([]float64, n*n)
		res := e.xs.Resonance()
		for i := 0; i < n; i++ {
			eout := e.grid.At(i)
			for j := i + 1; j < n; j++ {
				ein := e.grid.At(j)
				var d float64
				if key.mixing() {
					d = xsec.IsoscalarSecondary(e.xs, f, out, xsec.CC, ein, eout)
				} else {
					d = xsec.IsoscalarDifferential(e.xs, f, xsec.NC, ein, eout)
					if f == flavor.NuEBar && res != nil {
						d += res.Differential(ein, eout) / 2
					}
					if f.IsTau() && e.opts.tauSelfRegen {
						d += xsec.IsoscalarSecondary(e.xs, f, f, xsec.CC, ein, eout)
					}
				}
				if err := checkXS("differential", d, f, out, ein, eout); err != nil {
					return nil, err
				}
				data[i*n+j] = d
			}
		}

		return matrix.NewDenseFrom(n, n, data)
	})

	return v, err
}

// TotalCrossSection returns σ_tot (cm²) at every grid node for flavor f,
// including half the Glashow resonance for ν̄e.
func (e *Engine) TotalCrossSection(f flavor.Flavor) ([]float64, error) {
	v, err := e.totalCrossSection(f)
	if err != nil {
		return nil, cascadeErrorf("TotalCrossSection", err)
	}
	cp := make([]float64, len(v))
	copy(cp, v)

	return cp, nil
}

// DifferentialCrossSection returns the N×N matrix of dσ(E_j → E_i) in
// cm² GeV⁻¹ (row i outgoing, column j incoming; zero unless j > i).
// For f == out it is the NC spectrum (plus the Glashow e⁻ν̄e channel for ν̄e);
// for a tau-regeneration pair it is the CC secondary spectrum.
func (e *Engine) DifferentialCrossSection(f, out flavor.Flavor) (*matrix.Dense, error) {
	v, err := e.differentialCrossSection(f, out)
	if err != nil {
		return nil, cascadeErrorf("DifferentialCrossSection", err)
	}

	return v.Clone().(*matrix.Dense), nil
}

// SinkMatrix returns diag(σ_tot(f)).
func (e *Engine) SinkMatrix(f flavor.Flavor) (*matrix.Dense, error) {
	tot, err := e.totalCrossSection(f)
	if err != nil {
		return nil, cascadeErrorf("SinkMatrix", err)
	}

	return matrix.NewDiag(tot)
}

// SourceMatrix returns the strictly upper-triangular source term
// D[i][j]·ΔlogE·E_i²/E_j.
func (e *Engine) SourceMatrix(f, out flavor.Flavor) (*matrix.Dense, error) {
	d, err := e.differentialCrossSection(f, out)
	if err != nil {
		return nil, cascadeErrorf("SourceMatrix", err)
	}
	weighted, err := matrix.Hadamard(d, e.differentialElements())
	if err != nil {
		return nil, cascadeErrorf("SourceMatrix", err)
	}
	src, err := matrix.TriU(weighted, 1)
	if err != nil {
		return nil, cascadeErrorf("SourceMatrix", err)
	}

	return src, nil
}

// differentialElements returns the N×N matrix of ΔlogE·E_i²/E_j.
func (e *Engine) differentialElements() *matrix.Dense {
	e.elemOnce.Do(func() {
		n := e.grid.Len()
		data := make([]float64, n*n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				data[i*n+j] = e.grid.DifferentialElement(i, j)
			}
		}
		// n >= 2 and len(data) == n*n by construction of the grid.
		e.elements, _ = matrix.NewDenseFrom(n, n, data)
	})

	return e.elements
}

// downscattering returns Source(f, f) − Sink(f).
func (e *Engine) downscattering(f flavor.Flavor) (*matrix.Dense, error) {
	src, err := e.SourceMatrix(f, f)
	if err != nil {
		return nil, err
	}
	sink, err := e.SinkMatrix(f)
	if err != nil {
		return nil, err
	}

	return matrix.Sub(src, sink)
}

// RHSOperator returns the cascade generator for (f, out): N×N when f == out,
// the 2N×2N {secondary, tau} block matrix for a tau-regeneration pair.
func (e *Engine) RHSOperator(f, out flavor.Flavor) (*matrix.Dense, error) {
	if err := flavor.ValidateTransition(f, out); err != nil {
		return nil, cascadeErrorf("RHSOperator", err)
	}
	primary, err := e.downscattering(f)
	if err != nil {
		return nil, cascadeErrorf("RHSOperator", err)
	}
	if f == out {
		return primary, nil
	}
	secondary, err := e.downscattering(out)
	if err != nil {
		return nil, cascadeErrorf("RHSOperator", err)
	}
	production, err := e.SourceMatrix(f, out)
	if err != nil {
		return nil, cascadeErrorf("RHSOperator", err)
	}
	block, err := matrix.Block2x2(secondary, production, nil, primary)
	if err != nil {
		return nil, cascadeErrorf("RHSOperator", err)
	}

	return block, nil
}
