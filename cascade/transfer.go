// SPDX-License-Identifier: MIT

package cascade

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/matrix"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// ColumnDensities broadcasts cosZenith against depth (km) and returns one
// column density (nucleons/cm²) per trajectory. Each slice must have length 1
// or the common length T.
func (e *Engine) ColumnDensities(cosZenith, depth []float64) ([]float64, error) {
	if e.path == nil {
		return nil, cascadeErrorf("ColumnDensities", ErrNilProvider)
	}
	t, err := broadcastLen(len(cosZenith), len(depth))
	if err != nil {
		return nil, cascadeErrorf("ColumnDensities", err)
	}
	out := make([]float64, t)
	for k := range out {
		cz := cosZenith[min(k, len(cosZenith)-1)]
		d := depth[min(k, len(depth)-1)]
		x, err := e.path.ColumnDensity(math.Acos(cz), d)
		if err != nil {
			return nil, cascadeErrorf("ColumnDensities", fmt.Errorf("trajectory %d (cos=%g, depth=%g): %w", k, cz, d, err))
		}
		out[k] = x
	}

	return out, nil
}

func broadcastLen(a, b int) (int, error) {
	switch {
	case a == 0 || b == 0:
		return 0, fmt.Errorf("empty trajectory arrays (%d, %d): %w", a, b, ErrShapeMismatch)
	case a == b || b == 1:
		return a, nil
	case a == 1:
		return b, nil
	default:
		return 0, fmt.Errorf("cannot broadcast %d against %d: %w", a, b, ErrShapeMismatch)
	}
}

// TransferMatrixElement propagates a unit flux in energy bin i of flavor f
// through each column density and returns the T×M response normalized to
// that unit flux. M = N for f == out; for a tau-regeneration pair M = 2N with
// the secondary (out) flavor in columns [0, N) and the tau in [N, 2N).
// At zero column density the response is the unit vector at node i.
func (e *Engine) TransferMatrixElement(i int, f, out flavor.Flavor, columns []float64) (*matrix.Dense, error) {
	propagations.WithLabelValues("element").Inc()
	resp, err := e.transferElement(context.Background(), i, f, out, columns)
	if err != nil {
		return nil, cascadeErrorf("TransferMatrixElement", err)
	}

	return resp, nil
}

func (e *Engine) transferElement(ctx context.Context, i int, f, out flavor.Flavor, columns []float64) (*matrix.Dense, error) {
	if err := flavor.ValidateTransition(f, out); err != nil {
		return nil, err
	}
	n := e.grid.Len()
	if i < 0 || i >= n {
		return nil, fmt.Errorf("node %d of %d: %w", i, n, ErrNodeOutOfRange)
	}
	if err := ValidateColumns(columns); err != nil {
		return nil, err
	}

	p := pair{f, out}
	m, offset := n, 0
	if p.mixing() {
		// Secondary flux starts at zero; the tau occupies the lower half.
		m, offset = 2*n, n
	}
	// Bin-normalized delta: flux0·E_i·Width integrates to one.
	flux0 := 1 / (e.grid.Width() * e.grid.At(i))
	init := make([]float64, m)
	init[offset+i] = flux0
	norm := make([]float64, m)
	for k := range norm {
		norm[k] = flux0
	}

	return e.propagate(ctx, p, init, norm, columns)
}

// TransferMatrix computes the column densities of every trajectory and calls
// TransferMatrixAt.
func (e *Engine) TransferMatrix(ctx context.Context, cosZenith, depth []float64) (*TransferMatrix, error) {
	columns, err := e.ColumnDensities(cosZenith, depth)
	if err != nil {
		return nil, cascadeErrorf("TransferMatrix", err)
	}

	return e.TransferMatrixAt(ctx, columns)
}

// TransferMatrixAt assembles the (6, 6, T, N, N) transfer matrix for explicit
// column densities. Light flavors populate only their diagonal block; each tau
// flavor populates its own block and those of the two matching-parity light
// flavors. Energy nodes are processed concurrently.
func (e *Engine) TransferMatrixAt(ctx context.Context, columns []float64) (*TransferMatrix, error) {
	propagations.WithLabelValues("transfer").Inc()
	if err := ValidateColumns(columns); err != nil {
		return nil, cascadeErrorf("TransferMatrix", err)
	}
	ctx, span := e.tracer().Start(ctx, "cascade.TransferMatrix", trace.WithAttributes(
		attribute.Int("trajectories", len(columns)),
		attribute.Int("nodes", e.grid.Len()),
	))
	defer span.End()

	n := e.grid.Len()
	res := newTransferMatrix(columns, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			return e.fillTransferNode(gctx, res, i, columns)
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, cascadeErrorf("TransferMatrix", err)
	}

	return res, nil
}

// fillTransferNode writes every [f][out][t][i] row for one incoming node i.
func (e *Engine) fillTransferNode(ctx context.Context, res *TransferMatrix, i int, columns []float64) error {
	n := e.grid.Len()
	for _, f := range flavor.All() {
		if !f.IsTau() {
			resp, err := e.transferElement(ctx, i, f, f, columns)
			if err != nil {
				return err
			}
			res.fill(f, f, i, resp)

			continue
		}
		for _, out := range flavor.Secondaries(f) {
			resp, err := e.transferElement(ctx, i, f, out, columns)
			if err != nil {
				return err
			}
			secondary, tau, err := matrix.SplitCols(resp, n)
			if err != nil {
				return err
			}
			res.fill(f, out, i, secondary)
			// The tau half does not depend on the secondary flavor.
			res.fill(f, f, i, tau)
		}
	}

	return nil
}

// validateFlux checks a 1×N or 6×N flux and returns it expanded to 6 rows.
func (e *Engine) validateFlux(flux [][]float64) ([][]float64, error) {
	n := e.grid.Len()
	switch len(flux) {
	case 1, flavor.Count:
	default:
		return nil, fmt.Errorf("flux has %d rows, want 1 or %d: %w", len(flux), flavor.Count, ErrShapeMismatch)
	}
	for r, row := range flux {
		if len(row) != n {
			return nil, fmt.Errorf("flux row %d has %d entries, want %d: %w", r, len(row), n, ErrShapeMismatch)
		}
		for k, v := range row {
			if !(v > 0) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("flux[%d][%d] = %g: %w", r, k, v, ErrInvalidFlux)
			}
		}
	}
	out := make([][]float64, flavor.Count)
	for f := range out {
		out[f] = flux[min(f, len(flux)-1)]
	}

	return out, nil
}

// Attenuation computes the column densities of every trajectory and calls
// AttenuationAt.
func (e *Engine) Attenuation(ctx context.Context, flux [][]float64, cosZenith, depth []float64, scale float64) (*Attenuation, error) {
	if _, err := e.validateFlux(flux); err != nil {
		return nil, cascadeErrorf("Attenuation", err)
	}
	columns, err := e.ColumnDensities(cosZenith, depth)
	if err != nil {
		return nil, cascadeErrorf("Attenuation", err)
	}

	return e.AttenuationAt(ctx, flux, columns, scale)
}

// AttenuationAt propagates a differential flux φ (1×N, broadcast to all
// flavors, or 6×N) through scale·columns and returns ψ(X)/ψ(0) per flavor,
// ψ = E²·φ. scale multiplies the column density before exponentiation, which
// is equivalent to scaling every cross-section.
func (e *Engine) AttenuationAt(ctx context.Context, flux [][]float64, columns []float64, scale float64) (*Attenuation, error) {
	propagations.WithLabelValues("attenuation").Inc()
	phi, err := e.validateFlux(flux)
	if err != nil {
		return nil, cascadeErrorf("Attenuation", err)
	}
	if !(scale >= 0) || math.IsInf(scale, 0) {
		return nil, cascadeErrorf("Attenuation", fmt.Errorf("scale %g: %w", scale, ErrInvalidColumn))
	}
	scaled := make([]float64, len(columns))
	for t, x := range columns {
		scaled[t] = scale * x
	}
	if err := ValidateColumns(scaled); err != nil {
		return nil, cascadeErrorf("Attenuation", err)
	}
	ctx, span := e.tracer().Start(ctx, "cascade.Attenuation", trace.WithAttributes(
		attribute.Int("trajectories", len(columns)),
		attribute.Float64("scale", scale),
	))
	defer span.End()

	n := e.grid.Len()
	psi := make([][]float64, flavor.Count)
	for f, row := range phi {
		psi[f] = make([]float64, n)
		for k, v := range row {
			en := e.grid.At(k)
			psi[f][k] = en * en * v
		}
	}

	type job struct {
		p    pair
		resp *matrix.Dense
	}
	var jobs []*job
	for _, f := range flavor.All() {
		if !f.IsTau() {
			jobs = append(jobs, &job{p: pair{f, f}})

			continue
		}
		for _, out := range flavor.Secondaries(f) {
			jobs = append(jobs, &job{p: pair{f, out}})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)
	for _, j := range jobs {
		g.Go(func() error {
			src := psi[j.p.f]
			if !j.p.mixing() {
				var err error
				j.resp, err = e.propagate(gctx, j.p, src, src, scaled)

				return err
			}
			init := make([]float64, 2*n)
			copy(init[n:], src)
			norm := append(append(make([]float64, 0, 2*n), src...), src...)
			var err error
			j.resp, err = e.propagate(gctx, j.p, init, norm, scaled)

			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, cascadeErrorf("Attenuation", err)
	}

	res := newAttenuation(scaled, n)
	var light [flavor.Count]*matrix.Dense
	for _, j := range jobs {
		if !j.p.mixing() {
			light[j.p.f] = j.resp
		}
	}
	tauDone := map[flavor.Flavor]bool{}
	for _, j := range jobs {
		if !j.p.mixing() {
			continue
		}
		secondary, tau, err := matrix.SplitCols(j.resp, n)
		if err != nil {
			return nil, cascadeErrorf("Attenuation", err)
		}
		// Regenerated secondaries add to the light flavor of matching parity.
		if light[j.p.out], err = matrix.Add(light[j.p.out], secondary); err != nil {
			return nil, cascadeErrorf("Attenuation", err)
		}
		if !tauDone[j.p.f] {
			res.setFlavor(j.p.f, tau)
			tauDone[j.p.f] = true
		}
	}
	for _, f := range flavor.All() {
		if !f.IsTau() {
			res.setFlavor(f, light[f])
		}
	}

	return res, nil
}

// Warm decomposes every generator the batched operations need, concurrently.
func (e *Engine) Warm(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)
	for _, f := range flavor.All() {
		outs := append([]flavor.Flavor{f}, flavor.Secondaries(f)...)
		for _, out := range outs {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				_, err := e.eigenbasis(gctx, f, out)

				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return cascadeErrorf("Warm", err)
	}
	e.opts.logger.Debug("eigenbases warmed", "grid", e.grid.String())

	return nil
}
