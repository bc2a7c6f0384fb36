// SPDX-License-Identifier: MIT

package shower

import (
	"context"
	"fmt"

	"github.com/katalvlaran/nufate/cascade"
	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/matrix"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// TracerName is the instrumentation scope of shower spans.
const TracerName = "nufate.shower"

// TransferMatrix computes the column densities of every trajectory and calls
// TransferMatrixAt.
func (e *Engine) TransferMatrix(ctx context.Context, cosZenith, depth []float64) (*ShowerMatrix, error) {
	columns, err := e.ColumnDensities(cosZenith, depth)
	if err != nil {
		return nil, fmt.Errorf("shower.TransferMatrix: %w", err)
	}

	return e.TransferMatrixAt(ctx, columns)
}

// TransferMatrixAt propagates unit flux in every (flavor, node) through
// columns and folds the arriving spectrum of each reachable flavor through
// that flavor's interaction density. A tau flavor reaches itself and the two
// light flavors of matching parity; a light flavor reaches only itself.
func (e *Engine) TransferMatrixAt(ctx context.Context, columns []float64) (*ShowerMatrix, error) {
	if err := cascade.ValidateColumns(columns); err != nil {
		return nil, fmt.Errorf("shower.TransferMatrix: %w", err)
	}
	ctx, span := e.TracerProvider().Tracer(TracerName).Start(ctx, "shower.TransferMatrix", trace.WithAttributes(
		attribute.Int("trajectories", len(columns)),
		attribute.Float64("medium_density", e.density),
	))
	defer span.End()

	fail := func(err error) (*ShowerMatrix, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, fmt.Errorf("shower.TransferMatrix: %w", err)
	}

	var dens [flavor.Count]*matrix.Dense
	for _, f := range flavor.All() {
		d, err := e.interactionDensity(f)
		if err != nil {
			return fail(err)
		}
		dens[f] = d
	}
	tm, err := e.Engine.TransferMatrixAt(ctx, columns)
	if err != nil {
		return fail(err)
	}

	res := newShowerMatrix(columns, e.Grid().Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Workers())
	for _, f := range flavor.All() {
		for t := range columns {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				return project(res, tm, &dens, f, t)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return fail(err)
	}
	e.Logger().Debug("shower matrix assembled",
		"trajectories", len(columns), "nodes", res.nodes)

	return res, nil
}

// project writes every [f][i][t] row: Σ_out T[f][out][t]·D(out).
func project(res *ShowerMatrix, tm *cascade.TransferMatrix, dens *[flavor.Count]*matrix.Dense, f flavor.Flavor, t int) error {
	outs := append([]flavor.Flavor{f}, flavor.Secondaries(f)...)
	for _, out := range outs {
		block, err := tm.Block(f, out, t)
		if err != nil {
			return err
		}
		rate, err := matrix.Mul(block, dens[out])
		if err != nil {
			return err
		}
		for i := 0; i < res.nodes; i++ {
			row, err := rate.Row(i)
			if err != nil {
				return err
			}
			floats.Add(res.row(f, i, t), row)
		}
	}

	return nil
}
