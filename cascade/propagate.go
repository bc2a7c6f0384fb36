// SPDX-License-Identifier: MIT

package cascade

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/nufate/matrix"
)

// propagate evolves init through every column density and returns the T×M
// response whose row t holds Re(ψ(X_t))_k / norm_k.
// Implementation:
//   - Stage 1: fetch the cached eigenbasis and solve V·c = init once.
//   - Stage 2: per column X, reconstruct V·diag(exp(w·X))·c.
//   - Stage 3: normalize, then reject non-finite entries, imaginary residues
//     above tol·max(1, |Re|) and negative entries below −tol; negative
//     round-off within tol is clamped to zero.
//
// Complexity: O(M²) per column after the cached O(M³) decomposition.
func (e *Engine) propagate(ctx context.Context, p pair, init, norm, columns []float64) (*matrix.Dense, error) {
	b, err := e.eigenbasis(ctx, p.f, p.out)
	if err != nil {
		return nil, err
	}
	c, err := b.Coefficients(init)
	if err != nil {
		return nil, err
	}

	tol := e.opts.imagTol
	m := b.Dim()
	z := make([]complex128, m)
	out, err := matrix.NewDense(len(columns), m)
	if err != nil {
		return nil, err
	}
	row := make([]float64, m)
	for t, x := range columns {
		b.evolve(c, x, z)
		for k, v := range z {
			re, im := real(v)/norm[k], imag(v)/norm[k]
			switch {
			case math.IsNaN(re) || math.IsInf(re, 0) || math.IsNaN(im) || math.IsInf(im, 0):
				return nil, fmt.Errorf("%s -> %s: non-finite entry %d at column %g: %w", p.f, p.out, k, x, ErrNumericalInstability)
			case math.Abs(im) > tol*math.Max(1, math.Abs(re)):
				return nil, fmt.Errorf("%s -> %s: imaginary residue %g at entry %d: %w", p.f, p.out, im, k, ErrNumericalInstability)
			case re < -tol:
				return nil, fmt.Errorf("%s -> %s: negative entry %g at %d: %w", p.f, p.out, re, k, ErrNumericalInstability)
			case re < 0:
				re = 0
			}
			row[k] = re
		}
		if err := out.SetRow(t, row); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// ValidateColumns rejects an empty slice and negative or non-finite column
// densities with ErrShapeMismatch or ErrInvalidColumn.
func ValidateColumns(columns []float64) error {
	if len(columns) == 0 {
		return fmt.Errorf("no column densities: %w", ErrShapeMismatch)
	}
	for t, x := range columns {
		if !(x >= 0) || math.IsInf(x, 0) {
			return fmt.Errorf("column %d (%g): %w", t, x, ErrInvalidColumn)
		}
	}

	return nil
}
