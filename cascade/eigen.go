// SPDX-License-Identifier: MIT

package cascade

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/matrix"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"
)

// EigenStore persists eigenbases across processes. Keys embed the provider
// ID, the grid fingerprint and the flavor pair, so a hit is always valid for
// the requesting engine.
type EigenStore interface {
	// Load returns (nil, false, nil) on a miss.
	Load(ctx context.Context, key string) (*Eigenbasis, bool, error)
	Save(ctx context.Context, key string, b *Eigenbasis) error
}

// Eigenbasis is the decomposition M = V·diag(w)·V⁻¹ of one cascade
// generator, together with the LU factors used to solve V·c = ψ.
// It is immutable and safe for concurrent use.
type Eigenbasis struct {
	dim     int
	values  []complex128
	vectors []complex128 // row-major dim×dim; column k is the k-th eigenvector
	real    bool
	lu      mat.LU // of V (real case) or of [[Re V, −Im V], [Im V, Re V]]
	cond    float64
}

// NewEigenbasis wraps copies of values (length M) and row-major vectors
// (M×M, column k paired with values[k]) and factorizes the eigenvector
// matrix. It fails with ErrShapeMismatch on inconsistent lengths and
// ErrNumericalInstability on a singular or non-finite eigenvector matrix.
func NewEigenbasis(values, vectors []complex128) (*Eigenbasis, error) {
	m := len(values)
	if m == 0 || len(vectors) != m*m {
		return nil, fmt.Errorf("eigenbasis: %d values, %d vector entries: %w", m, len(vectors), ErrShapeMismatch)
	}
	b := &Eigenbasis{
		dim:     m,
		values:  append([]complex128(nil), values...),
		vectors: append([]complex128(nil), vectors...),
		real:    true,
	}
	for _, z := range b.values {
		if cmplx.IsNaN(z) || cmplx.IsInf(z) {
			return nil, fmt.Errorf("eigenbasis: eigenvalue %v: %w", z, ErrNumericalInstability)
		}
		if imag(z) != 0 {
			b.real = false
		}
	}
	for _, z := range b.vectors {
		if cmplx.IsNaN(z) || cmplx.IsInf(z) {
			return nil, fmt.Errorf("eigenbasis: eigenvector entry %v: %w", z, ErrNumericalInstability)
		}
		if imag(z) != 0 {
			b.real = false
		}
	}
	if err := b.factorize(); err != nil {
		return nil, err
	}

	return b, nil
}

// factorize LU-decomposes V, embedding a complex V as a real 2M×2M system.
func (b *Eigenbasis) factorize() error {
	m := b.dim
	var a *mat.Dense
	if b.real {
		a = mat.NewDense(m, m, nil)
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				a.Set(i, j, real(b.vectors[i*m+j]))
			}
		}
	} else {
		a = mat.NewDense(2*m, 2*m, nil)
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				re, im := real(b.vectors[i*m+j]), imag(b.vectors[i*m+j])
				a.Set(i, j, re)
				a.Set(i, j+m, -im)
				a.Set(i+m, j, im)
				a.Set(i+m, j+m, re)
			}
		}
	}
	b.lu.Factorize(a)
	b.cond = b.lu.Cond()
	if math.IsNaN(b.cond) || math.IsInf(b.cond, 0) {
		return fmt.Errorf("eigenbasis: singular eigenvector matrix: %w", ErrNumericalInstability)
	}

	return nil
}

// Dim returns M (N for a single flavor, 2N for a mixing pair).
func (b *Eigenbasis) Dim() int { return b.dim }

// Values returns a copy of the eigenvalues.
func (b *Eigenbasis) Values() []complex128 { return append([]complex128(nil), b.values...) }

// Vectors returns a copy of the row-major eigenvector matrix.
func (b *Eigenbasis) Vectors() []complex128 { return append([]complex128(nil), b.vectors...) }

// Condition returns the estimated condition number of the eigenvector matrix.
func (b *Eigenbasis) Condition() float64 { return b.cond }

// IsReal reports whether every eigenvalue and eigenvector entry is real.
func (b *Eigenbasis) IsReal() bool { return b.real }

// Coefficients solves V·c = x.
func (b *Eigenbasis) Coefficients(x []float64) ([]complex128, error) {
	m := b.dim
	if len(x) != m {
		return nil, fmt.Errorf("coefficients: len %d, want %d: %w", len(x), m, ErrShapeMismatch)
	}
	size := m
	if !b.real {
		size = 2 * m
	}
	rhs := mat.NewVecDense(size, nil)
	for i, v := range x {
		rhs.SetVec(i, v)
	}
	var sol mat.VecDense
	if err := b.lu.SolveVecTo(&sol, false, rhs); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return nil, fmt.Errorf("coefficients: condition %g: %w", float64(cond), ErrNumericalInstability)
		}

		return nil, fmt.Errorf("coefficients: %w", err)
	}
	c := make([]complex128, m)
	for k := 0; k < m; k++ {
		if b.real {
			c[k] = complex(sol.AtVec(k), 0)
		} else {
			c[k] = complex(sol.AtVec(k), sol.AtVec(k+m))
		}
	}

	return c, nil
}

// evolve writes V·diag(exp(w·x))·c into dst (length M).
func (b *Eigenbasis) evolve(c []complex128, x float64, dst []complex128) {
	m := b.dim
	scaled := make([]complex128, m)
	for k, ck := range c {
		if ck == 0 {
			continue
		}
		scaled[k] = ck * cmplx.Exp(b.values[k]*complex(x, 0))
	}
	for i := 0; i < m; i++ {
		var s complex128
		row := b.vectors[i*m : (i+1)*m]
		for k, v := range row {
			if scaled[k] != 0 {
				s += v * scaled[k]
			}
		}
		dst[i] = s
	}
}

// storeKey names the persisted eigenbasis of p.
func (e *Engine) storeKey(p pair) string {
	return fmt.Sprintf("eigen/v1/%s/%s/%d-%d/regen=%t",
		e.xs.ID(), e.grid.Fingerprint(), int(p.f), int(p.out), e.opts.tauSelfRegen)
}

// Eigenbasis returns the cached decomposition of RHSOperator(f, out),
// decomposing on first use. Repeated calls return the same instance.
func (e *Engine) Eigenbasis(f, out flavor.Flavor) (*Eigenbasis, error) {
	return e.eigenbasis(context.Background(), f, out)
}

func (e *Engine) eigenbasis(ctx context.Context, f, out flavor.Flavor) (*Eigenbasis, error) {
	if err := flavor.ValidateTransition(f, out); err != nil {
		return nil, cascadeErrorf("Eigenbasis", err)
	}
	key := pair{f, out}
	b, hit, err := e.bases.get(key, func() (*Eigenbasis, error) {
		return e.loadOrDecompose(ctx, key)
	})
	if err != nil {
		return nil, cascadeErrorf("Eigenbasis", err)
	}
	if hit {
		eigenCacheHits.WithLabelValues("memory").Inc()
	}

	return b, nil
}

// loadOrDecompose consults the store, then decomposes and persists.
// Store failures are logged and never fatal.
func (e *Engine) loadOrDecompose(ctx context.Context, p pair) (*Eigenbasis, error) {
	want := e.grid.Len()
	if p.mixing() {
		want *= 2
	}
	if e.opts.store != nil {
		b, ok, err := e.opts.store.Load(ctx, e.storeKey(p))
		switch {
		case err != nil:
			e.opts.logger.Warn("eigen store load failed", "flavor", p.f, "out_flavor", p.out, "err", err)
		case ok && b.Dim() == want && b.Condition() <= e.opts.condLimit:
			eigenCacheHits.WithLabelValues("store").Inc()
			e.opts.logger.Debug("eigen store hit", "flavor", p.f, "out_flavor", p.out)

			return b, nil
		case ok:
			e.opts.logger.Warn("eigen store entry rejected", "flavor", p.f, "out_flavor", p.out, "dim", b.Dim(), "want", want)
		default:
			e.opts.logger.Debug("eigen store miss", "flavor", p.f, "out_flavor", p.out)
		}
	}

	b, err := e.decompose(ctx, p)
	if err != nil {
		return nil, err
	}
	if e.opts.store != nil {
		if err := e.opts.store.Save(ctx, e.storeKey(p), b); err != nil {
			e.opts.logger.Warn("eigen store save failed", "flavor", p.f, "out_flavor", p.out, "err", err)
		}
	}

	return b, nil
}

// decompose diagonalizes RHSOperator(p) with a general eigensolver.
// Implementation:
//   - Stage 1: assemble the generator (N×N or 2N×2N) and reject non-finite entries.
//   - Stage 2: right eigenvectors via mat.Eigen (LAPACK Dgeev).
//   - Stage 3: LU-factorize V and reject it above the condition limit.
//
// Complexity: O(M³).
func (e *Engine) decompose(ctx context.Context, p pair) (*Eigenbasis, error) {
	_, span := e.tracer().Start(ctx, "cascade.Eigenbasis", trace.WithAttributes(
		attribute.String("flavor", p.f.String()),
		attribute.String("out_flavor", p.out.String()),
	))
	defer span.End()
	start := time.Now()

	fail := func(err error) (*Eigenbasis, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	rhs, err := e.RHSOperator(p.f, p.out)
	if err != nil {
		return fail(err)
	}
	if err := matrix.ValidateSquareNonNil(rhs); err != nil {
		return fail(fmt.Errorf("%s -> %s: %w", p.f, p.out, err))
	}
	if err := matrix.ValidateFinite(rhs); err != nil {
		return fail(fmt.Errorf("%s -> %s: %w: %w", p.f, p.out, ErrCrossSection, err))
	}
	var eig mat.Eigen
	if ok := eig.Factorize(rhs.Gonum(), mat.EigenRight); !ok {
		return fail(fmt.Errorf("%s -> %s: %w", p.f, p.out, ErrEigenFailed))
	}
	values := eig.Values(nil)
	var vecs mat.CDense
	eig.VectorsTo(&vecs)
	m := len(values)
	data := make([]complex128, m*m)
	for i := 0; i < m; i++ {
		for j := 0; j < m; j++ {
			data[i*m+j] = vecs.At(i, j)
		}
	}

	b, err := NewEigenbasis(values, data)
	if err != nil {
		return fail(err)
	}
	if b.cond > e.opts.condLimit {
		return fail(fmt.Errorf("%s -> %s: condition %g > %g: %w", p.f, p.out, b.cond, e.opts.condLimit, ErrNumericalInstability))
	}
	if b.cond > math.Sqrt(e.opts.condLimit) {
		e.opts.logger.Warn("ill-conditioned eigenbasis", "flavor", p.f, "out_flavor", p.out, "cond", b.cond)
	}

	elapsed := time.Since(start)
	eigenDecompositions.WithLabelValues(kindOf(p.mixing())).Inc()
	eigenSeconds.Observe(elapsed.Seconds())
	span.SetAttributes(attribute.Int("dim", m), attribute.Float64("cond", b.cond))
	e.opts.logger.Debug("eigenbasis decomposed",
		"flavor", p.f, "out_flavor", p.out, "dim", m, "cond", b.cond, "real", b.real, "elapsed", elapsed)

	return b, nil
}
