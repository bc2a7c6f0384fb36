// SPDX-License-Identifier: MIT
// Package matrix provides universal operations on any Matrix implementation.
// All functions perform strict fail-fast validation, never mutate operands
// and return fresh *Dense results.

package matrix

import (
	"fmt"
	"math"
)

// Operation name constants for unified error wrapping.
const (
	opAdd      = "Add"
	opSub      = "Sub"
	opMul      = "Mul"
	opScale    = "Scale"
	opHadamard = "Hadamard"
	opTriU     = "TriU"
	opBlock    = "Block2x2"
	opSplit    = "SplitCols"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// binaryOperands validates a,b (non-nil, same shape) and returns Dense forms.
func binaryOperands(tag string, a, b Matrix) (*Dense, *Dense, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, nil, matrixErrorf(tag, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, nil, matrixErrorf(tag, err)
	}
	if err := ValidateSameShape(a, b); err != nil {
		return nil, nil, matrixErrorf(tag, err)
	}
	da, err := asDense(a)
	if err != nil {
		return nil, nil, matrixErrorf(tag, err)
	}
	db, err := asDense(b)
	if err != nil {
		return nil, nil, matrixErrorf(tag, err)
	}

	return da, db, nil
}

// elementwise applies f to aligned elements of a and b.
func elementwise(tag string, a, b Matrix, f func(x, y float64) float64) (*Dense, error) {
	da, db, err := binaryOperands(tag, a, b)
	if err != nil {
		return nil, err
	}
	out := &Dense{r: da.r, c: da.c, data: make([]float64, len(da.data))}
	for idx := range da.data {
		out.data[idx] = f(da.data[idx], db.data[idx])
	}

	return out, nil
}

// Add computes the element-wise sum C = A + B.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Add(a, b Matrix) (*Dense, error) {
	return elementwise(opAdd, a, b, func(x, y float64) float64 { return x + y })
}

// Sub computes the element-wise difference C = A - B.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Sub(a, b Matrix) (*Dense, error) {
	return elementwise(opSub, a, b, func(x, y float64) float64 { return x - y })
}

// Hadamard computes the elementwise product (a ⊙ b).
func Hadamard(a, b Matrix) (*Dense, error) {
	return elementwise(opHadamard, a, b, func(x, y float64) float64 { return x * y })
}

// Mul performs standard matrix multiplication C = A × B.
// Implementation:
//   - Stage 1: validate non-nil operands and a.Cols()==b.Rows().
//   - Stage 2: i→k→j loop order so the inner loop walks both buffers contiguously.
//
// Complexity: Time O(r*k*c), Space O(r*c).
func Mul(a, b Matrix) (*Dense, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	if err := ValidateMulCompatible(a, b); err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	da, err := asDense(a)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}
	db, err := asDense(b)
	if err != nil {
		return nil, matrixErrorf(opMul, err)
	}

	out := &Dense{r: da.r, c: db.c, data: make([]float64, da.r*db.c)}
	var (
		i, k, j int
		aik     float64
	)
	for i = 0; i < da.r; i++ {
		for k = 0; k < da.c; k++ {
			aik = da.data[i*da.c+k]
			if aik == 0 {
				continue // operators are mostly triangular; skip structural zeros
			}
			for j = 0; j < db.c; j++ {
				out.data[i*out.c+j] += aik * db.data[k*db.c+j]
			}
		}
	}

	return out, nil
}

// Scale returns a new matrix whose elements are alpha * m[i,j].
func Scale(m Matrix, alpha float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	if math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, matrixErrorf(opScale, ErrNaNInf)
	}
	d, err := asDense(m)
	if err != nil {
		return nil, matrixErrorf(opScale, err)
	}
	out := &Dense{r: d.r, c: d.c, data: make([]float64, len(d.data))}
	for idx, v := range d.data {
		out.data[idx] = alpha * v
	}

	return out, nil
}

// TriU returns a copy of m keeping only entries with j-i >= k
// (k=0 keeps the diagonal, k=1 keeps the strictly upper triangle).
func TriU(m Matrix, k int) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTriU, err)
	}
	d, err := asDense(m)
	if err != nil {
		return nil, matrixErrorf(opTriU, err)
	}
	out := &Dense{r: d.r, c: d.c, data: make([]float64, len(d.data))}
	var i, j int
	for i = 0; i < d.r; i++ {
		for j = 0; j < d.c; j++ {
			if j-i >= k {
				out.data[i*d.c+j] = d.data[i*d.c+j]
			}
		}
	}

	return out, nil
}

// Block2x2 assembles
//
//	[ a  b ]
//	[ c  d ]
//
// A nil c is treated as a zero block shaped like the (d.Rows() × a.Cols()) slot.
// Errors: ErrNilMatrix for nil a, b or d; ErrDimensionMismatch when blocks
// do not tile.
func Block2x2(a, b, c, d Matrix) (*Dense, error) {
	for _, blk := range []Matrix{a, b, d} {
		if err := ValidateNotNil(blk); err != nil {
			return nil, matrixErrorf(opBlock, err)
		}
	}
	// Row/column tiling: top row heights agree, right column widths agree.
	if a.Rows() != b.Rows() || b.Cols() != d.Cols() {
		return nil, matrixErrorf(opBlock, ErrDimensionMismatch)
	}
	if c != nil && (c.Rows() != d.Rows() || c.Cols() != a.Cols()) {
		return nil, matrixErrorf(opBlock, ErrDimensionMismatch)
	}

	top, left := a.Rows(), a.Cols()
	rows, cols := top+d.Rows(), left+b.Cols()
	out, err := NewDense(rows, cols)
	if err != nil {
		return nil, matrixErrorf(opBlock, err)
	}
	place := func(blk Matrix, r0, c0 int) error {
		src, err := asDense(blk)
		if err != nil {
			return err
		}
		for i := 0; i < src.r; i++ {
			copy(out.data[(r0+i)*cols+c0:(r0+i)*cols+c0+src.c], src.data[i*src.c:(i+1)*src.c])
		}
		return nil
	}
	if err = place(a, 0, 0); err != nil {
		return nil, matrixErrorf(opBlock, err)
	}
	if err = place(b, 0, left); err != nil {
		return nil, matrixErrorf(opBlock, err)
	}
	if c != nil {
		if err = place(c, top, 0); err != nil {
			return nil, matrixErrorf(opBlock, err)
		}
	}
	if err = place(d, top, left); err != nil {
		return nil, matrixErrorf(opBlock, err)
	}

	return out, nil
}

// SplitCols splits m into [m[:, :at], m[:, at:]].
// Errors: ErrOutOfRange unless 0 < at < Cols().
func SplitCols(m Matrix, at int) (*Dense, *Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, nil, matrixErrorf(opSplit, err)
	}
	if at <= 0 || at >= m.Cols() {
		return nil, nil, matrixErrorf(opSplit, ErrOutOfRange)
	}
	d, err := asDense(m)
	if err != nil {
		return nil, nil, matrixErrorf(opSplit, err)
	}
	left := &Dense{r: d.r, c: at, data: make([]float64, d.r*at)}
	right := &Dense{r: d.r, c: d.c - at, data: make([]float64, d.r*(d.c-at))}
	for i := 0; i < d.r; i++ {
		copy(left.data[i*at:(i+1)*at], d.data[i*d.c:i*d.c+at])
		copy(right.data[i*right.c:(i+1)*right.c], d.data[i*d.c+at:(i+1)*d.c])
	}

	return left, right, nil
}
