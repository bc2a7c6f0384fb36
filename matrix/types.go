// SPDX-License-Identifier: MIT

package matrix

// Matrix is the read/write view the kernels accept. Dense is the only
// implementation; cascade operators, transfer blocks and interaction
// densities are all Dense.
type Matrix interface {
	// Rows returns the number of rows (outgoing energy nodes for operators).
	Rows() int

	// Cols returns the number of columns (incoming energy nodes for operators).
	Cols() int

	// At returns entry (i, j) or ErrOutOfRange.
	At(i, j int) (float64, error)

	// Set stores v at (i, j). Fails with ErrOutOfRange or ErrNaNInf.
	Set(i, j int, v float64) error

	// Clone returns a deep copy.
	Clone() Matrix
}
