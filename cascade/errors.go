// SPDX-License-Identifier: MIT

package cascade

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when flux rows, trajectory arrays or
	// column-density slices do not match the grid or each other.
	ErrShapeMismatch = errors.New("cascade: shape mismatch")

	// ErrNodeOutOfRange is returned for an energy-node index outside [0, N).
	ErrNodeOutOfRange = errors.New("cascade: energy node out of range")

	// ErrNumericalInstability is returned when the eigenvector matrix is
	// ill-conditioned, a result carries a non-negligible imaginary part, or a
	// result is not finite.
	ErrNumericalInstability = errors.New("cascade: numerical instability")

	// ErrEigenFailed is returned when the eigensolver does not converge.
	ErrEigenFailed = errors.New("cascade: eigendecomposition failed")

	// ErrNilProvider is returned by NewEngine for a nil grid or provider.
	ErrNilProvider = errors.New("cascade: nil grid or provider")

	// ErrCrossSection is returned when a provider yields a negative or
	// non-finite cross-section on the grid.
	ErrCrossSection = errors.New("cascade: invalid cross-section")

	// ErrInvalidFlux is returned for a flux entry that is not finite and > 0.
	ErrInvalidFlux = errors.New("cascade: flux must be finite and > 0")

	// ErrInvalidColumn is returned for a negative or non-finite column density.
	ErrInvalidColumn = errors.New("cascade: column density must be finite and >= 0")
)

// cascadeErrorf tags err with the operation that produced it.
func cascadeErrorf(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
