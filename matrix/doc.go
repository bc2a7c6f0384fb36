// SPDX-License-Identifier: MIT

// Package matrix provides the dense linear-algebra primitives used by the
// cascade solver: a row-major Dense type with bounds-checked accessors,
// central validators, sentinel errors and a small set of deterministic kernels.
//
// What & Why:
//
//	Cascade operators are small (N or 2N square, N ≈ 10..300) dense matrices
//	assembled from cross-section tables. They are built once, cached, and
//	handed to gonum for the general eigendecomposition. This package keeps
//	assembly safe and readable (At/Set return errors instead of panicking)
//	while exposing a zero-copy bridge (Dense.Gonum) for the heavy lifting.
//
// Kernels:
//
//	Add, Sub, Mul, Scale, Hadamard  – classic algebra
//	TriU, Block2x2, SplitCols       – operator assembly
//
// Complexity:
//
//	At/Set are O(1); elementwise kernels are O(r*c); Mul is O(r*k*c).
//
// Determinism:
//
//	All kernels iterate in fixed row-major order and never mutate operands.
package matrix
