// SPDX-License-Identifier: MIT

// Package energy defines the logarithmically spaced energy grid on which all
// cascade operators are discretized.
//
// A Grid of N nodes E_0 < E_1 < ... < E_{N-1} (GeV) has constant spacing
// ΔlogE = ln(E_{i+1}/E_i). Each node represents the log-bin centred on it, of
// width E_i·Width with Width = 2·sinh(ΔlogE/2). Grids are immutable.
package energy

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultSpacingTolerance is the relative deviation of any ln(E_{i+1}/E_i)
// from the mean spacing accepted by NewGrid.
const DefaultSpacingTolerance = 1e-6

var (
	// ErrTooFewNodes is returned for grids with fewer than two nodes.
	ErrTooFewNodes = errors.New("energy: grid needs at least 2 nodes")

	// ErrNonPositive is returned for a zero, negative or non-finite node.
	ErrNonPositive = errors.New("energy: nodes must be finite and > 0")

	// ErrNotIncreasing is returned when nodes are not strictly increasing.
	ErrNotIncreasing = errors.New("energy: nodes must be strictly increasing")

	// ErrNotLogSpaced is returned when log-spacing deviates beyond tolerance.
	ErrNotLogSpaced = errors.New("energy: nodes are not uniformly log-spaced")
)

// Grid is an immutable log-spaced energy grid.
type Grid struct {
	nodes []float64
	dloge float64
	width float64
}

// GridOption configures NewGrid.
type GridOption func(*gridOptions)

type gridOptions struct {
	tol float64
}

// WithSpacingTolerance overrides DefaultSpacingTolerance.
// Panics on a negative or non-finite tolerance (programmer error).
func WithSpacingTolerance(tol float64) GridOption {
	if tol < 0 || math.IsNaN(tol) || math.IsInf(tol, 0) {
		panic("energy: WithSpacingTolerance: tol must be finite, non-negative")
	}

	return func(o *gridOptions) { o.tol = tol }
}

// NewGrid validates nodes and returns a Grid owning a private copy.
// Implementation:
//   - Stage 1: reject N<2, non-positive/non-finite nodes, non-increasing order.
//   - Stage 2: ΔlogE from the end points; every local spacing must match it
//     within the relative tolerance.
//   - Stage 3: derive Width = 2·sinh(ΔlogE/2).
func NewGrid(nodes []float64, opts ...GridOption) (*Grid, error) {
	o := gridOptions{tol: DefaultSpacingTolerance}
	for _, set := range opts {
		set(&o)
	}

	n := len(nodes)
	if n < 2 {
		return nil, ErrTooFewNodes
	}
	for i, e := range nodes {
		if !(e > 0) || math.IsInf(e, 0) {
			return nil, fmt.Errorf("node %d (%g): %w", i, e, ErrNonPositive)
		}
		if i > 0 && e <= nodes[i-1] {
			return nil, fmt.Errorf("node %d (%g <= %g): %w", i, e, nodes[i-1], ErrNotIncreasing)
		}
	}

	dloge := (math.Log(nodes[n-1]) - math.Log(nodes[0])) / float64(n-1)
	for i := 1; i < n; i++ {
		local := math.Log(nodes[i]) - math.Log(nodes[i-1])
		if math.Abs(local-dloge) > o.tol*dloge {
			return nil, fmt.Errorf("spacing %d (%g vs %g): %w", i, local, dloge, ErrNotLogSpaced)
		}
	}

	cp := make([]float64, n)
	copy(cp, nodes)

	return &Grid{nodes: cp, dloge: dloge, width: 2 * math.Sinh(dloge/2)}, nil
}

// LogSpace builds an n-node grid from emin to emax inclusive.
func LogSpace(emin, emax float64, n int) (*Grid, error) {
	if n < 2 {
		return nil, ErrTooFewNodes
	}
	if !(emin > 0) || !(emax > emin) || math.IsInf(emax, 0) {
		return nil, fmt.Errorf("range [%g, %g]: %w", emin, emax, ErrNonPositive)
	}
	logs := floats.Span(make([]float64, n), math.Log(emin), math.Log(emax))
	nodes := make([]float64, n)
	for i, l := range logs {
		nodes[i] = math.Exp(l)
	}
	// Pin the end points exactly; exp(log(x)) may drift by an ulp.
	nodes[0], nodes[n-1] = emin, emax

	return NewGrid(nodes)
}

// Len returns the number of nodes N.
func (g *Grid) Len() int { return len(g.nodes) }

// At returns node i; it panics on an out-of-range index like a slice would.
func (g *Grid) At(i int) float64 { return g.nodes[i] }

// Nodes returns a copy of the node energies.
func (g *Grid) Nodes() []float64 {
	cp := make([]float64, len(g.nodes))
	copy(cp, g.nodes)

	return cp
}

// DLogE returns the constant spacing in natural-log energy.
func (g *Grid) DLogE() float64 { return g.dloge }

// Width returns 2·sinh(ΔlogE/2): the ratio of a node's bin width to its energy.
func (g *Grid) Width() float64 { return g.width }

// BinWidth returns the width in GeV of the log-bin centred on node i.
func (g *Grid) BinWidth(i int) float64 { return g.nodes[i] * g.width }

// DifferentialElement returns ΔlogE·E_i²/E_j, the factor converting a
// differential cross-section dσ/dE(E_j → E_i) into a source term of the
// E²-weighted cascade equation (row i outgoing, column j incoming).
func (g *Grid) DifferentialElement(i, j int) float64 {
	return g.dloge * g.nodes[i] * g.nodes[i] / g.nodes[j]
}

// Fingerprint is a stable hex digest of the node energies, used to key
// persisted eigenbases.
func (g *Grid) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	for _, e := range g.nodes {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(e))
		h.Write(buf[:])
	}

	return hex.EncodeToString(h.Sum(nil)[:12])
}

// String summarises the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid{N=%d, %.4g..%.4g GeV, dlogE=%.4g}", len(g.nodes), g.nodes[0], g.nodes[len(g.nodes)-1], g.dloge)
}
