// SPDX-License-Identifier: MIT

package shower

import (
	"fmt"

	"github.com/katalvlaran/nufate/cascade"
	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/matrix"
)

// ShowerMatrix holds the deposition rate per metre, shape (6, N, T, N):
// incoming flavor, incoming node, trajectory, deposited node.
type ShowerMatrix struct {
	nodes, trajectories int
	columns             []float64
	data                []float64
}

func newShowerMatrix(columns []float64, n int) *ShowerMatrix {
	t := len(columns)

	return &ShowerMatrix{
		nodes:        n,
		trajectories: t,
		columns:      append([]float64(nil), columns...),
		data:         make([]float64, flavor.Count*n*t*n),
	}
}

// Trajectories returns T.
func (s *ShowerMatrix) Trajectories() int { return s.trajectories }

// Nodes returns N.
func (s *ShowerMatrix) Nodes() int { return s.nodes }

// Columns returns a copy of the column densities the matrix was computed for.
func (s *ShowerMatrix) Columns() []float64 { return append([]float64(nil), s.columns...) }

func (s *ShowerMatrix) row(f flavor.Flavor, i, t int) []float64 {
	off := ((int(f)*s.nodes+i)*s.trajectories + t) * s.nodes

	return s.data[off : off+s.nodes]
}

func (s *ShowerMatrix) check(f flavor.Flavor, i int) error {
	if err := flavor.Validate(f); err != nil {
		return err
	}
	if i < 0 || i >= s.nodes {
		return fmt.Errorf("node %d of %d: %w", i, s.nodes, cascade.ErrNodeOutOfRange)
	}

	return nil
}

// At returns the rate per metre of deposits in node k along trajectory t for
// unit flux of flavor f in node i.
func (s *ShowerMatrix) At(f flavor.Flavor, i, t, k int) (float64, error) {
	if err := s.check(f, i); err != nil {
		return 0, err
	}
	if t < 0 || t >= s.trajectories || k < 0 || k >= s.nodes {
		return 0, fmt.Errorf("index (t=%d, k=%d) outside (%d, %d): %w",
			t, k, s.trajectories, s.nodes, cascade.ErrShapeMismatch)
	}

	return s.row(f, i, t)[k], nil
}

// Block returns the T×N deposition matrix for incoming flavor f at node i.
func (s *ShowerMatrix) Block(f flavor.Flavor, i int) (*matrix.Dense, error) {
	if err := s.check(f, i); err != nil {
		return nil, err
	}
	data := make([]float64, 0, s.trajectories*s.nodes)
	for t := 0; t < s.trajectories; t++ {
		data = append(data, s.row(f, i, t)...)
	}

	return matrix.NewDenseFrom(s.trajectories, s.nodes, data)
}
