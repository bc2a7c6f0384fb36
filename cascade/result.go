// SPDX-License-Identifier: MIT

package cascade

import (
	"fmt"

	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/matrix"
)

// TransferMatrix holds the (6, 6, T, N, N) response: entry
// [f][out][t][i][k] is the fraction of a unit flux of flavor f in energy bin
// i that arrives as flavor out in bin k after trajectory t.
type TransferMatrix struct {
	trajectories int
	nodes        int
	columns      []float64
	data         []float64
}

func newTransferMatrix(columns []float64, n int) *TransferMatrix {
	t := len(columns)

	return &TransferMatrix{
		trajectories: t,
		nodes:        n,
		columns:      append([]float64(nil), columns...),
		data:         make([]float64, flavor.Count*flavor.Count*t*n*n),
	}
}

// Trajectories returns T.
func (m *TransferMatrix) Trajectories() int { return m.trajectories }

// Nodes returns N.
func (m *TransferMatrix) Nodes() int { return m.nodes }

// Columns returns a copy of the column densities (nucleons/cm²), one per trajectory.
func (m *TransferMatrix) Columns() []float64 { return append([]float64(nil), m.columns...) }

func (m *TransferMatrix) offset(f, out flavor.Flavor, t, i int) int {
	n := m.nodes

	return (((int(f)*flavor.Count+int(out))*m.trajectories+t)*n + i) * n
}

// row exposes the N outgoing entries of [f][out][t][i] for in-place writes.
func (m *TransferMatrix) row(f, out flavor.Flavor, t, i int) []float64 {
	o := m.offset(f, out, t, i)

	return m.data[o : o+m.nodes]
}

// fill copies the T×N response of incoming node i into [f][out][·][i].
func (m *TransferMatrix) fill(f, out flavor.Flavor, i int, resp *matrix.Dense) {
	data := resp.RawData()
	for t := 0; t < m.trajectories; t++ {
		copy(m.row(f, out, t, i), data[t*m.nodes:(t+1)*m.nodes])
	}
}

func (m *TransferMatrix) check(f, out flavor.Flavor, t int) error {
	if err := flavor.Validate(f); err != nil {
		return err
	}
	if err := flavor.Validate(out); err != nil {
		return err
	}
	if t < 0 || t >= m.trajectories {
		return fmt.Errorf("trajectory %d of %d: %w", t, m.trajectories, ErrShapeMismatch)
	}

	return nil
}

// At returns entry [f][out][t][i][k].
func (m *TransferMatrix) At(f, out flavor.Flavor, t, i, k int) (float64, error) {
	if err := m.check(f, out, t); err != nil {
		return 0, err
	}
	if i < 0 || i >= m.nodes || k < 0 || k >= m.nodes {
		return 0, fmt.Errorf("node (%d,%d): %w", i, k, ErrNodeOutOfRange)
	}

	return m.row(f, out, t, i)[k], nil
}

// Block returns the N×N matrix [f][out][t] (row i incoming, column k outgoing).
func (m *TransferMatrix) Block(f, out flavor.Flavor, t int) (*matrix.Dense, error) {
	if err := m.check(f, out, t); err != nil {
		return nil, err
	}
	o := m.offset(f, out, t, 0)

	return matrix.NewDenseFrom(m.nodes, m.nodes, m.data[o:o+m.nodes*m.nodes])
}

// Attenuation holds the (6, T, N) ratio of propagated to initial E²-weighted
// flux. Light-flavor entries include the secondaries regenerated from the tau
// flavor of matching parity.
type Attenuation struct {
	trajectories int
	nodes        int
	columns      []float64
	data         []float64
}

func newAttenuation(columns []float64, n int) *Attenuation {
	t := len(columns)

	return &Attenuation{
		trajectories: t,
		nodes:        n,
		columns:      append([]float64(nil), columns...),
		data:         make([]float64, flavor.Count*t*n),
	}
}

// Trajectories returns T.
func (a *Attenuation) Trajectories() int { return a.trajectories }

// Nodes returns N.
func (a *Attenuation) Nodes() int { return a.nodes }

// Columns returns a copy of the scaled column densities, one per trajectory.
func (a *Attenuation) Columns() []float64 { return append([]float64(nil), a.columns...) }

func (a *Attenuation) row(f flavor.Flavor, t int) []float64 {
	o := (int(f)*a.trajectories + t) * a.nodes

	return a.data[o : o+a.nodes]
}

// setFlavor copies the T×N ratios of flavor f.
func (a *Attenuation) setFlavor(f flavor.Flavor, ratios *matrix.Dense) {
	copy(a.data[int(f)*a.trajectories*a.nodes:], ratios.RawData())
}

// At returns entry [f][t][k].
func (a *Attenuation) At(f flavor.Flavor, t, k int) (float64, error) {
	if err := flavor.Validate(f); err != nil {
		return 0, err
	}
	if t < 0 || t >= a.trajectories {
		return 0, fmt.Errorf("trajectory %d of %d: %w", t, a.trajectories, ErrShapeMismatch)
	}
	if k < 0 || k >= a.nodes {
		return 0, fmt.Errorf("node %d: %w", k, ErrNodeOutOfRange)
	}

	return a.row(f, t)[k], nil
}

// Flavor returns the T×N ratios of flavor f.
func (a *Attenuation) Flavor(f flavor.Flavor) (*matrix.Dense, error) {
	if err := flavor.Validate(f); err != nil {
		return nil, err
	}
	o := int(f) * a.trajectories * a.nodes

	return matrix.NewDenseFrom(a.trajectories, a.nodes, a.data[o:o+a.trajectories*a.nodes])
}
