// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/katalvlaran/nufate/flavor"
	"github.com/katalvlaran/nufate/shower"
	"github.com/spf13/cobra"
)

// trajectory labels one broadcast (cos zenith, depth) pair.
type trajectory struct {
	CosZenith     float64 `json:"cos_zenith"`
	DepthKM       float64 `json:"depth_km"`
	ColumnDensity float64 `json:"column_density"`
}

type geometryFlags struct {
	cosZenith []float64
	depth     []float64
}

func (g *geometryFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&g.cosZenith, "cos-zenith", []float64{-1}, "cosine of the zenith angle per trajectory (-1 is straight up through the Earth)")
	cmd.Flags().Float64SliceVar(&g.depth, "depth", []float64{0}, "detector depth below the surface in km (length 1 or one per trajectory)")
}

// trajectories resolves column densities and labels each broadcast pair.
func (g *geometryFlags) trajectories(e *shower.Engine) ([]trajectory, []float64, error) {
	columns, err := e.ColumnDensities(g.cosZenith, g.depth)
	if err != nil {
		return nil, nil, err
	}
	out := make([]trajectory, len(columns))
	for t, x := range columns {
		out[t] = trajectory{
			CosZenith:     g.cosZenith[min(t, len(g.cosZenith)-1)],
			DepthKM:       g.depth[min(t, len(g.depth)-1)],
			ColumnDensity: x,
		}
	}

	return out, columns, nil
}

func writeTrajectoryHeader(w io.Writer, t int, tr trajectory) error {
	_, err := fmt.Fprintf(w, "# trajectory %d: cos_zenith=%g depth_km=%g column_density=%.6g\n",
		t, tr.CosZenith, tr.DepthKM, tr.ColumnDensity)

	return err
}

func newColumnDensityCmd(a *app) *cobra.Command {
	var geo geometryFlags
	cmd := &cobra.Command{
		Use:   "column-density",
		Short: "Print the PREM column density (nucleons/cm²) of each trajectory",
		Args:  cobra.NoArgs,
		RunE: a.withEngine(func(cmd *cobra.Command, e *shower.Engine) error {
			trs, _, err := geo.trajectories(e)
			if err != nil {
				return err
			}

			return a.emit("column-density", trs, func(w io.Writer) error {
				fmt.Fprintln(w, "COS_ZENITH\tDEPTH_KM\tCOLUMN_DENSITY")
				for _, tr := range trs {
					fmt.Fprintf(w, "%g\t%g\t%.6g\n", tr.CosZenith, tr.DepthKM, tr.ColumnDensity)
				}

				return nil
			})
		}),
	}
	geo.register(cmd)

	return cmd
}

type attenuationTrajectory struct {
	trajectory
	Ratio map[string][]float64 `json:"ratio"`
}

type attenuationResult struct {
	Energies     []float64               `json:"energies_gev"`
	Gamma        float64                 `json:"gamma"`
	Scale        float64                 `json:"scale"`
	Trajectories []attenuationTrajectory `json:"trajectories"`
}

func newAttenuateCmd(a *app) *cobra.Command {
	var (
		geo   geometryFlags
		gamma float64
		scale float64
	)
	cmd := &cobra.Command{
		Use:   "attenuate",
		Short: "Arriving-to-initial flux ratio of an E^-gamma spectrum per flavor",
		Long: `Propagate an isotropic E^-gamma flux, identical in all six flavors, along each
trajectory and print the ratio of arriving to initial flux per flavor and energy.
Light-flavor ratios include secondaries from tau regeneration.`,
		Args: cobra.NoArgs,
		RunE: a.withEngine(func(cmd *cobra.Command, e *shower.Engine) error {
			trs, columns, err := geo.trajectories(e)
			if err != nil {
				return err
			}
			energies := e.Grid().Nodes()
			flux := make([]float64, len(energies))
			for k, en := range energies {
				flux[k] = math.Pow(en, -gamma)
			}
			att, err := e.AttenuationAt(cmd.Context(), [][]float64{flux}, columns, scale)
			if err != nil {
				return err
			}

			res := attenuationResult{Energies: energies, Gamma: gamma, Scale: scale}
			for t, tr := range trs {
				ratio := make(map[string][]float64, flavor.Count)
				for _, f := range flavor.All() {
					block, err := att.Flavor(f)
					if err != nil {
						return err
					}
					ratio[f.String()], err = block.Row(t)
					if err != nil {
						return err
					}
				}
				res.Trajectories = append(res.Trajectories, attenuationTrajectory{trajectory: tr, Ratio: ratio})
			}

			return a.emit("attenuate", res, func(w io.Writer) error {
				for t, tr := range res.Trajectories {
					if err := writeTrajectoryHeader(w, t, tr.trajectory); err != nil {
						return err
					}
					fmt.Fprint(w, "E_GEV")
					for _, f := range flavor.All() {
						fmt.Fprintf(w, "\t%s", f)
					}
					fmt.Fprintln(w)
					for k, en := range energies {
						row := make([]float64, 0, flavor.Count)
						for _, f := range flavor.All() {
							row = append(row, tr.Ratio[f.String()][k])
						}
						if err := writeRow(w, fmt.Sprintf("%.6g", en), row); err != nil {
							return err
						}
					}
				}

				return nil
			})
		}),
	}
	geo.register(cmd)
	cmd.Flags().Float64Var(&gamma, "gamma", 2, "spectral index of the initial flux E^-gamma")
	cmd.Flags().Float64Var(&scale, "scale", 1, "cross-section scale factor")

	return cmd
}

type matrixTrajectory struct {
	trajectory
	// Matrix is indexed [incoming node][outgoing node].
	Matrix [][]float64 `json:"matrix"`
}

type matrixResult struct {
	Energies     []float64          `json:"energies_gev"`
	Flavor       string             `json:"flavor"`
	OutFlavor    string             `json:"out_flavor,omitempty"`
	Trajectories []matrixTrajectory `json:"trajectories"`
}

func (r matrixResult) table(w io.Writer) error {
	for t, tr := range r.Trajectories {
		if err := writeTrajectoryHeader(w, t, tr.trajectory); err != nil {
			return err
		}
		if err := writeRow(w, "E_IN\\E_OUT", r.Energies); err != nil {
			return err
		}
		for i, row := range tr.Matrix {
			if err := writeRow(w, fmt.Sprintf("%.6g", r.Energies[i]), row); err != nil {
				return err
			}
		}
	}

	return nil
}

func newTransferCmd(a *app) *cobra.Command {
	var (
		geo     geometryFlags
		in, out string
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer matrix from one flavor to another along each trajectory",
		Long: `Print the N×N transfer matrix [incoming node][outgoing node] for unit flux of
--flavor arriving as --out-flavor. Only a tau flavor reaches a different flavor
(the light flavors of the same parity).`,
		Args: cobra.NoArgs,
		RunE: a.withEngine(func(cmd *cobra.Command, e *shower.Engine) error {
			f, err := flavor.Parse(in)
			if err != nil {
				return err
			}
			o := f
			if out != "" {
				if o, err = flavor.Parse(out); err != nil {
					return err
				}
			}
			if err := flavor.ValidateTransition(f, o); err != nil {
				return err
			}
			trs, columns, err := geo.trajectories(e)
			if err != nil {
				return err
			}

			n := e.Grid().Len()
			res := matrixResult{Energies: e.Grid().Nodes(), Flavor: f.String(), OutFlavor: o.String()}
			for _, tr := range trs {
				res.Trajectories = append(res.Trajectories, matrixTrajectory{trajectory: tr, Matrix: make([][]float64, n)})
			}
			for i := 0; i < n; i++ {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				el, err := e.TransferMatrixElement(i, f, o, columns)
				if err != nil {
					return err
				}
				for t := range trs {
					row, err := el.Row(t)
					if err != nil {
						return err
					}
					// Mixing pairs carry the tau half in columns [n, 2n).
					res.Trajectories[t].Matrix[i] = row[:n]
				}
			}

			return a.emit("transfer", res, res.table)
		}),
	}
	geo.register(cmd)
	cmd.Flags().StringVar(&in, "flavor", "nu_mu", "incoming flavor (nu_e, nu_e_bar, nu_mu, nu_mu_bar, nu_tau, nu_tau_bar)")
	cmd.Flags().StringVar(&out, "out-flavor", "", "outgoing flavor (default: same as --flavor)")

	return cmd
}

func newShowersCmd(a *app) *cobra.Command {
	var (
		geo geometryFlags
		in  string
	)
	cmd := &cobra.Command{
		Use:   "showers",
		Short: "Visible-energy deposition rate per metre along each trajectory",
		Long: `Print the shower rate matrix [incoming node][deposited node] in events per
metre of detector medium for unit flux of --flavor, summed over every flavor the
flux reaches on its way.`,
		Args: cobra.NoArgs,
		RunE: a.withEngine(func(cmd *cobra.Command, e *shower.Engine) error {
			f, err := flavor.Parse(in)
			if err != nil {
				return err
			}
			trs, columns, err := geo.trajectories(e)
			if err != nil {
				return err
			}
			sm, err := e.TransferMatrixAt(cmd.Context(), columns)
			if err != nil {
				return err
			}

			n := e.Grid().Len()
			res := matrixResult{Energies: e.Grid().Nodes(), Flavor: f.String()}
			for _, tr := range trs {
				res.Trajectories = append(res.Trajectories, matrixTrajectory{trajectory: tr, Matrix: make([][]float64, n)})
			}
			for i := 0; i < n; i++ {
				block, err := sm.Block(f, i)
				if err != nil {
					return err
				}
				for t := range trs {
					if res.Trajectories[t].Matrix[i], err = block.Row(t); err != nil {
						return err
					}
				}
			}

			return a.emit("showers", res, res.table)
		}),
	}
	geo.register(cmd)
	cmd.Flags().StringVar(&in, "flavor", "nu_e", "incoming flavor")

	return cmd
}

type versionResult struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the nufate version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			res := versionResult{Version: version, Go: runtime.Version()}

			return a.emit("version", res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "nufate %s (%s)\n", res.Version, res.Go)

				return err
			})
		},
	}
}
