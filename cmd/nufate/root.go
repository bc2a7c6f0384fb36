// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/katalvlaran/nufate/cascade"
	"github.com/katalvlaran/nufate/earth"
	"github.com/katalvlaran/nufate/energy"
	"github.com/katalvlaran/nufate/internal/config"
	"github.com/katalvlaran/nufate/internal/logging"
	"github.com/katalvlaran/nufate/shower"
	"github.com/katalvlaran/nufate/store"
	"github.com/katalvlaran/nufate/xsec"
	"github.com/spf13/cobra"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "dev"

// app carries the state shared by every subcommand of one invocation.
type app struct {
	stdout, stderr io.Writer

	configPath string
	logLevel   string
	cacheDir   string
	format     string

	cfg    config.Config
	log    *slog.Logger
	runID  uuid.UUID
	store  *store.Badger
	engine *shower.Engine
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "nufate",
		Short: "Propagate high-energy neutrino fluxes through the Earth",
		Long: `nufate solves the neutrino cascade equation on a log-spaced energy grid
by eigendecomposition, including neutral-current down-scattering, the Glashow
resonance and tau regeneration.

Configuration priority: environment (NUFATE_*) > --config file > defaults.
Flags --log-level and --cache-dir override both.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a YAML (or JSON) config file")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	pf.StringVar(&a.cacheDir, "cache-dir", "", "directory of the persistent eigenbasis store (overrides config)")
	pf.StringVar(&a.format, "format", "json", "output format: json or text")

	root.AddCommand(
		newAttenuateCmd(a),
		newTransferCmd(a),
		newShowersCmd(a),
		newColumnDensityCmd(a),
		newVersionCmd(a),
	)

	return root
}

// setup loads configuration and the logger. The engine is built lazily.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	switch a.format {
	case "json", "text":
	default:
		return fmt.Errorf("--format %q: want json or text", a.format)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.Cache.Dir = a.cacheDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(a.stderr, cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg, a.log, a.runID = cfg, log, uuid.New()
	a.log.Debug("configured", "run_id", a.runID, "command", cmd.Name(), "grid_nodes", cfg.Grid.Nodes)

	return nil
}

// buildEngine assembles grid, cross-sections, Earth model and store from
// the loaded configuration.
func (a *app) buildEngine() (*shower.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}
	cfg := a.cfg
	grid, err := energy.LogSpace(cfg.Grid.EMin, cfg.Grid.EMax, cfg.Grid.Nodes)
	if err != nil {
		return nil, err
	}

	xopts := []xsec.ParametricOption{xsec.WithQuadraturePoints(cfg.CrossSection.QuadraturePoints)}
	if !cfg.CrossSection.GlashowResonance {
		xopts = append(xopts, xsec.WithoutResonance())
	}
	popts := []earth.PREMOption{earth.WithPREMQuadraturePoints(cfg.Earth.QuadraturePoints)}
	if cfg.Earth.SurfaceLayerKM > 0 {
		popts = append(popts, earth.WithSurfaceLayer(cfg.Earth.SurfaceLayerKM, cfg.Earth.SurfaceDensity))
	}

	copts := []cascade.Option{
		cascade.WithImagTolerance(cfg.Engine.ImagTolerance),
		cascade.WithConditionLimit(cfg.Engine.ConditionLimit),
		cascade.WithLogger(a.log),
	}
	if cfg.Engine.Workers > 0 {
		copts = append(copts, cascade.WithWorkers(cfg.Engine.Workers))
	}
	if cfg.Engine.TauSelfRegeneration {
		copts = append(copts, cascade.WithTauSelfRegeneration())
	}
	if cfg.Cache.Dir != "" {
		st, err := store.Open(cfg.Cache.Dir, store.WithLogger(a.log.With("component", "badger")))
		if err != nil {
			return nil, err
		}
		a.store = st
		copts = append(copts, cascade.WithStore(st))
	}

	e, err := shower.NewEngine(grid, xsec.NewParametric(xopts...), earth.NewPREM(popts...),
		shower.WithMediumDensity(cfg.Shower.MediumDensity),
		shower.WithCascade(copts...),
	)
	if err != nil {
		return nil, errors.Join(err, a.close())
	}
	a.engine = e

	return e, nil
}

// withEngine adapts fn into a RunE that builds the engine first and closes
// the store afterwards, whether or not fn fails.
func (a *app) withEngine(fn func(cmd *cobra.Command, e *shower.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		e, err := a.buildEngine()
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, a.close()) }()

		return fn(cmd, e)
	}
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil

	return err
}
