// SPDX-License-Identifier: MIT

// Package config loads the nufate CLI configuration.
//
// Priority is environment (NUFATE_*) over the config file over defaults.
// The file is YAML; JSON is accepted as a fallback.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the full CLI configuration.
type Config struct {
	Grid         GridConfig         `json:"grid" yaml:"grid"`
	Engine       EngineConfig       `json:"engine" yaml:"engine"`
	CrossSection CrossSectionConfig `json:"cross_section" yaml:"cross_section"`
	Earth        EarthConfig        `json:"earth" yaml:"earth"`
	Shower       ShowerConfig       `json:"shower" yaml:"shower"`
	Cache        CacheConfig        `json:"cache" yaml:"cache"`
	Log          LogConfig          `json:"log" yaml:"log"`
}

// GridConfig describes the log-spaced energy grid in GeV.
type GridConfig struct {
	EMin  float64 `json:"emin" yaml:"emin"`
	EMax  float64 `json:"emax" yaml:"emax"`
	Nodes int     `json:"nodes" yaml:"nodes"`
}

// EngineConfig tunes the cascade engine. Workers 0 means GOMAXPROCS.
type EngineConfig struct {
	Workers             int     `json:"workers" yaml:"workers"`
	ImagTolerance       float64 `json:"imag_tolerance" yaml:"imag_tolerance"`
	ConditionLimit      float64 `json:"condition_limit" yaml:"condition_limit"`
	TauSelfRegeneration bool    `json:"tau_self_regeneration" yaml:"tau_self_regeneration"`
}

// CrossSectionConfig selects the cross-section model.
type CrossSectionConfig struct {
	Model            string `json:"model" yaml:"model"`
	QuadraturePoints int    `json:"quadrature_points" yaml:"quadrature_points"`
	GlashowResonance bool   `json:"glashow_resonance" yaml:"glashow_resonance"`
}

// EarthConfig configures the PREM path-length model. A zero surface layer
// keeps the PREM crust.
type EarthConfig struct {
	SurfaceLayerKM   float64 `json:"surface_layer_km" yaml:"surface_layer_km"`
	SurfaceDensity   float64 `json:"surface_density" yaml:"surface_density"`
	QuadraturePoints int     `json:"quadrature_points" yaml:"quadrature_points"`
}

// ShowerConfig configures the detector medium.
type ShowerConfig struct {
	MediumDensity float64 `json:"medium_density" yaml:"medium_density"`
}

// CacheConfig locates the persistent eigenbasis store; empty disables it.
type CacheConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// LogConfig sets the log level (debug, info, warn, error).
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Grid: GridConfig{EMin: 1e3, EMax: 1e10, Nodes: 100},
		Engine: EngineConfig{
			ImagTolerance:  1e-6,
			ConditionLimit: 1e12,
		},
		CrossSection: CrossSectionConfig{
			Model:            "parametric",
			QuadraturePoints: 32,
			GlashowResonance: true,
		},
		Earth:  EarthConfig{QuadraturePoints: 16},
		Shower: ShowerConfig{MediumDensity: 1.020},
		Log:    LogConfig{Level: "info"},
	}
}

// Load merges defaults, the file at path (skipped when empty or missing)
// and the environment, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	if err := loadEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("config: environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return fmt.Errorf("parse (tried YAML and JSON): YAML: %v, JSON: %w", err, jsonErr)
		}
	}

	return nil
}

// loadEnv applies NUFATE_* overrides. Unparseable values are errors.
func loadEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	float := func(name string, dst *float64) {
		if v, ok := lookup(name); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))

				return
			}
			*dst = f
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(name); ok && v != "" {
			i, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))

				return
			}
			*dst = i
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(name); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))

				return
			}
			*dst = b
		}
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	float("NUFATE_GRID_EMIN", &cfg.Grid.EMin)
	float("NUFATE_GRID_EMAX", &cfg.Grid.EMax)
	integer("NUFATE_GRID_NODES", &cfg.Grid.Nodes)
	integer("NUFATE_WORKERS", &cfg.Engine.Workers)
	float("NUFATE_IMAG_TOLERANCE", &cfg.Engine.ImagTolerance)
	float("NUFATE_CONDITION_LIMIT", &cfg.Engine.ConditionLimit)
	boolean("NUFATE_TAU_SELF_REGENERATION", &cfg.Engine.TauSelfRegeneration)
	str("NUFATE_XSEC_MODEL", &cfg.CrossSection.Model)
	boolean("NUFATE_GLASHOW_RESONANCE", &cfg.CrossSection.GlashowResonance)
	float("NUFATE_SURFACE_LAYER_KM", &cfg.Earth.SurfaceLayerKM)
	float("NUFATE_SURFACE_DENSITY", &cfg.Earth.SurfaceDensity)
	float("NUFATE_MEDIUM_DENSITY", &cfg.Shower.MediumDensity)
	str("NUFATE_CACHE_DIR", &cfg.Cache.Dir)
	str("NUFATE_LOG_LEVEL", &cfg.Log.Level)

	return errors.Join(errs...)
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
	}
	switch {
	case !positive(c.Grid.EMin) || !positive(c.Grid.EMax) || c.Grid.EMin >= c.Grid.EMax:
		return invalid("grid energies must satisfy 0 < emin (%g) < emax (%g)", c.Grid.EMin, c.Grid.EMax)
	case c.Grid.Nodes < 2:
		return invalid("grid.nodes must be >= 2, got %d", c.Grid.Nodes)
	case c.Engine.Workers < 0:
		return invalid("engine.workers must be >= 0, got %d", c.Engine.Workers)
	case !positive(c.Engine.ImagTolerance):
		return invalid("engine.imag_tolerance must be > 0, got %g", c.Engine.ImagTolerance)
	case !(c.Engine.ConditionLimit >= 1) || math.IsInf(c.Engine.ConditionLimit, 0):
		return invalid("engine.condition_limit must be >= 1, got %g", c.Engine.ConditionLimit)
	case strings.ToLower(c.CrossSection.Model) != "parametric":
		return invalid("cross_section.model %q is not supported", c.CrossSection.Model)
	case c.CrossSection.QuadraturePoints < 2:
		return invalid("cross_section.quadrature_points must be >= 2, got %d", c.CrossSection.QuadraturePoints)
	case c.Earth.SurfaceLayerKM < 0 || c.Earth.SurfaceLayerKM > 6371:
		return invalid("earth.surface_layer_km must be in [0, 6371], got %g", c.Earth.SurfaceLayerKM)
	case c.Earth.SurfaceLayerKM > 0 && !positive(c.Earth.SurfaceDensity):
		return invalid("earth.surface_density must be > 0 with a surface layer, got %g", c.Earth.SurfaceDensity)
	case c.Earth.QuadraturePoints < 2:
		return invalid("earth.quadrature_points must be >= 2, got %d", c.Earth.QuadraturePoints)
	case !positive(c.Shower.MediumDensity):
		return invalid("shower.medium_density must be > 0, got %g", c.Shower.MediumDensity)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	return nil
}
