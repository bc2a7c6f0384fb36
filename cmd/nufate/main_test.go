// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallConfig writes a five-node grid configuration and returns its path.
func smallConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nufate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grid:
  emin: 1000
  emax: 1.0e+7
  nodes: 5
log:
  level: error
`), 0o600))

	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return stdout.String(), stderr.String(), err
}

func decode[T any](t *testing.T, out string) (envelope, T) {
	t.Helper()
	var raw struct {
		envelope
		Result json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	var res T
	require.NoError(t, json.Unmarshal(raw.Result, &res))
	_, err := uuid.Parse(raw.RunID)
	require.NoError(t, err, "run_id %q", raw.RunID)

	return raw.envelope, res
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	env, res := decode[versionResult](t, out)
	assert.Equal(t, "version", env.Command)
	assert.Equal(t, version, res.Version)

	out, _, err = run(t, "version", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "nufate "+version)
}

func TestColumnDensity(t *testing.T) {
	cfg := smallConfig(t)
	out, _, err := run(t, "column-density", "--config", cfg, "--cos-zenith", "-1,0,1", "--depth", "1.5")
	require.NoError(t, err)
	_, res := decode[[]trajectory](t, out)
	require.Len(t, res, 3)
	assert.Greater(t, res[0].ColumnDensity, res[1].ColumnDensity)
	assert.Greater(t, res[1].ColumnDensity, res[2].ColumnDensity)
	assert.Equal(t, 1.5, res[2].DepthKM)

	out, _, err = run(t, "column-density", "--config", cfg, "--format", "text", "--cos-zenith", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "COLUMN_DENSITY")
}

func TestAttenuate(t *testing.T) {
	cfg := smallConfig(t)
	out, _, err := run(t, "attenuate", "--config", cfg, "--cos-zenith", "-1,1", "--depth", "1.5", "--gamma", "2")
	require.NoError(t, err)
	env, res := decode[attenuationResult](t, out)
	assert.Equal(t, "attenuate", env.Command)
	require.Len(t, res.Energies, 5)
	require.Len(t, res.Trajectories, 2)

	up, down := res.Trajectories[0].Ratio["nu_mu"], res.Trajectories[1].Ratio["nu_mu"]
	require.Len(t, up, 5)
	assert.Less(t, up[4], 1e-3, "10 PeV νμ through the Earth")
	assert.Greater(t, down[4], 0.99, "10 PeV νμ through 1.5 km of ice")

	out, _, err = run(t, "attenuate", "--config", cfg, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "nu_tau_bar")
}

func TestTransfer(t *testing.T) {
	cfg := smallConfig(t)
	out, _, err := run(t, "transfer", "--config", cfg, "--cos-zenith", "-1",
		"--flavor", "nu_tau", "--out-flavor", "nu_e")
	require.NoError(t, err)
	_, res := decode[matrixResult](t, out)
	assert.Equal(t, "nu_tau", res.Flavor)
	assert.Equal(t, "nu_e", res.OutFlavor)
	require.Len(t, res.Trajectories, 1)
	m := res.Trajectories[0].Matrix
	require.Len(t, m, 5)
	for i := range m {
		require.Len(t, m[i], 5)
		for k := i; k < 5; k++ {
			assert.InDelta(t, 0, m[i][k], 1e-9, "secondaries are never above the parent energy (%d,%d)", i, k)
		}
	}
	assert.Positive(t, m[4][0]+m[4][1]+m[4][2]+m[4][3])

	_, _, err = run(t, "transfer", "--config", cfg, "--flavor", "nu_mu", "--out-flavor", "nu_e")
	assert.Error(t, err)
	_, _, err = run(t, "transfer", "--config", cfg, "--flavor", "nu_x")
	assert.Error(t, err)
}

func TestShowers(t *testing.T) {
	cfg := smallConfig(t)
	out, _, err := run(t, "showers", "--config", cfg, "--cos-zenith", "0.5", "--flavor", "nu_e")
	require.NoError(t, err)
	_, res := decode[matrixResult](t, out)
	require.Len(t, res.Trajectories, 1)
	m := res.Trajectories[0].Matrix
	for i := range m {
		assert.Positive(t, m[i][i], "νe CC deposits the full energy at node %d", i)
	}

	out, _, err = run(t, "showers", "--config", cfg, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "E_IN\\E_OUT")
}

func TestCacheDir_PersistsEigenbases(t *testing.T) {
	cfg := smallConfig(t)
	dir := filepath.Join(t.TempDir(), "eigen")
	first, _, err := run(t, "attenuate", "--config", cfg, "--cache-dir", dir, "--cos-zenith", "-0.5")
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	second, _, err := run(t, "attenuate", "--config", cfg, "--cache-dir", dir, "--cos-zenith", "-0.5")
	require.NoError(t, err)
	_, a := decode[attenuationResult](t, first)
	_, b := decode[attenuationResult](t, second)
	assert.Equal(t, a.Trajectories, b.Trajectories)
}

func TestRootErrors(t *testing.T) {
	cfg := smallConfig(t)
	_, _, err := run(t, "version", "--format", "xml")
	assert.Error(t, err)
	_, _, err = run(t, "version", "--log-level", "shout")
	assert.Error(t, err)
	_, _, err = run(t, "column-density", "--config", cfg, "--cos-zenith", "2")
	assert.Error(t, err)
	_, _, err = run(t, "column-density", "--config", cfg, "--cos-zenith", "-1,0", "--depth", "1,2,3")
	assert.Error(t, err)
}
