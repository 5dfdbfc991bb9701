package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/voxcut/boundary"
	"github.com/katalvlaran/voxcut/config"
	"github.com/katalvlaran/voxcut/flow"
	"github.com/katalvlaran/voxcut/graphcut"
	"github.com/katalvlaran/voxcut/volume"
)

// TestLoad_MissingFile falls back to the defaults.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)

	p, err := cfg.Parameters()
	require.NoError(t, err)
	require.Equal(t, graphcut.DefaultParameters(), p)
}

// TestSaveLoad round-trips a modified configuration through YAML.
func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "voxcut.yaml")
	cfg := config.Default()
	cfg.Segmentation.Sigma = 12.5
	cfg.Segmentation.Connectivity = 26
	cfg.Segmentation.BoundaryDirection = "dark-to-bright"
	cfg.Solver.Algorithm = "highest-level"
	cfg.Solver.Timeout = "1m30s"
	cfg.Runtime.MaxGraphBytes = 1 << 30
	cfg.Output.Compression = "lz4"
	require.NoError(t, config.Save(cfg, path))

	got, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, got)

	p, err := got.Parameters()
	require.NoError(t, err)
	require.Equal(t, volume.Conn26, p.Connectivity)
	require.Equal(t, boundary.PreferDarkToBright, p.BoundaryDirection)
	require.Equal(t, flow.PushRelabelHighestLevel, p.Algorithm)

	o, err := got.SolverOptions(nil)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, o.Timeout)
}

// TestLoad_PartialFileAndEnv merges file, defaults and environment.
func TestLoad_PartialFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segmentation:\n  sigma: 3\n  lambda: 0.5\n"), 0o644))
	t.Setenv("VOXCUT_SOLVER_ALGORITHM", "dinic")
	t.Setenv("VOXCUT_SEGMENTATION_LAMBDA", "2")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 3.0, cfg.Segmentation.Sigma)
	require.Equal(t, 2.0, cfg.Segmentation.Lambda)
	require.Equal(t, "dinic", cfg.Solver.Algorithm)
	require.Equal(t, config.Default().Segmentation.HistogramBins, cfg.Segmentation.HistogramBins)
}

// TestWriteDefault produces a loadable file.
func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	require.NoError(t, config.WriteDefault(path))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

// TestConversionErrors rejects unknown names.
func TestConversionErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Segmentation.BoundaryDirection = "sideways"
	_, err := cfg.Parameters()
	require.ErrorIs(t, err, boundary.ErrBadDirection)

	cfg = config.Default()
	cfg.Solver.Algorithm = "simplex"
	_, err = cfg.Parameters()
	require.ErrorIs(t, err, flow.ErrUnknownAlgorithm)

	cfg = config.Default()
	cfg.Solver.Timeout = "soon"
	_, err = cfg.SolverOptions(nil)
	require.Error(t, err)

	_, err = cfg.FilterOptions(nil)
	require.Error(t, err)
}

// TestLoad_BadYAML reports parse failures.
func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segmentation: [unclosed\n"), 0o644))
	_, err := config.Load(path)
	require.Error(t, err)
}
