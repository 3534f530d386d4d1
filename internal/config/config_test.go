package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// chdir changes the working directory for the test and restores it on
// cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("missing.yaml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "mvpa.yaml")
	writeFile(t, path, "data_dir: /data\nresult_dir: /results\nworkers: 2\nthreshold: 0.3\nfeature_scoring: forward\n")
	writeFile(t, filepath.Join(dir, DotEnv), "MVPA_WORKERS=4\nMVPA_VERBOSE=true\n")

	t.Setenv(EnvResult, "/scratch/results")
	t.Setenv(EnvWorkers, "8")
	// .env writes straight into the process environment
	t.Cleanup(func() { os.Unsetenv(EnvVerbose) })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "/scratch/results", cfg.ResultDir)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, 0.3, cfg.Threshold)
	assert.Equal(t, "forward", cfg.Scoring)
	assert.True(t, cfg.TStat)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv(EnvWorkers, "many")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv(EnvWorkers, "-1")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv(EnvWorkers, "")
	t.Setenv(EnvScoring, "weights")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrInvalid)

	t.Setenv(EnvScoring, "")
	path := filepath.Join(dir, "bad.yaml")
	writeFile(t, path, "workers: [1, 2\n")
	_, err = Load(path)
	assert.Error(t, err)
}
