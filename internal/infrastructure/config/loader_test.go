package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("reads full config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".covertask.yaml")
		content := `store: tmp/cov/out.json
report:
  dir: build/coverage
  reporters:
    - html
  scriptKey: cov:report
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := Loader{}.Load(path)
		require.NoError(t, err)
		assert.Equal(t, "tmp/cov/out.json", cfg.Store)
		assert.Equal(t, "build/coverage", cfg.Report.Dir)
		assert.Equal(t, []string{"html"}, cfg.Report.Reporters)
		assert.Equal(t, "cov:report", cfg.Report.ScriptKey)
	})

	t.Run("fills unset fields from defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".covertask.yaml")
		require.NoError(t, os.WriteFile(path, []byte("report:\n  dir: out\n"), 0o644))

		cfg, err := Loader{}.Load(path)
		require.NoError(t, err)
		assert.Equal(t, Default().Store, cfg.Store)
		assert.Equal(t, "out", cfg.Report.Dir)
		assert.Equal(t, Default().Report.Reporters, cfg.Report.Reporters)
	})

	t.Run("rejects invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".covertask.yaml")
		require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))

		_, err := Loader{}.Load(path)
		assert.Error(t, err)
	})
}

func TestLoadOrDefault(t *testing.T) {
	t.Run("defaults when file absent", func(t *testing.T) {
		cfg, err := Loader{}.LoadOrDefault(filepath.Join(t.TempDir(), ".covertask.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Config{
		Store: ".nyc_output/out.json",
		Report: ReportSettings{
			Dir:       "coverage",
			Reporters: []string{"lcov", "html"},
			ScriptKey: "coverage:report",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, cfg))

	path := filepath.Join(t.TempDir(), ".covertask.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	loaded, err := Loader{}.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
