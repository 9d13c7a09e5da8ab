package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

func TestWriteSummary(t *testing.T) {
	t.Run("prints file count and percentages", func(t *testing.T) {
		m := domain.CoverageMap{
			"src/a.js": {Path: "src/a.js", S: map[string]int{"0": 1, "1": 0}},
			"src/b.js": {Path: "src/b.js", S: map[string]int{"0": 3}},
		}

		var out bytes.Buffer
		require.NoError(t, Summary{}.WriteSummary(&out, m))

		assert.Contains(t, out.String(), "2 files")
		assert.Contains(t, out.String(), "src/a.js")
		assert.Contains(t, out.String(), "50.0%")
		assert.Contains(t, out.String(), "100.0%")
	})

	t.Run("empty map prints header only", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, Summary{}.WriteSummary(&out, domain.CoverageMap{}))
		assert.Contains(t, out.String(), "0 files")
	})
}

func TestWriteFinal(t *testing.T) {
	t.Run("prints statement ratios from artifact", func(t *testing.T) {
		dir := t.TempDir()
		content := `{"src/a.js":{"path":"src/a.js","statementMap":{},"fnMap":{},"branchMap":{},"s":{"0":1,"1":0},"f":{},"b":{}}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage-final.json"), []byte(content), 0o644))

		var out bytes.Buffer
		require.NoError(t, Summary{}.WriteFinal(&out, dir))

		assert.Contains(t, out.String(), "src/a.js")
		assert.Contains(t, out.String(), "1/2 statements")
	})

	t.Run("missing artifact is not an error", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, Summary{}.WriteFinal(&out, t.TempDir()))
		assert.Empty(t, out.String())
	})

	t.Run("malformed artifact reports error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "coverage-final.json"), []byte("{broken"), 0o644))

		var out bytes.Buffer
		assert.Error(t, Summary{}.WriteFinal(&out, dir))
	})
}
