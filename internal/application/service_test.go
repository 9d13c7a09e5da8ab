package application

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

type memStore struct {
	m       domain.CoverageMap
	exists  bool
	path    string
	saves   int
	loadErr error
	saveErr error
}

func (s *memStore) Load() (domain.CoverageMap, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.m == nil {
		return domain.CoverageMap{}, nil
	}
	return s.m, nil
}

func (s *memStore) Save(m domain.CoverageMap) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.m = m
	s.exists = true
	s.saves++
	return nil
}

func (s *memStore) Exists() (bool, error) { return s.exists, nil }

func (s *memStore) Path() string {
	if s.path != "" {
		return s.path
	}
	return filepath.Join(".nyc_output", "out.json")
}

type noopFixer struct {
	allMissing bool
	resolved   int
}

func (f *noopFixer) Fix(m domain.CoverageMap) domain.CoverageMap { return m }
func (f *noopFixer) AllUnresolvable(m domain.CoverageMap) bool   { return f.allMissing }
func (f *noopFixer) ResolveByBasename(m domain.CoverageMap) int  { return f.resolved }

type fakeProject struct {
	script    string
	scriptKey string
	cfg       ReportConfig
	err       error
}

func (p *fakeProject) ReportScript(key string) (string, bool, error) {
	p.scriptKey = key
	if p.err != nil {
		return "", false, p.err
	}
	return p.script, p.script != "", nil
}

func (p *fakeProject) ReportOptions() (ReportConfig, error) { return p.cfg, nil }

type fakeEngine struct {
	calls int
	cfg   ReportConfig
	err   error
}

func (e *fakeEngine) Report(ctx context.Context, cfg ReportConfig) error {
	e.calls++
	e.cfg = cfg
	return e.err
}

type fakeScripts struct {
	calls  int
	script string
	err    error
}

func (r *fakeScripts) Run(ctx context.Context, script string) error {
	r.calls++
	r.script = script
	return r.err
}

type silentSummary struct{}

func (silentSummary) WriteSummary(w io.Writer, m domain.CoverageMap) error { return nil }
func (silentSummary) WriteFinal(w io.Writer, reportDir string) error       { return nil }

func newTestService(store *memStore, fixer *noopFixer, project *fakeProject, engine *fakeEngine, scripts *fakeScripts, out io.Writer) *Service {
	if out == nil {
		out = io.Discard
	}
	return &Service{
		Store:   store,
		Paths:   fixer,
		Project: project,
		Engine:  engine,
		Scripts: scripts,
		Summary: silentSummary{},
		Out:     out,
	}
}

func payload(path string, hits int) []byte {
	return []byte(`{"` + path + `":{"path":"` + path + `","statementMap":{},"fnMap":{},"branchMap":{},"s":{"0":` +
		string(rune('0'+hits)) + `},"f":{},"b":{}}}`)
}

func TestReset(t *testing.T) {
	t.Run("interactive clears persisted map", func(t *testing.T) {
		store := &memStore{
			m:      domain.CoverageMap{"a.js": {Path: "a.js", S: map[string]int{"0": 3}}},
			exists: true,
		}
		svc := newTestService(store, &noopFixer{}, &fakeProject{}, &fakeEngine{}, &fakeScripts{}, nil)

		require.NoError(t, svc.Reset(context.Background(), ResetOptions{Interactive: true}))
		assert.Empty(t, store.m)
		assert.Equal(t, 1, store.saves)
	})

	t.Run("non-interactive never touches the store", func(t *testing.T) {
		store := &memStore{
			m:      domain.CoverageMap{"a.js": {Path: "a.js", S: map[string]int{"0": 3}}},
			exists: true,
		}
		svc := newTestService(store, &noopFixer{}, &fakeProject{}, &fakeEngine{}, &fakeScripts{}, nil)

		require.NoError(t, svc.Reset(context.Background(), ResetOptions{Interactive: false}))
		assert.Equal(t, 0, store.saves)
		assert.Len(t, store.m, 1)
	})
}

func TestCombine(t *testing.T) {
	t.Run("accumulates disjoint payloads", func(t *testing.T) {
		store := &memStore{}
		svc := newTestService(store, &noopFixer{}, &fakeProject{}, &fakeEngine{}, &fakeScripts{}, nil)
		ctx := context.Background()

		require.NoError(t, svc.Combine(ctx, payload("a.js", 1)))
		require.NoError(t, svc.Combine(ctx, payload("b.js", 2)))

		assert.Len(t, store.m, 2)
		assert.Equal(t, 1, store.m["a.js"].S["0"])
		assert.Equal(t, 2, store.m["b.js"].S["0"])
	})

	t.Run("sums overlapping hit counts", func(t *testing.T) {
		store := &memStore{}
		svc := newTestService(store, &noopFixer{}, &fakeProject{}, &fakeEngine{}, &fakeScripts{}, nil)
		ctx := context.Background()

		require.NoError(t, svc.Combine(ctx, payload("a.js", 1)))
		require.NoError(t, svc.Combine(ctx, payload("a.js", 2)))

		assert.Equal(t, 3, store.m["a.js"].S["0"])
	})

	t.Run("malformed payload leaves prior state untouched", func(t *testing.T) {
		store := &memStore{}
		svc := newTestService(store, &noopFixer{}, &fakeProject{}, &fakeEngine{}, &fakeScripts{}, nil)
		ctx := context.Background()

		require.NoError(t, svc.Combine(ctx, payload("a.js", 1)))
		err := svc.Combine(ctx, []byte("{broken"))
		require.Error(t, err)

		assert.Equal(t, 1, store.saves)
		assert.Equal(t, 1, store.m["a.js"].S["0"])
	})
}

func TestReport(t *testing.T) {
	existing := func() *memStore {
		return &memStore{
			m:      domain.CoverageMap{"a.js": {Path: "a.js", S: map[string]int{"0": 1}}},
			exists: true,
		}
	}

	t.Run("short-circuits when nothing persisted", func(t *testing.T) {
		engine := &fakeEngine{}
		scripts := &fakeScripts{}
		var out bytes.Buffer
		svc := newTestService(&memStore{}, &noopFixer{}, &fakeProject{}, engine, scripts, &out)

		dir, err := svc.Report(context.Background(), ReportOptions{})
		require.NoError(t, err)

		assert.Empty(t, dir)
		assert.Zero(t, engine.calls)
		assert.Zero(t, scripts.calls)
		assert.Contains(t, out.String(), "skipping report")
	})

	t.Run("invokes engine with forced temp dir and absolute report dir", func(t *testing.T) {
		store := existing()
		engine := &fakeEngine{}
		svc := newTestService(store, &noopFixer{}, &fakeProject{cfg: ReportConfig{ReportDir: "coverage", Reporters: []string{"html"}}}, engine, &fakeScripts{}, nil)

		dir, err := svc.Report(context.Background(), ReportOptions{})
		require.NoError(t, err)

		assert.Equal(t, 1, engine.calls)
		assert.Equal(t, ".nyc_output", engine.cfg.TempDir)
		assert.True(t, filepath.IsAbs(engine.cfg.ReportDir), "report dir should be absolute: %q", engine.cfg.ReportDir)
		assert.Equal(t, engine.cfg.ReportDir, dir)
		assert.Equal(t, []string{"html"}, engine.cfg.Reporters)
	})

	t.Run("prefers custom report script over engine", func(t *testing.T) {
		engine := &fakeEngine{}
		scripts := &fakeScripts{}
		project := &fakeProject{script: "coverage:report"}
		svc := newTestService(existing(), &noopFixer{}, project, engine, scripts, nil)

		dir, err := svc.Report(context.Background(), ReportOptions{})
		require.NoError(t, err)

		assert.Empty(t, dir)
		assert.Zero(t, engine.calls)
		assert.Equal(t, 1, scripts.calls)
		assert.Equal(t, "coverage:report", scripts.script)
		assert.Equal(t, DefaultScriptKey, project.scriptKey)
	})

	t.Run("script failure propagates", func(t *testing.T) {
		scripts := &fakeScripts{err: errors.New("exit status 1")}
		svc := newTestService(existing(), &noopFixer{}, &fakeProject{script: "report"}, &fakeEngine{}, scripts, nil)

		_, err := svc.Report(context.Background(), ReportOptions{})
		assert.Error(t, err)
	})

	t.Run("all paths unresolvable triggers basename search", func(t *testing.T) {
		fixer := &noopFixer{allMissing: true, resolved: 1}
		var out bytes.Buffer
		svc := newTestService(existing(), fixer, &fakeProject{}, &fakeEngine{}, &fakeScripts{}, &out)

		_, err := svc.Report(context.Background(), ReportOptions{})
		require.NoError(t, err)

		assert.True(t, strings.Contains(out.String(), "searching the working tree"))
		assert.Contains(t, out.String(), "relocated 1 of 1 files")
	})

	t.Run("report-time overrides win over project config", func(t *testing.T) {
		engine := &fakeEngine{}
		svc := newTestService(existing(), &noopFixer{}, &fakeProject{cfg: ReportConfig{ReportDir: "coverage", Reporters: []string{"html"}}}, engine, &fakeScripts{}, nil)

		dir, err := svc.Report(context.Background(), ReportOptions{ReportDir: "custom-out", Reporters: []string{"text"}})
		require.NoError(t, err)

		assert.Equal(t, filepath.Base(dir), "custom-out")
		assert.Equal(t, []string{"text"}, engine.cfg.Reporters)
	})
}
