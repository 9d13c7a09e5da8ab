package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

func TestFileStoreLoad(t *testing.T) {
	t.Run("returns empty map for non-existent file", func(t *testing.T) {
		s := FileStore{FilePath: filepath.Join(t.TempDir(), "out.json")}
		m, err := s.Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(m) != 0 {
			t.Fatalf("expected empty map, got %d entries", len(m))
		}
	})

	t.Run("loads existing map", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		content := `{"src/a.js":{"path":"src/a.js","statementMap":{},"fnMap":{},"branchMap":{},"s":{"0":2},"f":{},"b":{}}}`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write test file: %v", err)
		}

		s := FileStore{FilePath: path}
		m, err := s.Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(m) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(m))
		}
		if m["src/a.js"].S["0"] != 2 {
			t.Fatalf("expected 2 hits, got %d", m["src/a.js"].S["0"])
		}
	})

	t.Run("returns error for invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		if err := os.WriteFile(path, []byte("not valid json"), 0644); err != nil {
			t.Fatalf("write test file: %v", err)
		}

		s := FileStore{FilePath: path}
		if _, err := s.Load(); err == nil {
			t.Fatal("expected error for invalid JSON")
		}
	})
}

func TestFileStoreSave(t *testing.T) {
	t.Run("round-trips a coverage map", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		s := FileStore{FilePath: path}

		m := domain.CoverageMap{
			"src/a.js": {Path: "src/a.js", S: map[string]int{"0": 1, "1": 0}, F: map[string]int{}, B: map[string][]int{}},
		}
		if err := s.Save(m); err != nil {
			t.Fatalf("save: %v", err)
		}

		loaded, err := s.Load()
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if loaded["src/a.js"].S["0"] != 1 || loaded["src/a.js"].S["1"] != 0 {
			t.Fatalf("round trip mismatch: %v", loaded["src/a.js"].S)
		}
	})

	t.Run("creates directory if missing", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".nyc_output", "out.json")
		s := FileStore{FilePath: path}

		if err := s.Save(domain.CoverageMap{}); err != nil {
			t.Fatalf("save: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected file: %v", err)
		}
	})

	t.Run("writes pretty-printed JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		s := FileStore{FilePath: path}

		m := domain.CoverageMap{"a.js": {Path: "a.js", S: map[string]int{"0": 1}}}
		if err := s.Save(m); err != nil {
			t.Fatalf("save: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if !strings.Contains(string(data), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("overwrites prior content entirely", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")
		s := FileStore{FilePath: path}

		first := domain.CoverageMap{"a.js": {Path: "a.js", S: map[string]int{"0": 1}}}
		if err := s.Save(first); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := s.Save(domain.CoverageMap{}); err != nil {
			t.Fatalf("save empty: %v", err)
		}

		loaded, err := s.Load()
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if len(loaded) != 0 {
			t.Fatalf("expected empty map after reset save, got %d entries", len(loaded))
		}
	})
}

func TestFileStoreExists(t *testing.T) {
	s := FileStore{FilePath: filepath.Join(t.TempDir(), "out.json")}

	exists, err := s.Exists()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected false before save")
	}

	if err := s.Save(domain.CoverageMap{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	exists, err = s.Exists()
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Fatal("expected true after save")
	}
}
