// Package paths rewrites coverage map keys so the reporting engine can
// resolve them from the working directory.
package paths

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/covertask/internal/domain"
)

// Fixer normalizes coverage paths against a working directory. The zero value
// uses the process working directory.
type Fixer struct {
	Root string
}

func (f *Fixer) root() string {
	if f.Root != "" {
		return f.Root
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// Fix rewrites relative keys to absolute paths under the working directory.
// Absolute keys are kept as-is.
func (f *Fixer) Fix(m domain.CoverageMap) domain.CoverageMap {
	root := f.root()
	for _, key := range m.Paths() {
		clean := filepath.Clean(filepath.FromSlash(key))
		if filepath.IsAbs(clean) {
			if clean != key {
				m.Rekey(key, clean)
			}
			continue
		}
		m.Rekey(key, filepath.Join(root, clean))
	}
	return m
}

// AllUnresolvable reports whether every recorded path fails to resolve on
// disk. An empty map resolves trivially.
func (f *Fixer) AllUnresolvable(m domain.CoverageMap) bool {
	if len(m) == 0 {
		return false
	}
	root := f.root()
	for key := range m {
		if _, err := os.Stat(resolveFrom(root, key)); err == nil {
			return false
		}
	}
	return true
}

// ResolveByBasename searches the working tree for files matching the recorded
// basenames and rewrites keys with exactly one match. Ambiguous or unmatched
// entries are left untouched; downstream reporting shows them as missing.
func (f *Fixer) ResolveByBasename(m domain.CoverageMap) int {
	index := f.indexWorkingTree()
	rewritten := 0
	root := f.root()
	for _, key := range m.Paths() {
		if _, err := os.Stat(resolveFrom(root, key)); err == nil {
			continue
		}
		candidates := index[filepath.Base(key)]
		if len(candidates) != 1 {
			continue
		}
		m.Rekey(key, candidates[0])
		rewritten++
	}
	return rewritten
}

// indexWorkingTree maps basename to the absolute paths carrying it, skipping
// hidden directories and common non-source trees.
func (f *Fixer) indexWorkingTree() map[string][]string {
	index := make(map[string][]string)
	root := f.root()
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			base := filepath.Base(path)
			if path != root && (strings.HasPrefix(base, ".") || base == "node_modules" || base == "vendor" || base == "coverage") {
				return filepath.SkipDir
			}
			return nil
		}
		index[d.Name()] = append(index[d.Name()], path)
		return nil
	})
	return index
}

func resolveFrom(root, key string) string {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) {
		return clean
	}
	return filepath.Join(root, clean)
}
