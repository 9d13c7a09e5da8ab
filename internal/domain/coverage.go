// Package domain holds the coverage map model shared by every operation.
package domain

import (
	"encoding/json"
	"sort"
)

// ScriptCoverage is the istanbul-format coverage record for a single source
// file. Location tables (statementMap, fnMap, branchMap) are carried opaquely;
// only the hit counters are interpreted here.
type ScriptCoverage struct {
	Path           string                     `json:"path"`
	StatementMap   map[string]json.RawMessage `json:"statementMap"`
	FnMap          map[string]json.RawMessage `json:"fnMap"`
	BranchMap      map[string]json.RawMessage `json:"branchMap"`
	S              map[string]int             `json:"s"`
	F              map[string]int             `json:"f"`
	B              map[string][]int           `json:"b"`
	Hash           string                     `json:"hash,omitempty"`
	InputSourceMap json.RawMessage            `json:"inputSourceMap,omitempty"`
}

// CoverageMap aggregates per-file coverage across test executions, keyed by
// source file path.
type CoverageMap map[string]*ScriptCoverage

// ParseCoverageMap decodes a JSON coverage payload as emitted by an
// instrumented browser run.
func ParseCoverageMap(data []byte) (CoverageMap, error) {
	var m CoverageMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Merge folds incoming into accumulated and returns the result. The union is
// associative and commutative per file: hit counters are summed, and location
// tables are taken from whichever record was seen first (they are identical
// for identically instrumented sources). The incoming map is not modified.
func Merge(accumulated, incoming CoverageMap) CoverageMap {
	if accumulated == nil {
		accumulated = CoverageMap{}
	}
	for path, script := range incoming {
		existing, ok := accumulated[path]
		if !ok {
			accumulated[path] = cloneScript(script)
			continue
		}
		mergeScript(existing, script)
	}
	return accumulated
}

func mergeScript(dst, src *ScriptCoverage) {
	if dst.S == nil {
		dst.S = map[string]int{}
	}
	for k, v := range src.S {
		dst.S[k] += v
	}
	if dst.F == nil {
		dst.F = map[string]int{}
	}
	for k, v := range src.F {
		dst.F[k] += v
	}
	if dst.B == nil {
		dst.B = map[string][]int{}
	}
	for k, hits := range src.B {
		existing := dst.B[k]
		if len(hits) > len(existing) {
			grown := make([]int, len(hits))
			copy(grown, existing)
			existing = grown
		}
		for i, v := range hits {
			existing[i] += v
		}
		dst.B[k] = existing
	}
}

func cloneScript(s *ScriptCoverage) *ScriptCoverage {
	clone := &ScriptCoverage{
		Path:           s.Path,
		StatementMap:   s.StatementMap,
		FnMap:          s.FnMap,
		BranchMap:      s.BranchMap,
		Hash:           s.Hash,
		InputSourceMap: s.InputSourceMap,
		S:              make(map[string]int, len(s.S)),
		F:              make(map[string]int, len(s.F)),
		B:              make(map[string][]int, len(s.B)),
	}
	for k, v := range s.S {
		clone.S[k] = v
	}
	for k, v := range s.F {
		clone.F[k] = v
	}
	for k, hits := range s.B {
		copied := make([]int, len(hits))
		copy(copied, hits)
		clone.B[k] = copied
	}
	return clone
}

// Rekey moves a record from one path key to another, updating the record's
// own path field to match. Rekeying onto an existing entry merges counters.
func (m CoverageMap) Rekey(from, to string) {
	script, ok := m[from]
	if !ok || from == to {
		return
	}
	delete(m, from)
	script.Path = to
	if existing, ok := m[to]; ok {
		mergeScript(existing, script)
		return
	}
	m[to] = script
}

// Paths returns the map's keys in sorted order.
func (m CoverageMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
