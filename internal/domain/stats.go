package domain

// FileStat summarizes statement coverage for one file.
type FileStat struct {
	Path       string  `json:"path"`
	Statements int     `json:"statements"`
	Covered    int     `json:"covered"`
	Percent    float64 `json:"percent"`
}

// Stat derives statement totals from a script's hit counters.
func (s *ScriptCoverage) Stat() FileStat {
	stat := FileStat{Path: s.Path, Statements: len(s.S)}
	for _, hits := range s.S {
		if hits > 0 {
			stat.Covered++
		}
	}
	if stat.Statements > 0 {
		stat.Percent = float64(stat.Covered) / float64(stat.Statements) * 100
	}
	return stat
}

// Stats returns per-file statement stats in path order.
func (m CoverageMap) Stats() []FileStat {
	stats := make([]FileStat, 0, len(m))
	for _, path := range m.Paths() {
		stats = append(stats, m[path].Stat())
	}
	return stats
}

// Overall returns the statement coverage across the whole map.
func (m CoverageMap) Overall() FileStat {
	total := FileStat{}
	for _, script := range m {
		stat := script.Stat()
		total.Statements += stat.Statements
		total.Covered += stat.Covered
	}
	if total.Statements > 0 {
		total.Percent = float64(total.Covered) / float64(total.Statements) * 100
	}
	return total
}
