// Package project reads the host project's configuration: package.json for
// script discovery and the nyc rc convention for reporter options.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/covertask/internal/application"
)

// Config reads project configuration files from Dir (default: the working
// directory).
type Config struct {
	Dir string
}

func (c Config) dir() string {
	if c.Dir == "" {
		return "."
	}
	return c.Dir
}

type packageJSON struct {
	Scripts map[string]string `json:"scripts"`
	Nyc     *nycOptions       `json:"nyc"`
}

// nycOptions mirrors the subset of nyc configuration this plugin honors.
// The reporter field accepts both a string and a list in the wild.
type nycOptions struct {
	Reporter  reporterList `json:"reporter"`
	ReportDir string       `json:"report-dir"`
	TempDir   string       `json:"temp-dir"`
}

type reporterList []string

func (r *reporterList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = reporterList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = reporterList(many)
	return nil
}

// ReportScript returns the script name under the given package.json scripts
// key. A missing package.json is treated the same as a missing script.
func (c Config) ReportScript(key string) (string, bool, error) {
	pkg, err := c.readPackage()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	if _, ok := pkg.Scripts[key]; !ok {
		return "", false, nil
	}
	return key, true, nil
}

// ReportOptions loads reporter configuration following the nyc convention:
// the package.json "nyc" key first, overlaid by .nycrc or .nycrc.json when
// present.
func (c Config) ReportOptions() (application.ReportConfig, error) {
	cfg := application.ReportConfig{}

	pkg, err := c.readPackage()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return application.ReportConfig{}, err
	}
	if err == nil && pkg.Nyc != nil {
		applyNyc(&cfg, pkg.Nyc)
	}

	for _, name := range []string{".nycrc", ".nycrc.json"} {
		rc, err := c.readRC(name)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return application.ReportConfig{}, err
		}
		applyNyc(&cfg, rc)
		break
	}

	return cfg, nil
}

func applyNyc(cfg *application.ReportConfig, opts *nycOptions) {
	if len(opts.Reporter) > 0 {
		cfg.Reporters = append([]string(nil), opts.Reporter...)
	}
	if opts.ReportDir != "" {
		cfg.ReportDir = opts.ReportDir
	}
	if opts.TempDir != "" {
		cfg.TempDir = opts.TempDir
	}
}

func (c Config) readPackage() (*packageJSON, error) {
	path := filepath.Join(c.dir(), "package.json")
	// #nosec G304 -- Path is constructed from the trusted project directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &pkg, nil
}

func (c Config) readRC(name string) (*nycOptions, error) {
	path := filepath.Join(c.dir(), name)
	// #nosec G304 -- Path is constructed from the trusted project directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var opts nycOptions
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &opts, nil
}
