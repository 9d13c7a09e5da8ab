// Package config loads the plugin's own configuration file.
package config

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/covertask/internal/application"
	"github.com/felixgeelhaar/covertask/internal/infrastructure/store"
)

// DefaultPath is the conventional config file location.
const DefaultPath = ".covertask.yaml"

// Config is the validated plugin configuration.
type Config struct {
	Store  string
	Report ReportSettings
}

// ReportSettings configure the report operation.
type ReportSettings struct {
	Dir       string
	Reporters []string
	ScriptKey string
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Store: store.DefaultPath,
		Report: ReportSettings{
			Dir:       "coverage",
			Reporters: []string{"lcov", "text-summary"},
			ScriptKey: application.DefaultScriptKey,
		},
	}
}

type Loader struct{}

type fileConfig struct {
	Store  string     `yaml:"store"`
	Report fileReport `yaml:"report"`
}

type fileReport struct {
	Dir       string   `yaml:"dir"`
	Reporters []string `yaml:"reporters"`
	ScriptKey string   `yaml:"scriptKey"`
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Load reads the config file, filling unset fields from the defaults.
func (l Loader) Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if fc.Store != "" {
		cfg.Store = fc.Store
	}
	if fc.Report.Dir != "" {
		cfg.Report.Dir = fc.Report.Dir
	}
	if len(fc.Report.Reporters) > 0 {
		cfg.Report.Reporters = fc.Report.Reporters
	}
	if fc.Report.ScriptKey != "" {
		cfg.Report.ScriptKey = fc.Report.ScriptKey
	}
	return cfg, nil
}

// LoadOrDefault returns the file's config when present, the defaults
// otherwise.
func (l Loader) LoadOrDefault(path string) (Config, error) {
	exists, err := l.Exists(path)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return Default(), nil
	}
	return l.Load(path)
}

func Write(w io.Writer, cfg Config) error {
	out := fileConfig{
		Store: cfg.Store,
		Report: fileReport{
			Dir:       cfg.Report.Dir,
			Reporters: cfg.Report.Reporters,
			ScriptKey: cfg.Report.ScriptKey,
		},
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return enc.Encode(out)
}
