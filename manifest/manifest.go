// Package manifest handles tuploid.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/tuploid/vm"
)

// FileName is the manifest's file name.
const FileName = "tuploid.toml"

// Manifest represents a tuploid.toml project configuration.
type Manifest struct {
	Project Project      `toml:"project"`
	Engine  EngineConfig `toml:"engine"`
	Log     LogConfig    `toml:"log"`
	Store   StoreConfig  `toml:"store"`

	// Dir is the directory containing the tuploid.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// EngineConfig tunes runtime tuple behavior.
type EngineConfig struct {
	// IndexGrowth lets an indexed store one past the end of a dynamic
	// tuple append a slot instead of failing.
	IndexGrowth bool `toml:"index-growth"`
}

// LogConfig configures commonlog output.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// StoreConfig configures the binding store.
type StoreConfig struct {
	Path string `toml:"path"`
}

// Default returns the configuration used when no tuploid.toml is found.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

func (m *Manifest) applyDefaults() {
	if m.Store.Path == "" {
		m.Store.Path = filepath.Join(".tuploid", "bindings.db")
	}
}

// Load parses a tuploid.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if err := validate(raw); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a tuploid.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EngineOptions converts the [engine] table into vm options.
func (m *Manifest) EngineOptions() vm.Options {
	return vm.Options{IndexGrowth: m.Engine.IndexGrowth}
}

// StorePath returns the absolute path of the binding database.
func (m *Manifest) StorePath() string {
	if filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}

// LogPath returns the absolute log file path, or nil for stderr.
func (m *Manifest) LogPath() *string {
	if m.Log.File == "" {
		return nil
	}
	p := m.Log.File
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.Dir, p)
	}
	return &p
}

// ConfigureLogging applies the [log] table. extra raises the verbosity
// on top of the configured level (command-line -v flags).
func (m *Manifest) ConfigureLogging(extra int) {
	commonlog.Configure(m.Log.Verbosity+extra, m.LogPath())
}
