package project

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"lumen/internal/program"
)

const noManifestMessage = "no lumen.toml found\nrun `lumen init` or pass the shader files explicitly"

// ErrNoManifest is returned by Load when no lumen.toml exists above the start directory.
var ErrNoManifest = fmt.Errorf("%s", noManifestMessage)

// Manifest is a decoded lumen.toml.
type Manifest struct {
	Path   string
	Dir    string
	Config Config
}

type Config struct {
	Project  ProjectConfig   `toml:"project"`
	Programs []ProgramConfig `toml:"program"`
	Watch    WatchConfig     `toml:"watch"`
	Window   WindowConfig    `toml:"window"`
}

type ProjectConfig struct {
	Name string `toml:"name"`
	Root string `toml:"root"`
}

type ProgramConfig struct {
	Name     string `toml:"name"`
	Vertex   string `toml:"vertex"`
	Fragment string `toml:"fragment"`
	Compute  string `toml:"compute"`
}

type WatchConfig struct {
	Interval duration `toml:"interval"`
	Snapshot bool     `toml:"snapshot"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
}

// duration decodes "250ms"-style strings.
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Load finds lumen.toml from startDir upwards and decodes it.
func Load(startDir string) (*Manifest, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoManifest
	}
	return LoadFile(path)
}

// LoadFile decodes and validates the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return nil, fmt.Errorf("%s: missing [project].name", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if len(cfg.Programs) == 0 {
		return nil, fmt.Errorf("%s: no [[program]] defined", path)
	}
	seen := make(map[string]bool, len(cfg.Programs))
	for _, p := range cfg.Programs {
		if err := p.Spec().Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%s: program %q defined twice", path, p.Name)
		}
		seen[p.Name] = true
	}
	applyDefaults(&cfg)
	return &Manifest{Path: path, Dir: filepath.Dir(path), Config: cfg}, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Window.Width <= 0 {
		cfg.Window.Width = 1280
	}
	if cfg.Window.Height <= 0 {
		cfg.Window.Height = 720
	}
	if cfg.Window.Title == "" {
		cfg.Window.Title = cfg.Project.Name
	}
}

// Spec converts the entry into a program spec.
func (p ProgramConfig) Spec() program.Spec {
	return program.Spec{Name: p.Name, Vertex: p.Vertex, Fragment: p.Fragment, Compute: p.Compute}
}

// SourceRoot is the absolute directory shader paths are resolved against.
func (m *Manifest) SourceRoot() string {
	return filepath.Join(m.Dir, filepath.FromSlash(m.Config.Project.Root))
}

// Specs returns every program spec in manifest order.
func (m *Manifest) Specs() []program.Spec {
	out := make([]program.Spec, len(m.Config.Programs))
	for i, p := range m.Config.Programs {
		out[i] = p.Spec()
	}
	return out
}

// Program returns the spec named name.
func (m *Manifest) Program(name string) (program.Spec, bool) {
	for _, p := range m.Config.Programs {
		if p.Name == name {
			return p.Spec(), true
		}
	}
	return program.Spec{}, false
}

// Interval is the minimum time between watch polls.
func (m *Manifest) Interval() time.Duration {
	return m.Config.Watch.Interval.Duration
}

// SnapshotDir is where uniform snapshots of this project are kept.
func (m *Manifest) SnapshotDir() string {
	return filepath.Join(m.Dir, ".lumen", "snapshots")
}
