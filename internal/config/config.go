package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Layer names, lowest priority first.
const (
	LayerDefaults  = "defaults"
	LayerUser      = "user"
	LayerProject   = "project"
	LayerFile      = "file"
	LayerEnv       = "env"
	LayerOverrides = "overrides"
)

var layerOrder = []string{LayerDefaults, LayerUser, LayerProject, LayerFile, LayerEnv, LayerOverrides}

// Project file names looked up next to the document, in order.
var projectFiles = []string{".cloverleaf.toml", ".cloverleaf.yaml", ".cloverleaf.yml"}

// Config holds layered settings. It is safe for concurrent use.
type Config struct {
	mu sync.RWMutex

	layers  map[string]map[string]any
	sources map[string]string
	merged  map[string]any

	userConfigDir string
	projectDir    string
	configFile    string
	environ       func() []string

	// configErrors records type problems found by the section accessors.
	configErrors map[string]error
}

// Option configures a Config instance.
type Option func(*Config)

// WithUserConfigDir sets the user configuration directory.
func WithUserConfigDir(dir string) Option {
	return func(c *Config) {
		c.userConfigDir = dir
	}
}

// WithProjectDir sets the directory searched for a project file, usually
// the directory of the document being compiled.
func WithProjectDir(dir string) Option {
	return func(c *Config) {
		c.projectDir = dir
	}
}

// WithConfigFile names a file that must exist and overrides the user and
// project files.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		c.configFile = path
	}
}

// WithEnviron replaces os.Environ as the source of CLOVERLEAF_* variables.
func WithEnviron(fn func() []string) Option {
	return func(c *Config) {
		c.environ = fn
	}
}

// New creates a Config holding only the defaults.
func New(opts ...Option) *Config {
	c := &Config{
		layers:  map[string]map[string]any{LayerDefaults: defaultConfig()},
		sources: make(map[string]string),
		environ: os.Environ,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.userConfigDir == "" {
		c.userConfigDir = defaultUserConfigDir()
	}
	c.rebuild()
	return c
}

// Load reads every configured source and validates the result.
func (c *Config) Load(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.userConfigDir != "" {
		if err := c.loadFirst(LayerUser, c.userConfigDir, []string{"config.toml", "config.yaml", "config.yml"}); err != nil {
			return err
		}
	}

	if c.projectDir != "" {
		if err := c.loadFirst(LayerProject, c.projectDir, projectFiles); err != nil {
			return err
		}
	}

	if c.configFile != "" {
		data, err := loadFile(c.configFile)
		if err != nil {
			return err
		}
		if data == nil {
			return fmt.Errorf("%w: %s", ErrFileNotFound, c.configFile)
		}
		c.layers[LayerFile] = data
		c.sources[LayerFile] = c.configFile
	}

	c.layers[LayerEnv] = loadEnv(c.environ())

	c.rebuild()
	return c.validateLocked()
}

func (c *Config) loadFirst(layer, dir string, names []string) error {
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := loadFile(path)
		if err != nil {
			return err
		}
		if data != nil {
			c.layers[layer] = data
			c.sources[layer] = path
			return nil
		}
	}
	return nil
}

// Sources returns the file loaded for each file layer.
func (c *Config) Sources() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.sources))
	for k, v := range c.sources {
		out[k] = v
	}
	return out
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.merged, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed
// with time.ParseDuration and bare numbers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	return toDuration(path, v)
}

func toDuration(path string, v any) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%q", val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	case uint64:
		return time.Duration(val) * time.Millisecond, nil
	case float64:
		return time.Duration(val * float64(time.Millisecond)), nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// GetStringSlice returns a string slice at the given path.
func (c *Config) GetStringSlice(path string) ([]string, error) {
	v, ok := c.Get(path)
	if !ok {
		return nil, ErrSettingNotFound
	}

	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		result := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
			}
			result[i] = s
		}
		return result, nil
	default:
		return nil, &TypeError{Path: path, Expected: "[]string", Actual: typeName(v)}
	}
}

// Set sets a value in the overrides layer, which beats every other source.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	overrides := c.layers[LayerOverrides]
	if overrides == nil {
		overrides = make(map[string]any)
		c.layers[LayerOverrides] = overrides
	}
	if err := setPath(overrides, path, value); err != nil {
		return err
	}
	c.rebuild()
	return nil
}

// Merged returns a copy of the fully merged configuration.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepMerge(nil, c.merged)
}

// rebuild recomputes the merged view. Callers hold c.mu.
func (c *Config) rebuild() {
	merged := make(map[string]any)
	for _, name := range layerOrder {
		if data := c.layers[name]; data != nil {
			merged = deepMerge(merged, data)
		}
	}
	c.merged = merged
}

// defaultUserConfigDir returns the default user configuration directory.
func defaultUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cloverleaf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cloverleaf")
}

// defaultConfig returns the default configuration values.
func defaultConfig() map[string]any {
	return map[string]any{
		"compiler": map[string]any{
			"command":         "pdflatex",
			"args":            []any{"-synctex=1", "-interaction=nonstopmode"},
			"outputExtension": ".pdf",
			"diagnosticsTTL":  "30s",
		},
		"synctex": map[string]any{
			"command": "synctex",
			"timeout": "10s",
		},
		"preview": map[string]any{
			"autoCompile":      false,
			"autoCompileDelay": "1s",
			"watchExtensions":  []any{".tex", ".latex", ".ltx", ".bib", ".sty", ".cls"},
		},
		"editor": map[string]any{
			"kind":      "console",
			"color":     "auto",
			"plumbPort": "send",
		},
		"process": map[string]any{
			"maxProcesses":    4,
			"waitDelay":       "5s",
			"shutdownTimeout": "5s",
		},
		"logging": map[string]any{
			"level":  "info",
			"format": "text",
		},
	}
}
