package config

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Section accessor methods return snapshot structs. Mutating the returned
// struct does not modify the underlying configuration. Use Config.Set()
// to update configuration values.

// CompilerConfig configures the LaTeX compiler.
type CompilerConfig struct {
	// Command is the compiler executable.
	Command string

	// Args are passed before the document path.
	Args []string

	// OutputExtension is the extension of the produced document.
	OutputExtension string

	// DiagnosticsTTL is how long diagnostics stay published.
	DiagnosticsTTL time.Duration
}

// SyncTeXConfig configures the synctex tool.
type SyncTeXConfig struct {
	// Command is the synctex executable.
	Command string

	// Timeout bounds a single query.
	Timeout time.Duration
}

// PreviewConfig configures the preview and auto-compile.
type PreviewConfig struct {
	// AutoCompile recompiles when a source file is saved.
	AutoCompile bool

	// AutoCompileDelay is the quiet period after a save.
	AutoCompileDelay time.Duration

	// WatchExtensions are the extensions that trigger auto-compile.
	WatchExtensions []string
}

// EditorConfig selects how cloverleaf talks to the text editor.
type EditorConfig struct {
	// Kind is "console", "plumber" or "bridge".
	Kind string

	// Color is "auto", "on" or "off" for console output.
	Color string

	// PlumbPort is the plumber port cursor moves are sent to.
	PlumbPort string
}

// ProcessConfig configures child process supervision.
type ProcessConfig struct {
	// MaxProcesses limits concurrent children, 0 for no limit.
	MaxProcesses int

	// WaitDelay bounds how long output is drained after a child exits.
	WaitDelay time.Duration

	// ShutdownTimeout bounds how long shutdown waits for children.
	ShutdownTimeout time.Duration
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string

	// Format is "text" or "json".
	Format string
}

// Allowed values for enumerated settings.
var (
	EditorKinds = []string{"console", "plumber", "bridge"}
	ColorModes  = []string{"auto", "on", "off"}
	LogLevels   = []string{"debug", "info", "warn", "error"}
	LogFormats  = []string{"text", "json"}
)

var (
	defaultArgs  = []string{"-synctex=1", "-interaction=nonstopmode"}
	defaultWatch = []string{".tex", ".latex", ".ltx", ".bib", ".sty", ".cls"}
)

// Compiler returns the compiler settings.
func (c *Config) Compiler() CompilerConfig {
	return CompilerConfig{
		Command:         c.getStringOr("compiler.command", "pdflatex"),
		Args:            c.getStringSliceOr("compiler.args", defaultArgs),
		OutputExtension: c.getStringOr("compiler.outputExtension", ".pdf"),
		DiagnosticsTTL:  c.getDurationOr("compiler.diagnosticsTTL", 30*time.Second),
	}
}

// SyncTeX returns the synctex settings.
func (c *Config) SyncTeX() SyncTeXConfig {
	return SyncTeXConfig{
		Command: c.getStringOr("synctex.command", "synctex"),
		Timeout: c.getDurationOr("synctex.timeout", 10*time.Second),
	}
}

// Preview returns the preview settings.
func (c *Config) Preview() PreviewConfig {
	return PreviewConfig{
		AutoCompile:      c.getBoolOr("preview.autoCompile", false),
		AutoCompileDelay: c.getDurationOr("preview.autoCompileDelay", time.Second),
		WatchExtensions:  c.getStringSliceOr("preview.watchExtensions", defaultWatch),
	}
}

// Editor returns the editor settings.
func (c *Config) Editor() EditorConfig {
	return EditorConfig{
		Kind:      strings.ToLower(c.getStringOr("editor.kind", "console")),
		Color:     strings.ToLower(c.getStringOr("editor.color", "auto")),
		PlumbPort: c.getStringOr("editor.plumbPort", "send"),
	}
}

// Process returns the process supervision settings.
func (c *Config) Process() ProcessConfig {
	return ProcessConfig{
		MaxProcesses:    c.getIntOr("process.maxProcesses", 4),
		WaitDelay:       c.getDurationOr("process.waitDelay", 5*time.Second),
		ShutdownTimeout: c.getDurationOr("process.shutdownTimeout", 5*time.Second),
	}
}

// Logging returns the logging settings.
func (c *Config) Logging() LoggingConfig {
	return LoggingConfig{
		Level:  strings.ToLower(c.getStringOr("logging.level", "info")),
		Format: strings.ToLower(c.getStringOr("logging.format", "text")),
	}
}

// Validate checks every section and returns *ValidationErrors listing all
// problems, or nil.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validateLocked()
}

func (c *Config) validateLocked() error {
	errs := &ValidationErrors{}

	str := func(path string) (string, bool) {
		v, ok := getPath(c.merged, path)
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		if !ok {
			errs.Add(path, "must be a string", v)
			return "", false
		}
		return s, true
	}
	nonEmpty := func(path string) {
		if s, ok := str(path); ok && strings.TrimSpace(s) == "" {
			errs.Add(path, "must not be empty", s)
		}
	}
	oneOf := func(path string, allowed []string) {
		if s, ok := str(path); ok && !slices.Contains(allowed, strings.ToLower(s)) {
			errs.Add(path, "must be one of "+strings.Join(allowed, ", "), s)
		}
	}
	positive := func(path string) {
		v, ok := getPath(c.merged, path)
		if !ok {
			return
		}
		d, err := toDuration(path, v)
		if err != nil {
			errs.Add(path, err.Error(), nil)
		} else if d <= 0 {
			errs.Add(path, "must be positive", d)
		}
	}

	nonEmpty("compiler.command")
	nonEmpty("synctex.command")
	if ext, ok := str("compiler.outputExtension"); ok && !strings.HasPrefix(ext, ".") {
		errs.Add("compiler.outputExtension", "must start with a dot", ext)
	}
	positive("compiler.diagnosticsTTL")
	positive("synctex.timeout")
	positive("preview.autoCompileDelay")
	positive("process.waitDelay")
	positive("process.shutdownTimeout")
	oneOf("editor.kind", EditorKinds)
	oneOf("editor.color", ColorModes)
	oneOf("logging.level", LogLevels)
	oneOf("logging.format", LogFormats)

	return errs.AsError()
}

// These methods only return the default for ErrSettingNotFound. Type
// errors are recorded and also return the default.

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		c.recordError(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		c.recordError(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		c.recordError(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		c.recordError(path, err)
		return defaultValue
	}
	return v
}

func (c *Config) getStringSliceOr(path string, defaultValue []string) []string {
	v, err := c.GetStringSlice(path)
	if err != nil {
		c.recordError(path, err)
		return slices.Clone(defaultValue)
	}
	return slices.Clone(v)
}

// recordError keeps the first type error seen for each path.
func (c *Config) recordError(path string, err error) {
	if errors.Is(err, ErrSettingNotFound) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.configErrors == nil {
		c.configErrors = make(map[string]error)
	}
	if _, exists := c.configErrors[path]; !exists {
		c.configErrors[path] = err
	}
}

// ConfigErrors returns the type errors found by section accessors.
func (c *Config) ConfigErrors() map[string]error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.configErrors == nil {
		return nil
	}
	result := make(map[string]error, len(c.configErrors))
	for k, v := range c.configErrors {
		result[k] = v
	}
	return result
}
