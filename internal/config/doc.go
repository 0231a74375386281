// Package config loads cloverleaf settings.
//
// Settings live in a nested map addressed by dot-separated paths such as
// "compiler.command". Sources are layered, later layers winning:
//
//  1. built-in defaults
//  2. the user file, $XDG_CONFIG_HOME/cloverleaf/config.toml (or .yaml)
//  3. the project file, .cloverleaf.toml or .cloverleaf.yaml next to the
//     document
//  4. an explicit file given with --config
//  5. CLOVERLEAF_* environment variables
//  6. values set at run time with Set, typically from command-line flags
//
// Files are TOML or YAML, chosen by extension. Typed snapshots of each
// section are available through accessor methods:
//
//	cfg := config.New(config.WithProjectDir(dir))
//	if err := cfg.Load(ctx); err != nil {
//		return err
//	}
//	compiler := cfg.Compiler()
package config
