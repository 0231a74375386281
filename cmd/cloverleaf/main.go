// Command cloverleaf compiles LaTeX documents and keeps an editor and a PDF
// preview in step through SyncTeX.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/cloverleaf/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cloverleaf",
	Short: "LaTeX compile and SyncTeX preview synchronization",
	Long: `cloverleaf compiles LaTeX documents, reports their diagnostics and maps
positions between the source and the PDF preview in both directions.`,
	SilenceUsage: true,
}

// Global flags.
var (
	configPath string
	logLevel   string
	colorMode  string
	editorKind string
)

func main() {
	rootCmd.Version = version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(syncForwardCmd)
	rootCmd.AddCommand(syncReverseCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "configuration file (toml or yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().StringVar(&editorKind, "editor", "", "editor integration (console|plumber)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newApp builds the application for a command working on document.
// kind overrides the --editor flag when set.
func newApp(document, kind string) (*app.Application, error) {
	if kind == "" {
		kind = editorKind
	}
	return app.New(app.Options{
		ConfigPath: configPath,
		Document:   document,
		LogLevel:   logLevel,
		Color:      colorMode,
		Editor:     kind,
	})
}
