package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve an editor extension over JSON lines on stdin and stdout",
	Long: `serve reads one JSON request per line from stdin and writes notifications
for the editor and the preview surface to stdout. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	application, err := newApp("", "bridge")
	if err != nil {
		return err
	}
	defer application.Shutdown()

	err = application.Serve(cmd.Context())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
