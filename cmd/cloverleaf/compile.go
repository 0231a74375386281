package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errCompileFailed = errors.New("compilation failed")

var compileCmd = &cobra.Command{
	Use:   "compile <file.tex>",
	Short: "Compile a LaTeX document and report its diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func runCompile(cmd *cobra.Command, args []string) error {
	application, err := newApp(args[0], "")
	if err != nil {
		return err
	}
	defer application.Shutdown()

	res, err := application.Compile(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if res.Canceled {
		return cmd.Context().Err()
	}
	if !res.Success {
		if res.ExitCode > 0 {
			return fmt.Errorf("%w: exit code %d", errCompileFailed, res.ExitCode)
		}
		return res.Err()
	}
	return nil
}
