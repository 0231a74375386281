package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var syncForwardCmd = &cobra.Command{
	Use:   "sync-forward <file.tex> <line> [column]",
	Short: "Show the PDF location of a source position",
	Long: `sync-forward maps a 1-based line and optional column of a source file to
a point in the compiled PDF and sends the preview a scroll command.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSyncForward,
}

var syncReverseCmd = &cobra.Command{
	Use:   "sync-reverse <file.pdf> <page> <x> <y>",
	Short: "Show the source position of a point in the PDF",
	Long: `sync-reverse maps a point on a PDF page, in PDF points from the top left
corner, to the source position that produced it and moves the editor there.`,
	Args: cobra.ExactArgs(4),
	RunE: runSyncReverse,
}

func runSyncForward(cmd *cobra.Command, args []string) error {
	line, err := parseInt("line", args[1])
	if err != nil {
		return err
	}
	column := 0
	if len(args) == 3 {
		if column, err = parseInt("column", args[2]); err != nil {
			return err
		}
	}

	application, err := newApp(args[0], "")
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return application.SyncForward(cmd.Context(), args[0], line, column)
}

func runSyncReverse(cmd *cobra.Command, args []string) error {
	page, err := parseInt("page", args[1])
	if err != nil {
		return err
	}
	x, err := parseFloat("x", args[2])
	if err != nil {
		return err
	}
	y, err := parseFloat("y", args[3])
	if err != nil {
		return err
	}

	application, err := newApp(args[0], "")
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return application.SyncReverse(cmd.Context(), args[0], page, x, y)
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return n, nil
}

func parseFloat(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return f, nil
}
