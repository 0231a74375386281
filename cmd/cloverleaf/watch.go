package main

import (
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file.tex>",
	Short: "Recompile a document whenever one of its sources is saved",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	application, err := newApp(args[0], "")
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return application.Watch(cmd.Context(), args[0])
}
