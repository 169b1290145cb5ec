package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/media"
	"github.com/hairizuan-noorazman/demo-recorder/preflight"
)

func newPreflightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check system dependencies (ffmpeg, Chrome, speech endpoint)",
		RunE: func(cmd *cobra.Command, args []string) error {
			checker := preflight.New(media.New(log), log)
			checks, allOK := checker.Run(cmd.Context())

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DEPENDENCY\tSTATUS\tDETAILS")
			for _, c := range checks {
				status := "OK"
				if !c.OK {
					status = "MISSING"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, status, c.Detail)
			}
			w.Flush()

			if !allOK {
				fmt.Println("\nSome dependencies are missing. Install them before recording.")
				os.Exit(1)
			}
			fmt.Println("\nAll checks passed.")
			return nil
		},
	}
}
