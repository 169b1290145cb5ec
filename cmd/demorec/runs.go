package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/history"
)

func newRunsCmd() *cobra.Command {
	var flagLimit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past recording runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := history.Open(cfg.GetString("history.path"))
			if err != nil {
				return err
			}
			store := history.NewSQLiteStore(db, log)

			runs, err := store.List(cmd.Context(), flagLimit, 0)
			if err != nil {
				return err
			}
			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}

			if len(runs) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tSTEPS\tDURATION\tSTARTED\tOUTPUT")
			for _, r := range runs {
				duration := "-"
				if r.Duration != nil {
					duration = (time.Duration(*r.Duration) * time.Millisecond).String()
				}
				started := "-"
				if r.StartTime != nil {
					started = r.StartTime.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					shortID(r.ID.String()), r.Title, r.Status, r.StepCount, duration, started, r.OutputVideo)
			}
			w.Flush()

			fmt.Printf("\nShowing %d of %d runs\n", len(runs), total)
			return nil
		},
	}

	cmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
