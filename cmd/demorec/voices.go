package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/narration"
)

func newVoicesCmd() *cobra.Command {
	var flagLanguage string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List available speech voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := narration.NewEdgeEngine("", "", log)

			voices, err := engine.ListVoices(cmd.Context(), flagLanguage)
			if err != nil {
				return err
			}

			if len(voices) == 0 {
				fmt.Printf("No voices found for language prefix %q\n", flagLanguage)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VOICE\tGENDER\tLOCALE")
			for _, v := range voices {
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Gender, v.Locale)
			}
			w.Flush()

			fmt.Printf("\nTotal: %d voices\n", len(voices))
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagLanguage, "language", "l", "en", "Language prefix filter (e.g. en, fr, de)")
	return cmd
}
