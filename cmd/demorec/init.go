package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/script"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [output-path]",
		Short: "Write a sample demo script template",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "demo_script.json"
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			if err := os.WriteFile(path, script.Template(), 0644); err != nil {
				return fmt.Errorf("failed to write template: %w", err)
			}

			fmt.Printf("Template script written to %s\n", path)
			fmt.Println("Edit it, then record with: demorec record " + path)
			return nil
		},
	}
}
