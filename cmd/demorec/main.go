package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
)

var (
	// Version is the application version (set during build).
	Version = "dev"

	// Commit is the git commit hash (set during build).
	Commit = "unknown"

	// BuildDate is the build date (set during build).
	BuildDate = "unknown"
)

var (
	flagVerbose bool
	flagConfig  string

	log logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "demorec",
	Short: "Create narrated demo videos from JSON scripts",
	Long:  "demorec drives a headless browser through a scripted walkthrough, narrates each step with synthesized speech, and assembles the recording, audio and subtitles into one video.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional; system env wins either way.
		godotenv.Load()

		if err := initConfig(flagConfig); err != nil {
			return err
		}

		level := cfg.GetString("log.level")
		if flagVerbose {
			level = "debug"
		}
		log = logger.NewLogrusLogger(level, cfg.GetString("log.format"))
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ./demorec.yaml)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("demorec %s (commit: %s, built: %s)\n", Version, Commit, BuildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newStitchCmd())
	rootCmd.AddCommand(newVoicesCmd())
	rootCmd.AddCommand(newPreflightCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newSaveAuthCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
