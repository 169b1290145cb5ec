package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/history"
	"github.com/hairizuan-noorazman/demo-recorder/media"
	"github.com/hairizuan-noorazman/demo-recorder/narration"
	"github.com/hairizuan-noorazman/demo-recorder/recorder"
	"github.com/hairizuan-noorazman/demo-recorder/script"
	"github.com/hairizuan-noorazman/demo-recorder/storage"
)

func newRecordCmd() *cobra.Command {
	var (
		flagOutput  string
		flagSkipGIF bool
		flagPublish bool
	)

	cmd := &cobra.Command{
		Use:   "record <script.json>",
		Short: "Record a demo from a JSON script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scriptPath := args[0]

			demo, err := script.Load(scriptPath)
			if err != nil {
				return err
			}

			fmt.Printf("Loaded script: %s\n", scriptPath)
			fmt.Printf("  Title:    %s\n", demo.Metadata.Title)
			fmt.Printf("  Steps:    %d (%d narrated)\n", len(demo.Steps), demo.NarratedSteps())
			fmt.Printf("  Voice:    %s\n", demo.Metadata.Voice)
			fmt.Printf("  Viewport: %dx%d\n", demo.Metadata.Viewport.Width, demo.Metadata.Viewport.Height)

			engine := narration.NewEdgeEngine(demo.Metadata.Voice, demo.Metadata.Rate, log)
			ffmpeg := media.New(log)

			db, err := history.Open(cfg.GetString("history.path"))
			if err != nil {
				return err
			}
			store := history.NewSQLiteStore(db, log)

			var artifacts storage.ArtifactStore
			if flagPublish {
				artifacts, err = storage.NewArtifactStore(storageConfig())
				if err != nil {
					return err
				}
			}

			outputDir := flagOutput
			if outputDir == "" {
				outputDir = cfg.GetString("record.output_dir")
			}

			pipeline := recorder.New(engine, ffmpeg, store, artifacts, log)
			outputs, err := pipeline.Run(cmd.Context(), demo, scriptPath, recorder.Options{
				OutputDir: outputDir,
				SkipGIF:   flagSkipGIF,
				Headless:  cfg.GetBool("record.headless"),
				Publish:   flagPublish,
			})
			if err != nil {
				return fmt.Errorf("recording failed: %w", err)
			}

			fmt.Println("\nRecording complete:")
			fmt.Printf("  MP4: %s\n", outputs.Video)
			fmt.Printf("  SRT: %s\n", outputs.SRT)
			if outputs.GIF != "" {
				fmt.Printf("  GIF: %s\n", outputs.GIF)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output directory (default from config)")
	cmd.Flags().BoolVar(&flagSkipGIF, "skip-gif", false, "Skip GIF preview generation")
	cmd.Flags().BoolVar(&flagPublish, "publish", false, "Publish finished artifacts to the configured store")
	return cmd
}
