package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/media"
	"github.com/hairizuan-noorazman/demo-recorder/stitch"
)

func newStitchCmd() *cobra.Command {
	var (
		flagOutput  string
		flagBaseDir string
	)

	cmd := &cobra.Command{
		Use:   "stitch <config.json> [source-video]",
		Short: "Stitch clips or splice transitions into a final video",
		Long: `Stitch assembles a final video from a JSON config.

Clips mode (config has a "clips" array) concatenates the clips in order:
  demorec stitch stitch_config.json -o output/

Transitions mode (config has a "transitions" array) splices transition clips
into a source recording and needs the source video argument:
  demorec stitch stitch_config.json output/demo.mp4 -o output/`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := args[0]

			stitchCfg, err := stitch.Load(configPath)
			if err != nil {
				return err
			}

			baseDir := flagBaseDir
			if baseDir == "" {
				baseDir = filepath.Dir(configPath)
			}

			outputDir := flagOutput
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}

			stitcher := stitch.New(media.New(log), log)

			if stitchCfg.Clips != nil {
				name := stitchCfg.OutputName
				if name == "" {
					name = "stitched"
				}
				outputPath := filepath.Join(outputDir, name+".mp4")

				if err := stitcher.StitchClips(cmd.Context(), stitchCfg, baseDir, outputPath); err != nil {
					return err
				}
				fmt.Printf("Output: %s\n", outputPath)
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("transitions mode requires a source video argument")
			}
			sourcePath := args[1]

			base := filepath.Base(sourcePath)
			name := strings.TrimSuffix(base, filepath.Ext(base)) + "_branded.mp4"
			outputPath := filepath.Join(outputDir, name)

			if err := stitcher.StitchTransitions(cmd.Context(), stitchCfg, baseDir, sourcePath, outputPath); err != nil {
				return err
			}
			fmt.Printf("Output: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagOutput, "output", "o", "./output", "Output directory")
	cmd.Flags().StringVar(&flagBaseDir, "base-dir", "", "Base dir for resolving clip paths (default: config dir)")
	return cmd
}
