package assemble

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// MuxMode selects how the final deliverable is put together.
type MuxMode int

const (
	// MuxBurnSubtitles renders subtitles into the video pixels (libass).
	MuxBurnSubtitles MuxMode = iota
	// MuxSoftSubtitles muxes the SRT as a selectable mov_text stream.
	MuxSoftSubtitles
	// MuxAudioOnly merges video with the combined audio, no subtitles.
	MuxAudioOnly
	// MuxVideoOnly emits the video with no audio stream at all. Chosen when
	// the only available audio is the silent placeholder: a track known to
	// be padding is never attached.
	MuxVideoOnly
)

// SelectMuxMode picks the mux mode from what is actually usable: a non-empty
// subtitle track, the availability of the libass subtitles filter and
// whether the combined audio is real narration rather than placeholder
// silence.
func SelectMuxMode(hasSubtitles, burnAvailable, hasRealAudio bool) MuxMode {
	switch {
	case hasSubtitles && burnAvailable:
		return MuxBurnSubtitles
	case hasSubtitles:
		return MuxSoftSubtitles
	case hasRealAudio:
		return MuxAudioOnly
	default:
		return MuxVideoOnly
	}
}

// subtitleStyle is the burned-in rendering style: readable white text with a
// soft outline near the bottom of the frame.
const subtitleStyle = "FontSize=22,PrimaryColour=&HFFFFFF&" +
	",OutlineColour=&H40000000&,Outline=2,Shadow=1" +
	",MarginV=30,Alignment=2"

// muxArgs builds the ffmpeg invocation for the chosen mode.
func muxArgs(mode MuxMode, videoPath, audioPath, srtPath, outputPath string) []string {
	videoCodec := []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23"}
	audioCodec := []string{"-c:a", "aac", "-b:a", "128k"}

	switch mode {
	case MuxBurnSubtitles:
		filter := fmt.Sprintf("subtitles='%s':force_style='%s'", srtPath, subtitleStyle)
		args := []string{"-i", videoPath, "-i", audioPath, "-vf", filter}
		args = append(args, videoCodec...)
		args = append(args, audioCodec...)
		return append(args, "-map", "0:v", "-map", "1:a", "-shortest", outputPath)

	case MuxSoftSubtitles:
		args := []string{"-i", videoPath, "-i", audioPath, "-i", srtPath}
		args = append(args, videoCodec...)
		args = append(args, audioCodec...)
		return append(args,
			"-c:s", "mov_text",
			"-map", "0:v", "-map", "1:a", "-map", "2:s",
			"-shortest",
			"-metadata:s:s:0", "language=eng",
			outputPath)

	case MuxAudioOnly:
		args := []string{"-i", videoPath, "-i", audioPath}
		args = append(args, videoCodec...)
		args = append(args, audioCodec...)
		return append(args, "-map", "0:v", "-map", "1:a", "-shortest", outputPath)

	default: // MuxVideoOnly
		args := []string{"-i", videoPath}
		args = append(args, videoCodec...)
		return append(args, "-an", outputPath)
	}
}

// Mux combines the raw (audio-less) screen recording with the combined audio
// track and, when present, the subtitle track, into the final deliverable.
func (a *Assembler) Mux(
	ctx context.Context,
	videoPath, audioPath, srtPath, outputPath string,
	hasSubtitles, audioIsPlaceholder bool,
) error {
	burnAvailable := a.ffmpeg.HasSubtitlesFilter(ctx)
	mode := SelectMuxMode(hasSubtitles, burnAvailable, !audioIsPlaceholder)

	effectiveSRT := srtPath
	if mode == MuxBurnSubtitles {
		// The subtitles filter parses its argument as a filter expression;
		// a plainly named copy next to the working files sidesteps path
		// escaping entirely.
		simple := filepath.Join(filepath.Dir(audioPath), "subs.srt")
		if err := copyFile(srtPath, simple); err != nil {
			return fmt.Errorf("failed to stage subtitle file: %w", err)
		}
		effectiveSRT = simple
	}

	a.logger.Info(ctx, "muxing final video", map[string]interface{}{
		"mode":   mode.String(),
		"output": outputPath,
	})
	return a.ffmpeg.Exec(ctx, muxArgs(mode, videoPath, audioPath, effectiveSRT, outputPath)...)
}

func (m MuxMode) String() string {
	switch m {
	case MuxBurnSubtitles:
		return "burn-subtitles"
	case MuxSoftSubtitles:
		return "soft-subtitles"
	case MuxAudioOnly:
		return "audio-only"
	default:
		return "video-only"
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
