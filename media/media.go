// Package media wraps the ffmpeg/ffprobe subprocess surface. Every
// invocation uses a direct argument vector, never a shell, so script-supplied
// text (narration, selectors, URLs) can never be interpreted as commands.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
)

var ErrProbeFailed = errors.New("stream probe failed")

// CommandError carries the captured diagnostic output of a failed subprocess,
// not just its exit code.
type CommandError struct {
	Name   string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	tail := e.Stderr
	if len(tail) > 800 {
		tail = tail[len(tail)-800:]
	}
	return fmt.Sprintf("%s failed: %v\n%s", e.Name, e.Err, tail)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Runner executes one external process and returns its stdout. Tests inject a
// fake; production uses execRunner.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &CommandError{
			Name:   name,
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return stdout.Bytes(), nil
}

// FFmpeg invokes the ffmpeg/ffprobe binaries for probing, trimming,
// normalization, concatenation, muxing and preview rendering. Identical
// inputs produce identical outputs; -y makes every render an overwrite.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string

	runner Runner
	logger logger.Logger
}

// New creates an FFmpeg wrapper using binaries resolved from PATH.
func New(log logger.Logger) *FFmpeg {
	return &FFmpeg{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		runner:      execRunner{},
		logger:      log,
	}
}

// NewWithRunner creates an FFmpeg wrapper with a custom runner, used by tests
// to capture argument vectors without spawning processes.
func NewWithRunner(runner Runner, log logger.Logger) *FFmpeg {
	f := New(log)
	f.runner = runner
	return f
}

// Exec runs ffmpeg with -y prepended so re-renders overwrite deterministically.
func (f *FFmpeg) Exec(ctx context.Context, args ...string) error {
	full := append([]string{"-y"}, args...)
	f.logger.Debug(ctx, "running ffmpeg", map[string]interface{}{
		"args": strings.Join(full, " "),
	})
	_, err := f.runner.Run(ctx, f.FFmpegPath, full...)
	return err
}

// ProbeDuration returns the container duration of a media file.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	out, err := f.runner.Run(ctx, f.FFprobePath,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	secs, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable duration %q", ErrProbeFailed, strings.TrimSpace(string(out)))
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// HasAudioStream reports whether the file carries at least one audio stream.
func (f *FFmpeg) HasAudioStream(ctx context.Context, path string) (bool, error) {
	out, err := f.runner.Run(ctx, f.FFprobePath,
		"-v", "quiet",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// HasSubtitlesFilter reports whether the ffmpeg build carries the libass
// subtitles filter needed for burned-in subtitles.
func (f *FFmpeg) HasSubtitlesFilter(ctx context.Context) bool {
	out, err := f.runner.Run(ctx, f.FFmpegPath, "-filters")
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "subtitles")
}

// Version returns the first line of `ffmpeg -version`, for preflight.
func (f *FFmpeg) Version(ctx context.Context) (string, error) {
	out, err := f.runner.Run(ctx, f.FFmpegPath, "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}
