// Package preflight verifies the external dependencies a recording run
// needs: ffmpeg and ffprobe on PATH, a headless-capable Chrome build, and a
// reachable speech endpoint.
package preflight

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/media"
	"github.com/hairizuan-noorazman/demo-recorder/narration"
)

// Check is the outcome of one dependency probe.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// chromeCandidates mirrors the binaries the browser allocator searches for.
var chromeCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// chromeAppPaths covers installs that never land on PATH.
var chromeAppPaths = []string{
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

const speechProbeTimeout = 10 * time.Second

// Checker runs the dependency probes.
type Checker struct {
	ffmpeg *media.FFmpeg
	logger logger.Logger
}

// New creates a Checker.
func New(ffmpeg *media.FFmpeg, log logger.Logger) *Checker {
	return &Checker{ffmpeg: ffmpeg, logger: log}
}

// Run executes every check and reports whether all passed.
func (c *Checker) Run(ctx context.Context) ([]Check, bool) {
	checks := []Check{
		c.checkFFmpeg(ctx),
		c.checkFFprobe(),
		c.checkChrome(),
		c.checkSpeech(ctx),
	}

	allOK := true
	for _, chk := range checks {
		if !chk.OK {
			allOK = false
			c.logger.Warn(ctx, "preflight check failed", map[string]interface{}{
				"check":  chk.Name,
				"detail": chk.Detail,
			})
		}
	}
	return checks, allOK
}

func (c *Checker) checkFFmpeg(ctx context.Context) Check {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return Check{Name: "ffmpeg", Detail: "not found on PATH"}
	}
	version, err := c.ffmpeg.Version(ctx)
	if err != nil {
		return Check{Name: "ffmpeg", Detail: "found but not runnable: " + err.Error()}
	}
	return Check{Name: "ffmpeg", OK: true, Detail: firstLine(version)}
}

func (c *Checker) checkFFprobe() Check {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return Check{Name: "ffprobe", Detail: "not found on PATH"}
	}
	return Check{Name: "ffprobe", OK: true, Detail: path}
}

func (c *Checker) checkChrome() Check {
	if path, ok := findChrome(exec.LookPath, os.Stat); ok {
		return Check{Name: "chrome", OK: true, Detail: path}
	}
	return Check{Name: "chrome", Detail: "no Chrome or Chromium binary found"}
}

func (c *Checker) checkSpeech(ctx context.Context) Check {
	probeCtx, cancel := context.WithTimeout(ctx, speechProbeTimeout)
	defer cancel()

	if err := narration.ProbeEndpoint(probeCtx); err != nil {
		return Check{Name: "speech endpoint", Detail: err.Error()}
	}
	return Check{Name: "speech endpoint", OK: true, Detail: "reachable"}
}

// findChrome walks the candidate binaries then the known application paths.
// The lookup functions are injected so tests can fake the host.
func findChrome(lookPath func(string) (string, error), stat func(string) (os.FileInfo, error)) (string, bool) {
	for _, name := range chromeCandidates {
		if path, err := lookPath(name); err == nil {
			return path, true
		}
	}
	for _, path := range chromeAppPaths {
		if _, err := stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
