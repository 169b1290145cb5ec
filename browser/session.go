// Package browser drives a headless Chrome session through scripted steps
// while continuously recording the screen and capturing per-step wall-clock
// timings for downstream assembly.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/hairizuan-noorazman/demo-recorder/logger"
	"github.com/hairizuan-noorazman/demo-recorder/script"
)

var ErrSessionClosed = errors.New("browser session already closed")

// SessionOptions configure a recording session.
type SessionOptions struct {
	Viewport script.Viewport
	BaseURL  string
	// StorageStatePath optionally seeds the session with saved cookies and
	// localStorage (from `demorec save-auth`).
	StorageStatePath string
	Headless         bool
}

// Session owns one browser for the duration of a run. It is closed, which
// finalizes the session video, before the assembler may read the recording;
// that ordering is a hard precondition of the pipeline, not a race to guard.
type Session struct {
	ctx         context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc

	viewport script.Viewport
	baseURL  string
	logger   logger.Logger
	closed   bool

	// actionTimeout bounds every selector-addressed action; chromedp queries
	// otherwise wait forever for a node that may never match.
	actionTimeout time.Duration
	run           func(context.Context, ...chromedp.Action) error
}

// NewSession launches a browser sized to the script viewport.
func NewSession(ctx context.Context, opts SessionOptions, log logger.Logger) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("hide-scrollbars", false),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, ctxCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:           browserCtx,
		allocCancel:   allocCancel,
		ctxCancel:     ctxCancel,
		viewport:      opts.Viewport,
		baseURL:       opts.BaseURL,
		logger:        log,
		actionTimeout: visibleWaitTimeout,
		run:           chromedp.Run,
	}

	// Starting an empty task forces the browser to launch now, so a missing
	// Chrome binary surfaces before any narration work is wasted.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	if opts.StorageStatePath != "" {
		if err := s.loadStorageState(opts.StorageStatePath); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to load storage state: %w", err)
		}
	}

	return s, nil
}

// Context exposes the chromedp context for step execution and recording.
func (s *Session) Context() context.Context { return s.ctx }

// Close tears the browser down. Safe to call twice.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.ctxCancel()
	s.allocCancel()
}

// StorageState is the saved-auth snapshot format: cookies plus per-origin
// localStorage entries.
type StorageState struct {
	Cookies []StateCookie `json:"cookies"`
	Origins []StateOrigin `json:"origins"`
}

type StateCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}

type StateOrigin struct {
	Origin       string       `json:"origin"`
	LocalStorage []StateEntry `json:"localStorage"`
}

type StateEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (s *Session) loadStorageState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var state StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("malformed storage state: %w", err)
	}

	if len(state.Cookies) > 0 {
		params := make([]*network.CookieParam, 0, len(state.Cookies))
		for _, c := range state.Cookies {
			params = append(params, &network.CookieParam{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		if err := chromedp.Run(s.ctx, network.SetCookies(params)); err != nil {
			return fmt.Errorf("failed to restore cookies: %w", err)
		}
	}

	// localStorage is origin-scoped: visit each origin and replay entries.
	for _, origin := range state.Origins {
		if len(origin.LocalStorage) == 0 {
			continue
		}
		entries, _ := json.Marshal(origin.LocalStorage)
		js := fmt.Sprintf(`for (const e of %s) { localStorage.setItem(e.name, e.value); }`, entries)
		if err := chromedp.Run(s.ctx,
			chromedp.Navigate(origin.Origin),
			chromedp.Evaluate(js, nil),
		); err != nil {
			return fmt.Errorf("failed to restore localStorage for %s: %w", origin.Origin, err)
		}
	}

	s.logger.Info(s.ctx, "storage state restored", map[string]interface{}{
		"cookies": len(state.Cookies),
		"origins": len(state.Origins),
	})
	return nil
}

// ExportStorageState captures the session's current cookies and the active
// page's localStorage into the save-auth JSON format.
func (s *Session) ExportStorageState(outPath string) error {
	if s.closed {
		return ErrSessionClosed
	}

	var state StorageState

	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			state.Cookies = append(state.Cookies, StateCookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
			})
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("failed to export cookies: %w", err)
	}

	var origin string
	var entries []StateEntry
	err = chromedp.Run(s.ctx,
		chromedp.Evaluate("window.location.origin", &origin),
		chromedp.Evaluate(`Object.entries(localStorage).map(([name, value]) => ({name, value}))`, &entries),
	)
	if err == nil && origin != "" && len(entries) > 0 {
		state.Origins = append(state.Origins, StateOrigin{Origin: origin, LocalStorage: entries})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0600)
}

