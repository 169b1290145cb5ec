package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/hairizuan-noorazman/demo-recorder/script"
)

var ErrActionFailed = errors.New("browser action failed")

const (
	clickLoadTimeout   = 10 * time.Second
	visibleWaitTimeout = 15 * time.Second
	defaultScrollPx    = 300
)

// namedKeys maps script key names to the DOM key strings chromedp's keyboard
// layer understands.
var namedKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Home":       kb.Home,
	"End":        kb.End,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
}

// ResolveURL resolves a step's target against the script's base URL. Absolute
// http/https/file URLs pass through untouched.
func ResolveURL(baseURL, target string) string {
	if strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "file://") {
		return target
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(target, "/")
}

// KeyForPress translates a script key name to the string sent to the page.
// Unknown names are sent literally, which covers single printable characters.
func KeyForPress(name string) string {
	if k, ok := namedKeys[name]; ok {
		return k
	}
	return name
}

// runBounded executes selector-addressed actions under the session's action
// deadline, so a selector that never matches fails the step instead of
// hanging the run.
func (s *Session) runBounded(ctx context.Context, actions ...chromedp.Action) error {
	bctx, cancel := context.WithTimeout(ctx, s.actionTimeout)
	defer cancel()
	return s.run(bctx, actions...)
}

// ExecuteStep performs one scripted interaction and waits for it to settle.
// A failure to locate or act on the target is fatal: a missing element means
// the recorded demo would be wrong.
func (s *Session) ExecuteStep(ctx context.Context, step *script.Step) error {
	var err error

	switch step.Action {
	case script.ActionNavigate:
		url := ResolveURL(s.baseURL, step.URL)
		err = chromedp.Run(ctx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)

	case script.ActionClick:
		err = s.runBounded(ctx, chromedp.Click(step.Selector))
		if err == nil {
			// Best-effort wait for any navigation the click triggered.
			// Not every click navigates, so a timeout here is not fatal.
			s.waitForLoad(ctx, clickLoadTimeout)
		}

	case script.ActionType:
		err = s.typeValue(ctx, step)

	case script.ActionPress:
		err = chromedp.Run(ctx, chromedp.KeyEvent(KeyForPress(step.Key)))

	case script.ActionScroll:
		err = s.scroll(ctx, step)

	case script.ActionHover:
		err = s.hover(ctx, step.Selector)

	case script.ActionSelect:
		err = s.selectOption(ctx, step)

	case script.ActionWait:
		err = chromedp.Run(ctx, chromedp.Sleep(time.Duration(step.Duration)*time.Millisecond))

	case script.ActionEvaluate:
		err = chromedp.Run(ctx, chromedp.Evaluate(step.Expression, nil))

	case script.ActionScreenshot:
		// The continuous recording already captures this frame; the step
		// exists only as a narrative marker.

	default:
		err = fmt.Errorf("unhandled action kind %q", step.Action)
	}

	if err != nil {
		return fmt.Errorf("%w: step %s (%s): %v", ErrActionFailed, step.ID, step.Action, err)
	}
	return nil
}

// typeValue waits for the field, clears it, then types character by
// character with the step's per-character delay so the recording looks human.
func (s *Session) typeValue(ctx context.Context, step *script.Step) error {
	if err := s.runBounded(ctx, chromedp.WaitVisible(step.Selector)); err != nil {
		return fmt.Errorf("field %s never became visible: %w", step.Selector, err)
	}

	if err := s.runBounded(ctx, chromedp.Clear(step.Selector)); err != nil {
		return err
	}

	delay := time.Duration(step.TypeDelay) * time.Millisecond
	for _, r := range step.Value {
		if err := s.runBounded(ctx, chromedp.SendKeys(step.Selector, string(r))); err != nil {
			return err
		}
		if delay > 0 {
			if err := chromedp.Run(ctx, chromedp.Sleep(delay)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) scroll(ctx context.Context, step *script.Step) error {
	if step.Selector != "" {
		return s.runBounded(ctx, chromedp.ScrollIntoView(step.Selector))
	}

	amount := step.Amount
	if amount <= 0 {
		amount = defaultScrollPx
	}
	delta := float64(amount)
	if step.Direction == "up" {
		delta = -delta
	}

	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		w := float64(s.viewport.Width) / 2
		h := float64(s.viewport.Height) / 2
		return input.DispatchMouseEvent(input.MouseWheel, w, h).
			WithDeltaX(0).
			WithDeltaY(delta).
			Do(ctx)
	}))
}

// hover moves the mouse to the element's centroid so :hover styles and
// mouseover handlers fire exactly as they would for a real pointer.
func (s *Session) hover(ctx context.Context, selector string) error {
	return s.runBounded(ctx,
		chromedp.WaitVisible(selector),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var nodes []*cdp.Node
			if err := chromedp.Nodes(selector, &nodes, chromedp.ByQuery).Do(ctx); err != nil {
				return err
			}
			if len(nodes) == 0 {
				return fmt.Errorf("no node matches %s", selector)
			}

			quads, err := dom.GetContentQuads().WithNodeID(nodes[0].NodeID).Do(ctx)
			if err != nil || len(quads) == 0 || len(quads[0]) < 8 {
				return fmt.Errorf("could not resolve box for %s: %v", selector, err)
			}

			q := quads[0]
			cx := (q[0] + q[2] + q[4] + q[6]) / 4
			cy := (q[1] + q[3] + q[5] + q[7]) / 4
			return input.DispatchMouseEvent(input.MouseMoved, cx, cy).Do(ctx)
		}),
	)
}

// selectOption sets a <select>'s value and fires the input/change events the
// page would see from a real selection.
func (s *Session) selectOption(ctx context.Context, step *script.Step) error {
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.value = %q;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, step.Selector, step.Value)

	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element matches %s", step.Selector)
	}
	return nil
}

// waitForLoad polls document.readyState until "complete" or the timeout
// passes. Errors are swallowed: this is a settle aid, not a correctness gate.
func (s *Session) waitForLoad(ctx context.Context, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		var state string
		if err := chromedp.Run(ctx, chromedp.Evaluate("document.readyState", &state)); err != nil {
			return
		}
		if state == "complete" {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}
