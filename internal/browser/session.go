// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/api/schemas"
)

const locationPollInterval = 250 * time.Millisecond

// Session is a live browser tab configured for downloading into one directory.
// It implements schemas.Page.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *zap.Logger
	profileDir  string
	downloadDir string

	mu        sync.Mutex
	isClosed  bool
	downloads map[string]string
}

var _ schemas.Page = (*Session)(nil)

// run executes actions bound to both the tab lifetime and the caller's ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// configureDownloads allows downloads into the session directory and starts
// tracking the browser's download events.
func (s *Session) configureDownloads(ctx context.Context) error {
	chromedp.ListenTarget(s.ctx, s.onEvent)
	return s.run(ctx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(s.downloadDir).
			WithEventsEnabled(true),
	)
}

func (s *Session) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *browser.EventDownloadWillBegin:
		s.mu.Lock()
		s.downloads[e.GUID] = e.SuggestedFilename
		s.mu.Unlock()
		s.logger.Info("Browser started a download.", zap.String("file", e.SuggestedFilename), zap.String("url", e.URL))
	case *browser.EventDownloadProgress:
		if e.State == browser.DownloadProgressStateInProgress {
			return
		}
		s.mu.Lock()
		name := s.downloads[e.GUID]
		s.mu.Unlock()
		s.logger.Info("Browser download finished.",
			zap.String("file", name),
			zap.String("state", e.State.String()),
			zap.Float64("bytes", e.ReceivedBytes),
		)
	}
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// Location returns the URL of the current document.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Query returns the elements matching xpath right now.
func (s *Session) Query(ctx context.Context, xpath string) ([]schemas.Element, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(xpath, &nodes, chromedp.BySearch, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %q failed: %w", xpath, err)
	}
	return s.snapshot(ctx, nodes)
}

// WaitFor waits until xpath matches at least one element.
func (s *Session) WaitFor(ctx context.Context, xpath string, timeout time.Duration) ([]schemas.Element, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var nodes []*cdp.Node
	if err := s.run(waitCtx, chromedp.Nodes(xpath, &nodes, chromedp.BySearch)); err != nil {
		if waitCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("timed out after %s waiting for %q: %w", timeout, xpath, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("waiting for %q failed: %w", xpath, err)
	}
	return s.snapshot(ctx, nodes)
}

// WaitLocation polls the current URL until cond accepts it.
func (s *Session) WaitLocation(ctx context.Context, cond func(string) bool, timeout time.Duration) (string, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(locationPollInterval)
	defer ticker.Stop()

	var last string
	for {
		url, err := s.Location(ctx)
		if err == nil {
			last = url
			if cond(url) {
				return url, nil
			}
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-deadline.C:
			return last, fmt.Errorf("timed out after %s waiting for location change (at %s): %w", timeout, last, context.DeadlineExceeded)
		case <-ticker.C:
		}
	}
}

// Click activates the element from script, so it works on elements hidden
// behind overlays.
func (s *Session) Click(ctx context.Context, el schemas.Element) error {
	var ok bool
	return s.callOn(ctx, el, `function() { this.scrollIntoView({block: "center"}); this.click(); return true; }`, &ok)
}

// Fill sets the value through the native setter and fires input and change
// so framework bound forms pick it up.
func (s *Session) Fill(ctx context.Context, el schemas.Element, text string) error {
	var ok bool
	return s.callOn(ctx, el, `function(v) {
		this.focus();
		const proto = Object.getPrototypeOf(this);
		const desc = Object.getOwnPropertyDescriptor(proto, "value");
		if (desc && desc.set) { desc.set.call(this, v); } else { this.value = v; }
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
		return true;
	}`, &ok, text)
}

// Value returns the value property of the element.
func (s *Session) Value(ctx context.Context, el schemas.Element) (string, error) {
	var v string
	err := s.callOn(ctx, el, `function() { return this.value == null ? "" : String(this.value); }`, &v)
	return v, err
}

// Options lists the options of a select element.
func (s *Session) Options(ctx context.Context, el schemas.Element) ([]schemas.Option, error) {
	var opts []schemas.Option
	err := s.callOn(ctx, el, `function() {
		return Array.from(this.options || []).map(o => ({value: o.value, text: o.text.trim(), selected: o.selected}));
	}`, &opts)
	return opts, err
}

// Select picks the option carrying value.
func (s *Session) Select(ctx context.Context, el schemas.Element, value string) error {
	var ok bool
	err := s.callOn(ctx, el, `function(v) {
		const opt = Array.from(this.options || []).find(o => o.value === v);
		if (!opt) { return false; }
		this.value = v;
		this.dispatchEvent(new Event("input", {bubbles: true}));
		this.dispatchEvent(new Event("change", {bubbles: true}));
		return true;
	}`, &ok, value)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("select has no option with value %q", value)
	}
	return nil
}

// callOn runs fn with this bound to the element's DOM node.
func (s *Session) callOn(ctx context.Context, el schemas.Element, fn string, res interface{}, args ...interface{}) error {
	node, ok := el.Handle.(*cdp.Node)
	if !ok || node == nil {
		return errors.New("element was not produced by this browser session")
	}
	return s.run(ctx, callOnNode(node.NodeID, fn, res, args...))
}

func callOnNode(id cdp.NodeID, fn string, res interface{}, args ...interface{}) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve node %d: %w", id, err)
		}
		return chromedp.CallFunctionOn(fn, res,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
			args...,
		).Do(ctx)
	})
}

// snapshot converts nodes into Elements, reading their rendered text.
func (s *Session) snapshot(ctx context.Context, nodes []*cdp.Node) ([]schemas.Element, error) {
	elements := make([]schemas.Element, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeType != cdp.NodeTypeElement {
			continue
		}
		el := schemas.Element{
			Handle: n,
			Tag:    strings.ToLower(n.LocalName),
			Attrs:  make(map[string]string, len(n.Attributes)/2),
		}
		for i := 0; i+1 < len(n.Attributes); i += 2 {
			el.Attrs[n.Attributes[i]] = n.Attributes[i+1]
		}
		var text string
		if err := s.run(ctx, callOnNode(n.NodeID, `function() { return (this.innerText || this.textContent || "").trim(); }`, &text)); err != nil {
			return nil, fmt.Errorf("failed to read element text: %w", err)
		}
		el.Text = text
		elements = append(elements, el)
	}
	return elements, nil
}

// Close shuts the browser down and removes the temporary profile. Safe to
// call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	s.mu.Unlock()

	s.logger.Debug("Closing browser session.")

	// Give Chrome a chance to exit cleanly before the allocator kills it.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := chromedp.Cancel(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("Browser did not close cleanly.", zap.Error(err))
		}
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
	if s.cancel != nil {
		s.cancel()
	}

	if s.profileDir != "" {
		if err := os.RemoveAll(s.profileDir); err != nil {
			return fmt.Errorf("failed to remove browser profile %s: %w", s.profileDir, err)
		}
	}
	return nil
}
