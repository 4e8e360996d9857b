// Package crawler drives a headless browser session over the application
// under test: navigation, lenient element interaction, screenshots and page
// structure extraction.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures the browser session
type Options struct {
	Width       int
	Height      int
	Headless    bool
	Bin         string        // browser binary, looked up when empty
	ProfileDir  string        // Chrome/Chromium profile directory for authenticated sessions
	NavTimeout  time.Duration // bound on a navigation and its load
	StepTimeout time.Duration // bound on waiting for an element
}

func (o *Options) defaults() {
	if o.Width == 0 {
		o.Width = 1280
	}
	if o.Height == 0 {
		o.Height = 720
	}
	if o.NavTimeout == 0 {
		o.NavTimeout = 30 * time.Second
	}
	if o.StepTimeout == 0 {
		o.StepTimeout = 2 * time.Second
	}
}

// Browser wraps the Rod browser and its single page
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     Options
}

// Launch starts a browser and opens a blank page sized to the viewport.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	opts.defaults()

	l := launcher.New().Context(ctx).Headless(opts.Headless)
	bin := opts.Bin
	if bin == "" {
		bin, _ = launcher.LookPath()
	}
	if bin != "" {
		l = l.Bin(bin)
	}
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		b := &Browser{launcher: l, browser: browser, page: page, opts: opts}
		_ = b.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	return &Browser{launcher: l, browser: browser, page: page, opts: opts}, nil
}

// Close releases the page, then the browser process.
func (b *Browser) Close() error {
	var errs []error
	if b.page != nil {
		if err := b.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if b.launcher != nil {
		b.launcher.Kill()
		if b.opts.ProfileDir == "" {
			b.launcher.Cleanup()
		}
	}
	return errors.Join(errs...)
}

// Navigate loads url and waits for the load event.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx).Timeout(b.opts.NavTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s to load: %w", url, err)
	}
	return nil
}

// Title returns the document title.
func (b *Browser) Title(ctx context.Context) (string, error) {
	return b.evalString(ctx, titleJS)
}

// BodyText returns the visible text of the document body.
func (b *Browser) BodyText(ctx context.Context) (string, error) {
	return b.evalString(ctx, bodyTextJS)
}

func (b *Browser) evalString(ctx context.Context, js string) (string, error) {
	res, err := b.page.Context(ctx).Eval(js)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// visibleElement waits up to the step timeout for selector and reports
// whether it exists and is visible. A missing element is not an error.
func (b *Browser) visibleElement(ctx context.Context, selector string) (*rod.Element, bool, error) {
	el, err := b.page.Context(ctx).Timeout(b.opts.StepTimeout).Element(selector)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, false, nil
	}
	el = el.CancelTimeout()

	visible, err := el.Visible()
	if err != nil || !visible {
		return nil, false, nil
	}
	return el, true, nil
}

// Click clicks the first element matching selector. It returns ok=false
// without error when no visible element matches, or when the element stays
// disabled or covered for the whole step timeout.
func (b *Browser) Click(ctx context.Context, selector string) (Point, bool, error) {
	el, ok, err := b.visibleElement(ctx, selector)
	if !ok || err != nil {
		return Point{}, false, err
	}
	if flag(el, disabledJS) {
		return Point{}, false, nil
	}
	pt, _ := center(el)
	ok, err = b.interact(ctx, el, func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
	if err != nil {
		return pt, ok, fmt.Errorf("click %s: %w", selector, err)
	}
	if !ok {
		return Point{}, false, nil
	}
	return pt, true, nil
}

// Fill replaces the value of the first control matching selector. It
// returns ok=false without error when no visible control matches or the
// control cannot take input within the step timeout.
func (b *Browser) Fill(ctx context.Context, selector, value string) (Point, bool, error) {
	el, ok, err := b.visibleElement(ctx, selector)
	if !ok || err != nil {
		return Point{}, false, err
	}
	if flag(el, readOnlyJS) {
		return Point{}, false, nil
	}
	pt, _ := center(el)

	isSelect := false
	if tag, err := el.Eval(tagNameJS); err == nil {
		isSelect = tag.Value.Str() == "select"
	}
	ok, err = b.interact(ctx, el, func(el *rod.Element) error {
		if isSelect {
			return el.Select([]string{value}, true, rod.SelectorTypeText)
		}
		if err := el.SelectAllText(); err != nil {
			return err
		}
		return el.Input(value)
	})
	if err != nil {
		return pt, ok, fmt.Errorf("fill %s: %w", selector, err)
	}
	if !ok {
		return Point{}, false, nil
	}
	return pt, true, nil
}

// interact runs fn on el with the step timeout as its deadline. Rod retries
// waits on a covered or disabled control until the context ends, so a
// deadline hit here means the control never became usable: ok=false, no
// error. Cancellation of ctx itself is returned.
func (b *Browser) interact(ctx context.Context, el *rod.Element, fn func(*rod.Element) error) (bool, error) {
	bounded := el.Context(ctx).Timeout(b.opts.StepTimeout)
	defer bounded.CancelTimeout()
	err := fn(bounded)
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return false, nil
	}
	return true, err
}

// flag evaluates a boolean property script on el; evaluation errors read
// as false.
func flag(el *rod.Element, js string) bool {
	res, err := el.Eval(js)
	return err == nil && res.Value.Bool()
}

// Screenshot captures the viewport as PNG.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	return b.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

// NavLinks returns up to limit distinct same-origin link URLs, navigation
// landmarks first.
func (b *Browser) NavLinks(ctx context.Context, limit int) ([]string, error) {
	res, err := b.page.Context(ctx).Eval(navLinksJS, limit)
	if err != nil {
		return nil, fmt.Errorf("collect links: %w", err)
	}
	var out []string
	for _, v := range res.Value.Arr() {
		out = append(out, v.Str())
	}
	return out, nil
}

// Crawl navigates to url and extracts the page structure.
func (b *Browser) Crawl(ctx context.Context, url string) (*PageMap, error) {
	if err := b.Navigate(ctx, url); err != nil {
		return nil, err
	}
	page := b.page.Context(ctx)

	// bounded so persistent connections (websockets, polling) cannot hang us
	page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	spa, err := page.Eval(detectSPAJS)
	if err != nil {
		return nil, fmt.Errorf("detect framework: %w", err)
	}
	if spa.Value.Bool() {
		waitForInteractiveElements(ctx, page, 5*time.Second)
	}

	title, err := b.Title(ctx)
	if err != nil {
		return nil, fmt.Errorf("read title: %w", err)
	}
	elements, err := extractElements(page)
	if err != nil {
		return nil, err
	}
	navigation, err := extractNavigation(page)
	if err != nil {
		return nil, err
	}

	return &PageMap{
		URL:        url,
		Title:      title,
		Elements:   elements,
		Navigation: navigation,
		IsSPA:      spa.Value.Bool(),
	}, nil
}

// waitForInteractiveElements polls until a visible control appears, so
// hydrating frameworks have rendered before extraction.
func waitForInteractiveElements(ctx context.Context, page *rod.Page, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) && ctx.Err() == nil {
		res, err := page.Eval(`() => Array.from(document.querySelectorAll('button, input, textarea, a[href]')).filter(el => el.offsetParent).length`)
		if err == nil && res.Value.Int() > 0 {
			time.Sleep(300 * time.Millisecond)
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func extractElements(page *rod.Page) ([]Element, error) {
	res, err := page.Eval(elementsJS)
	if err != nil {
		return nil, fmt.Errorf("extract elements: %w", err)
	}
	var elements []Element
	for _, v := range res.Value.Arr() {
		elements = append(elements, Element{
			Selector:    v.Get("selector").Str(),
			Type:        v.Get("type").Str(),
			Text:        v.Get("text").Str(),
			Placeholder: v.Get("placeholder").Str(),
			Name:        v.Get("name").Str(),
			ID:          v.Get("id").Str(),
		})
	}
	return elements, nil
}

func extractNavigation(page *rod.Page) ([]NavItem, error) {
	res, err := page.Eval(navigationJS)
	if err != nil {
		return nil, fmt.Errorf("extract navigation: %w", err)
	}
	var items []NavItem
	for _, v := range res.Value.Arr() {
		items = append(items, NavItem{
			Selector: v.Get("selector").Str(),
			Text:     v.Get("text").Str(),
			Href:     v.Get("href").Str(),
		})
	}
	return items, nil
}

// center returns the midpoint of the element's first content quad.
func center(el *rod.Element) (Point, error) {
	box, err := el.Shape()
	if err != nil {
		return Point{}, err
	}
	if len(box.Quads) == 0 {
		return Point{}, fmt.Errorf("element has no shape")
	}
	q := box.Quads[0]
	return Point{
		X: int((q[0] + q[2] + q[4] + q[6]) / 4),
		Y: int((q[1] + q[3] + q[5] + q[7]) / 4),
	}, nil
}
