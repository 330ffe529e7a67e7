package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"acreview/lib/htmlutil"

	"github.com/chromedp/chromedp"
)

type Chrome struct {
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if len(opts.WindowSize) == 2 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowSize[0], opts.WindowSize[1]))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	for _, arg := range opts.AdditionalArgs {
		name, value, ok := parseFlag(arg)
		if !ok {
			continue
		}
		allocOpts = append(allocOpts, chromedp.Flag(name, value))
	}
	return allocOpts
}

// NewChrome launches a browser and opens a single tab.
func NewChrome(ctx context.Context, opts Options) (*Chrome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(
		allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			slog.Debug(fmt.Sprintf(format, args...), "source", "chromedp")
		}),
	)
	c := &Chrome{
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		cancelAlloc:   cancelAlloc,
	}

	// the first Run allocates the browser, it must not carry a deadline or
	// the whole browser goes away with it.
	err := chromedp.Run(browserCtx)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	slog.Debug("chrome started", "headless", opts.Headless, "exec", opts.ExecPath)
	return c, nil
}

// run executes actions on the tab, bounded by the deadline and cancellation
// of ctx. Cancelling a child of the tab context aborts the actions without
// closing the tab.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.browserCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func jsString(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}

func (c *Chrome) Navigate(ctx context.Context, target string) error {
	return c.run(ctx, chromedp.Navigate(target))
}

func (c *Chrome) URL(ctx context.Context) (string, error) {
	var location string
	err := c.run(ctx, chromedp.Location(&location))
	return location, err
}

func (c *Chrome) Exists(ctx context.Context, selector string) (bool, error) {
	var exists bool
	err := c.run(ctx, chromedp.Evaluate(
		fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector)),
		&exists,
	))
	return exists, err
}

func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`(() => { const e = document.querySelector(%s); return e === null ? {found: false, text: ""} : {found: true, text: e.innerText}; })()`,
		jsString(selector),
	), &res))
	if err != nil {
		return "", err
	}
	if !res.Found {
		return "", fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return res.Text, nil
}

func (c *Chrome) TextAll(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	err := c.run(ctx, chromedp.Evaluate(fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s), e => e.innerText)`,
		jsString(selector),
	), &texts))
	return texts, err
}

func (c *Chrome) AttrAll(ctx context.Context, selector, attr string) ([]string, error) {
	var values []string
	var location string
	err := c.run(
		ctx,
		chromedp.Evaluate(fmt.Sprintf(
			`Array.from(document.querySelectorAll(%s), e => e.getAttribute(%s)).filter(v => v !== null)`,
			jsString(selector), jsString(attr),
		), &values),
		chromedp.Location(&location),
	)
	if err != nil {
		return nil, err
	}
	return resolveLinks(location, attr, values), nil
}

func (c *Chrome) SendKeys(ctx context.Context, selector, value string) error {
	return c.run(ctx, chromedp.SendKeys(selector, value, chromedp.ByQuery))
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Close() error {
	c.cancelBrowser()
	c.cancelAlloc()
	return nil
}

var linkAttrs = map[string]bool{"href": true, "src": true, "action": true}

func resolveLinks(location, attr string, values []string) []string {
	if !linkAttrs[attr] {
		return values
	}
	base, err := url.Parse(location)
	if err != nil {
		base = nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		resolved := htmlutil.ResolveURL(base, v)
		if resolved != "" {
			out = append(out, resolved)
		}
	}
	return out
}
