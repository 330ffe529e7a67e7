// Package browser drives the portal pages. Chrome is a real browser through
// the devtools protocol, HTTP fetches static markup and emulates forms.
//
// All selectors are CSS selectors.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("element not found")
	ErrNoPage   = errors.New("no page loaded")
)

type Driver interface {
	Navigate(ctx context.Context, url string) error
	// URL is the address of the current page after redirects.
	URL(ctx context.Context) (string, error)
	Exists(ctx context.Context, selector string) (bool, error)
	// Text is the rendered text of the first match, ErrNotFound if none.
	Text(ctx context.Context, selector string) (string, error)
	TextAll(ctx context.Context, selector string) ([]string, error)
	// AttrAll returns attr of every match that has it, links are absolute.
	AttrAll(ctx context.Context, selector, attr string) ([]string, error)
	SendKeys(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

const (
	DriverChrome = "chrome"
	DriverHTTP   = "http"
)

type Options struct {
	Driver         string
	ExecPath       string
	WindowSize     []int
	AdditionalArgs []string
	Headless       bool
	UserAgent      string

	// CloudflareBypass mimics a browser TLS fingerprint, HTTP driver only.
	CloudflareBypass bool
}

func New(ctx context.Context, opts Options) (Driver, error) {
	switch strings.ToLower(opts.Driver) {
	case "", DriverChrome:
		return NewChrome(ctx, opts)
	case DriverHTTP:
		return NewHTTP(opts)
	default:
		return nil, fmt.Errorf("unknown browser driver '%s'", opts.Driver)
	}
}

// parseFlag turns "--name=value" or "--name" into a chrome flag.
func parseFlag(arg string) (string, any, bool) {
	arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
	if arg == "" {
		return "", nil, false
	}
	name, value, hasValue := strings.Cut(arg, "=")
	if !hasValue {
		return name, true, true
	}
	return name, value, true
}
