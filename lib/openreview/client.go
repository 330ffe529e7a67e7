package openreview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"acreview/lib/browser"
	"acreview/lib/conference"
	"acreview/lib/extract"
	"acreview/lib/pagearchive"
	"acreview/lib/submission"
	"acreview/lib/telemetry"
	"acreview/lib/timeout"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("acreview.lib.openreview")

var (
	ErrLoginFailed    = errors.New("failed to login, the login form is still shown")
	ErrNoSubmissionID = errors.New("could not find the submission number")
)

// Progress is notified as submissions are loaded.
type Progress interface {
	Start(total int)
	Increment()
	Done()
}

type Options struct {
	// SkipReviews only loads titles and ids, for when no reviews are in yet.
	SkipReviews bool
	// Timeout bounds each wait on the portal, defaults to timeout.DefaultDuration.
	Timeout      time.Duration
	PollInterval time.Duration
	Archive      *pagearchive.Archive
	Progress     Progress
}

// Client scrapes one conference's area chair console.
type Client struct {
	driver browser.Driver
	conf   conference.Conference
	opts   Options

	PaperURLs []string
}

func NewClient(driver browser.Driver, conf conference.Conference, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = timeout.DefaultDuration
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = timeout.DefaultPollInterval
	}
	conf.Selectors = conf.Selectors.WithDefaults()
	return &Client{driver: driver, conf: conf, opts: opts}
}

func (c *Client) savePage(ctx context.Context, name string) {
	if c.opts.Archive == nil {
		return
	}
	html, err := c.driver.HTML(ctx)
	if err != nil {
		slog.Warn("failed to read page for saving", "name", name, "err", err)
		return
	}
	c.opts.Archive.Save(name, html)
}

// waitFor polls until selector matches or the client timeout passes.
func (c *Client) waitFor(ctx context.Context, selector string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	_, err := timeout.Poll(ctx, c.opts.PollInterval, func(ctx context.Context) (struct{}, bool, error) {
		exists, err := c.driver.Exists(ctx, selector)
		if err != nil {
			return struct{}{}, false, fmt.Errorf("%w: %s", timeout.ErrNotReady, err)
		}
		return struct{}{}, exists, nil
	})
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", selector, err)
	}
	return nil
}

// Login opens the console, signs in and collects the links to every
// assigned paper into PaperURLs.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()
	span.SetAttributes(attribute.String("conference", c.conf.Name))

	sel := c.conf.Selectors
	slog.Info("opening console", "url", c.conf.URL)
	err := c.driver.Navigate(ctx, c.conf.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open console")
		return err
	}

	slog.Info("waiting for login page to load")
	err = c.waitFor(ctx, sel.EmailInput)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login page never loaded")
		return err
	}
	err = c.driver.SendKeys(ctx, sel.EmailInput, creds.Username)
	if err != nil {
		return err
	}
	err = c.driver.SendKeys(ctx, sel.PasswordInput, creds.Password)
	if err != nil {
		return err
	}
	err = c.driver.Click(ctx, sel.LoginButton)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return err
	}
	slog.Info("logging in, waiting for page to finish loading")

	urls, err := timeout.Run(ctx, "load landing page", c.opts.Timeout, c.loadLandingPage, []string{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load landing page")
		return err
	}

	if len(urls) == 0 {
		stillLogin, existsErr := c.driver.Exists(ctx, sel.EmailInput)
		if existsErr == nil && stillLogin {
			span.SetStatus(codes.Error, ErrLoginFailed.Error())
			return ErrLoginFailed
		}
		slog.Warn("no submissions found on the console", "selector", sel.PaperLinks)
	}

	c.PaperURLs = urls
	slog.Info("logged in", "submissions", len(urls))
	span.SetAttributes(attribute.Int("submissions", len(urls)))
	c.savePage(ctx, "landing_page.html")
	return nil
}

func (c *Client) loadLandingPage(ctx context.Context) ([]string, error) {
	return timeout.Poll(ctx, c.opts.PollInterval, func(ctx context.Context) ([]string, bool, error) {
		links, err := c.driver.AttrAll(ctx, c.conf.Selectors.PaperLinks, "href")
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s", timeout.ErrNotReady, err)
		}
		urls := normalizePaperURLs(links)
		return urls, len(urls) > 0, nil
	})
}

func (c *Client) waitText(ctx context.Context, selector string) (string, error) {
	err := c.waitFor(ctx, selector)
	if err != nil {
		return "", err
	}
	return c.driver.Text(ctx, selector)
}

// parseID returns the text following marker up to the end of its line.
func parseID(content, marker string) (string, error) {
	idx := strings.Index(content, marker)
	if idx < 0 {
		return "", fmt.Errorf("%w: no '%s' in note", ErrNoSubmissionID, marker)
	}
	rest := strings.TrimSpace(content[idx+len(marker):])
	line, _, _ := strings.Cut(rest, "\n")
	id := strings.TrimSpace(line)
	if id == "" {
		return "", fmt.Errorf("%w: '%s' is empty", ErrNoSubmissionID, marker)
	}
	return id, nil
}

// LoadSubmission opens a paper's forum page and scrapes it.
func (c *Client) LoadSubmission(ctx context.Context, url string) (submission.Submission, error) {
	ctx, span := tracer.Start(ctx, "client:LoadSubmission")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	sel := c.conf.Selectors
	err := c.driver.Navigate(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open submission")
		return submission.Submission{}, err
	}

	title, err := c.waitText(ctx, sel.Title)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find title")
		return submission.Submission{}, err
	}
	title = strings.TrimSpace(title)
	content, err := c.waitText(ctx, sel.NoteContent)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find note content")
		return submission.Submission{}, err
	}
	id, err := parseID(content, sel.IDMarker)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to find submission id")
		return submission.Submission{}, err
	}
	slog.Info("loaded submission", "id", id, "title", title)
	span.SetAttributes(attribute.String("id", id))

	c.savePage(ctx, fmt.Sprintf("%s_%s.html", pagearchive.SafeName(id, 20), pagearchive.SafeName(title, 50)))

	sub := submission.Submission{Title: title, ID: id}
	if c.opts.SkipReviews {
		return sub, nil
	}

	reviews, err := timeout.Run(ctx, "parse ratings", c.opts.Timeout, c.parseRatings, ratingLists{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse ratings")
		return submission.Submission{}, err
	}
	sub.Ratings = reviews.ratings
	sub.Confidences = reviews.confidences
	sub.FinalRatings = reviews.finalRatings
	return sub, nil
}

type ratingLists struct {
	ratings      []int
	confidences  []int
	finalRatings []int
}

// extractRatings applies each rule to every reply on its own, so a reply
// may contribute to any subset of the lists in any order.
func extractRatings(replies []string, conf conference.Conference) ratingLists {
	var out ratingLists
	for _, reply := range replies {
		fields := []struct {
			rule extract.Rule
			list *[]int
		}{
			{rule: conf.Rating, list: &out.ratings},
			{rule: conf.Confidence, list: &out.confidences},
			{rule: conf.FinalRating, list: &out.finalRatings},
		}
		for _, f := range fields {
			value, ok := extract.Value(reply, f.rule)
			if ok {
				*f.list = append(*f.list, value)
			}
		}
	}
	return out
}

// parseRatings waits for the discussion to render, then extracts every
// field. A rendered discussion without replies yields empty lists.
func (c *Client) parseRatings(ctx context.Context) (ratingLists, error) {
	sel := c.conf.Selectors
	_, err := timeout.Poll(ctx, c.opts.PollInterval, func(ctx context.Context) (struct{}, bool, error) {
		exists, err := c.driver.Exists(ctx, sel.RepliesContainer)
		if err != nil {
			return struct{}{}, false, fmt.Errorf("%w: %s", timeout.ErrNotReady, err)
		}
		return struct{}{}, exists, nil
	})
	if err != nil {
		return ratingLists{}, err
	}
	replies, err := c.driver.TextAll(ctx, sel.Replies)
	if err != nil {
		return ratingLists{}, err
	}
	reviewsParsed.Add(ctx, int64(len(replies)))
	return extractRatings(replies, c.conf), nil
}

var meter = otel.Meter("acreview.lib.openreview")
var submissionsLoaded, _ = meter.Int64Counter("submissions_loaded")
var submissionsFailed, _ = meter.Int64Counter("submissions_failed")
var reviewsParsed, _ = meter.Int64Counter("replies_parsed")

// LoadAll loads every paper found at login, one after the other. A paper
// that fails to load is logged and left out.
func (c *Client) LoadAll(ctx context.Context) ([]submission.Submission, error) {
	ctx, span := tracer.Start(ctx, "client:LoadAll")
	defer span.End()

	if c.opts.Progress != nil {
		c.opts.Progress.Start(len(c.PaperURLs))
		defer c.opts.Progress.Done()
	}

	attrs := metric.WithAttributes(attribute.String("conference", c.conf.Name))
	subs := make([]submission.Submission, 0, len(c.PaperURLs))
	for idx, url := range c.PaperURLs {
		sub, err := c.LoadSubmission(ctx, url)
		if ctx.Err() != nil {
			span.SetStatus(codes.Error, "cancelled")
			return subs, ctx.Err()
		}
		if c.opts.Progress != nil {
			c.opts.Progress.Increment()
		}
		if err != nil {
			submissionsFailed.Add(ctx, 1, attrs)
			slog.Warn("skipping submission", "n", idx+1, "url", url, "err", err)
			continue
		}
		submissionsLoaded.Add(ctx, 1, attrs)
		slog.Debug(sub.Info(), "n", idx+1)
		subs = append(subs, sub)
	}
	return subs, nil
}
