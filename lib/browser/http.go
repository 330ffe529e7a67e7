package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"acreview/lib/htmlutil"
	"acreview/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// HTTP is a driver for pages that render without javascript. Typed values
// are kept in the parsed document and submitted when a button is clicked.
type HTTP struct {
	client *resty.Client

	mutex   sync.Mutex
	current *url.URL
	doc     *goquery.Document
}

func NewHTTP(opts Options) (*HTTP, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "acreview/browser/http")

	return &HTTP{client: client}, nil
}

func (h *HTTP) load(res *resty.Response) error {
	if res.IsError() {
		return fmt.Errorf("%s %s: %s", res.Request.Method, res.Request.URL, res.Status())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.doc = doc
	h.current = res.RawResponse.Request.URL
	return nil
}

func (h *HTTP) page() (*goquery.Document, *url.URL, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.doc == nil {
		return nil, nil, ErrNoPage
	}
	return h.doc, h.current, nil
}

func (h *HTTP) Navigate(ctx context.Context, target string) error {
	res, err := h.client.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return err
	}
	return h.load(res)
}

func (h *HTTP) URL(ctx context.Context) (string, error) {
	_, current, err := h.page()
	if err != nil {
		return "", err
	}
	return current.String(), nil
}

func (h *HTTP) find(selector string) (*goquery.Selection, *url.URL, error) {
	doc, current, err := h.page()
	if err != nil {
		return nil, nil, err
	}
	return doc.Find(selector), current, nil
}

func (h *HTTP) Exists(ctx context.Context, selector string) (bool, error) {
	sel, _, err := h.find(selector)
	if err != nil {
		return false, err
	}
	return sel.Length() > 0, nil
}

func (h *HTTP) Text(ctx context.Context, selector string) (string, error) {
	sel, _, err := h.find(selector)
	if err != nil {
		return "", err
	}
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return htmlutil.InnerText(sel.Nodes[0]), nil
}

func (h *HTTP) TextAll(ctx context.Context, selector string) ([]string, error) {
	sel, _, err := h.find(selector)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(sel.Nodes))
	for i, n := range sel.Nodes {
		texts[i] = htmlutil.InnerText(n)
	}
	return texts, nil
}

func (h *HTTP) AttrAll(ctx context.Context, selector, attr string) ([]string, error) {
	sel, current, err := h.find(selector)
	if err != nil {
		return nil, err
	}
	var values []string
	sel.Each(func(_ int, s *goquery.Selection) {
		v, ok := s.Attr(attr)
		if ok {
			values = append(values, v)
		}
	})
	return resolveLinks(current.String(), attr, values), nil
}

func (h *HTTP) SendKeys(ctx context.Context, selector, value string) error {
	sel, _, err := h.find(selector)
	if err != nil {
		return err
	}
	if sel.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	field := sel.First()
	if goquery.NodeName(field) == "textarea" {
		field.SetText(field.Text() + value)
		return nil
	}
	field.SetAttr("value", field.AttrOr("value", "")+value)
	return nil
}

// Click follows links and submits the form enclosing any other element.
func (h *HTTP) Click(ctx context.Context, selector string) error {
	sel, current, err := h.find(selector)
	if err != nil {
		return err
	}
	if sel.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	target := sel.First()

	if goquery.NodeName(target) == "a" {
		href := htmlutil.ResolveURL(current, target.AttrOr("href", ""))
		if href == "" {
			return fmt.Errorf("link %s has no href", selector)
		}
		return h.Navigate(ctx, href)
	}

	form := target.Closest("form")
	if form.Length() == 0 {
		return fmt.Errorf("%s is neither a link nor inside a form", selector)
	}
	values := formValues(form)
	if name, ok := target.Attr("name"); ok && name != "" {
		values.Add(name, target.AttrOr("value", ""))
	}

	action := htmlutil.ResolveURL(current, form.AttrOr("action", ""))
	if action == "" {
		action = current.String()
	}

	req := h.client.R().SetContext(ctx)
	var res *resty.Response
	if strings.EqualFold(form.AttrOr("method", "get"), "post") {
		res, err = req.SetFormDataFromValues(values).Post(action)
	} else {
		actionUrl, parseErr := url.Parse(action)
		if parseErr != nil {
			return parseErr
		}
		actionUrl.RawQuery = values.Encode()
		res, err = req.Get(actionUrl.String())
	}
	if err != nil {
		return err
	}
	return h.load(res)
}

func formValues(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input, textarea, select").Each(func(_ int, field *goquery.Selection) {
		name, ok := field.Attr("name")
		if !ok || name == "" {
			return
		}
		if _, disabled := field.Attr("disabled"); disabled {
			return
		}

		switch goquery.NodeName(field) {
		case "textarea":
			values.Add(name, field.Text())
		case "select":
			option := field.Find("option[selected]").First()
			if option.Length() == 0 {
				option = field.Find("option").First()
			}
			if option.Length() > 0 {
				values.Add(name, option.AttrOr("value", option.Text()))
			}
		default:
			switch strings.ToLower(field.AttrOr("type", "text")) {
			case "submit", "button", "image", "reset", "file":
			case "checkbox", "radio":
				if _, checked := field.Attr("checked"); checked {
					values.Add(name, field.AttrOr("value", "on"))
				}
			default:
				values.Add(name, field.AttrOr("value", ""))
			}
		}
	})
	return values
}

func (h *HTTP) HTML(ctx context.Context) (string, error) {
	doc, _, err := h.page()
	if err != nil {
		return "", err
	}
	return doc.Html()
}

func (h *HTTP) Close() error {
	h.client.GetClient().CloseIdleConnections()
	return nil
}
