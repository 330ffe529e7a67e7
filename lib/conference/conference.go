// Package conference loads the per-conference scraping configuration: the
// console url, the extraction rules for each review field, the DOM selectors
// and the browser settings.
package conference

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"acreview/lib/configutil"
	"acreview/lib/extract"

	"github.com/antzucaro/matchr"
)

const DefaultPath = "./conf.yaml"

var ErrUnknownConference = errors.New("unknown conference")

// Selectors are the CSS selectors used to find things on the portal.
// Empty fields fall back to the OpenReview markup.
type Selectors struct {
	EmailInput    string `json:"email_input" yaml:"email_input"`
	PasswordInput string `json:"password_input" yaml:"password_input"`
	LoginButton   string `json:"login_button" yaml:"login_button"`
	PaperLinks    string `json:"paper_links" yaml:"paper_links"`
	Title         string `json:"title" yaml:"title"`
	NoteContent   string `json:"note_content" yaml:"note_content"`

	// RepliesContainer is present once the discussion has rendered, even
	// when it holds no replies yet.
	RepliesContainer string `json:"replies_container" yaml:"replies_container"`
	Replies          string `json:"replies" yaml:"replies"`
	IDMarker         string `json:"id_marker" yaml:"id_marker"`
}

var defaultSelectors = Selectors{
	EmailInput:    "#email-input",
	PasswordInput: "#password-input",
	LoginButton:   ".btn-login",
	PaperLinks:    "div.note h4 a",
	Title:         ".citation_title",
	NoteContent:   "div.forum-note > div.note-content",

	RepliesContainer: "#forum-replies",
	Replies:          "#forum-replies .depth-odd",
	IDMarker:         "Number:",
}

// WithDefaults fills every empty selector with its default.
func (s Selectors) WithDefaults() Selectors {
	fill := func(v *string, fallback string) {
		if *v == "" {
			*v = fallback
		}
	}
	fill(&s.EmailInput, defaultSelectors.EmailInput)
	fill(&s.PasswordInput, defaultSelectors.PasswordInput)
	fill(&s.LoginButton, defaultSelectors.LoginButton)
	fill(&s.PaperLinks, defaultSelectors.PaperLinks)
	fill(&s.Title, defaultSelectors.Title)
	fill(&s.NoteContent, defaultSelectors.NoteContent)
	fill(&s.RepliesContainer, defaultSelectors.RepliesContainer)
	fill(&s.Replies, defaultSelectors.Replies)
	fill(&s.IDMarker, defaultSelectors.IDMarker)
	return s
}

type Conference struct {
	Name        string       `json:"-" yaml:"-"`
	URL         string       `json:"url" yaml:"url"`
	Rating      extract.Rule `json:"rating" yaml:"rating"`
	Confidence  extract.Rule `json:"confidence" yaml:"confidence"`
	FinalRating extract.Rule `json:"final_rating" yaml:"final_rating"`
	Selectors   Selectors    `json:"selectors" yaml:"selectors"`
}

type Browser struct {
	// Driver is either "chrome" (default) or "http".
	Driver string `json:"driver" yaml:"driver"`
	Binary string `json:"binary" yaml:"binary"`
	// FirefoxBinary is accepted for configs written for the old selenium scraper.
	FirefoxBinary  string   `json:"firefox_binary" yaml:"firefox_binary"`
	WindowSize     []int    `json:"window_size" yaml:"window_size"`
	AdditionalArgs []string `json:"additional_args" yaml:"additional_args"`
	Headless       *bool    `json:"headless" yaml:"headless"`

	CloudflareBypass bool `json:"cloudflare_bypass" yaml:"cloudflare_bypass"`
}

// ExecPath is the browser binary to launch, empty means search $PATH.
func (b Browser) ExecPath() string {
	if b.Binary != "" {
		return b.Binary
	}
	return b.FirefoxBinary
}

type File struct {
	Conferences map[string]Conference `json:"conferences" yaml:"conferences"`
	Browser     *Browser              `json:"browser" yaml:"browser"`
}

type Loader struct {
	path        string
	conferences map[string]Conference
	browser     Browser
}

// Load reads the configuration at path (and its .local override). A missing
// file yields an error wrapping os.ErrNotExist.
func Load(path string) (*Loader, error) {
	file, err := configutil.ReadConfig[File](path)
	if err != nil {
		return nil, fmt.Errorf("configuration file %s: %w", path, err)
	}
	return fromFile(path, file)
}

func fromFile(path string, file File) (*Loader, error) {
	l := &Loader{
		path:        path,
		conferences: make(map[string]Conference, len(file.Conferences)),
	}
	for name, conf := range file.Conferences {
		if conf.URL == "" {
			return nil, fmt.Errorf("conference '%s' has no url", name)
		}
		for field, rule := range map[string]extract.Rule{
			"rating":       conf.Rating,
			"confidence":   conf.Confidence,
			"final_rating": conf.FinalRating,
		} {
			if err := rule.Validate(); err != nil {
				return nil, fmt.Errorf("conference '%s' %s: %w", name, field, err)
			}
		}
		conf.Name = name
		conf.Selectors = conf.Selectors.WithDefaults()
		l.conferences[name] = conf
	}
	if file.Browser != nil {
		l.browser = *file.Browser
	}
	if len(l.browser.WindowSize) != 0 && len(l.browser.WindowSize) != 2 {
		return nil, fmt.Errorf("browser window_size must be [width, height], got %v", l.browser.WindowSize)
	}
	return l, nil
}

func (l *Loader) Path() string {
	return l.path
}

func (l *Loader) Browser() Browser {
	return l.browser
}

// List returns the configured conference names in sorted order.
func (l *Loader) List() []string {
	names := make([]string, 0, len(l.conferences))
	for name := range l.conferences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (l *Loader) Get(name string) (Conference, error) {
	conf, ok := l.conferences[name]
	if ok {
		return conf, nil
	}

	available := l.List()
	msg := fmt.Sprintf("'%s', available: [%s]", name, strings.Join(available, ", "))
	if suggestion := l.closest(name); suggestion != "" {
		msg += fmt.Sprintf(", did you mean '%s'?", suggestion)
	}
	return Conference{}, fmt.Errorf("%w %s", ErrUnknownConference, msg)
}

const suggestionThreshold = 0.8

func (l *Loader) closest(name string) string {
	best := ""
	bestScore := 0.0
	for _, candidate := range l.List() {
		score := matchr.JaroWinkler(strings.ToLower(name), strings.ToLower(candidate), false)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore < suggestionThreshold {
		return ""
	}
	return best
}
