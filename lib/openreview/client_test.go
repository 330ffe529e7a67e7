package openreview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"acreview/lib/browser"
	"acreview/lib/conference"
	"acreview/lib/extract"
	"acreview/lib/pagearchive"
	"acreview/lib/submission"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const loginForm = `<html><body>
<form action="/login" method="post">
  <input id="email-input" name="email" type="email">
  <input id="password-input" name="password" type="password">
  <button class="btn-login" type="submit">Login</button>
</form>
</body></html>`

const consolePage = `<html><body>
<div class="note"><h4><a href="/forum?id=a">Paper A</a></h4></div>
<div class="note"><h4><a href="/forum?id=a#reviews">Paper A again</a></h4></div>
<div class="note"><h4><a href="/forum?id=b">Paper B</a></h4></div>
<div class="note"><h4><a href="/forum?id=c">Paper C</a></h4></div>
</body></html>`

const paperA = `<html><body>
<div class="forum-note">
  <h2 class="citation_title">Sparse, Fast, and Wrong</h2>
  <div class="note-content">
    <div><strong>Keywords:</strong> <span>sparsity</span></div>
    <div><strong>Number:</strong> <span>101</span></div>
  </div>
</div>
<div id="forum-replies">
  <div class="depth-odd">
    <div>Summary: tested on 3 datasets</div>
    <div>Rating: 6: marginally above the acceptance threshold</div>
    <div>Confidence: 4: You are confident</div>
    <div>Code Of Conduct: Yes</div>
  </div>
  <div class="depth-odd">
    <div>Rating: 3: reject</div>
    <div>Confidence: 5</div>
    <div>Code Of Conduct: Yes</div>
  </div>
  <div class="depth-odd"><div>Final Recommendation: 8: accept</div></div>
  <div class="depth-odd">
    <div>Final Recommendation: 6</div>
    <div>Rating: 5</div>
  </div>
  <div class="depth-even"><div>Rating: 1</div></div>
</div>
</body></html>`

const paperB = `<html><body>
<div class="forum-note">
  <h2 class="citation_title">No Number Here</h2>
  <div class="note-content"><div>Keywords: none</div></div>
</div>
</body></html>`

const paperC = `<html><body>
<div class="forum-note">
  <h2 class="citation_title">Quiet Paper</h2>
  <div class="note-content"><div>Number: 303</div></div>
</div>
<div id="forum-replies"></div>
</body></html>`

const paperD = `<html><body>
<div class="forum-note">
  <h2 class="citation_title">Path/Like Title</h2>
  <div class="note-content"><div>Number: ../../12/34</div></div>
</div>
<div id="forum-replies"></div>
</body></html>`

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	loggedIn := func(r *http.Request) bool {
		cookie, err := r.Cookie("session")
		return err == nil && cookie.Value == "ok"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/group", func(w http.ResponseWriter, r *http.Request) {
		if loggedIn(r) {
			w.Write([]byte(consolePage))
			return
		}
		w.Write([]byte(loginForm))
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") != "ac@example.com" || r.FormValue("password") != "hunter2" {
			w.Write([]byte(loginForm))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok", Path: "/"})
		http.Redirect(w, r, "/group?id=Test/2025/Conference/Area_Chairs", http.StatusFound)
	})
	mux.HandleFunc("/forum", func(w http.ResponseWriter, r *http.Request) {
		if !loggedIn(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		switch r.URL.Query().Get("id") {
		case "a":
			w.Write([]byte(paperA))
		case "b":
			w.Write([]byte(paperB))
		case "c":
			w.Write([]byte(paperC))
		case "d":
			w.Write([]byte(paperD))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>maintenance</body></html>`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConference(url string) conference.Conference {
	return conference.Conference{
		Name:        "test_2025",
		URL:         url,
		Rating:      extract.Rule{StartText: "Rating:", EndText: "Confidence:"},
		Confidence:  extract.Rule{StartText: "Confidence:", EndText: "Code Of Conduct:"},
		FinalRating: extract.Rule{StartText: "Final Recommendation:", Method: extract.FirstNumberMethod},
	}
}

type recordedProgress struct {
	total      int
	increments int
	done       bool
}

func (p *recordedProgress) Start(total int) { p.total = total }
func (p *recordedProgress) Increment()      { p.increments++ }
func (p *recordedProgress) Done()           { p.done = true }

func newClient(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	driver, err := browser.NewHTTP(browser.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { driver.Close() })

	if opts.Timeout == 0 {
		opts.Timeout = 200 * time.Millisecond
	}
	opts.PollInterval = 10 * time.Millisecond
	return NewClient(driver, testConference(url), opts)
}

var creds = Credentials{Username: "ac@example.com", Password: "hunter2"}

func TestScrapeConsole(t *testing.T) {
	srv := newPortal(t)
	archiveRoot := t.TempDir()
	archive := pagearchive.New(archiveRoot, time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))
	progress := &recordedProgress{}

	client := newClient(t, srv.URL+"/group?id=Test/2025/Conference/Area_Chairs", Options{
		Archive:  archive,
		Progress: progress,
	})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, creds))
	require.Equal(t, []string{
		srv.URL + "/forum?id=a",
		srv.URL + "/forum?id=b",
		srv.URL + "/forum?id=c",
	}, client.PaperURLs)

	subs, err := client.LoadAll(ctx)
	require.NoError(t, err)

	expected := []submission.Submission{
		{
			Title:        "Sparse, Fast, and Wrong",
			ID:           "101",
			Ratings:      []int{6, 3, 5},
			Confidences:  []int{4, 5},
			FinalRatings: []int{8, 6},
		},
		{
			Title: "Quiet Paper",
			ID:    "303",
		},
	}
	if diff := cmp.Diff(expected, subs); diff != "" {
		t.Fatal(diff)
	}

	require.Equal(t, recordedProgress{total: 3, increments: 3, done: true}, *progress)

	for _, name := range []string{"landing_page.html", "101_Sparse, Fast, and Wrong.html", "303_Quiet Paper.html"} {
		_, err := os.Stat(filepath.Join(archive.Dir(), name))
		require.NoError(t, err, name)
	}
}

func TestSkipReviews(t *testing.T) {
	srv := newPortal(t)
	client := newClient(t, srv.URL+"/group?id=x", Options{SkipReviews: true})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, creds))

	sub, err := client.LoadSubmission(ctx, srv.URL+"/forum?id=a")
	require.NoError(t, err)
	require.Equal(t, submission.Submission{Title: "Sparse, Fast, and Wrong", ID: "101"}, sub)
}

func TestLoadSubmissionWithoutReplies(t *testing.T) {
	srv := newPortal(t)
	client := newClient(t, srv.URL+"/group?id=x", Options{Timeout: 5 * time.Second})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, creds))

	start := time.Now()
	sub, err := client.LoadSubmission(ctx, srv.URL+"/forum?id=c")
	require.NoError(t, err)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, submission.Submission{Title: "Quiet Paper", ID: "303"}, sub)
}

func TestArchiveNameIsSanitized(t *testing.T) {
	srv := newPortal(t)
	archiveRoot := t.TempDir()
	archive := pagearchive.New(archiveRoot, time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))
	client := newClient(t, srv.URL+"/group?id=x", Options{Archive: archive})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, creds))

	sub, err := client.LoadSubmission(ctx, srv.URL+"/forum?id=d")
	require.NoError(t, err)
	require.Equal(t, "../../12/34", sub.ID)

	entries, err := os.ReadDir(archiveRoot)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = os.Stat(filepath.Join(archive.Dir(), ".._.._12_34_Path_Like Title.html"))
	require.NoError(t, err)
}

func TestLoadSubmissionWithoutNumber(t *testing.T) {
	srv := newPortal(t)
	client := newClient(t, srv.URL+"/group?id=x", Options{})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, creds))

	_, err := client.LoadSubmission(ctx, srv.URL+"/forum?id=b")
	require.ErrorIs(t, err, ErrNoSubmissionID)
}

func TestLoginFailed(t *testing.T) {
	srv := newPortal(t)
	client := newClient(t, srv.URL+"/group?id=x", Options{Timeout: 50 * time.Millisecond})

	err := client.Login(context.Background(), Credentials{Username: "ac@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginPageNeverLoads(t *testing.T) {
	srv := newPortal(t)
	client := newClient(t, srv.URL+"/empty", Options{Timeout: 50 * time.Millisecond})

	err := client.Login(context.Background(), creds)
	require.ErrorContains(t, err, "#email-input")
}

func TestLoadAllCancelled(t *testing.T) {
	srv := newPortal(t)
	client := newClient(t, srv.URL+"/group?id=x", Options{})
	require.NoError(t, client.Login(context.Background(), creds))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.LoadAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseID(t *testing.T) {
	cases := []struct {
		content string
		expect  string
		fails   bool
	}{
		{content: "Keywords: x\nNumber: 1234", expect: "1234"},
		{content: "Number: 1234\nPrimary Area: vision", expect: "1234"},
		{content: "Number:\n  77 \n", expect: "77"},
		{content: "Keywords: none", fails: true},
		{content: "Number:   ", fails: true},
	}
	for _, test := range cases {
		id, err := parseID(test.content, "Number:")
		if test.fails {
			require.ErrorIs(t, err, ErrNoSubmissionID, test.content)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, test.expect, id)
	}
}

func TestExtractRatings(t *testing.T) {
	conf := testConference("")
	lists := extractRatings([]string{
		"Rating: 8\nConfidence: 2\nCode Of Conduct: Yes",
		"Confidence: 3",
		"nothing to see",
	}, conf)
	require.Equal(t, []int{8}, lists.ratings)
	require.Equal(t, []int{2, 3}, lists.confidences)
	require.Nil(t, lists.finalRatings)

	empty := extractRatings([]string{"Rating: 8"}, conference.Conference{})
	require.Equal(t, ratingLists{}, empty)
}

func TestNormalizePaperURLs(t *testing.T) {
	urls := normalizePaperURLs([]string{
		"https://OpenReview.net/forum?id=abc&referrer=x",
		"https://openreview.net/forum?referrer=x&id=abc",
		"https://openreview.net/forum?id=abc&referrer=x#top",
		"",
		"https://openreview.net/forum?id=def",
	})
	require.Equal(t, []string{
		"https://openreview.net/forum?id=abc&referrer=x",
		"https://openreview.net/forum?id=def",
	}, urls)
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv(LoginEnv, "")
	t.Setenv(PasswordEnv, "")
	os.Unsetenv(LoginEnv)
	os.Unsetenv(PasswordEnv)

	_, err := CredentialsFromEnv(filepath.Join(t.TempDir(), ".env"))
	require.ErrorContains(t, err, "LOGIN and PASSWORD")

	dotenv := filepath.Join(t.TempDir(), ".env")
	err = os.WriteFile(dotenv, []byte("LOGIN=ac@example.com\nPASSWORD=hunter2\n"), 0600)
	require.NoError(t, err)

	got, err := CredentialsFromEnv(dotenv)
	require.NoError(t, err)
	require.Equal(t, creds, got)
}
