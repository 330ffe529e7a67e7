package commands

import (
	"testing"

	"acreview/lib/browser"
	"acreview/lib/conference"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestBrowserOptions(t *testing.T) {
	yes := true

	testCases := []struct {
		name        string
		cfg         conference.Browser
		driver      string
		headless    bool
		headlessSet bool
		expected    browser.Options
	}{
		{
			name:     "empty config",
			expected: browser.Options{},
		},
		{
			name: "config only",
			cfg: conference.Browser{
				Driver:         "http",
				FirefoxBinary:  "/usr/bin/firefox",
				WindowSize:     []int{1280, 800},
				AdditionalArgs: []string{"--lang=en"},
				Headless:       &yes,
			},
			expected: browser.Options{
				Driver:         "http",
				ExecPath:       "/usr/bin/firefox",
				WindowSize:     []int{1280, 800},
				AdditionalArgs: []string{"--lang=en"},
				Headless:       true,
			},
		},
		{
			name:        "flags override config",
			cfg:         conference.Browser{Driver: "http", Headless: &yes},
			driver:      "chrome",
			headless:    false,
			headlessSet: true,
			expected:    browser.Options{Driver: "chrome"},
		},
		{
			name:        "headless flag without config",
			headless:    true,
			headlessSet: true,
			expected:    browser.Options{Headless: true},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := browserOptions(test.cfg, test.driver, test.headless, test.headlessSet)
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestPickConference(t *testing.T) {
	loader, err := conference.Load("testdata/conf.yaml")
	require.NoError(t, err)

	conf, err := pickConference(loader, "")
	require.NoError(t, err)
	require.Equal(t, "cvpr_2025", conf.Name)

	conf, err = pickConference(loader, "iclr_2025")
	require.NoError(t, err)
	require.Equal(t, "https://openreview.net/group?id=ICLR.cc/2025/Conference/Area_Chairs", conf.URL)

	_, err = pickConference(loader, "iclr_2052")
	require.ErrorIs(t, err, conference.ErrUnknownConference)
}
