package openreview

import (
	"github.com/PuerkitoBio/purell"
)

const urlNormalization = purell.FlagsSafe |
	purell.FlagsUsuallySafeNonGreedy |
	purell.FlagRemoveFragment |
	purell.FlagSortQuery

// normalizePaperURLs normalizes links and drops duplicates, keeping the
// order in which the console lists them.
func normalizePaperURLs(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		normalized, err := purell.NormalizeURLString(u, urlNormalization)
		if err != nil {
			normalized = u
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}
