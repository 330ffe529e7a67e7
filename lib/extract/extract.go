package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Method names how a value is pulled out of the window selected by a Rule.
type Method string

const (
	// FirstNumberMethod takes the first run of digits in the window.
	FirstNumberMethod Method = "first_number"
)

// Rule is a declarative "find the value after this marker" instruction,
// configured per field (rating, confidence, final rating, ...).
type Rule struct {
	StartText string `json:"start_text" yaml:"start_text"`
	EndText   string `json:"end_text" yaml:"end_text"`
	Method    Method `json:"extract_method" yaml:"extract_method"`
}

// IsZero reports whether the rule was left unconfigured.
func (r Rule) IsZero() bool {
	return r.StartText == "" && r.EndText == "" && r.Method == ""
}

func (r Rule) method() Method {
	if r.Method == "" {
		return FirstNumberMethod
	}
	return r.Method
}

func (r Rule) Validate() error {
	switch r.method() {
	case FirstNumberMethod:
		return nil
	default:
		return fmt.Errorf("unknown extract_method '%s'", r.Method)
	}
}

var digitsRegex = regexp.MustCompile(`[0-9]+`)

// FirstNumber returns the first number found after the first occurrence of
// start. When end is given and occurs after start, the search stops there.
func FirstNumber(text, start, end string) (int, bool) {
	startIdx := strings.Index(text, start)
	if startIdx < 0 {
		return 0, false
	}
	window := text[startIdx+len(start):]

	if end != "" {
		endIdx := strings.Index(window, end)
		if endIdx >= 0 {
			window = window[:endIdx]
		}
	}

	match := digitsRegex.FindString(window)
	if match == "" {
		return 0, false
	}
	value, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Value applies rule to text. Rules without a start marker and rules with
// an unknown method never yield a value.
func Value(text string, rule Rule) (int, bool) {
	if rule.StartText == "" {
		return 0, false
	}
	switch rule.method() {
	case FirstNumberMethod:
		return FirstNumber(text, rule.StartText, rule.EndText)
	}
	return 0, false
}
