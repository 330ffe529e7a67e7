package submission

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Submission is a single paper scraped from the console.
type Submission struct {
	Title        string
	ID           string
	Ratings      []int
	Confidences  []int
	FinalRatings []int
}

func (s Submission) String() string {
	return fmt.Sprintf(
		"%s, %s, *, %s, *, %s",
		s.ID, s.Title, FormatInts(s.Ratings), FormatInts(s.FinalRatings),
	)
}

// Info is the one line summary printed while scraping.
func (s Submission) Info() string {
	variance := "-"
	if v, ok := Variance(s.Ratings); ok {
		variance = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return fmt.Sprintf(
		"ID: %s, %s, Ratings: %v, Avg: %s, Var: %s",
		s.ID, s.Title, s.Ratings, FormatMean(s.Ratings, 2), variance,
	)
}

// FormatInts joins values with ", ", an empty list is rendered as "-".
func FormatInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func Mean(values []int) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values)), true
}

// Variance is the population variance.
func Variance(values []int) (float64, bool) {
	mean, ok := Mean(values)
	if !ok {
		return 0, false
	}
	total := 0.0
	for _, v := range values {
		d := float64(v) - mean
		total += d * d
	}
	return total / float64(len(values)), true
}

// Std is the population standard deviation.
func Std(values []int) (float64, bool) {
	variance, ok := Variance(values)
	if !ok {
		return 0, false
	}
	return math.Sqrt(variance), true
}

func FormatMean(values []int, prec int) string {
	mean, ok := Mean(values)
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(mean, 'f', prec, 64)
}

func FormatStd(values []int, prec int) string {
	std, ok := Std(values)
	if !ok {
		return "-"
	}
	return strconv.FormatFloat(std, 'f', prec, 64)
}
