// Package simulate fabricates submissions so the table and csv output can be
// exercised without logging into the portal.
package simulate

import (
	"fmt"
	"strconv"

	"acreview/lib/submission"

	random "github.com/mazen160/go-random"
)

var (
	scores  = []string{"1", "2", "3", "4", "5"}
	counts  = []string{"0", "1", "2", "3"}
	letters = []string{
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
		"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
	}
)

func pickInt(choices []string) (int, error) {
	choice, err := random.Choice(choices)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(choice)
}

func scoreList(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		score, err := pickInt(scores)
		if err != nil {
			return nil, err
		}
		out[i] = score
	}
	return out, nil
}

func one() (submission.Submission, error) {
	ratingCount, err := pickInt(counts)
	if err != nil {
		return submission.Submission{}, err
	}
	finalCount, err := pickInt(counts)
	if err != nil {
		return submission.Submission{}, err
	}
	ratings, err := scoreList(ratingCount)
	if err != nil {
		return submission.Submission{}, err
	}
	confidences, err := scoreList(ratingCount)
	if err != nil {
		return submission.Submission{}, err
	}
	finalRatings, err := scoreList(finalCount)
	if err != nil {
		return submission.Submission{}, err
	}
	letter, err := random.Choice(letters)
	if err != nil {
		return submission.Submission{}, err
	}
	id, err := random.IntRange(1000, 19999)
	if err != nil {
		return submission.Submission{}, err
	}

	return submission.Submission{
		Title:        fmt.Sprintf("Title %s", letter),
		ID:           strconv.Itoa(id),
		Ratings:      ratings,
		Confidences:  confidences,
		FinalRatings: finalRatings,
	}, nil
}

// Submissions returns n random submissions with up to three ratings each.
func Submissions(n int) ([]submission.Submission, error) {
	out := make([]submission.Submission, n)
	for i := range out {
		sub, err := one()
		if err != nil {
			return nil, err
		}
		out[i] = sub
	}
	return out, nil
}
