package submission

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatInts(t *testing.T) {
	require.Equal(t, "-", FormatInts(nil))
	require.Equal(t, "-", FormatInts([]int{}))
	require.Equal(t, "5", FormatInts([]int{5}))
	require.Equal(t, "3, 5, 6", FormatInts([]int{3, 5, 6}))
}

func TestStatistics(t *testing.T) {
	cases := []struct {
		values []int
		mean   string
		std    string
	}{
		{values: nil, mean: "-", std: "-"},
		{values: []int{4}, mean: "4.00", std: "0.00"},
		{values: []int{3, 5}, mean: "4.00", std: "1.00"},
		{values: []int{1, 2, 3, 4}, mean: "2.50", std: "1.12"},
		{values: []int{6, 6, 8}, mean: "6.67", std: "0.94"},
	}
	for _, test := range cases {
		require.Equal(t, test.mean, FormatMean(test.values, 2), "mean of %v", test.values)
		require.Equal(t, test.std, FormatStd(test.values, 2), "std of %v", test.values)
	}

	variance, ok := Variance([]int{3, 5})
	require.True(t, ok)
	require.InDelta(t, 1.0, variance, 1e-9)

	_, ok = Std(nil)
	require.False(t, ok)
	require.Equal(t, "2.5", FormatMean([]int{2, 3}, 1))
}

func TestSubmissionStrings(t *testing.T) {
	sub := Submission{
		Title:        "Attention Is Still All You Need",
		ID:           "1234",
		Ratings:      []int{3, 5},
		Confidences:  []int{4, 2},
		FinalRatings: nil,
	}
	require.Equal(t, "1234, Attention Is Still All You Need, *, 3, 5, *, -", sub.String())
	require.Equal(t, "ID: 1234, Attention Is Still All You Need, Ratings: [3 5], Avg: 4.00, Var: 1.00", sub.Info())

	empty := Submission{Title: "T", ID: "1"}
	require.Equal(t, "ID: 1, T, Ratings: [], Avg: -, Var: -", empty.Info())
}
