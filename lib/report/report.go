package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"acreview/lib/submission"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var csvHeader = []string{
	"#", "ID", "Title",
	"Ratings", "Avg", "Std",
	"Confidences",
	"Final Ratings", "Final Avg", "Final Std",
}

const precision = 2

func row(idx int, sub submission.Submission) []string {
	return []string{
		strconv.Itoa(idx + 1),
		sub.ID,
		sub.Title,
		submission.FormatInts(sub.Ratings),
		submission.FormatMean(sub.Ratings, precision),
		submission.FormatStd(sub.Ratings, precision),
		submission.FormatInts(sub.Confidences),
		submission.FormatInts(sub.FinalRatings),
		submission.FormatMean(sub.FinalRatings, precision),
		submission.FormatStd(sub.FinalRatings, precision),
	}
}

// NewTable creates the table writer shared by every console listing.
func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.SetOutputMirror(out)
	return t
}

// RenderTable prints the submissions as a table.
func RenderTable(out io.Writer, subs []submission.Submission) {
	t := NewTable(out)
	t.AppendHeader(table.Row{
		"#", "ID", "Title",
		"Ratings", "Avg.", "Std.",
		"Confidences",
		"Final Ratings", "Avg.", "Std.",
	})

	right := text.AlignRight
	configs := make([]table.ColumnConfig, len(csvHeader))
	for i := range configs {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: right, AlignHeader: right}
	}
	configs[2].Align = text.AlignLeft
	configs[2].AlignHeader = text.AlignLeft
	configs[2].WidthMax = 60
	t.SetColumnConfigs(configs)

	for i, sub := range subs {
		cells := row(i, sub)
		r := make(table.Row, len(cells))
		for j, c := range cells {
			r[j] = c
		}
		t.AppendRow(r)
	}
	t.Render()
}

// WriteCSV writes the same columns as the table, quoting where needed.
func WriteCSV(out io.Writer, subs []submission.Submission) error {
	w := csv.NewWriter(out)
	err := w.Write(csvHeader)
	if err != nil {
		return err
	}
	for i, sub := range subs {
		err = w.Write(row(i, sub))
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func PrintCSV(subs []submission.Submission) error {
	return WriteCSV(os.Stdout, subs)
}

func SaveCSV(path string, subs []submission.Submission) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = WriteCSV(f, subs)
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	err = f.Close()
	if err != nil {
		return err
	}
	slog.Info("csv saved", "path", path, "rows", len(subs))
	return nil
}
