package commands

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// progressBar reports scraping progress on a go-pretty tracker.
type progressBar struct {
	out     io.Writer
	pw      progress.Writer
	tracker *progress.Tracker
}

func newProgressBar(out io.Writer) *progressBar {
	return &progressBar{out: out}
}

func (p *progressBar) Start(total int) {
	p.pw = progress.NewWriter()
	p.pw.SetOutputWriter(p.out)
	p.pw.SetAutoStop(false)
	p.pw.SetTrackerLength(30)
	p.pw.SetTrackerPosition(progress.PositionRight)
	p.pw.SetUpdateFrequency(100 * time.Millisecond)
	p.pw.SetStyle(progress.StyleDefault)
	p.pw.Style().Visibility.ETA = true
	p.pw.Style().Visibility.Value = true

	p.tracker = &progress.Tracker{
		Message: "Loading submissions",
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	p.pw.AppendTracker(p.tracker)
	go p.pw.Render()
}

func (p *progressBar) Increment() {
	if p.tracker == nil {
		return
	}
	p.tracker.Increment(1)
}

func (p *progressBar) Done() {
	if p.pw == nil {
		return
	}
	p.tracker.MarkAsDone()
	p.pw.Stop()
	for p.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
