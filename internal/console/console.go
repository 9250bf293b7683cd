// Package console prints run notifications for the headless front-end,
// with an optional entry progress bar.
package console

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/batch"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/consts"
)

const (
	barWidth    = 30
	barThrottle = 100 * time.Millisecond
)

// Printer writes one line per notification message to out.
// It is driven from the run goroutine and is not safe for concurrent use.
type Printer struct {
	out     io.Writer
	showBar bool
	bar     *progressbar.ProgressBar
}

// New creates a printer. showBar enables the i/N progress bar between log lines.
func New(out io.Writer, showBar bool) *Printer {
	return &Printer{out: out, showBar: showBar}
}

// Observer returns the batch observer feeding the printer.
func (p *Printer) Observer() batch.Observer {
	return batch.ObserverFunc(p.handle)
}

func (p *Printer) handle(ev batch.Event) {
	switch ev.Kind {
	case batch.EventResolved:
		p.println(ev.Message)

		if p.showBar && ev.Total > 0 {
			p.bar = p.newBar(ev.Total)
		}

	case batch.EventEntryStart:
		p.println(ev.Message)

		if p.bar != nil {
			p.bar.Describe(ev.Entry.DisplayTitle())
		}

	case batch.EventEntryDone:
		if ev.Message != "" {
			p.println(ev.Message)
		}

		if p.bar != nil {
			_ = p.bar.Add(1)
		}

	case batch.EventDone:
		p.closeBar()
		p.println(ev.Message)
		p.println(consts.MsgComplete)

		if ev.Report != nil {
			p.println(fmt.Sprintf(consts.MsgSummaryFmt, ev.Report.Summary.Downloaded, ev.Report.Summary.Failed))
		}

	case batch.EventFailed:
		p.closeBar()
		p.println(ev.Message)
	}
}

func (p *Printer) newBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(barWidth),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(barThrottle),
		progressbar.OptionClearOnFinish(),
	)
}

// println clears the bar so log lines never share a row with it.
func (p *Printer) println(msg string) {
	if p.bar != nil {
		_ = p.bar.Clear()
	}

	fmt.Fprintln(p.out, msg)
}

func (p *Printer) closeBar() {
	if p.bar == nil {
		return
	}

	_ = p.bar.Finish()
	p.bar = nil
}
