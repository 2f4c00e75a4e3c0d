// Package progress shows extraction progress on a terminal.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for file processing.
type Tracker struct {
	bar *progressbar.ProgressBar
}

// NewTracker creates a progress bar on w with the given label and total.
func NewTracker(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar}
}

// Tick advances the bar by one file. Safe for concurrent use.
func (t *Tracker) Tick() {
	_ = t.bar.Add(1)
}

// Finish completes and clears the bar.
func (t *Tracker) Finish() {
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// Current returns the number of ticks so far.
func (t *Tracker) Current() int64 {
	return t.bar.State().CurrentNum
}
