package display

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/backmassage/muxconv/internal/progress"
	"github.com/backmassage/muxconv/internal/term"
)

// LineLogger receives the non-progress messages of a run.
type LineLogger interface {
	Info(string, ...interface{})
}

// Renderer is the CLI consumer of a run's message stream. PROGRESS:<n>
// messages move a progress bar; any other message is a log line passed to
// the logger verbatim.
type Renderer struct {
	bar   *progressbar.ProgressBar
	log   LineLogger
	last  int
	lines int
}

// NewRenderer draws the bar on out. With showBar false only log lines are
// forwarded (e.g. when stdout is not a terminal).
func NewRenderer(out io.Writer, log LineLogger, showBar bool) *Renderer {
	r := &Renderer{log: log, last: -1}
	if showBar {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Converting"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionEnableColorCodes(term.Enabled()),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	return r
}

// Handle consumes one message.
func (r *Renderer) Handle(msg string) {
	if pct, ok := progress.Parse(msg); ok {
		r.last = pct
		if r.bar != nil {
			_ = r.bar.Set(pct)
		}
		return
	}
	if r.bar != nil {
		_ = r.bar.Clear()
	}
	r.lines++
	r.log.Info("%s", msg)
}

// Finish clears the bar. Call once after the message stream closes.
func (r *Renderer) Finish() {
	if r.bar != nil {
		_ = r.bar.Finish()
	}
}

// LastProgress returns the last percentage seen, or -1.
func (r *Renderer) LastProgress() int { return r.last }

// Lines returns how many log lines were forwarded.
func (r *Renderer) Lines() int { return r.lines }
