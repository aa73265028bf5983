package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/bubbles/progress"
)

// Tracker shows a spinner with the current step and a bar of finished locations
type Tracker struct {
	mu      sync.Mutex
	bar     progress.Model
	spin    *spinner.Spinner
	enabled bool

	total  int
	done   int
	status string
}

// New creates a Tracker drawing to out. A disabled Tracker only counts.
func New(out io.Writer, enabled bool) *Tracker {
	t := &Tracker{
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		enabled: enabled,
	}
	if enabled {
		t.spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out))
	}
	return t
}

// Begin sets the number of locations and starts drawing
func (t *Tracker) Begin(total int) {
	t.mu.Lock()
	t.total = total
	t.done = 0
	t.mu.Unlock()

	if t.spin != nil {
		t.redraw()
		t.spin.Start()
	}
}

// Status replaces the text next to the spinner
func (t *Tracker) Status(status string) {
	t.mu.Lock()
	t.status = status
	t.mu.Unlock()
	t.redraw()
}

// Advance marks one more location as finished
func (t *Tracker) Advance() {
	t.mu.Lock()
	if t.done < t.total {
		t.done++
	}
	t.mu.Unlock()
	t.redraw()
}

// Stop clears the spinner line
func (t *Tracker) Stop() {
	if t.spin != nil {
		t.spin.Stop()
	}
}

// Percent returns the finished fraction in [0, 1]
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent()
}

// Done returns the number of finished locations
func (t *Tracker) Done() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (t *Tracker) percent() float64 {
	if t.total == 0 {
		return 0
	}
	return float64(t.done) / float64(t.total)
}

func (t *Tracker) redraw() {
	if t.spin == nil {
		return
	}
	t.mu.Lock()
	suffix := fmt.Sprintf(" %s %d/%d %s", t.bar.ViewAs(t.percent()), t.done, t.total, t.status)
	t.mu.Unlock()

	t.spin.Lock()
	t.spin.Suffix = suffix
	t.spin.Unlock()
}
