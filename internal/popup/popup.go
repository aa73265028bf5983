package popup

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/match"
)

// DefaultTargets are the "Got it" acknowledgements shown over the results page
var DefaultTargets = []browser.Target{
	{Selector: "button", Text: "Got it"},
	{Selector: "button", Text: "GOT IT"},
	{Selector: "[aria-label*='Got it']"},
	{Selector: ".popover button", Text: "Got it"},
}

// Dismisser clicks away interstitials
type Dismisser struct {
	Targets []browser.Target
	Settle  time.Duration
	Logger  *log.Logger
}

// New creates a Dismisser with the default targets
func New(settle time.Duration, logger *log.Logger) *Dismisser {
	return &Dismisser{
		Targets: DefaultTargets,
		Settle:  settle,
		Logger:  logger,
	}
}

// Dismiss clicks the first visible target, waits for the UI to settle and
// reports whether anything was dismissed
func (d *Dismisser) Dismiss(ctx context.Context, page browser.Page) bool {
	matchers := make([]match.Matcher[context.Context, browser.Target], 0, len(d.Targets))
	for _, t := range d.Targets {
		matchers = append(matchers, func(ctx context.Context) (browser.Target, bool) {
			clicked, err := page.Click(ctx, t)
			if err != nil {
				d.Logger.Debug("Popup target failed", "target", t.String(), "error", err)
				return t, false
			}
			return t, clicked
		})
	}

	t, ok := match.First(ctx, matchers...)
	if !ok {
		return false
	}

	d.Logger.Info("Closed popup", "target", t.String())
	if err := browser.Sleep(ctx, d.Settle); err != nil {
		d.Logger.Debug("Popup settle interrupted", "err", err)
	}
	return true
}
