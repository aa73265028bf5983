package readiness

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/match"
)

// Status is what a results page shows
type Status int

const (
	Unknown Status = iota
	HasResults
	NoResults
)

func (s Status) String() string {
	switch s {
	case HasResults:
		return "has-results"
	case NoResults:
		return "no-results"
	default:
		return "unknown"
	}
}

const (
	DefaultAttempts = 30
	DefaultInterval = 500 * time.Millisecond
)

// noResultsPhrases are matched case-insensitively against the rendered body text
var noResultsPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)no providers found`),
	regexp.MustCompile(`(?i)no results found`),
	regexp.MustCompile(`(?i)try adjusting your search`),
	regexp.MustCompile(`(?i)we couldn[’']t find any providers`),
	regexp.MustCompile(`(?i)(^|[^\d])0 results\b`),
}

var noResultsSelectors = []string{
	"[data-testid*='no-results']",
	".no-results",
	"[class*='no-results']",
}

// ResultSelectors go from most to least specific
var ResultSelectors = []string{
	"article",
	"li[role='article']",
	"[data-testid*='result']",
	"[class*='result']",
	"[class*='card']",
	"h2",
}

// Dismisser closes interstitials covering the page
type Dismisser interface {
	Dismiss(ctx context.Context, page browser.Page) bool
}

// Detector decides whether a navigated search page has results
type Detector struct {
	Attempts int
	Interval time.Duration
	Popups   Dismisser
	Logger   *log.Logger
}

// New creates a Detector with the default polling budget
func New(popups Dismisser, logger *log.Logger) *Detector {
	return &Detector{
		Attempts: DefaultAttempts,
		Interval: DefaultInterval,
		Popups:   popups,
		Logger:   logger,
	}
}

// Await polls the page until it shows results or no results, or the
// attempts run out. The last snapshot taken is returned with the status.
func (d *Detector) Await(ctx context.Context, page browser.Page) (Status, *browser.Snapshot, error) {
	d.Popups.Dismiss(ctx, page)

	var snap *browser.Snapshot
	for attempt := 0; attempt < d.Attempts; attempt++ {
		s, err := page.Snapshot(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Unknown, snap, ctx.Err()
			}
			d.Logger.Debug("Results page not readable yet", "attempt", attempt+1, "err", err)
			d.Popups.Dismiss(ctx, page)
			if err := browser.Sleep(ctx, d.Interval); err != nil {
				return Unknown, snap, err
			}
			continue
		}
		snap = s

		if reason, ok := NoResultsReason(snap); ok {
			d.Logger.Info("No results found for this search", "reason", reason)
			return NoResults, snap, nil
		}

		if sel, ok := match.First(snap, resultMatchers()...); ok {
			d.Logger.Debug("Found result elements", "selector", sel,
				"count", snap.Find(sel).Length(), "attempt", attempt+1)
			return HasResults, snap, nil
		}

		d.Popups.Dismiss(ctx, page)
		if err := browser.Sleep(ctx, d.Interval); err != nil {
			return Unknown, snap, err
		}
	}

	if s, err := page.Snapshot(ctx); err == nil {
		snap = s
	}
	if snap != nil {
		if reason, ok := NoResultsReason(snap); ok {
			d.Logger.Info("No results found for this search", "reason", reason)
			return NoResults, snap, nil
		}
	}

	d.Logger.Warn("Could not determine if results exist", "attempts", d.Attempts)
	return Unknown, snap, nil
}

// NoResultsReason checks the "nothing found" signals and names the one that matched
func NoResultsReason(snap *browser.Snapshot) (string, bool) {
	return match.First(snap, noResultsMatchers()...)
}

func noResultsMatchers() []match.Matcher[*browser.Snapshot, string] {
	var matchers []match.Matcher[*browser.Snapshot, string]
	for _, re := range noResultsPhrases {
		matchers = append(matchers, func(s *browser.Snapshot) (string, bool) {
			return "text " + re.String(), re.MatchString(s.BodyText)
		})
	}
	for _, sel := range noResultsSelectors {
		matchers = append(matchers, func(s *browser.Snapshot) (string, bool) {
			return "element " + sel, s.FindVisible(sel).Length() > 0
		})
	}
	matchers = append(matchers, func(s *browser.Snapshot) (string, bool) {
		return "redirected to search form", strings.Contains(s.URL, "/find-a-provider/search") &&
			!strings.Contains(s.URL, "results")
	})
	return matchers
}

// resultMatchers succeed with the first selector whose first match is rendered
func resultMatchers() []match.Matcher[*browser.Snapshot, string] {
	matchers := make([]match.Matcher[*browser.Snapshot, string], 0, len(ResultSelectors))
	for _, sel := range ResultSelectors {
		matchers = append(matchers, func(s *browser.Snapshot) (string, bool) {
			return sel, browser.Visible(s.Find(sel).First())
		})
	}
	return matchers
}
