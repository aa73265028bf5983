// Package browsertest provides a fixture-backed browser.Page for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-scripts/providercrawl/internal/browser"
)

// ErrNoFixture is returned when navigating to a URL without a fixture
var ErrNoFixture = errors.New("no fixture for url")

// ErrNavigation is the default injected navigation failure
var ErrNavigation = errors.New("net::ERR_TIMED_OUT")

// ErrSnapshot is the injected snapshot failure
var ErrSnapshot = errors.New("Execution context was destroyed")

// Page serves HTML fixtures keyed by URL
type Page struct {
	// Pages maps a URL to the HTML served for it
	Pages map[string]string
	// Polls maps a URL to successive HTML states returned by Snapshot
	// after navigating there; the last state repeats
	Polls map[string][]string
	// Redirects maps a requested URL to the URL the page lands on
	Redirects map[string]string
	// Failures maps a URL to the number of navigations that fail first
	Failures map[string]int
	// AfterClick maps a URL to the HTML shown once something was clicked
	AfterClick map[string]string
	// SnapshotFailures is the number of upcoming Snapshot calls that fail
	SnapshotFailures int
	// Sleeps records every pause taken through Sleep
	Sleeps []time.Duration

	Navigations []string
	Clicks      []browser.Target
	Snapshots   int

	current string
	landed  string
	polls   int
	clicked bool
}

// New creates an empty fixture page
func New() *Page {
	return &Page{
		Pages:      make(map[string]string),
		Polls:      make(map[string][]string),
		Redirects:  make(map[string]string),
		Failures:   make(map[string]int),
		AfterClick: make(map[string]string),
	}
}

// Navigate serves the fixture for url
func (p *Page) Navigate(ctx context.Context, url string, settle time.Duration) (*browser.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.Navigations = append(p.Navigations, url)

	if n := p.Failures[url]; n > 0 {
		p.Failures[url] = n - 1
		return nil, fmt.Errorf("navigation to %s failed: %w", url, ErrNavigation)
	}

	_, ok := p.Pages[url]
	if _, polled := p.Polls[url]; !ok && !polled {
		return nil, fmt.Errorf("%w: %s", ErrNoFixture, url)
	}

	p.current = url
	p.landed = url
	if to, ok := p.Redirects[url]; ok {
		p.landed = to
	}
	p.polls = 0
	p.clicked = false
	return browser.FromHTML(p.landed, p.html())
}

// Snapshot returns the current fixture state
func (p *Page) Snapshot(ctx context.Context) (*browser.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.Snapshots++
	if p.SnapshotFailures > 0 {
		p.SnapshotFailures--
		return nil, fmt.Errorf("failed to evaluate page: %w", ErrSnapshot)
	}
	html := p.html()
	if states := p.Polls[p.current]; len(states) > 0 && p.polls < len(states)-1 {
		p.polls++
	}
	return browser.FromHTML(p.landed, html)
}

// Click clicks when the current fixture has a visible match for t
func (p *Page) Click(ctx context.Context, t browser.Target) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	snap, err := browser.FromHTML(p.landed, p.html())
	if err != nil {
		return false, err
	}
	if !snap.Clickable(t) {
		return false, nil
	}
	p.Clicks = append(p.Clicks, t)
	if _, ok := p.AfterClick[p.current]; ok {
		p.clicked = true
	}
	return true, nil
}

func (p *Page) html() string {
	if p.clicked {
		return p.AfterClick[p.current]
	}
	if states := p.Polls[p.current]; len(states) > 0 {
		return states[p.polls]
	}
	return p.Pages[p.current]
}

// Sleep records d and returns immediately unless ctx is done
func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	if d > 0 {
		p.Sleeps = append(p.Sleeps, d)
	}
	return ctx.Err()
}
