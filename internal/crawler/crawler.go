// Package crawler runs the search → results → detail pipeline over every
// (location, category) pair and saves accepted providers after each location.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/harvest"
	"github.com/go-scripts/providercrawl/internal/identity"
	"github.com/go-scripts/providercrawl/internal/parser"
	"github.com/go-scripts/providercrawl/internal/popup"
	"github.com/go-scripts/providercrawl/internal/query"
	"github.com/go-scripts/providercrawl/internal/readiness"
	"github.com/go-scripts/providercrawl/internal/types"
)

var (
	ErrNoLocations = errors.New("no locations to crawl")
	ErrNavigation  = errors.New("navigation failed")
	ErrCircuitOpen = errors.New("too many consecutive pair failures")
)

// Store persists accepted records
type Store interface {
	WriteRecords(records []types.ProviderRecord) error
}

// Recorder receives the outcome of every pair
type Recorder interface {
	RecordPair(ctx context.Context, r types.PairResult) error
}

// Progress is told where the run is
type Progress interface {
	Begin(total int)
	Status(status string)
	Advance()
	Stop()
}

// Options tunes a run
type Options struct {
	BaseURL        string
	Categories     []string
	Distance       string
	LinksPerSearch int

	NavRetries   int
	RetryBackoff time.Duration // multiplied by the attempt number
	Settle       time.Duration
	DetailSettle time.Duration
	Pacing       time.Duration
	PopupSettle  time.Duration

	ReadinessAttempts int
	ReadinessInterval time.Duration

	MaxConsecutivePairFailures int
}

// Summary counts what a run did
type Summary struct {
	Locations int
	Pairs     int
	Completed int
	Skipped   int
	Errored   int
	Saved     int
}

// Crawler owns the crawl state of one run: the identity set, the pending
// batch and the failure streak. It is not safe for concurrent use.
type Crawler struct {
	opts   Options
	page   browser.Page
	store  Store
	seen   *identity.Set
	logger *log.Logger

	builder   *query.Builder
	popups    *popup.Dismisser
	detector  *readiness.Detector
	harvester *harvest.Harvester
	parser    *parser.Parser

	Recorder Recorder
	Progress Progress

	// Sleep pauses between navigation attempts and after detail pages
	Sleep func(ctx context.Context, d time.Duration) error

	batch    []types.ProviderRecord
	failures int
	summary  Summary
}

// New wires a Crawler. seen should already hold the telephones of
// previously stored records.
func New(opts Options, page browser.Page, store Store, seen *identity.Set, logger *log.Logger) *Crawler {
	if opts.NavRetries < 1 {
		opts.NavRetries = 1
	}

	popups := popup.New(opts.PopupSettle, logger)
	detector := readiness.New(popups, logger)
	if opts.ReadinessAttempts > 0 {
		detector.Attempts = opts.ReadinessAttempts
	}
	detector.Interval = opts.ReadinessInterval

	return &Crawler{
		opts:      opts,
		page:      page,
		store:     store,
		seen:      seen,
		logger:    logger,
		builder:   query.New(opts.BaseURL, opts.Distance),
		popups:    popups,
		detector:  detector,
		harvester: harvest.New(opts.LinksPerSearch, logger),
		parser:    parser.New(seen, logger),
		Sleep:     browser.Sleep,
	}
}

// Run crawls every location × category pair in order. The batch is flushed
// after each location, and also when the run stops early.
func (c *Crawler) Run(ctx context.Context, locations []types.Location) (Summary, error) {
	if len(locations) == 0 {
		return c.summary, ErrNoLocations
	}

	if c.Progress != nil {
		c.Progress.Begin(len(locations))
		defer c.Progress.Stop()
	}

	c.logger.Info("Starting crawl", "locations", len(locations), "categories", len(c.opts.Categories),
		"pairs", len(locations)*len(c.opts.Categories))

	for i, loc := range locations {
		q := loc.Query()
		c.logger.Info("Location", "index", i+1, "of", len(locations), "query", q)

		for _, category := range c.opts.Categories {
			if err := ctx.Err(); err != nil {
				return c.stop(err)
			}

			res := c.processPair(ctx, q, category)
			c.record(ctx, res)

			if res.Outcome == types.OutcomeErrored && ctx.Err() != nil {
				return c.stop(ctx.Err())
			}
			if c.tripped() {
				c.logger.Error("Stopping crawl", "consecutive_failures", c.failures)
				return c.stop(ErrCircuitOpen)
			}
		}

		if err := c.flush(); err != nil {
			return c.summary, err
		}
		c.summary.Locations++
		c.logger.Info("Progress saved", "location", i+1, "of", len(locations))
		if c.Progress != nil {
			c.Progress.Advance()
		}
	}

	c.logger.Info("Crawl completed", "saved", c.summary.Saved, "pairs", c.summary.Pairs,
		"errored", c.summary.Errored)
	return c.summary, nil
}

// stop flushes what was collected so far and returns cause
func (c *Crawler) stop(cause error) (Summary, error) {
	if err := c.flush(); err != nil {
		return c.summary, errors.Join(cause, err)
	}
	return c.summary, cause
}

func (c *Crawler) tripped() bool {
	limit := c.opts.MaxConsecutivePairFailures
	return limit > 0 && c.failures >= limit
}

func (c *Crawler) record(ctx context.Context, res types.PairResult) {
	c.summary.Pairs++
	switch res.Outcome {
	case types.OutcomeCompleted:
		c.summary.Completed++
		c.failures = 0
		c.logger.Info("Completed", "category", res.Category, "query", res.Location,
			"successful", res.Succeeded, "links", res.Attempted)
	case types.OutcomeErrored:
		c.summary.Errored++
		c.failures++
		c.logger.Error("Error processing search", "category", res.Category, "query", res.Location, "err", res.Err)
	default:
		c.summary.Skipped++
		c.failures = 0
		c.logger.Info("Skipped search", "category", res.Category, "query", res.Location, "outcome", res.Outcome)
	}

	if c.Recorder != nil {
		if err := c.Recorder.RecordPair(context.WithoutCancel(ctx), res); err != nil {
			c.logger.Warn("Failed to journal pair", "err", err)
		}
	}
}

// processPair runs one search and scrapes its detail pages
func (c *Crawler) processPair(ctx context.Context, q types.SearchQuery, category string) types.PairResult {
	res := types.PairResult{Location: q, Category: category}
	if c.Progress != nil {
		c.Progress.Status(fmt.Sprintf("%s %s", q, category))
	}

	searchURL := c.builder.BuildSearchURL(category, q, 1)
	c.logger.Info("Searching", "category", category, "query", q, "url", searchURL)

	if err := c.navigate(ctx, searchURL); err != nil {
		res.Outcome, res.Err = types.OutcomeErrored, err
		return res
	}

	status, snap, err := c.detector.Await(ctx, c.page)
	if err != nil {
		res.Outcome, res.Err = types.OutcomeErrored, err
		return res
	}
	if status != readiness.HasResults {
		res.Outcome = types.OutcomeNoResults
		return res
	}

	links := c.harvester.Extract(snap)
	if len(links) == 0 {
		res.Outcome = types.OutcomeNoLinks
		return res
	}
	res.Attempted = len(links)
	c.logger.Info("Found detail pages", "count", len(links))

	req := parser.Request{Category: category, Query: q}
	for i, link := range links {
		c.logger.Debug("Scraping page", "index", i+1, "of", len(links), "url", link)
		if c.scrapeDetail(ctx, link, req) {
			res.Succeeded++
		}
		if err := c.Sleep(ctx, c.opts.Pacing); err != nil {
			res.Outcome, res.Err = types.OutcomeErrored, err
			return res
		}
	}

	res.Outcome = types.OutcomeCompleted
	return res
}

// navigate loads a results page, retrying with a linear backoff, then
// dismisses any popup
func (c *Crawler) navigate(ctx context.Context, url string) error {
	var lastErr error
	for attempt := 1; attempt <= c.opts.NavRetries; attempt++ {
		_, err := c.page.Navigate(ctx, url, c.opts.Settle)
		if err == nil {
			c.popups.Dismiss(ctx, c.page)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		c.logger.Warn("Navigation attempt failed", "attempt", attempt, "of", c.opts.NavRetries, "err", err)
		if attempt < c.opts.NavRetries {
			if err := c.Sleep(ctx, time.Duration(attempt)*c.opts.RetryBackoff); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrNavigation, c.opts.NavRetries, lastErr)
}

// scrapeDetail loads one provider page and keeps the record when accepted
func (c *Crawler) scrapeDetail(ctx context.Context, link string, req parser.Request) bool {
	snap, err := c.page.Navigate(ctx, link, c.opts.DetailSettle)
	if err != nil {
		c.logger.Error("Failed to load provider page", "url", link, "err", err)
		return false
	}

	rec, err := c.parser.Parse(snap, req)
	var rejection *parser.Rejection
	switch {
	case errors.As(err, &rejection):
		c.logger.Warn("Invalid page", "url", link, "reason", rejection.Reason)
		return false
	case err != nil:
		c.logger.Error("Failed to scrape", "url", link, "err", err)
		return false
	}

	c.seen.Add(rec.Telephone)
	c.batch = append(c.batch, rec)
	c.logger.Info("Scraped provider",
		"company", rec.CompanyName,
		"address", rec.Address,
		"telephone", rec.Telephone,
		"email", rec.Email,
		"website", rec.Website,
		"category", rec.SearchCategory,
		"query", rec.SearchLocation,
		"url", rec.SourceURL,
	)
	c.logger.Debug("Page text", "url", rec.SourceURL, "text", excerpt(snap.Text, textExcerpt))
	return true
}

const textExcerpt = 500

// excerpt cuts s to at most n runes
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// flush writes the pending batch and clears it
func (c *Crawler) flush() error {
	if len(c.batch) == 0 {
		c.logger.Debug("No new data to save")
		return nil
	}
	if err := c.store.WriteRecords(c.batch); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	c.summary.Saved += len(c.batch)
	c.logger.Info("Saved new records", "count", len(c.batch), "unique_telephones", c.seen.Len())
	c.batch = nil
	return nil
}
