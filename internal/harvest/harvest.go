package harvest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/match"
	"github.com/go-scripts/providercrawl/internal/queue"
)

// CardSelectors go from the exact card markup to generic class patterns
var CardSelectors = []string{
	"div.flex.w-full.content-center.bg-neutral-00",
	"article",
	"li[role='article']",
	"[data-testid*='result']",
	"[class*='card']",
	"div[class*='flex'][class*='w-full'][class*='bg-neutral-00']",
}

// LinkSelectors are tried inside each card; any anchor is the last resort
var LinkSelectors = []string{
	"a[href*='/find-a-provider/']",
	"a[href*='search/']",
	"a:contains('Show details')",
	"h3 a",
	"a",
}

// FallbackSelector scans the whole page when no card produced a link
const FallbackSelector = "a[href*='/find-a-provider/']"

const (
	detailPathSegment = "/find-a-provider/"
	listingMarker     = "results"
)

// Harvester pulls provider detail links out of a results page
type Harvester struct {
	// Limit caps the links returned per search; 0 means no cap
	Limit  int
	Logger *log.Logger
}

// New creates a Harvester
func New(limit int, logger *log.Logger) *Harvester {
	return &Harvester{Limit: limit, Logger: logger}
}

// IsDetailURL reports whether a URL points at a provider page rather than a listing
func IsDetailURL(u string) bool {
	return strings.Contains(u, detailPathSegment) && !strings.Contains(u, listingMarker)
}

// Extract returns distinct detail URLs in discovery order, capped at Limit
func (h *Harvester) Extract(snap *browser.Snapshot) []string {
	matchers := make([]match.Matcher[*browser.Snapshot, *queue.Queue], 0, len(CardSelectors)+1)
	for _, sel := range CardSelectors {
		matchers = append(matchers, func(s *browser.Snapshot) (*queue.Queue, bool) {
			return h.fromCards(s, sel)
		})
	}
	matchers = append(matchers, h.fromPage)

	links, ok := match.First(snap, matchers...)
	if !ok {
		h.Logger.Warn("No provider links on results page", "url", snap.URL)
		return nil
	}

	links.Filter(IsDetailURL)
	if h.Limit > 0 && links.Len() > h.Limit {
		h.Logger.Info("Limited links", "from", links.Len(), "to", h.Limit)
		links.Truncate(h.Limit)
	}

	h.Logger.Info("Links extracted", "count", links.Len())
	return links.Items()
}

// fromCards takes the first acceptable link of every card matched by sel
func (h *Harvester) fromCards(snap *browser.Snapshot, sel string) (*queue.Queue, bool) {
	cards := snap.Find(sel)
	if cards.Length() == 0 {
		return nil, false
	}
	h.Logger.Debug("Found cards", "selector", sel, "count", cards.Length())

	links := queue.New()
	cards.Each(func(i int, card *goquery.Selection) {
		for _, linkSel := range LinkSelectors {
			if u, ok := firstDetailLink(snap, card.Find(linkSel), links); ok {
				links.Add(u)
				h.Logger.Debug("Link", "card", i, "url", u)
				return
			}
		}
	})
	return links, links.Len() > 0
}

// fromPage scans every provider anchor on the page
func (h *Harvester) fromPage(snap *browser.Snapshot) (*queue.Queue, bool) {
	h.Logger.Debug("Trying broader link search")
	links := queue.New()
	snap.Find(FallbackSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if u, ok := snap.Resolve(href); ok && IsDetailURL(u) {
			links.Add(u)
		}
	})
	return links, links.Len() > 0
}

func firstDetailLink(snap *browser.Snapshot, anchors *goquery.Selection, seen *queue.Queue) (string, bool) {
	var found string
	anchors.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok {
			return true
		}
		u, ok := snap.Resolve(href)
		if !ok || !IsDetailURL(u) || seen.Contains(u) {
			return true
		}
		found = u
		return false
	})
	return found, found != ""
}
