package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HiddenAttr marks elements the browser reported as not rendered
const HiddenAttr = "data-crawl-hidden"

// ContentSelectors are tried in order to find the main text of a page.
// The first one with more than 100 characters of text wins, otherwise the
// whole body is used.
var ContentSelectors = []string{
	"main",
	"[role='main']",
	".main-content",
	"article",
	".content",
	"#content",
	".provider-details",
	"[data-testid*='details']",
	"body",
}

// Snapshot is the state of a page at one point in time.
// Everything downstream of navigation works on a Snapshot, never on the live tab.
type Snapshot struct {
	URL      string
	Title    string
	HTML     string
	Text     string // main content text
	BodyText string // whole body text

	doc *goquery.Document
}

// NewSnapshot wraps page data captured by a browser
func NewSnapshot(pageURL, title, html, text, bodyText string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page html: %w", err)
	}
	return &Snapshot{
		URL:      pageURL,
		Title:    title,
		HTML:     html,
		Text:     strings.TrimSpace(FoldSpace(text)),
		BodyText: strings.TrimSpace(FoldSpace(bodyText)),
		doc:      doc,
	}, nil
}

// FromHTML builds a Snapshot from raw HTML, computing title and text the
// way a browser would render them
func FromHTML(pageURL, html string) (*Snapshot, error) {
	s, err := NewSnapshot(pageURL, "", html, "", "")
	if err != nil {
		return nil, err
	}
	s.Title = strings.TrimSpace(s.doc.Find("title").First().Text())
	s.BodyText = RenderText(s.doc.Find("body").Nodes)

	for _, sel := range ContentSelectors {
		if text := InnerText(s.doc.Find(sel).First()); len(text) > 100 {
			s.Text = text
			break
		}
	}
	if s.Text == "" {
		s.Text = s.BodyText
	}
	return s, nil
}

// Find runs a CSS selector against the snapshot
func (s *Snapshot) Find(selector string) *goquery.Selection {
	return s.doc.Find(selector)
}

// FindVisible returns the elements matching selector that are rendered
func (s *Snapshot) FindVisible(selector string) *goquery.Selection {
	return s.doc.Find(selector).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return Visible(sel)
	})
}

// Clickable reports whether the target matches a visible element
func (s *Snapshot) Clickable(t Target) bool {
	return s.FindVisible(t.Selector).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return t.matchesText(InnerText(sel))
	}).Length() > 0
}

// Resolve turns an href into an absolute URL relative to the snapshot URL
func (s *Snapshot) Resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	base, err := url.Parse(s.URL)
	if err != nil || base.Scheme == "" {
		if ref.IsAbs() {
			return ref.String(), true
		}
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

// Target identifies an element to click: a CSS selector and, optionally,
// text the element must contain (case-insensitive)
type Target struct {
	Selector string
	Text     string
}

func (t Target) matchesText(text string) bool {
	if t.Text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(t.Text))
}

func (t Target) String() string {
	if t.Text == "" {
		return t.Selector
	}
	return fmt.Sprintf("%s:has-text(%q)", t.Selector, t.Text)
}
