// Package parser turns a provider detail page into a ProviderRecord.
//
// A page first passes a validity gate (listing pages, 404s, empty pages and
// the bounced search form are rejected), then every field is extracted on its
// own. A miss leaves the field empty. Only the company name is required.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/types"
)

var (
	ErrSearchPage    = errors.New("landed on a search page")
	ErrNotFound      = errors.New("page not found")
	ErrTooShort      = errors.New("page has too little content")
	ErrSearchForm    = errors.New("landed on the search form")
	ErrNoCompanyName = errors.New("no company name")
	ErrDuplicate     = errors.New("duplicate telephone")
)

const (
	minContentLength = 100
	notFoundText     = "Sorry, we can't find"
	notFoundHTML     = "Page not found"
	searchFormText   = "Find aged care providers to support your needs"
)

// DefaultExcludedSites are hosts never reported as a provider website
var DefaultExcludedSites = []string{"myagedcare.gov.au", "bot.sannysoft.com"}

// Rejection explains why a page did not produce a record. It is not a failure.
type Rejection struct {
	URL    string
	Reason error
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("rejected %s: %v", r.URL, r.Reason)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

// Duplicates reports whether a telephone was already collected
type Duplicates interface {
	IsDuplicate(telephone string) bool
}

// Request carries the search context a detail page was reached from
type Request struct {
	Category string
	Query    types.SearchQuery
}

// Parser extracts records from detail page snapshots
type Parser struct {
	Seen          Duplicates
	ExcludedSites []string
	Logger        *log.Logger
}

// New creates a Parser that checks telephones against seen
func New(seen Duplicates, logger *log.Logger) *Parser {
	return &Parser{
		Seen:          seen,
		ExcludedSites: DefaultExcludedSites,
		Logger:        logger,
	}
}

// Parse validates the page and builds a record from it
func (p *Parser) Parse(snap *browser.Snapshot, req Request) (types.ProviderRecord, error) {
	if err := validate(snap); err != nil {
		return types.ProviderRecord{}, &Rejection{URL: snap.URL, Reason: err}
	}

	name, ok := CompanyNameFromHeadings(snap)
	if !ok {
		name, ok = CompanyNameFromText(snap.Text)
	}
	if !ok {
		return types.ProviderRecord{}, &Rejection{URL: snap.URL, Reason: ErrNoCompanyName}
	}

	telephone, _ := Telephone(snap.Text)
	email, _ := Email(snap.Text)
	website, _ := Website(snap.Text, p.ExcludedSites)
	address, _ := Address(snap.Text)
	suburb, state, postcode := req.Query.Parse()

	if telephone != "" && p.Seen != nil && p.Seen.IsDuplicate(telephone) {
		p.Logger.Info("Skipping duplicate", "telephone", telephone, "company", name)
		return types.ProviderRecord{}, &Rejection{URL: snap.URL, Reason: ErrDuplicate}
	}

	rec := types.ProviderRecord{
		CompanyName:    name,
		Address:        address,
		Suburb:         suburb,
		State:          state,
		Postcode:       postcode,
		Telephone:      telephone,
		Email:          email,
		Website:        website,
		SearchCategory: req.Category,
		SearchLocation: req.Query.String(),
		SourceURL:      snap.URL,
	}
	p.Logger.Debug("Parsed provider", "company", rec.CompanyName, "telephone", rec.Telephone)
	return rec, nil
}

func validate(snap *browser.Snapshot) error {
	u := snap.URL
	if strings.Contains(u, "results") ||
		(strings.Contains(u, "/find-a-provider/search") && !strings.Contains(u, "/find-a-provider/search/")) {
		return ErrSearchPage
	}

	if strings.Contains(snap.Title, notFoundText) || strings.Contains(snap.Title, "404") ||
		strings.Contains(snap.HTML, notFoundHTML) {
		return ErrNotFound
	}

	text := strings.TrimSpace(snap.Text)
	if strings.Contains(text, notFoundText) {
		return ErrNotFound
	}
	if utf8.RuneCountInString(text) < minContentLength {
		return ErrTooShort
	}
	if strings.Contains(text, searchFormText) {
		return ErrSearchForm
	}
	return nil
}
