package parser

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/identity"
	"github.com/go-scripts/providercrawl/internal/types"
)

const detailURL = "https://www.myagedcare.gov.au/find-a-provider/aged-care-homes/sunshine-aged-care/1234"

const sunshinePage = `<html>
<head><title>Sunshine Aged Care | My Aged Care</title></head>
<body>
<nav><a href="/">Home</a><a href="/find-a-provider">Find a provider</a></nav>
<main>
	<h1>SUNSHINE AGED CARE</h1>
	<p>Residential aged care home offering permanent and respite care for older Australians.</p>
	<h2>Contact details</h2>
	<p>Phone 02 8388 8000</p>
	<p>Email info@example.com.au</p>
</main>
</body>
</html>`

var request = Request{Category: "aged-care-homes", Query: types.SearchQuery("SYDNEY NSW 2000")}

func newParser(seen Duplicates) *Parser {
	return New(seen, log.New(io.Discard))
}

func snapshot(t *testing.T, url, html string) *browser.Snapshot {
	t.Helper()
	snap, err := browser.FromHTML(url, html)
	require.NoError(t, err)
	return snap
}

func TestParseProvider(t *testing.T) {
	rec, err := newParser(identity.New()).Parse(snapshot(t, detailURL, sunshinePage), request)
	require.NoError(t, err)

	assert.Equal(t, types.ProviderRecord{
		CompanyName:    "SUNSHINE AGED CARE",
		Suburb:         "SYDNEY",
		State:          "NSW",
		Postcode:       "2000",
		Telephone:      "02 8388 8000",
		Email:          "info@example.com.au",
		SearchCategory: "aged-care-homes",
		SearchLocation: "SYDNEY NSW 2000",
		SourceURL:      detailURL,
	}, rec)
}

func TestParseAddressAndWebsite(t *testing.T) {
	html := `<body><main>
		<h1>Rose Bay Care<br>Part of Example Group</h1>
		<p>Address: 1 Cranbrook Road, Rose Bay 2029 NSW</p>
		<p>Call 02 9371 0000 or visit https://rosebaycare.example.com.au/about for more details.</p>
		<p><a href="https://www.myagedcare.gov.au/help">https://www.myagedcare.gov.au/help</a></p>
	</main></body>`

	req := Request{Category: "help-at-home", Query: types.SearchQuery("ROSE BAY NSW 2029")}
	rec, err := newParser(nil).Parse(snapshot(t, detailURL, html), req)
	require.NoError(t, err)

	assert.Equal(t, "Rose Bay Care", rec.CompanyName)
	assert.Equal(t, "1 CRANBROOK ROAD, ROSE BAY 2029 NSW", rec.Address)
	assert.Equal(t, "ROSE BAY", rec.Suburb)
	assert.Equal(t, "NSW", rec.State)
	assert.Equal(t, "2029", rec.Postcode)
	assert.Equal(t, "02 9371 0000", rec.Telephone)
	assert.Equal(t, "https://rosebaycare.example.com.au/about", rec.Website)
	assert.Empty(t, rec.Email)
}

func TestParseCompanyNameFromText(t *testing.T) {
	html := `<body>
		<div>Home</div>
		<div>Find a provider</div>
		<div>BAYVIEW CARE SERVICES</div>
		<div>we provide personal care, domestic assistance and transport for people living at home nearby.</div>
	</body>`

	rec, err := newParser(nil).Parse(snapshot(t, detailURL, html), request)
	require.NoError(t, err)
	assert.Equal(t, "BAYVIEW CARE SERVICES", rec.CompanyName)
}

func TestParseRejections(t *testing.T) {
	long := strings.Repeat("this provider offers care and support services. ", 4)

	tests := []struct {
		name string
		url  string
		html string
		want error
	}{
		{
			name: "results listing",
			url:  "https://www.myagedcare.gov.au/find-a-provider/search/results?searchType=aged-care-homes",
			html: sunshinePage,
			want: ErrSearchPage,
		},
		{
			name: "search landing",
			url:  "https://www.myagedcare.gov.au/find-a-provider/search?location=SYDNEY",
			html: sunshinePage,
			want: ErrSearchPage,
		},
		{
			name: "not found title",
			url:  detailURL,
			html: `<head><title>404 | My Aged Care</title></head><body><p>` + long + `</p></body>`,
			want: ErrNotFound,
		},
		{
			name: "not found html",
			url:  detailURL,
			html: `<body><h1>Page not found</h1><p>` + long + `</p></body>`,
			want: ErrNotFound,
		},
		{
			name: "sorry text",
			url:  detailURL,
			html: `<body><p>Sorry, we can't find that page</p></body>`,
			want: ErrNotFound,
		},
		{
			name: "too short",
			url:  detailURL,
			html: `<body><h1>Provider</h1><p>Call us.</p></body>`,
			want: ErrTooShort,
		},
		{
			name: "bounced to search form",
			url:  detailURL,
			html: `<body><main><h1>Find a provider</h1><p>Find aged care providers to support your needs. ` + long + `</p></main></body>`,
			want: ErrSearchForm,
		},
		{
			name: "no company name",
			url:  detailURL,
			html: `<body><p>` + long + `</p></body>`,
			want: ErrNoCompanyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newParser(nil).Parse(snapshot(t, tt.url, tt.html), request)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var rejection *Rejection
			require.True(t, errors.As(err, &rejection))
			assert.Equal(t, tt.url, rejection.URL)
		})
	}
}

func TestParseDuplicate(t *testing.T) {
	seen := identity.New()
	seen.Add("(02) 8388-8000")

	_, err := newParser(seen).Parse(snapshot(t, detailURL, sunshinePage), request)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestParseWithoutTelephoneIsNeverDuplicate(t *testing.T) {
	seen := identity.New()
	seen.Add("02 8388 8000")

	html := strings.Replace(sunshinePage, "Phone 02 8388 8000", "Phone on request", 1)
	rec, err := newParser(seen).Parse(snapshot(t, detailURL, html), request)
	require.NoError(t, err)
	assert.Empty(t, rec.Telephone)
}

func TestTelephone(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Call 02 8388 8000 today", "02 8388 8000", true},
		{"Free call 1800 200 422", "1800 200 422", true},
		{"Tel 02-9999-1234", "02-9999-1234", true},
		{"Tel 1300-555-111", "1300-555-111", true},
		{"Updated 20250301, phone 98765432", "98765432", true},
		{"Mobile 0412345678", "0412345678", true},
		{"Call 02\u00a08388\u00a08000 today", "02 8388 8000", true},
		{"Reviewed 20241231", "", false},
		{"No number here", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Telephone(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddress(t *testing.T) {
	got, ok := Address("Address: 1 Cranbrook Road, Rose Bay 2029 NSW")
	assert.True(t, ok)
	assert.Equal(t, "1 CRANBROOK ROAD, ROSE BAY 2029 NSW", got)

	got, ok = Address("12 Smith Street Fitzroy 3065 VIC")
	assert.True(t, ok)
	assert.Equal(t, "12 SMITH STREET FITZROY 3065 VIC", got)

	_, ok = Address("Somewhere in Sydney")
	assert.False(t, ok)

	got, ok = Address("1 Cranbrook Road, Rose Bay\u00a02029\u00a0NSW")
	assert.True(t, ok, "non-breaking spaces count as whitespace")
	assert.Equal(t, "1 CRANBROOK ROAD, ROSE BAY 2029 NSW", got)

	got, ok = Address("12\u00a0Smith Street Fitzroy\u00a03065 VIC")
	assert.True(t, ok)
	assert.Equal(t, "12 SMITH STREET FITZROY 3065 VIC", got)
}

func TestWebsite(t *testing.T) {
	text := "See https://www.myagedcare.gov.au/help, https://bot.sannysoft.com and http://care.example.org/home today"
	got, ok := Website(text, DefaultExcludedSites)
	assert.True(t, ok)
	assert.Equal(t, "http://care.example.org/home", got)

	_, ok = Website("https://www.myagedcare.gov.au only", DefaultExcludedSites)
	assert.False(t, ok)
}

func TestEmail(t *testing.T) {
	got, ok := Email("Contact intake.team@care-group.com.au for bookings")
	assert.True(t, ok)
	assert.Equal(t, "intake.team@care-group.com.au", got)

	_, ok = Email("no email")
	assert.False(t, ok)
}

func TestCompanyNameFromText(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Home\nSearch results\nOAKWOOD LODGE\nmore", "OAKWOOD LODGE", true},
		{"abc\nOak\nthe Oakwood Lodge team", "the Oakwood Lodge team", true},
		{"print this page\nshare\nall lower case", "", false},
	}
	for _, tt := range tests {
		got, ok := CompanyNameFromText(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}
