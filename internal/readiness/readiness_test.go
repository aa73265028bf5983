package readiness

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/providercrawl/internal/browser"
	"github.com/go-scripts/providercrawl/internal/browser/browsertest"
	"github.com/go-scripts/providercrawl/internal/popup"
)

const resultsURL = "https://www.myagedcare.gov.au/find-a-provider/search/results?searchType=aged-care-homes"

func newDetector(attempts int) *Detector {
	logger := log.New(io.Discard)
	d := New(popup.New(0, logger), logger)
	d.Attempts = attempts
	d.Interval = time.Millisecond
	return d
}

func navigate(t *testing.T, page *browsertest.Page, url string) {
	t.Helper()
	_, err := page.Navigate(context.Background(), url, 0)
	require.NoError(t, err)
}

func TestAwait(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Status
	}{
		{
			name: "article cards",
			html: `<body><article><h3><a href="/find-a-provider/a">A</a></h3></article></body>`,
			want: HasResults,
		},
		{
			name: "card class",
			html: `<body><div class="provider-card">x</div></body>`,
			want: HasResults,
		},
		{
			name: "no providers text",
			html: `<body><article>header</article><p>No providers found</p></body>`,
			want: NoResults,
		},
		{
			name: "zero results",
			html: `<body><p>Showing 0 results for SYDNEY</p></body>`,
			want: NoResults,
		},
		{
			name: "ten results is not zero",
			html: `<body><p>10 results</p><article>x</article></body>`,
			want: HasResults,
		},
		{
			name: "no results element",
			html: `<body><div data-testid="search-no-results">Nothing</div></body>`,
			want: NoResults,
		},
		{
			name: "hidden no results element is ignored",
			html: `<body><div class="no-results" hidden>Nothing</div><h2>Providers</h2></body>`,
			want: HasResults,
		},
		{
			name: "hidden article skipped for next selector",
			html: `<body><article style="display:none">x</article><div class="result-item">r</div></body>`,
			want: HasResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.New()
			page.Pages[resultsURL] = tt.html
			navigate(t, page, resultsURL)

			status, snap, err := newDetector(5).Await(context.Background(), page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
			assert.NotNil(t, snap)
		})
	}
}

func TestAwaitRedirectToSearchForm(t *testing.T) {
	page := browsertest.New()
	page.Pages[resultsURL] = `<body><form><h2>Find a provider</h2></form></body>`
	page.Redirects[resultsURL] = "https://www.myagedcare.gov.au/find-a-provider/search"
	navigate(t, page, resultsURL)

	status, _, err := newDetector(5).Await(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, NoResults, status)
}

func TestAwaitResultsRenderLate(t *testing.T) {
	page := browsertest.New()
	page.Polls[resultsURL] = []string{
		`<body><div class="spinner">Loading</div></body>`,
		`<body><div class="spinner">Loading</div></body>`,
		`<body><li role="article">Provider</li></body>`,
	}
	navigate(t, page, resultsURL)

	status, snap, err := newDetector(10).Await(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, HasResults, status)
	assert.Contains(t, snap.BodyText, "Provider")
	assert.Equal(t, 3, page.Snapshots)
}

func TestAwaitKeepsPollingAfterSnapshotError(t *testing.T) {
	page := browsertest.New()
	page.Pages[resultsURL] = `<body><article><h3><a href="/find-a-provider/a">A</a></h3></article></body>`
	navigate(t, page, resultsURL)
	page.SnapshotFailures = 2

	status, snap, err := newDetector(5).Await(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, HasResults, status)
	require.NotNil(t, snap)
	assert.Equal(t, 3, page.Snapshots)
}

func TestAwaitSnapshotErrorsExhaustAttempts(t *testing.T) {
	page := browsertest.New()
	page.Pages[resultsURL] = `<body><article>Provider</article></body>`
	navigate(t, page, resultsURL)
	page.SnapshotFailures = 100

	status, _, err := newDetector(4).Await(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, Unknown, status)
	assert.Equal(t, 5, page.Snapshots, "every attempt plus the final check")
}

func TestAwaitSnapshotErrorAfterCancel(t *testing.T) {
	page := browsertest.New()
	page.Pages[resultsURL] = `<body><article>Provider</article></body>`
	navigate(t, page, resultsURL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, _, err := newDetector(4).Await(ctx, page)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Unknown, status)
}

func TestAwaitDismissesPopup(t *testing.T) {
	page := browsertest.New()
	page.Pages[resultsURL] = `<body><div class="popover"><button>Got it</button></div></body>`
	page.AfterClick[resultsURL] = `<body><article>Provider</article></body>`
	navigate(t, page, resultsURL)

	status, _, err := newDetector(3).Await(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, HasResults, status)
	assert.Len(t, page.Clicks, 1)
}

func TestAwaitNeverResolves(t *testing.T) {
	page := browsertest.New()
	page.Pages[resultsURL] = `<body><div class="spinner">Loading</div></body>`
	navigate(t, page, resultsURL)

	d := newDetector(DefaultAttempts)
	done := make(chan Status, 1)
	go func() {
		status, _, err := d.Await(context.Background(), page)
		assert.NoError(t, err)
		done <- status
	}()

	select {
	case status := <-done:
		assert.Equal(t, Unknown, status)
	case <-time.After(5 * time.Second):
		t.Fatal("detector did not terminate")
	}
	assert.Equal(t, DefaultAttempts+1, page.Snapshots)
}

func TestAwaitCancelled(t *testing.T) {
	page := browsertest.New()
	page.Pages[resultsURL] = `<body>Loading</body>`
	navigate(t, page, resultsURL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := newDetector(5).Await(ctx, page)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoResultsReason(t *testing.T) {
	snap, err := browser.FromHTML(resultsURL, `<body><p>We couldn't find any providers near you</p></body>`)
	require.NoError(t, err)
	reason, ok := NoResultsReason(snap)
	assert.True(t, ok)
	assert.Contains(t, reason, "text")
}
