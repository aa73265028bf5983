package popup

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
)

const url = "https://example.com/results"

func TestDismiss(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   bool
		target browser.Target
	}{
		{
			name:   "button text",
			html:   `<body><div class="popover"><button>Got it</button></div></body>`,
			want:   true,
			target: browser.Target{Selector: "button", Text: "Got it"},
		},
		{
			name:   "aria label",
			html:   `<body><a aria-label="Got it, close">x</a></body>`,
			want:   true,
			target: browser.Target{Selector: "[aria-label*='Got it']"},
		},
		{
			name: "hidden popup",
			html: `<body><div style="display:none"><button>Got it</button></div></body>`,
		},
		{
			name: "no popup",
			html: `<body><button>Search</button></body>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.New()
			page.Pages[url] = tt.html
			_, err := page.Navigate(context.Background(), url, 0)
			require.NoError(t, err)

			d := New(0, log.New(io.Discard))
			assert.Equal(t, tt.want, d.Dismiss(context.Background(), page))
			if tt.want {
				require.Len(t, page.Clicks, 1)
				assert.Equal(t, tt.target, page.Clicks[0])
			} else {
				assert.Empty(t, page.Clicks)
			}
		})
	}
}

func TestDismissSettleStopsOnDeadline(t *testing.T) {
	page := browsertest.New()
	page.Pages[url] = `<body><div class="popover"><button>Got it</button></div></body>`
	_, err := page.Navigate(context.Background(), url, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	ok := New(time.Hour, log.New(io.Discard)).Dismiss(ctx, page)
	assert.True(t, ok, "the click already happened")
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Len(t, page.Clicks, 1)
}
