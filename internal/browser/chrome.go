package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/emulation"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// stealthScript hides the usual automation fingerprints
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {
	get: () => undefined,
});
Object.defineProperty(navigator, 'plugins', {
	get: () => [1, 2, 3, 4, 5],
});
`

// Options configures the Chrome tab
type Options struct {
	Headless   bool
	UserAgent  string
	Width      int
	Height     int
	Locale     string
	Timezone   string
	ExecPath   string
	NavTimeout time.Duration
	Logger     *log.Logger
}

// Chrome is a Page backed by a chromedp tab
type Chrome struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	logger *log.Logger
}

// NewChrome starts a browser with one tab configured for crawling
func NewChrome(parent context.Context, opts Options) (*Chrome, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-http2", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(logger.Errorf),
	)
	cancel := func() {
		tabCancel()
		allocCancel()
	}

	// First Run launches the browser
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.ActionFunc(func(ctx context.Context) error {
			if _, err := cdppage.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx); err != nil {
				return fmt.Errorf("failed to add stealth script: %w", err)
			}
			if opts.Locale != "" {
				if err := emulation.SetLocaleOverride().WithLocale(opts.Locale).Do(ctx); err != nil {
					return fmt.Errorf("failed to set locale: %w", err)
				}
			}
			if opts.Timezone != "" {
				if err := emulation.SetTimezoneOverride(opts.Timezone).Do(ctx); err != nil {
					return fmt.Errorf("failed to set timezone: %w", err)
				}
			}
			return nil
		}),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Chrome{
		ctx:    tabCtx,
		cancel: cancel,
		opts:   opts,
		logger: logger,
	}, nil
}

// Close releases the tab and the browser process
func (c *Chrome) Close() {
	c.cancel()
}

// runContext derives a chromedp context that also ends when ctx ends
func (c *Chrome) runContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(c.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url, waits for the body and then for settle
func (c *Chrome) Navigate(ctx context.Context, url string, settle time.Duration) (*Snapshot, error) {
	runCtx, cancel := c.runContext(ctx, c.opts.NavTimeout)
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	if err := Sleep(ctx, settle); err != nil {
		return nil, err
	}
	return c.Snapshot(ctx)
}

type rawSnapshot struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
	BodyText string `json:"body_text"`
}

// Snapshot marks hidden elements, then captures url, title, html and text
func (c *Chrome) Snapshot(ctx context.Context) (*Snapshot, error) {
	selectors, _ := json.Marshal(ContentSelectors)
	script := fmt.Sprintf(`
	(() => {
		const hidden = (el) => {
			const st = window.getComputedStyle(el);
			return st.display === 'none' || st.visibility === 'hidden' || el.getClientRects().length === 0;
		};
		document.querySelectorAll('[%[1]s]').forEach(el => el.removeAttribute('%[1]s'));
		if (document.body) {
			document.body.querySelectorAll('*').forEach(el => {
				if (hidden(el)) el.setAttribute('%[1]s', '1');
			});
		}

		const body = document.body ? document.body.innerText.trim() : '';
		let text = '';
		for (const sel of %[2]s) {
			const el = document.querySelector(sel);
			if (!el) continue;
			const t = (el.innerText || '').trim();
			if (t.length > 100) {
				text = t;
				break;
			}
		}

		return {
			url: window.location.href,
			title: document.title,
			html: document.documentElement.outerHTML,
			text: text || body,
			body_text: body
		};
	})()`, HiddenAttr, selectors)

	runCtx, cancel := c.runContext(ctx, c.opts.NavTimeout)
	defer cancel()

	var raw rawSnapshot
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &raw)); err != nil {
		return nil, fmt.Errorf("failed to capture page: %w", err)
	}
	return NewSnapshot(raw.URL, raw.Title, raw.HTML, raw.Text, raw.BodyText)
}

// Click clicks the first rendered element matching the target
func (c *Chrome) Click(ctx context.Context, t Target) (bool, error) {
	script := fmt.Sprintf(`
	((sel, text) => {
		for (const el of document.querySelectorAll(sel)) {
			const st = window.getComputedStyle(el);
			if (st.display === 'none' || st.visibility === 'hidden' || el.getClientRects().length === 0) continue;
			if (text && !(el.innerText || '').toLowerCase().includes(text.toLowerCase())) continue;
			el.click();
			return true;
		}
		return false;
	})(%q, %q)`, t.Selector, t.Text)

	runCtx, cancel := c.runContext(ctx, c.opts.NavTimeout)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("click on %s failed: %w", t, err)
	}
	return clicked, nil
}
