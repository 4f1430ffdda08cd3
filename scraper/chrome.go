package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"estate-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const urlPollInterval = 250 * time.Millisecond

// ChromeOptions configures the headless browser session.
type ChromeOptions struct {
	ExecPath    string
	Headless    bool
	LoadImages  bool
	WaitTimeout time.Duration
	// MinNavigationGap spaces out page loads. Zero disables the limiter.
	MinNavigationGap time.Duration
}

// ChromeBrowser drives a single Chrome tab through chromedp. It is not safe
// for concurrent use; collectors take turns owning it.
type ChromeBrowser struct {
	tabCtx      context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *utils.Logger
}

// NewChromeBrowser starts Chrome and opens the tab every page load goes
// through.
func NewChromeBrowser(opts ChromeOptions, logger *utils.Logger) (*ChromeBrowser, error) {
	chromeBin := opts.ExecPath
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[chrome] Using browser binary: %q", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if !opts.LoadImages {
		allocOpts = append(allocOpts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("chrome: start browser: %w", err)
	}

	timeout := opts.WaitTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	b := &ChromeBrowser{
		tabCtx:      tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     timeout,
		logger:      logger,
	}
	if opts.MinNavigationGap > 0 {
		b.limiter = rate.NewLimiter(rate.Every(opts.MinNavigationGap), 1)
	}
	return b, nil
}

// Navigate loads url in the tab and waits for the load event.
func (b *ChromeBrowser) Navigate(ctx context.Context, url string) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("chrome: navigate %s: %w", url, err)
		}
	}
	return b.run(ctx, "navigate "+url, chromedp.Navigate(url))
}

// WaitUntil blocks until cond holds or the wait timeout passes.
func (b *ChromeBrowser) WaitUntil(ctx context.Context, cond Condition) error {
	if want, ok := cond.URL(); ok {
		return b.waitURL(ctx, want)
	}
	sel, _ := cond.Selector()
	by := queryOption(sel)
	return b.run(ctx, "wait "+cond.String(),
		chromedp.WaitVisible(sel.Query, by),
		chromedp.WaitEnabled(sel.Query, by),
	)
}

func (b *ChromeBrowser) waitURL(ctx context.Context, want string) error {
	opCtx, cancel := b.opContext(ctx)
	defer cancel()

	for {
		var current string
		if err := chromedp.Run(opCtx, chromedp.Location(&current)); err != nil {
			return b.classify(ctx, "wait url "+want, err)
		}
		if sameURL(current, want) {
			return nil
		}

		select {
		case <-opCtx.Done():
			return b.classify(ctx, "wait url "+want, opCtx.Err())
		case <-time.After(urlPollInterval):
		}
	}
}

// Click clicks the first element matching sel.
func (b *ChromeBrowser) Click(ctx context.Context, sel Selector) error {
	return b.run(ctx, "click "+sel.String(), chromedp.Click(sel.Query, queryOption(sel)))
}

// Hover moves the pointer onto the element, firing the events a real mouse
// would.
func (b *ChromeBrowser) Hover(ctx context.Context, sel Selector) error {
	query, err := json.Marshal(sel.Query)
	if err != nil {
		return fmt.Errorf("chrome: hover %s: %w", sel, err)
	}

	var found bool
	script := fmt.Sprintf(hoverScript, query, sel.XPath)
	if err := b.run(ctx, "hover "+sel.String(), chromedp.Evaluate(script, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("chrome: hover %s: %w", sel, ErrElementNotFound)
	}
	return nil
}

// Source returns the rendered markup of the current page.
func (b *ChromeBrowser) Source(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, "read source", chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the tab and the browser process down.
func (b *ChromeBrowser) Close() error {
	b.cancelTab()
	b.cancelAlloc()
	return nil
}

func (b *ChromeBrowser) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	opCtx, cancel := b.opContext(ctx)
	defer cancel()
	return b.classify(ctx, op, chromedp.Run(opCtx, actions...))
}

// opContext derives a per-operation context from the tab. Cancelling it
// aborts the operation but keeps the tab alive; ctx cancellation propagates.
func (b *ChromeBrowser) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(b.tabCtx, b.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (b *ChromeBrowser) classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("chrome: %s: %w", op, ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("chrome: %s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("chrome: %s: %w", op, err)
}

func queryOption(sel Selector) chromedp.QueryOption {
	if sel.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func sameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

const hoverScript = `(function(query, xpath) {
	const el = xpath
		? document.evaluate(query, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue
		: document.querySelector(query);
	if (!el) return false;
	el.scrollIntoView({block: "center"});
	for (const type of ["mouseover", "mouseenter", "mousemove"]) {
		el.dispatchEvent(new MouseEvent(type, {bubbles: true, view: window}));
	}
	return true;
})(%s, %t)`

func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
