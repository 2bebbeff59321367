package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"feed-ingest/utils"
)

// readBodyJS re-requests the current document from inside the page so the
// response text arrives unrendered, with any cookies the page has set.
const readBodyJS = `fetch(location.href, {credentials: 'include'}).then(function (r) {
	if (!r.ok) { throw new Error('HTTP ' + r.status); }
	return r.text();
})`

// BrowserTransport loads feeds through headless Chrome, for partner endpoints
// that sit behind a JavaScript challenge. One browser is started lazily and
// shared by all fetches; call Close when done.
type BrowserTransport struct {
	chromeBin string
	logger    *utils.Logger

	once        sync.Once
	startErr    error
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelCtx   context.CancelFunc
}

// NewBrowserTransport creates a BrowserTransport. An empty chromeBin searches
// CHROME_BIN, the PATH and the usual install locations.
func NewBrowserTransport(chromeBin string, logger *utils.Logger) *BrowserTransport {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &BrowserTransport{chromeBin: chromeBin, logger: logger}
}

func (b *BrowserTransport) start() error {
	b.once.Do(func() {
		b.logger.Info("[fetcher] starting headless browser: %s", b.chromeBin)

		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
			chromedp.UserAgent(UserAgent),
		)
		if b.chromeBin != "" {
			opts = append(opts, chromedp.ExecPath(b.chromeBin))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
		// Suppress chromedp log noise
		ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
		b.browserCtx, b.cancelAlloc, b.cancelCtx = ctx, cancelAlloc, cancelCtx

		// an empty Run launches the browser so tabs share it
		if err := chromedp.Run(ctx); err != nil {
			b.startErr = fmt.Errorf("start browser: %w", err)
		}
	})
	return b.startErr
}

// Get opens url in a fresh tab and returns the raw response text.
func (b *BrowserTransport) Get(ctx context.Context, url string) ([]byte, error) {
	if err := b.start(); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()

	// tie the tab to the caller's deadline and cancellation
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var body string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(readBodyJS, &body, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("browser fetch: %w", err)
	}
	if body == "" {
		return nil, errors.New("browser fetch: empty document")
	}
	return []byte(body), nil
}

// Close shuts the browser down.
func (b *BrowserTransport) Close() error {
	if b.cancelCtx != nil {
		b.cancelCtx()
		b.cancelAlloc()
	}
	return nil
}

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
