package printing

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultMaxParallel   = 2
	mmPerInch            = 25.4
	// Chrome draws header and footer templates inside the page margin
	headerFooterMarginMM = 10
)

// ChromedpConfig configures the headless Chrome used for PDF output
type ChromedpConfig struct {
	DefaultTimeout time.Duration
	// RemoteURL points at a running Chrome's DevTools endpoint; empty starts a local one
	RemoteURL string
	ExecPath  string
	// MaxParallel caps the tabs rendering at once
	MaxParallel int
	// NoSandbox is needed when Chrome runs as root in a container
	NoSandbox bool
	Logger    *zap.Logger
}

// ChromedpRenderer prints HTML to PDF in a shared headless browser, one tab
// per render
type ChromedpRenderer struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabs        *semaphore.Weighted
}

// NewChromedpRenderer prepares the browser allocator. Chrome itself starts
// lazily with the first render.
func NewChromedpRenderer(cfg *ChromedpConfig) (*ChromedpRenderer, error) {
	if cfg == nil {
		cfg = &ChromedpConfig{}
	}
	parallel := cfg.MaxParallel
	if parallel <= 0 {
		parallel = defaultMaxParallel
	}
	r := &ChromedpRenderer{
		timeout: cfg.DefaultTimeout,
		logger:  cfg.Logger,
		tabs:    semaphore.NewWeighted(int64(parallel)),
	}
	if r.timeout <= 0 {
		r.timeout = defaultChromeTimeout
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r, nil
}

// Render prints req.HTML to PDF
func (r *ChromedpRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	switch {
	case req == nil || strings.TrimSpace(req.HTML) == "":
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	case !req.PaperSize.IsValid():
		return nil, NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.tabs.Acquire(ctx, 1); err != nil {
		return nil, NewRenderError(ErrCodeRenderTimeout, "no browser tab became available", err)
	}
	defer r.tabs.Release(1)

	// the tab lives under the allocator; ctx only bounds it
	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) { r.logger.Debug(fmt.Sprintf(format, args...)) }),
	)
	defer tabCancel()
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	started := time.Now()
	document := wrapDocument(req)
	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, document).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			pdf, _, err = printParams(req).Do(ctx)
			return err
		}),
	)
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
	case ctx.Err() != nil:
		return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", ctx.Err())
	case err != nil:
		r.logger.Error("chromedp rendering failed", zap.Error(err))
		return nil, NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
	case len(pdf) == 0:
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	result := &RenderResult{PDF: pdf, Pages: countPages(pdf), Took: time.Since(started)}
	r.logger.Debug("PDF rendered",
		zap.String("title", req.Title),
		zap.Int("bytes", len(pdf)),
		zap.Int("pages", result.Pages),
		zap.Duration("duration", result.Took))
	return result, nil
}

// Close stops the browser
func (r *ChromedpRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// printParams translates a request into DevTools print parameters. Chrome
// measures paper in inches.
func printParams(req *RenderRequest) *page.PrintToPDFParams {
	width, height := req.PaperSize.Dimensions()
	top, bottom := float64(req.Margins.Top), float64(req.Margins.Bottom)
	if req.HeaderHTML != "" {
		top = max(top, headerFooterMarginMM)
	}
	if req.FooterHTML != "" {
		bottom = max(bottom, headerFooterMarginMM)
	}

	return page.PrintToPDF().
		WithPrintBackground(true).
		WithLandscape(req.Orientation == OrientationLandscape).
		WithPaperWidth(width / mmPerInch).
		WithPaperHeight(height / mmPerInch).
		WithMarginTop(top / mmPerInch).
		WithMarginBottom(bottom / mmPerInch).
		WithMarginLeft(float64(req.Margins.Left) / mmPerInch).
		WithMarginRight(float64(req.Margins.Right) / mmPerInch).
		WithDisplayHeaderFooter(req.HeaderHTML != "" || req.FooterHTML != "").
		// an empty template makes Chrome print its default date and URL line
		WithHeaderTemplate(cmp.Or(req.HeaderHTML, "<span></span>")).
		WithFooterTemplate(cmp.Or(req.FooterHTML, "<span></span>"))
}

// wrapDocument turns a fragment into a full UTF-8 page; full documents pass through
func wrapDocument(req *RenderRequest) string {
	head := strings.ToLower(req.HTML[:min(len(req.HTML), 512)])
	if strings.Contains(head, "<!doctype") || strings.Contains(head, "<html") {
		return req.HTML
	}
	return `<!DOCTYPE html><html><head><meta charset="UTF-8"><title>` + html.EscapeString(req.Title) +
		`</title></head><body>` + req.HTML + `</body></html>`
}

// countPages counts page objects, leaving out the /Pages tree nodes
func countPages(pdf []byte) int {
	return max(bytes.Count(pdf, []byte("/Type /Page"))-bytes.Count(pdf, []byte("/Type /Pages")), 1)
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
