package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/godeepl"
	"github.com/abadojack/whatlanggo"
	"github.com/chromedp/chromedp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultPageURL is the DeepL web translator.
	DefaultPageURL = "https://www.deepl.com/translator"

	// DefaultResultSelector matches the target text area of the web translator.
	DefaultResultSelector = `d-textarea[data-testid="translator-target-input"]`

	// DefaultNavigateTimeout bounds loading the translator page.
	DefaultNavigateTimeout = 30 * time.Second
)

// BrowserConfig holds configuration for the browser provider.
type BrowserConfig struct {
	PageURL         string                  // Translator page (default: DefaultPageURL)
	ExecPath        string                  // Chrome/Chromium executable (default: looked up by chromedp)
	ResultSelector  string                  // CSS selector of the result element
	UserAgent       string                  // Optional user agent override
	Headful         bool                    // Show the browser window
	NavigateTimeout time.Duration           // Page load budget (default: 30s)
	Stability       godeepl.StabilityConfig // Result polling (default: godeepl.DefaultStabilityConfig)
	Logger          *slog.Logger            // Logger (default: slog.Default())
}

func defaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		PageURL:         DefaultPageURL,
		ResultSelector:  DefaultResultSelector,
		NavigateTimeout: DefaultNavigateTimeout,
		Stability:       godeepl.DefaultStabilityConfig(),
	}
}

// page is the part of a browser tab the provider drives.
type page interface {
	Navigate(ctx context.Context, url string) error
	InnerHTML(ctx context.Context, selector string) (string, error)
	Close() error
}

// BrowserProvider implements Provider by loading the DeepL web translator
// in a headless browser and reading the result once it stops changing.
//
// One browser and tab are started on first use and reused; calls are
// serialized. Close tears the browser down.
type BrowserProvider struct {
	cfg    BrowserConfig
	logger *slog.Logger

	mu   sync.Mutex
	page page
	open func() (page, error)

	newID func() int64
}

// NewBrowserProvider creates a browser provider. The browser itself is
// not started until the first Translate call.
func NewBrowserProvider(cfg BrowserConfig) (*BrowserProvider, error) {
	if err := mergo.Merge(&cfg, defaultBrowserConfig()); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &BrowserProvider{
		cfg:    cfg,
		logger: cfg.Logger,
		newID:  func() int64 { return rand.Int64N(1_000_000) },
	}
	p.open = p.startChrome
	return p, nil
}

// Translate loads the translator page for req and waits for the result.
func (p *BrowserProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	if err := godeepl.ValidateRequest(req); err != nil {
		return nil, err
	}

	source := godeepl.NormalizeLang(req.SourceLang)
	if source == "" {
		source = godeepl.AutoLang
	}
	target := godeepl.NormalizeLang(req.TargetLang)

	ctx, span := tracer.Start(ctx, "BrowserProvider.Translate", trace.WithAttributes(
		attribute.String("source_lang", source),
		attribute.String("target_lang", target),
	))
	defer span.End()

	text, err := p.run(ctx, p.pageURL(source, target, req.Text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if source == godeepl.AutoLang {
		source = detectSource(req.Text)
	}

	return &Result{
		Code:         http.StatusOK,
		ID:           p.newID(),
		Method:       godeepl.MethodBrowser,
		Data:         text,
		Alternatives: []string{},
		SourceLang:   source,
		TargetLang:   target,
	}, nil
}

func (p *BrowserProvider) run(ctx context.Context, pageURL string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pg, err := p.tab()
	if err != nil {
		return "", err
	}

	navCtx, cancel := context.WithTimeout(ctx, p.cfg.NavigateTimeout)
	defer cancel()

	// A fresh page load per call keeps the previous result out of the samples.
	if err := pg.Navigate(navCtx, "about:blank"); err != nil {
		return "", p.browserError(ctx, "navigate", err)
	}
	if err := pg.Navigate(navCtx, pageURL); err != nil {
		return "", p.browserError(ctx, "navigate", err)
	}

	p.logger.DebugContext(ctx, "waiting for translation", "selector", p.cfg.ResultSelector)

	return godeepl.WaitStable(ctx, func(ctx context.Context) (string, error) {
		html, err := pg.InnerHTML(ctx, p.cfg.ResultSelector)
		if err != nil {
			return "", err
		}
		return extractText(html), nil
	}, p.cfg.Stability)
}

// tab returns the shared page, starting the browser if needed.
func (p *BrowserProvider) tab() (page, error) {
	if p.page != nil {
		return p.page, nil
	}

	pg, err := p.open()
	if err != nil {
		return nil, &godeepl.ProviderError{Message: "starting browser", Cause: err}
	}
	p.page = pg
	return pg, nil
}

func (p *BrowserProvider) browserError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &godeepl.StatusError{Code: http.StatusRequestTimeout, Message: op + " timed out", Cause: err}
	}

	// The tab may be gone; start over on the next call.
	if p.page != nil {
		_ = p.page.Close()
		p.page = nil
	}
	return &godeepl.ProviderError{Message: op + " failed", Cause: err}
}

// Close shuts the browser down. It is safe to call more than once.
func (p *BrowserProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.page == nil {
		return nil
	}
	err := p.page.Close()
	p.page = nil
	return err
}

// pageURL builds <PageURL>#<src>/<tgt>/<text>.
func (p *BrowserProvider) pageURL(source, target, text string) string {
	return fmt.Sprintf("%s#%s/%s/%s",
		p.cfg.PageURL,
		strings.ToLower(source),
		strings.ToLower(target),
		url.PathEscape(text),
	)
}

// extractText returns the visible text of the result element, one line
// per paragraph.
func extractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	paragraphs := doc.Find("p")
	if paragraphs.Length() == 0 {
		return strings.TrimSpace(doc.Text())
	}

	lines := make([]string, 0, paragraphs.Length())
	paragraphs.Each(func(_ int, s *goquery.Selection) {
		lines = append(lines, strings.TrimSpace(s.Text()))
	})
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// detectSource guesses the source language locally; the web page does not
// expose the one it detected.
func detectSource(text string) string {
	code := godeepl.MatchSupported(whatlanggo.DetectLang(text).Iso6391())
	if code == "" {
		return strings.ToUpper(godeepl.AutoLang)
	}
	return code
}

// chromePage drives one chromedp tab.
type chromePage struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func (p *BrowserProvider) startChrome() (page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !p.cfg.Headful),
	)
	if p.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ExecPath))
	}
	if p.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		p.logger.Debug(fmt.Sprintf(format, args...))
	}))

	// Run with no actions starts the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}

	p.logger.Info("browser started", "headless", !p.cfg.Headful)
	return &chromePage{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc}, nil
}

// bind derives a context that runs actions in the tab but is cancelled
// together with ctx.
func (c *chromePage) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(c.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (c *chromePage) Navigate(ctx context.Context, pageURL string) error {
	runCtx, cancel := c.bind(ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Navigate(pageURL))
}

func (c *chromePage) InnerHTML(ctx context.Context, selector string) (string, error) {
	runCtx, cancel := c.bind(ctx)
	defer cancel()

	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", err
	}
	script := fmt.Sprintf(`(function(){var el=document.querySelector(%s);return el?el.innerHTML:"";})()`, quoted)

	var html string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &html)); err != nil {
		return "", err
	}
	return html, nil
}

func (c *chromePage) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancelTab()
	c.cancelAlloc()
	return err
}

var _ Provider = (*BrowserProvider)(nil)
