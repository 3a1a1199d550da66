package godeepl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("github.com/ZaguanLabs/godeepl")

// Translator is the main entry point. It validates requests, splits long
// texts, and routes every chunk through the configured provider with
// rate limiting, retry on 429 and caching.
type Translator struct {
	provider         Provider
	backend          Provider
	cache            TranslationCache
	retry            *RetryConfig
	rateLimit        *RateLimitConfig
	logger           *slog.Logger
	chunkSize        int
	batchConcurrency int
	tagHandling      TagHandling
	group            singleflight.Group
}

// Provider is the interface for translation backends.
type Provider interface {
	Translate(ctx context.Context, req Request) (*Result, error)
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithRetryConfig replaces the default 10s/30s/60s retry schedule.
func WithRetryConfig(cfg RetryConfig) TranslatorOption {
	return func(t *Translator) {
		t.retry = &cfg
	}
}

// WithoutRetry disables retrying rate-limited calls.
func WithoutRetry() TranslatorOption {
	return func(t *Translator) {
		t.retry = nil
	}
}

// WithRateLimit spaces out provider calls on the client side.
func WithRateLimit(cfg RateLimitConfig) TranslatorOption {
	return func(t *Translator) {
		t.rateLimit = &cfg
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) TranslatorOption {
	return func(t *Translator) {
		t.logger = logger
	}
}

// WithChunkSize sets the largest chunk, in runes, sent in one call.
// Values above MaxTextLength are clamped.
func WithChunkSize(n int) TranslatorOption {
	return func(t *Translator) {
		t.chunkSize = n
	}
}

// WithBatchConcurrency sets how many batch items may be in flight at once
// (default: 1).
func WithBatchConcurrency(n int) TranslatorOption {
	return func(t *Translator) {
		t.batchConcurrency = n
	}
}

// WithTagHandling sets the default tag handling for Translate calls.
func WithTagHandling(h TagHandling) TranslatorOption {
	return func(t *Translator) {
		t.tagHandling = h
	}
}

// NewTranslator creates a new Translator around provider.
func NewTranslator(provider Provider, opts ...TranslatorOption) *Translator {
	retry := DefaultRetryConfig()
	t := &Translator{
		provider:         provider,
		retry:            &retry,
		chunkSize:        MaxTextLength,
		batchConcurrency: 1,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.chunkSize <= 0 || t.chunkSize > MaxTextLength {
		t.chunkSize = MaxTextLength
	}
	if t.batchConcurrency <= 0 {
		t.batchConcurrency = 1
	}

	t.backend = provider
	if t.rateLimit != nil {
		t.backend = NewRateLimitedProvider(t.backend, *t.rateLimit)
	}
	if t.retry != nil {
		cfg := *t.retry
		if cfg.Logger == nil {
			cfg.Logger = t.logger
		}
		t.backend = NewRetryableProvider(t.backend, cfg)
	}

	return t
}

// Translate translates text from source to target. source may be "auto"
// or empty to let the service detect it. Texts longer than the chunk size
// are split on word boundaries and translated chunk by chunk.
func (t *Translator) Translate(ctx context.Context, text, source, target string) (*Result, error) {
	res, _, err := t.translate(ctx, Request{
		Text:        text,
		SourceLang:  source,
		TargetLang:  target,
		TagHandling: t.tagHandling,
	})
	return res, err
}

// TranslateRequest is Translate with per-call tag handling.
func (t *Translator) TranslateRequest(ctx context.Context, req Request) (*Result, error) {
	res, _, err := t.translate(ctx, req)
	return res, err
}

func (t *Translator) translate(ctx context.Context, req Request) (*Result, bool, error) {
	req = normalizeRequest(req)

	ctx, span := tracer.Start(ctx, "Translator.Translate", trace.WithAttributes(
		attribute.String("source_lang", req.SourceLang),
		attribute.String("target_lang", req.TargetLang),
		attribute.Int("text_length", utf8.RuneCountInString(req.Text)),
	))
	defer span.End()

	if err := validate(req, 0); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	key := CacheKey(HashText(req.Text), req.SourceLang, req.TargetLang, req.TagHandling)
	if cached, ok := t.lookup(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cached", true))
		return cached, true, nil
	}

	// The shared call outlives any single caller; each caller stops
	// waiting on its own context.
	ch := t.group.DoChan(key, func() (any, error) {
		sharedCtx := context.WithoutCancel(ctx)
		res, err := t.translateChunks(sharedCtx, req)
		if err != nil {
			return nil, err
		}
		t.store(sharedCtx, key, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		err := ctx.Err()
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	case r := <-ch:
		if r.Err != nil {
			span.RecordError(r.Err)
			span.SetStatus(codes.Error, r.Err.Error())
			return nil, false, r.Err
		}
		return cloneResult(r.Val.(*Result)), false, nil
	}
}

func (t *Translator) translateChunks(ctx context.Context, req Request) (*Result, error) {
	chunks := SplitText(req.Text, t.chunkSize)

	var merged *Result
	texts := make([]string, 0, len(chunks))
	source := req.SourceLang

	for i, chunk := range chunks {
		t.logger.DebugContext(ctx, "translating chunk",
			"chunk", i+1,
			"chunks", len(chunks),
			"runes", utf8.RuneCountInString(chunk.Text),
			"source", source,
			"target", req.TargetLang,
		)

		res, err := t.backend.Translate(ctx, Request{
			Text:        chunk.Text,
			SourceLang:  source,
			TargetLang:  req.TargetLang,
			TagHandling: req.TagHandling,
		})
		if err != nil {
			if len(chunks) > 1 {
				return nil, &TranslationError{Message: fmt.Sprintf("chunk %d/%d", i+1, len(chunks)), Cause: err}
			}
			return nil, err
		}

		if merged == nil {
			merged = cloneResult(res)
			// Later chunks reuse the language detected for the first one.
			if source == AutoLang && res.SourceLang != "" {
				source = NormalizeLang(res.SourceLang)
			}
		}
		texts = append(texts, res.Data)
	}

	if merged == nil {
		return nil, ErrEmptyResult
	}

	merged.Data = JoinChunks(chunks, texts)
	if strings.TrimSpace(merged.Data) == "" {
		return nil, ErrEmptyResult
	}
	if merged.Alternatives == nil {
		merged.Alternatives = []string{}
	}
	merged.TargetLang = strings.ToUpper(req.TargetLang)
	return merged, nil
}

func (t *Translator) lookup(ctx context.Context, key string) (*Result, bool) {
	if t.cache == nil {
		return nil, false
	}
	raw, ok := t.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		t.logger.WarnContext(ctx, "dropping unreadable cache entry", "key", key, "err", err)
		return nil, false
	}
	return &res, true
}

func (t *Translator) store(ctx context.Context, key string, res *Result) {
	if t.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		t.logger.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}
	if err := t.cache.Set(ctx, key, string(data)); err != nil {
		t.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}

// Provider returns the provider the translator was built with.
func (t *Translator) Provider() Provider {
	return t.provider
}

// ChunkSize returns the chunk size in runes.
func (t *Translator) ChunkSize() int {
	return t.chunkSize
}

// ValidateRequest checks a single backend call: non-blank text of at most
// MaxTextLength runes, supported languages, and source != target.
func ValidateRequest(req Request) error {
	return validate(normalizeRequest(req), MaxTextLength)
}

func normalizeRequest(req Request) Request {
	req.SourceLang = NormalizeLang(req.SourceLang)
	if req.SourceLang == "" {
		req.SourceLang = AutoLang
	}
	req.TargetLang = NormalizeLang(req.TargetLang)
	return req
}

func validate(req Request, maxLen int) error {
	if strings.TrimSpace(req.Text) == "" {
		return &ValidationError{Field: "text", Message: "must not be empty"}
	}
	if maxLen > 0 && utf8.RuneCountInString(req.Text) > maxLen {
		return &ValidationError{Field: "text", Message: fmt.Sprintf("must not exceed %d characters", maxLen)}
	}
	if req.TargetLang == "" {
		return &ValidationError{Field: "target_lang", Message: "is required"}
	}
	if !IsSupported(req.TargetLang) {
		return &ValidationError{Field: "target_lang", Message: fmt.Sprintf("unsupported language %q", req.TargetLang)}
	}
	if req.SourceLang != AutoLang && !IsSupported(req.SourceLang) {
		return &ValidationError{Field: "source_lang", Message: fmt.Sprintf("unsupported language %q", req.SourceLang)}
	}
	if req.SourceLang == req.TargetLang {
		return &ValidationError{Field: "target_lang", Message: "must differ from source_lang"}
	}
	switch req.TagHandling {
	case TagHandlingNone, TagHandlingHTML, TagHandlingXML:
	default:
		return &ValidationError{Field: "tag_handling", Message: fmt.Sprintf("unknown mode %q", req.TagHandling)}
	}
	return nil
}

func cloneResult(r *Result) *Result {
	c := *r
	c.Alternatives = slices.Clone(r.Alternatives)
	return &c
}
