package provider

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"dario.cat/mergo"
	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/ZaguanLabs/godeepl"
	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the JSON-RPC endpoint used by the browser extension.
	DefaultBaseURL = "https://www2.deepl.com/jsonrpc"

	// DefaultUserAgent is the user agent of the browser extension.
	DefaultUserAgent = "DeepLBrowserExtension/1.28.0 Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single JSON-RPC call.
	DefaultTimeout = 30 * time.Second

	extensionClient = "chrome-extension,1.28.0"
	extensionOrigin = "chrome-extension://cofdbpoegempjloogbagkncekinflcnj"

	// rpcTooManyRequests is the JSON-RPC error code DeepL uses for throttling.
	rpcTooManyRequests = 1042912

	maxErrorSnippet = 200
)

var tracer = otel.Tracer("github.com/ZaguanLabs/godeepl/provider")

// JSONRPCConfig holds configuration for the JSON-RPC provider.
type JSONRPCConfig struct {
	BaseURL          string        // Endpoint (default: DefaultBaseURL)
	Session          string        // dl_session cookie value (optional)
	UserAgent        string        // User agent (default: DefaultUserAgent)
	Timeout          time.Duration // Per-request timeout (default: 30s)
	BypassCloudflare bool          // Use a browser-like TLS fingerprint
	Logger           *slog.Logger  // Logger (default: slog.Default())
}

func defaultJSONRPCConfig() JSONRPCConfig {
	return JSONRPCConfig{
		BaseURL:   DefaultBaseURL,
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

// JSONRPCProvider implements Provider by replaying the two calls the DeepL
// browser extension makes: LMT_split_text followed by LMT_handle_jobs.
type JSONRPCProvider struct {
	cfg    JSONRPCConfig
	client *resty.Client
	logger *slog.Logger

	newID func() int64
	now   func() time.Time
}

// NewJSONRPCProvider creates a new JSON-RPC provider. Zero fields of cfg
// take their defaults.
func NewJSONRPCProvider(cfg JSONRPCConfig) (*JSONRPCProvider, error) {
	if err := mergo.Merge(&cfg, defaultJSONRPCConfig()); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeaders(map[string]string{
		"Content-Type":    "application/json",
		"User-Agent":      cfg.UserAgent,
		"Accept":          "*/*",
		"Accept-Encoding": "gzip, deflate, br",
		"Accept-Language": "en-US,en;q=0.9,zh-CN;q=0.8,zh-TW;q=0.7,zh-HK;q=0.6,zh;q=0.5",
		"Authorization":   "None",
		"Cache-Control":   "no-cache",
		"DNT":             "1",
		"Origin":          extensionOrigin,
		"Pragma":          "no-cache",
		"Priority":        "u=1, i",
		"Referer":         "https://www.deepl.com/",
		"Sec-Fetch-Dest":  "empty",
		"Sec-Fetch-Mode":  "cors",
		"Sec-Fetch-Site":  "none",
		"Sec-GPC":         "1",
	})
	if cfg.Session != "" {
		client.SetHeader("Cookie", "dl_session="+cfg.Session)
	}
	if cfg.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	return &JSONRPCProvider{
		cfg:    cfg,
		client: client,
		logger: cfg.Logger,
		newID:  func() int64 { return rand.Int64N(1_000_000) },
		now:    time.Now,
	}, nil
}

// Translate runs one split + handle_jobs round trip. The text must fit in
// a single call (see godeepl.ValidateRequest); godeepl.Translator chunks
// longer input before it reaches the provider.
func (p *JSONRPCProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	if err := godeepl.ValidateRequest(req); err != nil {
		return nil, err
	}

	source := godeepl.NormalizeLang(req.SourceLang)
	if source == "" {
		source = godeepl.AutoLang
	}
	target := godeepl.NormalizeLang(req.TargetLang)

	ctx, span := tracer.Start(ctx, "JSONRPCProvider.Translate", trace.WithAttributes(
		attribute.String("source_lang", source),
		attribute.String("target_lang", target),
	))
	defer span.End()

	res, err := p.translate(ctx, req.Text, source, target, req.TagHandling)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (p *JSONRPCProvider) translate(ctx context.Context, text, source, target string, tags godeepl.TagHandling) (*Result, error) {
	split, err := p.splitText(ctx, text, tags)
	if err != nil {
		return nil, err
	}

	if source == godeepl.AutoLang {
		source = strings.ToUpper(split.Lang.Detected)
		if source == "" {
			return nil, &godeepl.ProviderError{Message: "split_text did not report a detected language"}
		}
	}

	if len(split.Texts) == 0 || len(split.Texts[0].Chunks) == 0 {
		return nil, &godeepl.ProviderError{Message: "split_text returned no chunks"}
	}

	jobs, err := buildJobs(split)
	if err != nil {
		return nil, err
	}

	params := jobsParams{
		CommonJobParams: commonJobParams{Mode: "translate"},
		Lang: jobsLang{
			SourceLangComputed: strings.ToUpper(source),
			TargetLang:         godeepl.BaseLang(target),
		},
		Jobs:      jobs,
		Priority:  1,
		Timestamp: p.now().UnixMilli(),
	}
	if godeepl.HasRegionalVariant(target) {
		params.CommonJobParams.RegionalVariant = target
	}

	id := p.newID()
	var out jobsResult
	if err := p.call(ctx, methodHandleJobs, id, params, &out); err != nil {
		return nil, err
	}

	data, alternatives, err := collectBeams(out)
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "deepl jsonrpc translation",
		"id", id,
		"source", source,
		"target", target,
		"chunks", len(jobs),
		"alternatives", len(alternatives),
	)

	return &Result{
		Code:         http.StatusOK,
		ID:           id,
		Method:       godeepl.MethodFree,
		Data:         data,
		Alternatives: alternatives,
		SourceLang:   strings.ToUpper(source),
		TargetLang:   target,
	}, nil
}

func (p *JSONRPCProvider) splitText(ctx context.Context, text string, tags godeepl.TagHandling) (*splitResult, error) {
	textType := "plaintext"
	if tags.RichText() {
		textType = "richtext"
	}

	params := splitParams{
		CommonJobParams: commonJobParams{Mode: "translate"},
		Lang:            splitLang{LangUserSelected: godeepl.AutoLang},
		Texts:           []string{text},
		TextType:        textType,
	}

	var out splitResult
	if err := p.call(ctx, methodSplitText, p.newID(), params, &out); err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	return &out, nil
}

// buildJobs turns each split chunk into one job carrying its neighbours'
// first sentences as context.
func buildJobs(split *splitResult) ([]job, error) {
	chunks := split.Texts[0].Chunks
	for i, c := range chunks {
		if len(c.Sentences) == 0 {
			return nil, &godeepl.ProviderError{Message: fmt.Sprintf("split chunk %d has no sentences", i)}
		}
	}

	jobs := make([]job, len(chunks))
	for i, c := range chunks {
		before, after := []string{}, []string{}
		if i > 0 {
			before = []string{chunks[i-1].Sentences[0].Text}
		}
		if i < len(chunks)-1 {
			after = []string{chunks[i+1].Sentences[0].Text}
		}

		s := c.Sentences[0]
		jobs[i] = job{
			Kind:               "default",
			PreferredNumBeams:  4,
			RawEnContextBefore: before,
			RawEnContextAfter:  after,
			Sentences:          []jobSentence{{Prefix: s.Prefix, Text: s.Text, ID: i + 1}},
		}
	}
	return jobs, nil
}

// collectBeams joins the top beam of every translation and returns the
// remaining beams of the first translation as alternatives.
func collectBeams(out jobsResult) (string, []string, error) {
	if len(out.Translations) == 0 {
		return "", nil, &godeepl.ProviderError{Message: "handle_jobs returned no translations"}
	}

	var sb strings.Builder
	for i, tr := range out.Translations {
		if len(tr.Beams) == 0 || len(tr.Beams[0].Sentences) == 0 {
			return "", nil, &godeepl.ProviderError{Message: fmt.Sprintf("translation %d has an empty beam", i)}
		}
		sb.WriteString(tr.Beams[0].Sentences[0].Text)
	}

	alternatives := []string{}
	for _, beam := range out.Translations[0].Beams[1:] {
		if len(beam.Sentences) > 0 {
			alternatives = append(alternatives, beam.Sentences[0].Text)
		}
	}

	data := sb.String()
	if data == "" {
		return "", nil, &godeepl.ProviderError{Message: "handle_jobs returned an empty translation"}
	}
	return data, alternatives, nil
}

// call posts one JSON-RPC request and decodes its result into out.
func (p *JSONRPCProvider) call(ctx context.Context, method string, id int64, params any, out any) error {
	ctx, span := tracer.Start(ctx, "jsonrpc "+method, trace.WithAttributes(
		attribute.Int64("rpc.id", id),
	))
	defer span.End()

	err := p.doCall(ctx, method, id, params, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *JSONRPCProvider) doCall(ctx context.Context, method string, id int64, params any, out any) error {
	body, err := encodeBody(rpcRequest{JSONRPC: "2.0", Method: method, ID: id, Params: params})
	if err != nil {
		return &godeepl.ProviderError{Message: "encoding request", Cause: err}
	}

	res, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(p.endpoint(method))
	if err != nil {
		return p.transportError(ctx, method, err)
	}
	raw := res.RawBody()
	defer raw.Close()

	payload, err := decodeBody(raw, res.Header().Get("Content-Encoding"))
	if err != nil {
		return &godeepl.ProviderError{Message: "reading response", Cause: err}
	}

	p.logger.DebugContext(ctx, "deepl jsonrpc response",
		"method", method,
		"id", id,
		"status", res.StatusCode(),
		"bytes", len(payload),
	)

	if err := statusError(res.StatusCode(), payload); err != nil {
		return err
	}

	var rpc rpcResponse
	if err := json.Unmarshal(payload, &rpc); err != nil {
		return &godeepl.ProviderError{Message: "decoding response", Cause: err}
	}
	if rpc.Error != nil {
		return rpcStatusError(rpc.Error)
	}
	if len(rpc.Result) == 0 || string(rpc.Result) == "null" {
		return &godeepl.ProviderError{Message: method + " returned no result"}
	}
	if err := json.Unmarshal(rpc.Result, out); err != nil {
		return &godeepl.ProviderError{Message: "decoding " + method + " result", Cause: err}
	}
	return nil
}

func (p *JSONRPCProvider) endpoint(method string) string {
	return p.cfg.BaseURL + "?client=" + extensionClient + "&method=" + method
}

func (p *JSONRPCProvider) transportError(ctx context.Context, method string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &godeepl.StatusError{Code: http.StatusRequestTimeout, Message: "request timeout", Cause: err}
	}

	p.logger.ErrorContext(ctx, "deepl jsonrpc request failed", "method", method, "err", err)
	return &godeepl.ProviderError{Message: "request failed", Cause: err}
}

// encodeBody marshals req and applies the spacing the extension uses
// around the "method" key.
func encodeBody(req rpcRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	spaced := []byte(`"method": "`)
	if (req.ID+5)%29 == 0 || (req.ID+3)%13 == 0 {
		spaced = []byte(`"method" : "`)
	}
	return bytes.Replace(body, []byte(`"method":"`), spaced, 1), nil
}

func decodeBody(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "br":
		r = brotli.NewReader(r)
	case "gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "deflate":
		fr := flate.NewReader(r)
		defer fr.Close()
		r = fr
	}
	return io.ReadAll(r)
}

func statusError(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return &godeepl.StatusError{Code: code, Message: "too many requests"}
	case code == http.StatusForbidden:
		return &godeepl.StatusError{Code: code, Message: "forbidden, a session may be required"}
	default:
		return &godeepl.StatusError{Code: code, Message: snippet(body)}
	}
}

func rpcStatusError(e *rpcError) error {
	code := http.StatusInternalServerError
	switch {
	case e.Code == rpcTooManyRequests || strings.Contains(strings.ToLower(e.Message), "too many requests"):
		code = http.StatusTooManyRequests
	case e.Code >= 400 && e.Code < 600:
		code = int(e.Code)
	}

	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("jsonrpc error %d", e.Code)
	}
	return &godeepl.StatusError{Code: code, Message: msg}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorSnippet {
		s = s[:maxErrorSnippet] + "..."
	}
	return s
}

var _ Provider = (*JSONRPCProvider)(nil)
