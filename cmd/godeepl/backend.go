package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ZaguanLabs/godeepl"
	"github.com/ZaguanLabs/godeepl/cache"
	"github.com/ZaguanLabs/godeepl/provider"
)

const (
	backendJSONRPC = "jsonrpc"
	backendBrowser = "browser"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func buildProvider(a *app) (godeepl.Provider, io.Closer, error) {
	switch strings.ToLower(a.v.GetString(keyBackend)) {
	case backendJSONRPC, "":
		p, err := provider.NewJSONRPCProvider(provider.JSONRPCConfig{
			Session: a.v.GetString(keySession),
			Logger:  a.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, nopCloser{}, nil

	case backendBrowser:
		p, err := provider.NewBrowserProvider(provider.BrowserConfig{
			ExecPath:       a.v.GetString(keyChrome),
			ResultSelector: a.v.GetString(keySelector),
			Headful:        !a.v.GetBool(keyHeadless),
			Logger:         a.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want %s or %s)", a.v.GetString(keyBackend), backendJSONRPC, backendBrowser)
	}
}

// openCache returns the configured cache, or nil when caching is off.
func (a *app) openCache(ctx context.Context) (cache.Lister, io.Closer, error) {
	ttl := a.v.GetInt(keyCacheTTL)

	if url := a.v.GetString(keyRedisURL); url != "" {
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: url, TTL: ttl})
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	}

	if ttl <= 0 {
		return nil, nopCloser{}, nil
	}
	return cache.NewInMemoryCache(a.v.GetInt(keyCacheSize), ttl), nopCloser{}, nil
}

// translator assembles a Translator from the flags. The returned func
// releases the backend and cache and must always be called.
func (a *app) translator(ctx context.Context, opts ...godeepl.TranslatorOption) (*godeepl.Translator, func(), error) {
	p, closeProvider, err := a.newProvider(a)
	if err != nil {
		return nil, nil, err
	}

	c, closeCache, err := a.openCache(ctx)
	if err != nil {
		closeProvider.Close()
		return nil, nil, err
	}

	release := func() {
		if err := closeProvider.Close(); err != nil {
			a.logger.Warn("closing backend", "err", err)
		}
		if err := closeCache.Close(); err != nil {
			a.logger.Warn("closing cache", "err", err)
		}
	}

	opts = append([]godeepl.TranslatorOption{
		godeepl.WithLogger(a.logger),
		godeepl.WithTagHandling(godeepl.TagHandling(a.v.GetString(keyTagHandling))),
	}, opts...)
	if c != nil {
		opts = append(opts, godeepl.WithCache(c))
	}
	if a.v.GetBool(keyNoRetry) {
		opts = append(opts, godeepl.WithoutRetry())
	}
	if rpm := a.v.GetInt(keyRPM); rpm > 0 {
		opts = append(opts, godeepl.WithRateLimit(godeepl.RateLimitConfig{RequestsPerMinute: rpm}))
	}

	return godeepl.NewTranslator(p, opts...), release, nil
}
