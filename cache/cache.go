// Package cache provides translation caching implementations.
package cache

import "context"

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	// Get retrieves a cached translation. Returns empty string and false if not found or expired.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a translation in the cache.
	Set(ctx context.Context, key string, value string) error
}

// Lister is implemented by caches whose contents can be enumerated for export.
type Lister interface {
	TranslationCache
	// Entries returns every live key/value pair.
	Entries(ctx context.Context) (map[string]string, error)
}
