// Package godeepl provides a client for DeepL's free translation surfaces.
//
// Two backends are available in the provider package: one replays the
// internal JSON-RPC API used by DeepL's browser extension, the other drives
// a headless Chrome against the web translator. Both sit behind the same
// Provider interface so a Translator can add chunking, retry on rate
// limits, client-side rate limiting and caching on top.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/godeepl"
//	    "github.com/ZaguanLabs/godeepl/cache"
//	    "github.com/ZaguanLabs/godeepl/provider"
//	)
//
//	func main() {
//	    p, err := provider.NewJSONRPCProvider(provider.JSONRPCConfig{})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    t := godeepl.NewTranslator(p,
//	        godeepl.WithCache(cache.NewInMemoryCache(1024, 3600)),
//	    )
//
//	    result, err := t.Translate(context.Background(), "How are you?", "auto", "ZH")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Data)
//	}
package godeepl
