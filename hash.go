package godeepl

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashText computes the SHA-256 hash of the trimmed text.
func HashText(text string) string {
	trimmed := strings.TrimSpace(text)
	hash := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates a cache key from a text hash and the language pair.
// The tag handling mode is appended when set since rich text translates
// differently.
func CacheKey(hash, sourceLang, targetLang string, tags TagHandling) string {
	key := hash + ":" + NormalizeLang(sourceLang) + ":" + NormalizeLang(targetLang)
	if tags != TagHandlingNone {
		key += ":" + string(tags)
	}
	return key
}
