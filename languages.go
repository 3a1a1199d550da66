package godeepl

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supportedLanguages lists the codes DeepL accepts, base languages first
// then regional variants in the order the web translator shows them.
var supportedLanguages = []string{
	"AR", "BG", "CS", "DA", "DE", "EL", "EN", "EN-GB", "EN-US", "ES",
	"ET", "FI", "FR", "HE", "HU", "ID", "IT", "JA", "KO", "LT",
	"LV", "NB", "NL", "PL", "PT", "PT-BR", "PT-PT", "RO", "RU", "SK",
	"SL", "SV", "TH", "TR", "UK", "VI", "ZH", "ZH-HANS", "ZH-HANT",
}

// SupportedLanguages returns the language codes DeepL accepts.
func SupportedLanguages() []string {
	return slices.Clone(supportedLanguages)
}

// NormalizeLang upper-cases a code and converts "_" to "-" (en_gb → EN-GB).
// Any spelling of auto becomes AutoLang.
func NormalizeLang(code string) string {
	code = strings.TrimSpace(code)
	if strings.EqualFold(code, AutoLang) {
		return AutoLang
	}
	return strings.ToUpper(strings.ReplaceAll(code, "_", "-"))
}

// IsSupported reports whether code names a language DeepL accepts.
func IsSupported(code string) bool {
	return slices.Contains(supportedLanguages, NormalizeLang(code))
}

// BaseLang strips the regional variant: EN-GB → EN.
func BaseLang(code string) string {
	code = NormalizeLang(code)
	if base, _, ok := strings.Cut(code, "-"); ok {
		return base
	}
	return code
}

// HasRegionalVariant reports whether code carries a variant (EN-GB, ZH-HANT).
func HasRegionalVariant(code string) bool {
	return strings.Contains(NormalizeLang(code), "-")
}

// LanguageName returns the English display name for a code, or the code
// itself when it cannot be parsed.
func LanguageName(code string) string {
	tag, err := language.Parse(NormalizeLang(code))
	if err != nil {
		return code
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return code
	}
	return name
}

// MatchSupported maps an ISO 639-1 code (as produced by language
// detectors) to a supported base language, or "" if there is none.
func MatchSupported(iso6391 string) string {
	tag, err := language.Parse(iso6391)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	code := strings.ToUpper(base.String())
	if slices.Contains(supportedLanguages, code) {
		return code
	}
	return ""
}
