package godeepl

import "time"

// TagHandling selects how markup inside the source text is treated.
type TagHandling string

const (
	// TagHandlingNone treats the text as plain text.
	TagHandlingNone TagHandling = ""
	// TagHandlingHTML keeps HTML tags intact.
	TagHandlingHTML TagHandling = "html"
	// TagHandlingXML keeps XML tags intact.
	TagHandlingXML TagHandling = "xml"
)

// RichText reports whether the text should be submitted as rich text.
func (h TagHandling) RichText() bool {
	return h == TagHandlingHTML || h == TagHandlingXML
}

// Method tags reported in Result.Method.
const (
	MethodFree    = "Free"
	MethodBrowser = "Browser"
)

const (
	// AutoLang asks the backend to detect the source language.
	AutoLang = "auto"

	// MaxTextLength is the largest text, in runes, a single backend call accepts.
	MaxTextLength = 5000
)

// Request is a single translation call handed to a Provider.
type Request struct {
	Text        string
	SourceLang  string // "auto" or a supported code
	TargetLang  string // supported code, may carry a regional variant (EN-GB)
	TagHandling TagHandling
}

// Result is the normalized outcome of a translation.
type Result struct {
	Code         int      `json:"code"`
	ID           int64    `json:"id"`
	Method       string   `json:"method"`
	Data         string   `json:"data"`
	Alternatives []string `json:"alternatives"`
	SourceLang   string   `json:"source_lang"`
	TargetLang   string   `json:"target_lang"`
}

// BatchItem is the outcome of one text within a batch.
type BatchItem struct {
	Index          int     `json:"index"`
	OriginalText   string  `json:"original_text"`
	TranslatedText string  `json:"translated_text,omitempty"`
	Success        bool    `json:"success"`
	Error          string  `json:"error,omitempty"`
	Result         *Result `json:"result,omitempty"`
}

// BatchResult summarizes a batch translation.
type BatchResult struct {
	ID           string      `json:"id"`
	TotalCount   int         `json:"total_count"`
	SuccessCount int         `json:"success_count"`
	ErrorCount   int         `json:"error_count"`
	SuccessRate  float64     `json:"success_rate"` // percent
	CachedCount  int         `json:"cached_count"`
	Method       string      `json:"method"`
	Timestamp    time.Time   `json:"timestamp"`
	Results      []BatchItem `json:"results"`
}
