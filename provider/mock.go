package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/ZaguanLabs/godeepl"
)

// MockProvider is a mock translation provider for testing.
type MockProvider struct {
	Translations map[string]string // Map of source text to translation
	Alternatives map[string][]string
	Errors       []error // Returned in order, one per call, before translating
	Detected     string  // Source reported for "auto" requests (default: EN)

	mu          sync.Mutex
	callCount   int
	lastRequest *Request
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":                "Hallo",
			"World":                "Welt",
			"Hello World":          "Hallo Welt",
			"How are you?":         "Wie geht es dir?",
			"Welcome to our site.": "Willkommen auf unserer Seite.",
		},
		Alternatives: map[string][]string{
			"How are you?": {"Wie geht es Ihnen?", "Wie geht's?"},
		},
		Detected: "EN",
	}
}

// Translate returns mock translations.
func (m *MockProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	m.mu.Lock()
	m.callCount++
	m.lastRequest = &req
	var err error
	if len(m.Errors) > 0 {
		err, m.Errors = m.Errors[0], m.Errors[1:]
	}
	translation, ok := m.Translations[req.Text]
	alternatives := append([]string{}, m.Alternatives[req.Text]...)
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if !ok {
		// Return bracketed text for unknown translations
		translation = fmt.Sprintf("[%s]", req.Text)
	}

	source := godeepl.NormalizeLang(req.SourceLang)
	if source == "" || source == godeepl.AutoLang {
		source = m.Detected
	}

	return &Result{
		Code:         http.StatusOK,
		ID:           int64(len(req.Text)),
		Method:       "Mock",
		Data:         translation,
		Alternatives: alternatives,
		SourceLang:   strings.ToUpper(source),
		TargetLang:   godeepl.NormalizeLang(req.TargetLang),
	}, nil
}

// CallCount returns the number of Translate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastRequest returns the last request received, or nil.
func (m *MockProvider) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastRequest = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
