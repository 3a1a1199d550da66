package godeepl

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// StabilityConfig controls WaitStable.
type StabilityConfig struct {
	Interval         time.Duration // Delay between samples (default: 500ms)
	StableIterations int           // Identical consecutive reads required (default: 3)
	Timeout          time.Duration // Overall budget (default: 30s)
	Placeholders     []string      // Reads that mean "still rendering"
}

// DefaultStabilityConfig returns the polling parameters used by the
// browser provider.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		Interval:         500 * time.Millisecond,
		StableIterations: 3,
		Timeout:          30 * time.Second,
		Placeholders:     []string{"[...]", "...", "…"},
	}
}

func (c StabilityConfig) withDefaults() StabilityConfig {
	def := DefaultStabilityConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.StableIterations <= 0 {
		c.StableIterations = def.StableIterations
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.Placeholders == nil {
		c.Placeholders = def.Placeholders
	}
	return c
}

func (c StabilityConfig) isPlaceholder(text string) bool {
	for _, p := range c.Placeholders {
		if text == p {
			return true
		}
	}
	return false
}

// SampleFunc reads the current content of the element being watched.
type SampleFunc func(ctx context.Context) (string, error)

// WaitStable samples at a fixed interval until the same non-placeholder
// text has been read StableIterations times in a row, and returns it.
// Empty or placeholder reads and sample errors reset the run. When the
// timeout elapses it fails with a 408 StatusError wrapping the last sample
// error, if any.
func WaitStable(ctx context.Context, sample SampleFunc, cfg StabilityConfig) (string, error) {
	cfg = cfg.withDefaults()

	pollCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var (
		last    string
		run     int
		lastErr error
	)

	for {
		text, err := sample(pollCtx)
		if err != nil {
			lastErr = err
			text = ""
		}
		text = strings.TrimSpace(text)

		switch {
		case text == "" || cfg.isPlaceholder(text):
			last, run = "", 0
		case text == last:
			run++
		default:
			last, run = text, 1
		}

		if run >= cfg.StableIterations {
			return last, nil
		}

		select {
		case <-pollCtx.Done():
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "", &StatusError{
				Code:    http.StatusRequestTimeout,
				Message: fmt.Sprintf("translation did not settle within %s", cfg.Timeout),
				Cause:   lastErr,
			}
		case <-ticker.C:
		}
	}
}
