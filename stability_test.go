package godeepl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedSampler returns reads from a fixed script, repeating the last one.
type scriptedSampler struct {
	mu    sync.Mutex
	reads []string
	errs  map[int]error
	calls int
}

func (s *scriptedSampler) sample(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if err, ok := s.errs[i]; ok {
		return "", err
	}
	if i >= len(s.reads) {
		i = len(s.reads) - 1
	}
	return s.reads[i], nil
}

func fastStability() StabilityConfig {
	return StabilityConfig{
		Interval:         time.Millisecond,
		StableIterations: 3,
		Timeout:          time.Second,
		Placeholders:     []string{"[...]"},
	}
}

func TestWaitStable_SettlesAfterConsecutiveReads(t *testing.T) {
	s := &scriptedSampler{reads: []string{"", "[...]", "Hal", "Hallo", "Hallo", " Hallo Welt", "Hallo Welt", "Hallo Welt"}}

	text, err := WaitStable(context.Background(), s.sample, fastStability())
	if err != nil {
		t.Fatalf("WaitStable failed: %v", err)
	}
	if text != "Hallo Welt" {
		t.Errorf("Expected 'Hallo Welt', got %q", text)
	}
	if s.calls != 8 {
		t.Errorf("Expected 8 samples, got %d", s.calls)
	}
}

func TestWaitStable_PlaceholderResetsRun(t *testing.T) {
	s := &scriptedSampler{reads: []string{"Hallo", "Hallo", "[...]", "Hallo", "Hallo", "Hallo"}}

	text, err := WaitStable(context.Background(), s.sample, fastStability())
	if err != nil {
		t.Fatalf("WaitStable failed: %v", err)
	}
	if text != "Hallo" {
		t.Errorf("Expected 'Hallo', got %q", text)
	}
	if s.calls != 6 {
		t.Errorf("Expected the placeholder to reset the run (6 samples), got %d", s.calls)
	}
}

func TestWaitStable_SampleErrorsTolerated(t *testing.T) {
	s := &scriptedSampler{
		reads: []string{"x", "x", "Bonjour"},
		errs:  map[int]error{0: errors.New("node not found"), 1: errors.New("node not found")},
	}

	text, err := WaitStable(context.Background(), s.sample, fastStability())
	if err != nil {
		t.Fatalf("WaitStable failed: %v", err)
	}
	if text != "Bonjour" {
		t.Errorf("Expected 'Bonjour', got %q", text)
	}
}

func TestWaitStable_Timeout(t *testing.T) {
	sampleErr := errors.New("node not found")
	cfg := fastStability()
	cfg.Timeout = 30 * time.Millisecond

	_, err := WaitStable(context.Background(), func(ctx context.Context) (string, error) {
		return "", sampleErr
	}, cfg)

	if StatusCode(err) != 408 {
		t.Fatalf("Expected 408 status error, got: %v", err)
	}
	if !errors.Is(err, sampleErr) {
		t.Error("Expected the last sample error to be wrapped")
	}
}

func TestWaitStable_NeverStable(t *testing.T) {
	cfg := fastStability()
	cfg.Timeout = 30 * time.Millisecond

	n := 0
	_, err := WaitStable(context.Background(), func(ctx context.Context) (string, error) {
		n++
		if n%2 == 0 {
			return "a", nil
		}
		return "b", nil
	}, cfg)

	if StatusCode(err) != 408 {
		t.Fatalf("Expected 408 for flapping content, got: %v", err)
	}
}

func TestWaitStable_ParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitStable(ctx, func(ctx context.Context) (string, error) {
		return "", nil
	}, fastStability())

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestStabilityConfig_Defaults(t *testing.T) {
	cfg := StabilityConfig{}.withDefaults()

	if cfg.Interval != 500*time.Millisecond {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.StableIterations != 3 {
		t.Errorf("StableIterations = %d", cfg.StableIterations)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !cfg.isPlaceholder("[...]") {
		t.Error("Expected default placeholders")
	}
}
