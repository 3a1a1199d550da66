package godeepl

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// TranslateBatch translates each text on its own, one at a time unless
// WithBatchConcurrency raised the limit. A failing item is recorded in its
// BatchItem and never aborts the batch; only an empty input is an error.
func (t *Translator) TranslateBatch(ctx context.Context, texts []string, source, target string) (*BatchResult, error) {
	if len(texts) == 0 {
		return nil, &ValidationError{Field: "texts", Message: "must not be empty"}
	}

	ctx, span := tracer.Start(ctx, "Translator.TranslateBatch")
	defer span.End()

	batch := &BatchResult{
		ID:         uuid.NewString(),
		TotalCount: len(texts),
		Results:    make([]BatchItem, len(texts)),
	}
	cached := make([]bool, len(texts))

	var g errgroup.Group
	g.SetLimit(t.batchConcurrency)

	for i, text := range texts {
		g.Go(func() error {
			item := BatchItem{Index: i, OriginalText: text}

			res, hit, err := t.translate(ctx, Request{
				Text:        text,
				SourceLang:  source,
				TargetLang:  target,
				TagHandling: t.tagHandling,
			})
			if err != nil {
				item.Error = err.Error()
				t.logger.WarnContext(ctx, "batch item failed", "batch", batch.ID, "index", i, "err", err)
			} else {
				item.Success = true
				item.TranslatedText = res.Data
				item.Result = res
			}

			// Each goroutine owns its own slot.
			batch.Results[i] = item
			cached[i] = hit
			return nil
		})
	}
	_ = g.Wait()

	for i, item := range batch.Results {
		if !item.Success {
			batch.ErrorCount++
			continue
		}
		batch.SuccessCount++
		if cached[i] {
			batch.CachedCount++
		}
		if batch.Method == "" {
			batch.Method = item.Result.Method
		}
	}
	batch.SuccessRate = float64(batch.SuccessCount) / float64(batch.TotalCount) * 100
	batch.Timestamp = time.Now().UTC()

	t.logger.InfoContext(ctx, "batch finished",
		"batch", batch.ID,
		"total", batch.TotalCount,
		"succeeded", batch.SuccessCount,
		"failed", batch.ErrorCount,
		"cached", batch.CachedCount,
	)

	return batch, nil
}
