package ai

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type BatchOptions struct {
	BatchSize   int
	Concurrency int
	BatchDelay  time.Duration
}

// BatchEmbedder embeds many texts against a rate-limited provider: texts are
// cut into batches, calls inside a batch run with bounded concurrency, and
// batches are paced to respect the provider's rate limit. Output order
// matches input order.
type BatchEmbedder struct {
	next    IEmbedder
	opts    BatchOptions
	limiter *rate.Limiter
}

func NewBatchEmbedder(e IEmbedder, opts BatchOptions) *BatchEmbedder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	var limiter *rate.Limiter
	if opts.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.BatchDelay), 1)
	}
	return &BatchEmbedder{next: e, opts: opts, limiter: limiter}
}

func (b *BatchEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return b.next.Embed(ctx, text, taskType)
}

func (b *BatchEmbedder) ModelName() string {
	return b.next.ModelName()
}

func (b *BatchEmbedder) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	results := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += b.opts.BatchSize {
		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		end := start + b.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.opts.Concurrency)
		for i := start; i < end; i++ {
			g.Go(func() error {
				values, err := b.next.Embed(gctx, texts[i], taskType)
				if err != nil {
					return err
				}
				results[i] = values
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		logutil.GetLogger(ctx).Debug("embed batch done",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("total", len(texts)),
		)
	}
	return results, nil
}
