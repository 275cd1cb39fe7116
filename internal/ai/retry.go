package ai

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// WrapRetryToEmbedder retries transient failures (rate limit, server error)
// with exponential backoff. Fatal errors short-circuit immediately.
func WrapRetryToEmbedder(e IEmbedder, policy RetryPolicy) IEmbedder {
	if e == nil || policy.MaxRetries <= 0 {
		return e
	}
	return &retryEmbedder{next: e, policy: policy}
}

type retryEmbedder struct {
	next   IEmbedder
	policy RetryPolicy
}

func (r *retryEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	backoff := r.policy.InitialBackoff
	for attempt := 0; ; attempt++ {
		values, err := r.next.Embed(ctx, text, taskType)
		if err == nil {
			return values, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt >= r.policy.MaxRetries {
			return nil, lastErr
		}
		logutil.GetLogger(ctx).Warn("embed retry",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", r.policy.MaxRetries),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		if err := sleepCtx(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
		if backoff > r.policy.MaxBackoff {
			backoff = r.policy.MaxBackoff
		}
	}
}

func (r *retryEmbedder) ModelName() string {
	return r.next.ModelName()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
