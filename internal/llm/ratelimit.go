package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/margin-review/margin/internal/logger"
)

const (
	// Worker pool size for parallel embedding requests
	// Lower value = more conservative, higher value = faster but risks rate limits
	defaultMaxWorkers = 4

	// Retry configuration
	maxRetries     = 5
	baseRetryDelay = 1 * time.Second
	maxRetryDelay  = 32 * time.Second
)

// RateLimitedCall wraps an API call with rate limiting and retry logic.
// It waits for limiter approval before making the call, and retries on 429
// errors. A nil limiter skips the spacing wait.
func RateLimitedCall[T any](ctx context.Context, limiter *rate.Limiter, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return zero, fmt.Errorf("rate limiter wait failed: %w", err)
		}
	} else if err := ctx.Err(); err != nil {
		return zero, err
	}

	// Retry loop with exponential backoff
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(float64(baseRetryDelay) * math.Pow(2, float64(attempt-1)))
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}

			log.Info("Retry attempt %d/%d after %v delay", attempt, maxRetries, delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.Info("Retry succeeded on attempt %d", attempt)
			}
			return result, nil
		}

		lastErr = err

		if !isRateLimitError(err) {
			return zero, err
		}

		log.Warn("Rate limit error (429) on attempt %d/%d: %v", attempt+1, maxRetries+1, err)
	}

	return zero, fmt.Errorf("max retries (%d) exceeded, last error: %w", maxRetries, lastErr)
}

// isRateLimitError checks if an error is a 429 rate limit error from the API
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, marker := range []string{"429", "rate limit", "rate_limit_exceeded", "Too Many Requests"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// WorkerPool manages a pool of workers for parallel processing with rate limiting
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
}

// NewWorkerPool creates a new worker pool with the specified maximum workers
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Acquire acquires a worker slot, blocking if all workers are busy
func (wp *WorkerPool) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case wp.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a worker slot, allowing another worker to proceed
func (wp *WorkerPool) Release() {
	<-wp.semaphore
}

// ParallelProcess processes items in parallel using the worker pool.
// Results are returned in input order. If any item fails, the first error
// is returned after all spawned workers finish.
func ParallelProcess[T any, R any](
	ctx context.Context,
	items []T,
	log logger.Logger,
	processFn func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	wp := NewWorkerPool(defaultMaxWorkers)
	results := make([]R, len(items))

	type result struct {
		index int
		value R
		err   error
	}
	resultChan := make(chan result, len(items))

	spawned := 0
	var spawnErr error
	for i, item := range items {
		if err := wp.Acquire(ctx); err != nil {
			spawnErr = err
			break
		}
		spawned++

		go func(idx int, itm T) {
			defer wp.Release()

			select {
			case <-ctx.Done():
				var zero R
				resultChan <- result{index: idx, value: zero, err: ctx.Err()}
				return
			default:
			}

			val, err := processFn(ctx, idx, itm)
			resultChan <- result{index: idx, value: val, err: err}
		}(i, item)
	}

	firstError := spawnErr
	for range spawned {
		res := <-resultChan
		if res.err != nil && firstError == nil {
			firstError = res.err
		}
		results[res.index] = res.value
	}
	close(resultChan)

	if firstError != nil {
		return nil, firstError
	}

	return results, nil
}
