package shell

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrNilMetricsCollector is returned when WithMetrics gets a nil collector.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrEmptyActionType is returned when WithMetrics gets no action type to label with.
	ErrEmptyActionType = errors.New("action type must not be empty")

	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is outside [0.0, 1.0].
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc is one attempt of a lifecycle action: load the book history, decide, append.
type RetryableFunc func(ctx context.Context) error

// RetryMetrics describes how a retried call went.
type RetryMetrics struct {
	Attempts         int
	TotalDelay       time.Duration
	LastErrorType    string
	RetriesExhausted bool
}

// backoffPolicy holds the attempt budget, the delay curve, and where to report retries.
type backoffPolicy struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	metrics      MetricsCollector
	actionType   string
}

// RetryOption configures RetryWithExponentialBackoff.
type RetryOption func(*backoffPolicy) error

func newBackoffPolicy(options []RetryOption) (*backoffPolicy, error) {
	policy := &backoffPolicy{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(policy); err != nil {
			return nil, err
		}
	}

	return policy, nil
}

// delayBefore returns the wait before the given (1-based) retry: baseDelay * 2^(retry-1) plus jitter.
func (p *backoffPolicy) delayBefore(retry int) time.Duration {
	delay := p.baseDelay << (retry - 1)
	jitter := rand.Float64() * float64(delay) * p.jitterFactor //nolint:gosec // math/rand is sufficient for jitter

	return delay + time.Duration(jitter)
}

func (p *backoffPolicy) isLastAttempt(attempt int) bool {
	return attempt >= p.maxAttempts-1
}

// RetryWithExponentialBackoff runs fn until it succeeds, fails with a non-retryable error,
// or maxAttempts are used up. Only core.ErrConcurrencyConflict is retried, so two clients acting
// on the same book at once both get an answer decided on fresh state.
//
// Default schedule: 0 ms, 10 ms, 20 ms, 40 ms, 80 ms, 160 ms, each plus up to 30% jitter.
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetrics, error) {
	policy, err := newBackoffPolicy(options)
	if err != nil {
		return RetryMetrics{LastErrorType: ErrorType(err)}, err
	}

	var meta RetryMetrics
	var lastErr error

	for attempt := 0; attempt < policy.maxAttempts; attempt++ {
		if attempt > 0 {
			waited, waitErr := policy.wait(ctx, attempt)
			if waitErr != nil {
				meta.LastErrorType = ErrorType(waitErr)
				return meta, waitErr
			}

			meta.TotalDelay += waited
		}

		meta.Attempts++

		lastErr = fn(ctx)
		meta.LastErrorType = ErrorType(lastErr)

		if lastErr == nil || !isRetryableError(lastErr) {
			return meta, lastErr
		}

		if !policy.isLastAttempt(attempt) {
			policy.recordRetry(ctx, attempt+1, lastErr)
		}
	}

	meta.RetriesExhausted = true
	policy.recordExhausted(ctx, lastErr)

	return meta, lastErr
}

// wait sleeps for the backoff delay of the given retry unless ctx ends first.
func (p *backoffPolicy) wait(ctx context.Context, retry int) (time.Duration, error) {
	delay := p.delayBefore(retry)
	p.recordDelay(ctx, retry, delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return delay, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (p *backoffPolicy) recordDelay(ctx context.Context, retry int, delay time.Duration) {
	if p.metrics == nil {
		return
	}

	labels := map[string]string{
		LogAttrActionType: p.actionType,
		"attempt_number":  strconv.Itoa(retry),
	}

	recordDuration(ctx, p.metrics, ActionHandlerRetryDelayMetric, delay, labels)
}

func (p *backoffPolicy) recordRetry(ctx context.Context, retry int, cause error) {
	if p.metrics == nil {
		return
	}

	incrementCounter(ctx, p.metrics, ActionHandlerRetriesMetric, BuildRetryLabels(p.actionType, retry, ErrorType(cause)))
}

func (p *backoffPolicy) recordExhausted(ctx context.Context, cause error) {
	if p.metrics == nil {
		return
	}

	labels := map[string]string{
		LogAttrActionType:  p.actionType,
		"final_error_type": ErrorType(cause),
	}

	incrementCounter(ctx, p.metrics, ActionHandlerMaxRetriesReachedMetric, labels)
}

// isRetryableError reports whether another attempt can succeed.
// Deadlines are not retried: the caller's budget is already spent.
func isRetryableError(err error) bool {
	return IsConcurrencyConflictError(err)
}

// WithMaxAttempts sets the maximum number of attempts, the first one included.
func WithMaxAttempts(attempts int) RetryOption {
	return func(p *backoffPolicy) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		p.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the wait before the first retry; each further retry doubles it.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(p *backoffPolicy) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		p.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets how much random delay (0.0 to 1.0 of the backoff) is added per retry.
func WithJitterFactor(factor float64) RetryOption {
	return func(p *backoffPolicy) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		p.jitterFactor = factor

		return nil
	}
}

// WithMetrics reports retries, backoff delays and exhaustion, labelled with actionType.
func WithMetrics(collector MetricsCollector, actionType string) RetryOption {
	return func(p *backoffPolicy) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if actionType == "" {
			return ErrEmptyActionType
		}

		p.metrics = collector
		p.actionType = actionType

		return nil
	}
}
