package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"codeberg.org/snonux/lingopop/internal/audio"
	"codeberg.org/snonux/lingopop/internal/catalog"
	"codeberg.org/snonux/lingopop/internal/term"
)

// Resilient wraps a provider with a per-call timeout, retries for transient
// failures, a circuit breaker and a token bucket rate limit
type Resilient struct {
	next    Gateway
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	timeout time.Duration
	retries int
	backoff time.Duration
	logger  *slog.Logger
}

// NewResilient wraps next using the limits in cfg
func NewResilient(next Gateway, cfg *Config, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaults.Timeout
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = defaults.BreakerFailures
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = defaults.BreakerCooldown
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Gateway circuit breaker changed state", "provider", name, "from", from.String(), "to", to.String())
		},
		// Only an unavailable backend counts against the breaker
		IsSuccessful: func(err error) bool {
			return err == nil || !IsKind(err, KindTransient)
		},
	})

	return &Resilient{
		next:    next,
		breaker: breaker,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		retries: retries,
		backoff: time.Second,
		logger:  logger,
	}
}

// Name returns the wrapped provider name
func (r *Resilient) Name() string {
	return r.next.Name()
}

// Analyze implements Gateway
func (r *Resilient) Analyze(ctx context.Context, termText string, native, target catalog.Language) (term.Analysis, error) {
	v, err := r.call(ctx, "analyze", func(ctx context.Context) (interface{}, error) {
		return r.next.Analyze(ctx, termText, native, target)
	})
	if err != nil {
		return term.Analysis{}, err
	}
	return v.(term.Analysis), nil
}

// SynthesizeImage implements Gateway
func (r *Resilient) SynthesizeImage(ctx context.Context, termText, contextText string) (string, error) {
	v, err := r.call(ctx, "image", func(ctx context.Context) (interface{}, error) {
		return r.next.SynthesizeImage(ctx, termText, contextText)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SynthesizeSpeech implements Gateway
func (r *Resilient) SynthesizeSpeech(ctx context.Context, text, voice string) (*audio.Buffer, error) {
	v, err := r.call(ctx, "speech", func(ctx context.Context) (interface{}, error) {
		return r.next.SynthesizeSpeech(ctx, text, voice)
	})
	if err != nil {
		return nil, err
	}
	return v.(*audio.Buffer), nil
}

// Converse implements Gateway
func (r *Resilient) Converse(ctx context.Context, prior []term.ChatMessage, message string, record term.Record) (string, error) {
	v, err := r.call(ctx, "chat", func(ctx context.Context) (interface{}, error) {
		return r.next.Converse(ctx, prior, message, record)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// GenerateStory implements Gateway
func (r *Resilient) GenerateStory(ctx context.Context, terms []string, native catalog.Language) (string, error) {
	v, err := r.call(ctx, "story", func(ctx context.Context) (interface{}, error) {
		return r.next.GenerateStory(ctx, terms, native)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// call runs fn under the rate limit, timeout and breaker, retrying
// transient failures. Returned errors are always *Error.
func (r *Resilient) call(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	var lastErr *Error
	for attempt := 0; attempt <= r.retries; attempt++ {
		if attempt > 0 {
			r.logger.Warn("Retrying gateway call", "op", op, "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, Classify(op, ctx.Err())
			case <-time.After(r.backoff):
			}
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, Classify(op, err)
		}

		v, err := r.attempt(ctx, op, fn)
		if err == nil {
			return v, nil
		}

		lastErr = Classify(op, err)
		if lastErr.Kind != KindTransient || ctx.Err() != nil {
			return nil, lastErr
		}
		// An open breaker fails fast; retrying would only fail again
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (r *Resilient) attempt(ctx context.Context, op string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.breaker.Execute(func() (interface{}, error) {
		v, err := fn(callCtx)
		if err != nil && callCtx.Err() != nil && ctx.Err() == nil {
			// The per-call timeout fired, not the caller's context
			return nil, &Error{Kind: KindTransient, Op: op, Err: context.DeadlineExceeded}
		}
		return v, err
	})
}
