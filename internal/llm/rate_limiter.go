package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// ErrLimitExceeded - локальный лимит не даёт отправить запрос.
var ErrLimitExceeded = errors.New("превышен локальный лимит запросов к модели")

// RateLimiter ограничивает частоту запросов (RPM) и расход токенов (TPH).
type RateLimiter struct {
	requestsPerMinute int
	tokensPerHour     int
	maxWait           time.Duration

	requests *rate.Limiter
	tokens   *rate.Limiter
}

// NewRateLimiter создает новый rate limiter
func NewRateLimiter(requestsPerMinute, tokensPerHour int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if tokensPerHour <= 0 {
		tokensPerHour = 90000
	}

	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		tokensPerHour:     tokensPerHour,
		maxWait:           30 * time.Second,
		requests:          rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), requestsPerMinute),
		tokens:            rate.NewLimiter(rate.Limit(float64(tokensPerHour)/3600), tokensPerHour),
	}
}

// AllowRequest ждёт свободный слот запроса, но не дольше maxWait.
func (rl *RateLimiter) AllowRequest(ctx context.Context) error {
	return rl.wait(ctx, rl.requests, 1, fmt.Sprintf("%d RPM", rl.requestsPerMinute))
}

// AllowTokens резервирует оценку токенов запроса.
func (rl *RateLimiter) AllowTokens(ctx context.Context, tokens int) error {
	if tokens > rl.tokensPerHour {
		tokens = rl.tokensPerHour
	}
	return rl.wait(ctx, rl.tokens, tokens, fmt.Sprintf("%d TPH", rl.tokensPerHour))
}

func (rl *RateLimiter) wait(ctx context.Context, l *rate.Limiter, n int, label string) error {
	r := l.ReserveN(time.Now(), n)
	if !r.OK() {
		return fmt.Errorf("%w (%s)", ErrLimitExceeded, label)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if delay > rl.maxWait {
		r.Cancel()
		return fmt.Errorf("%w (%s), повторите через %v", ErrLimitExceeded, label, delay.Round(time.Second))
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ConsumeTokens списывает токены сверх оценки после ответа.
func (rl *RateLimiter) ConsumeTokens(tokens int) {
	if tokens <= 0 {
		return
	}
	if tokens > rl.tokensPerHour {
		tokens = rl.tokensPerHour
	}
	rl.tokens.ReserveN(time.Now(), tokens)
}

// GetStats возвращает текущую статистику лимитера
func (rl *RateLimiter) GetStats() (requestsAvailable int, tokensAvailable int) {
	return int(rl.requests.Tokens()), int(rl.tokens.Tokens())
}
