package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter - ограничитель исходящих запросов (fixed window).
// Acquire никогда не отказывает: лишние вызовы ждут конца окна.
type Limiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	windowStart time.Time
	count       int

	onWait func()

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Config struct {
	RequestsPerSecond int
	// OnWait дёргается каждый раз, когда вызов упёрся в лимит окна
	OnWait func()
}

func New(cfg Config) *Limiter {
	limit := cfg.RequestsPerSecond
	if limit <= 0 {
		limit = 20
	}

	return &Limiter{
		limit:  limit,
		window: time.Second,
		onWait: cfg.OnWait,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Acquire блокирует до тех пор, пока в текущем окне не появится слот.
// Проверка и инкремент счётчика выполняются под одной блокировкой:
// два конкурентных вызова не могут одновременно увидеть count < limit.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()

		if now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}

		if l.count < l.limit {
			l.count++
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.windowStart)
		l.mu.Unlock()

		if l.onWait != nil {
			l.onWait()
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
