package testutil

import (
	"context"
	"testing"
	"time"
)

// Ticker описывает всё, что продвигается вызовом Tick (например, pathing.Service).
type Ticker interface {
	Tick()
}

// TickUntil вызывает Tick, пока check не вернёт true, но не больше maxTicks раз.
// Возвращает число выполненных тиков. Используется вместо Run + time.Sleep,
// чтобы тесты планировщика были детерминированными.
func TickUntil(tb testing.TB, svc Ticker, check func() bool, maxTicks int) int {
	tb.Helper()

	for i := range maxTicks {
		if check() {
			return i
		}
		svc.Tick()
	}
	if !check() {
		tb.Fatalf("condition not met within %d ticks", maxTicks)
	}
	return maxTicks
}

// WaitFor ждёт пока condition будет выполнено (polling с timeout).
//
// Пример:
//
//	go svc.Run(ctx)
//	testutil.WaitFor(t, func() bool {
//	    return svc.QueueLength() == 0
//	}, 5*time.Second)
func WaitFor(t testing.TB, check func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("timeout: condition not met within %v", timeout)
		case <-ticker.C:
			if check() {
				return
			}
		}
	}
}

// Context возвращает context, который отменяется по timeout или при завершении теста.
func Context(tb testing.TB, timeout time.Duration) context.Context {
	tb.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	tb.Cleanup(cancel)
	return ctx
}
