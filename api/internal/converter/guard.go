package converter

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Guard admits one conversion at a time; extra triggers are rejected, not queued.
type Guard struct {
	sem *semaphore.Weighted
}

func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

// Do runs fn unless another fn is running, in which case it returns
// ErrConversionInFlight without calling fn.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if !g.sem.TryAcquire(1) {
		return ErrConversionInFlight
	}
	defer g.sem.Release(1)
	return fn(ctx)
}

// Busy reports whether a conversion holds the guard.
func (g *Guard) Busy() bool {
	if g.sem.TryAcquire(1) {
		g.sem.Release(1)
		return false
	}
	return true
}
