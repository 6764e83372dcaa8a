package autoindex

import (
	"context"
	"sync"
)

type cycleKey struct{}

// cycle remembers the first fatal provider error of one request cycle.
type cycle struct {
	mu  sync.Mutex
	err error
}

// WithCycle starts a request cycle. Quota and credential failures inside it
// stop further provider calls until the cycle ends with the context.
func WithCycle(ctx context.Context) context.Context {
	return context.WithValue(ctx, cycleKey{}, &cycle{})
}

func cycleFrom(ctx context.Context) *cycle {
	c, _ := ctx.Value(cycleKey{}).(*cycle)
	return c
}

func (c *cycle) tripped() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *cycle) trip(err error) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}
