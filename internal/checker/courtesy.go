package checker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Courtesy manages a per-host token bucket so the Checker never hammers a
// single origin regardless of how many other hosts are also in flight.
type Courtesy struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewCourtesy builds a Courtesy limiter allowing ratePerSecond requests per
// host with the given burst. A non-positive rate disables limiting.
func NewCourtesy(ratePerSecond float64, burst int) *Courtesy {
	r := rate.Limit(ratePerSecond)
	if ratePerSecond <= 0 {
		r = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Courtesy{
		limiters: make(map[string]*rate.Limiter),
		perHost:  r,
		burst:    burst,
	}
}

// Wait blocks until a token is available for host, or ctx is done.
func (c *Courtesy) Wait(ctx context.Context, host string) error {
	limiter := c.limiterFor(host)
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("courtesy wait for %s: %w", host, err)
	}
	return nil
}

func (c *Courtesy) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(c.perHost, c.burst)
		c.limiters[host] = limiter
	}
	return limiter
}
