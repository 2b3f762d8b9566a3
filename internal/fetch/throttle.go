package fetch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Throttle enforces per-domain politeness: at most permits concurrent
// requests per registrable domain, with a fresh uniform-random delay drawn
// from [minDelay, maxDelay] between consecutive dispatches to that domain.
type Throttle struct {
	mu       sync.Mutex
	domains  map[string]*domainGate
	permits  int
	minDelay time.Duration
	maxDelay time.Duration
}

type domainGate struct {
	sem  chan struct{}
	mu   sync.Mutex
	last time.Time
}

// NewThrottle builds a throttle; permits below one is treated as one and an
// inverted delay window is swapped into order.
func NewThrottle(permits int, minDelay, maxDelay time.Duration) *Throttle {
	if permits < 1 {
		permits = 1
	}
	if maxDelay < minDelay {
		minDelay, maxDelay = maxDelay, minDelay
	}
	return &Throttle{
		domains:  make(map[string]*domainGate),
		permits:  permits,
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Acquire blocks until the caller may dispatch a request to domain, then
// returns a release function. The release function is idempotent and must be
// called when the request finishes. The per-domain lock is held through the
// delay so concurrent waiters serialize and each observes a fresh draw.
func (t *Throttle) Acquire(ctx context.Context, domain string) (func(), error) {
	gate := t.gate(domain)

	select {
	case gate.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire %s permit: %w", domain, ctx.Err())
	}
	release := func() func() {
		var once sync.Once
		return func() {
			once.Do(func() { <-gate.sem })
		}
	}()

	gate.mu.Lock()
	if !gate.last.IsZero() {
		wait := t.drawDelay() - time.Since(gate.last)
		if err := sleepCtx(ctx, wait); err != nil {
			gate.mu.Unlock()
			release()
			return nil, err
		}
	}
	gate.last = time.Now()
	gate.mu.Unlock()

	return release, nil
}

// Reset drops all per-domain state. In-flight holders keep their permits;
// subsequent acquires see a fresh gate.
func (t *Throttle) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.domains = make(map[string]*domainGate)
}

func (t *Throttle) gate(domain string) *domainGate {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.domains[domain]
	if !ok {
		g = &domainGate{sem: make(chan struct{}, t.permits)}
		t.domains[domain] = g
	}
	return g
}

func (t *Throttle) drawDelay() time.Duration {
	if t.maxDelay <= t.minDelay {
		return t.minDelay
	}
	return t.minDelay + rand.N(t.maxDelay-t.minDelay)
}
