package fetcher

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ternarybob/sideline/internal/common"
	"golang.org/x/time/rate"
)

// HostLimiter bounds fetch concurrency overall and per host, and paces
// successive requests to the same host with a small randomized delay.
type HostLimiter struct {
	overall chan struct{}
	perHost int
	delay   time.Duration

	mu    sync.Mutex
	hosts map[string]*hostState
}

type hostState struct {
	slots   chan struct{}
	limiter *rate.Limiter
}

// NewHostLimiter creates a limiter with the given overall and per-host
// concurrency bounds and base inter-request delay.
func NewHostLimiter(overall, perHost int, delay time.Duration) *HostLimiter {
	if overall <= 0 {
		overall = 5
	}
	if perHost <= 0 {
		perHost = 2
	}
	return &HostLimiter{
		overall: make(chan struct{}, overall),
		perHost: perHost,
		delay:   delay,
		hosts:   make(map[string]*hostState),
	}
}

// Acquire blocks until a slot for the URL's host is available and the
// host's pacing interval has elapsed. The returned release function must
// be called exactly once.
func (l *HostLimiter) Acquire(ctx context.Context, rawURL string) (func(), error) {
	host := common.ExtractHost(rawURL)
	state := l.hostState(host)

	select {
	case l.overall <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case state.slots <- struct{}{}:
	case <-ctx.Done():
		<-l.overall
		return nil, ctx.Err()
	}

	release := func() {
		<-state.slots
		<-l.overall
	}

	if err := state.limiter.Wait(ctx); err != nil {
		release()
		return nil, err
	}

	// Small jitter so same-host requests don't land in lockstep
	if l.delay > 0 {
		jitter := time.Duration(rand.Int63n(int64(l.delay) / 2))
		timer := time.NewTimer(jitter)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			release()
			return nil, ctx.Err()
		}
	}

	return release, nil
}

func (l *HostLimiter) hostState(host string) *hostState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.hosts[host]
	if !ok {
		interval := l.delay
		if interval <= 0 {
			interval = 250 * time.Millisecond
		}
		state = &hostState{
			slots:   make(chan struct{}, l.perHost),
			limiter: rate.NewLimiter(rate.Every(interval), 1),
		}
		l.hosts[host] = state
	}
	return state
}
