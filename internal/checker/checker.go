// Package checker implements kimchi's bounded-concurrency Checker: the
// component that dispatches each canonicalized Uri to the right transport
// backend, enforces timeouts and retries, and yields a Response.
package checker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kimchi-link/kimchi/internal/policy"
	"github.com/kimchi-link/kimchi/internal/uri"
)

// Item pairs a canonicalized Uri with its policy verdict; Excluded items
// short-circuit straight to a Response without touching any backend.
type Item struct {
	Uri      uri.Uri
	Decision policy.Decision
}

// Config bundles everything the Checker core needs besides the backends
// themselves (those are injected directly, mirroring the teacher's
// constructor-injected Fetcher/Detector/Policy pattern).
type Config struct {
	MaxConcurrency int
	Accepted       AcceptedStatus
	Schedule       Schedule
	RequestBuilder func(uri.Uri) Request
}

// Checker is the bounded-concurrency executor. One Checker instance owns a
// shared WebClient, an optional GitHubClient, a MailProber, and a Courtesy
// limiter; all are safe for concurrent use across every in-flight check.
type Checker struct {
	cfg      Config
	web      *WebClient
	github   *GitHubClient
	mail     *MailProber
	courtesy *Courtesy
	progress func(done, total int)
	logger   *zap.Logger
}

// New builds a Checker. github and courtesy may be nil; nil courtesy
// disables per-host rate limiting.
func New(cfg Config, web *WebClient, github *GitHubClient, mail *MailProber, courtesy *Courtesy, logger *zap.Logger) *Checker {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 128
	}
	return &Checker{cfg: cfg, web: web, github: github, mail: mail, courtesy: courtesy, logger: logger}
}

// OnProgress registers a callback invoked with monotonically increasing
// completion counts, per spec §5's "one progress reporter" requirement.
func (c *Checker) OnProgress(fn func(done, total int)) {
	c.progress = fn
}

// Run drains items, checking each with bounded concurrency, and returns one
// Response per item. A semaphore of capacity MaxConcurrency gates
// acquisition FIFO-fair best-effort, matching the teacher's weighted
// semaphore usage for bounding concurrent outbound calls.
func (c *Checker) Run(ctx context.Context, items []Item) []Response {
	sem := semaphore.NewWeighted(int64(c.cfg.MaxConcurrency))
	responses := make([]Response, len(items))

	var wg sync.WaitGroup
	var completed int64
	var mu sync.Mutex

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			responses[i] = Response{Uri: item.Uri, Status: Status{Kind: StatusFailed, Reason: "cancelled before admission"}}
			continue
		}
		wg.Add(1)
		go func(idx int, it Item) {
			defer wg.Done()
			defer sem.Release(1)
			responses[idx] = c.checkOne(ctx, it)
			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			if c.progress != nil {
				c.progress(int(done), len(items))
			}
		}(i, item)
	}
	wg.Wait()
	return responses
}

// checkOne runs the full per-URI state machine: policy short-circuit,
// dispatch to the matching backend, retry-with-backoff on failure, and
// classification of the terminal outcome.
func (c *Checker) checkOne(ctx context.Context, item Item) Response {
	start := time.Now()
	if !item.Decision.Checked {
		return Response{
			Uri:      item.Uri,
			Attempts: 0,
			Elapsed:  time.Since(start),
			Status:   Status{Kind: StatusExcluded, Reason: string(item.Decision.Reason), PolicyInfo: string(item.Decision.Reason)},
		}
	}

	var outcome Outcome
	attempts := 0
	for attempt := 0; ; attempt++ {
		attempts++
		outcome = c.dispatch(ctx, item.Uri)
		if !isTransient(outcome) || !c.cfg.Schedule.ShouldRetry(attempts) {
			break
		}
		wait := c.cfg.Schedule.Backoff(attempt, retryAfter(outcome.Headers))
		if waitErr := c.sleepOrCancel(ctx, wait); waitErr != nil {
			outcome = Outcome{FinalUri: item.Uri, Err: waitErr}
			break
		}
	}
	status := Classify(item.Uri, outcome, c.cfg.Accepted)
	return Response{Uri: item.Uri, Status: status, Elapsed: time.Since(start), Attempts: attempts}
}

// sleepOrCancel waits out the retry backoff, observing cancellation at this
// suspension point per spec §5's cancellation-token requirement.
func (c *Checker) sleepOrCancel(ctx context.Context, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dispatch routes a single Uri to the backend spec §4.5 names for it.
func (c *Checker) dispatch(ctx context.Context, u uri.Uri) Outcome {
	switch u.Kind {
	case uri.KindMail:
		if c.mail == nil {
			return Outcome{Err: errNoMailProber}
		}
		return c.mail.Probe(u.MailLocal, u.MailDomain)
	case uri.KindFileRef:
		return CheckFileRef(u.AbsPath)
	default:
		return c.dispatchWeb(ctx, u)
	}
}

func (c *Checker) dispatchWeb(ctx context.Context, u uri.Uri) Outcome {
	if c.github != nil {
		if owner, repo, ok := RepoPath(u.Host, u.Path); ok {
			outcome, err := c.github.CheckRepo(ctx, owner, repo)
			if err == nil {
				return outcome
			}
		}
	}
	if c.courtesy != nil {
		if err := c.courtesy.Wait(ctx, u.Host); err != nil {
			return Outcome{Err: err}
		}
	}
	req := c.cfg.RequestBuilder(u)
	outcome, err := c.web.Do(ctx, req)
	if err != nil {
		return Outcome{Err: err}
	}
	return outcome
}

// WarnIfUnscopedBasicAuth logs once, at wiring time, when basic_auth is
// configured with no include/scheme restriction to narrow which hosts
// receive it. Every request still carries the credentials (spec §4.5 is
// silent on scoping), but an operator who forgot --include or --scheme
// should see this before credentials reach arbitrary hosts.
func WarnIfUnscopedBasicAuth(logger *zap.Logger, basicAuthConfigured, hasInclude, hasScheme bool) {
	if !basicAuthConfigured || hasInclude || hasScheme || logger == nil {
		return
	}
	logger.Warn("basic_auth is configured without an include or scheme restriction; credentials will be sent to every checked host")
}

var errNoMailProber = &noBackendError{"no mail prober configured"}

type noBackendError struct{ msg string }

func (e *noBackendError) Error() string { return e.msg }
