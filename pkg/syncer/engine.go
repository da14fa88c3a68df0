// Package syncer reconciles the local store with the remote store in both
// directions. Push drains dirty records outward; pull ingests remote changes
// behind a per-thread cursor. Neither loop ever blocks a local write.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sendlink/sendlink/pkg/notify"
	"github.com/sendlink/sendlink/pkg/storage"
)

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	PushInterval time.Duration // default 5s
	PullInterval time.Duration // default 15s
	RetryBudget  int           // transient retries per record, default 3
	RetryBase    time.Duration // first backoff delay, default 250ms
	RateLimit    rate.Limit    // remote calls per second, default 20
	Notifier     notify.Publisher
	Logger       *slog.Logger
}

// Engine owns the background push and pull tasks.
type Engine struct {
	local  storage.LocalStore
	remote storage.RemoteStore
	owner  string

	pushInterval time.Duration
	pullInterval time.Duration
	retryBudget  int
	retryBase    time.Duration
	limiter      *rate.Limiter
	notifier     notify.Publisher
	logger       *slog.Logger

	kickPush chan struct{}
	kickPull chan struct{}
}

// New creates an engine for the given device owner.
func New(local storage.LocalStore, remote storage.RemoteStore, owner string, opts Options) *Engine {
	if opts.PushInterval <= 0 {
		opts.PushInterval = 5 * time.Second
	}
	if opts.PullInterval <= 0 {
		opts.PullInterval = 15 * time.Second
	}
	if opts.RetryBudget <= 0 {
		opts.RetryBudget = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 250 * time.Millisecond
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NoOpPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		local:        local,
		remote:       remote,
		owner:        owner,
		pushInterval: opts.PushInterval,
		pullInterval: opts.PullInterval,
		retryBudget:  opts.RetryBudget,
		retryBase:    opts.RetryBase,
		limiter:      rate.NewLimiter(opts.RateLimit, int(opts.RateLimit)*2),
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		kickPush:     make(chan struct{}, 1),
		kickPull:     make(chan struct{}, 1),
	}
}

// Run starts the push and pull loops and blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.loop(ctx, e.pushInterval, e.kickPush, "push", e.PushOnce)
	}()
	go func() {
		defer wg.Done()
		e.loop(ctx, e.pullInterval, e.kickPull, "pull", e.PullOnce)
	}()
	wg.Wait()
}

// Kick schedules an immediate push and pull cycle, used on reconnect and
// after local writes that should not wait for the next tick.
func (e *Engine) Kick() {
	select {
	case e.kickPush <- struct{}{}:
	default:
	}
	select {
	case e.kickPull <- struct{}{}:
	default:
	}
}

func (e *Engine) loop(ctx context.Context, every time.Duration, kick <-chan struct{}, name string, cycle func(context.Context) error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-kick:
		}
		if err := cycle(ctx); err != nil && ctx.Err() == nil {
			e.logger.Error("sync cycle failed", "loop", name, "error", err)
		}
	}
}
