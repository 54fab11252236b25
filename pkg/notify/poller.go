package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"alexterm/pkg/protocol"
)

// Source yields pending notifications, removing them from where they came from.
type Source interface {
	Fetch(ctx context.Context) ([]protocol.Notification, error)
}

// MessageFetcher is the agent client method used by APISource.
type MessageFetcher interface {
	TerminalMessages(ctx context.Context) ([]protocol.Notification, error)
}

// APISource reads notifications the agent queued on its side.
type APISource struct {
	Client MessageFetcher
}

// Fetch implements Source.
func (s APISource) Fetch(ctx context.Context) ([]protocol.Notification, error) {
	return s.Client.TerminalMessages(ctx)
}

// Deliverer receives notifications in order.
type Deliverer interface {
	Deliver(ctx context.Context, n protocol.Notification) error
}

// Poller checks its sources on a fixed interval, independent of user
// activity. A change to the queue file triggers an early check, throttled so
// a chatty producer cannot turn the poller into a busy loop.
type Poller struct {
	sources   []Source
	deliver   Deliverer
	interval  time.Duration
	watchPath string
	limiter   *rate.Limiter
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the tick interval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithWatch enables fsnotify hints for the queue file at path.
func WithWatch(path string) Option {
	return func(p *Poller) { p.watchPath = path }
}

// NewPoller creates a Poller reading sources in the given order.
func NewPoller(deliver Deliverer, sources []Source, opts ...Option) *Poller {
	p := &Poller{
		sources:  sources,
		deliver:  deliver,
		interval: protocol.PollInterval,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run polls until ctx is cancelled. It always returns nil.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	var events <-chan fsnotify.Event
	var errs <-chan error
	if p.watchPath != "" {
		if w := initWatcher(p.watchPath); w != nil {
			defer w.Close()
			events, errs = w.Events, w.Errors
		}
	}
	debounce := newDebounceTimer()
	defer debounce.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.Poll(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if isQueueEvent(ev, p.watchPath) {
				resetDebounceTimer(debounce)
			}
		case <-debounce.C:
			if p.limiter.Allow() {
				p.Poll(ctx)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Debug("fsnotify: watcher error", "err", err)
		}
	}
}

// Poll runs one bounded pass over every source. Read failures are silent.
func (p *Poller) Poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	for _, src := range p.sources {
		items, err := src.Fetch(ctx)
		if err != nil {
			slog.Debug("notification source unavailable", "err", err)
			continue
		}
		for _, n := range items {
			if err := p.deliver.Deliver(ctx, n); err != nil {
				slog.Warn("notification dropped", "err", err, "text", n.Message())
				return
			}
		}
	}
}
