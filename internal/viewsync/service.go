package viewsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned for work on a closed subscription or service.
var ErrClosed = errors.New("viewsync: closed")

// Options configures a Service. Zero intervals fall back to the defaults.
type Options struct {
	FastInterval time.Duration
	SlowInterval time.Duration
	Logger       zerolog.Logger
}

// poller is the type-erased side of a Subscription the Service schedules.
type poller interface {
	View() View
	Refresh(ctx context.Context) error
	Close()
}

type scheduled interface {
	poller
	setEntry(cron.EntryID)
}

// Service owns the scheduler and the set of live subscriptions.
type Service struct {
	cron   *cron.Cron
	fast   time.Duration
	slow   time.Duration
	logger zerolog.Logger

	mu      sync.Mutex
	subs    map[string]poller
	stopped bool
}

// New creates a Service. Polling begins with Start.
func New(opts Options) *Service {
	if opts.FastInterval <= 0 {
		opts.FastInterval = DefaultFastInterval
	}
	if opts.SlowInterval <= 0 {
		opts.SlowInterval = DefaultSlowInterval
	}
	clog := cronLogger{opts.Logger}
	return &Service{
		cron: cron.New(
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		fast:   opts.FastInterval,
		slow:   opts.SlowInterval,
		logger: opts.Logger,
		subs:   make(map[string]poller),
	}
}

// Interval returns the poll period for v.
func (s *Service) Interval(v View) time.Duration {
	if v.Fast() {
		return s.fast
	}
	return s.slow
}

// Start begins running scheduled polls in the background.
func (s *Service) Start() {
	s.cron.Start()
}

// Stop closes every subscription and waits for running polls to return.
func (s *Service) Stop() {
	s.mu.Lock()
	s.stopped = true
	subs := make([]poller, 0, len(s.subs))
	for _, p := range s.subs {
		subs = append(subs, p)
	}
	s.mu.Unlock()

	for _, p := range subs {
		p.Close()
	}
	<-s.cron.Stop().Done()
}

// RefreshAll polls every live subscription at once and returns the first
// failure. Each failure is also left on its own subscription's Status.
func (s *Service) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	subs := make([]poller, 0, len(s.subs))
	for _, p := range s.subs {
		subs = append(subs, p)
	}
	s.mu.Unlock()

	var g errgroup.Group
	for _, p := range subs {
		p := p
		g.Go(func() error {
			if err := p.Refresh(ctx); err != nil && !errors.Is(err, ErrClosed) {
				return fmt.Errorf("%s: %w", p.View(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Len returns the number of live subscriptions.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// register schedules job and hands the entry to p before the subscription
// becomes visible to Stop.
func (s *Service) register(id string, p scheduled, every time.Duration, job func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrClosed
	}
	p.setEntry(s.cron.Schedule(cron.Every(every), cron.FuncJob(job)))
	s.subs[id] = p
	return nil
}

func (s *Service) unregister(id string, entry cron.EntryID) {
	s.mu.Lock()
	delete(s.subs, id)
	s.mu.Unlock()
	s.cron.Remove(entry)
}

// cronLogger routes scheduler logs through zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
