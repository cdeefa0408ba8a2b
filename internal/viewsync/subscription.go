package viewsync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/eduserv/ledger/internal/pkg/metrics"
)

// FetchFunc pulls the authoritative rows of one view.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// KeyFunc identifies a row so a patch can replace it.
type KeyFunc[K comparable, T any] func(T) K

// Status is what a view shows above its table.
type Status struct {
	LastSync time.Time
	Err      error
	// Banner is empty when the last poll succeeded.
	Banner  string
	Pending int
}

type patch[T any] struct {
	seq  uint64
	item T
}

// Subscription is one view's cached snapshot plus its pending optimistic
// patches. Safe for concurrent use.
type Subscription[K comparable, T any] struct {
	id     string
	view   View
	svc    *Service
	fetch  FetchFunc[T]
	key    KeyFunc[K, T]
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	entry  cron.EntryID

	mu       sync.Mutex
	snapshot []T
	patches  []patch[T]
	patchSeq uint64
	issued   uint64
	applied  uint64
	status   Status
	closed   bool
}

// Subscribe schedules view on svc, runs a first poll and returns the
// subscription. A failed first poll is reported on Status, not returned.
func Subscribe[K comparable, T any](ctx context.Context, svc *Service, view View, fetch FetchFunc[T], key KeyFunc[K, T]) (*Subscription[K, T], error) {
	if !view.Valid() {
		return nil, fmt.Errorf("unknown view %d", int(view))
	}

	sub := &Subscription[K, T]{
		id:     uuid.NewString(),
		view:   view,
		svc:    svc,
		fetch:  fetch,
		key:    key,
		logger: svc.logger.With().Str("view", view.String()).Logger(),
	}
	sub.ctx, sub.cancel = context.WithCancel(context.Background())

	every := svc.Interval(view)
	err := svc.register(sub.id, sub, every, func() {
		pollCtx, cancel := context.WithTimeout(sub.ctx, every)
		defer cancel()
		_ = sub.Refresh(pollCtx)
	})
	if err != nil {
		sub.cancel()
		return nil, err
	}

	_ = sub.Refresh(ctx)
	return sub, nil
}

func (s *Subscription[K, T]) setEntry(id cron.EntryID) {
	s.mu.Lock()
	s.entry = id
	s.mu.Unlock()
}

// View returns the subscribed view.
func (s *Subscription[K, T]) View() View { return s.view }

// Refresh polls once. A success replaces the snapshot and drops every patch
// applied before the poll began; a failure keeps the last good snapshot and
// sets the banner. A poll that finishes after a newer one is discarded.
func (s *Subscription[K, T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.issued++
	ticket := s.issued
	seenPatches := s.patchSeq
	s.mu.Unlock()

	// Cancelled by either the caller or Close.
	pollCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	rows, err := s.fetch(pollCtx)
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if ticket < s.applied {
		s.logger.Debug().Uint64("ticket", ticket).Uint64("applied", s.applied).Msg("Discarding stale poll")
		return nil
	}
	metrics.ViewPolled(s.view.String(), err, elapsed)

	if err != nil {
		s.status.Err = err
		s.status.Banner = fmt.Sprintf("Could not refresh %s: %v", s.view, err)
		s.logger.Warn().Err(err).Dur("elapsed", elapsed).Msg("View refresh failed")
		return err
	}

	s.applied = ticket
	s.snapshot = append([]T(nil), rows...)
	kept := s.patches[:0]
	for _, p := range s.patches {
		if p.seq > seenPatches {
			kept = append(kept, p)
		}
	}
	s.patches = kept
	s.status = Status{LastSync: time.Now(), Pending: len(s.patches)}
	s.logger.Debug().Int("rows", len(rows)).Dur("elapsed", elapsed).Msg("View refreshed")
	return nil
}

// Snapshot returns the last good rows with pending patches laid over them.
// A patch replaces the row with the same key, or is appended.
func (s *Subscription[K, T]) Snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]T(nil), s.snapshot...)
	for _, p := range s.patches {
		k := s.key(p.item)
		replaced := false
		for i := range out {
			if s.key(out[i]) == k {
				out[i] = p.item
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p.item)
		}
	}
	return out
}

// Status returns the current banner and last sync time.
func (s *Subscription[K, T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Pending = len(s.patches)
	return st
}

// Write shows item immediately, then runs write. If write fails the patch
// is rolled back and the error returned. On success the patch stays until
// the next poll that starts after it.
func (s *Subscription[K, T]) Write(ctx context.Context, item T, write func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.patchSeq++
	seq := s.patchSeq
	s.patches = append(s.patches, patch[T]{seq: seq, item: item})
	s.mu.Unlock()

	if err := write(ctx); err != nil {
		s.mu.Lock()
		for i, p := range s.patches {
			if p.seq == seq {
				s.patches = append(s.patches[:i], s.patches[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("Write failed, optimistic patch rolled back")
		return err
	}
	return nil
}

// Close stops polling and cancels any poll in flight. Safe to call twice.
func (s *Subscription[K, T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.patches = nil
	entry := s.entry
	s.mu.Unlock()

	s.cancel()
	s.svc.unregister(s.id, entry)
}
