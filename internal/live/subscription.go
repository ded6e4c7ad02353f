package live

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Status is the state of a subscription's latest value.
type Status int

const (
	// Pending means no read has completed yet. It is distinct from an
	// empty result.
	Pending Status = iota
	// Ready means Value holds the latest result.
	Ready
	// Failed means the latest read returned Err.
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is one delivered state. Seq is the last commit sequence the hub
// had seen when the read started.
type Snapshot[T any] struct {
	Status Status
	Value  T
	Err    error
	Seq    uint64
}

// ReadFunc computes a subscription's value. It should honor ctx.
type ReadFunc[T any] func(ctx context.Context) (T, error)

// Subscription is a live binding between a read function and its latest
// result.
type Subscription[T any] struct {
	hub  *Hub
	id   uint64
	read ReadFunc[T]

	ctx    context.Context
	cancel context.CancelFunc
	dirty  chan struct{}
	out    chan Snapshot[T]
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	state Snapshot[T]
}

// Subscribe registers read with hub and schedules the first read. The
// subscription starts Pending.
func Subscribe[T any](hub *Hub, read ReadFunc[T], deps Deps) *Subscription[T] {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscription[T]{
		hub:    hub,
		read:   read,
		ctx:    ctx,
		cancel: cancel,
		dirty:  make(chan struct{}, 1),
		out:    make(chan Snapshot[T], 1),
		done:   make(chan struct{}),
	}

	id, ok := hub.add(deps, s)
	if !ok {
		cancel()
		s.state = Snapshot[T]{Status: Failed, Err: ErrClosed}
		s.out <- s.state
		close(s.out)
		close(s.done)
		return s
	}
	s.id = id
	s.notify()
	go s.run()
	return s
}

// Updates delivers snapshots. Only the most recent undelivered snapshot is
// kept; the channel is closed by Close.
func (s *Subscription[T]) Updates() <-chan Snapshot[T] { return s.out }

// State returns the latest snapshot.
func (s *Subscription[T]) State() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close stops recomputation, cancels and discards an in-flight read,
// removes the subscription from the hub and closes Updates. It returns once
// the worker goroutine has exited. Idempotent.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.hub.remove(s.id)
		s.cancel()
		<-s.done
	})
}

func (s *Subscription[T]) notify() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) run() {
	defer close(s.done)
	defer close(s.out)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.dirty:
		}

		seq := s.hub.lastSeq.Load()
		value, err := s.read(s.ctx)
		if s.ctx.Err() != nil {
			return
		}
		snap := Snapshot[T]{Status: Ready, Value: value, Seq: seq}
		if err != nil {
			s.hub.log.Debug("subscription read failed", zap.Uint64("subscription", s.id), zap.Error(err))
			snap = Snapshot[T]{Status: Failed, Err: err, Seq: seq}
		}
		s.publish(snap)
	}
}

// publish records snap and replaces any undelivered snapshot with it.
func (s *Subscription[T]) publish(snap Snapshot[T]) {
	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()

	for {
		select {
		case s.out <- snap:
			return
		default:
		}
		select {
		case <-s.out:
		default:
		}
	}
}
