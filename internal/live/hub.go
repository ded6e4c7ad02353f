// Package live re-runs read functions when a store commit could change
// their result and delivers the new value to the subscriber.
//
// The Hub is registered as a commit listener on the backend. Each
// Subscription owns one goroutine that recomputes on demand; notifications
// that arrive while a read is in flight coalesce into a single rerun, so a
// subscriber always eventually sees a value computed after the latest
// matching commit.
package live

import (
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// ErrClosed is delivered to subscriptions created on a closed hub.
var ErrClosed = errors.New("live: hub closed")

// Deps declares what a subscription reads. Empty Collections matches every
// commit. When Keys is set, a commit must also touch one of them; commits
// that carry no keys (bulk loads) always match.
type Deps struct {
	Collections []string
	Keys        []string
}

// Matches reports whether c could affect a read with these dependencies.
func (d Deps) Matches(c types.Commit) bool {
	if len(d.Collections) > 0 {
		hit := false
		for _, name := range d.Collections {
			if c.TouchesCollection(name) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if len(d.Keys) == 0 || len(c.Keys) == 0 {
		return true
	}
	for _, k := range d.Keys {
		if c.TouchesKey(k) {
			return true
		}
	}
	return false
}

type entry interface {
	notify()
	Close()
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.log = l
		}
	}
}

// Hub is the registry of active subscriptions.
type Hub struct {
	log     *zap.Logger
	lastSeq atomic.Uint64

	mu     sync.Mutex
	closed bool
	nextID uint64
	subs   map[uint64]registered
}

type registered struct {
	deps Deps
	sub  entry
}

// NewHub returns an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{log: zap.NewNop(), subs: make(map[uint64]registered)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Committed implements types.CommitListener. It never blocks.
func (h *Hub) Committed(c types.Commit) {
	h.lastSeq.Store(c.Seq)
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.subs {
		if r.deps.Matches(c) {
			r.sub.notify()
		}
	}
}

// Len returns the number of active subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscription. Later Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]entry, 0, len(h.subs))
	for _, r := range h.subs {
		subs = append(subs, r.sub)
	}
	h.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

func (h *Hub) add(deps Deps, sub entry) (uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, false
	}
	h.nextID++
	h.subs[h.nextID] = registered{deps: deps, sub: sub}
	return h.nextID, true
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}
