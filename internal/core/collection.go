package core

import (
	"context"
	"medportal/internal/persistence"
	"medportal/pkg/domain"
	"sync"

	"go.uber.org/zap"
)

// collection is one ordered entity slice backed by a named durable slot. The
// write lock serializes mutate and persist; readers only take the data lock.
// Committed states are queued under the write lock and delivered by a single
// drainer, so subscribers see them in operation order and may themselves
// mutate the collection.
type collection[T any] struct {
	name   string
	idOf   func(T) string
	clone  func(T) T
	sample func() []T

	once    sync.Once
	writeMu sync.Mutex
	mu      sync.RWMutex
	items   []T

	subMu   sync.Mutex
	nextSub uint64
	subs    []subscriber[T]

	pubMu      sync.Mutex
	pending    [][]T
	delivering bool
}

type subscriber[T any] struct {
	id uint64
	fn func([]T)
}

func newCollection[T any](entity domain.EntityType, idOf func(T) string, clone func(T) T, sample func() []T) *collection[T] {
	return &collection[T]{name: entity.Collection(), idOf: idOf, clone: clone, sample: sample}
}

// ensure loads the collection from the store's adapter the first time it is
// used.
func (c *collection[T]) ensure(ctx context.Context, s *Store) {
	c.once.Do(func() {
		def := []T{}
		if s.seed && c.sample != nil {
			def = c.sample()
		}
		items, res := persistence.Load(ctx, s.adapter, c.name, def)
		if items == nil {
			items = []T{}
		}
		if res.Fallback && len(def) > 0 {
			s.logger.Info("seeded sample data",
				zap.String("collection", c.name),
				zap.Int("items", len(def)),
				zap.Bool("slot_present", res.Found))
		}
		c.mu.Lock()
		c.items = items
		c.mu.Unlock()
	})
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cloneAll(c.items)
}

func (c *collection[T]) cloneAll(items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = c.clone(item)
	}
	return out
}

func (c *collection[T]) find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if c.idOf(item) == id {
			return c.clone(item), true
		}
	}
	var zero T
	return zero, false
}

func (c *collection[T]) replace(items []T) {
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *collection[T]) indexOf(items []T, id string) int {
	for i, item := range items {
		if c.idOf(item) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) subscribe(fn func([]T)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// enqueue records a committed state for delivery. Callers hold writeMu.
func (c *collection[T]) enqueue(items []T) {
	c.pubMu.Lock()
	c.pending = append(c.pending, items)
	c.pubMu.Unlock()
}

// flush delivers queued states in order. When another call is already
// draining, including an outer call whose subscriber is mutating this
// collection, flush returns and leaves the state to that drainer.
func (c *collection[T]) flush() {
	c.pubMu.Lock()
	if c.delivering {
		c.pubMu.Unlock()
		return
	}
	c.delivering = true
	c.pubMu.Unlock()

	drained := false
	defer func() {
		if !drained {
			c.pubMu.Lock()
			c.delivering = false
			c.pubMu.Unlock()
		}
	}()
	for {
		c.pubMu.Lock()
		if len(c.pending) == 0 {
			c.delivering = false
			c.pubMu.Unlock()
			drained = true
			return
		}
		items := c.pending[0]
		c.pending[0] = nil
		c.pending = c.pending[1:]
		c.pubMu.Unlock()
		c.publish(items)
	}
}

// publish hands every current subscriber its own copy of items.
func (c *collection[T]) publish(items []T) {
	c.subMu.Lock()
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.subMu.Unlock()
	for _, s := range subs {
		s.fn(c.cloneAll(items))
	}
}
