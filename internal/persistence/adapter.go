// Package persistence is the boundary between the domain store and a durable
// named-slot medium. Each collection is stored as one JSON document per slot.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"medportal/pkg/domain"

	"go.uber.org/zap"
)

// Medium is a named-slot key-value store. Get reports ok=false when the slot
// has never been written. Set replaces the slot content in one write so a
// reader never observes a partial value.
type Medium interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	Set(ctx context.Context, name, value string) error
}

// Adapter loads and saves whole collections through a Medium.
type Adapter struct {
	medium Medium
	logger *zap.Logger
}

// NewAdapter wraps medium. A nil logger discards output.
func NewAdapter(medium Medium, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{medium: medium, logger: logger.Named("persistence")}
}

// Medium returns the wrapped medium.
func (a *Adapter) Medium() Medium { return a.medium }

// LoadResult tells the caller whether Load fell back to its default.
type LoadResult struct {
	Found    bool
	Fallback bool
}

// Load reads the named collection and reports how the value was obtained. A
// missing slot, a medium read failure or an unparsable document all yield def;
// failures are logged, never returned.
func Load[T any](ctx context.Context, a *Adapter, name string, def []T) ([]T, LoadResult) {
	raw, ok, err := a.medium.Get(ctx, name)
	if err != nil {
		a.logger.Warn("read collection failed; using default",
			zap.String("collection", name), zap.Error(err))
		return def, LoadResult{Fallback: true}
	}
	if !ok {
		a.logger.Debug("collection not present; using default", zap.String("collection", name))
		return def, LoadResult{Fallback: true}
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		a.logger.Warn("collection is not valid JSON; using default",
			zap.String("collection", name), zap.Int("bytes", len(raw)), zap.Error(err))
		return def, LoadResult{Found: true, Fallback: true}
	}
	if items == nil {
		items = []T{}
	}
	return items, LoadResult{Found: true}
}

// Save serializes items and writes them to the named slot. A failure is
// logged and returned as *domain.PersistenceError.
func Save[T any](ctx context.Context, a *Adapter, name string, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return &domain.PersistenceError{Collection: name, Op: "encode", Err: err}
	}
	if err := a.medium.Set(ctx, name, string(data)); err != nil {
		a.logger.Error("write collection failed", zap.String("collection", name), zap.Error(err))
		return &domain.PersistenceError{Collection: name, Op: "save", Err: fmt.Errorf("set slot: %w", err)}
	}
	return nil
}
