// Package core hosts the medical record domain store: ordered in-memory
// collections backed by a durable medium, guarded by the rules engine and
// observed through synchronous subscriptions.
package core

import (
	"context"
	"fmt"
	"medportal/internal/infra/persistence/memory"
	"medportal/internal/persistence"
	"medportal/pkg/domain"
	"time"

	"go.uber.org/zap"
)

// Store is the authoritative in-memory manager for medical records,
// prescriptions and uploaded file metadata. Construct one per session with
// NewStore; it is safe for concurrent use.
type Store struct {
	adapter *persistence.Adapter
	engine  *domain.RulesEngine
	logger  *zap.Logger
	metrics MetricsRecorder
	nowFn   func() time.Time
	seed    bool

	records       *collection[domain.MedicalRecord]
	prescriptions *collection[domain.Prescription]
	files         *collection[domain.UploadedFile]
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the operation metrics recorder.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(s *Store) {
		if metrics != nil {
			s.metrics = metrics
		}
	}
}

// WithRulesEngine replaces the default rules engine.
func WithRulesEngine(engine *domain.RulesEngine) Option {
	return func(s *Store) { s.engine = engine }
}

// WithClock overrides the clock used to stamp createdAt and uploadDate.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithoutSampleData disables seeding of empty or unreadable collections.
func WithoutSampleData() Option {
	return func(s *Store) { s.seed = false }
}

// NewStore constructs a store over adapter. A nil adapter keeps state in a
// process-local medium.
func NewStore(adapter *persistence.Adapter, opts ...Option) *Store {
	s := &Store{
		engine:  NewDefaultRulesEngine(),
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		nowFn:   time.Now,
		seed:    true,
		records: newCollection(domain.EntityMedicalRecord,
			func(r domain.MedicalRecord) string { return r.ID },
			domain.MedicalRecord.Clone, sampleMedicalRecords),
		prescriptions: newCollection(domain.EntityPrescription,
			func(p domain.Prescription) string { return p.ID },
			domain.Prescription.Clone, samplePrescriptions),
		files: newCollection(domain.EntityUploadedFile,
			func(f domain.UploadedFile) string { return f.ID },
			domain.UploadedFile.Clone, sampleUploadedFiles),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("store")
	if adapter == nil {
		adapter = persistence.NewAdapter(memory.NewMedium(), s.logger)
	}
	s.adapter = adapter
	return s
}

// Preload reads every collection from the durable medium. Without it each
// collection loads on first use.
func (s *Store) Preload(ctx context.Context) {
	s.records.ensure(ctx, s)
	s.prescriptions.ensure(ctx, s)
	s.files.ensure(ctx, s)
}

// RulesEngine exposes the configured engine so callers can register rules.
func (s *Store) RulesEngine() *domain.RulesEngine { return s.engine }

func (s *Store) today() string { return domain.FormatDate(s.nowFn()) }

// mutation computes the next collection state from a private copy of the
// current one. changed=false marks a no-op that is neither persisted nor
// published.
type mutation[T any] func(current []T) (next []T, result T, changed bool, err error)

// commit runs m under the collection write lock, persists the new state and
// queues it for subscribers, then delivers outside the lock. A persistence
// failure is returned as *domain.PersistenceError after the in-memory change
// and notifications have happened.
func commit[T any](ctx context.Context, s *Store, c *collection[T], op string, m mutation[T]) (T, error) {
	start := time.Now()
	c.ensure(ctx, s)

	result, changed, persistErr, err := apply(ctx, s, c, op, m)
	if err != nil {
		s.metrics.Observe(ctx, op, false, time.Since(start))
		return result, err
	}
	if changed {
		c.flush()
	}
	s.metrics.Observe(ctx, op, persistErr == nil, time.Since(start))
	return result, persistErr
}

func apply[T any](ctx context.Context, s *Store, c *collection[T], op string, m mutation[T]) (result T, changed bool, persistErr, err error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	next, result, changed, err := m(c.snapshot())
	if err != nil || !changed {
		return result, false, nil, err
	}
	c.replace(next)
	s.metrics.CollectionSize(c.name, len(next))
	persistErr = persistence.Save(ctx, s.adapter, c.name, next)
	if persistErr != nil {
		s.metrics.PersistenceFailure(c.name)
		s.logger.Warn("change kept in memory only",
			zap.String("collection", c.name),
			zap.String("operation", op),
			zap.Error(persistErr))
	}
	c.enqueue(next)
	return result, true, persistErr, nil
}

// checkRules evaluates the engine against a single change. Warnings are
// logged; blocking violations become a TransitionError.
func (s *Store) checkRules(ctx context.Context, change domain.Change, id, from, to string) error {
	if s.engine == nil {
		return nil
	}
	res, err := s.engine.Evaluate(ctx, ruleView{s}, []domain.Change{change})
	if err != nil {
		return fmt.Errorf("evaluate rules: %w", err)
	}
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityWarn {
			s.logger.Warn("rule warning",
				zap.String("rule", v.Rule),
				zap.String("entity", string(v.Entity)),
				zap.String("id", v.EntityID),
				zap.String("message", v.Message))
		}
	}
	if !res.HasBlocking() {
		return nil
	}
	if from == to {
		from, to = "", ""
	}
	return domain.TransitionError{Entity: change.Entity, ID: id, From: from, To: to, Result: res}
}

type ruleView struct{ s *Store }

func (v ruleView) FindMedicalRecord(id string) (domain.MedicalRecord, bool) {
	return v.s.records.find(id)
}

func (v ruleView) FindPrescription(id string) (domain.Prescription, bool) {
	return v.s.prescriptions.find(id)
}

func (v ruleView) FindUploadedFile(id string) (domain.UploadedFile, bool) {
	return v.s.files.find(id)
}

func (s *Store) read(c interface {
	ensure(context.Context, *Store)
}) {
	c.ensure(context.Background(), s)
}
