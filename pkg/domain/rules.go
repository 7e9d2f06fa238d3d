package domain

import (
	"context"
	"strings"
)

// RuleView provides read-only access to committed entities for rule evaluation.
type RuleView interface {
	FindMedicalRecord(id string) (MedicalRecord, bool)
	FindPrescription(id string) (Prescription, bool)
	FindUploadedFile(id string) (UploadedFile, bool)
}

// Change describes a mutation about to be applied to a collection. Before is
// nil for creates; After is nil for deletes.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior.
const (
	SeverityWarn  Severity = "warn"
	SeverityBlock Severity = "block"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Summary joins blocking violation messages.
func (r Result) Summary() string {
	msgs := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			msgs = append(msgs, v.Message)
		}
	}
	return strings.Join(msgs, "; ")
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "mutation blocked by rules: " + e.Result.Summary()
}

// Unwrap returns ErrInvalidTransition.
func (e RuleViolationError) Unwrap() error { return ErrInvalidTransition }

// Rule defines an evaluation executed before a mutation is committed.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine(rules ...Rule) *RulesEngine {
	return &RulesEngine{rules: rules}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
