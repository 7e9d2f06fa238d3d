package core

import "medportal/pkg/domain"

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(LifecycleTransitionRule())
	engine.Register(NewUploadProgressRule())
	return engine
}
