package core

import (
	"context"
	"fmt"
	"medportal/pkg/domain"
)

// LifecycleTransitionRule blocks status changes missing from the transition
// table of stateful entities. Same-state updates are always allowed.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type lifecycleMachine struct {
	label     string
	edges     map[string]map[string]struct{}
	extractor func(payload any) (id string, state string, ok bool)
}

var lifecycleMachines = map[domain.EntityType]lifecycleMachine{
	domain.EntityPrescription: {
		label: "prescription",
		edges: map[string]map[string]struct{}{
			string(domain.PrescriptionStatusDraft):     toSet(string(domain.PrescriptionStatusIssued)),
			string(domain.PrescriptionStatusIssued):    toSet(string(domain.PrescriptionStatusDispensed)),
			string(domain.PrescriptionStatusDispensed): toSet(string(domain.PrescriptionStatusCompleted)),
			string(domain.PrescriptionStatusCompleted): toSet(),
		},
		extractor: func(payload any) (string, string, bool) {
			p, ok := payload.(domain.Prescription)
			if !ok {
				return "", "", false
			}
			return p.ID, string(p.Status), true
		},
	},
	domain.EntityUploadedFile: {
		label: "uploaded file",
		edges: map[string]map[string]struct{}{
			string(domain.UploadStatusUploading): toSet(string(domain.UploadStatusCompleted), string(domain.UploadStatusFailed)),
			string(domain.UploadStatusCompleted): toSet(),
			string(domain.UploadStatusFailed):    toSet(),
		},
		extractor: func(payload any) (string, string, bool) {
			f, ok := payload.(domain.UploadedFile)
			if !ok {
				return "", "", false
			}
			return f.ID, string(f.Status), true
		},
	},
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionUpdate {
			continue
		}
		machine, ok := lifecycleMachines[change.Entity]
		if !ok {
			continue
		}
		id, before, ok := machine.extractor(change.Before)
		if !ok {
			continue
		}
		_, after, ok := machine.extractor(change.After)
		if !ok || after == before {
			continue
		}
		if _, allowed := machine.edges[before][after]; allowed {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "lifecycle_transition",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("cannot move %s %s from %s to %s", machine.label, id, before, after),
			Entity:   change.Entity,
			EntityID: id,
		})
	}
	return res, nil
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
