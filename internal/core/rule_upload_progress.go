package core

import (
	"context"
	"fmt"
	"medportal/pkg/domain"
)

// NewUploadProgressRule ensures upload progress never moves backwards.
func NewUploadProgressRule() domain.Rule {
	return uploadProgressRule{}
}

type uploadProgressRule struct{}

func (uploadProgressRule) Name() string { return "upload_progress" }

func (uploadProgressRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityUploadedFile || change.Action != domain.ActionUpdate {
			continue
		}
		before, okBefore := change.Before.(domain.UploadedFile)
		after, okAfter := change.After.(domain.UploadedFile)
		if !okBefore || !okAfter {
			continue
		}
		if after.Progress < before.Progress {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "upload_progress",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("uploaded file %s progress cannot drop from %d to %d", after.ID, before.Progress, after.Progress),
				Entity:   domain.EntityUploadedFile,
				EntityID: after.ID,
			})
		}
	}
	return res, nil
}
