package core

import (
	"context"
	"medportal/pkg/domain"
)

// AddPrescription appends a prescription. An empty status defaults to draft.
func (s *Store) AddPrescription(ctx context.Context, p domain.Prescription) (domain.Prescription, error) {
	p = p.Clone()
	if p.Status == "" {
		p.Status = domain.PrescriptionStatusDraft
	}
	if p.CreatedAt == "" {
		p.CreatedAt = s.today()
	}
	if p.Medications == nil {
		p.Medications = []domain.Medication{}
	}
	return commit(ctx, s, s.prescriptions, "add_prescription", func(items []domain.Prescription) ([]domain.Prescription, domain.Prescription, bool, error) {
		if err := p.Validate(); err != nil {
			return nil, domain.Prescription{}, false, err
		}
		if s.prescriptions.indexOf(items, p.ID) >= 0 {
			return nil, domain.Prescription{}, false, domain.DuplicateIdentityError{Entity: domain.EntityPrescription, ID: p.ID}
		}
		change := domain.Change{Entity: domain.EntityPrescription, Action: domain.ActionCreate, After: p.Clone()}
		if err := s.checkRules(ctx, change, p.ID, "", string(p.Status)); err != nil {
			return nil, domain.Prescription{}, false, err
		}
		return append(items, p), p.Clone(), true, nil
	})
}

// UpdatePrescription merges patch into the prescription with id. Status
// changes must follow draft, issued, dispensed, completed one step at a time.
func (s *Store) UpdatePrescription(ctx context.Context, id string, patch domain.PrescriptionPatch) (domain.Prescription, error) {
	return commit(ctx, s, s.prescriptions, "update_prescription", func(items []domain.Prescription) ([]domain.Prescription, domain.Prescription, bool, error) {
		idx := s.prescriptions.indexOf(items, id)
		if idx < 0 {
			return nil, domain.Prescription{}, false, domain.NotFoundError{Entity: domain.EntityPrescription, ID: id}
		}
		before := items[idx].Clone()
		updated := items[idx]
		patch.Apply(&updated)
		if !updated.Status.IsValid() {
			return nil, domain.Prescription{}, false, domain.EnumError{Entity: domain.EntityPrescription, ID: id, Field: "status", Value: string(updated.Status)}
		}
		change := domain.Change{Entity: domain.EntityPrescription, Action: domain.ActionUpdate, Before: before, After: updated.Clone()}
		if err := s.checkRules(ctx, change, id, string(before.Status), string(updated.Status)); err != nil {
			return nil, domain.Prescription{}, false, err
		}
		if err := updated.Validate(); err != nil {
			return nil, domain.Prescription{}, false, err
		}
		items[idx] = updated
		return items, updated.Clone(), true, nil
	})
}

// AdvancePrescription moves the prescription with id to the next status.
func (s *Store) AdvancePrescription(ctx context.Context, id string) (domain.Prescription, error) {
	current, ok := s.GetPrescription(id)
	if !ok {
		return domain.Prescription{}, domain.NotFoundError{Entity: domain.EntityPrescription, ID: id}
	}
	next, ok := current.Status.Next()
	if !ok {
		return domain.Prescription{}, domain.TransitionError{
			Entity: domain.EntityPrescription,
			ID:     id,
			From:   string(current.Status),
			To:     "(none)",
		}
	}
	return s.UpdatePrescription(ctx, id, domain.PrescriptionPatch{Status: &next})
}

// DeletePrescription removes the prescription with id; absence is a no-op.
func (s *Store) DeletePrescription(ctx context.Context, id string) error {
	_, err := commit(ctx, s, s.prescriptions, "delete_prescription", func(items []domain.Prescription) ([]domain.Prescription, domain.Prescription, bool, error) {
		idx := s.prescriptions.indexOf(items, id)
		if idx < 0 {
			return nil, domain.Prescription{}, false, nil
		}
		change := domain.Change{Entity: domain.EntityPrescription, Action: domain.ActionDelete, Before: items[idx].Clone()}
		if err := s.checkRules(ctx, change, id, "", ""); err != nil {
			return nil, domain.Prescription{}, false, err
		}
		removed := items[idx]
		return append(items[:idx], items[idx+1:]...), removed, true, nil
	})
	return err
}

// GetPrescription returns a copy of the prescription with id.
func (s *Store) GetPrescription(id string) (domain.Prescription, bool) {
	s.read(s.prescriptions)
	return s.prescriptions.find(id)
}

// ListPrescriptions returns a copy of every prescription in insertion order.
func (s *Store) ListPrescriptions() []domain.Prescription {
	s.read(s.prescriptions)
	return s.prescriptions.snapshot()
}

// SubscribePrescriptions registers fn for prescription collection changes.
func (s *Store) SubscribePrescriptions(fn func([]domain.Prescription)) func() {
	return s.prescriptions.subscribe(fn)
}
