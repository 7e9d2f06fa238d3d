package core

import (
	"context"
	"medportal/pkg/domain"
)

// AddMedicalRecord appends a record. An empty status defaults to active and an
// empty createdAt to today. Every attachment must name an existing uploaded
// file.
func (s *Store) AddMedicalRecord(ctx context.Context, record domain.MedicalRecord) (domain.MedicalRecord, error) {
	record = record.Clone()
	if record.Status == "" {
		record.Status = domain.RecordStatusActive
	}
	if record.CreatedAt == "" {
		record.CreatedAt = s.today()
	}
	if record.Attachments == nil {
		record.Attachments = []string{}
	}
	return commit(ctx, s, s.records, "add_medical_record", func(items []domain.MedicalRecord) ([]domain.MedicalRecord, domain.MedicalRecord, bool, error) {
		if err := record.Validate(); err != nil {
			return nil, domain.MedicalRecord{}, false, err
		}
		if s.records.indexOf(items, record.ID) >= 0 {
			return nil, domain.MedicalRecord{}, false, domain.DuplicateIdentityError{Entity: domain.EntityMedicalRecord, ID: record.ID}
		}
		if err := s.requireFiles(ctx, record.Attachments); err != nil {
			return nil, domain.MedicalRecord{}, false, err
		}
		change := domain.Change{Entity: domain.EntityMedicalRecord, Action: domain.ActionCreate, After: record.Clone()}
		if err := s.checkRules(ctx, change, record.ID, "", string(record.Status)); err != nil {
			return nil, domain.MedicalRecord{}, false, err
		}
		return append(items, record), record.Clone(), true, nil
	})
}

// UpdateMedicalRecord merges patch into the record with id.
func (s *Store) UpdateMedicalRecord(ctx context.Context, id string, patch domain.MedicalRecordPatch) (domain.MedicalRecord, error) {
	return commit(ctx, s, s.records, "update_medical_record", func(items []domain.MedicalRecord) ([]domain.MedicalRecord, domain.MedicalRecord, bool, error) {
		idx := s.records.indexOf(items, id)
		if idx < 0 {
			return nil, domain.MedicalRecord{}, false, domain.NotFoundError{Entity: domain.EntityMedicalRecord, ID: id}
		}
		before := items[idx].Clone()
		updated := items[idx]
		patch.Apply(&updated)
		if err := updated.Validate(); err != nil {
			return nil, domain.MedicalRecord{}, false, err
		}
		if patch.Attachments != nil {
			if err := s.requireFiles(ctx, updated.Attachments); err != nil {
				return nil, domain.MedicalRecord{}, false, err
			}
		}
		change := domain.Change{Entity: domain.EntityMedicalRecord, Action: domain.ActionUpdate, Before: before, After: updated.Clone()}
		if err := s.checkRules(ctx, change, id, string(before.Status), string(updated.Status)); err != nil {
			return nil, domain.MedicalRecord{}, false, err
		}
		items[idx] = updated
		return items, updated.Clone(), true, nil
	})
}

// DeleteMedicalRecord removes the record with id. Deleting an absent id is a
// no-op. Attachments and prescriptions are left in place.
func (s *Store) DeleteMedicalRecord(ctx context.Context, id string) error {
	_, err := commit(ctx, s, s.records, "delete_medical_record", func(items []domain.MedicalRecord) ([]domain.MedicalRecord, domain.MedicalRecord, bool, error) {
		idx := s.records.indexOf(items, id)
		if idx < 0 {
			return nil, domain.MedicalRecord{}, false, nil
		}
		change := domain.Change{Entity: domain.EntityMedicalRecord, Action: domain.ActionDelete, Before: items[idx].Clone()}
		if err := s.checkRules(ctx, change, id, "", ""); err != nil {
			return nil, domain.MedicalRecord{}, false, err
		}
		removed := items[idx]
		return append(items[:idx], items[idx+1:]...), removed, true, nil
	})
	return err
}

// GetMedicalRecord returns a copy of the record with id.
func (s *Store) GetMedicalRecord(id string) (domain.MedicalRecord, bool) {
	s.read(s.records)
	return s.records.find(id)
}

// ListMedicalRecords returns a copy of every record in insertion order.
func (s *Store) ListMedicalRecords() []domain.MedicalRecord {
	s.read(s.records)
	return s.records.snapshot()
}

// MedicalRecordsByPatient returns the records whose patientId equals patientID.
func (s *Store) MedicalRecordsByPatient(patientID string) []domain.MedicalRecord {
	out := make([]domain.MedicalRecord, 0)
	for _, r := range s.ListMedicalRecords() {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out
}

// Attachments resolves the record's attachment ids to file metadata in order.
// Ids whose file has since been deleted are skipped.
func (s *Store) Attachments(recordID string) ([]domain.UploadedFile, error) {
	record, ok := s.GetMedicalRecord(recordID)
	if !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityMedicalRecord, ID: recordID}
	}
	s.read(s.files)
	out := make([]domain.UploadedFile, 0, len(record.Attachments))
	for _, fileID := range record.Attachments {
		if f, ok := s.files.find(fileID); ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// SubscribeMedicalRecords registers fn to receive the full collection after
// every successful mutation. The returned func unsubscribes.
func (s *Store) SubscribeMedicalRecords(fn func([]domain.MedicalRecord)) func() {
	return s.records.subscribe(fn)
}

func (s *Store) requireFiles(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.files.ensure(ctx, s)
	for _, id := range ids {
		if _, ok := s.files.find(id); !ok {
			return domain.NotFoundError{Entity: domain.EntityUploadedFile, ID: id}
		}
	}
	return nil
}
