package core

import (
	"context"
	"medportal/pkg/domain"
)

// AddUploadedFile appends file metadata. An empty status defaults to uploading
// and an empty uploadDate to today.
func (s *Store) AddUploadedFile(ctx context.Context, f domain.UploadedFile) (domain.UploadedFile, error) {
	if f.Status == "" {
		f.Status = domain.UploadStatusUploading
	}
	if f.UploadDate == "" {
		f.UploadDate = s.today()
	}
	return commit(ctx, s, s.files, "add_uploaded_file", func(items []domain.UploadedFile) ([]domain.UploadedFile, domain.UploadedFile, bool, error) {
		if err := f.Validate(); err != nil {
			return nil, domain.UploadedFile{}, false, err
		}
		if s.files.indexOf(items, f.ID) >= 0 {
			return nil, domain.UploadedFile{}, false, domain.DuplicateIdentityError{Entity: domain.EntityUploadedFile, ID: f.ID}
		}
		change := domain.Change{Entity: domain.EntityUploadedFile, Action: domain.ActionCreate, After: f}
		if err := s.checkRules(ctx, change, f.ID, "", string(f.Status)); err != nil {
			return nil, domain.UploadedFile{}, false, err
		}
		return append(items, f), f, true, nil
	})
}

// UpdateUploadedFile merges patch into the file with id. Uploads may only
// finish once, and progress never decreases.
func (s *Store) UpdateUploadedFile(ctx context.Context, id string, patch domain.UploadedFilePatch) (domain.UploadedFile, error) {
	return commit(ctx, s, s.files, "update_uploaded_file", func(items []domain.UploadedFile) ([]domain.UploadedFile, domain.UploadedFile, bool, error) {
		idx := s.files.indexOf(items, id)
		if idx < 0 {
			return nil, domain.UploadedFile{}, false, domain.NotFoundError{Entity: domain.EntityUploadedFile, ID: id}
		}
		before := items[idx]
		updated := before
		patch.Apply(&updated)
		if !updated.Status.IsValid() {
			return nil, domain.UploadedFile{}, false, domain.EnumError{Entity: domain.EntityUploadedFile, ID: id, Field: "status", Value: string(updated.Status)}
		}
		change := domain.Change{Entity: domain.EntityUploadedFile, Action: domain.ActionUpdate, Before: before, After: updated}
		if err := s.checkRules(ctx, change, id, string(before.Status), string(updated.Status)); err != nil {
			return nil, domain.UploadedFile{}, false, err
		}
		if err := updated.Validate(); err != nil {
			return nil, domain.UploadedFile{}, false, err
		}
		items[idx] = updated
		return items, updated, true, nil
	})
}

// DeleteUploadedFile removes the file metadata with id; absence is a no-op.
// Records that reference the file keep the dangling id.
func (s *Store) DeleteUploadedFile(ctx context.Context, id string) error {
	_, err := commit(ctx, s, s.files, "delete_uploaded_file", func(items []domain.UploadedFile) ([]domain.UploadedFile, domain.UploadedFile, bool, error) {
		idx := s.files.indexOf(items, id)
		if idx < 0 {
			return nil, domain.UploadedFile{}, false, nil
		}
		removed := items[idx]
		change := domain.Change{Entity: domain.EntityUploadedFile, Action: domain.ActionDelete, Before: removed}
		if err := s.checkRules(ctx, change, id, "", ""); err != nil {
			return nil, domain.UploadedFile{}, false, err
		}
		return append(items[:idx], items[idx+1:]...), removed, true, nil
	})
	return err
}

// GetUploadedFile returns the file metadata with id.
func (s *Store) GetUploadedFile(id string) (domain.UploadedFile, bool) {
	s.read(s.files)
	return s.files.find(id)
}

// ListUploadedFiles returns every file in insertion order.
func (s *Store) ListUploadedFiles() []domain.UploadedFile {
	s.read(s.files)
	return s.files.snapshot()
}

// SubscribeUploadedFiles registers fn for uploaded file collection changes.
func (s *Store) SubscribeUploadedFiles(fn func([]domain.UploadedFile)) func() {
	return s.files.subscribe(fn)
}
