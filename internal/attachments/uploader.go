// Package attachments moves attachment payloads into blob storage and keeps
// the matching UploadedFile metadata in step with the transfer.
package attachments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"medportal/internal/blob"
	"medportal/pkg/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// KeyPrefix roots every payload key.
const KeyPrefix = "medical-files/"

// ErrNotVerifiable is returned by Verify for files without a recorded digest.
var ErrNotVerifiable = errors.New("uploaded file has no content hash")

// FileStore is the slice of the domain store the uploader drives.
type FileStore interface {
	AddUploadedFile(ctx context.Context, f domain.UploadedFile) (domain.UploadedFile, error)
	UpdateUploadedFile(ctx context.Context, id string, patch domain.UploadedFilePatch) (domain.UploadedFile, error)
	GetUploadedFile(id string) (domain.UploadedFile, bool)
	DeleteUploadedFile(ctx context.Context, id string) error
}

// Uploader streams payloads into a blob store and records progress,
// completion and locator on the UploadedFile.
type Uploader struct {
	files  FileStore
	blobs  blob.Store
	logger *zap.Logger
	newID  func() string
	step   int
}

// Option customises an Uploader.
type Option func(*Uploader)

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithIDGenerator overrides id generation for uploads without an explicit id.
func WithIDGenerator(fn func() string) Option {
	return func(u *Uploader) {
		if fn != nil {
			u.newID = fn
		}
	}
}

// WithProgressStep sets the minimum percentage advance between progress
// updates. Values outside 1-99 are ignored.
func WithProgressStep(step int) Option {
	return func(u *Uploader) {
		if step > 0 && step < 100 {
			u.step = step
		}
	}
}

// NewUploader wires an uploader over files and blobs.
func NewUploader(files FileStore, blobs blob.Store, opts ...Option) *Uploader {
	u := &Uploader{
		files:  files,
		blobs:  blobs,
		logger: zap.NewNop(),
		newID:  func() string { return "F-" + uuid.NewString() },
		step:   10,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = u.logger.Named("attachments")
	return u
}

// Request describes one payload to upload. Size is the expected byte count
// used for progress; zero means unknown.
type Request struct {
	ID   string
	Name string
	Type string
	Size int64
	Body io.Reader
}

// Key returns the blob key for a file id. The display name is kept out of the
// key so renames leave the payload reachable.
func Key(id string) string {
	return KeyPrefix + id + "/payload"
}

// Upload registers the file as uploading, streams the body to blob storage
// and marks the file completed with its locator and SHA-256 digest. On a
// transfer error the file is marked failed and the error returned.
func (u *Uploader) Upload(ctx context.Context, req Request) (domain.UploadedFile, error) {
	if req.Body == nil {
		return domain.UploadedFile{}, fmt.Errorf("upload %q: nil body", req.Name)
	}
	id := req.ID
	if id == "" {
		id = u.newID()
	}
	meta, err := u.files.AddUploadedFile(ctx, domain.UploadedFile{
		ID:     id,
		Name:   req.Name,
		Size:   req.Size,
		Type:   req.Type,
		Status: domain.UploadStatusUploading,
	})
	if err != nil && !domain.IsWarning(err) {
		return domain.UploadedFile{}, err
	}
	u.warn(err, id)

	key := Key(id)
	pr := &progressReader{r: req.Body, total: req.Size, step: u.step, report: func(pct int) {
		_, perr := u.files.UpdateUploadedFile(ctx, id, domain.UploadedFilePatch{Progress: &pct})
		if perr != nil && !domain.IsWarning(perr) {
			u.logger.Warn("progress update rejected", zap.String("file_id", id), zap.Error(perr))
		}
	}}
	info, err := u.blobs.Put(ctx, key, pr, blob.PutOptions{
		ContentType: req.Type,
		Metadata:    map[string]string{"file-id": id},
	})
	if err != nil {
		failed := domain.UploadStatusFailed
		if _, ferr := u.files.UpdateUploadedFile(ctx, id, domain.UploadedFilePatch{Status: &failed}); ferr != nil && !domain.IsWarning(ferr) {
			u.logger.Error("mark upload failed", zap.String("file_id", id), zap.Error(ferr))
		}
		u.logger.Warn("upload failed", zap.String("file_id", id), zap.String("key", key), zap.Error(err))
		current, ok := u.files.GetUploadedFile(id)
		if !ok {
			current = meta
		}
		return current, fmt.Errorf("upload %s: %w", id, err)
	}

	completed := domain.UploadStatusCompleted
	done, err := u.files.UpdateUploadedFile(ctx, id, domain.UploadedFilePatch{
		Status:      &completed,
		Progress:    domain.Ptr(100),
		Size:        &info.Size,
		URL:         domain.Ptr(u.blobs.Locator(key)),
		ContentHash: &info.SHA256,
	})
	if err != nil && !domain.IsWarning(err) {
		return meta, err
	}
	u.warn(err, id)
	u.logger.Info("upload completed",
		zap.String("file_id", id),
		zap.String("key", key),
		zap.Int64("size", info.Size),
		zap.String("driver", string(u.blobs.Driver())))
	return done, err
}

// Verify recomputes the SHA-256 of the stored payload and compares it with
// the digest recorded at upload.
func (u *Uploader) Verify(ctx context.Context, id string) (bool, error) {
	f, ok := u.files.GetUploadedFile(id)
	if !ok {
		return false, domain.NotFoundError{Entity: domain.EntityUploadedFile, ID: id}
	}
	if f.Status != domain.UploadStatusCompleted || f.ContentHash == "" {
		return false, fmt.Errorf("verify %s: %w", id, ErrNotVerifiable)
	}
	_, rc, err := u.blobs.Get(ctx, Key(f.ID))
	if err != nil {
		return false, fmt.Errorf("verify %s: %w", id, err)
	}
	defer rc.Close()
	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return false, fmt.Errorf("verify %s: %w", id, err)
	}
	match := hex.EncodeToString(h.Sum(nil)) == f.ContentHash
	if !match {
		u.logger.Warn("content hash mismatch", zap.String("file_id", id))
	}
	return match, nil
}

// Delete removes the payload and then the file metadata. Missing payloads are
// tolerated so metadata for failed uploads can still be removed.
func (u *Uploader) Delete(ctx context.Context, id string) error {
	f, ok := u.files.GetUploadedFile(id)
	if !ok {
		return nil
	}
	if _, err := u.blobs.Delete(ctx, Key(f.ID)); err != nil {
		return fmt.Errorf("delete payload %s: %w", id, err)
	}
	return u.files.DeleteUploadedFile(ctx, id)
}

func (u *Uploader) warn(err error, id string) {
	if err != nil {
		u.logger.Warn("file metadata not persisted", zap.String("file_id", id), zap.Error(err))
	}
}

// progressReader reports whole-percent progress below 100 each time it
// advances by at least step.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	step   int
	report func(pct int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 && n > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		if pct-p.last >= p.step {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
