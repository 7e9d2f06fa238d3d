// Package core defines the payload storage contract shared by the blob
// facade and its backends.
package core

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem stores payloads under a local directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores payloads in an S3 / MinIO compatible bucket.
	DriverS3 Driver = "s3"
	// DriverMemory keeps payloads in process memory (tests).
	DriverMemory Driver = "memory"
)

// MetaSHA256 is the metadata key carrying the hex SHA-256 of a payload.
const MetaSHA256 = "sha256"

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored payload. SHA256 is the hex digest of the content.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	SHA256       string            `json:"sha256,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the create-once payload store behind uploaded files.
type Store interface {
	// Put stores a new payload at key and fails with ErrExists if the key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns payload metadata and content; ErrNotFound when absent.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes a payload, reporting whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns payloads whose key has prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Locator returns the stable address recorded on the uploaded file.
	Locator(key string) string
	Driver() Driver
}

var (
	// ErrNotFound is returned when no payload is stored at a key.
	ErrNotFound = errors.New("blob: not found")
	// ErrExists is returned by Put when the key is already taken.
	ErrExists = errors.New("blob: already exists")
)

// CloneMetadata copies a metadata map; nil stays nil.
func CloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
