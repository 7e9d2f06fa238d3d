// Package blob is the entry point to attachment payload storage. Callers depend
// on blob.Store; only this package reaches into the infra backends.
package blob

import (
	"medportal/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a payload write.
	PutOptions = core.PutOptions
	// Info describes stored payload metadata.
	Info = core.Info
	// Store is the interface for payload storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrNotFound reports a missing payload.
	ErrNotFound = core.ErrNotFound
	// ErrExists reports a Put onto a taken key.
	ErrExists = core.ErrExists
)
